// Package config loads the lemurs settings file.
package config

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ezrec/lemurs/internal/log"
)

// Output formats.
const (
	FORMAT_TAPE = "tape"
	FORMAT_TEXT = "text"
)

// Run is the termination policy of a single program run.
type Run struct {
	MaxSteps  int  `toml:"max_steps"`   // 0 is unlimited.
	StopAtEnd bool `toml:"stop_at_end"` // Ip leaving memory is a normal end.
}

type Output struct {
	Path   string `toml:"path"`   // Empty or "-" is stdout.
	Format string `toml:"format"` // FORMAT_TAPE or FORMAT_TEXT.
}

type Log struct {
	Level string `toml:"level"`
	JSON  bool   `toml:"json"`
	Trace bool   `toml:"trace"`
}

type Archive struct {
	Path string `toml:"path"` // Empty disables the archive.
}

// Evolve controls a mutation batch.
type Evolve struct {
	Population  int    `toml:"population"`
	Mutations   int    `toml:"mutations"` // Mutations applied to each child.
	Seed        uint64 `toml:"seed"`
	OutputLimit int    `toml:"output_limit"` // Bytes of output kept per program.
	Workers     int    `toml:"workers"`      // 0 uses GOMAXPROCS.
	Length      int    `toml:"length"`       // Size of a random parent when none is given.
}

type Config struct {
	Run     Run     `toml:"run"`
	Output  Output  `toml:"output"`
	Log     Log     `toml:"log"`
	Archive Archive `toml:"archive"`
	Evolve  Evolve  `toml:"evolve"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Run: Run{
			MaxSteps:  1_000_000,
			StopAtEnd: true,
		},
		Output: Output{
			Format: FORMAT_TAPE,
		},
		Log: Log{
			Level: "info",
		},
		Evolve: Evolve{
			Population:  16,
			Mutations:   4,
			Seed:        1,
			OutputLimit: 4096,
			Length:      256,
		},
	}
}

// Load reads path over the defaults.
func Load(path string) (cfg Config, err error) {
	cfg = Default()

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		err = errors.Wrapf(err, "config %v", path)
		return
	}

	for _, key := range md.Undecoded() {
		log.Root.Warn().Str("key", key.String()).Str("file", path).Msg("unknown config key")
	}

	err = cfg.Validate()
	if err != nil {
		err = errors.Wrapf(err, "config %v", path)
		return
	}

	return
}

// Decode parses TOML text over the defaults.
func Decode(text string) (cfg Config, err error) {
	cfg = Default()

	_, err = toml.Decode(text, &cfg)
	if err != nil {
		err = errors.Wrap(err, "config")
		return
	}

	err = cfg.Validate()
	return
}

// Validate checks value ranges.
func (cfg *Config) Validate() (err error) {
	switch {
	case cfg.Run.MaxSteps < 0:
		err = errors.Wrapf(ErrInvalid, "run.max_steps %d", cfg.Run.MaxSteps)
	case cfg.Output.Format != FORMAT_TAPE && cfg.Output.Format != FORMAT_TEXT:
		err = errors.Wrapf(ErrInvalid, "output.format %q", cfg.Output.Format)
	case cfg.Evolve.Population < 0:
		err = errors.Wrapf(ErrInvalid, "evolve.population %d", cfg.Evolve.Population)
	case cfg.Evolve.Mutations < 0:
		err = errors.Wrapf(ErrInvalid, "evolve.mutations %d", cfg.Evolve.Mutations)
	case cfg.Evolve.OutputLimit < 0:
		err = errors.Wrapf(ErrInvalid, "evolve.output_limit %d", cfg.Evolve.OutputLimit)
	case cfg.Evolve.Workers < 0:
		err = errors.Wrapf(ErrInvalid, "evolve.workers %d", cfg.Evolve.Workers)
	case cfg.Evolve.Length < 0:
		err = errors.Wrapf(ErrInvalid, "evolve.length %d", cfg.Evolve.Length)
	default:
		_, perr := log.ParseLevel(cfg.Log.Level)
		if perr != nil {
			err = errors.Wrapf(ErrInvalid, "log.level %q", cfg.Log.Level)
		}
	}

	return
}

// LogOptions converts the [log] section for log.Init.
func (cfg *Config) LogOptions() (opts log.Options) {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	opts.Level = level
	if cfg.Log.JSON {
		opts.Type = log.JSONLogger
	}

	return
}
