// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"flag"
	"fmt"
	stdio "io"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ezrec/lemurs/archive"
	"github.com/ezrec/lemurs/config"
	"github.com/ezrec/lemurs/cpu"
	"github.com/ezrec/lemurs/emulator"
	"github.com/ezrec/lemurs/evolve"
	"github.com/ezrec/lemurs/internal/log"
	"github.com/ezrec/lemurs/io"
)

type options struct {
	compile     string
	save        bool
	disassemble bool
	steps       int
	output      string
	text        bool
	verbose     bool
	trace       bool
	config      string
	archive     string
	evolve      int
}

func main() {
	var opts options

	flag.StringVar(&opts.compile, "c", "", "assembly file to compile")
	flag.BoolVar(&opts.save, "s", false, "write the image to the output, do not execute")
	flag.BoolVar(&opts.disassemble, "d", false, "write a disassembly listing to the output, do not execute")
	flag.IntVar(&opts.steps, "n", 0, "step budget, 0 for unlimited")
	flag.StringVar(&opts.output, "o", "-", "output file")
	flag.BoolVar(&opts.text, "t", false, "write output values as decimal text")
	flag.BoolVar(&opts.verbose, "v", false, "verbose mode")
	flag.BoolVar(&opts.trace, "trace", false, "log every executed instruction")
	flag.StringVar(&opts.config, "config", "", "TOML configuration file")
	flag.StringVar(&opts.archive, "archive", "", "program archive directory")
	flag.IntVar(&opts.evolve, "evolve", 0, "breed, evaluate and archive this many mutants")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %v [flags] [IMAGE|-|KEY]\n", os.Args[0])
		flag.PrintDefaults()
	}

	flag.Parse()

	cfg, err := loadConfig(&opts)
	if err != nil {
		log.Root.Fatal().Err(err).Msg("configuration")
	}

	log.Init(cfg.LogOptions())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = run(ctx, &opts, cfg)
	if err != nil {
		log.Root.Fatal().Err(err).Msg(os.Args[0])
	}
}

// loadConfig reads the configuration file, then applies the flags that
// were given on the command line.
func loadConfig(opts *options) (cfg config.Config, err error) {
	cfg = config.Default()
	if len(opts.config) != 0 {
		cfg, err = config.Load(opts.config)
		if err != nil {
			return
		}
	}

	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "n":
			cfg.Run.MaxSteps = opts.steps
		case "o":
			cfg.Output.Path = opts.output
		case "t":
			if opts.text {
				cfg.Output.Format = config.FORMAT_TEXT
			} else {
				cfg.Output.Format = config.FORMAT_TAPE
			}
		case "v":
			if opts.verbose {
				cfg.Log.Level = "debug"
			}
		case "trace":
			cfg.Log.Trace = opts.trace
		case "archive":
			cfg.Archive.Path = opts.archive
		}
	})

	// The tracer logs at debug level.
	if cfg.Log.Trace {
		level, _ := log.ParseLevel(cfg.Log.Level)
		if level > zerolog.DebugLevel {
			cfg.Log.Level = zerolog.DebugLevel.String()
		}
	}

	err = cfg.Validate()
	return
}

func createOutput(path string) (out stdio.WriteCloser, err error) {
	if len(path) == 0 || path == "-" {
		return os.Stdout, nil
	}

	out, err = os.Create(path)
	if err != nil {
		err = errors.Wrapf(err, "output %v", path)
	}

	return
}

// closeOutput closes a file made by createOutput. The first error wins.
func closeOutput(out stdio.WriteCloser, path string, err error) error {
	if out == os.Stdout {
		return err
	}

	cerr := out.Close()
	if err == nil && cerr != nil {
		err = errors.Wrapf(cerr, "output %v", path)
	}

	return err
}

func run(ctx context.Context, opts *options, cfg config.Config) (err error) {
	var ar *archive.Archive
	if len(cfg.Archive.Path) != 0 {
		ar, err = archive.Open(cfg.Archive.Path)
		if err != nil {
			return
		}
		defer ar.Close()
	}

	emu := emulator.NewEmulator(cfg.Run)
	emu.Verbose = opts.verbose

	switch {
	case len(opts.compile) != 0:
		if flag.NArg() != 0 {
			return errors.Errorf("unexpected arguments: %v", flag.Args())
		}
		var prog *cpu.Program
		prog, err = assemble(opts.compile, opts.verbose)
		if err != nil {
			return
		}
		emu.SetProgram(prog)
	case flag.NArg() == 1:
		err = loadImage(&emu.Rom, flag.Arg(0), ar)
		if err != nil {
			return
		}
	case flag.NArg() == 0 && opts.evolve > 0:
		// breed starts from a random parent.
	default:
		flag.Usage()
		return errors.New("no program given")
	}

	out, err := createOutput(cfg.Output.Path)
	if err != nil {
		return
	}
	defer func() {
		err = closeOutput(out, cfg.Output.Path, err)
	}()

	switch {
	case opts.save:
		return emu.Rom.WriteImage(out)
	case opts.disassemble:
		return listing(out, emu)
	case opts.evolve > 0:
		return breed(ctx, out, emu.Rom.Data, opts.evolve, cfg, ar)
	}

	if cfg.Output.Format == config.FORMAT_TEXT {
		emu.Cpu.Output = &io.Text{Output: out}
	} else {
		emu.Tape.Output = out
	}

	if cfg.Log.Trace {
		logger := log.Cpu
		emu.Cpu.Trace = cpu.NewTracer(&logger)
	}

	err = emu.Reset()
	if err != nil {
		return
	}

	steps, err := emu.Run(ctx)
	switch {
	case errors.Is(err, emulator.ErrStepBudget), errors.Is(err, context.Canceled):
		log.Root.Info().Err(err).Int("steps", steps).Msg("run stopped")
		err = nil
	case err == nil:
		log.Root.Info().Int("steps", steps).Msg("run complete")
	}

	return
}

func assemble(path string, verbose bool) (prog *cpu.Program, err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	asm := &cpu.Assembler{Verbose: verbose}
	prog, err = asm.Parse(inf)
	if err != nil {
		err = errors.Wrap(err, path)
	}

	return
}

// loadImage reads a raw image from a file, stdin, or the archive by key.
func loadImage(rom *io.Rom, name string, ar *archive.Archive) (err error) {
	if name == "-" {
		return rom.ReadImage(os.Stdin)
	}

	if ar != nil {
		key, kerr := archive.ParseKey(name)
		if kerr == nil {
			rom.Data, err = ar.Get(key)
			return
		}
	}

	inf, err := os.Open(name)
	if err != nil {
		return
	}
	defer inf.Close()

	return rom.ReadImage(inf)
}

func listing(out stdio.Writer, emu *emulator.Emulator) (err error) {
	for entry := range cpu.Disassemble(emu.Rom.Data) {
		text := entry.Code.String()
		if entry.Err != nil {
			text = fmt.Sprintf(".byte %#02x ; %v", emu.Rom.Data[entry.Ip], entry.Err)
		}

		dbg := emu.Program.Debug(uint16(entry.Ip))
		if dbg.Opcode != nil {
			text = fmt.Sprintf("%-32s ; %d: %v", text, dbg.Opcode.LineNo, strings.Join(dbg.Opcode.Words, " "))
		}

		_, err = fmt.Fprintf(out, "%04x: %v\n", entry.Ip, text)
		if err != nil {
			return
		}
	}

	return
}

// breed archives count mutants of image and reports how each one ran.
// A nil image is replaced by random bytes.
func breed(ctx context.Context, out stdio.Writer, image []byte, count int, cfg config.Config, ar *archive.Archive) (err error) {
	if ar == nil {
		ar, err = archive.OpenInMemory()
		if err != nil {
			return
		}
		defer ar.Close()
	}

	rng := rand.New(rand.NewPCG(cfg.Evolve.Seed, uint64(count)))

	if image == nil {
		image = evolve.Random(rng, cfg.Evolve.Length)
		log.Evolve.Info().Int("length", len(image)).Msg("random parent")
	}

	children, err := evolve.Breed(rng, [][]byte{image}, count, cfg.Evolve.Mutations)
	if err != nil {
		return
	}

	results, err := evolve.Evaluate(ctx, children, cfg)
	if err != nil {
		return
	}

	keys, err := ar.PutAll(children)
	if err != nil {
		return
	}

	for n, result := range results {
		status := "ok"
		if result.Err != nil {
			status = result.Err.Error()
		}
		_, err = fmt.Fprintf(out, "%v %d %d %v\n", keys[n], len(result.Program), result.Steps, status)
		if err != nil {
			return
		}
	}

	log.Evolve.Info().Int("mutants", count).Str("archive", cfg.Archive.Path).Msg("evolve complete")

	return
}
