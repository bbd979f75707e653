// Package archive stores program images by content.
package archive

import (
	"encoding/hex"
	"iter"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

// Images live under this prefix, leaving room for other record kinds.
var imagePrefix = []byte("img/")

// Key is the blake2b-256 digest of an image.
type Key [blake2b.Size256]byte

// KeyOf returns the key of image.
func KeyOf(image []byte) Key {
	return Key(blake2b.Sum256(image))
}

// ParseKey parses the hex form produced by Key.String.
func ParseKey(text string) (key Key, err error) {
	data, err := hex.DecodeString(text)
	if err != nil || len(data) != len(key) {
		err = errors.Wrapf(ErrKey, "%q", text)
		return
	}

	copy(key[:], data)
	return
}

func (key Key) String() string {
	return hex.EncodeToString(key[:])
}

func (key Key) dbKey() []byte {
	return append(append([]byte{}, imagePrefix...), key[:]...)
}

// Archive is a pebble backed image store. It is safe for concurrent use.
type Archive struct {
	db     *pebble.DB
	closed bool
	mu     sync.RWMutex
}

// Open opens, or creates, the archive in directory path.
func Open(path string) (*Archive, error) {
	return open(path, &pebble.Options{
		Cache:        pebble.NewCache(8 * 1024 * 1024),
		MemTableSize: 4 * 1024 * 1024,
	})
}

// OpenInMemory opens an archive that is discarded on Close.
func OpenInMemory() (*Archive, error) {
	return open("lemurs", &pebble.Options{
		FS: vfs.NewMem(),
	})
}

func open(path string, opts *pebble.Options) (*Archive, error) {
	db, err := pebble.Open(path, opts)
	if opts.Cache != nil {
		opts.Cache.Unref()
	}
	if err != nil {
		return nil, errors.Wrapf(err, "archive %v", path)
	}

	return &Archive{db: db}, nil
}

// Put stores image and returns its key. Storing the same image twice is
// harmless.
func (ar *Archive) Put(image []byte) (key Key, err error) {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	if ar.closed {
		err = ErrClosed
		return
	}

	key = KeyOf(image)
	err = ar.db.Set(key.dbKey(), image, pebble.Sync)
	if err != nil {
		err = errors.Wrapf(err, "put %v", key)
	}

	return
}

// PutAll stores a batch of images atomically.
func (ar *Archive) PutAll(images [][]byte) (keys []Key, err error) {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	if ar.closed {
		err = ErrClosed
		return
	}

	batch := ar.db.NewBatch()
	defer batch.Close()

	keys = make([]Key, len(images))
	for n, image := range images {
		keys[n] = KeyOf(image)
		err = batch.Set(keys[n].dbKey(), image, nil)
		if err != nil {
			keys = nil
			return
		}
	}

	err = batch.Commit(pebble.Sync)
	if err != nil {
		keys = nil
		err = errors.Wrap(err, "commit")
	}

	return
}

// Get returns a copy of the image stored under key.
func (ar *Archive) Get(key Key) (image []byte, err error) {
	ar.mu.RLock()
	defer ar.mu.RUnlock()

	if ar.closed {
		err = ErrClosed
		return
	}

	value, closer, err := ar.db.Get(key.dbKey())
	if errors.Is(err, pebble.ErrNotFound) {
		err = errors.Wrapf(ErrNotFound, "%v", key)
		return
	}
	if err != nil {
		return
	}
	defer closer.Close()

	image = make([]byte, len(value))
	copy(image, value)
	return
}

// Keys iterates over the stored keys in order. The iteration stops at the
// first error, which is yielded with a zero key.
func (ar *Archive) Keys() iter.Seq2[Key, error] {
	return func(yield func(Key, error) bool) {
		ar.mu.RLock()
		defer ar.mu.RUnlock()

		if ar.closed {
			yield(Key{}, ErrClosed)
			return
		}

		it, err := ar.db.NewIter(&pebble.IterOptions{
			LowerBound: imagePrefix,
			UpperBound: prefixEnd(imagePrefix),
		})
		if err != nil {
			yield(Key{}, err)
			return
		}
		defer it.Close()

		for valid := it.First(); valid; valid = it.Next() {
			var key Key
			copy(key[:], it.Key()[len(imagePrefix):])
			if !yield(key, nil) {
				return
			}
		}

		err = it.Error()
		if err != nil {
			yield(Key{}, err)
		}
	}
}

// Close the archive. Further calls return ErrClosed.
func (ar *Archive) Close() error {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	if ar.closed {
		return nil
	}
	ar.closed = true
	return ar.db.Close()
}

func prefixEnd(prefix []byte) []byte {
	end := append([]byte{}, prefix...)
	end[len(end)-1]++
	return end
}
