package catalog

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// Store blob format: magic(4) + version(2, little endian) + gob payload.
const (
	indexMagic     = "PCIX"
	cacheMagic     = "PCCA"
	blobVersion    = 1
	blobHeaderSize = 6

	dirPerms = 0o750
)

var (
	errInvalidMagic    = errors.New("invalid store magic")
	errVersionMismatch = errors.New("store version mismatch")
)

// wireEntry is the gob form of an Entry. Presence of optional fields is
// explicit because gob drops zero values, and hardness 0 or position 0 must
// survive a round trip.
type wireEntry struct {
	Source      string
	Description string
	HasAuthor   bool
	Author      string
	HasURL      bool
	URL         string
	HasHardness bool
	Hardness    int
	Tags        []string
	Path        string
	HasPosition bool
	Position    int
}

type indexBlob struct {
	Entries map[string]wireEntry
}

type cacheBlob struct {
	Entries []wireEntry
}

func toWire(e Entry) wireEntry {
	w := wireEntry{
		Source:      e.Source,
		Description: e.Description,
		Tags:        e.Tags,
		Path:        e.Path,
	}

	if e.Author != nil {
		w.HasAuthor, w.Author = true, *e.Author
	}

	if e.URL != nil {
		w.HasURL, w.URL = true, *e.URL
	}

	if e.Hardness != nil {
		w.HasHardness, w.Hardness = true, *e.Hardness
	}

	if e.Position != nil {
		w.HasPosition, w.Position = true, *e.Position
	}

	return w
}

func fromWire(w wireEntry) Entry {
	e := Entry{
		Metadata: Metadata{
			Source:      w.Source,
			Description: w.Description,
			Tags:        normalizeTags(w.Tags),
		},
		Path: w.Path,
	}

	if w.HasAuthor {
		author := w.Author
		e.Author = &author
	}

	if w.HasURL {
		url := w.URL
		e.URL = &url
	}

	if w.HasHardness {
		hardness := w.Hardness
		e.Hardness = &hardness
	}

	if w.HasPosition {
		pos := w.Position
		e.Position = &pos
	}

	return e
}

// readBlob decodes the store at path into dst. It returns false without error
// when the file is missing or empty, which callers treat as an empty store.
func readBlob(path, magic string, dst any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("reading store %s: %w", path, err)
	}

	if len(data) == 0 {
		return false, nil
	}

	if len(data) < blobHeaderSize || string(data[:4]) != magic {
		return false, &StoreError{Path: path, Err: errInvalidMagic}
	}

	version := binary.LittleEndian.Uint16(data[4:blobHeaderSize])
	if version != blobVersion {
		return false, &StoreError{Path: path, Err: fmt.Errorf("%w: %d", errVersionMismatch, version)}
	}

	decodeErr := gob.NewDecoder(bytes.NewReader(data[blobHeaderSize:])).Decode(dst)
	if decodeErr != nil {
		return false, &StoreError{Path: path, Err: decodeErr}
	}

	return true, nil
}

// writeBlob replaces the store at path in one atomic rename.
func writeBlob(path, magic string, src any) error {
	var buf bytes.Buffer

	buf.WriteString(magic)

	var version [2]byte

	binary.LittleEndian.PutUint16(version[:], blobVersion)
	buf.Write(version[:])

	encodeErr := gob.NewEncoder(&buf).Encode(src)
	if encodeErr != nil {
		return fmt.Errorf("encoding store %s: %w", path, encodeErr)
	}

	mkdirErr := os.MkdirAll(filepath.Dir(path), dirPerms)
	if mkdirErr != nil {
		return fmt.Errorf("creating store directory: %w", mkdirErr)
	}

	writeErr := atomic.WriteFile(path, &buf)
	if writeErr != nil {
		return fmt.Errorf("writing store %s: %w", path, writeErr)
	}

	return nil
}
