package catalog

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// Store owns the two persisted collections. Every access happens inside a
// session: the blob is loaded once when the session starts and, for update
// sessions, written back once when the callback returns nil. Read sessions
// never write, whatever the callback does to the in-memory copy.
type Store struct {
	indexPath string
	cachePath string
	log       *slog.Logger
}

// NewStore returns a Store persisting to the given absolute paths.
func NewStore(indexPath, cachePath string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Store{indexPath: indexPath, cachePath: cachePath, log: log}
}

// IndexPath returns the Index blob location.
func (s *Store) IndexPath() string { return s.indexPath }

// CachePath returns the Cache blob location.
func (s *Store) CachePath() string { return s.cachePath }

// ViewIndex runs fn against a read-only snapshot of the Index.
func (s *Store) ViewIndex(fn func(IndexView) error) error {
	lock, err := lockStore(s.indexPath, false)
	if err != nil {
		return fmt.Errorf("view index: %w", err)
	}

	defer unlockStore(lock)

	index, err := s.loadIndex()
	if err != nil {
		return fmt.Errorf("view index: %w", err)
	}

	return fn(index)
}

// UpdateIndex runs fn against the Index and commits the result if fn
// succeeds. Nothing is written when fn returns an error.
func (s *Store) UpdateIndex(fn func(*Index) error) error {
	lock, err := lockStore(s.indexPath, true)
	if err != nil {
		return fmt.Errorf("update index: %w", err)
	}

	defer unlockStore(lock)

	index, err := s.loadIndex()
	if err != nil {
		return fmt.Errorf("update index: %w", err)
	}

	fnErr := fn(index)
	if fnErr != nil {
		return fnErr
	}

	blob := indexBlob{Entries: make(map[string]wireEntry, len(index.entries))}
	for source, entry := range index.entries {
		blob.Entries[source] = toWire(entry)
	}

	writeErr := writeBlob(s.indexPath, indexMagic, blob)
	if writeErr != nil {
		return fmt.Errorf("update index: %w", writeErr)
	}

	s.log.Debug("index committed", "path", s.indexPath, "entries", len(index.entries))

	return nil
}

// ViewCache runs fn against a read-only snapshot of the Cache.
func (s *Store) ViewCache(fn func(CacheView) error) error {
	lock, err := lockStore(s.cachePath, false)
	if err != nil {
		return fmt.Errorf("view cache: %w", err)
	}

	defer unlockStore(lock)

	cache, err := s.loadCache()
	if err != nil {
		return fmt.Errorf("view cache: %w", err)
	}

	return fn(cache)
}

// UpdateCache runs fn against the Cache and commits the result if fn
// succeeds.
func (s *Store) UpdateCache(fn func(*Cache) error) error {
	lock, err := lockStore(s.cachePath, true)
	if err != nil {
		return fmt.Errorf("update cache: %w", err)
	}

	defer unlockStore(lock)

	cache, err := s.loadCache()
	if err != nil {
		return fmt.Errorf("update cache: %w", err)
	}

	fnErr := fn(cache)
	if fnErr != nil {
		return fnErr
	}

	blob := cacheBlob{Entries: make([]wireEntry, len(cache.entries))}
	for i, entry := range cache.entries {
		blob.Entries[i] = toWire(entry)
	}

	writeErr := writeBlob(s.cachePath, cacheMagic, blob)
	if writeErr != nil {
		return fmt.Errorf("update cache: %w", writeErr)
	}

	s.log.Debug("cache committed", "path", s.cachePath, "entries", len(cache.entries))

	return nil
}

func (s *Store) loadIndex() (*Index, error) {
	var blob indexBlob

	_, err := readBlob(s.indexPath, indexMagic, &blob)
	if err != nil {
		return nil, err
	}

	index := &Index{entries: make(map[string]Entry, len(blob.Entries))}

	for source, w := range blob.Entries {
		if w.Source != source {
			return nil, &StoreError{
				Path: s.indexPath,
				Err:  fmt.Errorf("%w: entry %q stored under key %q", ErrConstraintViolation, w.Source, source),
			}
		}

		index.entries[source] = fromWire(w)
	}

	return index, nil
}

func (s *Store) loadCache() (*Cache, error) {
	var blob cacheBlob

	_, err := readBlob(s.cachePath, cacheMagic, &blob)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, len(blob.Entries))
	for i, w := range blob.Entries {
		entries[i] = fromWire(w).WithPosition(i)
	}

	return &Cache{entries: entries}, nil
}

// IndexView is the read-only surface of the Index.
type IndexView interface {
	// Get returns the entry stored under source.
	Get(source string) (Entry, bool)
	Len() int
	// Entries returns every entry ordered by source.
	Entries() []Entry
}

// Index maps a unique source to its Entry.
type Index struct {
	entries map[string]Entry
}

// Get returns the entry stored under source.
func (ix *Index) Get(source string) (Entry, bool) {
	entry, ok := ix.entries[source]
	if !ok {
		return Entry{}, false
	}

	return entry.copy(), true
}

// Len returns the number of entries.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Entries returns every entry ordered by source.
func (ix *Index) Entries() []Entry {
	out := make([]Entry, 0, len(ix.entries))
	for _, entry := range ix.entries {
		out = append(out, entry.copy())
	}

	SortAlphabetical(out)

	return out
}

// Put stores entry under source, replacing any previous entry. The key must
// equal the entry's own source.
func (ix *Index) Put(source string, entry Entry) error {
	err := checkKey(source, entry)
	if err != nil {
		return err
	}

	ix.entries[source] = entry.copy()

	return nil
}

// Delete removes the entry stored under source.
func (ix *Index) Delete(source string) error {
	if _, ok := ix.entries[source]; !ok {
		return fmt.Errorf("%w: source %q", ErrNotFound, source)
	}

	delete(ix.entries, source)

	return nil
}

// Rename replaces the entry at oldSource with entry stored under newSource.
// Nothing changes if any check fails.
func (ix *Index) Rename(oldSource, newSource string, entry Entry) error {
	err := checkKey(newSource, entry)
	if err != nil {
		return err
	}

	if _, ok := ix.entries[oldSource]; !ok {
		return fmt.Errorf("%w: source %q", ErrNotFound, oldSource)
	}

	delete(ix.entries, oldSource)
	ix.entries[newSource] = entry.copy()

	return nil
}

// ReplaceAll discards the Index and installs entries instead.
func (ix *Index) ReplaceAll(entries map[string]Entry) error {
	next := make(map[string]Entry, len(entries))

	for source, entry := range entries {
		err := checkKey(source, entry)
		if err != nil {
			return err
		}

		next[source] = entry.copy()
	}

	ix.entries = next

	return nil
}

func checkKey(source string, entry Entry) error {
	if strings.TrimSpace(source) == "" {
		return fmt.Errorf("%w: empty source key", ErrConstraintViolation)
	}

	if entry.Source != source {
		return fmt.Errorf("%w: entry %q stored under key %q", ErrConstraintViolation, entry.Source, source)
	}

	return nil
}

// CacheView is the read-only surface of the Cache.
type CacheView interface {
	// Get returns the entry with the external 1-based number n.
	Get(n int) (Entry, error)
	Len() int
	Entries() []Entry
}

// Cache is the ordered snapshot of the last listing or search. The entry at
// slot i always has Position i.
type Cache struct {
	entries []Entry
}

// Get returns the entry with the external 1-based number n.
func (c *Cache) Get(n int) (Entry, error) {
	if n < 1 || n > len(c.entries) {
		return Entry{}, fmt.Errorf("%w: no such position %d (cache holds %d)", ErrNotFound, n, len(c.entries))
	}

	return c.entries[n-1].copy(), nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Entries returns the cached entries in view order.
func (c *Cache) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	for i, entry := range c.entries {
		out[i] = entry.copy()
	}

	return out
}

// Set replaces the whole view. Positions are renumbered from 0; whatever
// positions the caller passed in are ignored.
func (c *Cache) Set(entries []Entry) {
	next := make([]Entry, len(entries))
	for i, entry := range entries {
		next[i] = entry.WithPosition(i)
	}

	c.entries = next
}

// Append adds entries after the current view.
func (c *Cache) Append(entries ...Entry) {
	c.Set(append(slices.Clone(c.entries), entries...))
}

// Clear empties the view.
func (c *Cache) Clear() {
	c.Set(nil)
}

// UpdateIfPresent replaces the first cached entry whose source is oldSource
// with entry, keeping its slot. If no such entry exists, entry is appended.
// It returns entry as stored, with its position stamped.
func (c *Cache) UpdateIfPresent(oldSource string, entry Entry) Entry {
	for i, cached := range c.entries {
		if cached.Source == oldSource {
			c.entries[i] = entry.WithPosition(i)

			return c.entries[i].copy()
		}
	}

	c.Append(entry)

	return c.entries[len(c.entries)-1].copy()
}

func (e Entry) copy() Entry {
	e.Metadata = e.Metadata.clone()

	if e.Position != nil {
		pos := *e.Position
		e.Position = &pos
	}

	return e
}
