package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/natefinch/atomic"
)

const filePerms = 0o600

// Options wires the collaborators a Catalog depends on.
type Options struct {
	Parser     Parser
	Discoverer Discoverer
	Normalizer Normalizer // optional
	Usage      UsageFeed  // optional
	Logger     *slog.Logger
}

// Catalog ties the stores to the document files under the base directory.
type Catalog struct {
	cfg      Config
	store    *Store
	parser   Parser
	discover Discoverer
	order    Ordering
	searcher *Searcher
	log      *slog.Logger
}

// New returns a Catalog for the resolved config cfg.
func New(cfg Config, opts Options) (*Catalog, error) {
	if opts.Parser == nil {
		return nil, errors.New("new catalog: parser is nil")
	}

	if opts.Discoverer == nil {
		return nil, errors.New("new catalog: discoverer is nil")
	}

	if cfg.BaseDirAbs == "" || cfg.IndexPathAbs == "" || cfg.CachePathAbs == "" {
		return nil, errors.New("new catalog: config paths are not resolved")
	}

	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	store := NewStore(cfg.IndexPathAbs, cfg.CachePathAbs, log)
	order := NewOrdering(cfg.SortTags)

	return &Catalog{
		cfg:      cfg,
		store:    store,
		parser:   opts.Parser,
		discover: opts.Discoverer,
		order:    order,
		searcher: NewSearcher(store, order, opts.Normalizer, opts.Usage, cfg.UsedTag),
		log:      log,
	}, nil
}

// Store returns the underlying stores.
func (c *Catalog) Store() *Store { return c.store }

// Ordering returns the configured entry ordering.
func (c *Catalog) Ordering() Ordering { return c.order }

// ShortenPath converts an absolute path to one relative to the base directory.
func (c *Catalog) ShortenPath(path string) (string, error) {
	if !filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}

	rel, err := filepath.Rel(c.cfg.BaseDirAbs, path)
	if err != nil {
		return "", fmt.Errorf("shorten path %s: %w", path, err)
	}

	return rel, nil
}

// CompletePath converts a base-relative path to an absolute one.
func (c *Catalog) CompletePath(path string) string {
	return resolve(c.cfg.BaseDirAbs, path)
}

// EntryByCacheNumber returns the cached entry with external number n.
func (c *Catalog) EntryByCacheNumber(n int) (Entry, error) {
	var entry Entry

	err := c.store.ViewCache(func(cache CacheView) error {
		var getErr error

		entry, getErr = cache.Get(n)

		return getErr
	})
	if err != nil {
		return Entry{}, err
	}

	return entry, nil
}

// EntryBySource returns the Index entry for source.
func (c *Catalog) EntryBySource(source string) (Entry, error) {
	var (
		entry Entry
		found bool
	)

	err := c.store.ViewIndex(func(index IndexView) error {
		entry, found = index.Get(source)
		return nil
	})
	if err != nil {
		return Entry{}, err
	}

	if !found {
		return Entry{}, fmt.Errorf("%w: source %q", ErrNotFound, source)
	}

	return entry, nil
}

// EntryByKey resolves an all-digit key as a cache number and anything else
// as a source.
func (c *Catalog) EntryByKey(key string) (Entry, error) {
	if n, ok := ParseNumber(key); ok {
		return c.EntryByCacheNumber(n)
	}

	return c.EntryBySource(key)
}

// Document rehydrates entry from its backing file.
func (c *Catalog) Document(entry Entry) (Document, error) {
	return entry.Document(c.parser)
}

// AddDocument stores doc's projection in the Index. A source already owned
// by another file is an [ErrIdentifierCollision].
func (c *Catalog) AddDocument(doc Document) (Entry, error) {
	entry := doc.Entry()

	err := c.store.UpdateIndex(func(index *Index) error {
		claimErr := claimSource(index, entry)
		if claimErr != nil {
			return claimErr
		}

		return index.Put(entry.Source, entry.WithoutPosition())
	})
	if err != nil {
		return Entry{}, fmt.Errorf("add %s: %w", doc.Path, err)
	}

	return entry, nil
}

// AddDocumentFromContents writes text to path (relative to the base
// directory), parses it back and indexes it.
func (c *Catalog) AddDocumentFromContents(path, text string) (Document, error) {
	rel, err := c.ShortenPath(path)
	if err != nil {
		return Document{}, err
	}

	abs := c.CompletePath(rel)

	mkdirErr := os.MkdirAll(filepath.Dir(abs), dirPerms)
	if mkdirErr != nil {
		return Document{}, fmt.Errorf("creating document directory: %w", mkdirErr)
	}

	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}

	writeErr := atomic.WriteFile(abs, strings.NewReader(text))
	if writeErr != nil {
		return Document{}, fmt.Errorf("writing document: %w", writeErr)
	}

	chmodErr := os.Chmod(abs, filePerms)
	if chmodErr != nil {
		return Document{}, fmt.Errorf("setting document permissions: %w", chmodErr)
	}

	c.log.Info("wrote document", "path", rel)

	doc, err := c.parser.ParseDocument(rel)
	if err != nil {
		return Document{}, fmt.Errorf("parsing %s: %w", rel, err)
	}

	_, err = c.AddDocument(doc)
	if err != nil {
		return Document{}, err
	}

	return doc, nil
}

// UpdateEntry replaces old with the projection of doc. doc inherits old's
// position. If the source changed, the Index entry is renamed. If old is in
// the Cache it is refreshed in place, otherwise the new entry is appended to
// the Cache. Renaming onto a source owned by another file fails with
// [ErrIdentifierCollision] and leaves both stores untouched. The returned
// entry carries its Cache position.
func (c *Catalog) UpdateEntry(old Entry, doc Document) (Entry, error) {
	doc.Position = nil
	if old.Position != nil {
		pos := *old.Position
		doc.Position = &pos
	}

	entry := doc.Entry()

	err := c.store.UpdateIndex(func(index *Index) error {
		if old.Source != entry.Source {
			claimErr := claimSource(index, entry)
			if claimErr != nil {
				return claimErr
			}

			return index.Rename(old.Source, entry.Source, entry.WithoutPosition())
		}

		return index.Put(entry.Source, entry.WithoutPosition())
	})
	if err != nil {
		return Entry{}, fmt.Errorf("update %s: %w", old.Source, err)
	}

	var stored Entry

	err = c.store.UpdateCache(func(cache *Cache) error {
		stored = cache.UpdateIfPresent(old.Source, entry)
		return nil
	})
	if err != nil {
		return Entry{}, fmt.Errorf("update %s: %w", old.Source, err)
	}

	return stored, nil
}

// claimSource fails if entry's source is stored for a different file.
func claimSource(index *Index, entry Entry) error {
	other, ok := index.Get(entry.Source)
	if ok && other.Path != entry.Path {
		return fmt.Errorf("%w: %q in %s is already used by %s",
			ErrIdentifierCollision, entry.Source, entry.Path, other.Path)
	}

	return nil
}

// Reindex re-reads the document at path. An Index entry backed by the same
// file is updated through [Catalog.UpdateEntry]; otherwise the document is
// added.
func (c *Catalog) Reindex(path string) (Entry, error) {
	rel, err := c.ShortenPath(path)
	if err != nil {
		return Entry{}, err
	}

	doc, err := c.parser.ParseDocument(rel)
	if err != nil {
		return Entry{}, fmt.Errorf("reindex %s: %w", rel, err)
	}

	var (
		old   Entry
		found bool
	)

	err = c.store.ViewIndex(func(index IndexView) error {
		for _, entry := range index.Entries() {
			if entry.Path == rel {
				old, found = entry, true

				return nil
			}
		}

		return nil
	})
	if err != nil {
		return Entry{}, fmt.Errorf("reindex %s: %w", rel, err)
	}

	if !found {
		return c.AddDocument(doc)
	}

	return c.UpdateEntry(old, doc)
}

// Listing is the result of viewing one directory.
type Listing struct {
	Entries []Entry
	Dirs    []string
}

// ViewDirectory lists the documents and subdirectories directly inside dir
// (relative to the base directory). A non-empty listing becomes the Cache.
// Hidden directories are skipped.
func (c *Catalog) ViewDirectory(dir string) (Listing, error) {
	rel, err := c.ShortenPath(dir)
	if err != nil {
		return Listing{}, err
	}

	items, err := os.ReadDir(c.CompletePath(rel))
	if err != nil {
		return Listing{}, fmt.Errorf("view directory %s: %w", rel, err)
	}

	var listing Listing

	for _, item := range items {
		name := item.Name()

		if item.IsDir() {
			if !strings.HasPrefix(name, ".") {
				listing.Dirs = append(listing.Dirs, name)
			}

			continue
		}

		if !item.Type().IsRegular() || filepath.Ext(name) != c.cfg.Extension {
			continue
		}

		doc, parseErr := c.parser.ParseDocument(filepath.Join(rel, name))
		if parseErr != nil {
			return Listing{}, fmt.Errorf("view directory %s: %w", rel, parseErr)
		}

		listing.Entries = append(listing.Entries, doc.Entry())
	}

	slices.Sort(listing.Dirs)
	c.order.Sort(listing.Entries)

	if len(listing.Entries) == 0 {
		return listing, nil
	}

	for i := range listing.Entries {
		listing.Entries[i] = listing.Entries[i].WithPosition(i)
	}

	err = c.SetCache(listing.Entries)
	if err != nil {
		return Listing{}, err
	}

	return listing, nil
}

// Search runs q through the Search Engine.
func (c *Catalog) Search(q Query) ([]Entry, error) {
	return c.searcher.Run(q)
}

// Rebuild regenerates the Index from the documents on disk.
func (c *Catalog) Rebuild(ctx context.Context) (RebuildResult, error) {
	return Rebuild(ctx, c.store, c.discover, c.log)
}

// SetCache replaces the Cache with entries.
func (c *Catalog) SetCache(entries []Entry) error {
	return c.store.UpdateCache(func(cache *Cache) error {
		cache.Set(entries)
		return nil
	})
}

// AugmentCache appends entries to the Cache.
func (c *Catalog) AugmentCache(entries ...Entry) error {
	return c.store.UpdateCache(func(cache *Cache) error {
		cache.Append(entries...)
		return nil
	})
}

// ClearCache empties the Cache.
func (c *Catalog) ClearCache() error {
	return c.store.UpdateCache(func(cache *Cache) error {
		cache.Clear()
		return nil
	})
}

// ReadCache returns the current Cache view.
func (c *Catalog) ReadCache() ([]Entry, error) {
	var entries []Entry

	err := c.store.ViewCache(func(cache CacheView) error {
		entries = cache.Entries()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}
