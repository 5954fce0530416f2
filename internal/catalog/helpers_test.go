package catalog_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/calvinalkan/probcat/internal/catalog"
)

var entryOpts = cmp.Options{cmpopts.EquateEmpty()}

func ptr[T any](v T) *T {
	return &v
}

func newStore(t *testing.T) *catalog.Store {
	t.Helper()

	dir := t.TempDir()

	return catalog.NewStore(filepath.Join(dir, ".probcat", "index"), filepath.Join(dir, ".probcat", "cache"), nil)
}

type entryOpt func(*catalog.Entry)

func withTags(tags ...string) entryOpt {
	return func(e *catalog.Entry) { e.Tags = tags }
}

func withHardness(h int) entryOpt {
	return func(e *catalog.Entry) { e.Hardness = ptr(h) }
}

func withAuthor(a string) entryOpt {
	return func(e *catalog.Entry) { e.Author = ptr(a) }
}

func withDesc(d string) entryOpt {
	return func(e *catalog.Entry) { e.Description = d }
}

func withPath(p string) entryOpt {
	return func(e *catalog.Entry) { e.Path = p }
}

func newEntry(source string, opts ...entryOpt) catalog.Entry {
	e := catalog.Entry{
		Metadata: catalog.Metadata{Source: source},
		Path:     source + ".tex",
	}

	for _, opt := range opts {
		opt(&e)
	}

	return e
}

func sources(entries []catalog.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Source
	}

	return out
}

func putAll(t *testing.T, store *catalog.Store, entries ...catalog.Entry) {
	t.Helper()

	err := store.UpdateIndex(func(index *catalog.Index) error {
		for _, e := range entries {
			if err := index.Put(e.Source, e); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
}

func indexEntries(t *testing.T, store *catalog.Store) []catalog.Entry {
	t.Helper()

	var out []catalog.Entry

	err := store.ViewIndex(func(index catalog.IndexView) error {
		out = index.Entries()
		return nil
	})
	if err != nil {
		t.Fatalf("view index: %v", err)
	}

	return out
}

func cacheEntries(t *testing.T, store *catalog.Store) []catalog.Entry {
	t.Helper()

	var out []catalog.Entry

	err := store.ViewCache(func(cache catalog.CacheView) error {
		out = cache.Entries()
		return nil
	})
	if err != nil {
		t.Fatalf("view cache: %v", err)
	}

	return out
}

func setCache(t *testing.T, store *catalog.Store, entries ...catalog.Entry) {
	t.Helper()

	err := store.UpdateCache(func(cache *catalog.Cache) error {
		cache.Set(entries)
		return nil
	})
	if err != nil {
		t.Fatalf("set cache: %v", err)
	}
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}

	return data
}

// fakeDocs serves documents from memory, keyed by relative path.
type fakeDocs struct {
	byPath map[string]catalog.Document
	order  []string
	err    error
}

func newFakeDocs(docs ...catalog.Document) *fakeDocs {
	f := &fakeDocs{byPath: map[string]catalog.Document{}}
	for _, d := range docs {
		f.add(d)
	}

	return f
}

func (f *fakeDocs) add(d catalog.Document) {
	if _, ok := f.byPath[d.Path]; !ok {
		f.order = append(f.order, d.Path)
	}

	f.byPath[d.Path] = d
}

func (f *fakeDocs) ParseDocument(path string) (catalog.Document, error) {
	d, ok := f.byPath[path]
	if !ok {
		return catalog.Document{}, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}

	return d, nil
}

func (f *fakeDocs) ListAllDocuments(context.Context) ([]catalog.Document, error) {
	if f.err != nil {
		return nil, f.err
	}

	out := make([]catalog.Document, 0, len(f.order))
	for _, p := range f.order {
		out = append(out, f.byPath[p])
	}

	return out, nil
}

// listDocs returns documents in the given order, allowing duplicate sources
// at distinct paths.
type listDocs []catalog.Document

func (l listDocs) ListAllDocuments(context.Context) ([]catalog.Document, error) {
	return l, nil
}

func newDoc(source, path string, bodies ...string) catalog.Document {
	return catalog.Document{
		Metadata: catalog.Metadata{Source: source},
		Path:     path,
		Bodies:   bodies,
	}
}

func writeGarbage(path string) error {
	return os.WriteFile(path, []byte("not a store"), 0o600)
}
