package catalog_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/calvinalkan/probcat/internal/catalog"
)

func Test_Index_Put_Then_Get_Returns_Identical_Entry_After_Reopen(t *testing.T) {
	t.Parallel()

	store := newStore(t)

	entries := []catalog.Entry{
		newEntry("USAMO 2000/6", withTags("alg", "ineq"), withHardness(0), withAuthor(""), withDesc("Fiendish inequality")),
		newEntry("ISL 2019 C1", withTags("combo"), withHardness(25)).WithPosition(0),
		newEntry("Bare"),
	}
	entries[2].URL = ptr("https://example.org/p")

	putAll(t, store, entries...)

	for _, want := range entries {
		var (
			got   catalog.Entry
			found bool
		)

		err := store.ViewIndex(func(index catalog.IndexView) error {
			got, found = index.Get(want.Source)
			return nil
		})
		if err != nil {
			t.Fatalf("view: %v", err)
		}

		if !found {
			t.Fatalf("Get(%q) not found", want.Source)
		}

		if diff := cmp.Diff(want, got, entryOpts); diff != "" {
			t.Fatalf("Get(%q) mismatch (-want +got):\n%s", want.Source, diff)
		}
	}
}

func Test_Index_Put_Rejects_Key_That_Differs_From_Source(t *testing.T) {
	t.Parallel()

	store := newStore(t)

	err := store.UpdateIndex(func(index *catalog.Index) error {
		return index.Put("X1", newEntry("X2"))
	})
	if !errors.Is(err, catalog.ErrConstraintViolation) {
		t.Fatalf("err = %v, want ErrConstraintViolation", err)
	}

	_, statErr := os.Stat(store.IndexPath())
	if !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("index file written after failed session: %v", statErr)
	}
}

func Test_Index_Rename_Moves_Entry_To_New_Key(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	putAll(t, store, newEntry("OLD"), newEntry("KEEP"))

	err := store.UpdateIndex(func(index *catalog.Index) error {
		return index.Rename("OLD", "NEW", newEntry("NEW", withTags("geo")))
	})
	if err != nil {
		t.Fatalf("rename: %v", err)
	}

	got := sources(indexEntries(t, store))
	if diff := cmp.Diff([]string{"KEEP", "NEW"}, got); diff != "" {
		t.Fatalf("sources mismatch (-want +got):\n%s", diff)
	}
}

func Test_Index_Rename_Leaves_Index_Unchanged_When_Old_Source_Is_Missing(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	putAll(t, store, newEntry("A"))

	err := store.UpdateIndex(func(index *catalog.Index) error {
		return index.Rename("MISSING", "B", newEntry("B"))
	})
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	if diff := cmp.Diff([]string{"A"}, sources(indexEntries(t, store))); diff != "" {
		t.Fatalf("sources mismatch (-want +got):\n%s", diff)
	}
}

func Test_Index_Delete_Returns_NotFound_For_Unknown_Source(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	putAll(t, store, newEntry("A"))

	err := store.UpdateIndex(func(index *catalog.Index) error {
		return index.Delete("B")
	})
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	err = store.UpdateIndex(func(index *catalog.Index) error {
		return index.Delete("A")
	})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}

	if got := indexEntries(t, store); len(got) != 0 {
		t.Fatalf("index = %v, want empty", got)
	}
}

func Test_Index_ReplaceAll_Rejects_Mismatched_Keys_Without_Changes(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	putAll(t, store, newEntry("A"))

	err := store.UpdateIndex(func(index *catalog.Index) error {
		return index.ReplaceAll(map[string]catalog.Entry{
			"B": newEntry("B"),
			"C": newEntry("D"),
		})
	})
	if !errors.Is(err, catalog.ErrConstraintViolation) {
		t.Fatalf("err = %v, want ErrConstraintViolation", err)
	}

	if diff := cmp.Diff([]string{"A"}, sources(indexEntries(t, store))); diff != "" {
		t.Fatalf("sources mismatch (-want +got):\n%s", diff)
	}
}

func Test_Stores_Are_Empty_When_Backing_File_Is_Missing_Or_Empty(t *testing.T) {
	t.Parallel()

	store := newStore(t)

	if got := indexEntries(t, store); len(got) != 0 {
		t.Fatalf("missing index = %v, want empty", got)
	}

	if got := cacheEntries(t, store); len(got) != 0 {
		t.Fatalf("missing cache = %v, want empty", got)
	}

	if err := os.MkdirAll(filepath.Dir(store.IndexPath()), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	for _, path := range []string{store.IndexPath(), store.CachePath()} {
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	if got := indexEntries(t, store); len(got) != 0 {
		t.Fatalf("empty index = %v, want empty", got)
	}

	if got := cacheEntries(t, store); len(got) != 0 {
		t.Fatalf("empty cache = %v, want empty", got)
	}
}

func Test_Corrupt_Store_Fails_Session_And_Is_Not_Overwritten(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name    string
		content []byte
	}{
		{name: "garbage", content: []byte("definitely not a store")},
		{name: "wrong magic", content: []byte("PCCA\x01\x00rest")},
		{name: "future version", content: []byte("PCIX\x09\x00rest")},
		{name: "truncated payload", content: []byte("PCIX\x01\x00\xff\xff")},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newStore(t)

			if err := os.MkdirAll(filepath.Dir(store.IndexPath()), 0o750); err != nil {
				t.Fatalf("mkdir: %v", err)
			}

			if err := os.WriteFile(store.IndexPath(), tt.content, 0o600); err != nil {
				t.Fatalf("write: %v", err)
			}

			err := store.ViewIndex(func(catalog.IndexView) error { return nil })
			if !errors.Is(err, catalog.ErrCorruptStore) {
				t.Fatalf("view err = %v, want ErrCorruptStore", err)
			}

			var storeErr *catalog.StoreError
			if !errors.As(err, &storeErr) || storeErr.Path != store.IndexPath() {
				t.Fatalf("err = %#v, want *StoreError for %s", err, store.IndexPath())
			}

			called := false

			err = store.UpdateIndex(func(*catalog.Index) error {
				called = true
				return nil
			})
			if !errors.Is(err, catalog.ErrCorruptStore) {
				t.Fatalf("update err = %v, want ErrCorruptStore", err)
			}

			if called {
				t.Fatal("update callback ran on a corrupt store")
			}

			if diff := cmp.Diff(tt.content, readFile(t, store.IndexPath())); diff != "" {
				t.Fatalf("corrupt store was rewritten (-want +got):\n%s", diff)
			}
		})
	}
}

func Test_ViewIndex_Never_Persists_Mutations(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	putAll(t, store, newEntry("A"))

	err := store.ViewIndex(func(view catalog.IndexView) error {
		index, ok := view.(*catalog.Index)
		if !ok {
			return nil
		}

		return index.Put("B", newEntry("B"))
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}

	if diff := cmp.Diff([]string{"A"}, sources(indexEntries(t, store))); diff != "" {
		t.Fatalf("read-only session leaked a write (-want +got):\n%s", diff)
	}
}

func Test_UpdateIndex_Does_Not_Commit_When_Callback_Fails(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	putAll(t, store, newEntry("A"))

	boom := errors.New("boom")

	err := store.UpdateIndex(func(index *catalog.Index) error {
		if err := index.Put("B", newEntry("B")); err != nil {
			return err
		}

		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	if diff := cmp.Diff([]string{"A"}, sources(indexEntries(t, store))); diff != "" {
		t.Fatalf("failed session committed (-want +got):\n%s", diff)
	}
}

func Test_Index_Get_Returns_Copies(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	putAll(t, store, newEntry("A", withTags("alg"), withHardness(3)))

	err := store.UpdateIndex(func(index *catalog.Index) error {
		got, _ := index.Get("A")
		*got.Hardness = 99
		got.Tags[0] = "geo"

		again, _ := index.Get("A")
		if *again.Hardness != 3 || again.Tags[0] != "alg" {
			t.Errorf("stored entry aliased caller copy: %+v", again)
		}

		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
}

func Test_Cache_Set_Renumbers_Positions_Ignoring_Caller_Values(t *testing.T) {
	t.Parallel()

	store := newStore(t)

	setCache(t, store,
		newEntry("A").WithPosition(7),
		newEntry("B"),
		newEntry("A").WithPosition(0),
	)

	err := store.ViewCache(func(cache catalog.CacheView) error {
		if cache.Len() != 3 {
			t.Fatalf("len = %d, want 3", cache.Len())
		}

		for i := range cache.Len() {
			got, err := cache.Get(i + 1)
			if err != nil {
				return err
			}

			if got.Position == nil || *got.Position != i {
				t.Errorf("Get(%d).Position = %v, want %d", i+1, got.Position, i)
			}

			if n, ok := got.Number(); !ok || n != i+1 {
				t.Errorf("Get(%d).Number() = %d, %v", i+1, n, ok)
			}
		}

		return nil
	})
	if err != nil {
		t.Fatalf("view cache: %v", err)
	}
}

func Test_Cache_Get_Out_Of_Range_Is_NotFound(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	setCache(t, store, newEntry("A"), newEntry("B"))

	for _, n := range []int{-1, 0, 3, 100} {
		err := store.ViewCache(func(cache catalog.CacheView) error {
			_, err := cache.Get(n)
			return err
		})
		if !errors.Is(err, catalog.ErrNotFound) {
			t.Errorf("Get(%d) err = %v, want ErrNotFound", n, err)
		}
	}
}

func Test_Cache_UpdateIfPresent_Replaces_In_Place_Or_Appends(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	setCache(t, store, newEntry("A"), newEntry("B"), newEntry("C"))

	var inPlace, appended catalog.Entry

	err := store.UpdateCache(func(cache *catalog.Cache) error {
		inPlace = cache.UpdateIfPresent("B", newEntry("B2", withTags("nt")))
		appended = cache.UpdateIfPresent("Z", newEntry("Z"))

		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if inPlace.Position == nil || *inPlace.Position != 1 {
		t.Fatalf("in-place position = %v, want 1", inPlace.Position)
	}

	if appended.Position == nil || *appended.Position != 3 {
		t.Fatalf("appended position = %v, want 3", appended.Position)
	}

	want := []catalog.Entry{
		newEntry("A").WithPosition(0),
		newEntry("B2", withTags("nt")).WithPosition(1),
		newEntry("C").WithPosition(2),
		newEntry("Z").WithPosition(3),
	}

	if diff := cmp.Diff(want, cacheEntries(t, store), entryOpts); diff != "" {
		t.Fatalf("cache mismatch (-want +got):\n%s", diff)
	}
}

func Test_Cache_Append_And_Clear(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	setCache(t, store, newEntry("A"))

	err := store.UpdateCache(func(cache *catalog.Cache) error {
		cache.Append(newEntry("B"), newEntry("A"))
		return nil
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	if diff := cmp.Diff([]string{"A", "B", "A"}, sources(cacheEntries(t, store))); diff != "" {
		t.Fatalf("cache mismatch (-want +got):\n%s", diff)
	}

	err = store.UpdateCache(func(cache *catalog.Cache) error {
		cache.Clear()
		return nil
	})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}

	if got := cacheEntries(t, store); len(got) != 0 {
		t.Fatalf("cache = %v, want empty", got)
	}
}
