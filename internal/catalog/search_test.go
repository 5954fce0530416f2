package catalog_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/calvinalkan/probcat/internal/catalog"
)

var defaultSortTags = []string{"alg", "nt", "combo", "geo"}

type fakeUsage struct {
	used map[string]struct{}
	err  error
}

func (f fakeUsage) UsedIdentifiers() (map[string]struct{}, error) {
	return f.used, f.err
}

func usedSet(sources ...string) fakeUsage {
	used := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		used[s] = struct{}{}
	}

	return fakeUsage{used: used}
}

// compact drops spaces and slashes and upper-cases the rest.
func compact(source string) string {
	return strings.ToUpper(strings.NewReplacer(" ", "", "/", "").Replace(source))
}

func newSearcher(store *catalog.Store, usage catalog.UsageFeed) *catalog.Searcher {
	return catalog.NewSearcher(store, catalog.NewOrdering(defaultSortTags), compact, usage, "waltz")
}

func Test_Search_By_Tag_Materializes_Result_Into_Cache(t *testing.T) {
	t.Parallel()

	store := newStore(t)

	x1 := newEntry("X1", withTags("algebra"), withHardness(5))
	x2 := newEntry("X2", withTags("combo"), withHardness(2))
	putAll(t, store, x1, x2)

	got, err := newSearcher(store, nil).Run(catalog.Query{Tags: []string{"algebra"}})
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	want := []catalog.Entry{x1.WithPosition(0)}

	if diff := cmp.Diff(want, got, entryOpts); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(want, cacheEntries(t, store), entryOpts); diff != "" {
		t.Fatalf("cache mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]catalog.Entry{x1, x2}, indexEntries(t, store), entryOpts); diff != "" {
		t.Fatalf("index changed (-want +got):\n%s", diff)
	}
}

func Test_Search_With_No_Match_Leaves_Cache_Untouched(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	putAll(t, store, newEntry("X1", withTags("alg")))
	setCache(t, store, newEntry("PREVIOUS"))

	before := readFile(t, store.CachePath())

	got, err := newSearcher(store, nil).Run(catalog.Query{Tags: []string{"geo"}})
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if len(got) != 0 {
		t.Fatalf("result = %v, want empty", got)
	}

	if diff := cmp.Diff(before, readFile(t, store.CachePath())); diff != "" {
		t.Fatalf("cache file changed (-want +got):\n%s", diff)
	}
}

func Test_Search_Filters(t *testing.T) {
	t.Parallel()

	entries := []catalog.Entry{
		newEntry("USAMO 2000/6", withTags("alg", "ineq"), withHardness(25), withAuthor("Titu Andreescu"), withPath("usa/usamo-2000-6.tex")),
		newEntry("ISL 2019 C1", withTags("combo"), withHardness(10), withDesc("Grid colouring"), withPath("isl/2019-c1.tex")),
		newEntry("ISL 2019 N4", withTags("nt"), withHardness(30), withAuthor("Anonymous"), withPath("isl/2019-n4.tex")),
		newEntry("Shortlist", withTags("geo"), withDesc("usamo style geometry"), withPath("misc/shortlist.tex")),
	}

	tests := []struct {
		name  string
		query catalog.Query
		want  []string
	}{
		{
			name:  "no filters returns everything sorted",
			query: catalog.Query{},
			want:  []string{"USAMO 2000/6", "ISL 2019 N4", "ISL 2019 C1", "Shortlist"},
		},
		{
			name:  "term matches source and description",
			query: catalog.Query{Terms: []string{"usamo"}},
			want:  []string{"USAMO 2000/6", "Shortlist"},
		},
		{
			name:  "term matches author",
			query: catalog.Query{Terms: []string{"titu"}},
			want:  []string{"USAMO 2000/6"},
		},
		{
			name:  "term matches exact tag",
			query: catalog.Query{Terms: []string{"ineq"}},
			want:  []string{"USAMO 2000/6"},
		},
		{
			name:  "term matches normalized source",
			query: catalog.Query{Terms: []string{"isl2019c1"}},
			want:  []string{"ISL 2019 C1"},
		},
		{
			name:  "terms are a conjunction",
			query: catalog.Query{Terms: []string{"isl", "colouring"}},
			want:  []string{"ISL 2019 C1"},
		},
		{
			name:  "tag filter ignores case",
			query: catalog.Query{Tags: []string{"NT"}},
			want:  []string{"ISL 2019 N4"},
		},
		{
			name:  "source filter is a substring",
			query: catalog.Query{Sources: []string{"isl 2019"}},
			want:  []string{"ISL 2019 N4", "ISL 2019 C1"},
		},
		{
			name:  "author filter matches one word",
			query: catalog.Query{Authors: []string{"andreescu"}},
			want:  []string{"USAMO 2000/6"},
		},
		{
			name:  "author filter does not match partial words",
			query: catalog.Query{Authors: []string{"andre"}},
			want:  []string{},
		},
		{
			name:  "path prefix",
			query: catalog.Query{PathPrefix: "isl/"},
			want:  []string{"ISL 2019 N4", "ISL 2019 C1"},
		},
		{
			name:  "alphabetical",
			query: catalog.Query{Alphabetical: true},
			want:  []string{"ISL 2019 C1", "ISL 2019 N4", "Shortlist", "USAMO 2000/6"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newStore(t)
			putAll(t, store, entries...)

			got, err := newSearcher(store, nil).Run(tt.query)
			if err != nil {
				t.Fatalf("search: %v", err)
			}

			if diff := cmp.Diff(tt.want, sources(got), entryOpts); diff != "" {
				t.Fatalf("result mismatch (-want +got):\n%s", diff)
			}

			for i, e := range got {
				if e.Position == nil || *e.Position != i {
					t.Fatalf("result[%d].Position = %v, want %d", i, e.Position, i)
				}
			}
		})
	}
}

func Test_Search_Is_Deterministic(t *testing.T) {
	t.Parallel()

	store := newStore(t)

	for i := range 20 {
		putAll(t, store, newEntry(fmt.Sprintf("P%02d", i), withTags(defaultSortTags[i%4]), withHardness(i%3)))
	}

	searcher := newSearcher(store, nil)

	first, err := searcher.Run(catalog.Query{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	for range 5 {
		again, err := searcher.Run(catalog.Query{})
		if err != nil {
			t.Fatalf("search: %v", err)
		}

		if diff := cmp.Diff(first, again, entryOpts); diff != "" {
			t.Fatalf("results differ between runs (-first +again):\n%s", diff)
		}
	}
}

func Test_Search_In_Cache_Scope_Narrows_Previous_View(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	putAll(t, store,
		newEntry("A", withTags("alg"), withHardness(1)),
		newEntry("B", withTags("alg"), withHardness(2)),
		newEntry("C", withTags("nt")),
	)

	searcher := newSearcher(store, nil)

	_, err := searcher.Run(catalog.Query{Tags: []string{"alg"}})
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	got, err := searcher.Run(catalog.Query{Terms: []string{"b"}, Scope: catalog.ScopeCache})
	if err != nil {
		t.Fatalf("refine: %v", err)
	}

	if diff := cmp.Diff([]string{"B"}, sources(got)); diff != "" {
		t.Fatalf("refine mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"B"}, sources(cacheEntries(t, store))); diff != "" {
		t.Fatalf("cache mismatch (-want +got):\n%s", diff)
	}
}

func Test_Search_Usage_Filter(t *testing.T) {
	t.Parallel()

	entries := []catalog.Entry{
		newEntry("FED"),
		newEntry("TAGGED", withTags("Waltz")),
		newEntry("FRESH"),
	}

	tests := []struct {
		name  string
		usage catalog.UsageFeed
		query catalog.Query
		want  []string
	}{
		{
			name:  "used includes feed and used tag",
			usage: usedSet("FED"),
			query: catalog.Query{Usage: catalog.UsageUsed},
			want:  []string{"FED", "TAGGED"},
		},
		{
			name:  "unused excludes feed and used tag",
			usage: usedSet("FED"),
			query: catalog.Query{Usage: catalog.UsageUnused},
			want:  []string{"FRESH"},
		},
		{
			name:  "unavailable feed disables the filter",
			usage: fakeUsage{err: fmt.Errorf("open: %w", catalog.ErrUsageUnavailable)},
			query: catalog.Query{Usage: catalog.UsageUnused},
			want:  []string{"FED", "FRESH", "TAGGED"},
		},
		{
			name:  "no feed configured disables the filter",
			usage: nil,
			query: catalog.Query{Usage: catalog.UsageUsed},
			want:  []string{"FED", "FRESH", "TAGGED"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newStore(t)
			putAll(t, store, entries...)

			got, err := newSearcher(store, tt.usage).Run(tt.query)
			if err != nil {
				t.Fatalf("search: %v", err)
			}

			if diff := cmp.Diff(tt.want, sources(got)); diff != "" {
				t.Fatalf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func Test_Search_Fails_When_Usage_Feed_Is_Broken(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	putAll(t, store, newEntry("A"))
	setCache(t, store, newEntry("KEEP"))

	broken := errors.New("feed is not json")

	_, err := newSearcher(store, fakeUsage{err: broken}).Run(catalog.Query{Usage: catalog.UsageUsed})
	if !errors.Is(err, broken) {
		t.Fatalf("err = %v, want %v", err, broken)
	}

	if diff := cmp.Diff([]string{"KEEP"}, sources(cacheEntries(t, store))); diff != "" {
		t.Fatalf("cache changed (-want +got):\n%s", diff)
	}
}

func Test_Search_Surfaces_Corrupt_Index(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	putAll(t, store, newEntry("A"))

	if err := writeGarbage(store.IndexPath()); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := newSearcher(store, nil).Run(catalog.Query{})
	if !errors.Is(err, catalog.ErrCorruptStore) {
		t.Fatalf("err = %v, want ErrCorruptStore", err)
	}
}
