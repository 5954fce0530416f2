package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Scope selects the store a search scans.
type Scope int

const (
	// ScopeIndex scans every known entry.
	ScopeIndex Scope = iota
	// ScopeCache narrows the last listing or search.
	ScopeCache
)

// UsageFilter restricts results by whether an entry has been used.
type UsageFilter int

const (
	UsageAny UsageFilter = iota
	UsageUsed
	UsageUnused
)

// Query is a conjunction of filters. Zero values disable a filter.
type Query struct {
	// Terms must each appear in source, description or author
	// (case-insensitive), equal a tag, or equal the normalized source.
	Terms []string
	// Tags must each equal one of the entry's tags, ignoring case.
	Tags []string
	// Sources must each be a case-insensitive substring of the source.
	Sources []string
	// Authors must each equal one word of the author, ignoring case.
	Authors []string
	// PathPrefix is a literal prefix of the entry's path.
	PathPrefix   string
	Usage        UsageFilter
	Scope        Scope
	Alphabetical bool
}

// Normalizer maps a source to its canonical short identifier, e.g.
// "USAMO 2000/6" to "USAMO006".
type Normalizer func(source string) string

// UsageFeed reports identifiers known to be used. It returns an error
// matching [ErrUsageUnavailable] when there is no feed to consult.
type UsageFeed interface {
	UsedIdentifiers() (map[string]struct{}, error)
}

// Searcher filters the Index or the Cache and materializes the result into
// the Cache.
type Searcher struct {
	store     *Store
	order     Ordering
	normalize Normalizer
	usage     UsageFeed
	usedTag   string
}

// NewSearcher returns a Searcher. normalize and usage may be nil.
func NewSearcher(store *Store, order Ordering, normalize Normalizer, usage UsageFeed, usedTag string) *Searcher {
	return &Searcher{
		store:     store,
		order:     order,
		normalize: normalize,
		usage:     usage,
		usedTag:   usedTag,
	}
}

// Run returns the entries of the selected store that satisfy every filter in
// q, sorted. A non-empty result replaces the Cache and comes back with
// positions 0..N-1. An empty result leaves the Cache untouched so a later
// ScopeCache search can still narrow the previous view.
func (s *Searcher) Run(q Query) ([]Entry, error) {
	match, err := s.matcher(q)
	if err != nil {
		return nil, err
	}

	var candidates []Entry

	switch q.Scope {
	case ScopeIndex:
		err = s.store.ViewIndex(func(index IndexView) error {
			candidates = index.Entries()
			return nil
		})
	case ScopeCache:
		err = s.store.ViewCache(func(cache CacheView) error {
			candidates = cache.Entries()
			return nil
		})
	default:
		return nil, fmt.Errorf("search: unknown scope %d", q.Scope)
	}

	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	result := make([]Entry, 0, len(candidates))

	for _, entry := range candidates {
		if match(entry) {
			result = append(result, entry)
		}
	}

	if q.Alphabetical {
		SortAlphabetical(result)
	} else {
		s.order.Sort(result)
	}

	if len(result) == 0 {
		return result, nil
	}

	for i := range result {
		result[i] = result[i].WithPosition(i)
	}

	err = s.store.UpdateCache(func(cache *Cache) error {
		cache.Set(result)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	return result, nil
}

func (s *Searcher) matcher(q Query) (func(Entry) bool, error) {
	var used map[string]struct{}

	checkUsage := q.Usage != UsageAny && s.usage != nil
	if checkUsage {
		var err error

		used, err = s.usage.UsedIdentifiers()

		switch {
		case errors.Is(err, ErrUsageUnavailable):
			checkUsage = false
		case err != nil:
			return nil, fmt.Errorf("search: usage feed: %w", err)
		}
	}

	return func(e Entry) bool {
		if checkUsage {
			_, inFeed := used[e.Source]
			isUsed := inFeed || e.HasTag(s.usedTag)

			if isUsed != (q.Usage == UsageUsed) {
				return false
			}
		}

		normalized := ""
		if s.normalize != nil && len(q.Terms) > 0 {
			normalized = s.normalize(e.Source)
		}

		return allOf(q.Tags, e.HasTag) &&
			allOf(q.Terms, func(term string) bool { return e.hasTerm(term, normalized) }) &&
			allOf(q.Sources, e.HasSource) &&
			allOf(q.Authors, e.HasAuthor) &&
			strings.HasPrefix(e.Path, q.PathPrefix)
	}, nil
}

func allOf(items []string, pred func(string) bool) bool {
	for _, item := range items {
		if !pred(item) {
			return false
		}
	}

	return true
}

// HasTag reports whether e carries tag, ignoring case.
func (e Entry) HasTag(tag string) bool {
	if tag == "" {
		return false
	}

	return slices.ContainsFunc(e.Tags, func(t string) bool {
		return strings.EqualFold(t, tag)
	})
}

// HasSource reports whether part occurs in e's source, ignoring case.
func (e Entry) HasSource(part string) bool {
	return strings.Contains(strings.ToLower(e.Source), strings.ToLower(part))
}

// HasAuthor reports whether name equals one word of e's author, ignoring case.
func (e Entry) HasAuthor(name string) bool {
	if e.Author == nil {
		return false
	}

	words := strings.Fields(strings.ToLower(*e.Author))

	return slices.Contains(words, strings.ToLower(name))
}

func (e Entry) hasTerm(term, normalized string) bool {
	blob := e.Source + " " + e.Description
	if e.Author != nil {
		blob += " " + *e.Author
	}

	if strings.Contains(strings.ToLower(blob), strings.ToLower(term)) {
		return true
	}

	if slices.Contains(e.Tags, term) {
		return true
	}

	return normalized != "" && strings.ToUpper(term) == normalized
}
