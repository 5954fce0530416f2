// Package catalog maintains the problem Index and Cache stores, keeps them
// consistent with each other and with the source files, and searches them.
package catalog

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Metadata keys accepted in a document's metadata block.
const (
	fieldSource   = "source"
	fieldDesc     = "desc"
	fieldAuthor   = "author"
	fieldURL      = "url"
	fieldHardness = "hardness"
	fieldTags     = "tags"
)

// Metadata holds the searchable fields shared by [Entry] and [Document].
type Metadata struct {
	Source      string
	Description string
	Author      *string
	URL         *string
	Hardness    *int
	Tags        []string
}

// NewMetadata builds Metadata from a decoded metadata block.
//
// Unknown keys are rejected with [ErrUnknownField]. A missing or empty source
// fails with [ErrSourceRequired]. A hardness that is not an integer is treated
// as absent, so such documents sort with the unrated ones. Tags are
// deduplicated, keeping first occurrence order.
func NewMetadata(fields map[string]any) (Metadata, error) {
	var meta Metadata

	for key, raw := range fields {
		switch key {
		case fieldSource:
			s, err := scalarString(key, raw)
			if err != nil {
				return Metadata{}, err
			}

			meta.Source = s
		case fieldDesc:
			s, err := scalarString(key, raw)
			if err != nil {
				return Metadata{}, err
			}

			meta.Description = s
		case fieldAuthor:
			s, err := optionalString(key, raw)
			if err != nil {
				return Metadata{}, err
			}

			meta.Author = s
		case fieldURL:
			s, err := optionalString(key, raw)
			if err != nil {
				return Metadata{}, err
			}

			meta.URL = s
		case fieldHardness:
			meta.Hardness = optionalInt(raw)
		case fieldTags:
			tags, err := stringList(key, raw)
			if err != nil {
				return Metadata{}, err
			}

			meta.Tags = tags
		default:
			return Metadata{}, fmt.Errorf("%w: %q", ErrUnknownField, key)
		}
	}

	if strings.TrimSpace(meta.Source) == "" {
		return Metadata{}, ErrSourceRequired
	}

	return meta, nil
}

func scalarString(key string, raw any) (string, error) {
	switch v := raw.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case int, int64, uint64, float64, bool:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("%w: %s must be a scalar, got %T", ErrInvalidField, key, raw)
	}
}

func optionalString(key string, raw any) (*string, error) {
	if raw == nil {
		return nil, nil
	}

	s, err := scalarString(key, raw)
	if err != nil {
		return nil, err
	}

	return &s, nil
}

func optionalInt(raw any) *int {
	switch v := raw.(type) {
	case int:
		return &v
	case int64:
		if v < math.MinInt || v > math.MaxInt {
			return nil
		}

		n := int(v)

		return &n
	case uint64:
		if v > math.MaxInt {
			return nil
		}

		n := int(v)

		return &n
	default:
		return nil
	}
}

func stringList(key string, raw any) ([]string, error) {
	var items []any

	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []string:
		for _, s := range v {
			items = append(items, s)
		}
	case []any:
		items = v
	default:
		return nil, fmt.Errorf("%w: %s must be a list, got %T", ErrInvalidField, key, raw)
	}

	tags := make([]string, 0, len(items))

	for _, item := range items {
		s, err := scalarString(key, item)
		if err != nil {
			return nil, err
		}

		tags = append(tags, s)
	}

	return normalizeTags(tags), nil
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}

	out := make([]string, 0, len(tags))

	for _, tag := range tags {
		if !slices.Contains(out, tag) {
			out = append(out, tag)
		}
	}

	return out
}

func (m Metadata) clone() Metadata {
	m.Tags = normalizeTags(m.Tags)

	if m.Author != nil {
		author := *m.Author
		m.Author = &author
	}

	if m.URL != nil {
		url := *m.URL
		m.URL = &url
	}

	if m.Hardness != nil {
		hardness := *m.Hardness
		m.Hardness = &hardness
	}

	return m
}

// Entry is the stored, metadata-only form of a document. Entries are values:
// every method that changes a field returns a modified copy.
type Entry struct {
	Metadata

	// Path is the backing source file, relative to the base directory.
	Path string

	// Position is the 0-based slot in the last materialized Cache view, nil
	// when the entry is not cached. Index entries never carry one.
	Position *int
}

// Number returns the externally visible cache number (position+1).
func (e Entry) Number() (int, bool) {
	if e.Position == nil {
		return 0, false
	}

	return *e.Position + 1, true
}

// WithPosition returns a copy of e placed at pos.
func (e Entry) WithPosition(pos int) Entry {
	e.Metadata = e.Metadata.clone()
	e.Position = &pos

	return e
}

// WithoutPosition returns a copy of e that is not placed in any view.
func (e Entry) WithoutPosition() Entry {
	e.Metadata = e.Metadata.clone()
	e.Position = nil

	return e
}

// IsSecret reports whether the entry should stay hidden from casual listings.
func (e Entry) IsSecret() bool {
	return strings.Contains(e.Source, "SECRET") || slices.Contains(e.Tags, "secret")
}

func (e Entry) String() string {
	return e.Source
}

// Document is the full, editable form of a source file.
type Document struct {
	Metadata

	Path     string
	Position *int

	// Bodies are the trimmed sections after the metadata block: statement,
	// solution, notes, ...
	Bodies []string
}

// Statement returns the first body section, or "" if there is none.
func (d Document) Statement() string {
	if len(d.Bodies) == 0 {
		return ""
	}

	return d.Bodies[0]
}

// Entry projects d down to its stored form. Bodies are never copied.
func (d Document) Entry() Entry {
	entry := Entry{
		Metadata: d.Metadata.clone(),
		Path:     d.Path,
	}

	if d.Position != nil {
		return entry.WithPosition(*d.Position)
	}

	return entry
}

// Parser re-reads a document from its backing file. Paths are relative to
// the catalog base directory.
type Parser interface {
	ParseDocument(path string) (Document, error)
}

// Document rehydrates e by re-parsing its backing file. The Entry alone cannot
// rebuild the bodies, so a missing or malformed file fails with
// [ErrInvalidProjection] instead of producing a partial Document.
func (e Entry) Document(parser Parser) (Document, error) {
	if e.Path == "" {
		return Document{}, fmt.Errorf("%w: %s has no path", ErrInvalidProjection, e.Source)
	}

	doc, err := parser.ParseDocument(e.Path)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %s: %w", ErrInvalidProjection, e.Path, err)
	}

	if e.Position != nil {
		pos := *e.Position
		doc.Position = &pos
	}

	return doc, nil
}

// ParseNumber reports whether key is an all-digit cache number.
func ParseNumber(key string) (int, bool) {
	if key == "" {
		return 0, false
	}

	for _, r := range key {
		if r < '0' || r > '9' {
			return 0, false
		}
	}

	n, err := strconv.Atoi(key)
	if err != nil {
		return 0, false
	}

	return n, true
}
