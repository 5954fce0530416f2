package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// placeholderPrefix marks sources generated for colliding documents.
const placeholderPrefix = "DUPLICATE "

// Discoverer lists every document under the base directory.
type Discoverer interface {
	ListAllDocuments(ctx context.Context) ([]Document, error)
}

// RebuildResult summarizes a rebuild.
type RebuildResult struct {
	Indexed    int
	Collisions []*CollisionError
}

// Rebuild regenerates the Index from the documents on disk and replaces it
// wholesale. A document whose source was already seen is kept under a
// generated placeholder source and reported as a collision; it is never
// dropped. The Cache is not touched.
//
// If discovery fails the existing Index is left as it was.
func Rebuild(ctx context.Context, store *Store, discover Discoverer, log *slog.Logger) (RebuildResult, error) {
	if ctx == nil {
		return RebuildResult{}, errors.New("rebuild index: context is nil")
	}

	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	docs, err := discover.ListAllDocuments(ctx)
	if err != nil {
		return RebuildResult{}, fmt.Errorf("rebuild index: %w", err)
	}

	err = ctx.Err()
	if err != nil {
		return RebuildResult{}, fmt.Errorf("rebuild index: canceled: %w", context.Cause(ctx))
	}

	seen := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		seen[doc.Source] = struct{}{}
	}

	entries := make(map[string]Entry, len(docs))
	paths := make(map[string]string, len(docs))

	var result RebuildResult

	for _, doc := range docs {
		if firstPath, taken := paths[doc.Source]; taken {
			placeholder := newPlaceholder(seen, entries)

			collision := &CollisionError{
				Source:      doc.Source,
				Placeholder: placeholder,
				Path:        doc.Path,
				FirstPath:   firstPath,
			}
			result.Collisions = append(result.Collisions, collision)

			log.Warn("source is repeated",
				"source", doc.Source,
				"placeholder", placeholder,
				"path", doc.Path,
				"first_path", firstPath,
			)

			doc.Source = placeholder
		}

		paths[doc.Source] = doc.Path
		entries[doc.Source] = doc.Entry()
	}

	err = store.UpdateIndex(func(index *Index) error {
		return index.ReplaceAll(entries)
	})
	if err != nil {
		return RebuildResult{}, fmt.Errorf("rebuild index: %w", err)
	}

	result.Indexed = len(entries)

	log.Info("index rebuilt", "entries", result.Indexed, "collisions", len(result.Collisions))

	return result, nil
}

func newPlaceholder(sources map[string]struct{}, taken map[string]Entry) string {
	for {
		candidate := placeholderPrefix + uuid.NewString()

		_, isReal := sources[candidate]
		_, isTaken := taken[candidate]

		if !isReal && !isTaken {
			return candidate
		}
	}
}
