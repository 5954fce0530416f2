// Package usage reads the feed of problem sources that have already been
// used elsewhere. The feed is a JSON (or JSONC) object; every string value,
// or string inside an array value, is a used source.
package usage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tailscale/hujson"

	"github.com/calvinalkan/probcat/internal/catalog"
)

var errInvalidFeed = errors.New("invalid usage feed")

// Feed implements [catalog.UsageFeed] over a file.
type Feed struct {
	path string
}

// New returns a Feed reading path. An empty path means there is no feed.
func New(path string) *Feed {
	return &Feed{path: path}
}

// UsedIdentifiers loads the feed. A missing or unconfigured file reports
// [catalog.ErrUsageUnavailable].
func (f *Feed) UsedIdentifiers() (map[string]struct{}, error) {
	if f.path == "" {
		return nil, catalog.ErrUsageUnavailable
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", catalog.ErrUsageUnavailable, f.path)
		}

		return nil, fmt.Errorf("reading usage feed: %w", err)
	}

	return parse(data)
}

func parse(data []byte) (map[string]struct{}, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidFeed, err)
	}

	var raw map[string]any

	unmarshalErr := json.Unmarshal(standardized, &raw)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidFeed, unmarshalErr)
	}

	used := make(map[string]struct{}, len(raw))

	for _, value := range raw {
		switch v := value.(type) {
		case string:
			used[v] = struct{}{}
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					used[s] = struct{}{}
				}
			}
		}
	}

	return used, nil
}
