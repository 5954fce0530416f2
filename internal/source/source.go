// Package source reads and writes problem documents: a YAML metadata block
// followed by body sections, separated by a fixed token.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/calvinalkan/probcat/internal/catalog"
)

var errEmptyMetadata = errors.New("metadata block is empty")

// Files parses documents stored under a base directory. It implements
// [catalog.Parser] and [catalog.Discoverer].
type Files struct {
	base      string
	separator string
	extension string
}

// New returns Files rooted at base. separator splits metadata from bodies;
// extension selects document files during discovery.
func New(base, separator, extension string) *Files {
	return &Files{base: base, separator: separator, extension: extension}
}

// ParseDocument reads and parses the document at path, relative to the base
// directory.
func (f *Files) ParseDocument(path string) (catalog.Document, error) {
	data, err := os.ReadFile(filepath.Join(f.base, path))
	if err != nil {
		return catalog.Document{}, fmt.Errorf("reading document: %w", err)
	}

	doc, err := Parse(string(data), path, f.separator)
	if err != nil {
		return catalog.Document{}, fmt.Errorf("parse %s: %w", path, err)
	}

	return doc, nil
}

// Parse splits text on separator. The first part is the metadata block, the
// rest are trimmed body sections.
func Parse(text, path, separator string) (catalog.Document, error) {
	parts := strings.Split(text, separator)

	var fields map[string]any

	err := yaml.Unmarshal([]byte(parts[0]), &fields)
	if err != nil {
		return catalog.Document{}, fmt.Errorf("decoding metadata: %w", err)
	}

	if fields == nil {
		return catalog.Document{}, errEmptyMetadata
	}

	meta, err := catalog.NewMetadata(fields)
	if err != nil {
		return catalog.Document{}, err
	}

	doc := catalog.Document{Metadata: meta, Path: path}

	if len(parts) > 1 {
		doc.Bodies = make([]string, 0, len(parts)-1)
		for _, body := range parts[1:] {
			doc.Bodies = append(doc.Bodies, strings.TrimSpace(body))
		}
	}

	return doc, nil
}

type metadataBlock struct {
	Source   string   `yaml:"source"`
	Desc     string   `yaml:"desc,omitempty"`
	Author   *string  `yaml:"author,omitempty"`
	URL      *string  `yaml:"url,omitempty"`
	Hardness *int     `yaml:"hardness,omitempty"`
	Tags     []string `yaml:"tags,omitempty,flow"`
}

// Format renders doc in the layout [Parse] reads. Neither the metadata nor
// the bodies may contain the separator.
func Format(doc catalog.Document, separator string) (string, error) {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	err := enc.Encode(metadataBlock{
		Source:   doc.Source,
		Desc:     doc.Description,
		Author:   doc.Author,
		URL:      doc.URL,
		Hardness: doc.Hardness,
		Tags:     doc.Tags,
	})
	if err != nil {
		return "", fmt.Errorf("encoding metadata: %w", err)
	}

	closeErr := enc.Close()
	if closeErr != nil {
		return "", fmt.Errorf("encoding metadata: %w", closeErr)
	}

	if strings.Contains(buf.String(), separator) {
		return "", fmt.Errorf("metadata of %s contains separator %q", doc.Source, separator)
	}

	for _, body := range doc.Bodies {
		if strings.Contains(body, separator) {
			return "", fmt.Errorf("body of %s contains separator %q", doc.Source, separator)
		}

		buf.WriteString(separator)
		buf.WriteString("\n")
		buf.WriteString(body)
		buf.WriteString("\n")
	}

	return buf.String(), nil
}
