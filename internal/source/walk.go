package source

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/calvinalkan/probcat/internal/catalog"
)

// FileIssueError describes a document file that could not be parsed.
type FileIssueError struct {
	Path string
	Err  error
}

func (e *FileIssueError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

func (e *FileIssueError) Unwrap() error {
	return e.Err
}

// ScanError aggregates every file that failed during discovery.
type ScanError struct {
	Issues []*FileIssueError
}

func (e *ScanError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "scan: %d document(s) could not be parsed", len(e.Issues))

	for _, issue := range e.Issues {
		b.WriteString("\n  ")
		b.WriteString(issue.Error())
	}

	return b.String()
}

func (e *ScanError) Unwrap() []error {
	errs := make([]error, len(e.Issues))
	for i, issue := range e.Issues {
		errs[i] = issue
	}

	return errs
}

// ListAllDocuments walks the base directory in lexical order and parses every
// document file. Hidden directories (including the store directory) are
// skipped. If any file fails to parse, no documents are returned and the
// error is a *ScanError listing all failures.
func (f *Files) ListAllDocuments(ctx context.Context) ([]catalog.Document, error) {
	var (
		docs   []catalog.Document
		issues []*FileIssueError
	)

	walkErr := filepath.WalkDir(f.base, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("canceled: %w", context.Cause(ctx))
		}

		if entry.IsDir() {
			if path != f.base && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}

			return nil
		}

		if !entry.Type().IsRegular() || filepath.Ext(path) != f.extension {
			return nil
		}

		rel, relErr := filepath.Rel(f.base, path)
		if relErr != nil {
			return relErr
		}

		doc, parseErr := f.ParseDocument(rel)
		if parseErr != nil {
			issues = append(issues, &FileIssueError{Path: rel, Err: parseErr})

			return nil
		}

		docs = append(docs, doc)

		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walking %s: %w", f.base, walkErr)
	}

	if len(issues) > 0 {
		return nil, &ScanError{Issues: issues}
	}

	return docs, nil
}
