package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	errPathRequired  = errors.New("path is required")
	errEmptyDocument = errors.New("document on stdin is empty")
	errNoInput       = errors.New("no input available")
)

func addCmd() *Command {
	return &Command{
		Usage: "add <path>",
		Short: "Write a document from stdin and index it",
		Long: `Write the document read from stdin to path (relative to the base directory),
then parse it back and add it to the index. Prints the new entry.`,
		Exec: func(_ context.Context, o *IO, env *Env, args []string) error {
			if len(args) == 0 {
				return errPathRequired
			}

			if len(args) > 1 {
				return errTooManyArgs
			}

			if o.in == nil {
				return errNoInput
			}

			data, err := io.ReadAll(o.in)
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}

			if strings.TrimSpace(string(data)) == "" {
				return errEmptyDocument
			}

			doc, err := env.Catalog.AddDocumentFromContents(args[0], string(data))
			if err != nil {
				return err
			}

			o.Println(formatEntryLine(doc.Entry(), env.Catalog.Ordering()))

			return nil
		},
	}
}
