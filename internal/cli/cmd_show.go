package cli

import (
	"context"
	"errors"

	flag "github.com/spf13/pflag"
)

var errKeyRequired = errors.New("key is required (cache number or source)")

func showCmd() *Command {
	flags := flag.NewFlagSet("show", flag.ContinueOnError)
	all := flags.BoolP("all", "a", false, "Show every body section, not just the statement")

	return &Command{
		Flags: flags,
		Usage: "show <key>",
		Short: "Show a document",
		Long:  "Show a document by cache number or source. The backing file is re-read.",
		Exec: func(_ context.Context, o *IO, env *Env, args []string) error {
			if len(args) == 0 {
				return errKeyRequired
			}

			if len(args) > 1 {
				return errTooManyArgs
			}

			entry, err := env.Catalog.EntryByKey(args[0])
			if err != nil {
				return err
			}

			doc, err := env.Catalog.Document(entry)
			if err != nil {
				return err
			}

			printDocument(o, doc, *all)

			return nil
		},
	}
}
