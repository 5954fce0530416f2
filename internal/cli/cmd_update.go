package cli

import (
	"context"
)

func updateCmd() *Command {
	return &Command{
		Usage: "update <key>",
		Short: "Re-read an entry's file after editing it",
		Long: `Re-read the backing file of the entry named by key (cache number or source)
and store the result. If the source changed, the index entry is renamed. The
cached copy is refreshed in place, or appended if it was not cached.`,
		Exec: func(_ context.Context, o *IO, env *Env, args []string) error {
			if len(args) == 0 {
				return errKeyRequired
			}

			if len(args) > 1 {
				return errTooManyArgs
			}

			old, err := env.Catalog.EntryByKey(args[0])
			if err != nil {
				return err
			}

			doc, err := env.Catalog.Document(old)
			if err != nil {
				return err
			}

			entry, err := env.Catalog.UpdateEntry(old, doc)
			if err != nil {
				return err
			}

			o.Println(formatEntryLine(entry, env.Catalog.Ordering()))

			return nil
		},
	}
}
