package cli

import (
	"context"
	"fmt"
)

func rebuildCmd() *Command {
	return &Command{
		Usage: "rebuild",
		Short: "Rebuild the index from the document files",
		Long: `Re-read every document under the base directory and replace the index.
Documents whose source repeats an earlier one are kept under a generated
DUPLICATE source and reported as warnings. The cache is not touched.`,
		Exec: func(ctx context.Context, o *IO, env *Env, args []string) error {
			if len(args) > 0 {
				return errTooManyArgs
			}

			result, err := env.Catalog.Rebuild(ctx)
			if err != nil {
				return err
			}

			for _, c := range result.Collisions {
				o.Warn(
					fmt.Sprintf("source %q in %s repeats %s", c.Source, c.Path, c.FirstPath),
					fmt.Sprintf("stored as %q; give one of the files a unique source and rebuild", c.Placeholder),
				)
			}

			o.Printf("indexed %d documents\n", result.Indexed)

			return nil
		},
	}
}
