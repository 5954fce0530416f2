package cli

import (
	"context"

	"github.com/calvinalkan/probcat/internal/catalog"
	"github.com/calvinalkan/probcat/internal/watch"
)

func watchCmd() *Command {
	return &Command{
		Usage: "watch",
		Short: "Re-index documents as they are written",
		Long: `Watch the base directory and re-index every document file that is created or
written, until interrupted. Each refreshed entry is printed.`,
		Exec: func(ctx context.Context, o *IO, env *Env, args []string) error {
			if len(args) > 0 {
				return errTooManyArgs
			}

			w, err := watch.New(env.Config.BaseDirAbs, env.Config.Extension, env.Catalog, env.Logger)
			if err != nil {
				return err
			}

			return w.Run(ctx, func(entry catalog.Entry) {
				o.Println(formatEntryLine(entry, env.Catalog.Ordering()))
			})
		},
	}
}
