package cli

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"
)

var errTooManyArgs = errors.New("too many arguments")

func lsCmd() *Command {
	flags := flag.NewFlagSet("ls", flag.ContinueOnError)
	secret := flags.Bool("secret", false, "Show secret entries")

	return &Command{
		Flags: flags,
		Usage: "ls [dir]",
		Short: "List documents in a directory",
		Long: `List the documents and subdirectories directly inside dir (relative to the
base directory). Defaults to the working directory when it is inside the
base directory, otherwise the base directory itself. A non-empty listing
replaces the cache, so its numbers can be used as keys.`,
		Exec: func(_ context.Context, o *IO, env *Env, args []string) error {
			if len(args) > 1 {
				return errTooManyArgs
			}

			dir := defaultListDir(env)
			if len(args) == 1 {
				dir = args[0]
			}

			listing, err := env.Catalog.ViewDirectory(dir)
			if err != nil {
				return err
			}

			for _, d := range listing.Dirs {
				o.Println(d + "/")
			}

			printEntries(o, listing.Entries, env.Catalog.Ordering(), *secret)

			return nil
		},
	}
}

func defaultListDir(env *Env) string {
	rel, err := filepath.Rel(env.Config.BaseDirAbs, env.Config.EffectiveCwd)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "."
	}

	return rel
}
