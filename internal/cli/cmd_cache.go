package cli

import (
	"context"

	flag "github.com/spf13/pflag"
)

func cacheCmd() *Command {
	flags := flag.NewFlagSet("cache", flag.ContinueOnError)
	clearCache := flags.Bool("clear", false, "Empty the cache")
	secret := flags.Bool("secret", false, "Show secret entries")

	return &Command{
		Flags: flags,
		Usage: "cache [--clear]",
		Short: "Print or clear the last listing",
		Exec: func(_ context.Context, o *IO, env *Env, args []string) error {
			if len(args) > 0 {
				return errTooManyArgs
			}

			if *clearCache {
				return env.Catalog.ClearCache()
			}

			entries, err := env.Catalog.ReadCache()
			if err != nil {
				return err
			}

			printEntries(o, entries, env.Catalog.Ordering(), *secret)

			return nil
		},
	}
}
