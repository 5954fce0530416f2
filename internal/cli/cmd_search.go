package cli

import (
	"context"
	"errors"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/probcat/internal/catalog"
)

var errUsedExclusive = errors.New("--used and --unused are mutually exclusive")

func searchCmd() *Command {
	flags := flag.NewFlagSet("search", flag.ContinueOnError)
	tags := flags.StringArrayP("tag", "t", nil, "Require tag (repeatable)")
	sources := flags.StringArrayP("source", "s", nil, "Require source substring (repeatable)")
	authors := flags.StringArrayP("author", "a", nil, "Require author name (repeatable)")
	path := flags.StringP("path", "p", "", "Require path prefix")
	used := flags.Bool("used", false, "Only entries in the usage feed")
	unused := flags.Bool("unused", false, "Only entries not in the usage feed")
	refine := flags.BoolP("refine", "r", false, "Search the cache instead of the whole index")
	alpha := flags.Bool("alpha", false, "Sort by source instead of subject and hardness")
	secret := flags.Bool("secret", false, "Show secret entries")

	return &Command{
		Flags: flags,
		Usage: "search [flags] [terms...]",
		Short: "Search the index",
		Long: `Search the index (or, with --refine, the cache) for entries matching every
term and filter. A term matches the source, description or author, a tag, or
the short identifier. A non-empty result replaces the cache.`,
		Exec: func(_ context.Context, o *IO, env *Env, args []string) error {
			if *used && *unused {
				return errUsedExclusive
			}

			q := catalog.Query{
				Terms:        args,
				Tags:         *tags,
				Sources:      *sources,
				Authors:      *authors,
				PathPrefix:   *path,
				Alphabetical: *alpha,
			}

			switch {
			case *used:
				q.Usage = catalog.UsageUsed
			case *unused:
				q.Usage = catalog.UsageUnused
			}

			if *refine {
				q.Scope = catalog.ScopeCache
			}

			result, err := env.Catalog.Search(q)
			if err != nil {
				return err
			}

			printEntries(o, result, env.Catalog.Ordering(), *secret)

			return nil
		},
	}
}
