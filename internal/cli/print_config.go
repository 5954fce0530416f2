package cli

import (
	"context"

	"github.com/calvinalkan/probcat/internal/catalog"
)

func printConfigCmd() *Command {
	return &Command{
		Usage: "print-config",
		Short: "Show resolved configuration",
		Exec: func(_ context.Context, o *IO, env *Env, _ []string) error {
			cfg := env.Config

			formatted, err := catalog.FormatConfig(cfg)
			if err != nil {
				return err
			}

			o.Println(formatted)
			o.Println("")
			o.Println("# Resolved:")
			o.Println("#   base:  ", cfg.BaseDirAbs)
			o.Println("#   index: ", cfg.IndexPathAbs)
			o.Println("#   cache: ", cfg.CachePathAbs)
			o.Println("")
			o.Println("# Sources:")

			if cfg.Sources.Global != "" {
				o.Println("#   global:", cfg.Sources.Global)
			}

			if cfg.Sources.Project != "" {
				o.Println("#   project:", cfg.Sources.Project)
			}

			if cfg.Sources.Global == "" && cfg.Sources.Project == "" {
				o.Println("#   (using defaults only)")
			}

			return nil
		},
	}
}
