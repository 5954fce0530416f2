// Package cli implements the probcat command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/calvinalkan/probcat/internal/catalog"
	"github.com/calvinalkan/probcat/internal/logging"
	"github.com/calvinalkan/probcat/internal/puid"
	"github.com/calvinalkan/probcat/internal/source"
	"github.com/calvinalkan/probcat/internal/usage"
)

const (
	consumedOne  = 1
	consumedTwo  = 2
	consumedNone = 0
	helpFlag     = "--help"
)

var (
	errFlagRequiresArg = errors.New("flag requires an argument")
	errUnknownFlag     = errors.New("unknown flag")
)

// commands lists every command in help order.
func commands() []*Command {
	return []*Command{
		lsCmd(),
		searchCmd(),
		showCmd(),
		addCmd(),
		updateCmd(),
		editCmd(),
		rebuildCmd(),
		cacheCmd(),
		watchCmd(),
		printConfigCmd(),
	}
}

// EnvMap turns KEY=VALUE pairs (as returned by os.Environ) into a map.
// Entries without '=' are ignored; a later duplicate key wins.
func EnvMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))

	for _, e := range environ {
		if k, v, ok := strings.Cut(e, "="); ok && k != "" {
			env[k] = v
		}
	}

	return env
}

// Run is the main entry point. Returns exit code. A value on sigCh cancels
// long-running commands such as watch.
func Run(in io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	o := NewIO(in, out, errOut)

	flags, err := parseGlobalFlags(args[min(1, len(args)):])
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	if len(flags.remaining) == 0 || flags.remaining[0] == helpFlag || flags.remaining[0] == "-h" {
		printUsage(o)

		return 0
	}

	name := flags.remaining[0]

	var cmd *Command

	for _, c := range commands() {
		if c.Name() == name {
			cmd = c

			break
		}
	}

	if cmd == nil {
		o.ErrPrintln("error: unknown command:", name)

		return 1
	}

	cfg, err := catalog.LoadConfig(catalog.LoadConfigInput{
		WorkDirOverride: flags.workDir,
		ConfigPath:      flags.configPath,
		BaseDirOverride: flags.baseDir,
		Env:             env,
	})
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	logger, closer, err := logging.New(o.errOut, logging.Config{Level: cfg.LogLevel, File: cfg.LogFileAbs})
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	defer func() { _ = closer.Close() }()

	files := source.New(cfg.BaseDirAbs, cfg.Separator, cfg.Extension)

	cat, err := catalog.New(cfg, catalog.Options{
		Parser:     files,
		Discoverer: files,
		Normalizer: puid.Infer,
		Usage:      usage.New(cfg.UsagePathAbs),
		Logger:     logger,
	})
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sigCh != nil {
		go func() {
			select {
			case <-sigCh:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	return cmd.Run(ctx, o, &Env{Config: cfg, Catalog: cat, Logger: logger, Vars: env}, flags.remaining[1:])
}

type globalFlags struct {
	workDir    string
	configPath string
	baseDir    string
	remaining  []string
}

func parseGlobalFlags(args []string) (globalFlags, error) {
	var flags globalFlags

	idx := 0
	for idx < len(args) {
		consumed, err := parseFlag(args, idx, &flags)
		if err != nil {
			return globalFlags{}, err
		}

		if consumed == 0 {
			// Not a flag, this is the command
			flags.remaining = args[idx:]

			break
		}

		idx += consumed
	}

	return flags, nil
}

// parseFlag tries to parse a flag at args[idx]. Returns number of args consumed (0 if not a flag).
func parseFlag(args []string, idx int, flags *globalFlags) (int, error) {
	arg := args[idx]

	if value, consumed, ok, err := valueFlag(args, idx, "-C", "--cwd"); ok || err != nil {
		flags.workDir = value

		return consumed, err
	}

	if value, consumed, ok, err := valueFlag(args, idx, "-c", "--config"); ok || err != nil {
		flags.configPath = value

		return consumed, err
	}

	if value, consumed, ok, err := valueFlag(args, idx, "", "--base-dir"); ok || err != nil {
		flags.baseDir = value

		return consumed, err
	}

	if arg == "-h" || arg == helpFlag {
		flags.remaining = []string{helpFlag}

		return len(args) - idx, nil
	}

	if strings.HasPrefix(arg, "-") && arg != "-" {
		return consumedNone, fmt.Errorf("%w: %s", errUnknownFlag, arg)
	}

	return consumedNone, nil
}

// valueFlag matches "-x v", "-xv", "--long v" and "--long=v".
func valueFlag(args []string, idx int, short, long string) (string, int, bool, error) {
	arg := args[idx]

	if arg == long || (short != "" && arg == short) {
		if idx+1 >= len(args) {
			return "", consumedNone, false, fmt.Errorf("%w: %s", errFlagRequiresArg, arg)
		}

		return args[idx+1], consumedTwo, true, nil
	}

	if after, ok := strings.CutPrefix(arg, long+"="); ok {
		return after, consumedOne, true, nil
	}

	if short != "" && len(arg) > len(short) {
		if after, ok := strings.CutPrefix(arg, short); ok {
			return after, consumedOne, true, nil
		}
	}

	return "", consumedNone, false, nil
}

func printUsage(o *IO) {
	o.Println(`probcat - personal problem catalog

Usage: probcat [options] <command> [args]

Options:
  -C, --cwd <dir>        Run as if started in <dir>
  -c, --config <file>    Use specified config file
  --base-dir <dir>       Override the problem base directory

Commands:`)

	for _, c := range commands() {
		o.Println(c.HelpLine())
	}
}
