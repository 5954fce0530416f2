package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

var errNoEditorFound = errors.New("no editor found (set editor in config or $EDITOR)")

// resolveEditor picks the first available editor.
// Priority: config editor -> $EDITOR -> vi -> nano -> error.
func resolveEditor(configured string, vars map[string]string) (string, error) {
	candidates := []string{configured, vars["EDITOR"], "vi", "nano"}

	for _, editor := range candidates {
		if editor == "" {
			continue
		}

		if _, err := exec.LookPath(editor); err == nil {
			return editor, nil
		}
	}

	return "", errNoEditorFound
}

func runEditor(ctx context.Context, editor, path string) error {
	// zed returns immediately unless told to wait
	var cmd *exec.Cmd
	if filepath.Base(editor) == "zed" {
		cmd = exec.CommandContext(ctx, editor, "-w", path)
	} else {
		cmd = exec.CommandContext(ctx, editor, path)
	}

	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("editor exited with code %d", exitErr.ExitCode())
		}

		return fmt.Errorf("failed to run editor: %w", err)
	}

	return nil
}

func editCmd() *Command {
	return &Command{
		Usage: "edit <key>",
		Short: "Open a document in your editor, then update it",
		Long: `Open the backing file of the entry named by key (cache number or source) in
the configured editor. When the editor exits the file is re-read and stored
as by "probcat update".`,
		Exec: func(ctx context.Context, o *IO, env *Env, args []string) error {
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

			editor, err := resolveEditor(env.Config.Editor, env.Vars)
			if err != nil {
				return err
			}

			err = runEditor(ctx, editor, env.Catalog.CompletePath(old.Path))
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
