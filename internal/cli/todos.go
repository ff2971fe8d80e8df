package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada-remote/internal/todos"
	"github.com/Makepad-fr/tada-remote/internal/tui"
	"github.com/Makepad-fr/tada-remote/internal/ui"
)

// restore loads the stored session and its list, or fails with a hint to
// log in. A list that did not load is a failure, not an empty list.
func restore(ctx context.Context, a *app) error {
	ok, err := a.session.Resume(ctx)
	if !ok {
		return usagef("no token found. Set TADA_TOKEN or run `tada login`")
	}
	if err != nil {
		// already notified by the list, or as an expiry on 401
		return reportedError{err}
	}
	if !a.session.Session().IsAuthenticated() {
		return reportedError{errors.New("session expired")}
	}
	return nil
}

func parseID(cmd *cobra.Command, s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, usagef("%s: not a todo id: %s", cmd.Name(), s)
	}
	return id, nil
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List todos (interactive TUI unless --plain)",
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if plain {
				return listPlain(cmd, opts)
			}
			return listInteractive(cmd, opts)
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print the list and exit")
	return cmd
}

func listPlain(cmd *cobra.Command, opts *rootOptions) error {
	a, err := newApp(opts.cfg, ui.Console)
	if err != nil {
		return err
	}
	if err := restore(cmd.Context(), a); err != nil {
		return err
	}
	ui.Panel(cmd.OutOrStdout(), ui.TodoLines(a.session.Session().Username, a.todos.Items()))
	return nil
}

func listInteractive(cmd *cobra.Command, opts *rootOptions) error {
	// keep log lines off the alternate screen
	closer, err := opts.cfg.SetupLogging(true)
	if err != nil {
		return err
	}
	defer closer.Close()

	n := tui.NewNotifier()
	a, err := newApp(opts.cfg, n)
	if err != nil {
		return err
	}
	return tui.Run(cmd.Context(), a.session, a.todos, n)
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <content...>",
		Short: "Add a todo (content can be multiple words)",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usagef("usage: tada add <content...>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts.cfg, ui.Console)
			if err != nil {
				return err
			}
			if err := restore(cmd.Context(), a); err != nil {
				return err
			}
			created, err := a.todos.Add(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return reportedError{err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "#%d %s\n", created.ID, created.Content)
			return nil
		},
	}
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> [content...]",
		Short: "Replace the content of a todo (prompted when omitted)",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usagef("usage: tada edit <id> [content...]")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(cmd, args[0])
			if err != nil {
				return err
			}
			a, err := newApp(opts.cfg, ui.Console)
			if err != nil {
				return err
			}
			if err := restore(cmd.Context(), a); err != nil {
				return err
			}

			var resolver todos.ContentResolver = promptResolver{}
			if len(args) > 1 {
				resolver = todos.Content(strings.Join(args[1:], " "))
			}
			err = a.todos.Update(cmd.Context(), id, resolver)
			switch {
			case errors.Is(err, todos.ErrAborted):
				ui.Info("edit cancelled")
				return nil
			case err != nil:
				return reportedError{err}
			}
			if t, ok := a.todos.Find(id); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "#%d %s\n", t.ID, t.Content)
			}
			return nil
		},
	}
}

func newRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a todo",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usagef("usage: tada rm <id>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(cmd, args[0])
			if err != nil {
				return err
			}
			a, err := newApp(opts.cfg, ui.Console)
			if err != nil {
				return err
			}
			if err := restore(cmd.Context(), a); err != nil {
				return err
			}
			if err := a.todos.Remove(cmd.Context(), id); err != nil {
				return reportedError{err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d todos left\n", a.todos.Len())
			return nil
		},
	}
}
