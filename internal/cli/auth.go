package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada-remote/internal/model"
	"github.com/Makepad-fr/tada-remote/internal/store"
	"github.com/Makepad-fr/tada-remote/internal/ui"
)

type credentialFlags struct {
	username string
	password string
}

func (c *credentialFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&c.username, "username", "u", "", "username (prompted when omitted)")
	cmd.Flags().StringVarP(&c.password, "password", "p", "", "password (prompted when omitted)")
}

func (c *credentialFlags) resolve(title string) (string, string, error) {
	u, p, err := promptCredentials(title, c.username, c.password)
	if errors.Is(err, huh.ErrUserAborted) {
		return "", "", usagef("%s cancelled", title)
	}
	return u, p, err
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	creds := &credentialFlags{}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the access token",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			username, password, err := creds.resolve("Login")
			if err != nil {
				return err
			}
			a, err := newApp(opts.cfg, ui.Console)
			if err != nil {
				return err
			}
			if err := a.session.Login(cmd.Context(), username, password); err != nil {
				return reportedError{err}
			}
			ui.Info(fmt.Sprintf("%d todos", a.todos.Len()))
			return nil
		},
	}
	creds.bind(cmd)
	return cmd
}

func newRegisterCmd(opts *rootOptions) *cobra.Command {
	creds := &credentialFlags{}
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account (does not log in)",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			username, password, err := creds.resolve("Register")
			if err != nil {
				return err
			}
			a, err := newApp(opts.cfg, ui.Console)
			if err != nil {
				return err
			}
			if err := a.session.Register(cmd.Context(), username, password); err != nil {
				return reportedError{err}
			}
			ui.Info("Run: tada login -u " + username)
			return nil
		},
	}
	creds.bind(cmd)
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts.cfg, ui.Console)
			if err != nil {
				return err
			}
			fromEnv := a.store.Source(model.KeyToken) == store.SourceEnv
			a.session.Logout()
			if fromEnv {
				ui.Info("token is also provided by TADA_TOKEN (unset it to stay logged out)")
			}
			return nil
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a session is stored (no network)",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts.cfg, ui.Console)
			if err != nil {
				return err
			}
			token, _, err := a.store.Get(model.KeyToken)
			if err != nil {
				return err
			}
			username, _, err := a.store.Get(model.KeyUsername)
			if err != nil {
				return err
			}
			if token == "" || username == "" {
				ui.Info("not logged in")
				fmt.Fprintln(cmd.OutOrStdout(), "Run: tada login")
				return nil
			}

			lines := []string{
				"user:    " + username,
				"source:  " + a.store.Source(model.KeyToken),
				"api:     " + a.client.BaseURL(),
				"expires: " + expiryOf(token),
			}
			ui.Panel(cmd.OutOrStdout(), lines)
			return nil
		},
	}
}

// whoami decodes the JWT locally (unverified); opaque tokens print basic info.
func newWhoAmICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Decode the stored token locally",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts.cfg, ui.Console)
			if err != nil {
				return err
			}
			token, ok, err := a.store.Get(model.KeyToken)
			if err != nil {
				return err
			}
			if !ok || token == "" {
				return usagef("not logged in. Run: tada login")
			}
			out := cmd.OutOrStdout()
			claims, err := parseClaims(token)
			if err != nil {
				fmt.Fprintln(out, "Opaque token (cannot introspect locally).")
				fmt.Fprintln(out, "source:", a.store.Source(model.KeyToken))
				return nil
			}
			b, err := json.MarshalIndent(claims, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal claims: %w", err)
			}
			fmt.Fprintln(out, "JWT payload:")
			fmt.Fprintln(out, string(b))
			return nil
		},
	}
}

func parseClaims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func expiryOf(token string) string {
	claims, err := parseClaims(token)
	if err != nil {
		return "(unknown)"
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return "(unknown)"
	}
	s := exp.UTC().Format(time.RFC3339)
	if exp.Before(time.Now()) {
		s += " (expired)"
	}
	return s
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usagef("usage: tada %s", cmd.Name())
	}
	return nil
}
