package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakif/snipet/internal/client"
	"github.com/sakif/snipet/internal/session"
)

const defaultServer = "http://127.0.0.1:8080"

// newRootCmd builds the CLI. The bare command posts a snippet read from
// stdin; subcommands manage the saved session.
func newRootCmd(store *session.Store) *cobra.Command {
	var (
		title      string
		desc       string
		lang       string
		visibility string
	)

	root := &cobra.Command{
		Use:   "snipet",
		Short: "Post code snippets from your terminal",
		Long: `Post code snippets from your terminal.

Pipe code in and give it a title:

  cat main.go | snipet --title "Graceful shutdown"

Run "snipet login" first to save credentials.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPost(cmd, store, title, desc, lang, visibility)
		},
	}

	root.Flags().StringVarP(&title, "title", "t", "", "title for the snippet (required)")
	root.Flags().StringVarP(&desc, "desc", "d", "", "description for the snippet")
	root.Flags().StringVarP(&lang, "lang", "l", "", "programming language (auto-detected when omitted)")
	root.Flags().StringVarP(&visibility, "visibility", "v", "public", "public or private")

	root.AddCommand(newLoginCmd(store))
	root.AddCommand(newRegisterCmd())
	root.AddCommand(newConfigCmd(store))
	root.AddCommand(newLogoutCmd(store))

	return root
}

func runPost(cmd *cobra.Command, store *session.Store, title, desc, lang, visibility string) error {
	if title == "" {
		return errors.New(`title is required: cat file.go | snipet --title "Your Title"`)
	}
	if visibility != "public" && visibility != "private" {
		return errors.New("visibility must be public or private")
	}

	sess := store.Current()
	if !sess.SignedIn() {
		return errors.New("not logged in, run: snipet login --email <EMAIL> --password <PASSWORD>")
	}

	// Refuse to wait on an interactive terminal; code must be piped in.
	if info, err := os.Stdin.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
		return errors.New(`no input provided, pipe content in: cat file.go | snipet --title "My Snippet"`)
	}

	code, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}
	if strings.TrimSpace(string(code)) == "" {
		return errors.New("no code provided (empty input)")
	}

	if lang == "" {
		lang = detectLanguage(string(code))
	}

	api := client.New(sess.Server, sess.Token)
	snippet, err := api.CreateSnippet(cmd.Context(), title, desc, lang, string(code), visibility)
	if err != nil {
		return fmt.Errorf("creating snippet: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Posted %q (%s, %s)\n", snippet.Title, snippet.Language, snippet.Visibility)
	fmt.Fprintf(cmd.OutOrStdout(), "%s/snippet/%s\n", sess.Server, snippet.ID)
	return nil
}

func newLoginCmd(store *session.Store) *cobra.Command {
	var email, password, server string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login and save credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			api := client.New(server, "")
			result, err := api.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}

			if err := store.Set(session.Session{
				Server: server,
				Email:  result.User.Email,
				UserID: result.User.ID,
				Token:  result.Token,
			}); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s on %s\n", result.User.Email, server)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "email address")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	cmd.Flags().StringVarP(&server, "server", "s", defaultServer, "snipet server URL")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")

	return cmd
}

func newRegisterCmd() *cobra.Command {
	var email, password, name, server string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			api := client.New(server, "")
			result, err := api.Register(cmd.Context(), name, email, password)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s\n", result.User.Email)
			fmt.Fprintf(cmd.OutOrStdout(), "Now login with: snipet login --email %s --password <password>\n", result.User.Email)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "email address")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (min 8 characters)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "display name")
	cmd.Flags().StringVarP(&server, "server", "s", defaultServer, "snipet server URL")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	cmd.MarkFlagRequired("name")

	return cmd
}

func newConfigCmd(store *session.Store) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := store.Current()
			if !sess.SignedIn() {
				return errors.New("not logged in, run: snipet login --email <EMAIL> --password <PASSWORD>")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Email:   %s\n", sess.Email)
			fmt.Fprintf(cmd.OutOrStdout(), "Server:  %s\n", sess.Server)
			fmt.Fprintf(cmd.OutOrStdout(), "User ID: %s\n", sess.UserID)
			fmt.Fprintf(cmd.OutOrStdout(), "Token:   %s...\n", sess.Token[:min(20, len(sess.Token))])
			return nil
		},
	}
}

func newLogoutCmd(store *session.Store) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Logout and remove saved credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}
