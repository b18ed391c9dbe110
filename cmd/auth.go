package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abhisek/learnpath/internal/contentapi"
	"github.com/abhisek/learnpath/internal/store"
	"github.com/spf13/cobra"
)

// passwordEnv lets scripts sign in without a prompt.
const passwordEnv = "LEARNPATH_PASSWORD"

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in and remember the session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		password, err := readPassword(cmd)
		if err != nil {
			return err
		}
		return signIn(cmd, e, args[0], password)
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <email>",
	Short: "Create an account and sign in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		name, _ := cmd.Flags().GetString("name")
		password, err := readPassword(cmd)
		if err != nil {
			return err
		}
		if err := e.client.Register(cmd.Context(), args[0], password, name); err != nil {
			return fmt.Errorf("register: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registered %s.\n", args[0])
		return signIn(cmd, e, args[0], password)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.sessions.Clear(cmd.Context()); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		e.client.SetToken("")
		if e.email == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No saved session.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed out %s.\n", e.email)
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()
		if err := e.requireSession(); err != nil {
			return err
		}

		id, err := e.client.Me(cmd.Context())
		if err != nil {
			return describe(err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ID:        %s\n", id.ID)
		fmt.Fprintf(out, "Email:     %s\n", id.Email)
		if id.FullName != "" {
			fmt.Fprintf(out, "Name:      %s\n", id.FullName)
		}
		role := id.Role
		if id.IsAdmin() {
			role += " (course administration enabled)"
		}
		fmt.Fprintf(out, "Role:      %s\n", role)
		fmt.Fprintf(out, "API:       %s\n", e.cfg.API.BaseURL)
		return nil
	},
}

// signIn logs in, saves the session and switches the progress identity.
func signIn(cmd *cobra.Command, e *env, email, password string) error {
	token, err := e.client.Login(cmd.Context(), email, password)
	if err != nil {
		return describe(fmt.Errorf("login: %w", err))
	}
	err = e.sessions.Save(cmd.Context(), store.Session{
		Token:   token,
		Email:   email,
		SavedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	e.progress.SetIdentity(contentapi.IdentityPrefix(token))
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s.\n", email)
	return nil
}

// readPassword takes --password, then LEARNPATH_PASSWORD, then one line
// of stdin.
func readPassword(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("password"); p != "" {
		return p, nil
	}
	if p := os.Getenv(passwordEnv); p != "" {
		return p, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	p := strings.TrimRight(line, "\r\n")
	if p == "" {
		return "", errors.New("a password is required")
	}
	return p, nil
}

func init() {
	loginCmd.Flags().String("password", "", "Password (default: "+passwordEnv+" or prompt)")
	registerCmd.Flags().String("password", "", "Password (default: "+passwordEnv+" or prompt)")
	registerCmd.Flags().String("name", "", "Full name")
}
