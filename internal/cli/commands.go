package cli

import (
	"fmt"

	"github.com/alexandernizov/moodiary/internal/session"
	"github.com/spf13/cobra"
)

type credentialFlags struct {
	username string
	password string
}

func (f *credentialFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&f.password, "password", "p", "", "account password (or set "+passwordEnv+")")
	_ = cmd.MarkFlagRequired("username")
}

func newLoginCmd(a *app) *cobra.Command {
	var flags credentialFlags

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and keep the session on this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := password(flags.password)
			if err != nil {
				return err
			}

			res := a.store.LoginResult(cmd.Context(), flags.username, pw)
			if !res.OK() {
				return failure("login", res)
			}

			username, _ := a.store.Username()
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", username)
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var flags credentialFlags

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account; does not log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := password(flags.password)
			if err != nil {
				return err
			}

			res := a.store.RegisterResult(cmd.Context(), flags.username, pw)
			if !res.OK() {
				return failure("register", res)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "registered %s\n", flags.username)
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res := a.store.LogoutResult(cmd.Context())
			if !res.OK() {
				return fmt.Errorf("logged out of this run, but session still persisted: %w", res.Err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show who is logged in",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if !a.store.IsAuthenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), "not logged in")
				return
			}
			username, _ := a.store.Username()
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", username)
		},
	}
}

func failure(operation string, res session.Result) error {
	if res.StatusCode != 0 {
		return fmt.Errorf("%s failed (%s, status %d): %w", operation, res.Outcome, res.StatusCode, res.Err)
	}
	return fmt.Errorf("%s failed (%s): %w", operation, res.Outcome, res.Err)
}
