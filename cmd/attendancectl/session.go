package main

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-attendance/adapters/gocommand"
	attendancecommand "github.com/goliatone/go-attendance/command"
	"github.com/goliatone/go-attendance/core"
	"github.com/spf13/cobra"
)

type statusOutput struct {
	Status  string `json:"status" yaml:"status"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

func newLoginCommand(rt *cliRuntime) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := rt.printer()
			if err != nil {
				return err
			}
			if password == "" {
				if password, err = rt.env.readSecret("Password: "); err != nil {
					return err
				}
			}
			if _, err := rt.open(cmd.Context()); err != nil {
				return err
			}
			account, err := execute[attendancecommand.SignInMessage, core.Account](
				cmd.Context(),
				attendancecommand.SignInMessage{Email: email, Password: password},
			)
			if err != nil {
				return err
			}
			return out.print(account)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when empty)")
	return cmd
}

func newRegisterCommand(rt *cliRuntime) *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := rt.printer()
			if err != nil {
				return err
			}
			if password == "" {
				if password, err = rt.env.readSecret("Password: "); err != nil {
					return err
				}
			}
			if _, err := rt.open(cmd.Context()); err != nil {
				return err
			}
			account, err := execute[attendancecommand.SignUpMessage, core.Account](
				cmd.Context(),
				attendancecommand.SignUpMessage{Email: email, Password: password, DisplayName: name},
			)
			if err != nil {
				return err
			}
			return out.print(account)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when empty)")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	return cmd
}

func newLogoutCommand(rt *cliRuntime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := rt.printer()
			if err != nil {
				return err
			}
			if _, err := rt.open(cmd.Context()); err != nil {
				return err
			}
			if err := gocommand.Dispatch(cmd.Context(), attendancecommand.SignOutMessage{}); err != nil {
				return err
			}
			return out.print(statusOutput{Status: "signed_out"})
		},
	}
}

func newWhoAmICommand(rt *cliRuntime) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := rt.printer()
			if err != nil {
				return err
			}
			app, err := rt.open(cmd.Context())
			if err != nil {
				return err
			}
			account, ok := app.Session().Account()
			if !ok {
				return out.print(statusOutput{Status: string(core.AuthStateSignedOut)})
			}
			return out.print(account)
		},
	}
}

func newResetPasswordCommand(rt *cliRuntime) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Send a password reset email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := rt.printer()
			if err != nil {
				return err
			}
			msg := attendancecommand.SendPasswordResetMessage{Email: email}
			if err := msg.Validate(); err != nil {
				return err
			}
			if _, err := rt.open(cmd.Context()); err != nil {
				return err
			}
			if err := gocommand.Dispatch(cmd.Context(), msg); err != nil {
				return err
			}
			return out.print(statusOutput{
				Status:  "sent",
				Message: fmt.Sprintf("password reset email sent to %s", strings.TrimSpace(email)),
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	return cmd
}
