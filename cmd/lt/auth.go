package main

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/mschirtzinger/learntrack/internal/identity"
	"github.com/mschirtzinger/learntrack/internal/ui"
)

var (
	authEmail    string
	authPassword string
)

var loginCmd = &cobra.Command{
	Use:     "login",
	GroupID: "sync",
	Short:   "Sign in to the remote store",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		email, password, err := credentials()
		if err != nil {
			return err
		}

		user, err := a.ident.SignIn(cmd.Context(), email, password)
		if errors.Is(err, identity.ErrUnconfirmed) {
			fmt.Printf("%s Account %s is registered but not confirmed\n", ui.RenderWarn("!"), email)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("%s Signed in as %s\n", ui.RenderPass("✓"), user.Email)

		// Pull the remote copy so this device starts from the account's
		// state.
		if _, _, err := a.coord.LoadProgress(cmd.Context()); err != nil {
			fmt.Printf("%s Could not fetch remote progress: %v\n", ui.RenderWarn("!"), err)
		}
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:     "register",
	GroupID: "sync",
	Short:   "Create an account on the remote store",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		email, password, err := credentials()
		if err != nil {
			return err
		}

		user, err := a.ident.SignUp(cmd.Context(), email, password)
		if err != nil {
			return err
		}
		if !user.Confirmed {
			fmt.Printf("%s Registered %s; confirm the account before signing in\n",
				ui.RenderWarn("!"), user.Email)
			return nil
		}
		fmt.Printf("%s Registered and signed in as %s\n", ui.RenderPass("✓"), user.Email)
		return nil
	},
}

var confirmCmd = &cobra.Command{
	Use:     "confirm <email>",
	GroupID: "sync",
	Short:   "Confirm a registered account",
	Long: `Confirm a registered account so it can sign in. Hosted deployments
confirm accounts through their own flow; on a self-hosted store this
command stands in for it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ident.Confirm(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("%s Confirmed %s\n", ui.RenderPass("✓"), args[0])
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:     "logout",
	GroupID: "sync",
	Short:   "Sign out on this device",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ident.SignOut(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("%s Signed out\n", ui.RenderPass("✓"))
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:     "whoami",
	GroupID: "sync",
	Short:   "Show the signed-in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		user, signedIn, err := a.ident.Current(cmd.Context())
		if err != nil {
			return err
		}
		if !signedIn {
			fmt.Println(ui.RenderDim("Not signed in"))
			return nil
		}
		fmt.Println(user.Email)
		return nil
	},
}

// credentials collects email/password from flags or, with a terminal
// attached, from an interactive form.
func credentials() (string, string, error) {
	email, password := authEmail, authPassword
	if email != "" && password != "" {
		return email, password, nil
	}
	if !isTerminal() {
		return "", "", fmt.Errorf("no terminal: pass --email and --password")
	}

	form := newForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&email).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("email is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&password).
				Validate(func(s string) error {
					if len(s) < 8 {
						return fmt.Errorf("password must be at least 8 characters")
					}
					return nil
				}),
		),
	)
	if err := form.Run(); err != nil {
		return "", "", err
	}
	return email, password, nil
}

func init() {
	for _, cmd := range []*cobra.Command{loginCmd, registerCmd} {
		cmd.Flags().StringVar(&authEmail, "email", "", "account email")
		cmd.Flags().StringVar(&authPassword, "password", "", "account password")
	}
	rootCmd.AddCommand(loginCmd, registerCmd, confirmCmd, logoutCmd, whoamiCmd)
}
