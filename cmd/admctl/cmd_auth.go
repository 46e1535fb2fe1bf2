package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"golang.org/x/term"
)

var (
	loginEmail    string
	loginPassword string
)

// loginCmd exchanges credentials for a bearer token and persists it
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the activation API",
	Long: `Exchange email and password for a bearer token and persist it in the
local token slot. Every other command reads the slot; re-running login
replaces the stored token.`,
	RunE: runLogin,
}

// logoutCmd removes the persisted token
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the persisted session",
	RunE:  runLogout,
}

// whoamiCmd shows the current session
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in account",
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email (prompted when omitted)")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password (prompted when omitted)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	email := loginEmail
	if email == "" {
		fmt.Print("Email: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read email: %w", err)
		}
		email = strings.TrimSpace(line)
	}

	password := loginPassword
	if password == "" {
		fmt.Print("Password: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = string(raw)
	}

	login, err := app.GetAPIClient().Login(cmd.Context(), email, password)
	if err != nil {
		return err
	}

	if err := app.GetSession().Persist(login.Token); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	fmt.Printf("Logged in as %s\n", email)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	if err := app.GetSession().Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	fmt.Println("Logged out.")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	sess := app.GetSession()
	if !sess.IsAuthenticated() {
		fmt.Println("Not logged in.")
		return nil
	}

	// Best effort: the token may be opaque, the API is the authority.
	if claims, err := sess.Claims(); err == nil {
		for _, key := range []string{"email", "name", "role"} {
			if v, ok := claims[key]; ok {
				fmt.Printf("%-6s %v\n", key+":", v)
			}
		}
	}

	user, err := app.GetAPIClient().CurrentUser(cmd.Context())
	if err != nil {
		fmt.Println("Session present but the API rejected it. Run 'admctl login' again.")
		return nil
	}

	fmt.Printf("Account: %s (%s)\n", user.Name, user.Email)
	fmt.Printf("Role:    %s\n", user.Role)
	if user.Partner != "" {
		fmt.Printf("Partner: %s\n", user.Partner)
	}

	if stats, err := app.GetAPIClient().UserStats(cmd.Context()); err == nil {
		fmt.Printf("\nActivations: %d  Collections: %d\n", stats.ActivationsCount, stats.CollectionsCount)
		fmt.Printf("Views: %d  Scans: %d\n", stats.TotalActivationViews, stats.TotalActivationScans)
	}
	return nil
}
