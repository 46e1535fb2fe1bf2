package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"admctl/internal/domain"
)

var (
	userEmail    string
	userName     string
	userPassword string
	userRole     string
	userPartner  string
)

// userCmd groups the admin-only account management commands
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage dashboard accounts (admin only)",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account",
	RunE:  runUserCreate,
}

var userUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update an account",
	Long:  `Update an account. Only the flags you pass are sent.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runUserUpdate,
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserDelete,
}

func init() {
	for _, cmd := range []*cobra.Command{userCreateCmd, userUpdateCmd} {
		cmd.Flags().StringVar(&userEmail, "email", "", "account email")
		cmd.Flags().StringVar(&userName, "name", "", "display name")
		cmd.Flags().StringVar(&userPassword, "password", "", "password")
		cmd.Flags().StringVar(&userRole, "role", "", "account role")
		cmd.Flags().StringVar(&userPartner, "partner", "", "owning partner ID")
	}
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userUpdateCmd)
	userCmd.AddCommand(userDeleteCmd)
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	if err := requireAdmin(cmd); err != nil {
		return err
	}

	user, err := app.GetAPIClient().CreateUser(cmd.Context(), domain.CreateUser{
		Email:    userEmail,
		Password: userPassword,
		Name:     userName,
		Role:     userRole,
		Partner:  userPartner,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Created user %s (%s)\n", user.Email, user.ID)
	return nil
}

func runUserUpdate(cmd *cobra.Command, args []string) error {
	if err := requireAdmin(cmd); err != nil {
		return err
	}

	user, err := app.GetAPIClient().UpdateUser(cmd.Context(), args[0], domain.CreateUser{
		Email:    userEmail,
		Password: userPassword,
		Name:     userName,
		Role:     userRole,
		Partner:  userPartner,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Updated user %s (%s)\n", user.Email, user.ID)
	return nil
}

func runUserDelete(cmd *cobra.Command, args []string) error {
	if err := requireAdmin(cmd); err != nil {
		return err
	}

	if err := app.GetAPIClient().DeleteUser(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted user %s\n", args[0])
	return nil
}
