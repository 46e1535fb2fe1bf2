package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"admctl/internal/domain"
)

var (
	partnerName        string
	partnerDescription string
	partnerLogoURL     string
	partnerUserEmail   string
	partnerUserName    string
	partnerUserPass    string
)

// partnerCmd groups the admin-only partner management commands
var partnerCmd = &cobra.Command{
	Use:   "partner",
	Short: "Manage partner organizations (admin only)",
}

var partnerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all partners",
	RunE:  runPartnerList,
}

var partnerCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a partner with its first user",
	RunE:  runPartnerCreate,
}

var partnerUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a partner's profile",
	Long:  `Update a partner's name, description or logo. Only the flags you pass are sent.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runPartnerUpdate,
}

var partnerDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a partner",
	Args:  cobra.ExactArgs(1),
	RunE:  runPartnerDelete,
}

var partnerAddUserCmd = &cobra.Command{
	Use:   "add-user <partner-id>",
	Short: "Provision an account under an existing partner",
	Args:  cobra.ExactArgs(1),
	RunE:  runPartnerAddUser,
}

var partnerStatsCmd = &cobra.Command{
	Use:   "stats <id>",
	Short: "Show aggregate counters for one partner",
	Args:  cobra.ExactArgs(1),
	RunE:  runPartnerStats,
}

func init() {
	partnerCreateCmd.Flags().StringVar(&partnerName, "name", "", "partner name")
	partnerCreateCmd.Flags().StringVar(&partnerDescription, "description", "", "partner description")
	partnerCreateCmd.Flags().StringVar(&partnerLogoURL, "logo", "", "logo image URL")
	partnerCreateCmd.Flags().StringVar(&partnerUserEmail, "user-email", "", "first user's email")
	partnerCreateCmd.Flags().StringVar(&partnerUserName, "user-name", "", "first user's display name")
	partnerCreateCmd.Flags().StringVar(&partnerUserPass, "user-password", "", "first user's password")
	_ = partnerCreateCmd.MarkFlagRequired("name")
	_ = partnerCreateCmd.MarkFlagRequired("user-email")
	_ = partnerCreateCmd.MarkFlagRequired("user-password")

	partnerUpdateCmd.Flags().StringVar(&partnerName, "name", "", "partner name")
	partnerUpdateCmd.Flags().StringVar(&partnerDescription, "description", "", "partner description")
	partnerUpdateCmd.Flags().StringVar(&partnerLogoURL, "logo", "", "logo image URL")

	partnerAddUserCmd.Flags().StringVar(&partnerUserEmail, "email", "", "new user's email")
	partnerAddUserCmd.Flags().StringVar(&partnerUserName, "name", "", "new user's display name")
	partnerAddUserCmd.Flags().StringVar(&partnerUserPass, "password", "", "new user's password")
	_ = partnerAddUserCmd.MarkFlagRequired("email")
	_ = partnerAddUserCmd.MarkFlagRequired("password")

	partnerCmd.AddCommand(partnerListCmd)
	partnerCmd.AddCommand(partnerCreateCmd)
	partnerCmd.AddCommand(partnerUpdateCmd)
	partnerCmd.AddCommand(partnerDeleteCmd)
	partnerCmd.AddCommand(partnerAddUserCmd)
	partnerCmd.AddCommand(partnerStatsCmd)
}

// requireAdmin gates the partner surface on the current account's role, the
// same check the dashboard uses to hide the admin pages.
func requireAdmin(cmd *cobra.Command) error {
	if err := requireAuth(); err != nil {
		return err
	}
	user, err := app.GetAPIClient().CurrentUser(cmd.Context())
	if err != nil {
		return err
	}
	if !domain.IsAdmin(user) {
		return fmt.Errorf("partner management requires an admin account")
	}
	return nil
}

func runPartnerList(cmd *cobra.Command, args []string) error {
	if err := requireAdmin(cmd); err != nil {
		return err
	}

	partners, err := app.GetAPIClient().ListPartners(cmd.Context())
	if err != nil {
		return err
	}

	if len(partners) == 0 {
		fmt.Println("No partners.")
		return nil
	}
	for _, p := range partners {
		fmt.Printf("%-26s %-25s users=%d\n", p.ID, p.Name, len(p.Users))
	}
	return nil
}

func runPartnerCreate(cmd *cobra.Command, args []string) error {
	if err := requireAdmin(cmd); err != nil {
		return err
	}

	partner, err := app.GetAPIClient().CreatePartner(cmd.Context(), domain.CreatePartner{
		PartnerData: domain.PartnerData{
			Name:        partnerName,
			Description: partnerDescription,
			LogoImage:   partnerLogoURL,
		},
		FirstUser: domain.CreateUser{
			Email:    partnerUserEmail,
			Name:     partnerUserName,
			Password: partnerUserPass,
		},
	})
	if err != nil {
		return err
	}

	fmt.Printf("Created partner %s (%s)\n", partner.Name, partner.ID)
	return nil
}

func runPartnerUpdate(cmd *cobra.Command, args []string) error {
	if err := requireAdmin(cmd); err != nil {
		return err
	}

	partner, err := app.GetAPIClient().UpdatePartner(cmd.Context(), args[0], domain.PartnerData{
		Name:        partnerName,
		Description: partnerDescription,
		LogoImage:   partnerLogoURL,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Updated partner %s (%s)\n", partner.Name, partner.ID)
	return nil
}

func runPartnerDelete(cmd *cobra.Command, args []string) error {
	if err := requireAdmin(cmd); err != nil {
		return err
	}

	if err := app.GetAPIClient().DeletePartner(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted partner %s\n", args[0])
	return nil
}

func runPartnerAddUser(cmd *cobra.Command, args []string) error {
	if err := requireAdmin(cmd); err != nil {
		return err
	}

	user, err := app.GetAPIClient().AddPartnerUser(cmd.Context(), args[0], domain.CreateUser{
		Email:    partnerUserEmail,
		Name:     partnerUserName,
		Password: partnerUserPass,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Created user %s (%s) under partner %s\n", user.Email, user.ID, args[0])
	return nil
}

func runPartnerStats(cmd *cobra.Command, args []string) error {
	if err := requireAdmin(cmd); err != nil {
		return err
	}

	var (
		stats *domain.Stats
		err   error
	)
	if cache := app.GetCacheService(); cache != nil {
		stats, err = cache.PartnerStatsWithCache(cmd.Context(), args[0], app.GetAPIClient().PartnerStats)
	} else {
		stats, err = app.GetAPIClient().PartnerStats(cmd.Context(), args[0])
	}
	if err != nil {
		return err
	}

	fmt.Printf("Activations:      %d\n", stats.ActivationsCount)
	fmt.Printf("Collections:      %d\n", stats.CollectionsCount)
	fmt.Printf("Activation views: %d\n", stats.TotalActivationViews)
	fmt.Printf("Activation scans: %d\n", stats.TotalActivationScans)
	fmt.Printf("Collection views: %d\n", stats.TotalCollectionViews)
	return nil
}
