package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"admctl/internal/domain"
	"admctl/internal/imaging"
)

var (
	collectionPartnerID    string
	collectionTitle        string
	collectionDescription  string
	collectionCategory     string
	collectionTags         []string
	collectionThumbPath    string
	collectionCatalogLabel string
)

// collectionCmd groups the collection catalog commands
var collectionCmd = &cobra.Command{
	Use:   "collection",
	Short: "Manage collections",
	Long: `Collections are named catalog groupings of activations. The cover
thumb is resized to the preview bounding box before upload, the same cut the
activation pipeline uses for its ghost derivative.`,
}

var collectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections owned by a partner",
	RunE:  runCollectionList,
}

var collectionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a collection",
	RunE:  runCollectionCreate,
}

var collectionUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a collection",
	Long: `Fetch a collection, apply the given changes and resubmit the full
record. Only the flags you pass change.`,
	Args: cobra.ExactArgs(1),
	RunE: runCollectionUpdate,
}

var collectionDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionDelete,
}

func init() {
	collectionListCmd.Flags().StringVar(&collectionPartnerID, "partner", "", "partner ID (defaults to your own partner)")

	for _, cmd := range []*cobra.Command{collectionCreateCmd, collectionUpdateCmd} {
		cmd.Flags().StringVar(&collectionTitle, "title", "", "collection title")
		cmd.Flags().StringVar(&collectionDescription, "description", "", "collection description")
		cmd.Flags().StringVar(&collectionCategory, "category", "", "collection category")
		cmd.Flags().StringArrayVar(&collectionTags, "tag", nil, "tag (repeatable)")
		cmd.Flags().StringVar(&collectionThumbPath, "thumb", "", "cover image file (resized before upload)")
		cmd.Flags().StringVar(&collectionCatalogLabel, "catalog-label", "", "label shown in the public catalog")
	}
	_ = collectionCreateCmd.MarkFlagRequired("title")

	collectionCmd.AddCommand(collectionListCmd)
	collectionCmd.AddCommand(collectionCreateCmd)
	collectionCmd.AddCommand(collectionUpdateCmd)
	collectionCmd.AddCommand(collectionDeleteCmd)
}

func runCollectionList(cmd *cobra.Command, args []string) error {
	if err := requireAuth(); err != nil {
		return err
	}
	ctx := cmd.Context()

	partnerID := collectionPartnerID
	if partnerID == "" {
		user, err := app.GetAPIClient().CurrentUser(ctx)
		if err != nil {
			return err
		}
		partnerID = user.Partner
	}
	if partnerID == "" {
		return fmt.Errorf("no partner to list for, pass --partner")
	}

	var (
		collections []domain.Collection
		err         error
	)
	if cache := app.GetCacheService(); cache != nil {
		collections, err = cache.ListCollectionsWithCache(ctx, partnerID, app.GetAPIClient().ListCollections)
	} else {
		collections, err = app.GetAPIClient().ListCollections(ctx, partnerID)
	}
	if err != nil {
		return err
	}

	if len(collections) == 0 {
		fmt.Println("No collections.")
		return nil
	}
	for _, c := range collections {
		fmt.Printf("%-26s %-25s activations=%d views=%d\n", c.ID, c.Title, len(c.Activations), c.TotalViews)
	}
	return nil
}

func runCollectionCreate(cmd *cobra.Command, args []string) error {
	if err := requireAuth(); err != nil {
		return err
	}
	ctx := cmd.Context()

	data := domain.CollectionData{
		Title:        collectionTitle,
		Description:  collectionDescription,
		Category:     collectionCategory,
		Tags:         collectionTags,
		CatalogLabel: collectionCatalogLabel,
	}

	if collectionThumbPath != "" {
		url, err := uploadCollectionThumb(ctx, collectionThumbPath)
		if err != nil {
			return err
		}
		data.Thumb = url
	}

	collection, err := app.GetAPIClient().CreateCollection(ctx, data)
	if err != nil {
		return err
	}

	fmt.Printf("Created collection %s (%s)\n", collection.Title, collection.ID)
	return nil
}

func runCollectionUpdate(cmd *cobra.Command, args []string) error {
	if err := requireAuth(); err != nil {
		return err
	}
	ctx := cmd.Context()

	existing, err := app.GetAPIClient().GetCollection(ctx, args[0])
	if err != nil {
		return err
	}

	// The update carries the full record with the changed fields applied.
	data := domain.CollectionData{
		Thumb:         existing.Thumb,
		Title:         existing.Title,
		Description:   existing.Description,
		Category:      existing.Category,
		Tags:          existing.Tags,
		ExternalLinks: existing.ExternalLinks,
		CatalogLabel:  existing.CatalogLabel,
	}
	if cmd.Flags().Changed("title") {
		data.Title = collectionTitle
	}
	if cmd.Flags().Changed("description") {
		data.Description = collectionDescription
	}
	if cmd.Flags().Changed("category") {
		data.Category = collectionCategory
	}
	if cmd.Flags().Changed("tag") {
		data.Tags = collectionTags
	}
	if cmd.Flags().Changed("catalog-label") {
		data.CatalogLabel = collectionCatalogLabel
	}
	if collectionThumbPath != "" {
		url, err := uploadCollectionThumb(ctx, collectionThumbPath)
		if err != nil {
			return err
		}
		data.Thumb = url
	}

	collection, err := app.GetAPIClient().UpdateCollection(ctx, args[0], data)
	if err != nil {
		return err
	}

	fmt.Printf("Updated collection %s (%s)\n", collection.Title, collection.ID)
	return nil
}

func runCollectionDelete(cmd *cobra.Command, args []string) error {
	if err := requireAuth(); err != nil {
		return err
	}

	if err := app.GetAPIClient().DeleteCollection(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", args[0])
	return nil
}

// uploadCollectionThumb resizes a cover image to the preview bounding box and
// uploads the result, returning the stored URL.
func uploadCollectionThumb(ctx context.Context, path string) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	derived, err := imaging.Resize(src, imaging.GhostSize)
	if err != nil {
		return "", err
	}

	result, err := app.GetAPIClient().UploadAsset(ctx, filepath.Base(path), bytes.NewReader(derived.Data))
	if err != nil {
		return "", err
	}
	return result.URL, nil
}
