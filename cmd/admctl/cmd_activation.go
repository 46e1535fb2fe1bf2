package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"admctl/internal/domain"
	"admctl/internal/pipeline"
	"admctl/internal/preview"
	"admctl/pkg/errors"
)

var (
	activationPartnerID   string
	activationName        string
	activationDescription string
	activationCollection  string
	activationImagePath   string
	activationVideoPath   string
	activationLinks       []string
	activationPreview     bool
)

// activationCmd groups the activation workflow commands
var activationCmd = &cobra.Command{
	Use:   "activation",
	Short: "Manage activations",
	Long: `Manage activations: the AR records pairing a trigger image with a
video. Creating or updating one runs the full asset pipeline: the trigger
image is uploaded along with its thumb, ghost and AR derivatives, the video
is size-checked locally, and the submitted record answers with a QR code.`,
}

var activationListCmd = &cobra.Command{
	Use:   "list",
	Short: "List activations owned by a partner",
	RunE:  runActivationList,
}

var activationGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one activation",
	Args:  cobra.ExactArgs(1),
	RunE:  runActivationGet,
}

var activationCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an activation",
	Long: `Assemble and submit a new activation. --image and --video are both
required for submission to succeed; external links are optional and take the
form "Name|https://url" or "Name|https://url|image-file".`,
	RunE: runActivationCreate,
}

var activationUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update an activation",
	Long: `Fetch an activation, apply the given changes and resubmit it. Only
the flags you pass change; a new --image restarts the whole derivative chain
from the fresh original.`,
	Args: cobra.ExactArgs(1),
	RunE: runActivationUpdate,
}

var activationDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an activation",
	Args:  cobra.ExactArgs(1),
	RunE:  runActivationDelete,
}

func init() {
	activationListCmd.Flags().StringVar(&activationPartnerID, "partner", "", "partner ID (defaults to your own partner)")

	for _, cmd := range []*cobra.Command{activationCreateCmd, activationUpdateCmd} {
		cmd.Flags().StringVar(&activationName, "name", "", "activation name")
		cmd.Flags().StringVar(&activationDescription, "description", "", "activation description")
		cmd.Flags().StringVar(&activationCollection, "collection", "", "collection ID to file the activation under")
		cmd.Flags().StringVar(&activationImagePath, "image", "", "trigger image file (jpeg, png or gif)")
		cmd.Flags().StringVar(&activationVideoPath, "video", "", "video file")
		cmd.Flags().StringArrayVar(&activationLinks, "link", nil, `external link as "Name|URL" or "Name|URL|image-file" (repeatable)`)
		cmd.Flags().BoolVar(&activationPreview, "preview", false, "serve a local preview of the result")
	}

	activationCmd.AddCommand(activationListCmd)
	activationCmd.AddCommand(activationGetCmd)
	activationCmd.AddCommand(activationCreateCmd)
	activationCmd.AddCommand(activationUpdateCmd)
	activationCmd.AddCommand(activationDeleteCmd)
}

func runActivationList(cmd *cobra.Command, args []string) error {
	if err := requireAuth(); err != nil {
		return err
	}
	ctx := cmd.Context()

	partnerID := activationPartnerID
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
		activations []domain.Activation
		err         error
	)
	if cache := app.GetCacheService(); cache != nil {
		activations, err = cache.ListActivationsWithCache(ctx, partnerID, app.GetAPIClient().ListActivations)
	} else {
		activations, err = app.GetAPIClient().ListActivations(ctx, partnerID)
	}
	if err != nil {
		return err
	}

	if len(activations) == 0 {
		fmt.Println("No activations.")
		return nil
	}
	for _, a := range activations {
		marker := " "
		if !a.ImageSetComplete() {
			marker = "!"
		}
		fmt.Printf("%s %-26s %-25s views=%d scans=%d\n", marker, a.ID, a.Name, a.TotalViews, a.TotalScans)
	}
	return nil
}

func runActivationGet(cmd *cobra.Command, args []string) error {
	if err := requireAuth(); err != nil {
		return err
	}

	activation, err := fetchActivation(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printActivation(activation)
	return nil
}

func runActivationCreate(cmd *cobra.Command, args []string) error {
	if err := requireAuth(); err != nil {
		return err
	}

	state := pipeline.NewDraftState()
	return assembleAndSubmit(cmd.Context(), cmd, state, "")
}

func runActivationUpdate(cmd *cobra.Command, args []string) error {
	if err := requireAuth(); err != nil {
		return err
	}

	activation, err := fetchActivation(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	state := pipeline.NewDraftStateFrom(activation)
	return assembleAndSubmit(cmd.Context(), cmd, state, activation.ID)
}

func runActivationDelete(cmd *cobra.Command, args []string) error {
	if err := requireAuth(); err != nil {
		return err
	}

	if err := app.GetAPIClient().DeleteActivation(cmd.Context(), args[0]); err != nil {
		return err
	}
	if cache := app.GetCacheService(); cache != nil {
		cache.InvalidateActivation(args[0])
	}
	fmt.Printf("Deleted %s\n", args[0])
	return nil
}

// assembleAndSubmit drives the pipeline for create and update alike: apply
// field flags, run the asset uploads, wait for them, then submit once.
func assembleAndSubmit(ctx context.Context, cmd *cobra.Command, state *pipeline.DraftState, activationID string) error {
	if cmd.Flags().Changed("name") {
		state.SetName(activationName)
	}
	if cmd.Flags().Changed("description") {
		state.SetDescription(activationDescription)
	}
	if cmd.Flags().Changed("collection") {
		if activationCollection == "" {
			state.SetCollection(nil)
		} else {
			state.SetCollection(&activationCollection)
		}
	}

	seq := pipeline.NewSequencer(ctx, state, app.GetAPIClient(), app.GetLogger())

	if activationImagePath != "" {
		src, err := os.ReadFile(activationImagePath)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", activationImagePath, err)
		}
		fmt.Println("Uploading trigger image and derivatives...")
		seq.StartImageChain(filepath.Base(activationImagePath), src)
	}

	if activationVideoPath != "" {
		info, err := os.Stat(activationVideoPath)
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", activationVideoPath, err)
		}
		fmt.Println("Uploading video...")
		seq.StartVideoUpload(filepath.Base(activationVideoPath), info.Size(), func() (io.ReadCloser, error) {
			return os.Open(activationVideoPath)
		})
	}

	for _, raw := range activationLinks {
		name, url, imagePath, err := parseLinkFlag(raw)
		if err != nil {
			return err
		}
		index := state.AddExternalLink()
		state.SetExternalLinkFields(index, name, url)
		if imagePath != "" {
			src, err := os.ReadFile(imagePath)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", imagePath, err)
			}
			seq.UploadExternalImage(index, filepath.Base(imagePath), src)
		}
	}

	seq.Wait()

	if code := state.ResourceError(); code != "" {
		return fmt.Errorf("asset upload failed: %s", code)
	}

	submitter := pipeline.NewSubmitter(app.GetAPIClient(), app.GetCacheService(), app.GetLogger())
	activation, err := submitter.Submit(ctx, state, activationID)
	if err != nil {
		if errors.CodeOf(err) == errors.CodeMissingImage {
			return fmt.Errorf("no trigger image, pass --image")
		}
		if errors.CodeOf(err) == errors.CodeMissingVideo {
			return fmt.Errorf("no video, pass --video")
		}
		return err
	}

	fmt.Printf("Activation %s submitted.\n", activation.ID)
	fmt.Printf("QR code: %s\n", activation.QRCodeURL)

	if activationPreview {
		addr := app.GetConfig().PreviewAddr
		fmt.Printf("Preview at http://%s (Ctrl-C to stop)\n", addr)
		server := preview.New(activation, state.PreviewImage(), app.GetLogger())
		return server.Serve(ctx, addr)
	}
	return nil
}

// parseLinkFlag splits "Name|URL" or "Name|URL|image-file".
func parseLinkFlag(raw string) (name, url, imagePath string, err error) {
	parts := strings.SplitN(raw, "|", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", "", fmt.Errorf(`invalid --link %q, want "Name|URL" or "Name|URL|image-file"`, raw)
	}
	name, url = parts[0], parts[1]
	if len(parts) == 3 {
		imagePath = parts[2]
	}
	return name, url, imagePath, nil
}

// fetchActivation reads one record, through the cache when available.
func fetchActivation(ctx context.Context, id string) (*domain.Activation, error) {
	if cache := app.GetCacheService(); cache != nil {
		return cache.GetActivationWithCache(ctx, id, app.GetAPIClient().GetActivation)
	}
	return app.GetAPIClient().GetActivation(ctx, id)
}

func printActivation(a *domain.Activation) {
	fmt.Printf("ID:          %s\n", a.ID)
	fmt.Printf("Name:        %s\n", a.Name)
	fmt.Printf("Description: %s\n", a.Description)
	if a.Collection != nil {
		fmt.Printf("Collection:  %s\n", *a.Collection)
	}
	fmt.Printf("Image:       %s\n", a.TriggeringImage)
	fmt.Printf("Video:       %s\n", domain.BuildVideoURL(a.VideoResource))
	fmt.Printf("QR code:     %s\n", a.QRCodeURL)
	fmt.Printf("Counters:    views=%d scans=%d likes=%d\n", a.TotalViews, a.TotalScans, a.TotalLikes)
	if !a.ImageSetComplete() {
		fmt.Println("Note: derivative set incomplete, re-upload the trigger image.")
	}
	for _, link := range a.ExternalLinks {
		fmt.Printf("Link:        %s -> %s\n", link.Name, link.Link)
	}
}
