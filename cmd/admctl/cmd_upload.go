package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// uploadCmd pushes one raw file to the asset store
var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a single file to the asset store",
	Long: `Upload one file to the asset store and print the public URL of the
stored copy. No derivatives are generated; use 'activation create' for the
full trigger-image pipeline.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func runUpload(cmd *cobra.Command, args []string) error {
	if err := requireAuth(); err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer f.Close()

	result, err := app.GetAPIClient().UploadAsset(cmd.Context(), filepath.Base(args[0]), f)
	if err != nil {
		return err
	}

	fmt.Println(result.URL)
	return nil
}
