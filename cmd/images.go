package cmd

import (
	"github.com/mj1618/desktop-flow/internal/images"
	"github.com/mj1618/desktop-flow/internal/output"
	"github.com/spf13/cobra"
)

var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "Manage the image directory and its dimension cache",
}

var imagesSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Measure every image and drop cache entries for deleted ones",
	Args:  cobra.NoArgs,
	RunE:  runImagesSync,
}

func init() {
	rootCmd.AddCommand(imagesCmd)
	imagesCmd.AddCommand(imagesSyncCmd)
}

func runImagesSync(cmd *cobra.Command, args []string) error {
	cache, err := images.LoadDimensionCache(appConfig.DimensionCachePath())
	if err != nil {
		return err
	}
	report, err := cache.Sync(pathResolver())
	if err != nil {
		return err
	}
	if err := cache.Save(); err != nil {
		return err
	}
	return output.Print(report)
}
