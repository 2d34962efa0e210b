package cmd

import (
	"fmt"
	"time"

	"github.com/mj1618/desktop-flow/internal/engine"
	"github.com/mj1618/desktop-flow/internal/imagesearch"
	"github.com/mj1618/desktop-flow/internal/model"
	"github.com/mj1618/desktop-flow/internal/output"
	"github.com/mj1618/desktop-flow/internal/platform"
	"github.com/spf13/cobra"
)

// LocateResult is the output of `locate`.
type LocateResult struct {
	engine.Resolution `yaml:",inline"`
	Annotated         string `yaml:"annotated,omitempty" json:"annotated,omitempty"`
}

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Find an image on screen without acting on it",
	Long: `Search the screen for an image with the same tolerance ladder a step uses
and print the point a step would act on. With --annotate, also save a
screenshot with the match outlined and the anchor point marked.`,
	Example: `  desktop-flow locate --image buttons/ok.png
  desktop-flow locate --image ok.png --anchor lower-right --annotate /tmp/ok.png`,
	Args: cobra.NoArgs,
	RunE: runLocate,
}

func init() {
	rootCmd.AddCommand(locateCmd)
	locateCmd.Flags().String("image", "", "Image to find (absolute or relative to the image directory)")
	locateCmd.Flags().String("anchor", "center", "Point to report: center, upper-left, upper-right, lower-left, lower-right")
	locateCmd.Flags().Int("timeout", 0, "Search timeout in milliseconds (default: resolve_timeout from config)")
	locateCmd.Flags().String("region", "", "Only search this screen region: x,y,w,h")
	locateCmd.Flags().String("annotate", "", "Save an annotated PNG of the searched screen to this path")
	locateCmd.MarkFlagRequired("image")
}

func runLocate(cmd *cobra.Command, args []string) error {
	ref, _ := cmd.Flags().GetString("image")
	anchorStr, _ := cmd.Flags().GetString("anchor")
	timeoutMs, _ := cmd.Flags().GetInt("timeout")
	annotate, _ := cmd.Flags().GetString("annotate")
	regionStr, _ := cmd.Flags().GetString("region")

	anchor, err := model.ParseAnchor(anchorStr)
	if err != nil {
		return err
	}
	timeout := time.Duration(timeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = appConfig.ResolveTimeout
	}

	ctx, cancel := runContext(cmd)
	defer cancel()

	sess, err := newSession(cmd, nil, false)
	if err != nil {
		return err
	}
	defer sess.close()

	if regionStr != "" {
		region, err := platform.ParseBBox(regionStr)
		if err != nil {
			return err
		}
		sess.engine.Resolver.Screen = fixedScreen(*region)
	}

	res, err := sess.engine.Resolver.Resolve(ctx, model.ImageTarget{Path: ref}, anchor, timeout)
	if err != nil {
		return fmt.Errorf("%w (attempts: %d, last tolerance: %d)", err, res.Attempts, res.Tolerance)
	}

	result := LocateResult{Resolution: res}
	if annotate != "" {
		capture, err := sess.provider.ScreenCapturer.Capture(res.Region)
		if err != nil {
			return err
		}
		label := fmt.Sprintf("%s (%d,%d) tol %d", anchor, res.Point.X, res.Point.Y, res.Tolerance)
		if err := imagesearch.SavePNG(annotate, imagesearch.Annotate(capture, res.Match, res.Point, label)); err != nil {
			return err
		}
		result.Annotated = annotate
	}
	return output.Print(result)
}

// fixedScreen narrows image searches to one region of the desktop.
type fixedScreen platform.Bounds

func (s fixedScreen) VirtualScreen() (platform.Bounds, error) {
	return platform.Bounds(s), nil
}
