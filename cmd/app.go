package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mj1618/desktop-flow/internal/engine"
	"github.com/mj1618/desktop-flow/internal/images"
	"github.com/mj1618/desktop-flow/internal/imagesearch"
	"github.com/mj1618/desktop-flow/internal/logging"
	"github.com/mj1618/desktop-flow/internal/platform"
	"github.com/mj1618/desktop-flow/internal/store"
	"github.com/spf13/cobra"

	// Store backends and the input backend register themselves.
	_ "github.com/mj1618/desktop-flow/internal/platform/robot"
	_ "github.com/mj1618/desktop-flow/internal/store/filestore"
	_ "github.com/mj1618/desktop-flow/internal/store/sqlitestore"
)

// openStore opens the configured flow store.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, appConfig.Store, appConfig.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", appConfig.Store, err)
	}
	return st, nil
}

func pathResolver() images.PathResolver {
	return images.PathResolver{ImageDir: appConfig.ImageDir}
}

// session bundles what a run needs; close persists newly measured image
// dimensions.
type session struct {
	engine   *engine.Engine
	provider *platform.Provider
	dims     *images.DimensionCache
}

func (r *session) close() {
	if err := r.dims.Save(); err != nil {
		logging.WithModule("cmd").Warnf("Failed to save dimension cache: %v", err)
	}
}

// newSession connects to the desktop and builds an engine. The failure
// policy comes from --on-failure when the command has it, else from config.
// Only an interactive session prompts; "ask" is continue otherwise.
func newSession(cmd *cobra.Command, flows engine.FlowLookup, interactive bool) (*session, error) {
	provider, err := platform.NewProvider()
	if err != nil {
		return nil, err
	}
	dims, err := images.LoadDimensionCache(appConfig.DimensionCachePath())
	if err != nil {
		return nil, err
	}

	mode := appConfig.OnFailure
	if f := cmd.Flags().Lookup("on-failure"); f != nil && f.Changed {
		mode = f.Value.String()
	}
	policy, err := policyFor(mode, interactive)
	if err != nil {
		return nil, err
	}
	var notifier engine.Notifier
	if interactive {
		notifier = huhNotifier{}
	}

	eng := engine.New(engine.Deps{
		Input:      provider.Inputter,
		Screen:     provider.ScreenCapturer,
		Searcher:   imagesearch.NewScreenSearcher(provider.ScreenCapturer),
		Paths:      pathResolver(),
		Dimensions: dims,
		Flows:      flows,
		Policy:     policy,
		Notifier:   notifier,
		Log:        logging.WithModule("engine"),
	}, appConfig.Settings())
	return &session{engine: eng, provider: provider, dims: dims}, nil
}

func addFailureFlag(cmd *cobra.Command) {
	cmd.Flags().String("on-failure", "", "On step failure: ask, continue, abort (default: from config)")
}

func printErr(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
}
