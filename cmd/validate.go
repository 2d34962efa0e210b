package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/mj1618/desktop-flow/internal/engine"
	"github.com/mj1618/desktop-flow/internal/images"
	"github.com/mj1618/desktop-flow/internal/model"
	"github.com/mj1618/desktop-flow/internal/output"
	"github.com/mj1618/desktop-flow/internal/store"
	"github.com/spf13/cobra"
)

// Problem is one issue found by `validate`.
type Problem struct {
	Kind     string `yaml:"kind"               json:"kind"`
	Workflow string `yaml:"workflow,omitempty" json:"workflow,omitempty"`
	Flow     string `yaml:"flow,omitempty"     json:"flow,omitempty"`
	Index    int    `yaml:"index,omitempty"    json:"index,omitempty"` // 1-based step or entry
	Message  string `yaml:"message"            json:"message"`
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check stored flows and workflows for problems",
	Long: `Load every flow and workflow and report steps whose images cannot be found
and workflow entries that name a missing flow. Exits non-zero when any
problem is found.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	problems, err := findProblems(cmd.Context(), st, pathResolver())
	if err != nil {
		return err
	}
	if err := output.Print(problems); err != nil {
		return err
	}
	if len(problems) > 0 {
		return fmt.Errorf("%d problems found", len(problems))
	}
	return nil
}

// findProblems returns missing images and dangling workflow references.
// A flow that fails to load is itself an error.
func findProblems(ctx context.Context, st store.Store, paths images.PathResolver) ([]Problem, error) {
	problems := []Problem{}

	flows, err := st.ListFlows(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(flows))
	for _, f := range flows {
		known[f.Name] = true
		for i, s := range f.Steps {
			t, ok := s.Target.(model.ImageTarget)
			if !ok {
				continue
			}
			if _, err := paths.Resolve(t.Path); err != nil {
				problems = append(problems, Problem{
					Kind:    engine.Kind(fmt.Errorf("%w: %v", engine.ErrPathNotFound, err)),
					Flow:    f.Name,
					Index:   i + 1,
					Message: err.Error(),
				})
			}
		}
	}

	wfs, err := st.ListWorkflows(ctx)
	if err != nil {
		return nil, err
	}
	for _, wf := range wfs {
		for i, name := range wf.Flows {
			if known[name] {
				continue
			}
			problems = append(problems, Problem{
				Kind:     engine.Kind(engine.ErrMissingReference),
				Workflow: wf.Name,
				Flow:     name,
				Index:    i + 1,
				Message:  engine.ReasonFlowNotFound,
			})
		}
	}

	sort.SliceStable(problems, func(i, j int) bool { return problems[i].Kind < problems[j].Kind })
	return problems, nil
}
