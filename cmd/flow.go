package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/mj1618/desktop-flow/internal/model"
	"github.com/mj1618/desktop-flow/internal/output"
	"github.com/mj1618/desktop-flow/internal/store"
	"github.com/spf13/cobra"
)

// FlowListEntry is one line of `flow list`.
type FlowListEntry struct {
	Name  string `yaml:"name"  json:"name"`
	Steps int    `yaml:"steps" json:"steps"`
}

var flowCmd = &cobra.Command{
	Use:   "flow",
	Short: "Create, edit and inspect flows",
}

var flowListCmd = &cobra.Command{
	Use:   "list",
	Short: "List flows",
	Args:  cobra.NoArgs,
	RunE:  runFlowList,
}

var flowShowCmd = &cobra.Command{
	Use:   "show <flow>",
	Short: "Show a flow's steps in stored form",
	Args:  cobra.ExactArgs(1),
	RunE:  runFlowShow,
}

var flowCreateCmd = &cobra.Command{
	Use:   "create <flow>",
	Short: "Create an empty flow",
	Args:  cobra.ExactArgs(1),
	RunE:  runFlowCreate,
}

var flowAddStepCmd = &cobra.Command{
	Use:   "add-step <flow>",
	Short: "Append a step to a flow",
	Example: `  desktop-flow flow add-step login --name "Open form" --image buttons/login.png --anchor center
  desktop-flow flow add-step login --name "User" --x 640 --y 300 --sub text:alice --sub key:Tab`,
	Args: cobra.ExactArgs(1),
	RunE: runFlowAddStep,
}

var flowUpdateStepCmd = &cobra.Command{
	Use:   "update-step <flow> <index>",
	Short: "Replace the step at a 1-based index",
	Args:  cobra.ExactArgs(2),
	RunE:  runFlowUpdateStep,
}

var flowRemoveStepCmd = &cobra.Command{
	Use:   "remove-step <flow> <index>",
	Short: "Remove the step at a 1-based index",
	Args:  cobra.ExactArgs(2),
	RunE:  runFlowRemoveStep,
}

var flowMoveStepCmd = &cobra.Command{
	Use:   "move-step <flow> <from> <to>",
	Short: "Move a step to a new 1-based position",
	Args:  cobra.ExactArgs(3),
	RunE:  runFlowMoveStep,
}

var flowDeleteCmd = &cobra.Command{
	Use:   "delete <flow>",
	Short: "Delete a flow",
	Long:  "Delete a flow. Workflows that reference it keep the reference and report it as missing when run.",
	Args:  cobra.ExactArgs(1),
	RunE:  runFlowDelete,
}

func init() {
	rootCmd.AddCommand(flowCmd)
	flowCmd.AddCommand(flowListCmd, flowShowCmd, flowCreateCmd, flowAddStepCmd,
		flowUpdateStepCmd, flowRemoveStepCmd, flowMoveStepCmd, flowDeleteCmd)
	addStepFlags(flowAddStepCmd)
	addStepFlags(flowUpdateStepCmd)
	flowDeleteCmd.Flags().BoolP("yes", "y", false, "Delete without confirmation")
}

func runFlowList(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	flows, err := st.ListFlows(cmd.Context())
	if err != nil {
		return err
	}
	entries := make([]FlowListEntry, 0, len(flows))
	for _, f := range flows {
		entries = append(entries, FlowListEntry{Name: f.Name, Steps: len(f.Steps)})
	}
	return output.Print(entries)
}

func runFlowShow(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	f, err := st.GetFlow(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return output.Print(map[string]model.FlowRecord{f.Name: model.FlowToRecord(f)})
}

func runFlowCreate(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	name := args[0]
	if _, err := st.GetFlow(cmd.Context(), name); err == nil {
		return fmt.Errorf("flow %q already exists", name)
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if err := st.SaveFlow(cmd.Context(), model.Flow{Name: name}); err != nil {
		return err
	}
	printErr("Created flow %q\n", name)
	return nil
}

// editFlow loads a flow, applies edit and saves the result.
func editFlow(cmd *cobra.Command, name string, edit func(model.Flow) (model.Flow, error)) error {
	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	f, err := st.GetFlow(cmd.Context(), name)
	if err != nil {
		return err
	}
	f, err = edit(f)
	if err != nil {
		return err
	}
	if err := st.SaveFlow(cmd.Context(), f); err != nil {
		return err
	}
	return output.Print(map[string]model.FlowRecord{f.Name: model.FlowToRecord(f)})
}

func runFlowAddStep(cmd *cobra.Command, args []string) error {
	step, err := stepFromFlags(cmd)
	if err != nil {
		return err
	}
	return editFlow(cmd, args[0], func(f model.Flow) (model.Flow, error) {
		return f.AddStep(step), nil
	})
}

func runFlowUpdateStep(cmd *cobra.Command, args []string) error {
	step, err := stepFromFlags(cmd)
	if err != nil {
		return err
	}
	return editFlow(cmd, args[0], func(f model.Flow) (model.Flow, error) {
		i, err := parseIndex(args[1], len(f.Steps))
		if err != nil {
			return f, err
		}
		return f.UpdateStep(i, step)
	})
}

func runFlowRemoveStep(cmd *cobra.Command, args []string) error {
	return editFlow(cmd, args[0], func(f model.Flow) (model.Flow, error) {
		i, err := parseIndex(args[1], len(f.Steps))
		if err != nil {
			return f, err
		}
		return f.RemoveStep(i)
	})
}

func runFlowMoveStep(cmd *cobra.Command, args []string) error {
	return editFlow(cmd, args[0], func(f model.Flow) (model.Flow, error) {
		from, err := parseIndex(args[1], len(f.Steps))
		if err != nil {
			return f, err
		}
		to, err := parseIndex(args[2], len(f.Steps))
		if err != nil {
			return f, err
		}
		return f.MoveStep(from, to)
	})
}

func runFlowDelete(cmd *cobra.Command, args []string) error {
	name := args[0]
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes && isInteractive() {
		ok, err := confirmDelete("flow", name)
		if err != nil || !ok {
			return err
		}
	}

	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.DeleteFlow(cmd.Context(), name); err != nil {
		return err
	}
	printErr("Deleted flow %q\n", name)
	return nil
}

func confirmDelete(kind, name string) (bool, error) {
	var confirm bool
	err := huh.NewConfirm().
		Title(fmt.Sprintf("Delete %s %q?", kind, name)).
		Affirmative("Delete").
		Negative("Cancel").
		Value(&confirm).
		Run()
	if err != nil {
		return false, err
	}
	if !confirm {
		printErr("Cancelled\n")
	}
	return confirm, nil
}
