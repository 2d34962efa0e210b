package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mj1618/desktop-flow/internal/model"
	"github.com/mj1618/desktop-flow/internal/output"
	"github.com/mj1618/desktop-flow/internal/store"
	"github.com/spf13/cobra"
)

var workflowCmd = &cobra.Command{
	Use:     "workflow",
	Aliases: []string{"wf"},
	Short:   "Create, edit and inspect workflows",
}

var workflowListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workflows and the flows they run",
	Args:  cobra.NoArgs,
	RunE:  runWorkflowList,
}

var workflowShowCmd = &cobra.Command{
	Use:   "show <workflow>",
	Short: "Show a workflow's flow references",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkflowShow,
}

var workflowCreateCmd = &cobra.Command{
	Use:   "create <workflow> [flow...]",
	Short: "Create a workflow, optionally with initial flows",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runWorkflowCreate,
}

var workflowAddCmd = &cobra.Command{
	Use:   "add <workflow> <flow>",
	Short: "Append a flow reference",
	Args:  cobra.ExactArgs(2),
	RunE:  runWorkflowAdd,
}

var workflowRemoveCmd = &cobra.Command{
	Use:   "remove <workflow> <index>",
	Short: "Remove the flow reference at a 1-based index",
	Args:  cobra.ExactArgs(2),
	RunE:  runWorkflowRemove,
}

var workflowMoveCmd = &cobra.Command{
	Use:   "move <workflow> <from> <to>",
	Short: "Move a flow reference to a new 1-based position",
	Args:  cobra.ExactArgs(3),
	RunE:  runWorkflowMove,
}

var workflowDeleteCmd = &cobra.Command{
	Use:   "delete <workflow>",
	Short: "Delete a workflow",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkflowDelete,
}

func init() {
	rootCmd.AddCommand(workflowCmd)
	workflowCmd.AddCommand(workflowListCmd, workflowShowCmd, workflowCreateCmd, workflowAddCmd,
		workflowRemoveCmd, workflowMoveCmd, workflowDeleteCmd)
	workflowDeleteCmd.Flags().BoolP("yes", "y", false, "Delete without confirmation")
}

func printWorkflow(wf model.Workflow) error {
	return output.Print(map[string]model.WorkflowRecord{wf.Name: model.WorkflowRecord(wf.Flows)})
}

func runWorkflowList(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	wfs, err := st.ListWorkflows(cmd.Context())
	if err != nil {
		return err
	}
	out := make(map[string]model.WorkflowRecord, len(wfs))
	for _, wf := range wfs {
		out[wf.Name] = model.WorkflowRecord(wf.Flows)
	}
	return output.Print(out)
}

func runWorkflowShow(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	wf, err := st.GetWorkflow(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printWorkflow(wf)
}

func runWorkflowCreate(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	name := args[0]
	if _, err := st.GetWorkflow(cmd.Context(), name); err == nil {
		return fmt.Errorf("workflow %q already exists", name)
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	wf := model.Workflow{Name: name, Flows: append([]string{}, args[1:]...)}
	if missing := missingFlows(cmd, st, wf.Flows); len(missing) > 0 {
		printErr("Warning: flows not found (they will fail when run): %s\n", strings.Join(missing, ", "))
	}
	if err := st.SaveWorkflow(cmd.Context(), wf); err != nil {
		return err
	}
	return printWorkflow(wf)
}

// editWorkflow loads a workflow, applies edit and saves the result.
func editWorkflow(cmd *cobra.Command, name string, edit func(model.Workflow) (model.Workflow, error)) error {
	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	wf, err := st.GetWorkflow(cmd.Context(), name)
	if err != nil {
		return err
	}
	wf, err = edit(wf)
	if err != nil {
		return err
	}
	if err := st.SaveWorkflow(cmd.Context(), wf); err != nil {
		return err
	}
	return printWorkflow(wf)
}

func runWorkflowAdd(cmd *cobra.Command, args []string) error {
	return editWorkflow(cmd, args[0], func(wf model.Workflow) (model.Workflow, error) {
		return wf.Append(args[1]), nil
	})
}

func runWorkflowRemove(cmd *cobra.Command, args []string) error {
	return editWorkflow(cmd, args[0], func(wf model.Workflow) (model.Workflow, error) {
		i, err := parseIndex(args[1], len(wf.Flows))
		if err != nil {
			return wf, err
		}
		return wf.Remove(i)
	})
}

func runWorkflowMove(cmd *cobra.Command, args []string) error {
	return editWorkflow(cmd, args[0], func(wf model.Workflow) (model.Workflow, error) {
		from, err := parseIndex(args[1], len(wf.Flows))
		if err != nil {
			return wf, err
		}
		to, err := parseIndex(args[2], len(wf.Flows))
		if err != nil {
			return wf, err
		}
		return wf.Move(from, to)
	})
}

func runWorkflowDelete(cmd *cobra.Command, args []string) error {
	name := args[0]
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes && isInteractive() {
		ok, err := confirmDelete("workflow", name)
		if err != nil || !ok {
			return err
		}
	}

	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.DeleteWorkflow(cmd.Context(), name); err != nil {
		return err
	}
	printErr("Deleted workflow %q\n", name)
	return nil
}

func missingFlows(cmd *cobra.Command, st store.FlowStore, names []string) []string {
	var missing []string
	for _, n := range names {
		if _, err := st.GetFlow(cmd.Context(), n); errors.Is(err, store.ErrNotFound) {
			missing = append(missing, n)
		}
	}
	return missing
}
