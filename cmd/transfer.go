package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/mj1618/desktop-flow/internal/model"
	"github.com/mj1618/desktop-flow/internal/output"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// ImportResult is the output of `flow import` and `workflow import`.
type ImportResult struct {
	Imported []string `yaml:"imported" json:"imported"`
	Replaced bool     `yaml:"replaced" json:"replaced"`
}

var flowImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import flows from a YAML or JSON document",
	Long: `Import flows from a document mapping flow names to step lists, in the same
schema flows.yaml uses. JSON documents are accepted too. Reads stdin when no
file is given or the file is "-". Existing flows with the same name are
replaced; with --replace every other flow is removed.`,
	Example: `  desktop-flow flow import flows.json
  desktop-flow flow export | ssh other-host desktop-flow flow import`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFlowImport,
}

var flowExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print every flow as one importable document",
	Args:  cobra.NoArgs,
	RunE:  runFlowExport,
}

var workflowImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import workflows from a YAML or JSON document",
	Long: `Import workflows from a document mapping workflow names to lists of flow
names. Reads stdin when no file is given or the file is "-".`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWorkflowImport,
}

var workflowExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print every workflow as one importable document",
	Args:  cobra.NoArgs,
	RunE:  runWorkflowExport,
}

func init() {
	flowCmd.AddCommand(flowImportCmd, flowExportCmd)
	workflowCmd.AddCommand(workflowImportCmd, workflowExportCmd)
	flowImportCmd.Flags().Bool("replace", false, "Remove flows not present in the document")
	workflowImportCmd.Flags().Bool("replace", false, "Remove workflows not present in the document")
}

// readDocument decodes the named file, or stdin, into v.
func readDocument(args []string, v any) error {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(args[0])
		if err != nil {
			return err
		}
	}
	if len(data) == 0 {
		return fmt.Errorf("empty document")
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse document: %w", err)
	}
	return nil
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func runFlowImport(cmd *cobra.Command, args []string) error {
	replace, _ := cmd.Flags().GetBool("replace")

	var doc map[string]model.FlowRecord
	if err := readDocument(args, &doc); err != nil {
		return err
	}
	names := sortedNames(doc)
	flows := make([]model.Flow, 0, len(doc))
	for _, name := range names {
		f, err := model.FlowFromRecord(name, doc[name])
		if err != nil {
			return err
		}
		flows = append(flows, f)
	}

	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	if replace {
		err = st.SaveFlows(cmd.Context(), flows)
	} else {
		for _, f := range flows {
			if err = st.SaveFlow(cmd.Context(), f); err != nil {
				break
			}
		}
	}
	if err != nil {
		return err
	}
	return output.Print(ImportResult{Imported: names, Replaced: replace})
}

func runFlowExport(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	flows, err := st.ListFlows(cmd.Context())
	if err != nil {
		return err
	}
	doc := make(map[string]model.FlowRecord, len(flows))
	for _, f := range flows {
		doc[f.Name] = model.FlowToRecord(f)
	}
	return output.Print(doc)
}

func runWorkflowImport(cmd *cobra.Command, args []string) error {
	replace, _ := cmd.Flags().GetBool("replace")

	var doc map[string]model.WorkflowRecord
	if err := readDocument(args, &doc); err != nil {
		return err
	}
	names := sortedNames(doc)
	wfs := make([]model.Workflow, 0, len(doc))
	for _, name := range names {
		wfs = append(wfs, model.Workflow{Name: name, Flows: append([]string{}, doc[name]...)})
	}

	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	if replace {
		err = st.SaveWorkflows(cmd.Context(), wfs)
	} else {
		for _, wf := range wfs {
			if err = st.SaveWorkflow(cmd.Context(), wf); err != nil {
				break
			}
		}
	}
	if err != nil {
		return err
	}
	return output.Print(ImportResult{Imported: names, Replaced: replace})
}

func runWorkflowExport(cmd *cobra.Command, args []string) error {
	return runWorkflowList(cmd, args)
}
