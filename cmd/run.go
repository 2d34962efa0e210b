package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/mj1618/desktop-flow/internal/engine"
	"github.com/mj1618/desktop-flow/internal/model"
	"github.com/mj1618/desktop-flow/internal/output"
	"github.com/mj1618/desktop-flow/internal/store"
	"github.com/spf13/cobra"
)

// ErrRunFailed is returned after a failed run's report has been printed.
var ErrRunFailed = errors.New("run failed")

// StepRunResult is the output of `run step`.
type StepRunResult struct {
	Step    string              `yaml:"step"              json:"step"`
	Success bool                `yaml:"success"           json:"success"`
	Failure *engine.StepFailure `yaml:"failure,omitempty" json:"failure,omitempty"`
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a step, flow or workflow against the desktop",
}

var runStepCmd = &cobra.Command{
	Use:   "step [<flow> <index>]",
	Short: "Run one step: a stored one, or one described by flags",
	Example: `  desktop-flow run step login 2
  desktop-flow run step --image buttons/ok.png --anchor upper-left
  desktop-flow run step --x 100 --y 200 --action hover --sub scroll:down`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return fmt.Errorf("expected no arguments or <flow> <index>, got %d", len(args))
		}
		return nil
	},
	RunE: runStep,
}

var runFlowCmd = &cobra.Command{
	Use:   "flow <flow>",
	Short: "Run a flow's steps in order",
	Args:  cobra.ExactArgs(1),
	RunE:  runFlow,
}

var runWorkflowCmd = &cobra.Command{
	Use:   "workflow <workflow>",
	Short: "Run a workflow's flows in order",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkflow,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.AddCommand(runStepCmd, runFlowCmd, runWorkflowCmd)
	addStepFlags(runStepCmd)
	runStepCmd.Flags().Int("timeout", 0, "Image search timeout in milliseconds (default: resolve_timeout from config)")
	addFailureFlag(runFlowCmd)
	addFailureFlag(runWorkflowCmd)
}

// runContext is cancelled on interrupt; the runners stop between steps.
func runContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt)
}

func runStep(cmd *cobra.Command, args []string) error {
	ctx, cancel := runContext(cmd)
	defer cancel()

	var step model.Step
	if len(args) == 2 {
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		f, err := st.GetFlow(ctx, args[0])
		st.Close()
		if err != nil {
			return err
		}
		i, err := parseIndex(args[1], len(f.Steps))
		if err != nil {
			return err
		}
		step = f.Steps[i]
	} else {
		var err error
		if step, err = stepFromFlags(cmd); err != nil {
			return err
		}
	}

	sess, err := newSession(cmd, nil, isInteractive())
	if err != nil {
		return err
	}
	defer sess.close()

	timeoutMs, _ := cmd.Flags().GetInt("timeout")
	result := StepRunResult{Step: step.Label()}
	// No failure callback: the session notifier reports the failure, a
	// blocking note on a terminal and the log otherwise.
	result.Success = sess.engine.RunStepWith(ctx, step, engine.StepOptions{
		Timeout: time.Duration(timeoutMs) * time.Millisecond,
		Observe: func(f engine.StepFailure) { result.Failure = &f },
	})
	if err := output.Print(result); err != nil {
		return err
	}
	if !result.Success {
		printErr("%s", styleReport(result.Failure.Message))
		return ErrRunFailed
	}
	return nil
}

func runFlow(cmd *cobra.Command, args []string) error {
	ctx, cancel := runContext(cmd)
	defer cancel()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	f, err := st.GetFlow(ctx, args[0])
	if err != nil {
		return err
	}

	sess, err := newSession(cmd, store.Lookup{Flows: st}, isInteractive())
	if err != nil {
		return err
	}
	defer sess.close()

	result := sess.engine.RunFlow(ctx, f)
	if err := output.Print(result); err != nil {
		return err
	}
	printErr("%s", flowSummary(result))
	if !result.Success {
		return ErrRunFailed
	}
	return nil
}

func runWorkflow(cmd *cobra.Command, args []string) error {
	ctx, cancel := runContext(cmd)
	defer cancel()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	wf, err := st.GetWorkflow(ctx, args[0])
	if err != nil {
		return err
	}

	sess, err := newSession(cmd, store.Lookup{Flows: st}, isInteractive())
	if err != nil {
		return err
	}
	defer sess.close()

	result := sess.engine.RunWorkflow(ctx, wf)
	if err := output.Print(result); err != nil {
		return err
	}
	printErr("%s", workflowSummary(result))
	if !result.Success {
		return ErrRunFailed
	}
	return nil
}
