package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/mj1618/desktop-flow/internal/model"
	log "github.com/sirupsen/logrus"
)

// DefaultInterStepDelay follows every step of a flow.
const DefaultInterStepDelay = 500 * time.Millisecond

// Decision is the answer to a failure: keep going or stop.
type Decision int

const (
	Continue Decision = iota
	Abort
)

func (d Decision) String() string {
	if d == Abort {
		return "abort"
	}
	return "continue"
}

// Scope says whether a FailureContext describes a step or a workflow entry.
type Scope int

const (
	ScopeStep Scope = iota
	ScopeFlow
)

// FailureContext describes the failure a Policy is asked about.
type FailureContext struct {
	Scope    Scope
	Workflow string // empty outside workflow runs
	Flow     string
	Index    int    // 1-based position of the failed step or flow entry
	Name     string // step label or flow name
	Reason   string
	Step     *StepFailure // set for ScopeStep
}

// Policy decides whether a run continues after a failure.
type Policy func(FailureContext) Decision

// ContinuePolicy always continues.
func ContinuePolicy(FailureContext) Decision { return Continue }

// AbortPolicy stops at the first failure.
func AbortPolicy(FailureContext) Decision { return Abort }

// ParsePolicy returns the fixed policy named "continue" or "abort".
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "continue", "":
		return ContinuePolicy, nil
	case "abort":
		return AbortPolicy, nil
	default:
		return nil, fmt.Errorf("unknown failure policy %q (expected continue or abort)", name)
	}
}

// StepRef identifies a failed step within a flow.
type StepRef struct {
	Index   int          `yaml:"index"             json:"index"`
	Name    string       `yaml:"name"              json:"name"`
	Failure *StepFailure `yaml:"failure,omitempty" json:"failure,omitempty"`
}

// FlowResult aggregates a flow run. Success is true iff every attempted step
// succeeded and the run was not aborted.
type FlowResult struct {
	RunID   string    `yaml:"run_id,omitempty" json:"run_id,omitempty"`
	Flow    string    `yaml:"flow"             json:"flow"`
	Success bool      `yaml:"success"          json:"success"`
	Aborted bool      `yaml:"aborted"          json:"aborted"`
	Total   int       `yaml:"total"            json:"total"`
	Ran     int       `yaml:"ran"              json:"ran"`
	Failed  []StepRef `yaml:"failed"           json:"failed"`
}

// FlowRunner runs the steps of a flow in order.
type FlowRunner struct {
	Steps          *StepRunner
	Policy         Policy
	Clock          Clock
	InterStepDelay time.Duration
	// Timeout is the per-step search budget; zero uses DefaultResolveTimeout.
	Timeout time.Duration
	Log     *log.Entry
}

// Run executes flow. Step failures are recorded and the Policy decides
// whether the remaining steps run.
func (r *FlowRunner) Run(ctx context.Context, flow model.Flow) FlowResult {
	return r.run(ctx, flow, "")
}

func (r *FlowRunner) run(ctx context.Context, flow model.Flow, workflow string) FlowResult {
	result := FlowResult{Flow: flow.Name, Total: len(flow.Steps), Failed: []StepRef{}}
	logger := r.logger().WithFields(log.Fields{"flow": flow.Name, "steps": len(flow.Steps)})
	logger.Debug("Starting flow")

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultResolveTimeout
	}

	for i, step := range flow.Steps {
		if err := ctx.Err(); err != nil {
			logger.Warnf("Flow cancelled: %v", err)
			result.Aborted = true
			break
		}

		index := i + 1
		stepLog := logger.WithFields(log.Fields{"index": index, "step": step.Label()})
		stepLog.Debug("Running step")

		var failure *StepFailure
		ok := r.Steps.Run(ctx, step, StepOptions{
			Timeout:   timeout,
			OnFailure: func(f StepFailure) { failure = &f },
		})
		result.Ran++

		if !ok {
			ref := StepRef{Index: index, Name: step.Label(), Failure: failure}
			result.Failed = append(result.Failed, ref)
			stepLog.Warn("Step failed")

			// An interrupted run stops without asking the policy.
			if err := ctx.Err(); err != nil {
				stepLog.Warnf("Flow cancelled: %v", err)
				result.Aborted = true
				break
			}
			decision := r.decide(FailureContext{
				Scope:    ScopeStep,
				Workflow: workflow,
				Flow:     flow.Name,
				Index:    index,
				Name:     step.Label(),
				Reason:   reasonOf(failure),
				Step:     failure,
			})
			if decision == Abort {
				stepLog.Warn("Flow aborted")
				result.Aborted = true
				break
			}
		}

		_ = r.Clock.Sleep(ctx, r.InterStepDelay)
	}

	result.Success = len(result.Failed) == 0 && !result.Aborted
	logger.WithFields(log.Fields{
		"success": result.Success,
		"failed":  len(result.Failed),
		"aborted": result.Aborted,
	}).Debug("Flow finished")
	return result
}

func (r *FlowRunner) decide(fc FailureContext) Decision {
	if r.Policy == nil {
		return Continue
	}
	return r.Policy(fc)
}

func reasonOf(f *StepFailure) string {
	if f == nil {
		return ""
	}
	return f.Message
}

func (r *FlowRunner) logger() *log.Entry {
	if r.Log == nil {
		return log.NewEntry(log.StandardLogger())
	}
	return r.Log
}
