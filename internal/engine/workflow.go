package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/mj1618/desktop-flow/internal/model"
	log "github.com/sirupsen/logrus"
)

// DefaultInterFlowDelay separates the flows of a workflow.
const DefaultInterFlowDelay = 1500 * time.Millisecond

// Workflow entry failure reasons.
const (
	ReasonFlowNotFound = "Flow not found"
)

// FlowLookup finds flows by name. A missing flow is (zero, false, nil).
type FlowLookup interface {
	LookupFlow(ctx context.Context, name string) (model.Flow, bool, error)
}

// FlowFailure describes one failed workflow entry.
type FlowFailure struct {
	Index       int       `yaml:"index"                  json:"index"`
	Name        string    `yaml:"name"                   json:"name"`
	Reason      string    `yaml:"reason"                 json:"reason"`
	FailedSteps []StepRef `yaml:"failed_steps,omitempty" json:"failed_steps,omitempty"`
}

// WorkflowResult aggregates a workflow run. Success is true iff no entry
// failed and the run was not aborted.
type WorkflowResult struct {
	RunID       string        `yaml:"run_id,omitempty" json:"run_id,omitempty"`
	Workflow    string        `yaml:"workflow"         json:"workflow"`
	Success     bool          `yaml:"success"          json:"success"`
	Aborted     bool          `yaml:"aborted"          json:"aborted"`
	Total       int           `yaml:"total"            json:"total"`
	Ran         int           `yaml:"ran"              json:"ran"`
	FailedFlows []FlowFailure `yaml:"failed_flows"     json:"failed_flows"`
}

// WorkflowRunner runs the flows named by a workflow in order.
type WorkflowRunner struct {
	Flows          *FlowRunner
	Lookup         FlowLookup
	Policy         Policy
	Clock          Clock
	InterFlowDelay time.Duration
	Log            *log.Entry
}

// Run executes wf. Unknown flow names are recorded as failures without
// running anything; a flow aborted by the step-level Policy stops the
// workflow.
func (r *WorkflowRunner) Run(ctx context.Context, wf model.Workflow) WorkflowResult {
	result := WorkflowResult{Workflow: wf.Name, Total: len(wf.Flows), FailedFlows: []FlowFailure{}}
	logger := r.logger().WithFields(log.Fields{"workflow": wf.Name, "flows": len(wf.Flows)})
	logger.Debug("Starting workflow")

	for i, name := range wf.Flows {
		if err := ctx.Err(); err != nil {
			logger.Warnf("Workflow cancelled: %v", err)
			result.Aborted = true
			break
		}
		if i > 0 {
			if err := r.Clock.Sleep(ctx, r.InterFlowDelay); err != nil {
				result.Aborted = true
				break
			}
		}

		index := i + 1
		flowLog := logger.WithFields(log.Fields{"index": index, "flow": name})
		result.Ran++

		failure, stop := r.runEntry(ctx, wf.Name, index, name, flowLog)
		if failure == nil {
			continue
		}
		result.FailedFlows = append(result.FailedFlows, *failure)
		if stop || ctx.Err() != nil {
			result.Aborted = true
			break
		}

		decision := r.decide(FailureContext{
			Scope:    ScopeFlow,
			Workflow: wf.Name,
			Flow:     name,
			Index:    index,
			Name:     name,
			Reason:   failure.Reason,
		})
		if decision == Abort {
			flowLog.Warn("Workflow aborted")
			result.Aborted = true
			break
		}
	}

	result.Success = len(result.FailedFlows) == 0 && !result.Aborted
	logger.WithFields(log.Fields{
		"success": result.Success,
		"failed":  len(result.FailedFlows),
		"aborted": result.Aborted,
	}).Debug("Workflow finished")
	return result
}

// runEntry runs one workflow entry. stop is true when the flow itself was
// aborted and the workflow must not continue.
func (r *WorkflowRunner) runEntry(ctx context.Context, workflow string, index int, name string, logger *log.Entry) (failure *FlowFailure, stop bool) {
	flow, ok, err := r.Lookup.LookupFlow(ctx, name)
	if err != nil {
		logger.Errorf("Flow lookup failed: %v", err)
		return &FlowFailure{Index: index, Name: name, Reason: fmt.Sprintf("Flow lookup failed: %v", err)}, false
	}
	if !ok {
		logger.WithError(fmt.Errorf("%w: %q", ErrMissingReference, name)).Warn(ReasonFlowNotFound)
		return &FlowFailure{Index: index, Name: name, Reason: ReasonFlowNotFound}, false
	}

	fr := r.Flows.run(ctx, flow, workflow)
	switch {
	case fr.Aborted:
		return &FlowFailure{
			Index:       index,
			Name:        name,
			Reason:      fmt.Sprintf("Aborted after steps failed: %d/%d", len(fr.Failed), fr.Total),
			FailedSteps: fr.Failed,
		}, true
	case !fr.Success:
		return &FlowFailure{
			Index:       index,
			Name:        name,
			Reason:      fmt.Sprintf("Steps failed: %d/%d", len(fr.Failed), fr.Total),
			FailedSteps: fr.Failed,
		}, false
	}
	return nil, false
}

func (r *WorkflowRunner) decide(fc FailureContext) Decision {
	if r.Policy == nil {
		return Continue
	}
	return r.Policy(fc)
}

func (r *WorkflowRunner) logger() *log.Entry {
	if r.Log == nil {
		return log.NewEntry(log.StandardLogger())
	}
	return r.Log
}
