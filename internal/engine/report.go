package engine

import (
	"fmt"
	"strings"
)

// Report renders the failures of a flow run for a human. It is empty when
// the run succeeded.
func (r FlowResult) Report() string {
	if r.Success {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Flow %q: %d of %d steps failed", r.Flow, len(r.Failed), r.Total)
	if r.Aborted {
		fmt.Fprintf(&b, " (aborted after %d)", r.Ran)
	}
	b.WriteString("\n")
	writeSteps(&b, r.Failed, "  ")
	return b.String()
}

// Report renders the failures of a workflow run for a human. It is empty
// when the run succeeded.
func (r WorkflowResult) Report() string {
	if r.Success {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Workflow %q: %d of %d flows failed", r.Workflow, len(r.FailedFlows), r.Total)
	if r.Aborted {
		fmt.Fprintf(&b, " (aborted after %d)", r.Ran)
	}
	b.WriteString("\n")
	for _, f := range r.FailedFlows {
		fmt.Fprintf(&b, "  %d. %s: %s\n", f.Index, f.Name, f.Reason)
		writeSteps(&b, f.FailedSteps, "      ")
	}
	return b.String()
}

func writeSteps(b *strings.Builder, steps []StepRef, indent string) {
	for _, s := range steps {
		reason := "failed"
		if s.Failure != nil {
			reason = shortReason(*s.Failure)
		}
		fmt.Fprintf(b, "%s%d. %s: %s\n", indent, s.Index, s.Name, reason)
	}
}

// shortReason is the failure kind plus the underlying error text.
func shortReason(f StepFailure) string {
	msg := f.Message
	if f.Err != nil {
		msg = f.Err.Error()
	}
	if f.Kind == "" {
		return msg
	}
	return f.Kind + ": " + msg
}
