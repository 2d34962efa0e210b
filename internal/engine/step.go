package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mj1618/desktop-flow/internal/model"
	log "github.com/sirupsen/logrus"
)

// StepState is a position in a step run. A run moves forward through
// Pending, Waiting, Resolving, Acting and SubActing, ending in Succeeded or
// Failed.
type StepState int

const (
	StatePending StepState = iota
	StateWaiting
	StateResolving
	StateActing
	StateSubActing
	StateSucceeded
	StateFailed
)

var stepStateNames = [...]string{"pending", "waiting", "resolving", "acting", "sub-acting", "succeeded", "failed"}

func (s StepState) String() string {
	if int(s) < len(stepStateNames) {
		return stepStateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether s ends a run.
func (s StepState) Terminal() bool { return s == StateSucceeded || s == StateFailed }

// StepFailure is the structured result handed to a failure callback.
type StepFailure struct {
	Message         string           `yaml:"message"                     json:"message"`
	Kind            string           `yaml:"kind"                        json:"kind"`
	State           string           `yaml:"state"                       json:"state"`
	Attempts        int              `yaml:"attempts,omitempty"          json:"attempts,omitempty"`
	SearchTime      time.Duration    `yaml:"search_time,omitempty"       json:"search_time,omitempty"`
	Tolerance       int              `yaml:"tolerance,omitempty"         json:"tolerance,omitempty"`
	Strategy        string           `yaml:"strategy,omitempty"          json:"strategy,omitempty"`
	ImagePath       string           `yaml:"image_path,omitempty"        json:"image_path,omitempty"`
	ResolvedPath    string           `yaml:"resolved_path,omitempty"     json:"resolved_path,omitempty"`
	Diagnostics     []string         `yaml:"diagnostics,omitempty"       json:"diagnostics,omitempty"`
	SubActionErrors []SubActionError `yaml:"sub_action_errors,omitempty" json:"sub_action_errors,omitempty"`
	Err             error            `yaml:"-"                           json:"-"`
}

// Notifier shows a failure message to the operator and blocks until it is
// acknowledged.
type Notifier interface {
	Notify(ctx context.Context, title, message string)
}

// LogNotifier writes failures to the log without blocking.
type LogNotifier struct {
	Log *log.Entry
}

func (n LogNotifier) Notify(_ context.Context, title, message string) {
	entry := n.Log
	if entry == nil {
		entry = log.NewEntry(log.StandardLogger())
	}
	entry.WithField("title", title).Error(message)
}

// StepOptions controls a single step run.
type StepOptions struct {
	// Timeout is the image search budget; zero uses the runner default.
	Timeout time.Duration
	// OnFailure receives the failure. When nil the runner's Notifier is used.
	OnFailure func(StepFailure)
	// Observe, when set, sees the failure before it is delivered. It does
	// not replace OnFailure or the Notifier.
	Observe func(StepFailure)
}

// StepRunner runs one step through its states.
type StepRunner struct {
	Resolver *Resolver
	Executor *Executor
	Clock    Clock
	Notifier Notifier
	Log      *log.Entry

	// DefaultTimeout applies when StepOptions.Timeout is zero.
	DefaultTimeout time.Duration
	// StrictSubActions fails the step when any sub-action fails.
	StrictSubActions bool
	// OnState, when set, observes every state transition.
	OnState func(step model.Step, state StepState)
}

// Run executes step and reports whether it succeeded. Failures are
// delivered to opts.OnFailure or the Notifier; Run never panics.
func (r *StepRunner) Run(ctx context.Context, step model.Step, opts StepOptions) bool {
	failure := r.run(ctx, step, opts)
	if failure == nil {
		return true
	}

	r.logger().WithFields(log.Fields{
		"step":     step.Label(),
		"kind":     failure.Kind,
		"state":    failure.State,
		"attempts": failure.Attempts,
	}).Warn(failure.Message)

	if opts.Observe != nil {
		opts.Observe(*failure)
	}
	if opts.OnFailure != nil {
		opts.OnFailure(*failure)
		return false
	}
	if r.Notifier != nil {
		r.Notifier.Notify(ctx, "Step failed", failure.Message)
	}
	return false
}

func (r *StepRunner) run(ctx context.Context, step model.Step, opts StepOptions) (failure *StepFailure) {
	state := StatePending
	var res Resolution
	var subErrs []SubActionError

	defer func() {
		if v := recover(); v != nil {
			err := fmt.Errorf("%w: panic in %s: %v", ErrActionExecution, state, v)
			failure = r.fail(step, state, err, res, subErrs)
		}
		if failure != nil {
			r.transition(step, StateFailed)
		}
	}()

	r.transition(step, state)

	if step.PreWait > 0 {
		state = StateWaiting
		r.transition(step, state)
		if err := r.Clock.Sleep(ctx, step.PreWait); err != nil {
			return r.fail(step, state, err, res, nil)
		}
	}

	state = StateResolving
	r.transition(step, state)
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = r.defaultTimeout()
	}
	res, err := r.Resolver.Resolve(ctx, step.Target, step.Anchor, timeout)
	if err != nil {
		return r.fail(step, state, err, res, nil)
	}

	state = StateActing
	r.transition(step, state)
	if err := r.Executor.Act(ctx, res.Point, step.Action); err != nil {
		return r.fail(step, state, err, res, nil)
	}

	if len(step.SubActions) > 0 {
		state = StateSubActing
		r.transition(step, state)
		subErrs = r.Executor.RunSubActions(ctx, step.SubActions)
		if len(subErrs) > 0 && r.StrictSubActions {
			return r.fail(step, state, subErrs[0], res, subErrs)
		}
	}

	state = StateSucceeded
	r.transition(step, state)
	if len(subErrs) > 0 {
		r.logger().WithFields(log.Fields{
			"step":   step.Label(),
			"failed": len(subErrs),
		}).Warn("Step succeeded with sub-action errors")
	}
	return nil
}

func (r *StepRunner) fail(step model.Step, state StepState, err error, res Resolution, subErrs []SubActionError) *StepFailure {
	return &StepFailure{
		Message:         failureMessage(step, err, res),
		Kind:            Kind(err),
		State:           state.String(),
		Attempts:        res.Attempts,
		SearchTime:      res.SearchTime,
		Tolerance:       res.Tolerance,
		Strategy:        res.Strategy,
		ImagePath:       res.ImagePath,
		ResolvedPath:    res.ResolvedPath,
		Diagnostics:     res.Diagnostics,
		SubActionErrors: subErrs,
		Err:             err,
	}
}

func failureMessage(step model.Step, err error, res Resolution) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Step %q failed: %v", step.Label(), err)
	if res.Attempts > 0 {
		fmt.Fprintf(&b, " (attempts: %d, last tolerance: %d, searched %s)",
			res.Attempts, res.Tolerance, res.SearchTime.Round(time.Millisecond))
	}
	if res.ResolvedPath != "" && res.ResolvedPath != res.ImagePath {
		fmt.Fprintf(&b, " [image: %s -> %s]", res.ImagePath, res.ResolvedPath)
	} else if res.ImagePath != "" {
		fmt.Fprintf(&b, " [image: %s]", res.ImagePath)
	}
	return b.String()
}

func (r *StepRunner) transition(step model.Step, s StepState) {
	r.logger().WithFields(log.Fields{"step": step.Label(), "state": s.String()}).Trace("Step state")
	if r.OnState != nil {
		r.OnState(step, s)
	}
}

func (r *StepRunner) defaultTimeout() time.Duration {
	if r.DefaultTimeout > 0 {
		return r.DefaultTimeout
	}
	return DefaultResolveTimeout
}

func (r *StepRunner) logger() *log.Entry {
	if r.Log == nil {
		return log.NewEntry(log.StandardLogger())
	}
	return r.Log
}
