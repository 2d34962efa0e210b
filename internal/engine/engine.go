package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mj1618/desktop-flow/internal/images"
	"github.com/mj1618/desktop-flow/internal/imagesearch"
	"github.com/mj1618/desktop-flow/internal/model"
	"github.com/mj1618/desktop-flow/internal/platform"
	log "github.com/sirupsen/logrus"
)

// Settings are the tunable delays and limits of an Engine. Zero values take
// the package defaults.
type Settings struct {
	ResolveTimeout   time.Duration
	InterStepDelay   time.Duration
	InterFlowDelay   time.Duration
	CharDelay        time.Duration
	SettleDelay      time.Duration
	ScrollAmount     int
	StrictSubActions bool
}

// DefaultSettings returns the package defaults.
func DefaultSettings() Settings {
	return Settings{
		ResolveTimeout: DefaultResolveTimeout,
		InterStepDelay: DefaultInterStepDelay,
		InterFlowDelay: DefaultInterFlowDelay,
		CharDelay:      DefaultCharDelay,
		SettleDelay:    DefaultSettleDelay,
		ScrollAmount:   DefaultScrollAmount,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.ResolveTimeout <= 0 {
		s.ResolveTimeout = d.ResolveTimeout
	}
	if s.InterStepDelay < 0 {
		s.InterStepDelay = d.InterStepDelay
	}
	if s.InterFlowDelay < 0 {
		s.InterFlowDelay = d.InterFlowDelay
	}
	if s.CharDelay < 0 {
		s.CharDelay = d.CharDelay
	}
	if s.SettleDelay < 0 {
		s.SettleDelay = d.SettleDelay
	}
	if s.ScrollAmount <= 0 {
		s.ScrollAmount = d.ScrollAmount
	}
	return s
}

// Deps are the collaborators an Engine drives.
type Deps struct {
	Input      platform.Inputter
	Screen     Screen
	Searcher   imagesearch.Searcher
	Paths      images.PathResolver
	Dimensions *images.DimensionCache
	Flows      FlowLookup
	Policy     Policy
	Notifier   Notifier
	Clock      Clock
	Log        *log.Entry
}

// Engine wires the resolver, executor and runners together.
type Engine struct {
	Resolver  *Resolver
	Executor  *Executor
	Steps     *StepRunner
	Flows     *FlowRunner
	Workflows *WorkflowRunner

	log *log.Entry
}

// New builds an Engine. Negative delays and a zero timeout or scroll amount
// fall back to the defaults; zero delays are kept.
func New(deps Deps, settings Settings) *Engine {
	s := settings.withDefaults()
	clock := deps.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	logger := deps.Log
	if logger == nil {
		logger = log.WithField("module", "engine")
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = LogNotifier{Log: logger}
	}

	resolver := &Resolver{
		Paths:      deps.Paths,
		Dimensions: deps.Dimensions,
		Searcher:   deps.Searcher,
		Screen:     deps.Screen,
		Clock:      clock,
		Log:        logger,
	}
	executor := &Executor{
		Input:        deps.Input,
		Clock:        clock,
		CharDelay:    s.CharDelay,
		SettleDelay:  s.SettleDelay,
		ScrollAmount: s.ScrollAmount,
		Log:          logger,
	}
	steps := &StepRunner{
		Resolver:         resolver,
		Executor:         executor,
		Clock:            clock,
		Notifier:         notifier,
		Log:              logger,
		DefaultTimeout:   s.ResolveTimeout,
		StrictSubActions: s.StrictSubActions,
	}
	flows := &FlowRunner{
		Steps:          steps,
		Policy:         deps.Policy,
		Clock:          clock,
		InterStepDelay: s.InterStepDelay,
		Timeout:        s.ResolveTimeout,
		Log:            logger,
	}
	workflows := &WorkflowRunner{
		Flows:          flows,
		Lookup:         deps.Flows,
		Policy:         deps.Policy,
		Clock:          clock,
		InterFlowDelay: s.InterFlowDelay,
		Log:            logger,
	}
	return &Engine{
		Resolver:  resolver,
		Executor:  executor,
		Steps:     steps,
		Flows:     flows,
		Workflows: workflows,
		log:       logger,
	}
}

// RunStep runs a single step. Without onFailure the Notifier reports the
// failure.
func (e *Engine) RunStep(ctx context.Context, step model.Step, timeout time.Duration, onFailure func(StepFailure)) bool {
	return e.RunStepWith(ctx, step, StepOptions{Timeout: timeout, OnFailure: onFailure})
}

// RunStepWith runs a single step with full options under a fresh run ID.
func (e *Engine) RunStepWith(ctx context.Context, step model.Step, opts StepOptions) bool {
	restore := e.tag(uuid.NewString())
	defer restore()
	return e.Steps.Run(ctx, step, opts)
}

// RunFlow runs flow under a fresh run ID.
func (e *Engine) RunFlow(ctx context.Context, flow model.Flow) FlowResult {
	runID := uuid.NewString()
	restore := e.tag(runID)
	defer restore()
	result := e.Flows.Run(ctx, flow)
	result.RunID = runID
	return result
}

// RunWorkflow runs wf under a fresh run ID.
func (e *Engine) RunWorkflow(ctx context.Context, wf model.Workflow) WorkflowResult {
	runID := uuid.NewString()
	restore := e.tag(runID)
	defer restore()
	result := e.Workflows.Run(ctx, wf)
	result.RunID = runID
	return result
}

// tag points every component's logger at an entry carrying runID and
// returns a func restoring the untagged logger.
func (e *Engine) tag(runID string) func() {
	tagged := e.log.WithField("run_id", runID)
	set := func(l *log.Entry) {
		e.Resolver.Log = l
		e.Executor.Log = l
		e.Steps.Log = l
		e.Flows.Log = l
		e.Workflows.Log = l
	}
	set(tagged)
	return func() { set(e.log) }
}
