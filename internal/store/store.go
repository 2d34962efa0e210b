// Package store defines the flow and workflow repositories and an in-memory
// implementation. Backends live in the filestore and sqlitestore packages.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mj1618/desktop-flow/internal/model"
)

// ErrNotFound is returned by Get and Delete for an unknown name.
var ErrNotFound = errors.New("not found")

// FlowStore persists flows keyed by name.
type FlowStore interface {
	// ListFlows returns every flow sorted by name.
	ListFlows(ctx context.Context) ([]model.Flow, error)
	// SaveFlows replaces the whole collection.
	SaveFlows(ctx context.Context, flows []model.Flow) error
	GetFlow(ctx context.Context, name string) (model.Flow, error)
	// SaveFlow creates or replaces one flow.
	SaveFlow(ctx context.Context, flow model.Flow) error
	DeleteFlow(ctx context.Context, name string) error
}

// WorkflowStore persists workflows keyed by name.
type WorkflowStore interface {
	ListWorkflows(ctx context.Context) ([]model.Workflow, error)
	SaveWorkflows(ctx context.Context, workflows []model.Workflow) error
	GetWorkflow(ctx context.Context, name string) (model.Workflow, error)
	SaveWorkflow(ctx context.Context, wf model.Workflow) error
	DeleteWorkflow(ctx context.Context, name string) error
}

// Store is a complete backend.
type Store interface {
	FlowStore
	WorkflowStore
	Close() error
}

// ValidateFlow checks a flow before it is saved.
func ValidateFlow(f model.Flow) error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("%w: flow name is required", model.ErrValidation)
	}
	for i, s := range f.Steps {
		if err := model.ValidateStep(s); err != nil {
			return fmt.Errorf("flow %q step %d: %w", f.Name, i+1, err)
		}
	}
	return nil
}

// ValidateWorkflow checks a workflow before it is saved. Flow names are not
// required to exist; missing flows are reported when the workflow runs.
func ValidateWorkflow(wf model.Workflow) error {
	if strings.TrimSpace(wf.Name) == "" {
		return fmt.Errorf("%w: workflow name is required", model.ErrValidation)
	}
	for i, name := range wf.Flows {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: workflow %q entry %d has an empty flow name", model.ErrValidation, wf.Name, i+1)
		}
	}
	return nil
}

// Lookup adapts a FlowStore to the engine's flow lookup, mapping
// ErrNotFound to a plain miss.
type Lookup struct {
	Flows FlowStore
}

func (l Lookup) LookupFlow(ctx context.Context, name string) (model.Flow, bool, error) {
	f, err := l.Flows.GetFlow(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return model.Flow{}, false, nil
	}
	if err != nil {
		return model.Flow{}, false, err
	}
	return f, true, nil
}

// Open returns the backend named kind ("memory", "yaml" or "sqlite") rooted
// at dataDir. Backends register themselves through Register.
func Open(ctx context.Context, kind, dataDir string) (Store, error) {
	if kind == "memory" {
		return NewMemory(), nil
	}
	open, ok := backends[kind]
	if !ok {
		return nil, fmt.Errorf("unknown store %q (expected yaml, sqlite or memory)", kind)
	}
	return open(ctx, dataDir)
}

var backends = map[string]func(ctx context.Context, dataDir string) (Store, error){}

// Register makes a backend available to Open. It is called from backend
// package init functions.
func Register(kind string, open func(ctx context.Context, dataDir string) (Store, error)) {
	backends[kind] = open
}
