package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mj1618/desktop-flow/internal/model"
)

// Memory is a Store held in process memory.
type Memory struct {
	mu        sync.RWMutex
	flows     map[string]model.Flow
	workflows map[string]model.Workflow
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		flows:     make(map[string]model.Flow),
		workflows: make(map[string]model.Workflow),
	}
}

func (m *Memory) ListFlows(_ context.Context) ([]model.Flow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Flow, 0, len(m.flows))
	for _, f := range m.flows {
		out = append(out, copyFlow(f))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) SaveFlows(_ context.Context, flows []model.Flow) error {
	next := make(map[string]model.Flow, len(flows))
	for _, f := range flows {
		if err := ValidateFlow(f); err != nil {
			return err
		}
		next[f.Name] = copyFlow(f)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flows = next
	return nil
}

func (m *Memory) GetFlow(_ context.Context, name string) (model.Flow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.flows[name]
	if !ok {
		return model.Flow{}, fmt.Errorf("flow %q: %w", name, ErrNotFound)
	}
	return copyFlow(f), nil
}

func (m *Memory) SaveFlow(_ context.Context, f model.Flow) error {
	if err := ValidateFlow(f); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flows[f.Name] = copyFlow(f)
	return nil
}

func (m *Memory) DeleteFlow(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.flows[name]; !ok {
		return fmt.Errorf("flow %q: %w", name, ErrNotFound)
	}
	delete(m.flows, name)
	return nil
}

func (m *Memory) ListWorkflows(_ context.Context) ([]model.Workflow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Workflow, 0, len(m.workflows))
	for _, wf := range m.workflows {
		out = append(out, copyWorkflow(wf))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) SaveWorkflows(_ context.Context, workflows []model.Workflow) error {
	next := make(map[string]model.Workflow, len(workflows))
	for _, wf := range workflows {
		if err := ValidateWorkflow(wf); err != nil {
			return err
		}
		next[wf.Name] = copyWorkflow(wf)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workflows = next
	return nil
}

func (m *Memory) GetWorkflow(_ context.Context, name string) (model.Workflow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wf, ok := m.workflows[name]
	if !ok {
		return model.Workflow{}, fmt.Errorf("workflow %q: %w", name, ErrNotFound)
	}
	return copyWorkflow(wf), nil
}

func (m *Memory) SaveWorkflow(_ context.Context, wf model.Workflow) error {
	if err := ValidateWorkflow(wf); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workflows[wf.Name] = copyWorkflow(wf)
	return nil
}

func (m *Memory) DeleteWorkflow(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.workflows[name]; !ok {
		return fmt.Errorf("workflow %q: %w", name, ErrNotFound)
	}
	delete(m.workflows, name)
	return nil
}

func (m *Memory) Close() error { return nil }

func copyFlow(f model.Flow) model.Flow {
	f.Steps = append([]model.Step(nil), f.Steps...)
	return f
}

func copyWorkflow(wf model.Workflow) model.Workflow {
	wf.Flows = append([]string(nil), wf.Flows...)
	return wf
}
