package model

import "fmt"

// Flow is a named, ordered sequence of steps. The name is its identity in a store.
type Flow struct {
	Name  string
	Steps []Step
}

// Workflow is a named, ordered sequence of flow-name references. A reference
// may dangle if the flow is later deleted; runs report that as a failure.
type Workflow struct {
	Name  string
	Flows []string
}

// The edit operations below never mutate the receiver's step slice; they
// return a flow with a fresh slice.

// AddStep returns a copy of f with s appended.
func (f Flow) AddStep(s Step) Flow {
	steps := make([]Step, 0, len(f.Steps)+1)
	steps = append(steps, f.Steps...)
	return Flow{Name: f.Name, Steps: append(steps, s)}
}

// UpdateStep returns a copy of f with the step at index i (0-based) replaced.
func (f Flow) UpdateStep(i int, s Step) (Flow, error) {
	if err := checkIndex(i, len(f.Steps)); err != nil {
		return f, err
	}
	steps := append([]Step(nil), f.Steps...)
	steps[i] = s
	return Flow{Name: f.Name, Steps: steps}, nil
}

// RemoveStep returns a copy of f without the step at index i (0-based).
func (f Flow) RemoveStep(i int) (Flow, error) {
	if err := checkIndex(i, len(f.Steps)); err != nil {
		return f, err
	}
	steps := make([]Step, 0, len(f.Steps)-1)
	steps = append(steps, f.Steps[:i]...)
	steps = append(steps, f.Steps[i+1:]...)
	return Flow{Name: f.Name, Steps: steps}, nil
}

// MoveStep returns a copy of f with the step at from moved to position to.
func (f Flow) MoveStep(from, to int) (Flow, error) {
	steps, err := move(f.Steps, from, to)
	if err != nil {
		return f, err
	}
	return Flow{Name: f.Name, Steps: steps}, nil
}

// Append returns a copy of w with flow appended to its references.
func (w Workflow) Append(flow string) Workflow {
	flows := make([]string, 0, len(w.Flows)+1)
	flows = append(flows, w.Flows...)
	return Workflow{Name: w.Name, Flows: append(flows, flow)}
}

// Remove returns a copy of w without the reference at index i (0-based).
func (w Workflow) Remove(i int) (Workflow, error) {
	if err := checkIndex(i, len(w.Flows)); err != nil {
		return w, err
	}
	flows := make([]string, 0, len(w.Flows)-1)
	flows = append(flows, w.Flows[:i]...)
	flows = append(flows, w.Flows[i+1:]...)
	return Workflow{Name: w.Name, Flows: flows}, nil
}

// Move returns a copy of w with the reference at from moved to position to.
func (w Workflow) Move(from, to int) (Workflow, error) {
	flows, err := move(w.Flows, from, to)
	if err != nil {
		return w, err
	}
	return Workflow{Name: w.Name, Flows: flows}, nil
}

func move[T any](items []T, from, to int) ([]T, error) {
	if err := checkIndex(from, len(items)); err != nil {
		return nil, err
	}
	if err := checkIndex(to, len(items)); err != nil {
		return nil, err
	}
	out := append([]T(nil), items...)
	item := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]T{item}, out[to:]...)...)
	return out, nil
}

func checkIndex(i, n int) error {
	if i < 0 || i >= n {
		return fmt.Errorf("index %d out of range (have %d)", i+1, n)
	}
	return nil
}
