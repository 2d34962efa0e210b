// Package filestore keeps flows and workflows in two YAML documents under a
// data directory: flows.yaml maps flow names to step records and
// workflows.yaml maps workflow names to flow-name lists.
package filestore

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/mj1618/desktop-flow/internal/model"
	"github.com/mj1618/desktop-flow/internal/store"
	"gopkg.in/yaml.v3"
)

const (
	FlowsFile     = "flows.yaml"
	WorkflowsFile = "workflows.yaml"
)

func init() {
	store.Register("yaml", func(_ context.Context, dataDir string) (store.Store, error) {
		return New(dataDir)
	})
}

// Store is a YAML-file backed store.Store.
type Store struct {
	mu  sync.Mutex
	dir string
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("data directory is not set")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) ListFlows(_ context.Context) ([]model.Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.readFlows()
	if err != nil {
		return nil, err
	}
	out := make([]model.Flow, 0, len(recs))
	for _, name := range sortedKeys(recs) {
		f, err := model.FlowFromRecord(name, recs[name])
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func (s *Store) SaveFlows(_ context.Context, flows []model.Flow) error {
	recs := make(map[string]model.FlowRecord, len(flows))
	for _, f := range flows {
		if err := store.ValidateFlow(f); err != nil {
			return err
		}
		recs[f.Name] = model.FlowToRecord(f)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(FlowsFile, recs)
}

func (s *Store) GetFlow(_ context.Context, name string) (model.Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.readFlows()
	if err != nil {
		return model.Flow{}, err
	}
	rec, ok := recs[name]
	if !ok {
		return model.Flow{}, fmt.Errorf("flow %q: %w", name, store.ErrNotFound)
	}
	return model.FlowFromRecord(name, rec)
}

func (s *Store) SaveFlow(_ context.Context, f model.Flow) error {
	if err := store.ValidateFlow(f); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.readFlows()
	if err != nil {
		return err
	}
	recs[f.Name] = model.FlowToRecord(f)
	return s.write(FlowsFile, recs)
}

func (s *Store) DeleteFlow(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.readFlows()
	if err != nil {
		return err
	}
	if _, ok := recs[name]; !ok {
		return fmt.Errorf("flow %q: %w", name, store.ErrNotFound)
	}
	delete(recs, name)
	return s.write(FlowsFile, recs)
}

func (s *Store) ListWorkflows(_ context.Context) ([]model.Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.readWorkflows()
	if err != nil {
		return nil, err
	}
	out := make([]model.Workflow, 0, len(recs))
	for _, name := range sortedKeys(recs) {
		out = append(out, model.Workflow{Name: name, Flows: append([]string{}, recs[name]...)})
	}
	return out, nil
}

func (s *Store) SaveWorkflows(_ context.Context, workflows []model.Workflow) error {
	recs := make(map[string]model.WorkflowRecord, len(workflows))
	for _, wf := range workflows {
		if err := store.ValidateWorkflow(wf); err != nil {
			return err
		}
		recs[wf.Name] = model.WorkflowRecord(wf.Flows)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(WorkflowsFile, recs)
}

func (s *Store) GetWorkflow(_ context.Context, name string) (model.Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.readWorkflows()
	if err != nil {
		return model.Workflow{}, err
	}
	rec, ok := recs[name]
	if !ok {
		return model.Workflow{}, fmt.Errorf("workflow %q: %w", name, store.ErrNotFound)
	}
	return model.Workflow{Name: name, Flows: append([]string{}, rec...)}, nil
}

func (s *Store) SaveWorkflow(_ context.Context, wf model.Workflow) error {
	if err := store.ValidateWorkflow(wf); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.readWorkflows()
	if err != nil {
		return err
	}
	recs[wf.Name] = model.WorkflowRecord(append([]string{}, wf.Flows...))
	return s.write(WorkflowsFile, recs)
}

func (s *Store) DeleteWorkflow(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.readWorkflows()
	if err != nil {
		return err
	}
	if _, ok := recs[name]; !ok {
		return fmt.Errorf("workflow %q: %w", name, store.ErrNotFound)
	}
	delete(recs, name)
	return s.write(WorkflowsFile, recs)
}

func (s *Store) Close() error { return nil }

func (s *Store) readFlows() (map[string]model.FlowRecord, error) {
	var recs map[string]model.FlowRecord
	if err := s.read(FlowsFile, &recs); err != nil {
		return nil, err
	}
	if recs == nil {
		recs = make(map[string]model.FlowRecord)
	}
	return recs, nil
}

func (s *Store) readWorkflows() (map[string]model.WorkflowRecord, error) {
	var recs map[string]model.WorkflowRecord
	if err := s.read(WorkflowsFile, &recs); err != nil {
		return nil, err
	}
	if recs == nil {
		recs = make(map[string]model.WorkflowRecord)
	}
	return recs, nil
}

// read decodes file into v. A missing file leaves v untouched.
func (s *Store) read(file string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, file))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", file, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", file, err)
	}
	return nil
}

// write encodes v and atomically replaces file.
func (s *Store) write(file string, v any) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}

	path := filepath.Join(s.dir, file)
	tmp, err := os.CreateTemp(s.dir, file+".*")
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", file, err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", file, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", file, err)
	}
	return os.Rename(tmp.Name(), path)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
