package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mj1618/desktop-flow/internal/model"
	"github.com/mj1618/desktop-flow/internal/store"
	"gopkg.in/yaml.v3"
)

type flowSummary struct {
	Name  string `yaml:"name"  json:"name"`
	Steps int    `yaml:"steps" json:"steps"`
}

// toText serializes v to YAML for an MCP response.
func toText(v any) string {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(b)
}

func stringParam(params map[string]any, key, def string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return def
}

func intParam(params map[string]any, key string, def int) int {
	switch v := params[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

func (s *Server) handleListFlows(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := s.cache.Get("flows", func() (any, error) {
		flows, err := s.store.ListFlows(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]flowSummary, 0, len(flows))
		for _, f := range flows {
			out = append(out, flowSummary{Name: f.Name, Steps: len(f.Steps)})
		}
		return out, nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(toText(v)), nil
}

func (s *Server) handleListWorkflows(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := s.cache.Get("workflows", func() (any, error) {
		wfs, err := s.store.ListWorkflows(ctx)
		if err != nil {
			return nil, err
		}
		out := make(map[string]model.WorkflowRecord, len(wfs))
		for _, wf := range wfs {
			out[wf.Name] = model.WorkflowRecord(wf.Flows)
		}
		return out, nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(toText(v)), nil
}

func (s *Server) handleShowFlow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := stringParam(request.GetArguments(), "name", "")
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}
	f, err := s.store.GetFlow(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(toText(map[string]model.FlowRecord{f.Name: model.FlowToRecord(f)})), nil
}

func (s *Server) handleRunFlow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := stringParam(request.GetArguments(), "name", "")
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}
	f, err := s.store.GetFlow(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return mcp.NewToolResultError("Flow not found: " + name), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	result := s.engine.RunFlow(ctx, f)
	if !result.Success {
		return mcp.NewToolResultError(toText(result)), nil
	}
	return mcp.NewToolResultText(toText(result)), nil
}

func (s *Server) handleRunWorkflow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := stringParam(request.GetArguments(), "name", "")
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}
	wf, err := s.store.GetWorkflow(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return mcp.NewToolResultError("Workflow not found: " + name), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	result := s.engine.RunWorkflow(ctx, wf)
	if !result.Success {
		return mcp.NewToolResultError(toText(result)), nil
	}
	return mcp.NewToolResultText(toText(result)), nil
}

func (s *Server) handleLocate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	ref := stringParam(params, "image", "")
	if ref == "" {
		return mcp.NewToolResultError("image is required"), nil
	}
	anchor, err := model.ParseAnchor(stringParam(params, "anchor", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	timeout := time.Duration(intParam(params, "timeout", 0)) * time.Millisecond
	if timeout <= 0 {
		timeout = s.engine.Steps.DefaultTimeout
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	res, err := s.engine.Resolver.Resolve(ctx, model.ImageTarget{Path: ref}, anchor, timeout)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%v (attempts: %d, last tolerance: %d)", err, res.Attempts, res.Tolerance)), nil
	}
	return mcp.NewToolResultText(toText(res)), nil
}
