// Package server exposes flows and workflows as MCP tools.
package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/mj1618/desktop-flow/internal/engine"
	"github.com/mj1618/desktop-flow/internal/store"
	log "github.com/sirupsen/logrus"
)

// Config holds MCP server configuration.
type Config struct {
	Transport string
	Port      int
	CacheTTL  time.Duration
	Version   string
}

// Server wraps the MCP server with the engine and store. Runs hold runMu so
// at most one flow drives the mouse and keyboard at a time.
type Server struct {
	engine *engine.Engine
	store  store.Store
	cache  *ListCache
	runMu  sync.Mutex
	mcp    *mcpserver.MCPServer
	log    *log.Entry
}

// New creates an MCP server with every desktop-flow tool registered.
func New(cfg Config, eng *engine.Engine, st store.Store, logger *log.Entry) *Server {
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if logger == nil {
		logger = log.WithField("module", "server")
	}
	s := &Server{
		engine: eng,
		store:  st,
		cache:  NewListCache(cfg.CacheTTL),
		log:    logger,
	}
	s.mcp = mcpserver.NewMCPServer("desktop-flow", cfg.Version)
	s.registerTools()
	return s
}

// Serve starts the MCP server with the configured transport.
func (s *Server) Serve(cfg Config) error {
	switch cfg.Transport {
	case "stdio", "":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		addr := fmt.Sprintf(":%d", cfg.Port)
		s.log.WithField("addr", addr).Info("serving streamable HTTP")
		return httpServer.Start(addr)
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}

func (s *Server) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("list_flows",
			mcp.WithDescription("List saved flows with their step counts"),
		),
		s.handleListFlows,
	)

	s.mcp.AddTool(
		mcp.NewTool("list_workflows",
			mcp.WithDescription("List saved workflows and the flows they run"),
		),
		s.handleListWorkflows,
	)

	s.mcp.AddTool(
		mcp.NewTool("show_flow",
			mcp.WithDescription("Show the steps of a flow in their stored form"),
			mcp.WithString("name", mcp.Required(), mcp.Description("Flow name")),
		),
		s.handleShowFlow,
	)

	s.mcp.AddTool(
		mcp.NewTool("run_flow",
			mcp.WithDescription("Run a saved flow against the desktop. Returns the run result with any failed steps."),
			mcp.WithString("name", mcp.Required(), mcp.Description("Flow name")),
		),
		s.handleRunFlow,
	)

	s.mcp.AddTool(
		mcp.NewTool("run_workflow",
			mcp.WithDescription("Run a saved workflow: its flows in order with the inter-flow delay"),
			mcp.WithString("name", mcp.Required(), mcp.Description("Workflow name")),
		),
		s.handleRunWorkflow,
	)

	s.mcp.AddTool(
		mcp.NewTool("locate",
			mcp.WithDescription("Find an image on screen and return the point a step would act on"),
			mcp.WithString("image", mcp.Required(), mcp.Description("Image path, absolute or relative to the image directory")),
			mcp.WithString("anchor", mcp.Description("center, upper-left, upper-right, lower-left, lower-right (default: center)")),
			mcp.WithNumber("timeout", mcp.Description("Search timeout in milliseconds (default: engine setting)")),
		),
		s.handleLocate,
	)
}
