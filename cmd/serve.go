package cmd

import (
	"fmt"
	"time"

	"github.com/mj1618/desktop-flow/internal/logging"
	"github.com/mj1618/desktop-flow/internal/server"
	"github.com/mj1618/desktop-flow/internal/store"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server exposing flows and workflows as tools",
	Long: `Start a Model Context Protocol (MCP) server so agents can list and run flows
and workflows, and locate images on screen. Runs are serialized.

Tools: list_flows, list_workflows, show_flow, run_flow, run_workflow, locate

Supported transports:
  stdio             Standard I/O (default)
  streamable-http   Streamable HTTP transport (for remote agents)

Failures never prompt: "ask" is treated as continue.`,
	Example: `  desktop-flow serve
  desktop-flow serve --transport streamable-http --port 8080
  desktop-flow serve --cache-ttl 0`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("transport", "stdio", "Transport: stdio, streamable-http")
	serveCmd.Flags().Int("port", 8080, "HTTP port for streamable-http transport")
	serveCmd.Flags().Int("cache-ttl", 2000, "Flow and workflow listing cache TTL in milliseconds (0 to disable)")
	addFailureFlag(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	transport, _ := cmd.Flags().GetString("transport")
	port, _ := cmd.Flags().GetInt("port")
	cacheTTLMs, _ := cmd.Flags().GetInt("cache-ttl")

	cfg := server.Config{
		Transport: transport,
		Port:      port,
		CacheTTL:  time.Duration(cacheTTLMs) * time.Millisecond,
		Version:   Version,
	}

	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	sess, err := newSession(cmd, store.Lookup{Flows: st}, false)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer sess.close()

	return server.New(cfg, sess.engine, st, logging.WithModule("server")).Serve(cfg)
}
