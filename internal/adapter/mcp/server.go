// Package mcp exposes the TaskMate read side as Model Context Protocol tools
// and resources over streamable HTTP.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/TaskMate/internal/domain/person"
	"github.com/Strob0t/TaskMate/internal/domain/priority"
	"github.com/Strob0t/TaskMate/internal/service"
)

// PriorityReader ranks pending tasks.
type PriorityReader interface {
	DefaultN() int
	TopN(ctx context.Context, n int) ([]priority.Entry, error)
}

// GraphReader answers dependency graph queries.
type GraphReader interface {
	Graph(ctx context.Context) (service.GraphSnapshot, error)
	CriticalPath(ctx context.Context) (service.CriticalPathView, error)
	Impact(ctx context.Context, id int64) (service.ImpactView, error)
}

// WorkloadReader reports open tasks per person.
type WorkloadReader interface {
	Stats(ctx context.Context) ([]person.Workload, error)
}

// ServerConfig holds the MCP server settings.
type ServerConfig struct {
	Addr    string
	Name    string
	Version string
	APIKey  string // empty disables authentication
}

// ServerDeps holds the read-side services. Nil fields make the matching
// tools report an error instead of failing the call.
type ServerDeps struct {
	Priority  PriorityReader
	Graph     GraphReader
	Workloads WorkloadReader
}

// Server wraps an mcp-go server with its HTTP transport.
type Server struct {
	cfg       ServerConfig
	deps      ServerDeps
	mcpServer *mcpserver.MCPServer
	httpSrv   *http.Server
}

// NewServer creates an MCP server with every tool and resource registered.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithResourceCapabilities(false, false),
			mcpserver.WithRecovery(),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Handler returns the authenticated streamable HTTP handler.
func (s *Server) Handler() http.Handler {
	return AuthMiddleware(s.cfg.APIKey, mcpserver.NewStreamableHTTPServer(s.mcpServer))
}

// Start binds the configured address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("mcp listen %s: %w", s.cfg.Addr, err)
	}
	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("mcp server listening", "addr", ln.Addr().String())
	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("mcp server failed", "error", err)
		}
	}()
	return nil
}

// Stop gracefully shuts the HTTP transport down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}
