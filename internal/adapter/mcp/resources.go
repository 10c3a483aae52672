package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

const (
	uriTopTasks        = "taskmate://tasks/top"
	uriDependencyGraph = "taskmate://dependencies/graph"
)

// registerResources registers all MCP resources on the server.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			uriTopTasks,
			"Top Priority Tasks",
			mcplib.WithResourceDescription("The most urgent pending tasks at the default ranking size"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleTopTasksResource,
	)

	s.mcpServer.AddResource(
		mcplib.NewResource(
			uriDependencyGraph,
			"Dependency Graph",
			mcplib.WithResourceDescription("All tasks and prerequisite edges"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleGraphResource,
	)
}

func (s *Server) handleTopTasksResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.Priority == nil {
		return jsonContents(req.Params.URI, map[string]string{"error": "priority ranking not configured"})
	}
	top, err := s.deps.Priority.TopN(ctx, s.deps.Priority.DefaultN())
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, top)
}

func (s *Server) handleGraphResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.Graph == nil {
		return jsonContents(req.Params.URI, map[string]string{"error": "dependency graph not configured"})
	}
	snap, err := s.deps.Graph.Graph(ctx)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, snap)
}

func jsonContents(uri string, v any) ([]mcplib.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
