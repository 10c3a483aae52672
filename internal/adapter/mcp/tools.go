package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.topPriorityTasksTool(),
		s.criticalPathTool(),
		s.impactAnalysisTool(),
		s.dependencyGraphTool(),
		s.assignmentStatsTool(),
	)
}

func (s *Server) topPriorityTasksTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("top_priority_tasks",
		mcplib.WithDescription("List the most urgent pending tasks, ordered by priority, then days left, then id"),
		mcplib.WithNumber("n",
			mcplib.Description("Number of tasks to return; defaults to the server setting"),
			mcplib.Min(0),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleTopPriorityTasks}
}

func (s *Server) criticalPathTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("critical_path",
		mcplib.WithDescription("Return the longest chain of dependent tasks"),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleCriticalPath}
}

func (s *Server) impactAnalysisTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("impact_analysis",
		mcplib.WithDescription("List every task transitively blocked by the given task"),
		mcplib.WithNumber("task_id",
			mcplib.Required(),
			mcplib.Description("The task whose downstream impact is analysed"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleImpactAnalysis}
}

func (s *Server) dependencyGraphTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("dependency_graph",
		mcplib.WithDescription("Return all tasks and prerequisite edges of the dependency graph"),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleDependencyGraph}
}

func (s *Server) assignmentStatsTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("assignment_stats",
		mcplib.WithDescription("Return the number of open tasks assigned to each person"),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleAssignmentStats}
}

func (s *Server) handleTopPriorityTasks(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Priority == nil {
		return mcplib.NewToolResultError("priority ranking not configured"), nil
	}
	n, present, err := intArg(req.GetArguments(), "n")
	if err != nil {
		return mcplib.NewToolResultError(err.Error()), nil
	}
	if !present {
		n = int64(s.deps.Priority.DefaultN())
	}
	top, err := s.deps.Priority.TopN(ctx, int(n))
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to rank tasks", err), nil
	}
	return toolResultJSON(top)
}

func (s *Server) handleCriticalPath(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Graph == nil {
		return mcplib.NewToolResultError("dependency graph not configured"), nil
	}
	cp, err := s.deps.Graph.CriticalPath(ctx)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to compute critical path", err), nil
	}
	return toolResultJSON(cp)
}

func (s *Server) handleImpactAnalysis(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Graph == nil {
		return mcplib.NewToolResultError("dependency graph not configured"), nil
	}
	id, present, err := intArg(req.GetArguments(), "task_id")
	if err != nil {
		return mcplib.NewToolResultError(err.Error()), nil
	}
	if !present || id <= 0 {
		return mcplib.NewToolResultError("task_id is required"), nil
	}
	view, err := s.deps.Graph.Impact(ctx, id)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(fmt.Sprintf("failed to analyse task %d", id), err), nil
	}
	return toolResultJSON(view)
}

func (s *Server) handleDependencyGraph(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Graph == nil {
		return mcplib.NewToolResultError("dependency graph not configured"), nil
	}
	snap, err := s.deps.Graph.Graph(ctx)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to read dependency graph", err), nil
	}
	return toolResultJSON(snap)
}

func (s *Server) handleAssignmentStats(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Workloads == nil {
		return mcplib.NewToolResultError("assignment stats not configured"), nil
	}
	stats, err := s.deps.Workloads.Stats(ctx)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to read assignment stats", err), nil
	}
	return toolResultJSON(stats)
}

// toolResultJSON marshals v into a text tool result.
func toolResultJSON(v any) (*mcplib.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal result", err), nil
	}
	return mcplib.NewToolResultText(string(data)), nil
}

// intArg reads an integral numeric argument. JSON numbers arrive as float64.
func intArg(args map[string]any, name string) (int64, bool, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, true, fmt.Errorf("%s must be an integer", name)
		}
		return int64(v), true, nil
	case int:
		return int64(v), true, nil
	case int64:
		return v, true, nil
	default:
		return 0, true, fmt.Errorf("%s must be a number", name)
	}
}
