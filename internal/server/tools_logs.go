package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// registerLogTools registers the system log search tools.
func (s *Server) registerLogTools() {
	userLogsTool := mcp.NewTool("get_user_logs",
		mcp.WithDescription("Get system log events where a user appears as actor or target"),
		mcp.WithString("user_identifier",
			mcp.Required(),
			mcp.Description("User ID, login, or email address"),
		),
		mcp.WithString("since",
			mcp.Description("RFC3339 timestamp limiting how far back to search"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of events to return (default 100)"),
		),
	)
	s.mcpServer.AddTool(userLogsTool, s.handleGetUserLogs)

	appLogsTool := mcp.NewTool("get_application_logs",
		mcp.WithDescription("Get system log events targeting an application"),
		mcp.WithString("app_identifier",
			mcp.Required(),
			mcp.Description("Application ID, name, or display name"),
		),
		mcp.WithString("since",
			mcp.Description("RFC3339 timestamp limiting how far back to search"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of events to return (default 100)"),
		),
	)
	s.mcpServer.AddTool(appLogsTool, s.handleGetApplicationLogs)

	searchTool := mcp.NewTool("search_logs",
		mcp.WithDescription("Search the system log. Queries containing Okta filter operators (eq, sw, co, ...) run as filter expressions; anything else is free-text search."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Filter expression or free-text search term"),
		),
		mcp.WithString("since",
			mcp.Description("RFC3339 timestamp limiting how far back to search"),
		),
		mcp.WithString("until",
			mcp.Description("RFC3339 timestamp bounding the end of the search window"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of events to return (default 100)"),
		),
	)
	s.mcpServer.AddTool(searchTool, s.handleSearchLogs)

	failedLoginsTool := mcp.NewTool("get_failed_logins",
		mcp.WithDescription("Get failed login attempts from the system log"),
		mcp.WithString("since",
			mcp.Description("RFC3339 timestamp limiting how far back to search"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of events to return (default 100)"),
		),
	)
	s.mcpServer.AddTool(failedLoginsTool, s.handleGetFailedLogins)

	summaryTool := mcp.NewTool("get_recent_activity_summary",
		mcp.WithDescription("Summarize recent org activity: event counts, failed logins, password resets, suspicious events, top event types"),
		mcp.WithNumber("hours",
			mcp.Description("Trailing window in hours (default 24)"),
		),
	)
	s.mcpServer.AddTool(summaryTool, s.handleGetRecentActivitySummary)
}

func (s *Server) handleGetUserLogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := requestArgs(request)
	identifier := stringArg(args, "user_identifier")
	if identifier == "" {
		return mcp.NewToolResultError("missing or invalid 'user_identifier' argument"), nil
	}

	result, err := s.client.Logs.UserLogs(ctx, identifier, stringArg(args, "since"), intArg(args, "limit", 0))
	if err != nil {
		return errorResult(err), nil
	}

	return jsonResult(map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("Successfully retrieved %d log entries for %s", result.Count(), identifier),
		"count":   result.Count(),
		"events":  result.Items,
	}), nil
}

func (s *Server) handleGetApplicationLogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := requestArgs(request)
	identifier := stringArg(args, "app_identifier")
	if identifier == "" {
		return mcp.NewToolResultError("missing or invalid 'app_identifier' argument"), nil
	}

	result, err := s.client.Logs.ApplicationLogs(ctx, identifier, stringArg(args, "since"), intArg(args, "limit", 0))
	if err != nil {
		return errorResult(err), nil
	}

	return jsonResult(map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("Successfully retrieved %d log entries for %s", result.Count(), identifier),
		"count":   result.Count(),
		"events":  result.Items,
	}), nil
}

func (s *Server) handleSearchLogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := requestArgs(request)
	query := stringArg(args, "query")
	if query == "" {
		return mcp.NewToolResultError("missing or invalid 'query' argument"), nil
	}

	result, err := s.client.Logs.SearchLogs(ctx, query,
		stringArg(args, "since"), stringArg(args, "until"), intArg(args, "limit", 0))
	if err != nil {
		return errorResult(err), nil
	}

	return jsonResult(map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("Successfully found %d log entries matching query", result.Count()),
		"count":   result.Count(),
		"events":  result.Items,
	}), nil
}

func (s *Server) handleGetFailedLogins(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := requestArgs(request)

	result, err := s.client.Logs.FailedLogins(ctx, stringArg(args, "since"), intArg(args, "limit", 0))
	if err != nil {
		return errorResult(err), nil
	}

	return jsonResult(map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("Successfully retrieved %d failed login attempts", result.Count()),
		"count":   result.Count(),
		"events":  result.Items,
	}), nil
}

func (s *Server) handleGetRecentActivitySummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := requestArgs(request)

	summary, err := s.client.Logs.RecentActivitySummary(ctx, intArg(args, "hours", 24))
	if err != nil {
		return errorResult(err), nil
	}

	return jsonResult(map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("Successfully generated activity summary for the last %d hours", intArg(args, "hours", 24)),
		"summary": summary,
	}), nil
}
