package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"mcp-okta-support/internal/okta"
)

// registerApplicationTools registers the application management tools.
func (s *Server) registerApplicationTools() {
	listAppsTool := mcp.NewTool("list_applications",
		mcp.WithDescription("List applications in the Okta org"),
		mcp.WithString("filter",
			mcp.Description("Okta filter expression, e.g. status eq \"ACTIVE\""),
		),
		mcp.WithString("expand",
			mcp.Description("Optional expand parameter, e.g. user/<id>"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of applications to return (default 20)"),
		),
	)
	s.mcpServer.AddTool(listAppsTool, s.handleListApplications)

	getAppTool := mcp.NewTool("get_application_details",
		mcp.WithDescription("Get detailed information about an application"),
		mcp.WithString("app_identifier",
			mcp.Required(),
			mcp.Description("Application ID"),
		),
	)
	s.mcpServer.AddTool(getAppTool, s.handleGetApplicationDetails)

	updateAppTool := mcp.NewTool("update_application_config",
		mcp.WithDescription("Update an application's configuration. The update payload replaces the application representation, so include every attribute that must survive."),
		mcp.WithString("app_identifier",
			mcp.Required(),
			mcp.Description("Application ID"),
		),
		mcp.WithObject("updates",
			mcp.Required(),
			mcp.Description("Application attributes to set"),
		),
	)
	s.mcpServer.AddTool(updateAppTool, s.handleUpdateApplicationConfig)

	activateTool := mcp.NewTool("activate_application",
		mcp.WithDescription("Activate an application"),
		mcp.WithString("app_identifier",
			mcp.Required(),
			mcp.Description("Application ID"),
		),
	)
	s.mcpServer.AddTool(activateTool, s.handleActivateApplication)

	deactivateTool := mcp.NewTool("deactivate_application",
		mcp.WithDescription("Deactivate an application"),
		mcp.WithString("app_identifier",
			mcp.Required(),
			mcp.Description("Application ID"),
		),
	)
	s.mcpServer.AddTool(deactivateTool, s.handleDeactivateApplication)

	assignTool := mcp.NewTool("assign_user_to_application",
		mcp.WithDescription("Assign a user to an application"),
		mcp.WithString("app_identifier",
			mcp.Required(),
			mcp.Description("Application ID"),
		),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description("Okta user ID to assign"),
		),
		mcp.WithObject("profile",
			mcp.Description("Optional app-specific profile for the assignment"),
		),
	)
	s.mcpServer.AddTool(assignTool, s.handleAssignUserToApplication)

	unassignTool := mcp.NewTool("unassign_user_from_application",
		mcp.WithDescription("Remove a user's assignment from an application"),
		mcp.WithString("app_identifier",
			mcp.Required(),
			mcp.Description("Application ID"),
		),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description("Okta user ID to unassign"),
		),
	)
	s.mcpServer.AddTool(unassignTool, s.handleUnassignUserFromApplication)
}

func (s *Server) handleListApplications(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := requestArgs(request)

	result, err := s.client.Applications.List(ctx, okta.ListApplicationsOptions{
		Filter: stringArg(args, "filter"),
		Expand: stringArg(args, "expand"),
		Limit:  intArg(args, "limit", 0),
	})
	if err != nil {
		return errorResult(err), nil
	}

	return jsonResult(map[string]interface{}{
		"success":      true,
		"message":      fmt.Sprintf("Successfully retrieved %d applications", result.Count()),
		"count":        result.Count(),
		"applications": result.Items,
		"has_more":     result.Links.HasMore(),
	}), nil
}

func (s *Server) handleGetApplicationDetails(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := requestArgs(request)
	identifier := stringArg(args, "app_identifier")
	if identifier == "" {
		return mcp.NewToolResultError("missing or invalid 'app_identifier' argument"), nil
	}

	app, err := s.client.Applications.Get(ctx, identifier)
	if err != nil {
		return errorResult(err), nil
	}

	return jsonResult(map[string]interface{}{
		"success":     true,
		"message":     fmt.Sprintf("Successfully retrieved application details for %s", identifier),
		"application": app.AsMap(),
	}), nil
}

func (s *Server) handleUpdateApplicationConfig(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := requestArgs(request)
	identifier := stringArg(args, "app_identifier")
	if identifier == "" {
		return mcp.NewToolResultError("missing or invalid 'app_identifier' argument"), nil
	}
	updates := objectArg(args, "updates")
	if len(updates) == 0 {
		return mcp.NewToolResultError("missing or empty 'updates' argument"), nil
	}

	app, err := s.client.Applications.Update(ctx, identifier, updates)
	if err != nil {
		return errorResult(err), nil
	}

	return jsonResult(map[string]interface{}{
		"success":     true,
		"message":     fmt.Sprintf("Successfully updated configuration for %s", identifier),
		"application": app.AsMap(),
	}), nil
}

func (s *Server) handleActivateApplication(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := requestArgs(request)
	identifier := stringArg(args, "app_identifier")
	if identifier == "" {
		return mcp.NewToolResultError("missing or invalid 'app_identifier' argument"), nil
	}

	result, err := s.client.Applications.Activate(ctx, identifier)
	if err != nil {
		return errorResult(err), nil
	}
	result["message"] = fmt.Sprintf("Successfully activated application %s", identifier)
	return jsonResult(result), nil
}

func (s *Server) handleDeactivateApplication(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := requestArgs(request)
	identifier := stringArg(args, "app_identifier")
	if identifier == "" {
		return mcp.NewToolResultError("missing or invalid 'app_identifier' argument"), nil
	}

	result, err := s.client.Applications.Deactivate(ctx, identifier)
	if err != nil {
		return errorResult(err), nil
	}
	result["message"] = fmt.Sprintf("Successfully deactivated application %s", identifier)
	return jsonResult(result), nil
}

func (s *Server) handleAssignUserToApplication(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := requestArgs(request)
	identifier := stringArg(args, "app_identifier")
	if identifier == "" {
		return mcp.NewToolResultError("missing or invalid 'app_identifier' argument"), nil
	}
	userID := stringArg(args, "user_id")
	if userID == "" {
		return mcp.NewToolResultError("missing or invalid 'user_id' argument"), nil
	}

	result, err := s.client.Applications.AssignUser(ctx, identifier, userID, objectArg(args, "profile"))
	if err != nil {
		return errorResult(err), nil
	}
	result["message"] = fmt.Sprintf("Successfully assigned user %s to application %s", userID, identifier)
	return jsonResult(result), nil
}

func (s *Server) handleUnassignUserFromApplication(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := requestArgs(request)
	identifier := stringArg(args, "app_identifier")
	if identifier == "" {
		return mcp.NewToolResultError("missing or invalid 'app_identifier' argument"), nil
	}
	userID := stringArg(args, "user_id")
	if userID == "" {
		return mcp.NewToolResultError("missing or invalid 'user_id' argument"), nil
	}

	result, err := s.client.Applications.UnassignUser(ctx, identifier, userID)
	if err != nil {
		return errorResult(err), nil
	}
	result["message"] = fmt.Sprintf("Successfully unassigned user %s from application %s", userID, identifier)
	return jsonResult(result), nil
}
