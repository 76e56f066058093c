package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"mcp-okta-support/internal/okta"
)

// registerUserTools registers the user lifecycle tools.
func (s *Server) registerUserTools() {
	getUserTool := mcp.NewTool("get_user_details",
		mcp.WithDescription("Get detailed information about an Okta user by ID, login, or email"),
		mcp.WithString("user_identifier",
			mcp.Required(),
			mcp.Description("User ID, login, or email address"),
		),
	)
	s.mcpServer.AddTool(getUserTool, s.handleGetUserDetails)

	listUsersTool := mcp.NewTool("list_users",
		mcp.WithDescription("List or search Okta users"),
		mcp.WithString("filter",
			mcp.Description("Okta filter expression, e.g. status eq \"ACTIVE\""),
		),
		mcp.WithString("search",
			mcp.Description("Free-form search matching name, login, or email"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of users to return (default 200)"),
		),
	)
	s.mcpServer.AddTool(listUsersTool, s.handleListUsers)

	updateProfileTool := mcp.NewTool("update_user_profile",
		mcp.WithDescription("Update profile attributes of an Okta user"),
		mcp.WithString("user_identifier",
			mcp.Required(),
			mcp.Description("User ID, login, or email address"),
		),
		mcp.WithObject("updates",
			mcp.Required(),
			mcp.Description("Profile attributes to set, e.g. {\"mobilePhone\": \"+1 555 0100\"}"),
		),
	)
	s.mcpServer.AddTool(updateProfileTool, s.handleUpdateUserProfile)

	reinviteTool := mcp.NewTool("reinvite_user",
		mcp.WithDescription("Re-send the activation email to a user in PROVISIONED state"),
		mcp.WithString("user_identifier",
			mcp.Required(),
			mcp.Description("User ID, login, or email address"),
		),
		mcp.WithBoolean("send_email",
			mcp.Description("Send the activation email (default true)"),
		),
	)
	s.mcpServer.AddTool(reinviteTool, s.handleReinviteUser)

	unlockTool := mcp.NewTool("unlock_user_account",
		mcp.WithDescription("Unlock a user account in LOCKED_OUT state"),
		mcp.WithString("user_identifier",
			mcp.Required(),
			mcp.Description("User ID, login, or email address"),
		),
	)
	s.mcpServer.AddTool(unlockTool, s.handleUnlockUser)

	resetPasswordTool := mcp.NewTool("reset_user_password",
		mcp.WithDescription("Start the password reset flow for a user"),
		mcp.WithString("user_identifier",
			mcp.Required(),
			mcp.Description("User ID, login, or email address"),
		),
		mcp.WithBoolean("send_email",
			mcp.Description("Send the reset email to the user (default true)"),
		),
	)
	s.mcpServer.AddTool(resetPasswordTool, s.handleResetUserPassword)

	userGroupsTool := mcp.NewTool("get_user_groups",
		mcp.WithDescription("List the groups a user belongs to"),
		mcp.WithString("user_identifier",
			mcp.Required(),
			mcp.Description("User ID, login, or email address"),
		),
	)
	s.mcpServer.AddTool(userGroupsTool, s.handleGetUserGroups)
}

func (s *Server) handleGetUserDetails(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := requestArgs(request)
	identifier := stringArg(args, "user_identifier")
	if identifier == "" {
		return mcp.NewToolResultError("missing or invalid 'user_identifier' argument"), nil
	}

	user, err := s.client.Users.GetUser(ctx, identifier)
	if err != nil {
		return errorResult(err), nil
	}

	return jsonResult(map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("Successfully retrieved user details for %s", identifier),
		"user":    user.AsMap(),
	}), nil
}

func (s *Server) handleListUsers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := requestArgs(request)

	result, err := s.client.Users.ListUsers(ctx, okta.ListUsersOptions{
		Filter: stringArg(args, "filter"),
		Search: stringArg(args, "search"),
		Limit:  intArg(args, "limit", 0),
	})
	if err != nil {
		return errorResult(err), nil
	}

	return jsonResult(map[string]interface{}{
		"success":  true,
		"message":  fmt.Sprintf("Successfully retrieved %d users", result.Count()),
		"count":    result.Count(),
		"users":    result.Items,
		"has_more": result.Links.HasMore(),
	}), nil
}

func (s *Server) handleUpdateUserProfile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := requestArgs(request)
	identifier := stringArg(args, "user_identifier")
	if identifier == "" {
		return mcp.NewToolResultError("missing or invalid 'user_identifier' argument"), nil
	}
	updates := objectArg(args, "updates")
	if len(updates) == 0 {
		return mcp.NewToolResultError("missing or empty 'updates' argument"), nil
	}

	user, err := s.client.Users.UpdateProfile(ctx, identifier, updates)
	if err != nil {
		return errorResult(err), nil
	}

	return jsonResult(map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("Successfully updated profile for %s", identifier),
		"user":    user.AsMap(),
	}), nil
}

func (s *Server) handleReinviteUser(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := requestArgs(request)
	identifier := stringArg(args, "user_identifier")
	if identifier == "" {
		return mcp.NewToolResultError("missing or invalid 'user_identifier' argument"), nil
	}

	result, err := s.client.Users.Reactivate(ctx, identifier, boolArg(args, "send_email", true))
	if err != nil {
		return errorResult(err), nil
	}
	result["message"] = fmt.Sprintf("Successfully re-invited user %s", identifier)
	return jsonResult(result), nil
}

func (s *Server) handleUnlockUser(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := requestArgs(request)
	identifier := stringArg(args, "user_identifier")
	if identifier == "" {
		return mcp.NewToolResultError("missing or invalid 'user_identifier' argument"), nil
	}

	result, err := s.client.Users.Unlock(ctx, identifier)
	if err != nil {
		return errorResult(err), nil
	}
	result["message"] = fmt.Sprintf("Successfully unlocked account for %s", identifier)
	return jsonResult(result), nil
}

func (s *Server) handleResetUserPassword(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := requestArgs(request)
	identifier := stringArg(args, "user_identifier")
	if identifier == "" {
		return mcp.NewToolResultError("missing or invalid 'user_identifier' argument"), nil
	}

	result, err := s.client.Users.ResetPassword(ctx, identifier, boolArg(args, "send_email", true))
	if err != nil {
		return errorResult(err), nil
	}
	result["message"] = fmt.Sprintf("Successfully initiated password reset for %s", identifier)
	return jsonResult(result), nil
}

func (s *Server) handleGetUserGroups(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := requestArgs(request)
	identifier := stringArg(args, "user_identifier")
	if identifier == "" {
		return mcp.NewToolResultError("missing or invalid 'user_identifier' argument"), nil
	}

	groups, err := s.client.Users.Groups(ctx, identifier)
	if err != nil {
		return errorResult(err), nil
	}

	return jsonResult(map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("Successfully retrieved %d groups for %s", len(groups), identifier),
		"count":   len(groups),
		"groups":  groups,
	}), nil
}
