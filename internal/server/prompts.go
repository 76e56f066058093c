package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// registerPrompts registers the support-agent prompts.
func (s *Server) registerPrompts() {
	troubleshootPrompt := mcp.NewPrompt("troubleshoot_user_access",
		mcp.WithPromptDescription("Systematic investigation of a user's access problem"),
		mcp.WithArgument("user_identifier",
			mcp.ArgumentDescription("User ID, login, or email address of the affected user"),
			mcp.RequiredArgument(),
		),
	)
	s.mcpServer.AddPrompt(troubleshootPrompt, s.handleTroubleshootUserAccess)

	investigatePrompt := mcp.NewPrompt("investigate_security_event",
		mcp.WithPromptDescription("Investigation of a suspicious event in the system log"),
		mcp.WithArgument("query",
			mcp.ArgumentDescription("Log search query or description of the event to investigate"),
			mcp.RequiredArgument(),
		),
	)
	s.mcpServer.AddPrompt(investigatePrompt, s.handleInvestigateSecurityEvent)
}

func (s *Server) handleTroubleshootUserAccess(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	identifier := request.Params.Arguments["user_identifier"]
	if identifier == "" {
		return nil, fmt.Errorf("missing required argument: user_identifier")
	}

	text := fmt.Sprintf(`Investigate why user %q cannot access Okta or an assigned application.

Work through these steps, using the available tools, and report the evidence behind each conclusion:

1. Check the account with get_user_details. Note the status: LOCKED_OUT means the account can be unlocked, DEPROVISIONED needs an admin, PROVISIONED means the activation was never completed and the user can be re-invited.
2. Review recent activity with get_user_logs for the last 24 hours. Look for failed login attempts, lockout events, and policy denials.
3. If the issue concerns a specific application, check the user's assignment with get_user_groups and the application with get_application_details.
4. Identify the root cause from the evidence, not from assumptions.
5. Propose a fix. Ask for confirmation before running unlock_user_account, reset_user_password, or reinvite_user.`, identifier)

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Troubleshoot access for %s", identifier),
		Messages: []mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
		},
	}, nil
}

func (s *Server) handleInvestigateSecurityEvent(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	query := request.Params.Arguments["query"]
	if query == "" {
		return nil, fmt.Errorf("missing required argument: query")
	}

	text := fmt.Sprintf(`Investigate the following security concern in the Okta system log: %s

Steps:

1. Run search_logs with a filter expression matching the concern. Widen the time window with since/until if the first search comes back empty.
2. Pull surrounding context: get_failed_logins for authentication failures, get_user_logs for every user that appears as an actor or target.
3. Summarize who did what, when, from where (client IP and user agent from the events), and whether the outcome was SUCCESS or FAILURE.
4. Classify the finding: expected behavior, misconfiguration, or potential compromise. State the evidence for the classification.
5. Recommend follow-up actions. Do not change any account or application without explicit confirmation.`, query)

	return &mcp.GetPromptResult{
		Description: "Investigate a security event",
		Messages: []mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
		},
	}, nil
}
