package server

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"mcp-okta-support/pkg/logging"
)

// registerResources registers the informational okta:// and server://
// resources.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(
		"okta://org/info",
		"Okta organization information: org URL, authentication type, supported operations",
	), s.handleOrgInfoResource)

	s.mcpServer.AddResource(mcp.NewResource(
		"okta://templates/user_update",
		"Template and supported attributes for user profile updates",
	), s.handleUserUpdateTemplateResource)

	s.mcpServer.AddResource(mcp.NewResource(
		"okta://templates/application_config",
		"Template and configurable settings for application configuration updates",
	), s.handleAppConfigTemplateResource)

	s.mcpServer.AddResource(mcp.NewResource(
		"okta://examples/log_queries",
		"Common system log search query examples",
	), s.handleLogQueryExamplesResource)

	s.mcpServer.AddResource(mcp.NewResource(
		"server://info",
		"MCP server name, version, and configuration summary",
	), s.handleServerInfoResource)

	s.mcpServer.AddResource(mcp.NewResource(
		"server://health",
		"Server health including the current rate limiter state",
	), s.handleServerHealthResource)

	logging.Info("Server", "registered MCP resources")
}

// jsonResourceContents marshals a value as the single JSON content of a
// resource read.
func jsonResourceContents(uri string, v interface{}) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleOrgInfoResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResourceContents("okta://org/info", map[string]interface{}{
		"org_url":             s.settings.OrgURL,
		"server_name":         s.settings.ServerName,
		"server_version":      s.settings.ServerVersion,
		"authentication_type": s.settings.AuthMethod(),
		"supported_operations": []string{
			"user_management",
			"application_management",
			"system_logs",
		},
	})
}

func (s *Server) handleUserUpdateTemplateResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResourceContents("okta://templates/user_update", map[string]interface{}{
		"description": "Template for updating user profile attributes",
		"example": map[string]interface{}{
			"firstName":  "John",
			"lastName":   "Doe",
			"email":      "john.doe@company.com",
			"title":      "Software Engineer",
			"department": "Engineering",
			"manager":    "jane.smith@company.com",
		},
		"supported_attributes": []string{
			"firstName", "lastName", "email", "title", "department",
			"manager", "mobilePhone", "city", "state", "zipCode", "countryCode",
		},
	})
}

func (s *Server) handleAppConfigTemplateResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResourceContents("okta://templates/application_config", map[string]interface{}{
		"description": "Template for updating application configuration",
		"example": map[string]interface{}{
			"label": "My Application",
			"settings": map[string]interface{}{
				"app": map[string]interface{}{
					"baseUrl":           "https://myapp.company.com",
					"autoSubmitToolbar": false,
					"hideIOS":           false,
					"hideWeb":           false,
				},
				"signOn": map[string]interface{}{
					"defaultRelayState": "",
					"ssoAcsUrl":         "https://myapp.company.com/sso/saml",
					"idpIssuer":         "http://www.okta.com/${org.externalKey}",
					"audience":          "https://myapp.company.com",
				},
			},
		},
		"configurable_settings": []string{
			"label", "visibility", "settings.app", "settings.signOn", "features",
		},
	})
}

func (s *Server) handleLogQueryExamplesResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResourceContents("okta://examples/log_queries", map[string]interface{}{
		"description": "Common log search query examples",
		"examples": map[string]interface{}{
			"failed_logins": map[string]string{
				"query":       `eventType eq "user.session.start" and outcome.result eq "FAILURE"`,
				"description": "Find failed login attempts",
			},
			"password_resets": map[string]string{
				"query":       `eventType eq "user.account.reset_password"`,
				"description": "Find password reset events",
			},
			"app_assignments": map[string]string{
				"query":       `eventType eq "application.user_membership.add"`,
				"description": "Find application assignment events",
			},
			"user_creations": map[string]string{
				"query":       `eventType eq "user.lifecycle.create"`,
				"description": "Find user creation events",
			},
			"admin_actions": map[string]string{
				"query":       `actor.type eq "User" and actor.alternateId eq "admin@company.com"`,
				"description": "Find actions by a specific admin user",
			},
			"suspicious_activity": map[string]string{
				"query":       `severity eq "WARN" or severity eq "ERROR"`,
				"description": "Find warning and error events",
			},
		},
		"supported_filters": []string{
			"eventType", "outcome.result", "actor.alternateId",
			"target.alternateId", "severity", "published",
		},
	})
}

func (s *Server) handleServerInfoResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResourceContents("server://info", map[string]interface{}{
		"name":            s.settings.ServerName,
		"version":         s.settings.ServerVersion,
		"transport":       s.transport,
		"org_url":         s.settings.OrgURL,
		"rate_limit":      s.settings.RateLimit,
		"timeout_seconds": s.settings.TimeoutSeconds,
	})
}

func (s *Server) handleServerHealthResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	snapshot := s.client.RateLimit()
	return jsonResourceContents("server://health", map[string]interface{}{
		"status": "ok",
		"rate_limiter": map[string]interface{}{
			"requests_per_minute": snapshot.RequestsPerMinute,
			"window_size":         snapshot.WindowSize,
			"server_limit":        snapshot.ServerLimit,
			"server_remaining":    snapshot.ServerRemaining,
			"server_reset":        snapshot.ServerReset,
		},
	})
}
