package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcp-okta-support/internal/config"
	"mcp-okta-support/internal/okta"
)

// newTestServer builds a Server whose Okta client talks to an httptest
// backend, returning the server and a transport hit counter.
func newTestServer(t *testing.T, handler http.HandlerFunc) (*Server, *int32) {
	t.Helper()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	settings := &config.Settings{
		OrgURL:         srv.URL,
		APIToken:       "test-token",
		ServerName:     "okta-support",
		ServerVersion:  "test",
		RateLimit:      1000,
		TimeoutSeconds: 5,
		LogLevel:       "ERROR",
	}
	client, err := okta.NewClient(settings)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return New(client, settings, "stdio"), &hits
}

func newToolRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return text.Text
}

func resultJSON(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &payload))
	return payload
}

func TestGetUserDetailsMissingIdentifier(t *testing.T) {
	s, hits := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})

	result, err := s.handleGetUserDetails(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)

	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "user_identifier")
	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
}

func TestGetUserDetailsSuccess(t *testing.T) {
	s, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/users/jdoe@acme.com", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"id": "00u1",
			"status": "ACTIVE",
			"created": "2023-01-01T00:00:00.000Z",
			"lastUpdated": "2024-01-01T00:00:00.000Z",
			"profile": {"login": "jdoe@acme.com", "email": "jdoe@acme.com"}
		}`))
	})

	result, err := s.handleGetUserDetails(context.Background(),
		newToolRequest(map[string]interface{}{"user_identifier": "jdoe@acme.com"}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	payload := resultJSON(t, result)
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, "Successfully retrieved user details for jdoe@acme.com", payload["message"])
	user := payload["user"].(map[string]interface{})
	assert.Equal(t, "00u1", user["id"])
}

func TestGetUserDetailsNotFound(t *testing.T) {
	s, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errorSummary": "Not found: Resource not found: missing (User)", "errorCode": "E0000007"}`))
	})

	result, err := s.handleGetUserDetails(context.Background(),
		newToolRequest(map[string]interface{}{"user_identifier": "missing"}))
	require.NoError(t, err)
	require.True(t, result.IsError)

	var details map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &details))
	assert.Equal(t, "user_not_found", details["kind"])
	assert.Equal(t, "E0000007", details["error_code"])
	assert.Contains(t, details["message"], "missing")
}

func TestListUsersPassesOptions(t *testing.T) {
	s, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, `status eq "ACTIVE"`, q.Get("filter"))
		assert.Equal(t, "5", q.Get("limit"))
		_, _ = w.Write([]byte(`[]`))
	})

	result, err := s.handleListUsers(context.Background(), newToolRequest(map[string]interface{}{
		"filter": `status eq "ACTIVE"`,
		"limit":  float64(5),
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	payload := resultJSON(t, result)
	assert.Equal(t, "Successfully retrieved 0 users", payload["message"])
	assert.Equal(t, float64(0), payload["count"])
	assert.Equal(t, false, payload["has_more"])
}

func TestUpdateUserProfileRequiresUpdates(t *testing.T) {
	s, hits := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})

	result, err := s.handleUpdateUserProfile(context.Background(),
		newToolRequest(map[string]interface{}{"user_identifier": "00u1"}))
	require.NoError(t, err)

	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "updates")
	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
}

func TestResetUserPasswordDefaultsSendEmail(t *testing.T) {
	s, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, true, payload["sendEmail"])
		_, _ = w.Write([]byte(`{"resetPasswordUrl": "https://acme.okta.com/reset/abc"}`))
	})

	result, err := s.handleResetUserPassword(context.Background(),
		newToolRequest(map[string]interface{}{"user_identifier": "00u1"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
}

func TestSearchLogsRequiresQuery(t *testing.T) {
	s, hits := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})

	result, err := s.handleSearchLogs(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)

	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "query")
	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
}

func TestAssignUserToApplicationRequiresBothIDs(t *testing.T) {
	s, hits := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})

	result, err := s.handleAssignUserToApplication(context.Background(),
		newToolRequest(map[string]interface{}{"app_identifier": "0oa1"}))
	require.NoError(t, err)

	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "user_id")
	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
}

func TestGetFailedLoginsSuccessPayload(t *testing.T) {
	s, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	result, err := s.handleGetFailedLogins(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.False(t, result.IsError)

	payload := resultJSON(t, result)
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, "Successfully retrieved 0 failed login attempts", payload["message"])
	assert.Equal(t, float64(0), payload["count"])
}

func TestIntArgCoercion(t *testing.T) {
	args := map[string]interface{}{
		"float": float64(42),
		"int":   7,
		"text":  "nope",
	}
	assert.Equal(t, 42, intArg(args, "float", 0))
	assert.Equal(t, 7, intArg(args, "int", 0))
	assert.Equal(t, 9, intArg(args, "text", 9))
	assert.Equal(t, 9, intArg(args, "absent", 9))
}

func TestBoolArgFallback(t *testing.T) {
	args := map[string]interface{}{"flag": false}
	assert.False(t, boolArg(args, "flag", true))
	assert.True(t, boolArg(args, "absent", true))
}

func TestRequestArgsNonObjectPayload(t *testing.T) {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = "not an object"
	assert.Empty(t, requestArgs(req))
}
