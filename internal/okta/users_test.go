package okta

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserJSON = `{
	"id": "00u1abcd",
	"status": "ACTIVE",
	"created": "2023-01-15T10:00:00.000Z",
	"lastUpdated": "2024-03-01T08:30:00.000Z",
	"profile": {"login": "jdoe@acme.com", "email": "jdoe@acme.com"}
}`

func TestGetUser(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/users/jdoe@acme.com", r.URL.Path)
		_, _ = w.Write([]byte(testUserJSON))
	})

	user, err := c.Users.GetUser(context.Background(), "jdoe@acme.com")
	require.NoError(t, err)
	assert.Equal(t, "00u1abcd", user.ID)
	assert.Equal(t, "ACTIVE", user.Status)
}

func TestGetUserBlankIdentifier(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	for _, identifier := range []string{"", "   ", "\t"} {
		_, err := c.Users.GetUser(context.Background(), identifier)
		require.True(t, IsValidation(err), "identifier %q", identifier)
		assert.Contains(t, err.Error(), "user_identifier")
	}

	// Validation failures never reach the transport.
	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
}

func TestGetUserNotFoundNarrowing(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		// Summary deliberately mentions neither "user" nor "app"; the
		// manager narrows on the status code alone.
		_, _ = w.Write([]byte(`{"errorSummary": "Resource does not exist", "errorCode": "E0000007"}`))
	})

	_, err := c.Users.GetUser(context.Background(), "ghost@acme.com")
	e, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindUserNotFound, e.Kind)
	assert.Contains(t, e.Message, "ghost@acme.com")
	assert.Equal(t, "E0000007", e.ErrorCode)
}

func TestGetUserIdentifierIsPathEscaped(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/users/j%20doe", r.URL.EscapedPath())
		_, _ = w.Write([]byte(testUserJSON))
	})

	_, err := c.Users.GetUser(context.Background(), "j doe")
	require.NoError(t, err)
}

func TestListUsersToleratesMalformedEntries(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "200", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`[
			` + testUserJSON + `,
			{"unexpected": "shape"},
			{"id": "00u2", "status": "SUSPENDED", "created": "2023-02-01T00:00:00Z", "lastUpdated": "2023-02-01T00:00:00Z"}
		]`))
	})

	result, err := c.Users.ListUsers(context.Background(), ListUsersOptions{})
	require.NoError(t, err)
	require.Equal(t, 3, result.Count())

	// The malformed entry passes through in raw form instead of aborting.
	assert.Equal(t, "shape", result.Items[1]["unexpected"])
	assert.Equal(t, "00u2", result.Items[2]["id"])
}

func TestListUsersSearchAndFilterParams(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `status eq "ACTIVE"`, r.URL.Query().Get("filter"))
		assert.Equal(t, "jane", r.URL.Query().Get("search"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := c.Users.ListUsers(context.Background(), ListUsersOptions{
		Filter: `status eq "ACTIVE"`,
		Search: "jane",
		Limit:  10,
	})
	require.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &payload))
		profile := payload["profile"].(map[string]interface{})
		assert.Equal(t, "Engineering", profile["department"])
		_, _ = w.Write([]byte(testUserJSON))
	})

	_, err := c.Users.UpdateProfile(context.Background(), "00u1abcd", map[string]interface{}{
		"department": "Engineering",
	})
	require.NoError(t, err)
}

func TestUpdateProfileEmptyUpdates(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := c.Users.UpdateProfile(context.Background(), "00u1abcd", nil)
	require.True(t, IsValidation(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
}

func TestReactivate(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/users/00u1abcd/lifecycle/reactivate", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("sendEmail"))
		_, _ = w.Write([]byte(`{"activationUrl": null}`))
	})

	result, err := c.Users.Reactivate(context.Background(), "00u1abcd", true)
	require.NoError(t, err)
	assert.Equal(t, true, result["success"])
	assert.Equal(t, "reactivate", result["action"])
	assert.Equal(t, true, result["email_sent"])
}

func TestUnlock(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/users/00u1abcd/lifecycle/unlock", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	result, err := c.Users.Unlock(context.Background(), "00u1abcd")
	require.NoError(t, err)
	assert.Equal(t, true, result["success"])
	assert.Equal(t, "unlock", result["action"])
}

func TestResetPassword(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/users/00u1abcd/credentials/reset_password", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"sendEmail": false}`, string(body))
		_, _ = w.Write([]byte(`{"resetPasswordUrl": "https://acme.okta.com/reset/abc"}`))
	})

	result, err := c.Users.ResetPassword(context.Background(), "00u1abcd", false)
	require.NoError(t, err)
	assert.Equal(t, false, result["email_sent"])

	inner := result["result"].(map[string]interface{})
	assert.Equal(t, "https://acme.okta.com/reset/abc", inner["resetPasswordUrl"])
}

func TestUserGroups(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/users/00u1abcd/groups", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id": "g1", "profile": {"name": "Everyone"}}]`))
	})

	groups, err := c.Users.Groups(context.Background(), "00u1abcd")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "g1", groups[0]["id"])
}

func TestUserAppLinks(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/users/00u1abcd/appLinks", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id": "l1", "label": "Salesforce"}, {"id": "l2", "label": "Slack"}]`))
	})

	links, err := c.Users.AppLinks(context.Background(), "00u1abcd")
	require.NoError(t, err)
	assert.Len(t, links, 2)
}
