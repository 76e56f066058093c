package okta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAppJSON(id, label string) string {
	return fmt.Sprintf(`{
		"id": %q,
		"name": "app_%s",
		"label": %q,
		"status": "ACTIVE",
		"created": "2022-06-01T00:00:00.000Z",
		"lastUpdated": "2024-01-01T00:00:00.000Z"
	}`, id, id, label)
}

func TestListApplicationsToleratesMalformedEntries(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/apps", r.URL.Path)
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		apps := make([]string, 0, 7)
		for i := 0; i < 6; i++ {
			apps = append(apps, testAppJSON(fmt.Sprintf("0oa%d", i), fmt.Sprintf("App %d", i)))
		}
		apps = append(apps, `{"label": "missing required fields"}`)
		_, _ = w.Write([]byte("[" + apps[0] + "," + apps[1] + "," + apps[2] + "," + apps[3] + "," + apps[4] + "," + apps[5] + "," + apps[6] + "]"))
	})

	result, err := c.Applications.List(context.Background(), ListApplicationsOptions{})
	require.NoError(t, err)
	assert.Equal(t, 7, result.Count())
	assert.Equal(t, "missing required fields", result.Items[6]["label"])
}

func TestGetApplication(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/apps/0oa1", r.URL.Path)
		_, _ = w.Write([]byte(testAppJSON("0oa1", "Salesforce")))
	})

	app, err := c.Applications.Get(context.Background(), "0oa1")
	require.NoError(t, err)
	assert.Equal(t, "Salesforce", app.Label)
	assert.True(t, app.IsActive())
}

func TestGetApplicationNotFoundNarrowing(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errorSummary": "Resource does not exist"}`))
	})

	_, err := c.Applications.Get(context.Background(), "0oa-missing")
	e, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindApplicationNotFound, e.Kind)
	assert.Contains(t, e.Message, "0oa-missing")
}

func TestUpdateApplication(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		body, _ := io.ReadAll(r.Body)
		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "Renamed", payload["label"])
		_, _ = w.Write([]byte(testAppJSON("0oa1", "Renamed")))
	})

	app, err := c.Applications.Update(context.Background(), "0oa1", map[string]interface{}{"label": "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", app.Label)
}

func TestUpdateApplicationEmptyUpdates(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := c.Applications.Update(context.Background(), "0oa1", map[string]interface{}{})
	require.True(t, IsValidation(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
}

func TestApplicationAssignments(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/apps/0oa1/users":
			_, _ = w.Write([]byte(`[{"id": "00u1", "scope": "USER"}]`))
		case "/api/v1/apps/0oa1/groups":
			_, _ = w.Write([]byte(`[{"id": "g1"}, {"id": "g2"}]`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	users, err := c.Applications.Users(context.Background(), "0oa1", 0)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	groups, err := c.Applications.Groups(context.Background(), "0oa1", 0)
	require.NoError(t, err)
	assert.Len(t, groups, 2)
}

func TestApplicationLifecycle(t *testing.T) {
	var lastPath string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		lastPath = r.URL.Path
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusOK)
	})

	result, err := c.Applications.Activate(context.Background(), "0oa1")
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/apps/0oa1/lifecycle/activate", lastPath)
	assert.Equal(t, "activate", result["action"])

	result, err = c.Applications.Deactivate(context.Background(), "0oa1")
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/apps/0oa1/lifecycle/deactivate", lastPath)
	assert.Equal(t, "deactivate", result["action"])
}

func TestAssignUser(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/apps/0oa1/users", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "00u1", payload["id"])
		assert.Equal(t, "USER", payload["scope"])
		profile := payload["profile"].(map[string]interface{})
		assert.Equal(t, "jdoe", profile["userName"])
		_, _ = w.Write([]byte(`{"id": "00u1", "scope": "USER"}`))
	})

	result, err := c.Applications.AssignUser(context.Background(), "0oa1", "00u1",
		map[string]interface{}{"userName": "jdoe"})
	require.NoError(t, err)
	assert.Equal(t, true, result["success"])
	assert.Equal(t, "assign_user", result["action"])
}

func TestAssignUserWithoutProfileOmitsField(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &payload))
		_, hasProfile := payload["profile"]
		assert.False(t, hasProfile)
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := c.Applications.AssignUser(context.Background(), "0oa1", "00u1", nil)
	require.NoError(t, err)
}

func TestUnassignUser(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/apps/0oa1/users/00u1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	result, err := c.Applications.UnassignUser(context.Background(), "0oa1", "00u1")
	require.NoError(t, err)
	assert.Equal(t, true, result["success"])
	assert.Equal(t, "unassign_user", result["action"])
}

func TestAssignUserBlankUserID(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := c.Applications.AssignUser(context.Background(), "0oa1", "  ", nil)
	require.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "user_id")
	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
}
