package okta

import (
	"context"
	"fmt"
	"net/http"

	"mcp-okta-support/pkg/logging"
)

// DefaultAppListLimit bounds application list requests when the caller does
// not pass an explicit limit.
const DefaultAppListLimit = 20

// ApplicationManager provides Okta application operations. It is a stateless
// facade over the dispatcher.
type ApplicationManager struct {
	client *Client
}

// ListApplicationsOptions are the optional parameters for List.
type ListApplicationsOptions struct {
	Limit  int
	Filter string
	Expand string
}

// narrowAppError converts any 404-tagged error into an application-scoped
// not-found error carrying the identifier; everything else passes through
// unchanged.
func narrowAppError(err error, identifier string) error {
	if e, ok := AsError(err); ok && (e.Status == http.StatusNotFound || IsNotFound(err)) {
		nf := newApplicationNotFound(identifier)
		nf.ErrorCode = e.ErrorCode
		nf.Causes = e.Causes
		return nf
	}
	return err
}

// List lists applications in the organization. Items keep upstream order;
// entries that fail parsing are passed through raw.
func (m *ApplicationManager) List(ctx context.Context, opts ListApplicationsOptions) (*ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultAppListLimit
	}

	params := map[string]string{"limit": fmt.Sprintf("%d", limit)}
	if opts.Filter != "" {
		params["filter"] = opts.Filter
	}
	if opts.Expand != "" {
		params["expand"] = opts.Expand
	}

	logging.Info("Okta", "listing applications (limit=%d filter=%t)", limit, opts.Filter != "")

	raw, links, err := m.client.RequestPaged(ctx, http.MethodGet, "/apps", params, nil, nil)
	if err != nil {
		return nil, err
	}

	items, err := decodeItems(raw)
	if err != nil {
		return nil, err
	}

	result := &ListResult{Links: links, Items: make([]map[string]interface{}, 0, len(items))}
	for _, item := range items {
		app, err := ParseApplication(item)
		if err != nil {
			logging.Warn("Okta", "failed to parse application in list, passing through raw: %v", err)
			result.Items = append(result.Items, rawItemMap(item))
			continue
		}
		result.Items = append(result.Items, app.AsMap())
	}

	logging.Info("Okta", "listed %d applications", result.Count())
	return result, nil
}

// Get fetches an application by ID or name.
func (m *ApplicationManager) Get(ctx context.Context, identifier string) (*Application, error) {
	id, err := validateIdentifier("app_identifier", identifier)
	if err != nil {
		return nil, err
	}

	logging.Info("Okta", "getting application %s", id)

	raw, err := m.client.Request(ctx, http.MethodGet, "/apps/"+encodePath(id), nil, nil, nil)
	if err != nil {
		return nil, narrowAppError(err, id)
	}

	app, err := ParseApplication(raw)
	if err != nil {
		return nil, fmt.Errorf("unexpected application response: %w", err)
	}

	logging.Info("Okta", "application %s retrieved (name=%s status=%s)", app.ID, app.Name, app.Status)
	return app, nil
}

// Update applies a configuration update to an application. Empty update
// payloads are rejected before any network call.
func (m *ApplicationManager) Update(ctx context.Context, identifier string, updates map[string]interface{}) (*Application, error) {
	id, err := validateIdentifier("app_identifier", identifier)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return nil, newValidationError("config_updates", "cannot be empty")
	}

	logging.Info("Okta", "updating application %s (%d fields)", id, len(updates))

	raw, err := m.client.Request(ctx, http.MethodPut, "/apps/"+encodePath(id), nil, updates, nil)
	if err != nil {
		return nil, narrowAppError(err, id)
	}

	app, err := ParseApplication(raw)
	if err != nil {
		return nil, fmt.Errorf("unexpected application response: %w", err)
	}

	logging.Info("Okta", "application %s updated", app.ID)
	return app, nil
}

// Users returns users assigned to an application, in upstream form.
func (m *ApplicationManager) Users(ctx context.Context, identifier string, limit int) ([]map[string]interface{}, error) {
	return m.assignments(ctx, identifier, "users", limit)
}

// Groups returns groups assigned to an application, in upstream form.
func (m *ApplicationManager) Groups(ctx context.Context, identifier string, limit int) ([]map[string]interface{}, error) {
	return m.assignments(ctx, identifier, "groups", limit)
}

func (m *ApplicationManager) assignments(ctx context.Context, identifier, kind string, limit int) ([]map[string]interface{}, error) {
	id, err := validateIdentifier("app_identifier", identifier)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultAppListLimit
	}

	logging.Info("Okta", "getting %s for application %s (limit=%d)", kind, id, limit)

	params := map[string]string{"limit": fmt.Sprintf("%d", limit)}
	raw, err := m.client.Request(ctx, http.MethodGet, "/apps/"+encodePath(id)+"/"+kind, params, nil, nil)
	if err != nil {
		return nil, narrowAppError(err, id)
	}

	items, err := decodeItems(raw)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		out = append(out, rawItemMap(item))
	}

	logging.Info("Okta", "application %s has %d %s", id, len(out), kind)
	return out, nil
}

// Activate activates an application.
func (m *ApplicationManager) Activate(ctx context.Context, identifier string) (map[string]interface{}, error) {
	return m.lifecycle(ctx, identifier, "activate")
}

// Deactivate deactivates an application.
func (m *ApplicationManager) Deactivate(ctx context.Context, identifier string) (map[string]interface{}, error) {
	return m.lifecycle(ctx, identifier, "deactivate")
}

func (m *ApplicationManager) lifecycle(ctx context.Context, identifier, action string) (map[string]interface{}, error) {
	id, err := validateIdentifier("app_identifier", identifier)
	if err != nil {
		return nil, err
	}

	logging.Info("Okta", "application %s: %s", id, action)

	raw, err := m.client.Request(ctx, http.MethodPost, "/apps/"+encodePath(id)+"/lifecycle/"+action, nil, nil, nil)
	if err != nil {
		return nil, narrowAppError(err, id)
	}

	logging.Info("Okta", "application %s: %s completed", id, action)
	return map[string]interface{}{
		"success":        true,
		"app_identifier": id,
		"action":         action,
		"result":         rawItemMap(raw),
	}, nil
}

// AssignUser assigns a user to an application with an optional app-specific
// profile.
func (m *ApplicationManager) AssignUser(ctx context.Context, identifier, userID string, profile map[string]interface{}) (map[string]interface{}, error) {
	id, err := validateIdentifier("app_identifier", identifier)
	if err != nil {
		return nil, err
	}
	uid, err := validateIdentifier("user_id", userID)
	if err != nil {
		return nil, err
	}

	logging.Info("Okta", "assigning user %s to application %s", uid, id)

	body := map[string]interface{}{
		"id":    uid,
		"scope": "USER",
	}
	if len(profile) > 0 {
		body["profile"] = profile
	}

	raw, err := m.client.Request(ctx, http.MethodPost, "/apps/"+encodePath(id)+"/users", nil, body, nil)
	if err != nil {
		return nil, narrowAppError(err, id)
	}

	logging.Info("Okta", "user %s assigned to application %s", uid, id)
	return map[string]interface{}{
		"success":        true,
		"app_identifier": id,
		"user_id":        uid,
		"action":         "assign_user",
		"result":         rawItemMap(raw),
	}, nil
}

// UnassignUser removes a user's assignment from an application.
func (m *ApplicationManager) UnassignUser(ctx context.Context, identifier, userID string) (map[string]interface{}, error) {
	id, err := validateIdentifier("app_identifier", identifier)
	if err != nil {
		return nil, err
	}
	uid, err := validateIdentifier("user_id", userID)
	if err != nil {
		return nil, err
	}

	logging.Info("Okta", "unassigning user %s from application %s", uid, id)

	if _, err := m.client.Request(ctx, http.MethodDelete, "/apps/"+encodePath(id)+"/users/"+encodePath(uid), nil, nil, nil); err != nil {
		return nil, narrowAppError(err, id)
	}

	logging.Info("Okta", "user %s unassigned from application %s", uid, id)
	return map[string]interface{}{
		"success":        true,
		"app_identifier": id,
		"user_id":        uid,
		"action":         "unassign_user",
	}, nil
}
