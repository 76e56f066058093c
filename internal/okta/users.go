package okta

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"mcp-okta-support/pkg/logging"
)

// DefaultUserListLimit bounds user list requests when the caller does not
// pass an explicit limit.
const DefaultUserListLimit = 200

// UserManager provides Okta user operations. It is a stateless facade over
// the dispatcher.
type UserManager struct {
	client *Client
}

// ListUsersOptions are the optional parameters for ListUsers.
type ListUsersOptions struct {
	Limit  int
	Filter string
	Search string
}

// narrowUserError converts any 404-tagged error into a user-scoped not-found
// error carrying the identifier; everything else passes through unchanged.
func narrowUserError(err error, identifier string) error {
	if e, ok := AsError(err); ok && (e.Status == http.StatusNotFound || IsNotFound(err)) {
		nf := newUserNotFound(identifier)
		nf.ErrorCode = e.ErrorCode
		nf.Causes = e.Causes
		return nf
	}
	return err
}

// GetUser fetches a user by ID, email or login.
func (m *UserManager) GetUser(ctx context.Context, identifier string) (*User, error) {
	id, err := validateIdentifier("user_identifier", identifier)
	if err != nil {
		return nil, err
	}

	logging.Info("Okta", "getting user %s", id)

	raw, err := m.client.Request(ctx, http.MethodGet, "/users/"+encodePath(id), nil, nil, nil)
	if err != nil {
		return nil, narrowUserError(err, id)
	}

	user, err := ParseUser(raw)
	if err != nil {
		return nil, fmt.Errorf("unexpected user response: %w", err)
	}

	logging.Info("Okta", "user %s retrieved (status=%s)", user.ID, user.Status)
	return user, nil
}

// ListUsers lists users with optional filter and search expressions. Items
// keep upstream order; entries that fail parsing are passed through raw.
func (m *UserManager) ListUsers(ctx context.Context, opts ListUsersOptions) (*ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultUserListLimit
	}

	params := map[string]string{"limit": fmt.Sprintf("%d", limit)}
	if opts.Filter != "" {
		params["filter"] = opts.Filter
	}
	if opts.Search != "" {
		params["search"] = opts.Search
	}

	logging.Info("Okta", "listing users (limit=%d filter=%t search=%t)",
		limit, opts.Filter != "", opts.Search != "")

	raw, links, err := m.client.RequestPaged(ctx, http.MethodGet, "/users", params, nil, nil)
	if err != nil {
		return nil, err
	}

	items, err := decodeItems(raw)
	if err != nil {
		return nil, err
	}

	result := &ListResult{Links: links, Items: make([]map[string]interface{}, 0, len(items))}
	for _, item := range items {
		user, err := ParseUser(item)
		if err != nil {
			logging.Warn("Okta", "failed to parse user in list, passing through raw: %v", err)
			result.Items = append(result.Items, rawItemMap(item))
			continue
		}
		result.Items = append(result.Items, user.AsMap())
	}

	logging.Info("Okta", "listed %d users", result.Count())
	return result, nil
}

// UpdateProfile applies a partial profile update to a user. Empty update
// payloads are rejected before any network call.
func (m *UserManager) UpdateProfile(ctx context.Context, identifier string, updates map[string]interface{}) (*User, error) {
	id, err := validateIdentifier("user_identifier", identifier)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return nil, newValidationError("profile_updates", "cannot be empty")
	}

	logging.Info("Okta", "updating profile for user %s (%d fields)", id, len(updates))

	body := map[string]interface{}{"profile": updates}
	raw, err := m.client.Request(ctx, http.MethodPost, "/users/"+encodePath(id), nil, body, nil)
	if err != nil {
		return nil, narrowUserError(err, id)
	}

	user, err := ParseUser(raw)
	if err != nil {
		return nil, fmt.Errorf("unexpected user response: %w", err)
	}

	logging.Info("Okta", "profile updated for user %s", user.ID)
	return user, nil
}

// Reactivate re-invites a user, optionally sending the activation email.
func (m *UserManager) Reactivate(ctx context.Context, identifier string, sendEmail bool) (map[string]interface{}, error) {
	id, err := validateIdentifier("user_identifier", identifier)
	if err != nil {
		return nil, err
	}

	logging.Info("Okta", "reactivating user %s (email=%t)", id, sendEmail)

	params := map[string]string{"sendEmail": fmt.Sprintf("%t", sendEmail)}
	raw, err := m.client.Request(ctx, http.MethodPost, "/users/"+encodePath(id)+"/lifecycle/reactivate", params, nil, nil)
	if err != nil {
		return nil, narrowUserError(err, id)
	}

	return m.lifecycleResult(id, "reactivate", raw, map[string]interface{}{"email_sent": sendEmail}), nil
}

// Unlock unlocks a locked user account.
func (m *UserManager) Unlock(ctx context.Context, identifier string) (map[string]interface{}, error) {
	id, err := validateIdentifier("user_identifier", identifier)
	if err != nil {
		return nil, err
	}

	logging.Info("Okta", "unlocking user %s", id)

	raw, err := m.client.Request(ctx, http.MethodPost, "/users/"+encodePath(id)+"/lifecycle/unlock", nil, nil, nil)
	if err != nil {
		return nil, narrowUserError(err, id)
	}

	return m.lifecycleResult(id, "unlock", raw, nil), nil
}

// ResetPassword starts a password reset for the user, optionally sending the
// reset email.
func (m *UserManager) ResetPassword(ctx context.Context, identifier string, sendEmail bool) (map[string]interface{}, error) {
	id, err := validateIdentifier("user_identifier", identifier)
	if err != nil {
		return nil, err
	}

	logging.Info("Okta", "resetting password for user %s (email=%t)", id, sendEmail)

	body := map[string]interface{}{"sendEmail": sendEmail}
	raw, err := m.client.Request(ctx, http.MethodPost, "/users/"+encodePath(id)+"/credentials/reset_password", nil, body, nil)
	if err != nil {
		return nil, narrowUserError(err, id)
	}

	return m.lifecycleResult(id, "reset_password", raw, map[string]interface{}{"email_sent": sendEmail}), nil
}

// Groups returns the groups a user belongs to, in upstream form.
func (m *UserManager) Groups(ctx context.Context, identifier string) ([]map[string]interface{}, error) {
	id, err := validateIdentifier("user_identifier", identifier)
	if err != nil {
		return nil, err
	}

	logging.Info("Okta", "getting groups for user %s", id)

	raw, err := m.client.Request(ctx, http.MethodGet, "/users/"+encodePath(id)+"/groups", nil, nil, nil)
	if err != nil {
		return nil, narrowUserError(err, id)
	}

	items, err := decodeItems(raw)
	if err != nil {
		return nil, err
	}
	groups := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		groups = append(groups, rawItemMap(item))
	}

	logging.Info("Okta", "user %s belongs to %d groups", id, len(groups))
	return groups, nil
}

// AppLinks returns the application links assigned to a user, in upstream
// form.
func (m *UserManager) AppLinks(ctx context.Context, identifier string) ([]map[string]interface{}, error) {
	id, err := validateIdentifier("user_identifier", identifier)
	if err != nil {
		return nil, err
	}

	logging.Info("Okta", "getting app links for user %s", id)

	raw, err := m.client.Request(ctx, http.MethodGet, "/users/"+encodePath(id)+"/appLinks", nil, nil, nil)
	if err != nil {
		return nil, narrowUserError(err, id)
	}

	items, err := decodeItems(raw)
	if err != nil {
		return nil, err
	}
	apps := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		apps = append(apps, rawItemMap(item))
	}

	logging.Info("Okta", "user %s has %d app links", id, len(apps))
	return apps, nil
}

// lifecycleResult assembles the standard payload for lifecycle operations.
func (m *UserManager) lifecycleResult(identifier, action string, raw json.RawMessage, extra map[string]interface{}) map[string]interface{} {
	result := map[string]interface{}{
		"success":         true,
		"user_identifier": identifier,
		"action":          action,
		"result":          rawItemMap(raw),
	}
	for k, v := range extra {
		result[k] = v
	}
	logging.Info("Okta", "user %s: %s completed", identifier, action)
	return result
}
