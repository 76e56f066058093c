package okta

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// ListResult is the outcome of a list operation. Items preserve upstream
// order; entries that failed read-model parsing are included in their raw
// form instead of aborting the list. Links carries any pagination URLs from
// the response Link header.
type ListResult struct {
	Items []map[string]interface{}
	Links PageLinks
}

// Count returns the number of items.
func (r *ListResult) Count() int { return len(r.Items) }

// decodeItems splits a JSON array payload into its raw elements.
func decodeItems(raw json.RawMessage) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("expected a JSON array response: %w", err)
	}
	return items, nil
}

// rawItemMap decodes a single list element into a plain map, used as the
// passthrough form when read-model parsing fails.
func rawItemMap(item json.RawMessage) map[string]interface{} {
	var m map[string]interface{}
	if err := json.Unmarshal(item, &m); err != nil {
		return map[string]interface{}{"raw": string(item)}
	}
	return m
}

// validateIdentifier trims the value and fails with a validation error naming
// the field when nothing is left. Validation happens before any network call.
func validateIdentifier(field, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", newValidationError(field, "cannot be empty")
	}
	return trimmed, nil
}

// encodePath percent-encodes an identifier for use as a path segment.
func encodePath(identifier string) string {
	return url.PathEscape(identifier)
}
