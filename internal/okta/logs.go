package okta

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"mcp-okta-support/pkg/logging"
)

// DefaultLogListLimit bounds log queries when the caller does not pass an
// explicit limit.
const DefaultLogListLimit = 100

// Log query sort orders.
const (
	SortAscending  = "ASCENDING"
	SortDescending = "DESCENDING"
)

// filterOperators are the Okta filter expression operators. A query string
// containing any of them (followed by a space) is routed as a structured
// filter rather than free-text search.
var filterOperators = []string{"eq ", "ne ", "sw ", "ew ", "co ", "gt ", "ge ", "lt ", "le "}

// LogManager provides Okta system log operations. It is a stateless facade
// over the dispatcher.
type LogManager struct {
	client *Client
}

// LogQuery describes a system log request. Since and Until are RFC3339
// timestamps and are forwarded to the API as given; Filter and Query are
// mutually independent upstream parameters.
type LogQuery struct {
	Since     string
	Until     string
	Filter    string
	Query     string
	Limit     int
	SortOrder string
}

// ActivitySummary aggregates recent system log activity for a time frame.
type ActivitySummary struct {
	Timeframe          string           `json:"timeframe"`
	Since              string           `json:"since"`
	TotalEvents        int              `json:"total_events"`
	FailedLogins       int              `json:"failed_logins"`
	PasswordResets     int              `json:"password_resets"`
	SuspiciousEvents   int              `json:"suspicious_events"`
	EventTypeBreakdown map[string]int   `json:"event_type_breakdown"`
	TopEventTypes      []EventTypeCount `json:"top_event_types"`
}

// EventTypeCount pairs an event type with its occurrence count.
type EventTypeCount struct {
	EventType string `json:"event_type"`
	Count     int    `json:"count"`
}

// GetLogs fetches system log events. This is the primitive every other log
// operation funnels into. Items keep upstream order; events that fail parsing
// are passed through raw.
func (m *LogManager) GetLogs(ctx context.Context, q LogQuery) (*ListResult, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLogListLimit
	}
	sortOrder := q.SortOrder
	if sortOrder == "" {
		sortOrder = SortDescending
	}
	if sortOrder != SortAscending && sortOrder != SortDescending {
		return nil, newValidationError("sort_order", "must be ASCENDING or DESCENDING")
	}

	params := map[string]string{
		"limit":     fmt.Sprintf("%d", limit),
		"sortOrder": sortOrder,
	}
	if q.Since != "" {
		ts, err := normalizeTimestamp(q.Since)
		if err != nil {
			return nil, newValidationError("since", err.Error())
		}
		params["since"] = ts
	}
	if q.Until != "" {
		ts, err := normalizeTimestamp(q.Until)
		if err != nil {
			return nil, newValidationError("until", err.Error())
		}
		params["until"] = ts
	}
	if q.Filter != "" {
		params["filter"] = q.Filter
	}
	if q.Query != "" {
		params["q"] = q.Query
	}

	logging.Info("Okta", "getting system logs (limit=%d filter=%t query=%t)",
		limit, q.Filter != "", q.Query != "")

	raw, links, err := m.client.RequestPaged(ctx, http.MethodGet, "/logs", params, nil, nil)
	if err != nil {
		return nil, err
	}

	items, err := decodeItems(raw)
	if err != nil {
		return nil, err
	}

	result := &ListResult{Links: links, Items: make([]map[string]interface{}, 0, len(items))}
	for _, item := range items {
		ev, err := ParseLogEvent(item)
		if err != nil {
			logging.Warn("Okta", "failed to parse log event, passing through raw: %v", err)
			result.Items = append(result.Items, rawItemMap(item))
			continue
		}
		result.Items = append(result.Items, ev.AsMap())
	}

	logging.Info("Okta", "retrieved %d log events", result.Count())
	return result, nil
}

// UserLogs fetches log events where the given user appears as actor or
// target.
func (m *LogManager) UserLogs(ctx context.Context, identifier, since string, limit int) (*ListResult, error) {
	id, err := validateIdentifier("user_identifier", identifier)
	if err != nil {
		return nil, err
	}

	logging.Info("Okta", "getting logs for user %s", id)

	// An email only ever appears as an alternate ID; other identifiers
	// may match either field.
	var parts []string
	if strings.Contains(id, "@") {
		parts = []string{
			fmt.Sprintf("actor.alternateId eq %q", id),
			fmt.Sprintf("target.alternateId eq %q", id),
		}
	} else {
		parts = []string{
			fmt.Sprintf("actor.id eq %q", id),
			fmt.Sprintf("target.id eq %q", id),
			fmt.Sprintf("actor.alternateId eq %q", id),
			fmt.Sprintf("target.alternateId eq %q", id),
		}
	}

	return m.GetLogs(ctx, LogQuery{
		Since:  since,
		Filter: strings.Join(parts, " or "),
		Limit:  limit,
	})
}

// ApplicationLogs fetches log events targeting the given application.
func (m *LogManager) ApplicationLogs(ctx context.Context, identifier, since string, limit int) (*ListResult, error) {
	id, err := validateIdentifier("app_identifier", identifier)
	if err != nil {
		return nil, err
	}

	logging.Info("Okta", "getting logs for application %s", id)

	parts := []string{
		fmt.Sprintf("target.id eq %q", id),
		fmt.Sprintf("target.alternateId eq %q", id),
		fmt.Sprintf("target.displayName eq %q", id),
	}

	return m.GetLogs(ctx, LogQuery{
		Since:  since,
		Filter: strings.Join(parts, " or "),
		Limit:  limit,
	})
}

// SearchLogs searches the system log. A query containing a filter operator
// is routed as a structured filter expression; anything else is sent as
// free-text search. Both paths share the GetLogs primitive.
func (m *LogManager) SearchLogs(ctx context.Context, query, since, until string, limit int) (*ListResult, error) {
	q, err := validateIdentifier("query", query)
	if err != nil {
		return nil, err
	}

	logging.Info("Okta", "searching logs: %s", q)

	if isFilterExpression(q) {
		return m.GetLogs(ctx, LogQuery{Since: since, Until: until, Filter: q, Limit: limit})
	}
	return m.GetLogs(ctx, LogQuery{Since: since, Until: until, Query: q, Limit: limit})
}

// FailedLogins fetches failed login attempts.
func (m *LogManager) FailedLogins(ctx context.Context, since string, limit int) (*ListResult, error) {
	logging.Info("Okta", "getting failed login attempts")
	return m.GetLogs(ctx, LogQuery{
		Since:  since,
		Filter: `eventType eq "user.session.start" and outcome.result eq "FAILURE"`,
		Limit:  limit,
	})
}

// PasswordResetEvents fetches password reset events.
func (m *LogManager) PasswordResetEvents(ctx context.Context, since string, limit int) (*ListResult, error) {
	logging.Info("Okta", "getting password reset events")
	return m.GetLogs(ctx, LogQuery{
		Since:  since,
		Filter: `eventType eq "user.account.reset_password"`,
		Limit:  limit,
	})
}

// AdminActions fetches actions performed by a specific admin user.
func (m *LogManager) AdminActions(ctx context.Context, adminIdentifier, since string, limit int) (*ListResult, error) {
	id, err := validateIdentifier("admin_identifier", adminIdentifier)
	if err != nil {
		return nil, err
	}

	logging.Info("Okta", "getting admin actions for %s", id)

	var filter string
	if strings.Contains(id, "@") {
		filter = fmt.Sprintf("actor.alternateId eq %q", id)
	} else {
		filter = fmt.Sprintf("actor.id eq %q or actor.alternateId eq %q", id, id)
	}

	return m.GetLogs(ctx, LogQuery{Since: since, Filter: filter, Limit: limit})
}

// SuspiciousActivity fetches warning and error severity events.
func (m *LogManager) SuspiciousActivity(ctx context.Context, since string, limit int) (*ListResult, error) {
	logging.Info("Okta", "getting suspicious activity")
	return m.GetLogs(ctx, LogQuery{
		Since:  since,
		Filter: `severity eq "WARN" or severity eq "ERROR"`,
		Limit:  limit,
	})
}

// RecentActivitySummary aggregates activity for the trailing number of
// hours. The subqueries fan out concurrently; each one is rate limited
// individually by the shared limiter.
func (m *LogManager) RecentActivitySummary(ctx context.Context, hours int) (*ActivitySummary, error) {
	if hours <= 0 {
		hours = 24
	}

	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour).Format(time.RFC3339)
	logging.Info("Okta", "building activity summary for the last %d hours", hours)

	var all, failed, resets, suspicious *ListResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		all, err = m.GetLogs(gctx, LogQuery{Since: since, Limit: 1000})
		return err
	})
	g.Go(func() (err error) {
		failed, err = m.FailedLogins(gctx, since, DefaultLogListLimit)
		return err
	})
	g.Go(func() (err error) {
		resets, err = m.PasswordResetEvents(gctx, since, DefaultLogListLimit)
		return err
	})
	g.Go(func() (err error) {
		suspicious, err = m.SuspiciousActivity(gctx, since, DefaultLogListLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	breakdown := map[string]int{}
	for _, item := range all.Items {
		eventType, _ := item["eventType"].(string)
		if eventType == "" {
			eventType = "unknown"
		}
		breakdown[eventType]++
	}

	top := make([]EventTypeCount, 0, len(breakdown))
	for et, n := range breakdown {
		top = append(top, EventTypeCount{EventType: et, Count: n})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].EventType < top[j].EventType
	})
	if len(top) > 10 {
		top = top[:10]
	}

	summary := &ActivitySummary{
		Timeframe:          fmt.Sprintf("Last %d hours", hours),
		Since:              since,
		TotalEvents:        all.Count(),
		FailedLogins:       failed.Count(),
		PasswordResets:     resets.Count(),
		SuspiciousEvents:   suspicious.Count(),
		EventTypeBreakdown: breakdown,
		TopEventTypes:      top,
	}

	logging.Info("Okta", "activity summary: %d events, %d failed logins, %d suspicious",
		summary.TotalEvents, summary.FailedLogins, summary.SuspiciousEvents)
	return summary, nil
}

// isFilterExpression reports whether the query contains an Okta filter
// operator.
func isFilterExpression(query string) bool {
	lower := strings.ToLower(query)
	for _, op := range filterOperators {
		if strings.Contains(lower, op) {
			return true
		}
	}
	return false
}

// normalizeTimestamp checks a caller-supplied timestamp and returns it in
// RFC3339 form. A trailing Z and an explicit offset are both accepted.
func normalizeTimestamp(ts string) (string, error) {
	parsed, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return "", fmt.Errorf("must be an RFC3339 timestamp: %v", err)
	}
	return parsed.Format(time.RFC3339), nil
}
