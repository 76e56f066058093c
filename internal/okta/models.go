package okta

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// User is the read model for an Okta user. Unknown upstream fields are
// tolerated; only the required fields are validated at parse time. Profile
// attributes stay in their raw map form so arbitrary custom attributes
// survive a round trip.
type User struct {
	ID              string                 `json:"id"`
	Status          string                 `json:"status"`
	Created         time.Time              `json:"created"`
	Activated       *time.Time             `json:"activated,omitempty"`
	StatusChanged   *time.Time             `json:"statusChanged,omitempty"`
	LastLogin       *time.Time             `json:"lastLogin,omitempty"`
	LastUpdated     time.Time              `json:"lastUpdated"`
	PasswordChanged *time.Time             `json:"passwordChanged,omitempty"`
	Type            map[string]string      `json:"type,omitempty"`
	Profile         map[string]interface{} `json:"profile,omitempty"`
	Credentials     map[string]interface{} `json:"credentials,omitempty"`
	Links           map[string]interface{} `json:"_links,omitempty"`
}

// ParseUser decodes a user payload and validates its required fields.
func ParseUser(data []byte) (*User, error) {
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("failed to parse user: %w", err)
	}
	if u.ID == "" {
		return nil, fmt.Errorf("user payload missing required field id")
	}
	if u.Status == "" {
		return nil, fmt.Errorf("user payload missing required field status")
	}
	if u.Created.IsZero() {
		return nil, fmt.Errorf("user payload missing required field created")
	}
	if u.LastUpdated.IsZero() {
		return nil, fmt.Errorf("user payload missing required field lastUpdated")
	}
	return &u, nil
}

func (u *User) profileString(key string) string {
	if v, ok := u.Profile[key].(string); ok {
		return v
	}
	return ""
}

// Login returns the user's login from the profile, if present.
func (u *User) Login() string { return u.profileString("login") }

// Email returns the user's email from the profile, if present.
func (u *User) Email() string { return u.profileString("email") }

// DisplayName returns the friendliest available name for the user.
func (u *User) DisplayName() string {
	first := u.profileString("firstName")
	last := u.profileString("lastName")
	if first != "" && last != "" {
		return first + " " + last
	}
	if login := u.Login(); login != "" {
		return login
	}
	if email := u.Email(); email != "" {
		return email
	}
	return u.ID
}

// AsMap returns the user as a normalized mapping.
func (u *User) AsMap() map[string]interface{} {
	return structToMap(u)
}

// Application is the read model for an Okta application.
type Application struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Label         string                 `json:"label"`
	Status        string                 `json:"status"`
	Created       time.Time              `json:"created"`
	LastUpdated   time.Time              `json:"lastUpdated"`
	Accessibility map[string]interface{} `json:"accessibility,omitempty"`
	Visibility    map[string]interface{} `json:"visibility,omitempty"`
	Features      []string               `json:"features,omitempty"`
	SignOnMode    string                 `json:"signOnMode,omitempty"`
	Credentials   map[string]interface{} `json:"credentials,omitempty"`
	Settings      map[string]interface{} `json:"settings,omitempty"`
	Links         map[string]interface{} `json:"_links,omitempty"`
}

// ParseApplication decodes an application payload and validates its required
// fields.
func ParseApplication(data []byte) (*Application, error) {
	var a Application
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to parse application: %w", err)
	}
	if a.ID == "" {
		return nil, fmt.Errorf("application payload missing required field id")
	}
	if a.Name == "" {
		return nil, fmt.Errorf("application payload missing required field name")
	}
	if a.Status == "" {
		return nil, fmt.Errorf("application payload missing required field status")
	}
	if a.Created.IsZero() {
		return nil, fmt.Errorf("application payload missing required field created")
	}
	if a.LastUpdated.IsZero() {
		return nil, fmt.Errorf("application payload missing required field lastUpdated")
	}
	return &a, nil
}

// IsActive reports whether the application status is ACTIVE.
func (a *Application) IsActive() bool {
	return a.Status == "ACTIVE"
}

// AsMap returns the application as a normalized mapping.
func (a *Application) AsMap() map[string]interface{} {
	return structToMap(a)
}

// LogEvent is the read model for an Okta system log event.
type LogEvent struct {
	UUID                  string                   `json:"uuid"`
	Published             time.Time                `json:"published"`
	EventType             string                   `json:"eventType"`
	Version               string                   `json:"version,omitempty"`
	Severity              string                   `json:"severity,omitempty"`
	LegacyEventType       string                   `json:"legacyEventType,omitempty"`
	DisplayMessage        string                   `json:"displayMessage,omitempty"`
	Actor                 map[string]interface{}   `json:"actor,omitempty"`
	Client                map[string]interface{}   `json:"client,omitempty"`
	Request               map[string]interface{}   `json:"request,omitempty"`
	Outcome               map[string]interface{}   `json:"outcome,omitempty"`
	Target                []map[string]interface{} `json:"target,omitempty"`
	Transaction           map[string]interface{}   `json:"transaction,omitempty"`
	DebugContext          map[string]interface{}   `json:"debugContext,omitempty"`
	AuthenticationContext map[string]interface{}   `json:"authenticationContext,omitempty"`
	SecurityContext       map[string]interface{}   `json:"securityContext,omitempty"`
}

// ParseLogEvent decodes a system log event and validates its required fields.
func ParseLogEvent(data []byte) (*LogEvent, error) {
	var ev LogEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("failed to parse log event: %w", err)
	}
	if ev.UUID == "" {
		return nil, fmt.Errorf("log event payload missing required field uuid")
	}
	if ev.Published.IsZero() {
		return nil, fmt.Errorf("log event payload missing required field published")
	}
	if ev.EventType == "" {
		return nil, fmt.Errorf("log event payload missing required field eventType")
	}
	return &ev, nil
}

// IsSuccess reports whether the event outcome was SUCCESS.
func (ev *LogEvent) IsSuccess() bool {
	if ev.Outcome == nil {
		return false
	}
	result, _ := ev.Outcome["result"].(string)
	return result == "SUCCESS"
}

// ActorName returns the actor's display name or alternate ID.
func (ev *LogEvent) ActorName() string {
	if ev.Actor == nil {
		return ""
	}
	if name, ok := ev.Actor["displayName"].(string); ok && name != "" {
		return name
	}
	name, _ := ev.Actor["alternateId"].(string)
	return name
}

// TargetNames returns display names (or alternate IDs) for all targets.
func (ev *LogEvent) TargetNames() []string {
	var names []string
	for _, t := range ev.Target {
		if name, ok := t["displayName"].(string); ok && name != "" {
			names = append(names, name)
			continue
		}
		if name, ok := t["alternateId"].(string); ok && name != "" {
			names = append(names, name)
		}
	}
	return names
}

// AsMap returns the event as a normalized mapping.
func (ev *LogEvent) AsMap() map[string]interface{} {
	return structToMap(ev)
}

// structToMap normalizes a model to its JSON mapping form. Models are always
// marshalable, so failures cannot occur outside of programming errors; the
// raw error text is preserved in that case rather than panicking.
func structToMap(v interface{}) map[string]interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return map[string]interface{}{"error": err.Error()}
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]interface{}{"error": err.Error()}
	}
	return m
}

// PageLinks maps Link header relations (self, next, ...) to raw URLs. Links
// are informational; the client never follows them on its own.
type PageLinks map[string]string

// Next returns the URL of the next page, or an empty string.
func (l PageLinks) Next() string { return l["next"] }

// HasMore reports whether a next page link is present.
func (l PageLinks) HasMore() bool { return l["next"] != "" }

// ParseLinkHeader parses an RFC 5988 style Link header into its relations.
// Malformed segments are skipped.
func ParseLinkHeader(header string) PageLinks {
	links := PageLinks{}
	if header == "" {
		return links
	}
	for _, part := range strings.Split(header, ",") {
		segments := strings.Split(strings.TrimSpace(part), ";")
		if len(segments) < 2 {
			continue
		}
		rawURL := strings.Trim(strings.TrimSpace(segments[0]), "<>")
		if rawURL == "" {
			continue
		}
		for _, attr := range segments[1:] {
			attr = strings.TrimSpace(attr)
			if value, ok := strings.CutPrefix(attr, "rel="); ok {
				rel := strings.Trim(value, `"`)
				if rel != "" {
					links[rel] = rawURL
				}
			}
		}
	}
	return links
}
