// Package config loads and validates the mcp-okta-support configuration.
//
// Settings come from an optional YAML file plus OKTA_* / MCP_* environment
// variables; environment values override file values. Validation runs before
// the Okta client is constructed so a malformed configuration never produces
// a half-working server.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults applied when neither file nor environment provides a value.
const (
	DefaultServerName     = "okta-support"
	DefaultRateLimit      = 100
	DefaultTimeoutSeconds = 30
	DefaultLogLevel       = "INFO"
)

// DefaultScopes are the OAuth scopes requested when using client credentials.
var DefaultScopes = []string{"okta.users.manage", "okta.apps.manage", "okta.logs.read"}

// Settings holds the full configuration for the server and the Okta client.
type Settings struct {
	// OrgURL is the Okta organization base URL, e.g. https://acme.okta.com.
	OrgURL string `yaml:"orgUrl"`

	// APIToken is a static SSWS API token. Mutually exclusive with the
	// OAuth client credentials below: exactly one auth method must be set.
	APIToken string `yaml:"apiToken"`

	// ClientID and ClientSecret configure the OAuth client-credentials
	// provider as an alternative to the static token.
	ClientID     string   `yaml:"clientId"`
	ClientSecret string   `yaml:"clientSecret"`
	Scopes       []string `yaml:"scopes"`

	// ServerName and ServerVersion identify the MCP server. ServerVersion
	// is injected at build time and not read from file or environment.
	ServerName    string `yaml:"serverName"`
	ServerVersion string `yaml:"-"`

	// RateLimit is the local requests-per-minute budget for the Okta API.
	RateLimit int `yaml:"rateLimit"`

	// TimeoutSeconds is the per-request timeout for Okta API calls.
	TimeoutSeconds int `yaml:"timeoutSeconds"`

	// LogLevel is one of DEBUG, INFO, WARN, ERROR.
	LogLevel string `yaml:"logLevel"`
}

// Load reads settings from the given YAML file (if path is non-empty) and
// then applies environment overrides and defaults. The returned settings are
// not yet validated; call Validate before using them.
func Load(path string) (*Settings, error) {
	s := &Settings{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := s.applyEnv(); err != nil {
		return nil, err
	}
	s.applyDefaults()

	return s, nil
}

// applyEnv overlays environment variables onto the settings. Environment
// values always win over file values.
func (s *Settings) applyEnv() error {
	if v := os.Getenv("OKTA_ORG_URL"); v != "" {
		s.OrgURL = v
	}
	if v := os.Getenv("OKTA_API_TOKEN"); v != "" {
		s.APIToken = v
	}
	if v := os.Getenv("OKTA_CLIENT_ID"); v != "" {
		s.ClientID = v
	}
	if v := os.Getenv("OKTA_CLIENT_SECRET"); v != "" {
		s.ClientSecret = v
	}
	if v := os.Getenv("OKTA_SCOPES"); v != "" {
		parts := strings.Split(v, ",")
		scopes := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				scopes = append(scopes, p)
			}
		}
		s.Scopes = scopes
	}
	if v := os.Getenv("OKTA_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid OKTA_RATE_LIMIT %q: %w", v, err)
		}
		s.RateLimit = n
	}
	if v := os.Getenv("OKTA_TIMEOUT_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid OKTA_TIMEOUT_SECONDS %q: %w", v, err)
		}
		s.TimeoutSeconds = n
	}
	if v := os.Getenv("MCP_SERVER_NAME"); v != "" {
		s.ServerName = v
	}
	if v := os.Getenv("MCP_LOG_LEVEL"); v != "" {
		s.LogLevel = v
	}
	return nil
}

func (s *Settings) applyDefaults() {
	if s.ServerName == "" {
		s.ServerName = DefaultServerName
	}
	if s.RateLimit == 0 {
		s.RateLimit = DefaultRateLimit
	}
	if s.TimeoutSeconds == 0 {
		s.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if s.LogLevel == "" {
		s.LogLevel = DefaultLogLevel
	}
	if len(s.Scopes) == 0 {
		s.Scopes = append([]string(nil), DefaultScopes...)
	}
	s.OrgURL = strings.TrimRight(s.OrgURL, "/")
}

// Validate checks that the settings form a usable configuration. The Okta
// client refuses construction when this fails.
func (s *Settings) Validate() error {
	if s.OrgURL == "" {
		return fmt.Errorf("orgUrl is required (set OKTA_ORG_URL)")
	}
	u, err := url.Parse(s.OrgURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("orgUrl %q is not a valid URL", s.OrgURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("orgUrl %q must use http or https", s.OrgURL)
	}

	hasToken := s.APIToken != ""
	hasOAuth := s.ClientID != "" && s.ClientSecret != ""
	if !hasToken && !hasOAuth {
		return fmt.Errorf("either apiToken or both clientId and clientSecret must be set")
	}
	if hasToken && hasOAuth {
		return fmt.Errorf("apiToken and clientId/clientSecret are mutually exclusive")
	}
	if s.ClientID != "" && s.ClientSecret == "" || s.ClientID == "" && s.ClientSecret != "" {
		return fmt.Errorf("clientId and clientSecret must be set together")
	}

	if s.RateLimit <= 0 {
		return fmt.Errorf("rateLimit must be a positive integer, got %d", s.RateLimit)
	}
	if s.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeoutSeconds must be a positive integer, got %d", s.TimeoutSeconds)
	}

	switch strings.ToUpper(s.LogLevel) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		return fmt.Errorf("logLevel %q must be one of DEBUG, INFO, WARN, ERROR", s.LogLevel)
	}

	return nil
}

// IsOAuthConfigured reports whether OAuth client credentials are configured.
func (s *Settings) IsOAuthConfigured() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

// IsAPITokenConfigured reports whether a static API token is configured.
func (s *Settings) IsAPITokenConfigured() bool {
	return s.APIToken != ""
}

// AuthMethod returns a short label for the configured authentication method,
// used in logs and the server info resource.
func (s *Settings) AuthMethod() string {
	if s.IsOAuthConfigured() {
		return "oauth"
	}
	return "api_token"
}
