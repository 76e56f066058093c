package okta

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"mcp-okta-support/internal/config"
)

// CredentialsProvider supplies the Authorization header value for outbound
// Okta API calls. Implementations must be safe for concurrent use. A provider
// that cannot produce credentials fails with an authentication error; the
// concrete token protocol behind it is not the dispatcher's concern.
type CredentialsProvider interface {
	Authorization(ctx context.Context) (string, error)
}

// staticTokenProvider returns a fixed SSWS API token header.
type staticTokenProvider struct {
	token string
}

func (p staticTokenProvider) Authorization(context.Context) (string, error) {
	return "SSWS " + p.token, nil
}

// clientCredentialsProvider obtains bearer tokens through the OAuth 2.0
// client credentials grant against the org's token endpoint. Token caching
// and refresh are handled by the underlying token source.
type clientCredentialsProvider struct {
	source oauth2.TokenSource
}

func (p *clientCredentialsProvider) Authorization(ctx context.Context) (string, error) {
	tok, err := p.source.Token()
	if err != nil {
		return "", &Error{
			Kind:    KindAuthentication,
			Message: fmt.Sprintf("failed to obtain OAuth access token: %v", err),
			Err:     err,
		}
	}
	if tok.AccessToken == "" {
		return "", &Error{
			Kind:    KindAuthentication,
			Message: "OAuth token endpoint returned an empty access token",
		}
	}
	return "Bearer " + tok.AccessToken, nil
}

// newCredentialsProvider builds the provider matching the configured auth
// method. Settings are validated before this point, so exactly one method is
// present.
func newCredentialsProvider(cfg *config.Settings) CredentialsProvider {
	if cfg.IsAPITokenConfigured() {
		return staticTokenProvider{token: cfg.APIToken}
	}
	conf := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.OrgURL + "/oauth2/v1/token",
		Scopes:       cfg.Scopes,
	}
	return &clientCredentialsProvider{
		source: conf.TokenSource(context.Background()),
	}
}
