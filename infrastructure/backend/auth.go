package backend

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// AuthConfig holds OAuth 2.0 client credentials for a protected deployment
// of the processing service
type AuthConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// Enabled reports whether enough is configured to request tokens
func (a AuthConfig) Enabled() bool {
	return strings.TrimSpace(a.TokenURL) != "" && strings.TrimSpace(a.ClientID) != ""
}

// NewAuthenticatedHTTPClient returns an HTTP client that attaches a bearer
// token from the client-credentials flow to every request. Tokens are cached
// and refreshed by the oauth2 transport. base is used for both token and API
// calls; nil means http.DefaultClient.
func NewAuthenticatedHTTPClient(ctx context.Context, cfg AuthConfig, base *http.Client) *http.Client {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       cfg.Scopes,
	}
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	return cc.Client(ctx)
}
