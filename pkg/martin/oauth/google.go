package oauth

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

const (
	googleAuthURL  = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL = "https://oauth2.googleapis.com/token"
)

// googleScopes covers Gmail read/send, Calendar read/write, and profile info.
var googleScopes = []string{
	"https://www.googleapis.com/auth/gmail.readonly",
	"https://www.googleapis.com/auth/gmail.send",
	"https://www.googleapis.com/auth/calendar.readonly",
	"https://www.googleapis.com/auth/calendar.events",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// GoogleProvider implements Provider for Google OAuth.
type GoogleProvider struct {
	cfg    ClientConfig
	client *http.Client
}

// NewGoogle creates a Google provider with the given client registration.
func NewGoogle(cfg ClientConfig) *GoogleProvider {
	return &GoogleProvider{cfg: cfg, client: newHTTPClient()}
}

// Config returns the client registration the provider was built with.
func (p *GoogleProvider) Config() ClientConfig { return p.cfg }

// Name returns "google".
func (p *GoogleProvider) Name() string { return "google" }

// AuthURL builds the consent URL. Offline access with a forced consent
// prompt so Google returns a refresh token on every connect.
func (p *GoogleProvider) AuthURL(redirectURI, state string) string {
	params := url.Values{
		"client_id":     {p.cfg.ClientID},
		"redirect_uri":  {redirectURI},
		"response_type": {"code"},
		"scope":         {strings.Join(googleScopes, " ")},
		"access_type":   {"offline"},
		"prompt":        {"consent"},
	}
	if state != "" {
		params.Set("state", state)
	}
	return googleAuthURL + "?" + params.Encode()
}

// Exchange trades an authorization code for tokens.
func (p *GoogleProvider) Exchange(ctx context.Context, code, redirectURI string) (*Tokens, error) {
	return exchangeForm(ctx, p.client, googleTokenURL, url.Values{
		"code":          {code},
		"client_id":     {p.cfg.ClientID},
		"client_secret": {p.cfg.ClientSecret},
		"redirect_uri":  {redirectURI},
		"grant_type":    {"authorization_code"},
	})
}

// Refresh mints a new access token from a refresh token. The token store
// never calls this: expiry hard-fails to "not connected" and the user
// re-authorizes. Kept on the provider surface for operator tooling.
func (p *GoogleProvider) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	return exchangeForm(ctx, p.client, googleTokenURL, url.Values{
		"refresh_token": {refreshToken},
		"client_id":     {p.cfg.ClientID},
		"client_secret": {p.cfg.ClientSecret},
		"grant_type":    {"refresh_token"},
	})
}
