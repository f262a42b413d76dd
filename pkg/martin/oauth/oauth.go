// Package oauth implements the authorization-code exchange for the providers
// the assistant can connect: Google (Gmail + Calendar) and Yandex. The
// exchange is a one-shot, non-retried call; a provider outage surfaces as an
// error to the callback handler, never as a retry loop.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Tokens is a provider token response in the shape the token store persists.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Provider is one OAuth provider the assistant can connect.
type Provider interface {
	// Name returns the provider identifier ("google", "yandex").
	Name() string

	// AuthURL returns the consent-screen URL. state is carried through the
	// redirect and holds the requesting user's id.
	AuthURL(redirectURI, state string) string

	// Exchange trades an authorization code for tokens.
	Exchange(ctx context.Context, code, redirectURI string) (*Tokens, error)
}

// ClientConfig holds one provider's OAuth client registration.
type ClientConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Configured reports whether the client registration is usable.
func (c ClientConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// exchangeForm posts a form to a token endpoint and decodes the response.
func exchangeForm(ctx context.Context, client *http.Client, tokenURL string, form url.Values) (*Tokens, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token endpoint error (status %d): %s", resp.StatusCode, string(body))
	}

	var tokens Tokens
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, fmt.Errorf("parsing token response: %w", err)
	}
	if tokens.AccessToken == "" {
		return nil, fmt.Errorf("token endpoint returned no access token")
	}
	return &tokens, nil
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}
