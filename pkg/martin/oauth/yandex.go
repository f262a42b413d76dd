package oauth

import (
	"context"
	"net/http"
	"net/url"
)

const (
	yandexAuthURL  = "https://oauth.yandex.ru/authorize"
	yandexTokenURL = "https://oauth.yandex.ru/token"
)

const yandexScopes = "login:email login:info mail:imap_full mail:send calendar:read calendar:write"

// YandexProvider implements Provider for Yandex OAuth.
type YandexProvider struct {
	cfg    ClientConfig
	client *http.Client
}

// NewYandex creates a Yandex provider with the given client registration.
func NewYandex(cfg ClientConfig) *YandexProvider {
	return &YandexProvider{cfg: cfg, client: newHTTPClient()}
}

// Config returns the client registration the provider was built with.
func (p *YandexProvider) Config() ClientConfig { return p.cfg }

// Name returns "yandex".
func (p *YandexProvider) Name() string { return "yandex" }

// AuthURL builds the consent URL.
func (p *YandexProvider) AuthURL(redirectURI, state string) string {
	params := url.Values{
		"client_id":     {p.cfg.ClientID},
		"redirect_uri":  {redirectURI},
		"response_type": {"code"},
		"scope":         {yandexScopes},
	}
	if state != "" {
		params.Set("state", state)
	}
	return yandexAuthURL + "?" + params.Encode()
}

// Exchange trades an authorization code for tokens. Yandex does not require
// the redirect URI in the token request.
func (p *YandexProvider) Exchange(ctx context.Context, code, _ string) (*Tokens, error) {
	return exchangeForm(ctx, p.client, yandexTokenURL, url.Values{
		"code":          {code},
		"client_id":     {p.cfg.ClientID},
		"client_secret": {p.cfg.ClientSecret},
		"grant_type":    {"authorization_code"},
	})
}
