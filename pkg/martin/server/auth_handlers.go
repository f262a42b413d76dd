package server

import (
	"fmt"
	"html"
	"net/http"

	"github.com/martinhq/martin/pkg/martin/oauth"
	"github.com/martinhq/martin/pkg/martin/tokens"
)

// authProvider pairs an OAuth provider with its redirect registration.
type authProvider struct {
	provider    oauth.Provider
	redirectURI string
	configured  bool
}

func (s *Server) googleProvider() authProvider {
	if s.google == nil {
		return authProvider{}
	}
	cfg := s.google.Config()
	return authProvider{provider: s.google, redirectURI: cfg.RedirectURI, configured: cfg.Configured()}
}

func (s *Server) yandexProvider() authProvider {
	if s.yandex == nil {
		return authProvider{}
	}
	cfg := s.yandex.Config()
	return authProvider{provider: s.yandex, redirectURI: cfg.RedirectURI, configured: cfg.Configured()}
}

// handleAuthStart redirects to the provider's consent screen. The
// userId travels in the OAuth state parameter and comes back on the
// callback.
func (s *Server) handleAuthStart(p authProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			errorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if !p.configured {
			errorJSON(w, http.StatusServiceUnavailable, "provider is not configured")
			return
		}
		userID := r.URL.Query().Get("userId")
		if userID == "" {
			errorJSON(w, http.StatusBadRequest, "userId is required")
			return
		}
		http.Redirect(w, r, p.provider.AuthURL(p.redirectURI, userID), http.StatusFound)
	}
}

// handleAuthCallback finishes the connect flow: exchanges the code and
// persists the credential under the userId carried in state. The
// exchange is one-shot; a provider outage here surfaces as the error
// page, not a retry.
func (s *Server) handleAuthCallback(p authProvider, provider tokens.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		if errCode := query.Get("error"); errCode != "" {
			s.renderAuthError(w, errCode)
			return
		}
		code := query.Get("code")
		state := query.Get("state")
		if code == "" || state == "" {
			s.renderAuthError(w, "no_code_or_state")
			return
		}
		if !p.configured {
			s.renderAuthError(w, "provider_not_configured")
			return
		}

		userID := state
		toks, err := p.provider.Exchange(r.Context(), code, p.redirectURI)
		if err != nil {
			s.logger.Error("oauth exchange failed",
				"provider", p.provider.Name(), "user_id", userID, "error", err)
			s.renderAuthError(w, "exchange_failed")
			return
		}

		err = s.env.Tokens.Save(r.Context(), userID, provider, tokens.Credential{
			AccessToken:  toks.AccessToken,
			RefreshToken: toks.RefreshToken,
			TokenType:    toks.TokenType,
			ExpiresIn:    toks.ExpiresIn,
		})
		if err != nil {
			s.logger.Error("credential save failed",
				"provider", p.provider.Name(), "user_id", userID, "error", err)
			s.renderAuthError(w, "storage_unavailable")
			return
		}

		s.logger.Info("provider connected",
			"provider", p.provider.Name(), "user_id", userID)
		s.renderAuthSuccess(w)
	}
}

const authPageTemplate = `<!DOCTYPE html>
<html>
<head>
<title>%s</title>
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<style>
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
  display: flex; align-items: center; justify-content: center; min-height: 100vh;
  margin: 0; background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%);
  color: white; text-align: center; padding: 20px; }
.container { max-width: 400px; background: rgba(255,255,255,0.1);
  border-radius: 20px; padding: 40px 30px; }
.mark { font-size: 72px; margin-bottom: 20px; }
</style>
</head>
<body>
<div class="container">
<div class="mark">%s</div>
<h2>%s</h2>
<p>%s</p>
</div>
</body>
</html>`

func (s *Server) renderAuthSuccess(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, authPageTemplate,
		"Подключение успешно!", "✓", "Подключение успешно!",
		"Аккаунт подключен. Вернитесь в Telegram и продолжите работу с ассистентом.")
}

func (s *Server) renderAuthError(w http.ResponseWriter, code string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusBadRequest)
	fmt.Fprintf(w, authPageTemplate,
		"Ошибка подключения", "✕", "Ошибка подключения",
		"Не удалось подключить аккаунт ("+html.EscapeString(code)+"). Вернитесь в Telegram и попробуйте еще раз.")
}
