package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vcafe/identity-service/internal/config"
	"github.com/vcafe/identity-service/internal/domain"
	"github.com/vcafe/identity-service/internal/oauth"
	"github.com/vcafe/identity-service/internal/service"
)

type OAuthHandler struct {
	authService *service.AuthService
	providers   oauth.Clients
	states      *oauth.StateStore
	cfg         *config.Config
}

func NewOAuthHandler(authService *service.AuthService, providers oauth.Clients, cfg *config.Config) *OAuthHandler {
	return &OAuthHandler{
		authService: authService,
		providers:   providers,
		states:      oauth.NewStateStore(),
		cfg:         cfg,
	}
}

func (h *OAuthHandler) client(w http.ResponseWriter, r *http.Request) *oauth.Client {
	provider, err := domain.ParseProvider(chi.URLParam(r, "provider"))
	if err != nil {
		http.Error(w, "Unknown provider", http.StatusNotFound)
		return nil
	}
	client, ok := h.providers[provider]
	if !ok {
		http.Error(w, "Provider not configured", http.StatusNotFound)
		return nil
	}
	return client
}

// Start redirects the browser to the provider's authorization page.
func (h *OAuthHandler) Start(w http.ResponseWriter, r *http.Request) {
	client := h.client(w, r)
	if client == nil {
		return
	}

	state := h.states.Issue(client.Provider())
	http.Redirect(w, r, client.AuthCodeURL(state), http.StatusFound)
}

// Callback completes the authorization-code flow: code exchange, profile
// fetch, account resolution, token issuance. The refresh token lands in
// the cookie and the access token rides the redirect fragment.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	client := h.client(w, r)
	if client == nil {
		return
	}

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		http.Error(w, "Provider returned an error: "+errParam, http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		http.Error(w, "Missing code or state", http.StatusBadRequest)
		return
	}
	if !h.states.Redeem(state, client.Provider()) {
		http.Error(w, "Invalid state", http.StatusBadRequest)
		return
	}

	providerToken, err := client.Exchange(r.Context(), code)
	if err != nil {
		log.Printf("ERROR [handlers.OAuth] code exchange failed: %v", err)
		http.Error(w, "Code exchange failed", http.StatusBadGateway)
		return
	}

	profile, err := client.FetchProfile(r.Context(), providerToken)
	if err != nil {
		log.Printf("ERROR [handlers.OAuth] profile fetch failed: %v", err)
		http.Error(w, "Profile fetch failed", http.StatusBadGateway)
		return
	}

	user, err := h.authService.AuthenticateOAuth(r.Context(), profile)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAccountLinkConflict):
			log.Printf("ERROR [handlers.OAuth] link conflict for %s identity %s: %v", profile.Provider, profile.ProviderID, err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		case errors.Is(err, domain.ErrStorageUnavailable):
			http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		default:
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	pair, err := h.authService.IssueTokens(user)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	setRefreshCookie(w, h.cfg, pair.RefreshToken)
	http.Redirect(w, r, h.cfg.LoginRedirectURL+"#access_token="+pair.AccessToken, http.StatusFound)
}
