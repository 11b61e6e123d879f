package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vcafe/identity-service/internal/config"
	"github.com/vcafe/identity-service/internal/domain"
)

type endpoints struct {
	authURL     string
	tokenURL    string
	userInfoURL string
	scopes      []string
}

var providerEndpoints = map[domain.Provider]endpoints{
	domain.ProviderGoogle: {
		authURL:     "https://accounts.google.com/o/oauth2/v2/auth",
		tokenURL:    "https://oauth2.googleapis.com/token",
		userInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
		scopes:      []string{"openid", "email", "profile"},
	},
	domain.ProviderFacebook: {
		authURL:     "https://www.facebook.com/v19.0/dialog/oauth",
		tokenURL:    "https://graph.facebook.com/v19.0/oauth/access_token",
		userInfoURL: "https://graph.facebook.com/me?fields=id,name,email,picture.type(large)",
		scopes:      []string{"email"},
	},
	domain.ProviderDiscord: {
		authURL:     "https://discord.com/oauth2/authorize",
		tokenURL:    "https://discord.com/api/oauth2/token",
		userInfoURL: "https://discord.com/api/users/@me",
		scopes:      []string{"identify", "email"},
	},
}

// Client drives the authorization-code flow against one provider: building
// the authorize URL, exchanging the code and fetching the normalized
// profile.
type Client struct {
	provider   domain.Provider
	cfg        config.OAuthProvider
	endpoints  endpoints
	httpClient *http.Client
}

// NewClient builds a client for the given provider; returns nil when the
// provider has no credentials configured.
func NewClient(provider domain.Provider, cfg config.OAuthProvider) *Client {
	if !cfg.Enabled() {
		return nil
	}
	return &Client{
		provider:   provider,
		cfg:        cfg,
		endpoints:  providerEndpoints[provider],
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Provider() domain.Provider {
	return c.provider
}

// AuthCodeURL builds the provider's authorization URL for the given CSRF
// state value.
func (c *Client) AuthCodeURL(state string) string {
	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", c.cfg.ClientID)
	query.Set("redirect_uri", c.cfg.CallbackURL)
	query.Set("scope", strings.Join(c.endpoints.scopes, " "))
	query.Set("state", state)
	return c.endpoints.authURL + "?" + query.Encode()
}

// Exchange trades an authorization code for the provider's access token.
func (c *Client) Exchange(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.cfg.CallbackURL)
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoints.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s token exchange failed: %s", c.provider, resp.Status)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if payload.AccessToken == "" {
		return "", errors.New("missing access token in exchange response")
	}
	return payload.AccessToken, nil
}

// FetchProfile retrieves the provider's userinfo and normalizes it into a
// domain profile. The raw payload is preserved for auditing on the link
// record.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (domain.OAuthProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoints.userInfoURL, nil)
	if err != nil {
		return domain.OAuthProfile{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.OAuthProfile{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.OAuthProfile{}, fmt.Errorf("%s profile request failed: %s", c.provider, resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.OAuthProfile{}, err
	}
	return DecodeProfile(c.provider, raw)
}

// DecodeProfile parses a provider userinfo payload into a normalized
// domain profile.
func DecodeProfile(provider domain.Provider, raw []byte) (domain.OAuthProfile, error) {
	var profile domain.OAuthProfile

	switch provider {
	case domain.ProviderGoogle:
		var payload struct {
			Sub     string `json:"sub"`
			Email   string `json:"email"`
			Name    string `json:"name"`
			Picture string `json:"picture"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return domain.OAuthProfile{}, err
		}
		if payload.Sub == "" {
			return domain.OAuthProfile{}, errors.New("missing provider user id")
		}
		profile = domain.NormalizeGoogleProfile(payload.Sub, payload.Email, payload.Name, payload.Picture)

	case domain.ProviderFacebook:
		var payload struct {
			ID      string `json:"id"`
			Email   string `json:"email"`
			Name    string `json:"name"`
			Picture struct {
				Data struct {
					URL string `json:"url"`
				} `json:"data"`
			} `json:"picture"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return domain.OAuthProfile{}, err
		}
		if payload.ID == "" {
			return domain.OAuthProfile{}, errors.New("missing provider user id")
		}
		profile = domain.NormalizeFacebookProfile(payload.ID, payload.Email, payload.Name, payload.Picture.Data.URL)

	case domain.ProviderDiscord:
		var payload struct {
			ID       string `json:"id"`
			Email    string `json:"email"`
			Username string `json:"username"`
			Avatar   string `json:"avatar"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return domain.OAuthProfile{}, err
		}
		if payload.ID == "" {
			return domain.OAuthProfile{}, errors.New("missing provider user id")
		}
		profile = domain.NormalizeDiscordProfile(payload.ID, payload.Email, payload.Username, payload.Avatar)

	default:
		return domain.OAuthProfile{}, domain.ErrUnknownProvider
	}

	profile.Raw = raw
	return profile, nil
}

// Clients holds the configured provider clients keyed by provider.
type Clients map[domain.Provider]*Client

// NewClients builds clients for every provider with credentials in cfg.
func NewClients(cfg *config.Config) Clients {
	clients := make(Clients)
	for provider, providerCfg := range map[domain.Provider]config.OAuthProvider{
		domain.ProviderGoogle:   cfg.Google,
		domain.ProviderFacebook: cfg.Facebook,
		domain.ProviderDiscord:  cfg.Discord,
	} {
		if client := NewClient(provider, providerCfg); client != nil {
			clients[provider] = client
		}
	}
	return clients
}
