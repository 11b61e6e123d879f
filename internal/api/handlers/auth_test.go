package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vcafe/identity-service/internal/testutil"
)

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

type userPayload struct {
	ID          string  `json:"id"`
	Email       *string `json:"email"`
	Role        string  `json:"role"`
	DisplayName string  `json:"displayName"`
}

type loginPayload struct {
	User        userPayload `json:"user"`
	AccessToken string      `json:"accessToken"`
}

func refreshCookie(resp *http.Response) *http.Cookie {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "refresh_token" {
			return cookie
		}
	}
	return nil
}

func TestAuthHandler_Register(t *testing.T) {
	ts := testutil.NewTestServer(t)

	tests := []struct {
		name       string
		body       map[string]string
		wantStatus int
	}{
		{
			name:       "successful registration",
			body:       map[string]string{"email": "new@example.com", "password": "Str0ng!Pass"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "duplicate email",
			body:       map[string]string{"email": "New@Example.com ", "password": "Str0ng!Pass"},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "weak password",
			body:       map[string]string{"email": "weak@example.com", "password": "password"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing fields",
			body:       map[string]string{"email": "x@example.com"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "admin role refused on the public path",
			body:       map[string]string{"email": "admin@example.com", "password": "Str0ng!Pass", "role": "ADMIN"},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "vip role allowed",
			body:       map[string]string{"email": "vip@example.com", "password": "Str0ng!Pass", "role": "VIP"},
			wantStatus: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.APIURL("/auth/register"), tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantStatus == http.StatusCreated {
				user := decode[userPayload](t, resp)
				assert.NotEmpty(t, user.ID)
				require.NotNil(t, user.Email)
			}
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp := postJSON(t, ts.APIURL("/auth/register"), map[string]string{
		"email":    "login@example.com",
		"password": "Str0ng!Pass",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	t.Run("successful login sets the refresh cookie", func(t *testing.T) {
		resp := postJSON(t, ts.APIURL("/auth/login"), map[string]string{
			"email":    "login@example.com",
			"password": "Str0ng!Pass",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		login := decode[loginPayload](t, resp)
		assert.NotEmpty(t, login.AccessToken)
		require.NotNil(t, login.User.Email)
		assert.Equal(t, "login@example.com", *login.User.Email)

		cookie := refreshCookie(resp)
		require.NotNil(t, cookie)
		assert.NotEmpty(t, cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
		assert.Equal(t, int(ts.Config.RefreshTokenTTL.Seconds()), cookie.MaxAge)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := postJSON(t, ts.APIURL("/auth/login"), map[string]string{
			"email":    "login@example.com",
			"password": "Wrong1!Pass",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unknown email gets the same status", func(t *testing.T) {
		resp := postJSON(t, ts.APIURL("/auth/login"), map[string]string{
			"email":    "missing@example.com",
			"password": "Wrong1!Pass",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestAuthHandler_Refresh(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp := postJSON(t, ts.APIURL("/auth/register"), map[string]string{
		"email":    "refresh@example.com",
		"password": "Str0ng!Pass",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	loginResp := postJSON(t, ts.APIURL("/auth/login"), map[string]string{
		"email":    "refresh@example.com",
		"password": "Str0ng!Pass",
	})
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	cookie := refreshCookie(loginResp)
	require.NotNil(t, cookie)

	t.Run("with valid cookie", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, ts.APIURL("/auth/refresh"), nil)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: cookie.Value})

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		payload := decode[struct {
			AccessToken string `json:"accessToken"`
		}](t, resp)
		assert.NotEmpty(t, payload.AccessToken)
	})

	t.Run("without cookie", func(t *testing.T) {
		resp := postJSON(t, ts.APIURL("/auth/refresh"), nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("with forged cookie", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, ts.APIURL("/auth/refresh"), nil)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "forged.token.value"})

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestAuthHandler_MeAndLogout(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp := postJSON(t, ts.APIURL("/auth/register"), map[string]string{
		"email":    "me@example.com",
		"password": "Str0ng!Pass",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	loginResp := postJSON(t, ts.APIURL("/auth/login"), map[string]string{
		"email":    "me@example.com",
		"password": "Str0ng!Pass",
	})
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	login := decode[loginPayload](t, loginResp)

	t.Run("me with bearer token", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, ts.APIURL("/auth/me"), nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+login.AccessToken)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		user := decode[userPayload](t, resp)
		assert.Equal(t, login.User.ID, user.ID)
	})

	t.Run("me without token", func(t *testing.T) {
		resp, err := http.Get(ts.APIURL("/auth/me"))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("logout clears the refresh cookie", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, ts.APIURL("/auth/logout"), nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+login.AccessToken)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		cookie := refreshCookie(resp)
		require.NotNil(t, cookie)
		assert.Empty(t, cookie.Value)
		assert.Less(t, cookie.MaxAge, 0)
	})
}

func TestOAuthHandler_Start(t *testing.T) {
	ts := testutil.NewTestServer(t)

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	t.Run("configured provider redirects to its authorize page", func(t *testing.T) {
		resp, err := client.Get(ts.APIURL("/auth/google/start"))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusFound, resp.StatusCode)

		location, err := url.Parse(resp.Header.Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "accounts.google.com", location.Host)
		assert.NotEmpty(t, location.Query().Get("state"))
	})

	t.Run("unconfigured provider", func(t *testing.T) {
		// Facebook has no credentials in the test config
		resp, err := client.Get(ts.APIURL("/auth/facebook/start"))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("unknown provider", func(t *testing.T) {
		resp, err := client.Get(ts.APIURL("/auth/github/start"))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestOAuthHandler_CallbackRejectsBadState(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp, err := http.Get(ts.APIURL("/auth/google/callback?code=abc&state=never-issued"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOAuthHandler_CallbackRequiresCodeAndState(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp, err := http.Get(ts.APIURL("/auth/google/callback"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
