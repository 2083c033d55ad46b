package router

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themehub/themehub-api/app/observability/metrics"
	"github.com/themehub/themehub-api/config"
	"github.com/themehub/themehub-api/internal/api/auth"
	"github.com/themehub/themehub-api/internal/container"
	"github.com/themehub/themehub-api/internal/types"
)

func TestMain(m *testing.M) {
	metrics.InitAppMetrics()
	m.Run()
}

// newTestServer spins up the full API over the memory backend with the
// catalog seeded, plus a cookie-aware client.
func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Repositories.Backend = "memory"
	cfg.Auth.JWTSecretKey = "router-test-secret"
	cfg.Auth.JWTIssuer = "themehub-test"
	cfg.Auth.JWTExpiry = 15 * time.Minute
	cfg.Auth.SessionExpiry = 24 * time.Hour
	cfg.Auth.SessionCookie = "themehub_session"
	cfg.Catalog.CacheTTL = time.Minute

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	c, err := container.NewContainer(cfg, logger)
	require.NoError(t, err)
	require.NoError(t, c.Seeder.Run(t.Context()))

	r := SetupRouter(&Config{
		AuthHandler:            c.AuthHandler,
		CatalogHandler:         c.CatalogHandler,
		LibraryHandler:         c.LibraryHandler,
		UserHandler:            c.UserHandler,
		AuthenticateMiddleware: auth.Authenticate(c.AuthService, cfg, logger),
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return srv, &http.Client{Jar: jar}
}

func postJSON(t *testing.T, client *http.Client, url string, body any) *http.Response {
	t.Helper()
	js, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := client.Post(url, "application/json", bytes.NewReader(js))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func registerAndLogin(t *testing.T, client *http.Client, base, username string) string {
	t.Helper()
	resp := postJSON(t, client, base+"/api/v1/auth/register", map[string]string{
		"username": username,
		"password": "longenoughpw",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, client, base+"/api/v1/auth/login", map[string]string{
		"username": username,
		"password": "longenoughpw",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login struct {
		AccessToken string `json:"access_token"`
	}
	decodeBody(t, resp, &login)
	return login.AccessToken
}

func TestPublicCatalogRoutes(t *testing.T) {
	srv, client := newTestServer(t)

	t.Run("catalog is browsable without a session", func(t *testing.T) {
		resp, err := client.Get(srv.URL + "/api/v1/themes")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var themes []types.Theme
		decodeBody(t, resp, &themes)
		assert.Len(t, themes, 12)
	})

	t.Run("search", func(t *testing.T) {
		resp, err := client.Get(srv.URL + "/api/v1/themes/search?q=neon")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var themes []types.Theme
		decodeBody(t, resp, &themes)
		assert.NotEmpty(t, themes)
	})

	t.Run("category filter and the all bypass", func(t *testing.T) {
		resp, err := client.Get(srv.URL + "/api/v1/themes/category/1")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var all []types.Theme
		decodeBody(t, resp, &all)
		assert.Len(t, all, 12)

		resp, err = client.Get(srv.URL + "/api/v1/themes/category/2")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var filtered []types.Theme
		decodeBody(t, resp, &filtered)
		assert.NotEmpty(t, filtered)
		assert.Less(t, len(filtered), 12)
		for _, theme := range filtered {
			assert.Equal(t, int64(2), theme.CategoryID)
		}
	})

	t.Run("empty search query rejected", func(t *testing.T) {
		resp, err := client.Get(srv.URL + "/api/v1/themes/search?q=")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("invalid limit rejected before the store", func(t *testing.T) {
		resp, err := client.Get(srv.URL + "/api/v1/themes/top-rated?limit=0")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown theme id is 404", func(t *testing.T) {
		resp, err := client.Get(srv.URL + "/api/v1/themes/999")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestAuthFlow(t *testing.T) {
	srv, client := newTestServer(t)

	t.Run("protected routes fail closed without identity", func(t *testing.T) {
		resp, err := client.Get(srv.URL + "/api/v1/user/profile")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	accessToken := registerAndLogin(t, client, srv.URL, "alice")

	t.Run("duplicate registration is a plain client error", func(t *testing.T) {
		resp := postJSON(t, client, srv.URL+"/api/v1/auth/register", map[string]string{
			"username": "alice",
			"password": "anotherlongpw",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("wrong password is 401", func(t *testing.T) {
		resp := postJSON(t, client, srv.URL+"/api/v1/auth/login", map[string]string{
			"username": "alice",
			"password": "wrongpassword",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("session cookie authenticates", func(t *testing.T) {
		resp, err := client.Get(srv.URL + "/api/v1/user/profile")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var user types.User
		decodeBody(t, resp, &user)
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("bearer access token authenticates without cookies", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/user/profile", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+accessToken)

		bare := &http.Client{} // no cookie jar
		resp, err := bare.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("logout invalidates the session", func(t *testing.T) {
		resp := postJSON(t, client, srv.URL+"/api/v1/auth/logout", map[string]string{})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		resp, err := client.Get(srv.URL + "/api/v1/user/profile")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestLibraryFlow(t *testing.T) {
	srv, client := newTestServer(t)
	registerAndLogin(t, client, srv.URL, "bob")

	t.Run("favorite add list remove", func(t *testing.T) {
		resp := postJSON(t, client, srv.URL+"/api/v1/user/favorites", map[string]int64{"themeId": 3})
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		resp.Body.Close()

		resp, err := client.Get(srv.URL + "/api/v1/user/favorites")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var themes []types.Theme
		decodeBody(t, resp, &themes)
		require.Len(t, themes, 1)
		assert.Equal(t, int64(3), themes[0].ID)

		req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/user/favorites/3", nil)
		require.NoError(t, err)
		delResp, err := client.Do(req)
		require.NoError(t, err)
		delResp.Body.Close()
		assert.Equal(t, http.StatusNoContent, delResp.StatusCode)
	})

	t.Run("repeat downloads move the counter but keep one row", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			resp := postJSON(t, client, srv.URL+"/api/v1/user/downloads", map[string]int64{"themeId": 2})
			require.Equal(t, http.StatusNoContent, resp.StatusCode)
			resp.Body.Close()
		}

		resp, err := client.Get(srv.URL + "/api/v1/user/downloads")
		require.NoError(t, err)
		var themes []types.Theme
		decodeBody(t, resp, &themes)
		assert.Len(t, themes, 1)

		resp, err = client.Get(srv.URL + "/api/v1/themes/2")
		require.NoError(t, err)
		var theme types.Theme
		decodeBody(t, resp, &theme)
		assert.Equal(t, int64(2), theme.DownloadCount)
	})

	t.Run("purchase then duplicate purchase", func(t *testing.T) {
		resp := postJSON(t, client, srv.URL+"/api/v1/user/purchases", map[string]int64{"themeId": 5})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var purchase types.Purchase
		decodeBody(t, resp, &purchase)
		assert.Equal(t, int64(5), purchase.ThemeID)
		assert.InDelta(t, 2.99, purchase.PricePaid, 0.001)

		resp = postJSON(t, client, srv.URL+"/api/v1/user/purchases", map[string]int64{"themeId": 5})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("subscription for a regular user", func(t *testing.T) {
		resp, err := client.Get(srv.URL + "/api/v1/user/subscription")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var status types.SubscriptionStatus
		decodeBody(t, resp, &status)
		assert.False(t, status.Active)
		assert.Equal(t, "free", status.Plan)
	})
}

func TestCatalogWritesRequireAuth(t *testing.T) {
	srv, client := newTestServer(t)

	resp := postJSON(t, client, srv.URL+"/api/v1/themes", map[string]any{
		"name": "X", "author": "Y", "isFree": true, "categoryId": 2,
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	registerAndLogin(t, client, srv.URL, "carol")

	resp = postJSON(t, client, srv.URL+"/api/v1/categories", map[string]any{})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	created := postJSON(t, client, srv.URL+"/api/v1/themes", map[string]any{
		"name": "Fresh Theme", "author": "Carol", "isFree": true, "categoryId": 2,
	})
	defer created.Body.Close()
	assert.Equal(t, http.StatusCreated, created.StatusCode)
}

// purchase ids in TestLibraryFlow depend on the seed order; keep this pinned
func TestSeedPricing(t *testing.T) {
	srv, client := newTestServer(t)

	resp, err := client.Get(srv.URL + "/api/v1/themes/5")
	require.NoError(t, err)
	var theme types.Theme
	decodeBody(t, resp, &theme)
	assert.Equal(t, "Cyberpunk", theme.Name)
	assert.InDelta(t, 2.99, theme.Price, 0.001)
}
