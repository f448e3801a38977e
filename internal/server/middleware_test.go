package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mywatt/dashboard/internal/api"
	"github.com/mywatt/dashboard/internal/config"
	"github.com/mywatt/dashboard/internal/session"
)

const testEncryptionKey = "6d79776174742d746f6b656e2d6369706865722d746573742d6b65792d313233"

// fakeStore is an in-memory session store for server tests
type fakeStore struct {
	mu      sync.Mutex
	records map[string]*session.Record
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*session.Record)}
}

func (f *fakeStore) Save(ctx context.Context, rec *session.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *rec
	f.records[rec.ID] = &stored
	return nil
}

func (f *fakeStore) Get(ctx context.Context, id string) (*session.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func (f *fakeStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[id]; !ok {
		return session.ErrNotFound
	}
	delete(f.records, id)
	return nil
}

func (f *fakeStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

// fakeBackend imitates the MyWatt REST backend. Password "correct-horse" is
// accepted for any username; tokens are "tok-<username>".
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			var req api.LoginRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password != "correct-horse" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"detail": "Incorrect username or password"}`))
				return
			}
			userType := "device"
			if req.IsAdmin {
				userType = "admin"
			}
			json.NewEncoder(w).Encode(api.LoginResult{
				AccessToken:         "tok-" + req.Username,
				TokenType:           "bearer",
				UserType:            userType,
				UserID:              req.Username,
				ForcePasswordChange: strings.HasPrefix(req.Username, "fresh"),
			})

		case "/api/auth/me":
			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !strings.HasPrefix(token, "tok-") {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(api.User{ID: strings.TrimPrefix(token, "tok-"), UserType: "device"})

		case "/api/current-usage":
			if r.Header.Get("Authorization") == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`{"current_usage": 1234.5}`))

		default:
			// Unmodelled endpoints degrade like a flaky backend would
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(server.Close)

	return server
}

func newTestServer(t *testing.T, backendURL string) *Server {
	t.Helper()

	cfg := &config.Config{
		Backend: config.BackendConfig{URL: backendURL},
		Server: config.ServerConfig{
			ListenAddr:    ":0",
			CORSOrigin:    "http://localhost:8080",
			TemplatesGlob: "../../web/templates/*.html",
		},
		Session: config.SessionConfig{
			SigningSecret: "test-signing-secret",
			EncryptionKey: testEncryptionKey,
			TTL:           time.Hour,
		},
		Logging: config.LoggingConfig{Level: "error", Format: "console"},
	}

	cipher, err := session.NewTokenCipher(cfg.Session.EncryptionKey)
	require.NoError(t, err)

	apiClient := api.New(backendURL, zerolog.Nop())
	store := newFakeStore()

	server := &Server{
		config:    cfg,
		logger:    zerolog.Nop(),
		apiClient: apiClient,
		sessions:  session.NewManager(store, apiClient, cipher, cfg.Session.TTL, zerolog.Nop()),
		cookies:   session.NewCookieCodec(cfg.Session.SigningSecret),
		store:     store,
		version:   "test",
	}

	registerValidators()
	server.setupRouter()

	return server
}

// loginAs performs a form login and returns the session cookie
func loginAs(t *testing.T, s *Server, username string, admin bool) *http.Cookie {
	t.Helper()

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", "correct-horse")
	if admin {
		form.Set("is_admin", "true")
	}

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code, "login should redirect: %s", w.Body.String())
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == session.CookieName && cookie.Value != "" {
			return cookie
		}
	}
	t.Fatal("login response did not set a session cookie")
	return nil
}

func get(s *Server, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestGuards_UnauthenticatedPageRedirectsToLogin(t *testing.T) {
	s := newTestServer(t, fakeBackend(t).URL)

	for _, path := range []string{"/", "/daily", "/settings", "/change-password", "/admin/dashboard"} {
		w := get(s, path, nil)
		assert.Equal(t, http.StatusFound, w.Code, "path %s", path)
		assert.Equal(t, "/login", w.Header().Get("Location"), "path %s", path)
	}
}

func TestGuards_UnauthenticatedDataRefusedWithJSON(t *testing.T) {
	s := newTestServer(t, fakeBackend(t).URL)

	w := get(s, "/data/current-usage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Header().Get("Location"), "data requests are never redirected")
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Unauthorized", body["error"])
}

func TestGuards_DeviceUserCannotReachAdmin(t *testing.T) {
	s := newTestServer(t, fakeBackend(t).URL)
	cookie := loginAs(t, s, "meter-1", false)

	w := get(s, "/admin/dashboard", cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"), "a valid non-admin goes home, not back to login")
}

func TestGuards_AdminLandsOnAdminDashboard(t *testing.T) {
	s := newTestServer(t, fakeBackend(t).URL)
	cookie := loginAs(t, s, "root", true)

	w := get(s, "/", cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/dashboard", w.Header().Get("Location"))
}

func TestGuards_ForcePasswordChange(t *testing.T) {
	s := newTestServer(t, fakeBackend(t).URL)
	cookie := loginAs(t, s, "fresh-meter", false)

	// Pages are redirected to the change-password view
	w := get(s, "/daily", cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/change-password", w.Header().Get("Location"))

	// Data requests are refused outright
	w = get(s, "/data/current-usage", cookie)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Location"))

	// The change-password view itself stays reachable
	w = get(s, "/change-password", cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "temporary password")
}

func TestLogin_RedirectsByForceFlag(t *testing.T) {
	s := newTestServer(t, fakeBackend(t).URL)

	form := url.Values{}
	form.Set("username", "fresh-meter")
	form.Set("password", "correct-horse")

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/change-password", w.Header().Get("Location"))
}

func TestLogin_InvalidCredentials(t *testing.T) {
	s := newTestServer(t, fakeBackend(t).URL)

	form := url.Values{}
	form.Set("username", "meter-1")
	form.Set("password", "wrong")

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid username or password")

	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == session.CookieName && cookie.Value != "" {
			t.Error("failed login must not set a session cookie")
		}
	}
}

func TestAuthenticatedDataRequest(t *testing.T) {
	s := newTestServer(t, fakeBackend(t).URL)
	cookie := loginAs(t, s, "meter-1", false)

	w := get(s, "/data/current-usage", cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]float64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1234.5, body["current_usage"])
}

func TestLogout_DestroysSession(t *testing.T) {
	s := newTestServer(t, fakeBackend(t).URL)
	cookie := loginAs(t, s, "meter-1", false)

	w := get(s, "/logout", cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	var expired bool
	for _, set := range w.Result().Cookies() {
		if set.Name == session.CookieName && set.MaxAge < 0 {
			expired = true
		}
	}
	assert.True(t, expired, "logout should expire the session cookie")

	// The old cookie no longer resolves to a session
	w = get(s, "/daily", cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestTamperedCookieIsIgnored(t *testing.T) {
	s := newTestServer(t, fakeBackend(t).URL)
	cookie := loginAs(t, s, "meter-1", false)
	cookie.Value += "tampered"

	w := get(s, "/daily", cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestNoRoute_RedirectsByRole(t *testing.T) {
	s := newTestServer(t, fakeBackend(t).URL)

	w := get(s, "/no/such/page", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	cookie := loginAs(t, s, "meter-1", false)
	w = get(s, "/no/such/page", cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, fakeBackend(t).URL)

	w := get(s, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mywatt-dashboard")
}
