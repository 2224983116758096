package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"scoutpulse-platform/internal/identity"
	"scoutpulse-platform/internal/session"
	"scoutpulse-platform/internal/token"
)

func testRouter(t *testing.T) (*gin.Engine, *identity.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	iss, err := token.NewIssuer(token.IssuerConfig{
		Secret:     "test-secret",
		Issuer:     "scoutpulse",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}

	store := identity.NewMemoryStore()
	store.PutUser(identity.User{
		ID:            "user-1",
		Email:         "recruiter@example.com",
		Role:          "recruiter",
		Status:        identity.StatusActive,
		EmailVerified: true,
	})
	svc := identity.NewService(store, iss, nil, identity.Config{})

	cfg := session.Config{
		RefreshThreshold:  5 * time.Minute,
		MaxRefreshRetries: 2,
		BaseRetryDelay:    time.Millisecond,
	}
	h := Handlers{Identity: svc, SessionCfg: cfg}

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.POST("/auth/refresh", h.Refresh)
	r.POST("/auth/logout", h.Logout)
	r.GET("/me", RequireSession(svc, cfg), h.Me)
	r.POST("/admin/users/:user_id/sessions/revoke", RequireSession(svc, cfg), h.AdminRevokeSessions)
	return r, store
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r *gin.Engine) (access, refresh string) {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/auth/login", gin.H{"email": "recruiter@example.com"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d body = %s", w.Code, w.Body)
	}
	var out struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out.AccessToken, out.RefreshToken
}

func TestLoginReturnsTokenPair(t *testing.T) {
	r, _ := testRouter(t)
	access, refresh := login(t, r)
	if access == "" || refresh == "" {
		t.Fatalf("empty token pair")
	}
}

func TestLoginUnknownEmailIsGeneric401(t *testing.T) {
	r, _ := testRouter(t)
	w := doJSON(t, r, http.MethodPost, "/auth/login", gin.H{"email": "ghost@example.com"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	var out struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Success {
		t.Errorf("success must be false")
	}
	if out.Error.Code != "AUTH_001" {
		t.Errorf("code = %q, want AUTH_001", out.Error.Code)
	}
	// The response must not betray that the account does not exist.
	if out.Error.Message != "Invalid email or password" {
		t.Errorf("message = %q", out.Error.Message)
	}
}

func TestMeRequiresBearerToken(t *testing.T) {
	r, _ := testRouter(t)

	w := doJSON(t, r, http.MethodGet, "/me", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	var out struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Error.Code != "AUTH_TOKEN_001" {
		t.Errorf("code = %q, want AUTH_TOKEN_001", out.Error.Code)
	}
}

func TestMeWithValidToken(t *testing.T) {
	r, _ := testRouter(t)
	access, _ := login(t, r)

	h := http.Header{}
	h.Set("Authorization", "Bearer "+access)
	w := doJSON(t, r, http.MethodGet, "/me", nil, h)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body)
	}
	var out struct {
		User struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.User.ID != "user-1" || out.User.Email != "recruiter@example.com" {
		t.Fatalf("user = %+v", out.User)
	}
}

func TestMeWithCookieFallback(t *testing.T) {
	r, _ := testRouter(t)
	access, _ := login(t, r)

	h := http.Header{}
	h.Set("Cookie", "access_token="+access)
	w := doJSON(t, r, http.MethodGet, "/me", nil, h)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body)
	}
}

func TestRefreshRotatesTokens(t *testing.T) {
	r, _ := testRouter(t)
	_, refresh := login(t, r)

	w := doJSON(t, r, http.MethodPost, "/auth/refresh", gin.H{"refresh_token": refresh}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body)
	}
	var out struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.RefreshToken == refresh {
		t.Fatalf("refresh token not rotated")
	}

	// The consumed token now fails terminally with the revoked code.
	w = doJSON(t, r, http.MethodPost, "/auth/refresh", gin.H{"refresh_token": refresh}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("replay status = %d", w.Code)
	}
}

func TestLogoutThenRefreshFails(t *testing.T) {
	r, _ := testRouter(t)
	_, refresh := login(t, r)

	w := doJSON(t, r, http.MethodPost, "/auth/logout", gin.H{"refresh_token": refresh}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout status = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/auth/refresh", gin.H{"refresh_token": refresh}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout status = %d", w.Code)
	}
}

func TestAdminRevokeSessionsKillsRefresh(t *testing.T) {
	r, _ := testRouter(t)
	access, refresh := login(t, r)

	h := http.Header{}
	h.Set("Authorization", "Bearer "+access)
	w := doJSON(t, r, http.MethodPost, "/admin/users/user-1/sessions/revoke", nil, h)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body)
	}
	var out struct {
		Revoked int `json:"revoked"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Revoked != 1 {
		t.Errorf("revoked = %d, want 1", out.Revoked)
	}

	w = doJSON(t, r, http.MethodPost, "/auth/refresh", gin.H{"refresh_token": refresh}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after revocation status = %d", w.Code)
	}
}

// outageStore simulates an identity backend whose storage is unreachable.
type outageStore struct {
	identity.Store
	down bool
}

func (s *outageStore) GetSessionByTokenHash(ctx context.Context, hash string) (identity.StoredSession, error) {
	if s.down {
		return identity.StoredSession{}, errors.New("connection refused")
	}
	return s.Store.GetSessionByTokenHash(ctx, hash)
}

func degradedRouter(t *testing.T) (*gin.Engine, *outageStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	iss, err := token.NewIssuer(token.IssuerConfig{
		Secret:     "test-secret",
		Issuer:     "scoutpulse",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}

	mem := identity.NewMemoryStore()
	mem.PutUser(identity.User{
		ID:            "user-1",
		Email:         "recruiter@example.com",
		Role:          "recruiter",
		Status:        identity.StatusActive,
		EmailVerified: true,
	})
	store := &outageStore{Store: mem}
	svc := identity.NewService(store, iss, nil, identity.Config{})

	h := Handlers{
		Identity: svc,
		SessionCfg: session.Config{
			RefreshThreshold:  5 * time.Minute,
			MaxRefreshRetries: 2,
			BaseRetryDelay:    time.Millisecond,
		},
		SnapshotStore:  session.NewMemoryStore(),
		SnapshotMaxAge: 5 * time.Minute,
	}

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.POST("/auth/refresh", h.Refresh)
	r.POST("/auth/logout", h.Logout)
	return r, store
}

func TestRefreshDegradesWhenBackendUnavailable(t *testing.T) {
	r, store := degradedRouter(t)
	_, refresh := login(t, r)

	store.down = true
	w := doJSON(t, r, http.MethodPost, "/auth/refresh", gin.H{"refresh_token": refresh}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body)
	}
	var out struct {
		Success  bool `json:"success"`
		Degraded bool `json:"degraded"`
		User     struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Success {
		t.Errorf("degraded response must not claim success")
	}
	if !out.Degraded {
		t.Errorf("degraded flag missing")
	}
	if out.User.Email != "recruiter@example.com" {
		t.Errorf("user = %+v", out.User)
	}

	// Once the backend recovers, the same token still rotates normally.
	store.down = false
	w = doJSON(t, r, http.MethodPost, "/auth/refresh", gin.H{"refresh_token": refresh}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("recovery status = %d body = %s", w.Code, w.Body)
	}
}

func TestLogoutClearsSnapshotSoOutageFailsClosed(t *testing.T) {
	r, store := degradedRouter(t)
	_, refresh := login(t, r)

	w := doJSON(t, r, http.MethodPost, "/auth/logout", gin.H{"refresh_token": refresh}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout status = %d", w.Code)
	}

	store.down = true
	w = doJSON(t, r, http.MethodPost, "/auth/refresh", gin.H{"refresh_token": refresh}, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 after logout cleared the snapshot", w.Code)
	}
}

// recordingValidator returns a canned validation result and records which
// sessions had activity touched.
type recordingValidator struct {
	result  session.ValidationResult
	touched []string
}

func (v *recordingValidator) ValidateToken(context.Context, string) (session.ValidationResult, error) {
	return v.result, nil
}

func (v *recordingValidator) GetSession(context.Context, string) (*session.Session, error) {
	return nil, nil
}

func (v *recordingValidator) GetUser(context.Context, string) (*session.User, error) {
	return nil, nil
}

func (v *recordingValidator) TouchSession(_ context.Context, id string) error {
	v.touched = append(v.touched, id)
	return nil
}

func TestRequireSessionRecordsActivity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	iss, err := token.NewIssuer(token.IssuerConfig{
		Secret:     "test-secret",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	pair, err := iss.IssuePair(time.Now(), "user-1", "recruiter@example.com", "recruiter")
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	v := &recordingValidator{result: session.ValidationResult{
		Valid: true,
		User:  &session.User{ID: "user-1", Email: "recruiter@example.com", Role: "recruiter"},
		Session: &session.Session{
			ID:        "sess-42",
			UserID:    "user-1",
			ExpiresAt: time.Now().Add(15 * time.Minute),
		},
	}}

	r := gin.New()
	r.GET("/me", RequireSession(v, session.Config{}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	h := http.Header{}
	h.Set("Authorization", "Bearer "+pair.AccessToken)
	if w := doJSON(t, r, http.MethodGet, "/me", nil, h); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	if len(v.touched) != 1 || v.touched[0] != "sess-42" {
		t.Fatalf("touched = %v, want [sess-42]", v.touched)
	}
}

func TestDisabledAccountGetsDistinctCode(t *testing.T) {
	r, store := testRouter(t)
	access, _ := login(t, r)

	store.PutUser(identity.User{
		ID:            "user-1",
		Email:         "recruiter@example.com",
		Role:          "recruiter",
		Status:        identity.StatusDisabled,
		EmailVerified: true,
	})

	h := http.Header{}
	h.Set("Authorization", "Bearer "+access)
	w := doJSON(t, r, http.MethodGet, "/me", nil, h)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	var out struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Error.Code != "AUTH_004" {
		t.Errorf("code = %q, want AUTH_004", out.Error.Code)
	}
}
