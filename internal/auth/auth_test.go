package auth_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/eczanelab/pharmapos/internal/auth"
	"github.com/eczanelab/pharmapos/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAccounts() []auth.Account {
	return []auth.Account{
		{Username: "yonetici", PasswordHash: storage.HashPassword("admin123"), Role: "Yönetici", FullName: "Eczane Yöneticisi"},
		{Username: "personel", PasswordHash: storage.HashPassword("123"), Role: "Personel", FullName: "Eczane Personeli"},
	}
}

func setupAuth(t *testing.T, cfg auth.Config) *auth.Server {
	t.Helper()
	if cfg.Accounts == nil {
		cfg.Accounts = testAccounts()
	}
	if cfg.Secret == "" {
		cfg.Secret = "test-secret"
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return auth.NewServer(cfg, logger)
}

func login(t *testing.T, srv *auth.Server, username, password string) string {
	t.Helper()
	body := `{"username":"` + username + `","password":"` + password + `"}`
	req := httptest.NewRequest("POST", "/login", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Equal(t, "bearer", resp.TokenType)
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func authorizedGet(srv *auth.Server, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestLogin_IssuesValidToken(t *testing.T) {
	srv := setupAuth(t, auth.Config{})
	token := login(t, srv, "yonetici", "admin123")

	claims, err := srv.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "yonetici", claims.Subject)
	assert.Equal(t, "Yönetici", claims.Role)
	assert.Equal(t, "Eczane Yöneticisi", claims.FullName)
	assert.Equal(t, "eczane-auth-server", claims.Issuer)
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	srv := setupAuth(t, auth.Config{})

	for _, body := range []string{
		`{"username":"yonetici","password":"wrong"}`,
		`{"username":"ghost","password":"admin123"}`,
	} {
		req := httptest.NewRequest("POST", "/login", strings.NewReader(body))
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
}

func TestProfile(t *testing.T) {
	srv := setupAuth(t, auth.Config{})
	token := login(t, srv, "personel", "123")

	w := authorizedGet(srv, "/profile", token)
	require.Equal(t, http.StatusOK, w.Code)

	var account auth.Account
	require.NoError(t, json.NewDecoder(w.Body).Decode(&account))
	assert.Equal(t, "personel", account.Username)
	// Hashes never appear in responses.
	assert.NotContains(t, w.Body.String(), storage.HashPassword("123"))
}

func TestProfile_RequiresToken(t *testing.T) {
	srv := setupAuth(t, auth.Config{})

	w := authorizedGet(srv, "/profile", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = authorizedGet(srv, "/profile", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestValidate(t *testing.T) {
	srv := setupAuth(t, auth.Config{})
	token := login(t, srv, "yonetici", "admin123")

	req := httptest.NewRequest("POST", "/validate", strings.NewReader(`{"token":"`+token+`"}`))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Valid    bool   `json:"valid"`
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Valid)
	assert.Equal(t, "yonetici", resp.Username)
	assert.Equal(t, "Yönetici", resp.Role)
}

func TestValidate_BadToken(t *testing.T) {
	srv := setupAuth(t, auth.Config{})

	req := httptest.NewRequest("POST", "/validate", strings.NewReader(`{"token":"garbage"}`))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Valid bool `json:"valid"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.Valid)
}

func TestUsers_AdminOnly(t *testing.T) {
	srv := setupAuth(t, auth.Config{})

	admin := login(t, srv, "yonetici", "admin123")
	w := authorizedGet(srv, "/users", admin)
	require.Equal(t, http.StatusOK, w.Code)

	var accounts []auth.Account
	require.NoError(t, json.NewDecoder(w.Body).Decode(&accounts))
	assert.Len(t, accounts, 2)

	staff := login(t, srv, "personel", "123")
	w = authorizedGet(srv, "/users", staff)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestProtected(t *testing.T) {
	srv := setupAuth(t, auth.Config{})
	token := login(t, srv, "personel", "123")

	w := authorizedGet(srv, "/protected", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Eczane Personeli")
}

func TestParseToken_RejectsExpired(t *testing.T) {
	srv := setupAuth(t, auth.Config{Expire: time.Minute})

	token, err := srv.IssueToken(testAccounts()[0], time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)

	_, err = srv.ParseToken(token)
	assert.Error(t, err)
}

func TestParseToken_RejectsForeignSignature(t *testing.T) {
	issuer := setupAuth(t, auth.Config{Secret: "secret-a"})
	verifier := setupAuth(t, auth.Config{Secret: "secret-b"})

	token := login(t, issuer, "yonetici", "admin123")
	_, err := verifier.ParseToken(token)
	assert.Error(t, err)
}
