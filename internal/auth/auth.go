// Package auth implements the standalone JWT authentication server.
package auth

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/eczanelab/pharmapos/pkg/storage"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RoleAdmin is the role allowed to list accounts.
const RoleAdmin = "Yönetici"

// Account is one login identity served by the auth server.
type Account struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
	FullName     string `json:"full_name"`
}

// Config controls token issuance.
type Config struct {
	Secret   string
	Expire   time.Duration
	Issuer   string
	Accounts []Account
}

func (c Config) withDefaults() Config {
	if c.Secret == "" {
		// Tokens do not survive a restart without a configured secret.
		c.Secret = uuid.NewString()
	}
	if c.Expire <= 0 {
		c.Expire = 60 * time.Minute
	}
	if c.Issuer == "" {
		c.Issuer = "eczane-auth-server"
	}
	return c
}

// Claims is the token payload.
type Claims struct {
	Role     string `json:"role"`
	FullName string `json:"full_name"`
	jwt.RegisteredClaims
}

// Server issues and validates JWT access tokens for the pharmacy staff
// accounts.
type Server struct {
	cfg    Config
	users  map[string]Account
	mux    *http.ServeMux
	logger *slog.Logger
}

// NewServer creates the auth server.
func NewServer(cfg Config, logger *slog.Logger) *Server {
	cfg = cfg.withDefaults()

	users := make(map[string]Account, len(cfg.Accounts))
	for _, a := range cfg.Accounts {
		users[a.Username] = a
	}

	s := &Server{
		cfg:    cfg,
		users:  users,
		mux:    http.NewServeMux(),
		logger: logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /login", s.handleLogin)
	s.mux.HandleFunc("POST /validate", s.handleValidate)
	s.mux.HandleFunc("GET /profile", s.handleProfile)
	s.mux.HandleFunc("GET /users", s.handleUsers)
	s.mux.HandleFunc("GET /protected", s.handleProtected)
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// IssueToken signs a new access token for the given account.
func (s *Server) IssueToken(account Account, now time.Time) (string, error) {
	claims := Claims{
		Role:     account.Role,
		FullName: account.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.Username,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.Expire)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a signed token and returns its claims.
func (s *Server) ParseToken(raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithIssuer(s.cfg.Issuer))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "geçersiz istek gövdesi")
		return
	}

	account, ok := s.users[req.Username]
	if !ok || account.PasswordHash != storage.HashPassword(req.Password) {
		s.writeError(w, http.StatusUnauthorized, "Kullanıcı adı veya şifre hatalı")
		return
	}

	token, err := s.IssueToken(account, time.Now().UTC())
	if err != nil {
		s.logger.Error("issue token", "user", req.Username, "error", err)
		s.writeError(w, http.StatusInternalServerError, "sunucu hatası")
		return
	}

	s.logger.Info("login succeeded", "user", req.Username, "role", account.Role)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"user":         account,
	})
}

type validateRequest struct {
	Token string `json:"token"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		s.writeError(w, http.StatusBadRequest, "token zorunlu")
		return
	}

	claims, err := s.ParseToken(req.Token)
	if err != nil {
		s.writeJSON(w, http.StatusOK, map[string]any{"valid": false})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"valid":     true,
		"username":  claims.Subject,
		"role":      claims.Role,
		"full_name": claims.FullName,
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authorize(w, r)
	if !ok {
		return
	}

	account, found := s.users[claims.Subject]
	if !found {
		s.writeError(w, http.StatusUnauthorized, "hesap bulunamadı")
		return
	}
	s.writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authorize(w, r)
	if !ok {
		return
	}
	if claims.Role != RoleAdmin {
		s.writeError(w, http.StatusForbidden, "Bu işlem için yönetici yetkisi gerekli")
		return
	}

	accounts := make([]Account, 0, len(s.users))
	for _, a := range s.users {
		accounts = append(accounts, a)
	}
	s.writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleProtected(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authorize(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Merhaba %s! Bu korumalı bir endpoint.", claims.FullName),
	})
}

// authorize extracts and validates the bearer token; it writes the 401
// response itself and reports success through the second return value.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request) (*Claims, bool) {
	header := r.Header.Get("Authorization")
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || raw == "" {
		s.writeError(w, http.StatusUnauthorized, "Authorization başlığı eksik")
		return nil, false
	}

	claims, err := s.ParseToken(raw)
	if err != nil {
		s.writeError(w, http.StatusUnauthorized, "Geçersiz veya süresi dolmuş token")
		return nil, false
	}
	return claims, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, map[string]string{"detail": detail})
}
