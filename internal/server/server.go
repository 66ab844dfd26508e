// Package server exposes the pharmacy backend REST API.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/eczanelab/pharmapos/pkg/storage"
	"github.com/eczanelab/pharmapos/pkg/watcher"
	"github.com/google/uuid"
)

// Server routes the catalog, sales, reporting and alert endpoints.
type Server struct {
	store   storage.Storage
	watcher *watcher.Service
	orders  watcher.Inventory
	mux     *http.ServeMux
	logger  *slog.Logger
}

// NewServer creates the backend API server. The orders collaborator
// fulfils replenishment requests; it is usually the storage-backed
// inventory adapter.
func NewServer(store storage.Storage, w *watcher.Service, orders watcher.Inventory, logger *slog.Logger) *Server {
	s := &Server{
		store:   store,
		watcher: w,
		orders:  orders,
		mux:     http.NewServeMux(),
		logger:  logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /", s.handleIndex)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /login", s.handleLogin)

	s.mux.HandleFunc("GET /drugs", s.handleListDrugs)
	s.mux.HandleFunc("POST /drugs", s.handleCreateDrug)
	s.mux.HandleFunc("GET /drugs/low-stock", s.handleLowStock)
	s.mux.HandleFunc("GET /drugs/critical-stock", s.handleCriticalStock)
	s.mux.HandleFunc("GET /drugs/{id}", s.handleGetDrug)
	s.mux.HandleFunc("PUT /drugs/{id}/threshold", s.handleUpdateThreshold)
	s.mux.HandleFunc("GET /drugs/{id}/movements", s.handleListMovements)
	s.mux.HandleFunc("DELETE /drugs/{id}", s.handleDeleteDrug)

	s.mux.HandleFunc("POST /sales", s.handleCreateSale)
	s.mux.HandleFunc("GET /customers", s.handleListCustomers)
	s.mux.HandleFunc("POST /customers", s.handleCreateCustomer)
	s.mux.HandleFunc("GET /customers/{id}/history", s.handleCustomerHistory)
	s.mux.HandleFunc("POST /order_stock", s.handleOrderStock)

	s.mux.HandleFunc("GET /reports/daily", s.handleDailyReport)
	s.mux.HandleFunc("GET /reports/stock-status", s.handleStockStatus)

	s.mux.HandleFunc("GET /alerts/check", s.handleAlertCheck)
	s.mux.HandleFunc("GET /alerts/history", s.handleAlertHistory)
	s.mux.HandleFunc("GET /alerts/dispatched", s.handleAlertsDispatched)
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"message": "Eczane Otomasyon Sistemi API",
		"status":  "ok",
	})
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

	user, err := s.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil || user.PasswordHash != storage.HashPassword(req.Password) {
		s.writeError(w, http.StatusUnauthorized, "Kullanıcı adı veya şifre hatalı")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"token": uuid.NewString(),
		"user":  user,
	})
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

// writeStorageError maps storage sentinel errors to HTTP status codes.
func (s *Server) writeStorageError(w http.ResponseWriter, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.writeError(w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, storage.ErrDuplicate):
		s.writeError(w, http.StatusConflict, "kayıt zaten mevcut")
	default:
		s.logger.Error("storage operation failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "sunucu hatası")
	}
}
