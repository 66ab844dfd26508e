package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/eczanelab/pharmapos/pkg/model"
)

func (s *Server) handleListDrugs(w http.ResponseWriter, r *http.Request) {
	if term := r.URL.Query().Get("search"); term != "" {
		limit := 50
		if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
			limit = v
		}
		drugs, err := s.store.SearchDrugs(r.Context(), term, limit)
		if err != nil {
			s.writeStorageError(w, err, "ilaç bulunamadı")
			return
		}
		s.writeJSON(w, http.StatusOK, drugs)
		return
	}

	drugs, err := s.store.ListDrugs(r.Context())
	if err != nil {
		s.writeStorageError(w, err, "ilaç bulunamadı")
		return
	}
	s.writeJSON(w, http.StatusOK, drugs)
}

func (s *Server) handleGetDrug(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "geçersiz ilaç ID")
		return
	}

	drug, err := s.store.GetDrug(r.Context(), id)
	if err != nil {
		s.writeStorageError(w, err, "İlaç bulunamadı")
		return
	}
	s.writeJSON(w, http.StatusOK, drug)
}

func (s *Server) handleCreateDrug(w http.ResponseWriter, r *http.Request) {
	var drug model.Drug
	if err := json.NewDecoder(r.Body).Decode(&drug); err != nil {
		s.writeError(w, http.StatusBadRequest, "geçersiz istek gövdesi")
		return
	}
	if drug.Name == "" {
		s.writeError(w, http.StatusBadRequest, "ilaç adı zorunlu")
		return
	}
	if drug.LowStockThreshold <= 0 {
		drug.LowStockThreshold = 10
	}

	if err := s.store.CreateDrug(r.Context(), &drug); err != nil {
		s.writeStorageError(w, err, "İlaç bulunamadı")
		return
	}
	s.writeJSON(w, http.StatusCreated, drug)
}

type thresholdRequest struct {
	LowStockThreshold int `json:"low_stock_threshold"`
}

func (s *Server) handleUpdateThreshold(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "geçersiz ilaç ID")
		return
	}

	var req thresholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "geçersiz istek gövdesi")
		return
	}
	if req.LowStockThreshold <= 0 {
		s.writeError(w, http.StatusBadRequest, "eşik değeri pozitif olmalı")
		return
	}

	drug, err := s.store.UpdateThreshold(r.Context(), id, req.LowStockThreshold)
	if err != nil {
		s.writeStorageError(w, err, "İlaç bulunamadı")
		return
	}
	s.writeJSON(w, http.StatusOK, drug)
}

func (s *Server) handleListMovements(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "geçersiz ilaç ID")
		return
	}

	if _, err := s.store.GetDrug(r.Context(), id); err != nil {
		s.writeStorageError(w, err, "İlaç bulunamadı")
		return
	}

	limit := 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}

	movements, err := s.store.ListMovements(r.Context(), id, limit)
	if err != nil {
		s.writeStorageError(w, err, "İlaç bulunamadı")
		return
	}
	s.writeJSON(w, http.StatusOK, movements)
}

func (s *Server) handleDeleteDrug(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "geçersiz ilaç ID")
		return
	}

	if err := s.store.DeleteDrug(r.Context(), id); err != nil {
		s.writeStorageError(w, err, "İlaç bulunamadı")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "İlaç silindi"})
}

func (s *Server) handleLowStock(w http.ResponseWriter, r *http.Request) {
	drugs, err := s.store.ListLowStock(r.Context())
	if err != nil {
		s.writeStorageError(w, err, "ilaç bulunamadı")
		return
	}
	s.writeJSON(w, http.StatusOK, drugs)
}

func (s *Server) handleCriticalStock(w http.ResponseWriter, r *http.Request) {
	critical := s.watcher.Settings().CriticalThreshold
	drugs, err := s.store.ListCriticalStock(r.Context(), critical)
	if err != nil {
		s.writeStorageError(w, err, "ilaç bulunamadı")
		return
	}
	s.writeJSON(w, http.StatusOK, drugs)
}
