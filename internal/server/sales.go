package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/eczanelab/pharmapos/pkg/model"
	"github.com/google/uuid"
)

type saleRequest struct {
	DrugID     int64  `json:"drug_id"`
	CustomerID int64  `json:"customer_id,omitempty"`
	Quantity   int    `json:"quantity"`
	Notes      string `json:"notes,omitempty"`
}

func (s *Server) handleCreateSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "geçersiz istek gövdesi")
		return
	}
	if req.Quantity <= 0 {
		s.writeError(w, http.StatusBadRequest, "miktar pozitif olmalı")
		return
	}

	drug, err := s.store.GetDrug(r.Context(), req.DrugID)
	if err != nil {
		s.writeStorageError(w, err, "İlaç bulunamadı")
		return
	}
	if drug.StockQuantity < req.Quantity {
		s.writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Yetersiz stok! Mevcut: %d", drug.StockQuantity))
		return
	}

	if _, _, err := s.store.AdjustStock(r.Context(), drug.ID, -req.Quantity, model.MovementSale, "Satış"); err != nil {
		s.writeStorageError(w, err, "İlaç bulunamadı")
		return
	}

	sale := &model.Sale{
		DrugID:        drug.ID,
		CustomerID:    req.CustomerID,
		Quantity:      req.Quantity,
		UnitPrice:     drug.Price,
		TotalPrice:    drug.Price * float64(req.Quantity),
		TransactionID: "ITS-" + uuid.NewString(),
		SaleDate:      time.Now().UTC(),
		Notes:         req.Notes,
	}
	if err := s.store.CreateSale(r.Context(), sale); err != nil {
		s.writeStorageError(w, err, "İlaç bulunamadı")
		return
	}

	// The sale may have pushed the drug under a threshold; re-check soon.
	s.watcher.NotifySale()

	s.writeJSON(w, http.StatusCreated, sale)
}

func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := s.store.ListCustomers(r.Context())
	if err != nil {
		s.writeStorageError(w, err, "müşteri bulunamadı")
		return
	}
	s.writeJSON(w, http.StatusOK, customers)
}

func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var customer model.Customer
	if err := json.NewDecoder(r.Body).Decode(&customer); err != nil {
		s.writeError(w, http.StatusBadRequest, "geçersiz istek gövdesi")
		return
	}
	if customer.Name == "" || customer.NationalID == "" {
		s.writeError(w, http.StatusBadRequest, "isim ve TC kimlik no zorunlu")
		return
	}

	if err := s.store.CreateCustomer(r.Context(), &customer); err != nil {
		s.writeStorageError(w, err, "Müşteri bulunamadı")
		return
	}
	s.writeJSON(w, http.StatusCreated, customer)
}

func (s *Server) handleCustomerHistory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "geçersiz müşteri ID")
		return
	}

	if _, err := s.store.GetCustomer(r.Context(), id); err != nil {
		s.writeStorageError(w, err, "Müşteri bulunamadı")
		return
	}

	history, err := s.store.CustomerHistory(r.Context(), id)
	if err != nil {
		s.writeStorageError(w, err, "Müşteri bulunamadı")
		return
	}
	s.writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleOrderStock(w http.ResponseWriter, r *http.Request) {
	var req model.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "geçersiz istek gövdesi")
		return
	}
	if req.Quantity <= 0 {
		s.writeError(w, http.StatusBadRequest, "miktar pozitif olmalı")
		return
	}

	result, err := s.orders.OrderStock(r.Context(), req)
	if err != nil {
		s.writeStorageError(w, err, "İlaç bulunamadı")
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	day := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "tarih biçimi YYYY-MM-DD olmalı")
			return
		}
		day = parsed
	}

	report, err := s.store.DailyReport(r.Context(), day)
	if err != nil {
		s.writeStorageError(w, err, "rapor bulunamadı")
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleStockStatus(w http.ResponseWriter, r *http.Request) {
	critical := s.watcher.Settings().CriticalThreshold
	status, err := s.store.StockStatus(r.Context(), critical)
	if err != nil {
		s.writeStorageError(w, err, "rapor bulunamadı")
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}
