package tools_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eczanelab/pharmapos/internal/tools"
	"github.com/eczanelab/pharmapos/pkg/model"
	"github.com/eczanelab/pharmapos/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTools(t *testing.T) *tools.Server {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := storage.NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, storage.EnsureSeedData(context.Background(), store))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return tools.NewServer(store, 10, 5, logger)
}

func invoke(t *testing.T, srv *tools.Server, name, body string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest("POST", "/tools/"+name, reader)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		return w, ""
	}
	var result tools.Result
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	require.Len(t, result.Content, 1)
	require.Equal(t, "text", result.Content[0].Type)
	return w, result.Content[0].Text
}

func TestListTools(t *testing.T) {
	srv := setupTools(t)

	req := httptest.NewRequest("GET", "/tools", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Tools []tools.Descriptor `json:"tools"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Tools, 5)

	names := make([]string, 0, len(resp.Tools))
	for _, d := range resp.Tools {
		names = append(names, d.Name)
		assert.NotEmpty(t, d.Description)
		assert.Equal(t, "object", d.InputSchema["type"])
	}
	assert.Contains(t, names, "search_drugs")
	assert.Contains(t, names, "check_stock")
	assert.Contains(t, names, "get_low_stock_alerts")
	assert.Contains(t, names, "get_daily_sales_report")
	assert.Contains(t, names, "add_numbers")
}

func TestInvoke_UnknownTool(t *testing.T) {
	srv := setupTools(t)

	w, _ := invoke(t, srv, "does_not_exist", "{}")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchDrugs(t *testing.T) {
	srv := setupTools(t)

	_, text := invoke(t, srv, "search_drugs", `{"query":"parol"}`)
	assert.Contains(t, text, "Parol")
	assert.Contains(t, text, "Parasetamol")

	_, text = invoke(t, srv, "search_drugs", `{"query":"yokböyleilaç"}`)
	assert.Contains(t, text, "sonuç bulunamadı")

	_, text = invoke(t, srv, "search_drugs", `{}`)
	assert.Contains(t, text, "boş olamaz")
}

func TestCheckStock(t *testing.T) {
	srv := setupTools(t)

	_, text := invoke(t, srv, "check_stock", `{"drug_name":"Augmentin"}`)
	assert.Contains(t, text, "3 adet")
	assert.Contains(t, text, "KRİTİK")

	_, text = invoke(t, srv, "check_stock", `{"drug_name":"Parol"}`)
	assert.Contains(t, text, "yeterli")

	_, text = invoke(t, srv, "check_stock", `{"drug_name":"Hayalet"}`)
	assert.Contains(t, text, "bulunamadı")
}

func TestCheckStock_ConfiguredFallbackThreshold(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := storage.NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	// No per-drug threshold: the configured fallback of 20 applies.
	drug := &model.Drug{Name: "Dolorex", Price: 40, StockQuantity: 15}
	require.NoError(t, store.CreateDrug(context.Background(), drug))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := tools.NewServer(store, 20, 5, logger)

	_, text := invoke(t, srv, "check_stock", `{"drug_name":"Dolorex"}`)
	assert.Contains(t, text, "eşik 20")
	assert.Contains(t, text, "düşük")
}

func TestLowStockAlerts(t *testing.T) {
	srv := setupTools(t)

	// Works with an empty body too.
	_, text := invoke(t, srv, "get_low_stock_alerts", "")
	assert.Contains(t, text, "Aspirin")
	assert.Contains(t, text, "Augmentin")
	assert.Contains(t, text, "[KRİTİK]")
	assert.NotContains(t, text, "Parol")
}

func TestDailySalesReport(t *testing.T) {
	srv := setupTools(t)

	_, text := invoke(t, srv, "get_daily_sales_report", "{}")
	assert.Contains(t, text, "satış yok")

	_, text = invoke(t, srv, "get_daily_sales_report", `{"date":"bozuk"}`)
	assert.Contains(t, text, "YYYY-MM-DD")
}

func TestAddNumbers(t *testing.T) {
	srv := setupTools(t)

	_, text := invoke(t, srv, "add_numbers", `{"a":2,"b":40}`)
	assert.Equal(t, "2 + 40 = 42", text)
}
