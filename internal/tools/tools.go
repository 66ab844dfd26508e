// Package tools exposes pharmacy operations as named, JSON-invocable
// tools for assistant integrations.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/eczanelab/pharmapos/pkg/model"
	"github.com/eczanelab/pharmapos/pkg/storage"
)

// Descriptor describes one invocable tool.
type Descriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// objectSchema builds a JSON-schema object description from property
// name/type pairs.
func objectSchema(props map[string]string, required ...string) map[string]any {
	properties := make(map[string]any, len(props))
	for name, typ := range props {
		properties[name] = map[string]any{"type": typ}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// Result is the invocation response: a list of text content blocks.
type Result struct {
	Content []Content `json:"content"`
}

// Content is one block of tool output.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func textResult(format string, args ...any) *Result {
	return &Result{Content: []Content{{Type: "text", Text: fmt.Sprintf(format, args...)}}}
}

type handlerFunc func(ctx context.Context, args json.RawMessage) (*Result, error)

type tool struct {
	desc    Descriptor
	handler handlerFunc
}

// Server routes tool listing and invocation requests.
type Server struct {
	store     storage.Storage
	threshold int // fallback low-stock threshold for drugs without one
	critical  int
	tools     []tool
	byName    map[string]tool
	mux       *http.ServeMux
	logger    *slog.Logger
}

// NewServer creates the tool server backed by the given storage. The
// threshold and critical levels classify the stock tools' output.
func NewServer(store storage.Storage, threshold, critical int, logger *slog.Logger) *Server {
	if threshold <= 0 {
		threshold = 10
	}
	if critical <= 0 {
		critical = 5
	}
	s := &Server{
		store:     store,
		threshold: threshold,
		critical:  critical,
		byName:    make(map[string]tool),
		mux:       http.NewServeMux(),
		logger:    logger,
	}
	s.register()
	s.routes()
	return s
}

func (s *Server) register() {
	s.add("search_drugs", "İlaç adı veya etken madde ile katalogda arama yapar.",
		objectSchema(map[string]string{"query": "string"}, "query"), s.searchDrugs)
	s.add("check_stock", "Bir ilacın güncel stok durumunu sorgular.",
		objectSchema(map[string]string{"drug_name": "string"}, "drug_name"), s.checkStock)
	s.add("get_low_stock_alerts", "Stoku eşiğin altına düşen ilaçları listeler.",
		objectSchema(nil), s.lowStockAlerts)
	s.add("get_daily_sales_report", "Günlük satış raporunu döndürür (tarih: YYYY-MM-DD).",
		objectSchema(map[string]string{"date": "string"}), s.dailySalesReport)
	s.add("add_numbers", "İki sayıyı toplar.",
		objectSchema(map[string]string{"a": "number", "b": "number"}, "a", "b"), s.addNumbers)
}

func (s *Server) add(name, description string, schema map[string]any, h handlerFunc) {
	t := tool{desc: Descriptor{Name: name, Description: description, InputSchema: schema}, handler: h}
	s.tools = append(s.tools, t)
	s.byName[name] = t
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /tools", s.handleList)
	s.mux.HandleFunc("POST /tools/{name}", s.handleInvoke)
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	descriptors := make([]Descriptor, 0, len(s.tools))
	for _, t := range s.tools {
		descriptors = append(descriptors, t.desc)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"tools": descriptors})
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	t, ok := s.byName[name]
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("bilinmeyen araç: %s", name))
		return
	}

	args, err := decodeArgs(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "geçersiz istek gövdesi")
		return
	}

	result, err := t.handler(r.Context(), args)
	if err != nil {
		s.logger.Error("tool invocation failed", "tool", name, "error", err)
		s.writeError(w, http.StatusInternalServerError, "araç çalıştırılamadı")
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// decodeArgs tolerates an empty body for argument-less tools.
func decodeArgs(r *http.Request) (json.RawMessage, error) {
	var args json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
		if errors.Is(err, io.EOF) {
			return json.RawMessage("{}"), nil
		}
		return nil, err
	}
	return args, nil
}

type searchArgs struct {
	Query string `json:"query"`
}

func (s *Server) searchDrugs(ctx context.Context, raw json.RawMessage) (*Result, error) {
	var args searchArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	if args.Query == "" {
		return textResult("Arama terimi boş olamaz."), nil
	}

	drugs, err := s.store.SearchDrugs(ctx, args.Query, 10)
	if err != nil {
		return nil, err
	}
	if len(drugs) == 0 {
		return textResult("'%s' için sonuç bulunamadı.", args.Query), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "'%s' için %d sonuç:\n", args.Query, len(drugs))
	for _, d := range drugs {
		fmt.Fprintf(&b, "- %s (%s): %.2f TL, stok %d\n", d.Name, d.ActiveIngredient, d.Price, d.StockQuantity)
	}
	return textResult("%s", b.String()), nil
}

type stockArgs struct {
	DrugName string `json:"drug_name"`
}

func (s *Server) checkStock(ctx context.Context, raw json.RawMessage) (*Result, error) {
	var args stockArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}

	drugs, err := s.store.SearchDrugs(ctx, args.DrugName, 1)
	if err != nil {
		return nil, err
	}
	if len(drugs) == 0 {
		return textResult("'%s' adında bir ilaç bulunamadı.", args.DrugName), nil
	}

	d := drugs[0]
	status := "yeterli"
	switch {
	case d.StockQuantity <= s.critical:
		status = "KRİTİK"
	case d.StockQuantity <= model.EffectiveThreshold(d, s.threshold):
		status = "düşük"
	}
	return textResult("%s: %d adet (eşik %d, durum: %s)",
		d.Name, d.StockQuantity, model.EffectiveThreshold(d, s.threshold), status), nil
}

func (s *Server) lowStockAlerts(ctx context.Context, _ json.RawMessage) (*Result, error) {
	drugs, err := s.store.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	if len(drugs) == 0 {
		return textResult("Tüm ilaçların stok seviyesi yeterli."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d ilaç eşiğin altında:\n", len(drugs))
	for _, d := range drugs {
		marker := ""
		if d.StockQuantity <= s.critical {
			marker = " [KRİTİK]"
		}
		fmt.Fprintf(&b, "- %s: %d adet (eşik %d)%s\n",
			d.Name, d.StockQuantity, model.EffectiveThreshold(d, s.threshold), marker)
	}
	return textResult("%s", b.String()), nil
}

type reportArgs struct {
	Date string `json:"date"`
}

func (s *Server) dailySalesReport(ctx context.Context, raw json.RawMessage) (*Result, error) {
	var args reportArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}

	day := time.Now().UTC()
	if args.Date != "" {
		parsed, err := time.Parse("2006-01-02", args.Date)
		if err != nil {
			return textResult("Tarih biçimi YYYY-MM-DD olmalı."), nil
		}
		day = parsed
	}

	report, err := s.store.DailyReport(ctx, day)
	if err != nil {
		return nil, err
	}
	if report.TotalSalesCount == 0 {
		return textResult("%s tarihinde satış yok.", report.Date), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s satış raporu: %d satış, toplam %.2f TL\n",
		report.Date, report.TotalSalesCount, report.TotalRevenue)
	for _, d := range report.Details {
		fmt.Fprintf(&b, "- %s x%d: %.2f TL\n", d.DrugName, d.Quantity, d.TotalPrice)
	}
	return textResult("%s", b.String()), nil
}

type addArgs struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

func (s *Server) addNumbers(_ context.Context, raw json.RawMessage) (*Result, error) {
	var args addArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	return textResult("%g + %g = %g", args.A, args.B, args.A+args.B), nil
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
