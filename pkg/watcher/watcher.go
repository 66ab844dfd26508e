// Package watcher implements the stock-alert pipeline: classify the
// catalog by stock level, dispatch notifications for the low and critical
// batches, trigger replenishment orders and record the outcome.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/eczanelab/pharmapos/pkg/alerts"
	"github.com/eczanelab/pharmapos/pkg/model"
	"github.com/robfig/cron/v3"
)

// Inventory is the catalog collaborator the watcher polls and orders from.
type Inventory interface {
	ListDrugs(ctx context.Context) ([]model.Drug, error)
	OrderStock(ctx context.Context, req model.OrderRequest) (*model.OrderResult, error)
}

// AlertSink persists alerts to durable storage. This is a second,
// unbounded sink independent of the in-memory ledger.
type AlertSink interface {
	CreateAlert(ctx context.Context, a *model.StoredAlert) error
}

// Settings controls one watcher instance. Read at construction, not
// mutated afterwards.
type Settings struct {
	Demo              bool
	LowStockThreshold int
	CriticalThreshold int
	AutoOrderEnabled  bool
	AutoOrderQuantity int
	CheckInterval     time.Duration
	CycleTimeout      time.Duration
	SaleDebounce      time.Duration
}

func (s Settings) withDefaults() Settings {
	if s.LowStockThreshold <= 0 {
		s.LowStockThreshold = 10
	}
	if s.CriticalThreshold <= 0 {
		s.CriticalThreshold = 5
	}
	if s.AutoOrderQuantity <= 0 {
		s.AutoOrderQuantity = 50
	}
	if s.CheckInterval <= 0 {
		s.CheckInterval = 60 * time.Minute
	}
	if s.CycleTimeout <= 0 {
		s.CycleTimeout = 30 * time.Second
	}
	if s.SaleDebounce <= 0 {
		s.SaleDebounce = 2 * time.Second
	}
	return s
}

// Result is the outcome of one check cycle.
type Result struct {
	Critical []model.Drug `json:"critical"`
	Low      []model.Drug `json:"low"`
}

// Service runs the check-classify-dispatch-record cycle. Construct it
// explicitly and hand it to the scheduler and the request handlers; there
// is no package-level instance.
type Service struct {
	inv       Inventory
	notifiers []alerts.Notifier
	sink      AlertSink
	ledger    *Ledger
	cfg       Settings
	logger    *slog.Logger

	startOnce sync.Once
	cron      *cron.Cron

	saleMu    sync.Mutex
	saleTimer *time.Timer
}

// New creates a watcher service. The sink may be nil; notifiers are
// ignored in demo mode.
func New(inv Inventory, notifiers []alerts.Notifier, sink AlertSink, cfg Settings, logger *slog.Logger) *Service {
	return &Service{
		inv:       inv,
		notifiers: notifiers,
		sink:      sink,
		ledger:    NewLedger(),
		cfg:       cfg.withDefaults(),
		logger:    logger,
	}
}

// CheckStockLevels runs one full evaluation cycle. An upstream fetch
// failure is logged and yields an empty result; dispatch and order
// failures never abort the cycle. Cycles may overlap, the ledger is safe
// for concurrent appends.
func (s *Service) CheckStockLevels(ctx context.Context) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.CycleTimeout)
	defer cancel()

	s.logger.Info("stock check started")

	drugs, err := s.inv.ListDrugs(ctx)
	if err != nil {
		s.logger.Error("fetch drug snapshots", "error", err)
		return Result{}, fmt.Errorf("fetch drug snapshots: %w", err)
	}

	critical, low := Partition(drugs, s.cfg.LowStockThreshold, s.cfg.CriticalThreshold)

	if len(critical) > 0 {
		s.handleBatch(ctx, alerts.SeverityCritical, critical)
	}
	if len(low) > 0 {
		s.handleBatch(ctx, alerts.SeverityLow, low)
	}

	s.logger.Info("stock check finished",
		"critical", len(critical),
		"low", len(low),
		"total", len(drugs),
	)

	return Result{Critical: critical, Low: low}, nil
}

// handleBatch dispatches notifications and auto-orders for one severity
// batch, then records the outcome in both sinks.
func (s *Service) handleBatch(ctx context.Context, kind alerts.Severity, drugs []model.Drug) {
	now := time.Now().UTC()

	if s.cfg.Demo {
		s.logger.Warn("demo mode, dispatch suppressed",
			"kind", kind,
			"drugs", drugNames(drugs),
		)
	} else {
		n := alerts.Notification{Kind: kind, Drugs: drugs, Time: now}
		for _, notifier := range s.notifiers {
			if err := notifier.Send(ctx, n); err != nil {
				s.logger.Error("dispatch alert failed",
					"notifier", notifier.Name(),
					"kind", kind,
					"error", err,
				)
				continue
			}
			s.logger.Info("alert dispatched", "notifier", notifier.Name(), "kind", kind)
		}
	}

	s.autoOrder(ctx, drugs, kind == alerts.SeverityCritical)

	record := s.ledger.Record(kind, drugs, now)
	s.logger.Info("alert recorded", "id", record.ID, "kind", kind, "drug_count", record.DrugCount)

	s.persistAlerts(ctx, kind, drugs)
}

// autoOrder issues one replenishment request per drug, doubling the base
// quantity for critical batches. Per-drug failures do not block siblings.
func (s *Service) autoOrder(ctx context.Context, drugs []model.Drug, urgent bool) {
	if !s.cfg.AutoOrderEnabled {
		return
	}

	quantity := s.cfg.AutoOrderQuantity
	if urgent {
		quantity *= 2
	}

	if s.cfg.Demo {
		s.logger.Warn("demo mode, auto-order suppressed",
			"drugs", drugNames(drugs),
			"quantity", quantity,
			"urgent", urgent,
		)
		return
	}

	for _, d := range drugs {
		result, err := s.inv.OrderStock(ctx, model.OrderRequest{
			DrugID:    d.ID,
			Quantity:  quantity,
			AutoOrder: true,
			Urgent:    urgent,
		})
		if err != nil {
			s.logger.Error("auto-order failed", "drug", d.Name, "error", err)
			continue
		}
		s.logger.Info("auto-order placed", "drug", d.Name, "quantity", quantity, "new_stock", result.NewStock)
	}
}

// persistAlerts writes one row per drug to the durable alert table.
func (s *Service) persistAlerts(ctx context.Context, kind alerts.Severity, drugs []model.Drug) {
	if s.sink == nil {
		return
	}

	for _, d := range drugs {
		alert := &model.StoredAlert{DrugID: d.ID}
		if kind == alerts.SeverityCritical {
			alert.Type = model.AlertCriticalStock
			alert.Message = fmt.Sprintf("%s kritik stokta! (%d adet kaldı)", d.Name, d.StockQuantity)
		} else {
			alert.Type = model.AlertLowStock
			alert.Message = fmt.Sprintf("%s düşük stokta. Eşik: %d, Mevcut: %d",
				d.Name, model.EffectiveThreshold(d, s.cfg.LowStockThreshold), d.StockQuantity)
		}
		if err := s.sink.CreateAlert(ctx, alert); err != nil {
			s.logger.Error("persist alert failed", "drug", d.Name, "error", err)
		}
	}
}

// History returns the in-memory dispatch ledger, most recent last.
func (s *Service) History() []AlertRecord {
	return s.ledger.History()
}

// Settings returns the effective configuration.
func (s *Service) Settings() Settings {
	return s.cfg
}

func drugNames(drugs []model.Drug) []string {
	names := make([]string, len(drugs))
	for i, d := range drugs {
		names[i] = d.Name
	}
	return names
}
