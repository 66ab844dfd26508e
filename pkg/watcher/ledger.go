package watcher

import (
	"fmt"
	"sync"
	"time"

	"github.com/eczanelab/pharmapos/pkg/alerts"
	"github.com/eczanelab/pharmapos/pkg/model"
)

// ledgerCapacity bounds the in-memory dispatch history.
const ledgerCapacity = 100

// AlertDrug is the per-drug snapshot embedded in a ledger record.
type AlertDrug struct {
	DrugID int64  `json:"drug_id"`
	Name   string `json:"name"`
	Stock  int    `json:"stock"`
}

// AlertRecord is one dispatched alert. Immutable after creation.
type AlertRecord struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Kind      alerts.Severity `json:"type"`
	DrugCount int             `json:"drug_count"`
	Drugs     []AlertDrug     `json:"drugs"`
}

// Ledger is the bounded in-memory history of dispatched alerts. It keeps
// the 100 most recent records, evicting oldest first. Safe for concurrent
// use; overlapping check cycles may append at the same time.
type Ledger struct {
	mu      sync.Mutex
	records []AlertRecord
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Record appends a new alert record and trims the history to capacity.
func (l *Ledger) Record(kind alerts.Severity, drugs []model.Drug, now time.Time) AlertRecord {
	record := AlertRecord{
		ID:        fmt.Sprintf("%s_%s", kind, now.Format("20060102_150405")),
		Timestamp: now,
		Kind:      kind,
		DrugCount: len(drugs),
		Drugs:     make([]AlertDrug, 0, len(drugs)),
	}
	for _, d := range drugs {
		record.Drugs = append(record.Drugs, AlertDrug{DrugID: d.ID, Name: d.Name, Stock: d.StockQuantity})
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, record)
	if len(l.records) > ledgerCapacity {
		l.records = l.records[len(l.records)-ledgerCapacity:]
	}
	return record
}

// History returns a copy of the retained records, most recent last.
func (l *Ledger) History() []AlertRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]AlertRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Len reports the number of retained records.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
