package storage

import (
	"context"
	"errors"
	"time"

	"github.com/eczanelab/pharmapos/pkg/model"
)

// Sentinel errors returned by Storage implementations.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// Storage defines the persistence layer for the pharmacy catalog, sales
// ledger, stock movement audit trail and the persisted alert table.
type Storage interface {
	// ListDrugs returns the full catalog ordered by name.
	ListDrugs(ctx context.Context) ([]model.Drug, error)

	// GetDrug retrieves a single drug by ID.
	GetDrug(ctx context.Context, id int64) (*model.Drug, error)

	// SearchDrugs matches name or active ingredient, case-insensitive.
	SearchDrugs(ctx context.Context, term string, limit int) ([]model.Drug, error)

	// CreateDrug inserts a new drug. Duplicate names are rejected.
	CreateDrug(ctx context.Context, drug *model.Drug) error

	// UpdateThreshold changes a drug's low-stock threshold.
	UpdateThreshold(ctx context.Context, id int64, threshold int) (*model.Drug, error)

	// DeleteDrug removes a drug from the catalog.
	DeleteDrug(ctx context.Context, id int64) error

	// AdjustStock applies a quantity delta and writes the matching stock
	// movement in one transaction. Returns the updated drug and the
	// quantity before the change.
	AdjustStock(ctx context.Context, id int64, delta int, typ model.MovementType, reason string) (*model.Drug, int, error)

	// ListLowStock returns drugs at or below their own threshold.
	ListLowStock(ctx context.Context) ([]model.Drug, error)

	// ListCriticalStock returns drugs at or below the given critical level.
	ListCriticalStock(ctx context.Context, critical int) ([]model.Drug, error)

	// RecordMovement appends a stock movement row.
	RecordMovement(ctx context.Context, mv *model.StockMovement) error

	// ListMovements returns a drug's movements, most recent first.
	ListMovements(ctx context.Context, drugID int64, limit int) ([]model.StockMovement, error)

	// CreateCustomer inserts a customer. Duplicate national IDs are rejected.
	CreateCustomer(ctx context.Context, c *model.Customer) error

	// ListCustomers returns all customers ordered by name.
	ListCustomers(ctx context.Context) ([]model.Customer, error)

	// GetCustomer retrieves a single customer by ID.
	GetCustomer(ctx context.Context, id int64) (*model.Customer, error)

	// CreateSale appends a sale row.
	CreateSale(ctx context.Context, s *model.Sale) error

	// CustomerHistory returns a customer's sales, most recent first.
	CustomerHistory(ctx context.Context, customerID int64) ([]model.SaleDetail, error)

	// DailyReport aggregates the sales of the given calendar day (UTC).
	DailyReport(ctx context.Context, day time.Time) (*model.DailyReport, error)

	// StockStatus computes the inventory health snapshot.
	StockStatus(ctx context.Context, critical int) (*model.StockStatus, error)

	// CreateAlert appends a row to the persisted alert table.
	CreateAlert(ctx context.Context, a *model.StoredAlert) error

	// ListAlerts returns persisted alerts, most recent first.
	ListAlerts(ctx context.Context, limit int) ([]model.StoredAlert, error)

	// CreateUser inserts a login account.
	CreateUser(ctx context.Context, u *model.User) error

	// GetUserByUsername retrieves an account by username.
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)

	// CountUsers returns the number of accounts.
	CountUsers(ctx context.Context) (int64, error)

	// Close releases resources.
	Close() error
}
