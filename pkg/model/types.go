package model

import "time"

// Drug is a single catalog entry with its current stock level.
type Drug struct {
	ID                int64     `json:"id" db:"id"`
	Name              string    `json:"name" db:"name"`
	ActiveIngredient  string    `json:"active_ingredient" db:"active_ingredient"`
	Price             float64   `json:"price" db:"price"`
	StockQuantity     int       `json:"stock_quantity" db:"stock_quantity"`
	LowStockThreshold int       `json:"low_stock_threshold" db:"low_stock_threshold"`
	Description       string    `json:"description,omitempty" db:"description"`
	Barcode           string    `json:"barcode,omitempty" db:"barcode"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// EffectiveThreshold returns the drug's own low-stock threshold, or the
// given fallback when the drug has none configured.
func EffectiveThreshold(d Drug, fallback int) int {
	if d.LowStockThreshold > 0 {
		return d.LowStockThreshold
	}
	return fallback
}

// Customer is a registered pharmacy customer.
type Customer struct {
	ID         int64     `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	NationalID string    `json:"tc_no" db:"tc_no"`
	Phone      string    `json:"phone" db:"phone"`
	Email      string    `json:"email,omitempty" db:"email"`
	Address    string    `json:"address,omitempty" db:"address"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Sale records one completed counter sale.
type Sale struct {
	ID            int64     `json:"id" db:"id"`
	DrugID        int64     `json:"drug_id" db:"drug_id"`
	CustomerID    int64     `json:"customer_id,omitempty" db:"customer_id"`
	Quantity      int       `json:"quantity" db:"quantity"`
	UnitPrice     float64   `json:"unit_price" db:"unit_price"`
	TotalPrice    float64   `json:"total_price" db:"total_price"`
	TransactionID string    `json:"its_transaction_id" db:"its_transaction_id"`
	SaleDate      time.Time `json:"sale_date" db:"sale_date"`
	CreatedBy     int64     `json:"created_by,omitempty" db:"created_by"`
	Notes         string    `json:"notes,omitempty" db:"notes"`
}

// MovementType categorizes a stock movement.
type MovementType string

const (
	MovementPurchase     MovementType = "purchase"
	MovementSale         MovementType = "sale"
	MovementAutoPurchase MovementType = "auto_purchase"
	MovementAdjustment   MovementType = "adjustment"
)

// StockMovement is one audited change to a drug's stock quantity.
type StockMovement struct {
	ID               int64        `json:"id" db:"id"`
	DrugID           int64        `json:"drug_id" db:"drug_id"`
	Type             MovementType `json:"movement_type" db:"movement_type"`
	QuantityChange   int          `json:"quantity_change" db:"quantity_change"`
	PreviousQuantity int          `json:"previous_quantity" db:"previous_quantity"`
	NewQuantity      int          `json:"new_quantity" db:"new_quantity"`
	Reason           string       `json:"reason,omitempty" db:"reason"`
	CreatedAt        time.Time    `json:"created_at" db:"created_at"`
	CreatedBy        int64        `json:"created_by,omitempty" db:"created_by"`
}

// AlertType categorizes a persisted stock alert.
type AlertType string

const (
	AlertLowStock      AlertType = "low_stock"
	AlertCriticalStock AlertType = "critical_stock"
)

// StoredAlert is one row of the persisted (unbounded) alert table. It is
// a separate sink from the watcher's in-memory dispatch ledger.
type StoredAlert struct {
	ID        int64     `json:"id" db:"id"`
	DrugID    int64     `json:"drug_id" db:"drug_id"`
	DrugName  string    `json:"drug_name,omitempty" db:"drug_name"`
	Type      AlertType `json:"alert_type" db:"alert_type"`
	Message   string    `json:"message" db:"message"`
	IsRead    bool      `json:"is_read" db:"is_read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// User is a backend login account.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	FullName     string    `json:"full_name" db:"full_name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// OrderRequest is the wire payload for POST /order_stock.
type OrderRequest struct {
	DrugID    int64 `json:"drug_id"`
	Quantity  int   `json:"quantity"`
	AutoOrder bool  `json:"auto_order"`
	Urgent    bool  `json:"urgent"`
}

// OrderResult confirms a replenishment order.
type OrderResult struct {
	Message   string `json:"message"`
	OldStock  int    `json:"old_stock"`
	NewStock  int    `json:"new_stock"`
	AutoOrder bool   `json:"auto_order"`
}

// SaleDetail is one line of the daily sales report.
type SaleDetail struct {
	DrugName      string  `json:"drug_name"`
	Quantity      int     `json:"quantity"`
	TotalPrice    float64 `json:"total_price"`
	TransactionID string  `json:"its_id"`
	Date          string  `json:"date"`
}

// DailyReport aggregates one day of sales.
type DailyReport struct {
	Date            string       `json:"date"`
	TotalSalesCount int          `json:"total_sales_count"`
	TotalRevenue    float64      `json:"total_revenue"`
	Details         []SaleDetail `json:"details"`
}

// StockStatus is a point-in-time snapshot of inventory health.
type StockStatus struct {
	TotalDrugs         int64     `json:"total_drugs"`
	TotalStockValue    float64   `json:"total_stock_value"`
	LowStockCount      int64     `json:"low_stock_count"`
	CriticalStockCount int64     `json:"critical_stock_count"`
	MinStockDrugName   string    `json:"min_stock_drug_name"`
	MinStockQuantity   int       `json:"min_stock_quantity"`
	CheckTime          time.Time `json:"check_time"`
}
