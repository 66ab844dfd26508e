package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/eczanelab/pharmapos/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLite implements the Storage interface using an SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates an SQLite database at the given path.
func NewSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

const drugColumns = `id, name, active_ingredient, price, stock_quantity, low_stock_threshold, description, barcode, created_at, updated_at`

func scanDrug(row interface{ Scan(...any) error }) (model.Drug, error) {
	var d model.Drug
	err := row.Scan(&d.ID, &d.Name, &d.ActiveIngredient, &d.Price, &d.StockQuantity,
		&d.LowStockThreshold, &d.Description, &d.Barcode, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func (s *SQLite) queryDrugs(ctx context.Context, query string, args ...any) ([]model.Drug, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query drugs: %w", err)
	}
	defer rows.Close()

	var drugs []model.Drug
	for rows.Next() {
		d, err := scanDrug(rows)
		if err != nil {
			return nil, fmt.Errorf("scan drug row: %w", err)
		}
		drugs = append(drugs, d)
	}
	return drugs, rows.Err()
}

func (s *SQLite) ListDrugs(ctx context.Context) ([]model.Drug, error) {
	return s.queryDrugs(ctx, `SELECT `+drugColumns+` FROM drugs ORDER BY name`)
}

func (s *SQLite) GetDrug(ctx context.Context, id int64) (*model.Drug, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+drugColumns+` FROM drugs WHERE id = ?`, id)
	d, err := scanDrug(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("drug %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get drug: %w", err)
	}
	return &d, nil
}

func (s *SQLite) SearchDrugs(ctx context.Context, term string, limit int) ([]model.Drug, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := "%" + term + "%"
	return s.queryDrugs(ctx,
		`SELECT `+drugColumns+` FROM drugs
		 WHERE name LIKE ? COLLATE NOCASE OR active_ingredient LIKE ? COLLATE NOCASE
		 ORDER BY name LIMIT ?`, pattern, pattern, limit)
}

func (s *SQLite) CreateDrug(ctx context.Context, drug *model.Drug) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM drugs WHERE name = ?`, drug.Name).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check drug name: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("drug %q: %w", drug.Name, ErrDuplicate)
	}

	now := time.Now().UTC()
	drug.CreatedAt = now
	drug.UpdatedAt = now

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO drugs (name, active_ingredient, price, stock_quantity, low_stock_threshold, description, barcode, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		drug.Name, drug.ActiveIngredient, drug.Price, drug.StockQuantity,
		drug.LowStockThreshold, drug.Description, drug.Barcode, drug.CreatedAt, drug.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert drug: %w", err)
	}
	drug.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("drug insert id: %w", err)
	}
	return nil
}

func (s *SQLite) UpdateThreshold(ctx context.Context, id int64, threshold int) (*model.Drug, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE drugs SET low_stock_threshold = ?, updated_at = ? WHERE id = ?`,
		threshold, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update threshold: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("drug %d: %w", id, ErrNotFound)
	}
	return s.GetDrug(ctx, id)
}

func (s *SQLite) DeleteDrug(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM drugs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete drug: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("drug %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLite) AdjustStock(ctx context.Context, id int64, delta int, typ model.MovementType, reason string) (*model.Drug, int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("begin stock adjustment: %w", err)
	}
	defer tx.Rollback()

	var previous int
	err = tx.QueryRowContext(ctx, `SELECT stock_quantity FROM drugs WHERE id = ?`, id).Scan(&previous)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, fmt.Errorf("drug %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read stock quantity: %w", err)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE drugs SET stock_quantity = stock_quantity + ?, updated_at = ? WHERE id = ?`,
		delta, now, id,
	); err != nil {
		return nil, 0, fmt.Errorf("update stock quantity: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO stock_movements (drug_id, movement_type, quantity_change, previous_quantity, new_quantity, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, typ, delta, previous, previous+delta, reason, now,
	); err != nil {
		return nil, 0, fmt.Errorf("insert stock movement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("commit stock adjustment: %w", err)
	}

	drug, err := s.GetDrug(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	return drug, previous, nil
}

func (s *SQLite) ListLowStock(ctx context.Context) ([]model.Drug, error) {
	return s.queryDrugs(ctx,
		`SELECT `+drugColumns+` FROM drugs WHERE stock_quantity <= low_stock_threshold ORDER BY stock_quantity`)
}

func (s *SQLite) ListCriticalStock(ctx context.Context, critical int) ([]model.Drug, error) {
	return s.queryDrugs(ctx,
		`SELECT `+drugColumns+` FROM drugs WHERE stock_quantity <= ? ORDER BY stock_quantity`, critical)
}

func (s *SQLite) RecordMovement(ctx context.Context, mv *model.StockMovement) error {
	if mv.CreatedAt.IsZero() {
		mv.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO stock_movements (drug_id, movement_type, quantity_change, previous_quantity, new_quantity, reason, created_at, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		mv.DrugID, mv.Type, mv.QuantityChange, mv.PreviousQuantity, mv.NewQuantity, mv.Reason, mv.CreatedAt, mv.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("insert stock movement: %w", err)
	}
	mv.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("movement insert id: %w", err)
	}
	return nil
}

func (s *SQLite) ListMovements(ctx context.Context, drugID int64, limit int) ([]model.StockMovement, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, drug_id, movement_type, quantity_change, previous_quantity, new_quantity, reason, created_at, created_by
		 FROM stock_movements WHERE drug_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, drugID, limit)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	var movements []model.StockMovement
	for rows.Next() {
		var mv model.StockMovement
		if err := rows.Scan(&mv.ID, &mv.DrugID, &mv.Type, &mv.QuantityChange, &mv.PreviousQuantity,
			&mv.NewQuantity, &mv.Reason, &mv.CreatedAt, &mv.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan movement row: %w", err)
		}
		movements = append(movements, mv)
	}
	return movements, rows.Err()
}

func (s *SQLite) CreateCustomer(ctx context.Context, c *model.Customer) error {
	if c.NationalID != "" {
		var exists int
		err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers WHERE tc_no = ?`, c.NationalID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check national id: %w", err)
		}
		if exists > 0 {
			return fmt.Errorf("national id %q: %w", c.NationalID, ErrDuplicate)
		}
	}

	c.CreatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO customers (name, tc_no, phone, email, address, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.Name, c.NationalID, c.Phone, c.Email, c.Address, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("customer insert id: %w", err)
	}
	return nil
}

func (s *SQLite) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, tc_no, phone, email, address, created_at FROM customers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var customers []model.Customer
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.NationalID, &c.Phone, &c.Email, &c.Address, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan customer row: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (s *SQLite) GetCustomer(ctx context.Context, id int64) (*model.Customer, error) {
	var c model.Customer
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, tc_no, phone, email, address, created_at FROM customers WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.NationalID, &c.Phone, &c.Email, &c.Address, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}

func (s *SQLite) CreateSale(ctx context.Context, sale *model.Sale) error {
	if sale.SaleDate.IsZero() {
		sale.SaleDate = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sales (drug_id, customer_id, quantity, unit_price, total_price, its_transaction_id, sale_date, created_by, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sale.DrugID, nullableID(sale.CustomerID), sale.Quantity, sale.UnitPrice, sale.TotalPrice,
		sale.TransactionID, sale.SaleDate, sale.CreatedBy, sale.Notes,
	)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	sale.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sale insert id: %w", err)
	}
	return nil
}

func (s *SQLite) CustomerHistory(ctx context.Context, customerID int64) ([]model.SaleDetail, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT COALESCE(d.name, 'Silinmiş İlaç'), s.quantity, s.total_price, s.its_transaction_id, s.sale_date
		 FROM sales s LEFT JOIN drugs d ON d.id = s.drug_id
		 WHERE s.customer_id = ? ORDER BY s.sale_date DESC`, customerID)
	if err != nil {
		return nil, fmt.Errorf("customer history: %w", err)
	}
	defer rows.Close()

	var details []model.SaleDetail
	for rows.Next() {
		var d model.SaleDetail
		var saleDate time.Time
		if err := rows.Scan(&d.DrugName, &d.Quantity, &d.TotalPrice, &d.TransactionID, &saleDate); err != nil {
			return nil, fmt.Errorf("scan sale row: %w", err)
		}
		d.Date = saleDate.Format("2006-01-02 15:04")
		details = append(details, d)
	}
	return details, rows.Err()
}

func (s *SQLite) DailyReport(ctx context.Context, day time.Time) (*model.DailyReport, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	rows, err := s.db.QueryContext(ctx,
		`SELECT COALESCE(d.name, 'Silinmiş İlaç'), s.quantity, s.total_price, s.its_transaction_id, s.sale_date
		 FROM sales s LEFT JOIN drugs d ON d.id = s.drug_id
		 WHERE s.sale_date >= ? AND s.sale_date < ? ORDER BY s.sale_date`, start, end)
	if err != nil {
		return nil, fmt.Errorf("daily report: %w", err)
	}
	defer rows.Close()

	report := &model.DailyReport{Date: start.Format("2006-01-02")}
	for rows.Next() {
		var d model.SaleDetail
		var saleDate time.Time
		if err := rows.Scan(&d.DrugName, &d.Quantity, &d.TotalPrice, &d.TransactionID, &saleDate); err != nil {
			return nil, fmt.Errorf("scan sale row: %w", err)
		}
		d.Date = saleDate.Format("2006-01-02 15:04")
		report.Details = append(report.Details, d)
		report.TotalSalesCount++
		report.TotalRevenue += d.TotalPrice
	}
	return report, rows.Err()
}

func (s *SQLite) StockStatus(ctx context.Context, critical int) (*model.StockStatus, error) {
	status := &model.StockStatus{CheckTime: time.Now().UTC()}

	err := s.db.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COALESCE(SUM(price * stock_quantity), 0),
		COALESCE(SUM(CASE WHEN stock_quantity <= low_stock_threshold THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN stock_quantity <= ? THEN 1 ELSE 0 END), 0)
	FROM drugs`, critical).Scan(
		&status.TotalDrugs, &status.TotalStockValue, &status.LowStockCount, &status.CriticalStockCount)
	if err != nil {
		return nil, fmt.Errorf("stock status: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT name, stock_quantity FROM drugs ORDER BY stock_quantity LIMIT 1`,
	).Scan(&status.MinStockDrugName, &status.MinStockQuantity)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("min stock drug: %w", err)
	}

	return status, nil
}

func (s *SQLite) CreateAlert(ctx context.Context, a *model.StoredAlert) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO alerts (drug_id, alert_type, message, is_read, created_at) VALUES (?, ?, ?, ?, ?)`,
		a.DrugID, a.Type, a.Message, a.IsRead, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	a.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("alert insert id: %w", err)
	}
	return nil
}

func (s *SQLite) ListAlerts(ctx context.Context, limit int) ([]model.StoredAlert, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, COALESCE(a.drug_id, 0), COALESCE(d.name, 'Silinmiş İlaç'), a.alert_type, a.message, a.is_read, a.created_at
		 FROM alerts a LEFT JOIN drugs d ON d.id = a.drug_id
		 ORDER BY a.created_at DESC, a.id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []model.StoredAlert
	for rows.Next() {
		var a model.StoredAlert
		if err := rows.Scan(&a.ID, &a.DrugID, &a.DrugName, &a.Type, &a.Message, &a.IsRead, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert row: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (s *SQLite) CreateUser(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, role, full_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.Username, u.PasswordHash, u.Role, u.FullName, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("user insert id: %w", err)
	}
	return nil
}

func (s *SQLite) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, full_name, created_at, updated_at FROM users WHERE username = ?`,
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.FullName, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *SQLite) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// nullableID maps a zero ID to NULL so optional foreign keys stay unset.
func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
