package storage

import (
	"database/sql"
	"fmt"
)

var migrations = []string{
	// Migration 1: Initial schema
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'Personel',
		full_name     TEXT DEFAULT '',
		created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS drugs (
		id                  INTEGER PRIMARY KEY AUTOINCREMENT,
		name                TEXT NOT NULL UNIQUE,
		active_ingredient   TEXT DEFAULT '',
		price               REAL NOT NULL DEFAULT 0.0,
		stock_quantity      INTEGER NOT NULL DEFAULT 0,
		low_stock_threshold INTEGER NOT NULL DEFAULT 10,
		description         TEXT DEFAULT '',
		barcode             TEXT DEFAULT '',
		created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_drugs_name ON drugs(name);
	CREATE INDEX IF NOT EXISTS idx_drugs_stock ON drugs(stock_quantity);

	CREATE TABLE IF NOT EXISTS customers (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		name       TEXT NOT NULL,
		tc_no      TEXT UNIQUE,
		phone      TEXT DEFAULT '',
		email      TEXT DEFAULT '',
		address    TEXT DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sales (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		drug_id            INTEGER REFERENCES drugs(id) ON DELETE SET NULL,
		customer_id        INTEGER REFERENCES customers(id) ON DELETE SET NULL,
		quantity           INTEGER NOT NULL,
		unit_price         REAL NOT NULL,
		total_price        REAL NOT NULL,
		its_transaction_id TEXT DEFAULT '',
		sale_date          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		created_by         INTEGER DEFAULT 0,
		notes              TEXT DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_sales_date ON sales(sale_date);
	CREATE INDEX IF NOT EXISTS idx_sales_customer ON sales(customer_id);

	CREATE TABLE IF NOT EXISTS stock_movements (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		drug_id           INTEGER REFERENCES drugs(id) ON DELETE SET NULL,
		movement_type     TEXT NOT NULL,
		quantity_change   INTEGER NOT NULL,
		previous_quantity INTEGER NOT NULL,
		new_quantity      INTEGER NOT NULL,
		reason            TEXT DEFAULT '',
		created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		created_by        INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_movements_drug ON stock_movements(drug_id);

	CREATE TABLE IF NOT EXISTS alerts (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		drug_id    INTEGER REFERENCES drugs(id) ON DELETE SET NULL,
		alert_type TEXT NOT NULL CHECK(alert_type IN ('low_stock', 'critical_stock')),
		message    TEXT NOT NULL,
		is_read    INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_alerts_created ON alerts(created_at);

	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
}

// runMigrations applies pending schema migrations.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("create migration table: %w", err)
	}

	var currentVersion int
	row := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("check migration version: %w", err)
	}

	for i := currentVersion; i < len(migrations); i++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", i+1, err)
		}

		if _, err := tx.Exec(migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("run migration %d: %w", i+1, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", i+1); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", i+1, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", i+1, err)
		}
	}

	return nil
}
