package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/eczanelab/pharmapos/pkg/model"
	"gopkg.in/yaml.v3"
)

// HashPassword returns the hex SHA-256 digest used for stored credentials.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

var demoUsers = []model.User{
	{Username: "yonetici", Role: "Yönetici", FullName: "Eczane Yöneticisi"},
	{Username: "personel", Role: "Personel", FullName: "Eczane Personeli"},
}

var demoUserPasswords = map[string]string{
	"yonetici": "admin123",
	"personel": "123",
}

var demoDrugs = []model.Drug{
	{Name: "Parol", ActiveIngredient: "Parasetamol", Price: 50.0, StockQuantity: 100, LowStockThreshold: 10, Description: "Ağrı kesici"},
	{Name: "Majezik", ActiveIngredient: "Flurbiprofen", Price: 85.0, StockQuantity: 20, LowStockThreshold: 5, Description: "Anti-enflamatuar"},
	{Name: "Aspirin", ActiveIngredient: "Asetilsalisilik Asit", Price: 30.0, StockQuantity: 5, LowStockThreshold: 10, Description: "Kan sulandırıcı"},
	{Name: "Augmentin", ActiveIngredient: "Amoksisilin", Price: 120.0, StockQuantity: 3, LowStockThreshold: 5, Description: "Antibiyotik"},
	{Name: "Ventolin", ActiveIngredient: "Salbutamol", Price: 45.0, StockQuantity: 15, LowStockThreshold: 8, Description: "Astım ilacı"},
}

// EnsureSeedData inserts the demo accounts and the demo drug catalog into
// an empty database. Non-empty tables are left untouched.
func EnsureSeedData(ctx context.Context, store Storage) error {
	n, err := store.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if n == 0 {
		for _, u := range demoUsers {
			u.PasswordHash = HashPassword(demoUserPasswords[u.Username])
			if err := store.CreateUser(ctx, &u); err != nil {
				return fmt.Errorf("seed user %s: %w", u.Username, err)
			}
		}
	}

	drugs, err := store.ListDrugs(ctx)
	if err != nil {
		return fmt.Errorf("list drugs: %w", err)
	}
	if len(drugs) == 0 {
		for _, d := range demoDrugs {
			if err := store.CreateDrug(ctx, &d); err != nil {
				return fmt.Errorf("seed drug %s: %w", d.Name, err)
			}
			if err := store.RecordMovement(ctx, &model.StockMovement{
				DrugID:         d.ID,
				Type:           model.MovementPurchase,
				QuantityChange: d.StockQuantity,
				NewQuantity:    d.StockQuantity,
				Reason:         "İlk stok ekleme",
			}); err != nil {
				return fmt.Errorf("seed movement %s: %w", d.Name, err)
			}
		}
	}

	return nil
}

type catalogFile struct {
	Drugs []catalogDrug `yaml:"drugs"`
}

type catalogDrug struct {
	Name              string  `yaml:"name"`
	ActiveIngredient  string  `yaml:"active_ingredient"`
	Price             float64 `yaml:"price"`
	StockQuantity     int     `yaml:"stock_quantity"`
	LowStockThreshold int     `yaml:"low_stock_threshold"`
	Description       string  `yaml:"description"`
	Barcode           string  `yaml:"barcode"`
}

// ImportCatalog loads a YAML drug catalog and inserts every entry that is
// not already present. Returns the number of drugs added.
func ImportCatalog(ctx context.Context, store Storage, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("parse catalog: %w", err)
	}

	added := 0
	for _, entry := range file.Drugs {
		drug := model.Drug{
			Name:              entry.Name,
			ActiveIngredient:  entry.ActiveIngredient,
			Price:             entry.Price,
			StockQuantity:     entry.StockQuantity,
			LowStockThreshold: entry.LowStockThreshold,
			Description:       entry.Description,
			Barcode:           entry.Barcode,
		}
		if drug.LowStockThreshold <= 0 {
			drug.LowStockThreshold = 10
		}
		err := store.CreateDrug(ctx, &drug)
		if errors.Is(err, ErrDuplicate) {
			continue
		}
		if err != nil {
			return added, fmt.Errorf("import %s: %w", entry.Name, err)
		}
		added++
	}
	return added, nil
}
