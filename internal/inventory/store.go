package inventory

import (
	"context"
	"fmt"

	"github.com/eczanelab/pharmapos/pkg/model"
	"github.com/eczanelab/pharmapos/pkg/storage"
)

// StoreInventory adapts the storage layer to the Inventory interface for
// in-process use by the serve command.
type StoreInventory struct {
	store storage.Storage
}

// NewStoreInventory wraps a storage backend.
func NewStoreInventory(store storage.Storage) *StoreInventory {
	return &StoreInventory{store: store}
}

func (s *StoreInventory) ListDrugs(ctx context.Context) ([]model.Drug, error) {
	return s.store.ListDrugs(ctx)
}

func (s *StoreInventory) OrderStock(ctx context.Context, order model.OrderRequest) (*model.OrderResult, error) {
	movement := model.MovementPurchase
	if order.AutoOrder {
		movement = model.MovementAutoPurchase
	}

	drug, previous, err := s.store.AdjustStock(ctx, order.DrugID, order.Quantity, movement,
		fmt.Sprintf("Depo siparişi: %d adet", order.Quantity))
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("%d adet %s sipariş edildi", order.Quantity, drug.Name)
	if order.AutoOrder {
		message = "OTOMATİK SİPARİŞ: " + message
	}

	return &model.OrderResult{
		Message:   message,
		OldStock:  previous,
		NewStock:  drug.StockQuantity,
		AutoOrder: order.AutoOrder,
	}, nil
}
