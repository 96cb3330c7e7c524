package order

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"

	"github.com/dsemenov/stockledger/internal/domain/model"
)

// Random sequences of add-item requests must never drive stock negative, and
// the merged line must account for exactly the successful quantities at the
// price recorded by the first successful add.
func TestAddItemStockAccounting(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		initialStock := rapid.IntRange(0, 50).Draw(rt, "initial_stock")
		quantities := rapid.SliceOfN(rapid.IntRange(1, 20), 1, 30).Draw(rt, "quantities")

		storage := newFakeStorage()
		storage.addNomenclature(model.Nomenclature{
			ID: 1, Name: "widget", Quantity: initialStock,
			Price: decimal.RequireFromString("99.90"), CategoryID: 1,
		})
		storage.addOrder(model.Order{ID: 1, ClientID: 1})

		svc := NewOrderService(slog.New(slog.NewTextHandler(io.Discard, nil)), storage, "order-events")
		ctx := context.Background()

		accepted := 0
		remaining := initialStock
		for _, qty := range quantities {
			item, err := svc.AddItem(ctx, &model.AddItemCommand{OrderID: 1, NomenclatureID: 1, Quantity: qty})

			if qty <= remaining {
				if err != nil {
					rt.Fatalf("add of %d with %d remaining failed: %v", qty, remaining, err)
				}
				accepted += qty
				remaining -= qty
				if item.Quantity != accepted {
					rt.Fatalf("merged quantity = %d, want %d", item.Quantity, accepted)
				}
				if !item.PriceAtPurchase.Equal(decimal.RequireFromString("99.90")) {
					rt.Fatalf("price changed on merge: %s", item.PriceAtPurchase)
				}
			} else {
				var noStock *model.InsufficientStockError
				if !errors.As(err, &noStock) {
					rt.Fatalf("add of %d with %d remaining: want InsufficientStockError, got %v", qty, remaining, err)
				}
				if noStock.Available != remaining || noStock.Requested != qty {
					rt.Fatalf("error carries available=%d requested=%d, want %d/%d",
						noStock.Available, noStock.Requested, remaining, qty)
				}
			}

			if got := storage.stockOf(1); got != remaining {
				rt.Fatalf("stock = %d, want %d", got, remaining)
			}
			if got := storage.stockOf(1); got < 0 {
				rt.Fatalf("stock went negative: %d", got)
			}
		}
	})
}
