package order

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dsemenov/stockledger/internal/domain/model"
)

// CreateOrder creates a complete order for a client in one transaction: all
// requested nomenclatures are locked in a single batch, every line is
// validated against the locked snapshot, and only then is anything written.
// A failure on any line aborts the whole order — partial orders never commit.
//
// Duplicate nomenclature ids within one request are not merged; each input
// line becomes its own order item. Their quantities are still validated
// cumulatively against the locked stock, so duplicated lines cannot jointly
// drive the counter negative.
func (s *Service) CreateOrder(ctx context.Context, cmd *model.CreateOrderCommand) (*model.Order, error) {
	if len(cmd.Lines) == 0 {
		return nil, fmt.Errorf("service.CreateOrder: order must contain at least one line")
	}
	for _, line := range cmd.Lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("service.CreateOrder: quantity must be positive, got %d", line.Quantity)
		}
	}

	ord := &model.Order{ClientID: cmd.ClientID}

	err := s.storage.RunInTx(ctx, func(ctx context.Context) error {
		// Single lock round-trip for all distinct ids; cheaper than per-line
		// locking and immune to lock-order inversions between requests.
		ids := make([]int64, 0, len(cmd.Lines))
		seen := make(map[int64]struct{}, len(cmd.Lines))
		for _, line := range cmd.Lines {
			if _, ok := seen[line.NomenclatureID]; ok {
				continue
			}
			seen[line.NomenclatureID] = struct{}{}
			ids = append(ids, line.NomenclatureID)
		}

		locked, err := s.storage.LockNomenclatures(ctx, ids)
		if err != nil {
			return err
		}

		// Validation pass, in input order. remaining tracks the running stock
		// per nomenclature so duplicate lines are checked cumulatively.
		remaining := make(map[int64]int, len(locked))
		for id, nom := range locked {
			remaining[id] = nom.Quantity
		}
		for _, line := range cmd.Lines {
			if _, ok := locked[line.NomenclatureID]; !ok {
				return &model.NomenclatureNotFoundError{NomenclatureID: line.NomenclatureID}
			}
			if remaining[line.NomenclatureID] < line.Quantity {
				return &model.InsufficientStockError{
					NomenclatureID: line.NomenclatureID,
					Available:      remaining[line.NomenclatureID],
					Requested:      line.Quantity,
				}
			}
			remaining[line.NomenclatureID] -= line.Quantity
		}

		// Mutation pass. Nothing before this point has written anything.
		if err = s.storage.InsertOrder(ctx, ord); err != nil {
			return err
		}

		ord.Items = make([]model.OrderItem, 0, len(cmd.Lines))
		for _, line := range cmd.Lines {
			if err = s.storage.DecrementNomenclature(ctx, line.NomenclatureID, line.Quantity); err != nil {
				return err
			}

			item := model.OrderItem{
				OrderID:         ord.ID,
				NomenclatureID:  line.NomenclatureID,
				Quantity:        line.Quantity,
				PriceAtPurchase: locked[line.NomenclatureID].Price,
			}
			if err = s.storage.InsertOrderItem(ctx, &item); err != nil {
				return err
			}
			ord.Items = append(ord.Items, item)
		}

		return s.enqueueEvent(ctx, "OrderCreated", ord.ID, ord)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		slog.Int64("order_id", ord.ID),
		slog.Int64("client_id", ord.ClientID),
		slog.Int("items", len(ord.Items)))
	return ord, nil
}

// GetOrder returns an order with its items, or OrderNotFoundError.
func (s *Service) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	ord, err := s.storage.FindOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, &model.OrderNotFoundError{OrderID: id}
	}

	items, err := s.storage.ListOrderItems(ctx, id)
	if err != nil {
		return nil, err
	}
	ord.Items = items
	return ord, nil
}
