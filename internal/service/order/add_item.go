package order

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/dsemenov/stockledger/internal/domain/model"
)

// AddItem adds cmd.Quantity of a nomenclature to an existing order, merging
// into the order's existing line for that nomenclature if there is one. The
// whole read-check-write sequence runs under the nomenclature's row lock, so
// two requests contending on the same stock serialize at the lock and the
// later one sees the earlier one's decrement. Lock order is fixed for every
// caller: nomenclature first, then the order item.
func (s *Service) AddItem(ctx context.Context, cmd *model.AddItemCommand) (*model.OrderItem, error) {
	if cmd.Quantity <= 0 {
		return nil, fmt.Errorf("service.AddItem: quantity must be positive, got %d", cmd.Quantity)
	}

	var item *model.OrderItem

	err := s.storage.RunInTx(ctx, func(ctx context.Context) error {
		ord, err := s.storage.FindOrder(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		if ord == nil {
			return &model.OrderNotFoundError{OrderID: cmd.OrderID}
		}

		locked, err := s.storage.LockNomenclatures(ctx, []int64{cmd.NomenclatureID})
		if err != nil {
			return err
		}
		nom, ok := locked[cmd.NomenclatureID]
		if !ok {
			return &model.NomenclatureNotFoundError{NomenclatureID: cmd.NomenclatureID}
		}
		if nom.Quantity < cmd.Quantity {
			return &model.InsufficientStockError{
				NomenclatureID: cmd.NomenclatureID,
				Available:      nom.Quantity,
				Requested:      cmd.Quantity,
			}
		}

		item, err = s.storage.LockOrderItem(ctx, cmd.OrderID, cmd.NomenclatureID)
		if err != nil {
			return err
		}

		if item != nil {
			// Merge: the price recorded at the first add stays in force.
			if err = s.storage.AddOrderItemQuantity(ctx, item.ID, cmd.Quantity); err != nil {
				return err
			}
			item.Quantity += cmd.Quantity
		} else {
			item = &model.OrderItem{
				OrderID:         cmd.OrderID,
				NomenclatureID:  cmd.NomenclatureID,
				Quantity:        cmd.Quantity,
				PriceAtPurchase: nom.Price,
			}
			if err = s.storage.InsertOrderItem(ctx, item); err != nil {
				return err
			}
		}

		if err = s.storage.DecrementNomenclature(ctx, cmd.NomenclatureID, cmd.Quantity); err != nil {
			return err
		}

		return s.enqueueEvent(ctx, "OrderItemAdded", cmd.OrderID, item)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order item added",
		slog.Int64("order_id", item.OrderID),
		slog.Int64("nomenclature_id", item.NomenclatureID),
		slog.Int("quantity", item.Quantity))
	return item, nil
}

// enqueueEvent writes an outbox row in the mutation's transaction; the relay
// publishes it after commit.
func (s *Service) enqueueEvent(ctx context.Context, eventType string, orderID int64, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	return s.storage.InsertOutboxMsg(ctx, &model.OutboxMessage{
		Topic:     s.eventTopic,
		Key:       strconv.FormatInt(orderID, 10),
		EventType: eventType,
		Payload:   body,
		Headers:   map[string]string{"event-id": uuid.NewString()},
	})
}
