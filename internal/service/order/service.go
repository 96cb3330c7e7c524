package order

import (
	"context"
	"log/slog"

	"github.com/dsemenov/stockledger/internal/domain/model"
)

// Storage is the transactional surface the mutation service drives. All calls
// made inside a RunInTx closure share one transaction; the two Lock* methods
// hold exclusive row locks until that transaction ends.
type Storage interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error

	FindOrder(ctx context.Context, id int64) (*model.Order, error)
	InsertOrder(ctx context.Context, o *model.Order) error

	LockNomenclatures(ctx context.Context, ids []int64) (map[int64]*model.Nomenclature, error)
	DecrementNomenclature(ctx context.Context, id int64, qty int) error

	LockOrderItem(ctx context.Context, orderID, nomenclatureID int64) (*model.OrderItem, error)
	InsertOrderItem(ctx context.Context, item *model.OrderItem) error
	AddOrderItemQuantity(ctx context.Context, itemID int64, qty int) error
	ListOrderItems(ctx context.Context, orderID int64) ([]model.OrderItem, error)

	InsertOutboxMsg(ctx context.Context, msg *model.OutboxMessage) error
}

type Service struct {
	logger     *slog.Logger
	storage    Storage
	eventTopic string
}

func NewOrderService(l *slog.Logger, storage Storage, eventTopic string) *Service {
	return &Service{
		logger:     l,
		storage:    storage,
		eventTopic: eventTopic,
	}
}
