package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dsemenov/stockledger/internal/domain/model"
)

// FindOrder fetches an order header without locking it. Returns (nil, nil)
// when no row matches.
func (s *Storage) FindOrder(ctx context.Context, id int64) (*model.Order, error) {
	query := `SELECT id, client_id, order_date
              FROM orders
              WHERE id = $1`

	rows, err := s.conn(ctx).Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("find order %d: %w", id, err)
	}

	order, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByNameLax[model.Order])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("collect order %d: %w", id, err)
	}
	return order, nil
}

// InsertOrder creates the order header and fills in the server-assigned id and
// creation timestamp.
func (s *Storage) InsertOrder(ctx context.Context, o *model.Order) error {
	query := `INSERT INTO orders (client_id)
              VALUES ($1)
              RETURNING id, order_date`

	if err := s.conn(ctx).QueryRow(ctx, query, o.ClientID).Scan(&o.ID, &o.OrderDate); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// LockOrderItem locks the existing line for (order, nomenclature) and returns
// it, or (nil, nil) when the order has no such line yet. Callers must already
// hold the nomenclature lock: the fixed nomenclature-then-item order keeps
// concurrent requests deadlock free.
func (s *Storage) LockOrderItem(ctx context.Context, orderID, nomenclatureID int64) (*model.OrderItem, error) {
	query := `SELECT id, order_id, nomenclature_id, quantity, price_at_purchase
              FROM order_items
              WHERE order_id = $1 AND nomenclature_id = $2
              FOR UPDATE`

	rows, err := s.conn(ctx).Query(ctx, query, orderID, nomenclatureID)
	if err != nil {
		return nil, fmt.Errorf("lock order item: %w", err)
	}

	item, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.OrderItem])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("collect order item: %w", err)
	}
	return item, nil
}

// InsertOrderItem creates a new line and fills in its server-assigned id.
func (s *Storage) InsertOrderItem(ctx context.Context, item *model.OrderItem) error {
	query := `INSERT INTO order_items (order_id, nomenclature_id, quantity, price_at_purchase)
              VALUES ($1, $2, $3, $4)
              RETURNING id`

	err := s.conn(ctx).
		QueryRow(ctx, query, item.OrderID, item.NomenclatureID, item.Quantity, item.PriceAtPurchase).
		Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

// AddOrderItemQuantity merges qty into an existing line. price_at_purchase is
// deliberately left untouched: the price recorded at the first add governs the
// whole accumulated quantity.
func (s *Storage) AddOrderItemQuantity(ctx context.Context, itemID int64, qty int) error {
	query := `UPDATE order_items
              SET quantity = quantity + $2
              WHERE id = $1`

	if _, err := s.conn(ctx).Exec(ctx, query, itemID, qty); err != nil {
		return fmt.Errorf("add order item quantity: %w", err)
	}
	return nil
}

// ListOrderItems returns the order's lines in insertion order.
func (s *Storage) ListOrderItems(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	query := `SELECT id, order_id, nomenclature_id, quantity, price_at_purchase
              FROM order_items
              WHERE order_id = $1
              ORDER BY id`

	rows, err := s.conn(ctx).Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.OrderItem])
	if err != nil {
		return nil, fmt.Errorf("collect order items: %w", err)
	}
	return items, nil
}
