package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is a node in the catalog tree (adjacency list, root has nil parent).
// Deleting a category cascades to its children at the database level.
type Category struct {
	ID       int64  `json:"id"        db:"id"`
	Name     string `json:"name"      db:"name"`
	ParentID *int64 `json:"parent_id" db:"parent_id"`
}

type Client struct {
	ID      int64  `json:"id"      db:"id"`
	Name    string `json:"name"    db:"name"`
	Address string `json:"address" db:"address"`
}

// Nomenclature is a stock-keeping unit. Quantity is mutated only inside a
// locked mutation transaction and never drops below zero in a committed state.
type Nomenclature struct {
	ID         int64           `json:"id"          db:"id"`
	Name       string          `json:"name"        db:"name"`
	Quantity   int             `json:"quantity"    db:"quantity"`
	Price      decimal.Decimal `json:"price"       db:"price"`
	CategoryID int64           `json:"category_id" db:"category_id"`
}

type Order struct {
	ID        int64       `json:"id"         db:"id"`
	ClientID  int64       `json:"client_id"  db:"client_id"`
	OrderDate time.Time   `json:"order_date" db:"order_date"`
	Items     []OrderItem `json:"items"      db:"-"`
}

// OrderItem is one line of an order. PriceAtPurchase is frozen when the line
// is first created; later merges only bump Quantity.
type OrderItem struct {
	ID              int64           `json:"id"                db:"id"`
	OrderID         int64           `json:"order_id"          db:"order_id"`
	NomenclatureID  int64           `json:"nomenclature_id"   db:"nomenclature_id"`
	Quantity        int             `json:"quantity"          db:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase" db:"price_at_purchase"`
}

// AddItemCommand asks to add (or merge into) a single line of an existing order.
type AddItemCommand struct {
	OrderID        int64 `json:"order_id"`
	NomenclatureID int64 `json:"nomenclature_id"`
	Quantity       int   `json:"quantity"`
}

// OrderLine is one requested line of a new order.
type OrderLine struct {
	NomenclatureID int64 `json:"nomenclature_id"`
	Quantity       int   `json:"quantity"`
}

type CreateOrderCommand struct {
	ClientID int64       `json:"client_id"`
	Lines    []OrderLine `json:"items"`
}

type OutboxMessage struct {
	ID        int64
	Topic     string
	Key       string
	EventType string
	Payload   []byte
	Headers   map[string]string
}
