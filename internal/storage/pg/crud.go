package pg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// CRUD is a typed accessor for the simple entities (clients, categories,
// catalog browsing) that live outside the locked mutation path. One instance
// per entity type; the column list drives both scanning (by db tag) and the
// generated INSERT/UPDATE statements. id is always the surrogate key and is
// never written by Create or Update.
type CRUD[T any] struct {
	storage *Storage
	table   string
	columns []string // includes "id" first
}

func NewCRUD[T any](s *Storage, table string, columns []string) *CRUD[T] {
	return &CRUD[T]{storage: s, table: table, columns: columns}
}

// Get returns the row with the given id, or (nil, nil) when absent.
func (c *CRUD[T]) Get(ctx context.Context, id int64) (*T, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`,
		strings.Join(c.columns, ", "), c.table)

	rows, err := c.storage.conn(ctx).Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("get %s %d: %w", c.table, id, err)
	}

	entity, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByNameLax[T])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("collect %s %d: %w", c.table, id, err)
	}
	return entity, nil
}

// List returns a page of rows ordered by id.
func (c *CRUD[T]) List(ctx context.Context, limit, offset int) ([]T, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY id LIMIT $1 OFFSET $2`,
		strings.Join(c.columns, ", "), c.table)

	rows, err := c.storage.conn(ctx).Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.table, err)
	}

	entities, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[T])
	if err != nil {
		return nil, fmt.Errorf("collect %s: %w", c.table, err)
	}
	return entities, nil
}

// Create inserts values for every non-id column, in column order, and returns
// the server-assigned id.
func (c *CRUD[T]) Create(ctx context.Context, values ...any) (int64, error) {
	cols := c.columns[1:]
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING id`,
		c.table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	var id int64
	if err := c.storage.conn(ctx).QueryRow(ctx, query, values...).Scan(&id); err != nil {
		return 0, fmt.Errorf("create %s: %w", c.table, err)
	}
	return id, nil
}

// Update overwrites every non-id column of the row. Returns false when the id
// does not exist.
func (c *CRUD[T]) Update(ctx context.Context, id int64, values ...any) (bool, error) {
	cols := c.columns[1:]
	assignments := make([]string, len(cols))
	for i, col := range cols {
		assignments[i] = fmt.Sprintf("%s = $%d", col, i+2)
	}

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $1`,
		c.table, strings.Join(assignments, ", "))

	args := append([]any{id}, values...)
	tag, err := c.storage.conn(ctx).Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update %s %d: %w", c.table, id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes the row; cascades (category children, order items) are
// enforced by the schema. Returns false when the id does not exist.
func (c *CRUD[T]) Delete(ctx context.Context, id int64) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, c.table)

	tag, err := c.storage.conn(ctx).Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete %s %d: %w", c.table, id, err)
	}
	return tag.RowsAffected() > 0, nil
}
