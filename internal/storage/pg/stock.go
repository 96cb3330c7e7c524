package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dsemenov/stockledger/internal/domain/model"
)

// LockNomenclatures takes an exclusive row lock on every listed nomenclature
// in one round-trip and returns the locked rows keyed by id. Ids with no
// matching row are simply absent from the map; deciding whether that is an
// error belongs to the caller. Must run inside a RunInTx transaction — the
// locks are held until it ends.
func (s *Storage) LockNomenclatures(ctx context.Context, ids []int64) (map[int64]*model.Nomenclature, error) {
	query := `SELECT id, name, quantity, price, category_id
              FROM nomenclatures
              WHERE id = ANY($1)
              FOR UPDATE`

	rows, err := s.conn(ctx).Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("lock nomenclatures: %w", err)
	}

	items, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[model.Nomenclature])
	if err != nil {
		return nil, fmt.Errorf("collect nomenclatures: %w", err)
	}

	locked := make(map[int64]*model.Nomenclature, len(items))
	for _, n := range items {
		locked[n.ID] = n
	}
	return locked, nil
}

// DecrementNomenclature subtracts qty from the stock counter. The caller has
// already checked qty against the locked row and still holds the lock, so the
// check-then-act pair cannot be interleaved.
func (s *Storage) DecrementNomenclature(ctx context.Context, id int64, qty int) error {
	query := `UPDATE nomenclatures
              SET quantity = quantity - $2
              WHERE id = $1`

	if _, err := s.conn(ctx).Exec(ctx, query, id, qty); err != nil {
		return fmt.Errorf("decrement nomenclature %d: %w", id, err)
	}
	return nil
}
