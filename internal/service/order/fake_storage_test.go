package order

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dsemenov/stockledger/internal/domain/model"
)

// fakeStorage is an in-memory stand-in for the pg storage. One mutex guards
// each transaction from begin to commit, which over-approximates row locking:
// transactions on disjoint rows also serialize, but the lock-then-validate-
// then-mutate semantics the service relies on hold exactly. A failed
// transaction restores the pre-transaction snapshot, mirroring rollback.
type fakeStorage struct {
	mu sync.Mutex

	nomenclatures map[int64]model.Nomenclature
	orders        map[int64]model.Order
	items         map[int64]model.OrderItem
	outbox        []model.OutboxMessage

	nextOrderID int64
	nextItemID  int64

	// failDecrementID makes DecrementNomenclature fail for one id, to test
	// rollback of partially applied mutations.
	failDecrementID int64
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		nomenclatures: make(map[int64]model.Nomenclature),
		orders:        make(map[int64]model.Order),
		items:         make(map[int64]model.OrderItem),
	}
}

func (f *fakeStorage) addNomenclature(n model.Nomenclature) {
	f.nomenclatures[n.ID] = n
}

func (f *fakeStorage) addOrder(o model.Order) {
	if o.ID >= f.nextOrderID {
		f.nextOrderID = o.ID
	}
	f.orders[o.ID] = o
}

type fakeSnapshot struct {
	nomenclatures map[int64]model.Nomenclature
	orders        map[int64]model.Order
	items         map[int64]model.OrderItem
	outboxLen     int
	nextOrderID   int64
	nextItemID    int64
}

func (f *fakeStorage) snapshot() fakeSnapshot {
	snap := fakeSnapshot{
		nomenclatures: make(map[int64]model.Nomenclature, len(f.nomenclatures)),
		orders:        make(map[int64]model.Order, len(f.orders)),
		items:         make(map[int64]model.OrderItem, len(f.items)),
		outboxLen:     len(f.outbox),
		nextOrderID:   f.nextOrderID,
		nextItemID:    f.nextItemID,
	}
	for id, n := range f.nomenclatures {
		snap.nomenclatures[id] = n
	}
	for id, o := range f.orders {
		snap.orders[id] = o
	}
	for id, it := range f.items {
		snap.items[id] = it
	}
	return snap
}

func (f *fakeStorage) restore(snap fakeSnapshot) {
	f.nomenclatures = snap.nomenclatures
	f.orders = snap.orders
	f.items = snap.items
	f.outbox = f.outbox[:snap.outboxLen]
	f.nextOrderID = snap.nextOrderID
	f.nextItemID = snap.nextItemID
}

func (f *fakeStorage) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := f.snapshot()
	if err := fn(ctx); err != nil {
		f.restore(snap)
		return err
	}
	return nil
}

func (f *fakeStorage) FindOrder(_ context.Context, id int64) (*model.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	cp := o
	return &cp, nil
}

func (f *fakeStorage) InsertOrder(_ context.Context, o *model.Order) error {
	f.nextOrderID++
	o.ID = f.nextOrderID
	o.OrderDate = time.Now().UTC()
	f.orders[o.ID] = *o
	return nil
}

func (f *fakeStorage) LockNomenclatures(_ context.Context, ids []int64) (map[int64]*model.Nomenclature, error) {
	locked := make(map[int64]*model.Nomenclature, len(ids))
	for _, id := range ids {
		if n, ok := f.nomenclatures[id]; ok {
			cp := n
			locked[id] = &cp
		}
	}
	return locked, nil
}

func (f *fakeStorage) DecrementNomenclature(_ context.Context, id int64, qty int) error {
	if f.failDecrementID != 0 && id == f.failDecrementID {
		return errors.New("decrement failed")
	}
	n := f.nomenclatures[id]
	n.Quantity -= qty
	f.nomenclatures[id] = n
	return nil
}

func (f *fakeStorage) LockOrderItem(_ context.Context, orderID, nomenclatureID int64) (*model.OrderItem, error) {
	for _, it := range f.items {
		if it.OrderID == orderID && it.NomenclatureID == nomenclatureID {
			cp := it
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStorage) InsertOrderItem(_ context.Context, item *model.OrderItem) error {
	f.nextItemID++
	item.ID = f.nextItemID
	f.items[item.ID] = *item
	return nil
}

func (f *fakeStorage) AddOrderItemQuantity(_ context.Context, itemID int64, qty int) error {
	it := f.items[itemID]
	it.Quantity += qty
	f.items[itemID] = it
	return nil
}

func (f *fakeStorage) ListOrderItems(_ context.Context, orderID int64) ([]model.OrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var items []model.OrderItem
	for id := int64(1); id <= f.nextItemID; id++ {
		if it, ok := f.items[id]; ok && it.OrderID == orderID {
			items = append(items, it)
		}
	}
	return items, nil
}

func (f *fakeStorage) InsertOutboxMsg(_ context.Context, msg *model.OutboxMessage) error {
	f.outbox = append(f.outbox, *msg)
	return nil
}

// stockOf reads a nomenclature quantity outside any transaction.
func (f *fakeStorage) stockOf(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nomenclatures[id].Quantity
}

func (f *fakeStorage) itemCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

func (f *fakeStorage) orderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

func (f *fakeStorage) outboxEvents() []model.OutboxMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.OutboxMessage(nil), f.outbox...)
}
