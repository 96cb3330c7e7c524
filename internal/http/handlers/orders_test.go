package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsemenov/stockledger/internal/domain/model"
)

type stubOrderService struct {
	createErr error
	addErr    error
	getErr    error
	item      *model.OrderItem
	order     *model.Order
}

func (s *stubOrderService) CreateOrder(_ context.Context, _ *model.CreateOrderCommand) (*model.Order, error) {
	return s.order, s.createErr
}

func (s *stubOrderService) AddItem(_ context.Context, _ *model.AddItemCommand) (*model.OrderItem, error) {
	return s.item, s.addErr
}

func (s *stubOrderService) GetOrder(_ context.Context, _ int64) (*model.Order, error) {
	return s.order, s.getErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAddItemHandlerSuccess(t *testing.T) {
	svc := &stubOrderService{item: &model.OrderItem{
		ID: 7, OrderID: 1, NomenclatureID: 2, Quantity: 3,
		PriceAtPurchase: decimal.RequireFromString("60000"),
	}}
	handler := AddItem(svc, discardLogger())

	body := bytes.NewBufferString(`{"order_id":1,"nomenclature_id":2,"quantity":3}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/add-item", body)
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "60000.00", resp["price_at_purchase"], "price serialized with two decimals")
	assert.EqualValues(t, 3, resp["quantity"])
}

func TestAddItemHandlerErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"order not found", &model.OrderNotFoundError{OrderID: 999}, http.StatusNotFound},
		{"nomenclature not found", &model.NomenclatureNotFoundError{NomenclatureID: 5}, http.StatusNotFound},
		{"insufficient stock", &model.InsufficientStockError{NomenclatureID: 1, Available: 9, Requested: 100}, http.StatusBadRequest},
		{"infrastructure fault", context.DeadlineExceeded, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := AddItem(&stubOrderService{addErr: tc.err}, discardLogger())

			body := bytes.NewBufferString(`{"order_id":1,"nomenclature_id":1,"quantity":1}`)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/add-item", body)
			rec := httptest.NewRecorder()
			handler(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestAddItemHandlerRejectsBadPayloads(t *testing.T) {
	handler := AddItem(&stubOrderService{}, discardLogger())

	for _, body := range []string{
		``,
		`not json`,
		`{"order_id":1,"nomenclature_id":1,"quantity":0}`,
		`{"order_id":-1,"nomenclature_id":1,"quantity":1}`,
		`{"order_id":1,"nomenclature_id":1,"quantity":1,"extra":true}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/add-item", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		handler(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)
	}
}

func TestCreateOrderHandlerSuccess(t *testing.T) {
	svc := &stubOrderService{order: &model.Order{
		ID: 3, ClientID: 1, OrderDate: time.Now().UTC(),
		Items: []model.OrderItem{{
			ID: 1, OrderID: 3, NomenclatureID: 1, Quantity: 1,
			PriceAtPurchase: decimal.RequireFromString("210000.00"),
		}},
	}}
	handler := CreateOrder(svc, discardLogger())

	body := bytes.NewBufferString(`{"client_id":1,"items":[{"nomenclature_id":1,"quantity":1}]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", body)
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp orderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 3, resp.ID)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "210000.00", resp.Items[0].PriceAtPurchase)
}

func TestCreateOrderHandlerRejectsEmptyItems(t *testing.T) {
	handler := CreateOrder(&stubOrderService{}, discardLogger())

	body := bytes.NewBufferString(`{"client_id":1,"items":[]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", body)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOrderHandler(t *testing.T) {
	svc := &stubOrderService{order: &model.Order{ID: 1, ClientID: 2, OrderDate: time.Now().UTC()}}
	handler := GetOrder(svc, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/1", nil)
	req.SetPathValue("id", "1")
	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/orders/abc", nil)
	req.SetPathValue("id", "abc")
	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.order = nil
	svc.getErr = &model.OrderNotFoundError{OrderID: 9}
	req = httptest.NewRequest(http.MethodGet, "/api/v1/orders/9", nil)
	req.SetPathValue("id", "9")
	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
