package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dsemenov/stockledger/internal/domain/model"
	"github.com/dsemenov/stockledger/internal/http/lib/api/decode"
	"github.com/dsemenov/stockledger/internal/http/lib/api/response"
)

type OrderService interface {
	CreateOrder(ctx context.Context, cmd *model.CreateOrderCommand) (*model.Order, error)
	AddItem(ctx context.Context, cmd *model.AddItemCommand) (*model.OrderItem, error)
	GetOrder(ctx context.Context, id int64) (*model.Order, error)
}

type orderItemResponse struct {
	OrderID         int64  `json:"order_id"`
	NomenclatureID  int64  `json:"nomenclature_id"`
	Quantity        int    `json:"quantity"`
	PriceAtPurchase string `json:"price_at_purchase"`
}

type orderResponse struct {
	ID        int64               `json:"id"`
	ClientID  int64               `json:"client_id"`
	OrderDate time.Time           `json:"order_date"`
	Items     []orderItemResponse `json:"items"`
}

func toItemResponse(item *model.OrderItem) orderItemResponse {
	return orderItemResponse{
		OrderID:         item.OrderID,
		NomenclatureID:  item.NomenclatureID,
		Quantity:        item.Quantity,
		PriceAtPurchase: item.PriceAtPurchase.StringFixed(2),
	}
}

func toOrderResponse(ord *model.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(ord.Items))
	for i := range ord.Items {
		items = append(items, toItemResponse(&ord.Items[i]))
	}
	return orderResponse{
		ID:        ord.ID,
		ClientID:  ord.ClientID,
		OrderDate: ord.OrderDate,
		Items:     items,
	}
}

type createOrderRequest struct {
	ClientID int64 `json:"client_id"`
	Items    []struct {
		NomenclatureID int64 `json:"nomenclature_id"`
		Quantity       int   `json:"quantity"`
	} `json:"items"`
}

func CreateOrder(service OrderService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		if err := decode.JSON(r, &req); err != nil {
			response.BadRequest(w, err.Error())
			return
		}
		if req.ClientID <= 0 {
			response.BadRequest(w, "client_id must be positive")
			return
		}
		if len(req.Items) == 0 {
			response.BadRequest(w, "items must not be empty")
			return
		}

		cmd := &model.CreateOrderCommand{ClientID: req.ClientID}
		for _, it := range req.Items {
			if it.NomenclatureID <= 0 || it.Quantity <= 0 {
				response.BadRequest(w, "nomenclature_id and quantity must be positive")
				return
			}
			cmd.Lines = append(cmd.Lines, model.OrderLine{
				NomenclatureID: it.NomenclatureID,
				Quantity:       it.Quantity,
			})
		}

		ord, err := service.CreateOrder(r.Context(), cmd)
		if err != nil {
			writeOrderError(w, log, err)
			return
		}

		response.Created(w, toOrderResponse(ord))
	}
}

type addItemRequest struct {
	OrderID        int64 `json:"order_id"`
	NomenclatureID int64 `json:"nomenclature_id"`
	Quantity       int   `json:"quantity"`
}

func AddItem(service OrderService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addItemRequest
		if err := decode.JSON(r, &req); err != nil {
			response.BadRequest(w, err.Error())
			return
		}
		if req.OrderID <= 0 || req.NomenclatureID <= 0 || req.Quantity <= 0 {
			response.BadRequest(w, "order_id, nomenclature_id and quantity must be positive")
			return
		}

		item, err := service.AddItem(r.Context(), &model.AddItemCommand{
			OrderID:        req.OrderID,
			NomenclatureID: req.NomenclatureID,
			Quantity:       req.Quantity,
		})
		if err != nil {
			writeOrderError(w, log, err)
			return
		}

		response.Created(w, toItemResponse(item))
	}
}

func GetOrder(service OrderService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := decode.ID(r, "id")
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		ord, err := service.GetOrder(r.Context(), id)
		if err != nil {
			writeOrderError(w, log, err)
			return
		}

		response.OK(w, toOrderResponse(ord))
	}
}

// writeOrderError maps the three business failures to client statuses;
// anything else is an infrastructure fault.
func writeOrderError(w http.ResponseWriter, log *slog.Logger, err error) {
	var (
		orderNotFound *model.OrderNotFoundError
		nomNotFound   *model.NomenclatureNotFoundError
		noStock       *model.InsufficientStockError
	)
	switch {
	case errors.As(err, &orderNotFound):
		response.NotFound(w, orderNotFound.Error())
	case errors.As(err, &nomNotFound):
		response.NotFound(w, nomNotFound.Error())
	case errors.As(err, &noStock):
		response.BadRequest(w, noStock.Error())
	default:
		log.Error("order operation failed", slog.Any("error", err))
		response.InternalError(w)
	}
}
