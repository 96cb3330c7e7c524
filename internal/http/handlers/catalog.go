package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dsemenov/stockledger/internal/domain/model"
	"github.com/dsemenov/stockledger/internal/http/lib/api/decode"
	"github.com/dsemenov/stockledger/internal/http/lib/api/response"
)

type CatalogService interface {
	GetClient(ctx context.Context, id int64) (*model.Client, error)
	ListClients(ctx context.Context, limit, offset int) ([]model.Client, error)
	CreateClient(ctx context.Context, name, address string) (*model.Client, error)
	GetNomenclature(ctx context.Context, id int64) (*model.Nomenclature, error)
	ListNomenclatures(ctx context.Context, limit, offset int) ([]model.Nomenclature, error)
	ListCategories(ctx context.Context, limit, offset int) ([]model.Category, error)
}

type nomenclatureResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	Price      string `json:"price"`
	CategoryID int64  `json:"category_id"`
}

func toNomenclatureResponse(n *model.Nomenclature) nomenclatureResponse {
	return nomenclatureResponse{
		ID:         n.ID,
		Name:       n.Name,
		Quantity:   n.Quantity,
		Price:      n.Price.StringFixed(2),
		CategoryID: n.CategoryID,
	}
}

func pagination(r *http.Request) (limit, offset int, err error) {
	if limit, err = decode.QueryInt(r, "limit", 0); err != nil {
		return 0, 0, err
	}
	if offset, err = decode.QueryInt(r, "offset", 0); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

func ListClients(service CatalogService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset, err := pagination(r)
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		clients, err := service.ListClients(r.Context(), limit, offset)
		if err != nil {
			log.Error("list clients", slog.Any("error", err))
			response.InternalError(w)
			return
		}
		response.OK(w, clients)
	}
}

func GetClient(service CatalogService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := decode.ID(r, "id")
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		client, err := service.GetClient(r.Context(), id)
		if err != nil {
			log.Error("get client", slog.Any("error", err))
			response.InternalError(w)
			return
		}
		if client == nil {
			response.NotFound(w, "client not found")
			return
		}
		response.OK(w, client)
	}
}

type createClientRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

func CreateClient(service CatalogService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createClientRequest
		if err := decode.JSON(r, &req); err != nil {
			response.BadRequest(w, err.Error())
			return
		}
		if req.Name == "" {
			response.BadRequest(w, "name must not be empty")
			return
		}

		client, err := service.CreateClient(r.Context(), req.Name, req.Address)
		if err != nil {
			log.Error("create client", slog.Any("error", err))
			response.InternalError(w)
			return
		}
		response.Created(w, client)
	}
}

func ListNomenclatures(service CatalogService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset, err := pagination(r)
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		items, err := service.ListNomenclatures(r.Context(), limit, offset)
		if err != nil {
			log.Error("list nomenclatures", slog.Any("error", err))
			response.InternalError(w)
			return
		}

		out := make([]nomenclatureResponse, 0, len(items))
		for i := range items {
			out = append(out, toNomenclatureResponse(&items[i]))
		}
		response.OK(w, out)
	}
}

func GetNomenclature(service CatalogService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := decode.ID(r, "id")
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		item, err := service.GetNomenclature(r.Context(), id)
		if err != nil {
			log.Error("get nomenclature", slog.Any("error", err))
			response.InternalError(w)
			return
		}
		if item == nil {
			response.NotFound(w, "nomenclature not found")
			return
		}
		response.OK(w, toNomenclatureResponse(item))
	}
}

func ListCategories(service CatalogService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset, err := pagination(r)
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		categories, err := service.ListCategories(r.Context(), limit, offset)
		if err != nil {
			log.Error("list categories", slog.Any("error", err))
			response.InternalError(w)
			return
		}
		response.OK(w, categories)
	}
}
