package router

import (
	"log/slog"
	"net/http"

	"github.com/dsemenov/stockledger/internal/http/handlers"
)

func New(orders handlers.OrderService, catalog handlers.CatalogService, log *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/orders", handlers.CreateOrder(orders, log))
	mux.HandleFunc("POST /api/v1/orders/add-item", handlers.AddItem(orders, log))
	mux.HandleFunc("GET /api/v1/orders/{id}", handlers.GetOrder(orders, log))

	mux.HandleFunc("GET /api/v1/clients", handlers.ListClients(catalog, log))
	mux.HandleFunc("POST /api/v1/clients", handlers.CreateClient(catalog, log))
	mux.HandleFunc("GET /api/v1/clients/{id}", handlers.GetClient(catalog, log))

	mux.HandleFunc("GET /api/v1/nomenclatures", handlers.ListNomenclatures(catalog, log))
	mux.HandleFunc("GET /api/v1/nomenclatures/{id}", handlers.GetNomenclature(catalog, log))
	mux.HandleFunc("GET /api/v1/categories", handlers.ListCategories(catalog, log))

	return mux
}
