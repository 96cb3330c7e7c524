package catalog

import (
	"context"
	"log/slog"

	"github.com/dsemenov/stockledger/internal/domain/model"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// Repo is the identity-keyed accessor for a simple entity. Satisfied by the
// typed pg.CRUD instances built in app wiring.
type Repo[T any] interface {
	Get(ctx context.Context, id int64) (*T, error)
	List(ctx context.Context, limit, offset int) ([]T, error)
	Create(ctx context.Context, values ...any) (int64, error)
}

// Service exposes catalog and client reads (plus client creation) outside the
// locked mutation path. Stock and prices read here are a point-in-time view;
// only the order service mutates them.
type Service struct {
	logger        *slog.Logger
	clients       Repo[model.Client]
	nomenclatures Repo[model.Nomenclature]
	categories    Repo[model.Category]
}

func NewCatalogService(
	l *slog.Logger,
	clients Repo[model.Client],
	nomenclatures Repo[model.Nomenclature],
	categories Repo[model.Category],
) *Service {
	return &Service{
		logger:        l,
		clients:       clients,
		nomenclatures: nomenclatures,
		categories:    categories,
	}
}

func (s *Service) GetClient(ctx context.Context, id int64) (*model.Client, error) {
	return s.clients.Get(ctx, id)
}

func (s *Service) ListClients(ctx context.Context, limit, offset int) ([]model.Client, error) {
	return s.clients.List(ctx, clampLimit(limit), max(offset, 0))
}

func (s *Service) CreateClient(ctx context.Context, name, address string) (*model.Client, error) {
	id, err := s.clients.Create(ctx, name, address)
	if err != nil {
		return nil, err
	}
	s.logger.Info("client created", slog.Int64("id", id), slog.String("name", name))
	return &model.Client{ID: id, Name: name, Address: address}, nil
}

func (s *Service) GetNomenclature(ctx context.Context, id int64) (*model.Nomenclature, error) {
	return s.nomenclatures.Get(ctx, id)
}

func (s *Service) ListNomenclatures(ctx context.Context, limit, offset int) ([]model.Nomenclature, error) {
	return s.nomenclatures.List(ctx, clampLimit(limit), max(offset, 0))
}

func (s *Service) ListCategories(ctx context.Context, limit, offset int) ([]model.Category, error) {
	return s.categories.List(ctx, clampLimit(limit), max(offset, 0))
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultPageSize
	case limit > maxPageSize:
		return maxPageSize
	default:
		return limit
	}
}
