package service

import (
	"context"
	"strings"

	"gamestore-api/internal/model"
	"gamestore-api/internal/repository"
)

// CatalogService serves read-only catalog queries.
type CatalogService struct {
	repo repository.GameRepository
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(repo repository.GameRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

// Search lists games whose title contains filter.Search and whose category
// equals filter.Category. Empty filters match everything.
func (s *CatalogService) Search(ctx context.Context, filter model.GameFilter) ([]model.Game, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Category = strings.TrimSpace(filter.Category)

	games, err := s.repo.SearchGames(ctx, filter)
	if err != nil {
		return nil, storageError("search games", err)
	}
	return games, nil
}

// GetGame returns a single game.
func (s *CatalogService) GetGame(ctx context.Context, id int64) (*model.Game, error) {
	if id <= 0 {
		return nil, validationError("invalid game id")
	}
	game, err := s.repo.GetGame(ctx, id)
	if err != nil {
		return nil, storageError("get game", err)
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	return game, nil
}

// Categories lists the distinct categories available for filtering.
func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, storageError("list categories", err)
	}
	return categories, nil
}
