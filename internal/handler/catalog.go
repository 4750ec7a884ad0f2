package handler

import (
	"net/http"
	"strconv"

	"gamestore-api/internal/model"
	"gamestore-api/internal/service"
	"gamestore-api/pkg/apierror"
	"gamestore-api/pkg/logger"
	"gamestore-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// CatalogHandler handles game catalog HTTP requests.
type CatalogHandler struct {
	catalog *service.CatalogService
	log     *logger.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(catalog *service.CatalogService, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		log:     log,
	}
}

// GameListResponse echoes the filters alongside the matches.
type GameListResponse struct {
	Games    []model.Game `json:"games"`
	Count    int          `json:"count"`
	Search   string       `json:"search"`
	Category string       `json:"category"`
}

// ListGames handles GET /api/v1/games?search=&category=
func (h *CatalogHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	filter := model.GameFilter{
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
	}

	games, err := h.catalog.Search(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	response.OK(w, GameListResponse{
		Games:    games,
		Count:    len(games),
		Search:   filter.Search,
		Category: filter.Category,
	})
}

// Categories handles GET /api/v1/games/categories
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	response.OK(w, map[string]interface{}{"categories": categories})
}

// GetGame handles GET /api/v1/games/{id}
func (h *CatalogHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, apierror.BadRequest("id must be a positive integer"))
		return
	}

	game, err := h.catalog.GetGame(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	response.OK(w, game)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, strconv.ErrRange
	}
	return id, nil
}
