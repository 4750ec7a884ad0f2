package handler

import (
	"encoding/json"
	"net/http"

	"gamestore-api/internal/middleware"
	"gamestore-api/internal/model"
	"gamestore-api/internal/service"
	"gamestore-api/pkg/apierror"
	"gamestore-api/pkg/logger"
	"gamestore-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// CartHandler handles cart, checkout and library HTTP requests.
type CartHandler struct {
	carts *service.CartService
	log   *logger.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(carts *service.CartService, log *logger.Logger) *CartHandler {
	return &CartHandler{
		carts: carts,
		log:   log,
	}
}

// CartResponse is the buyer's current cart.
type CartResponse struct {
	Items []model.CartItem `json:"items"`
	Count int              `json:"count"`
	Total float64          `json:"total"`
}

// AddItemRequest represents the request body for adding to the cart.
type AddItemRequest struct {
	GameID int64 `json:"game_id"`
}

// CheckoutResponse reports a completed checkout.
type CheckoutResponse struct {
	model.CheckoutResult
	Message string `json:"message"`
}

// LibraryResponse lists the games a buyer owns.
type LibraryResponse struct {
	Games []model.LibraryEntry `json:"games"`
	Count int                  `json:"count"`
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromContext(r.Context())
	h.writeCart(w, r, id, http.StatusOK)
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromContext(r.Context())

	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if err := h.carts.AddGame(r.Context(), id, req.GameID); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	h.writeCart(w, r, id, http.StatusCreated)
}

// RemoveItem handles DELETE /api/v1/cart/items/{game_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromContext(r.Context())

	gameID, err := parseID(chi.URLParam(r, "game_id"))
	if err != nil {
		response.Error(w, apierror.BadRequest("game_id must be a positive integer"))
		return
	}

	if err := h.carts.RemoveGame(r.Context(), id, gameID); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	h.writeCart(w, r, id, http.StatusOK)
}

// Checkout handles POST /api/v1/cart/checkout
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromContext(r.Context())

	result, err := h.carts.Checkout(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	msg := "Checkout complete"
	if result.Cleared == 0 {
		msg = "Your cart is empty"
	}
	response.OK(w, CheckoutResponse{CheckoutResult: result, Message: msg})
}

// Library handles GET /api/v1/library
func (h *CartHandler) Library(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromContext(r.Context())

	entries, err := h.carts.Library(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	response.OK(w, LibraryResponse{Games: entries, Count: len(entries)})
}

func (h *CartHandler) writeCart(w http.ResponseWriter, r *http.Request, id model.Identity, status int) {
	items, err := h.carts.ListCart(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	var total float64
	for _, item := range items {
		total += item.Price
	}
	response.JSON(w, status, CartResponse{Items: items, Count: len(items), Total: total})
}
