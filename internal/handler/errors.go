package handler

import (
	"errors"
	"net/http"
	"strings"

	"gamestore-api/internal/middleware"
	"gamestore-api/internal/service"
	"gamestore-api/pkg/apierror"
	"gamestore-api/pkg/logger"
	"gamestore-api/pkg/response"
)

// writeServiceError maps a service error onto the API error envelope.
// Storage failures are logged and reported without internal detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	response.Error(w, toAPIError(r, log, err))
}

func toAPIError(r *http.Request, log *logger.Logger, err error) *apierror.Error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return apierror.ValidationError(strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": "))
	case errors.Is(err, service.ErrMissingStudioName):
		return apierror.Coded(http.StatusBadRequest, "MISSING_STUDIO_NAME", "Studio Name is required")
	case errors.Is(err, service.ErrUsernameTaken):
		return apierror.Coded(http.StatusConflict, "USERNAME_TAKEN", "Username already taken")
	case errors.Is(err, service.ErrAlreadyOwned):
		return apierror.Coded(http.StatusConflict, "ALREADY_OWNED", "You already own this game")
	case errors.Is(err, service.ErrAlreadyInCart):
		return apierror.Coded(http.StatusConflict, "ALREADY_IN_CART", "Game is already in your cart")
	case errors.Is(err, service.ErrInvalidCredentials):
		return apierror.Coded(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password")
	case errors.Is(err, service.ErrSessionNotFound):
		return apierror.Unauthorized(middleware.LoginRequiredMessage)
	case errors.Is(err, service.ErrForbidden):
		return apierror.Forbidden("Only buyers can use the cart and library")
	case errors.Is(err, service.ErrGameNotFound):
		return apierror.NotFound("Game not found")
	default:
		log.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		return apierror.StorageError("")
	}
}
