package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/ryanbastic/go-gardenledger/internal/assets"
	"github.com/ryanbastic/go-gardenledger/internal/circuitbreaker"
	"github.com/ryanbastic/go-gardenledger/internal/contentstore"
	"github.com/ryanbastic/go-gardenledger/internal/garden"
	"github.com/ryanbastic/go-gardenledger/internal/photo"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps domain and store errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, garden.ErrUnknownTable),
		errors.Is(err, garden.ErrUnknownFolder),
		errors.Is(err, garden.ErrPlantNotFound),
		errors.Is(err, contentstore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, contentstore.ErrConflict),
		errors.Is(err, garden.ErrPlantExists):
		return http.StatusConflict
	case errors.Is(err, garden.ErrInvalidRecord),
		errors.Is(err, photo.ErrNotImage):
		return http.StatusUnprocessableEntity
	case errors.Is(err, assets.ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, circuitbreaker.ErrCircuitOpen):
		return http.StatusServiceUnavailable
	case contentstore.IsTransport(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// toHumaError converts err to a huma error. Client errors carry err's message;
// server side failures are logged and reported with msg only.
func toHumaError(logger *slog.Logger, msg string, err error) error {
	status := statusFor(err)
	if status < http.StatusInternalServerError {
		return huma.NewError(status, err.Error())
	}
	logger.Error(msg, "error", err)
	return huma.NewError(status, msg)
}
