package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"fxtransfer/internal/domain"
)

// RateService is the slice of the exchange service the HTTP layer needs.
type RateService interface {
	GetExchangeRate(ctx context.Context, from, to string) (float64, error)
	FetchAndStoreAllRates(ctx context.Context, base string, targets []string) (map[string]float64, error)
	SupportedCodes() []string
}

type Handler struct {
	service RateService
}

func NewRateHandler(service RateService) *Handler {
	return &Handler{service: service}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, statusCode int, errorMsg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error: errorMsg,
	})
}

// statusForError maps the error taxonomy onto HTTP statuses: invalid input
// is the client's fault, unavailability is 503, anything else is a 500.
func statusForError(err error) int {
	switch {
	case domain.IsInvalidInput(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrRateNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
