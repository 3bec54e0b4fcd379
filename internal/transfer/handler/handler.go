package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"fxtransfer/internal/domain"
)

// TransferService is the slice of the transfer engine the HTTP layer needs.
type TransferService interface {
	Transfer(ctx context.Context, sourceAccountID, destinationAccountID int64, amount float64, currency, description string) (*domain.Transaction, error)
}

type Handler struct {
	service TransferService
}

func NewTransferHandler(service TransferService) *Handler {
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

func statusForError(err error) int {
	switch {
	case domain.IsInvalidInput(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
