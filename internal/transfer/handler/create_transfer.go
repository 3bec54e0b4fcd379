package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type CreateTransferRequest struct {
	SourceAccountID      int64   `json:"source_account_id"`
	DestinationAccountID int64   `json:"destination_account_id"`
	Amount               float64 `json:"amount"`
	Currency             string  `json:"currency"`
	Description          string  `json:"description"`
}

type CreateTransferResponse struct {
	TransactionID        int64     `json:"transaction_id"`
	SourceAccountID      int64     `json:"source_account_id"`
	DestinationAccountID int64     `json:"destination_account_id"`
	Amount               float64   `json:"amount"`
	Currency             string    `json:"currency"`
	Description          string    `json:"description,omitempty"`
	ExchangeRate         float64   `json:"exchange_rate"`
	CreatedAt            time.Time `json:"created_at"`
}

func (h *Handler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1024)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req CreateTransferRequest
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))

	transaction, err := h.service.Transfer(
		r.Context(),
		req.SourceAccountID,
		req.DestinationAccountID,
		req.Amount,
		currency,
		strings.TrimSpace(req.Description),
	)
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			logrus.WithError(err).WithFields(logrus.Fields{
				"handler":                "CreateTransfer",
				"source_account_id":      req.SourceAccountID,
				"destination_account_id": req.DestinationAccountID,
			}).Error("transfer failed")
			writeError(w, status, "transfer failed")
			return
		}
		writeError(w, status, err.Error())
		return
	}

	res := CreateTransferResponse{
		TransactionID:        transaction.ID,
		SourceAccountID:      transaction.SourceAccountID,
		DestinationAccountID: transaction.DestinationAccountID,
		Amount:               transaction.Amount,
		Currency:             transaction.Currency,
		Description:          transaction.Description,
		ExchangeRate:         transaction.ExchangeRate,
		CreatedAt:            transaction.CreatedAt,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(res)
}
