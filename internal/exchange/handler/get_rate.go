package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type GetRateResponse struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	Rate float64 `json:"rate"`
}

func (h *Handler) GetRate(w http.ResponseWriter, r *http.Request) {
	from := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "from")))
	to := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "to")))

	rate, err := h.service.GetExchangeRate(r.Context(), from, to)
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			logrus.WithError(err).WithFields(logrus.Fields{"handler": "GetRate", "from": from, "to": to}).Error("failed to resolve rate")
			writeError(w, status, "failed to resolve exchange rate")
			return
		}
		writeError(w, status, err.Error())
		return
	}

	res := GetRateResponse{
		From: from,
		To:   to,
		Rate: rate,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(res)
}
