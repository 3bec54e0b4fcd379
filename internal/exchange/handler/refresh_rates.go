package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

type RefreshRatesRequest struct {
	Base    string   `json:"base"`
	Targets []string `json:"targets"`
}

type RefreshRatesResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

func (h *Handler) RefreshRates(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1024)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req RefreshRatesRequest
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	base := strings.ToUpper(strings.TrimSpace(req.Base))
	targets := make([]string, 0, len(req.Targets))
	for _, t := range req.Targets {
		targets = append(targets, strings.ToUpper(strings.TrimSpace(t)))
	}

	rates, err := h.service.FetchAndStoreAllRates(r.Context(), base, targets)
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			logrus.WithError(err).WithFields(logrus.Fields{"handler": "RefreshRates", "base": base}).Error("failed to refresh rates")
			writeError(w, status, "failed to refresh rates")
			return
		}
		writeError(w, status, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(RefreshRatesResponse{
		Base:  base,
		Rates: rates,
	})
}
