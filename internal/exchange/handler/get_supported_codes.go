package handler

import (
	"encoding/json"
	"net/http"
)

type GetSupportedCodesResponse struct {
	SupportedCurrencies []string `json:"supported_currencies"`
}

func (h *Handler) GetSupportedCodes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(GetSupportedCodesResponse{
		SupportedCurrencies: h.service.SupportedCodes(),
	})
}
