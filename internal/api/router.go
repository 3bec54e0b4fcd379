package api

import (
	exchangehandler "fxtransfer/internal/exchange/handler"
	transferhandler "fxtransfer/internal/transfer/handler"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(transferHandler *transferhandler.Handler, rateHandler *exchangehandler.Handler) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(middleware.Heartbeat("/healthz"))

	router.Post("/api/v1/transfers", transferHandler.CreateTransfer)
	router.Post("/api/v1/rates/refresh", rateHandler.RefreshRates)
	router.Get("/api/v1/rates/supported-currencies", rateHandler.GetSupportedCodes)
	router.Get("/api/v1/rates/{from:[A-Za-z]{3}}/{to:[A-Za-z]{3}}", rateHandler.GetRate)
	return router
}
