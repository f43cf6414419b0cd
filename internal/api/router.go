package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"airdrop-engine/internal/observability"
)

func Router(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(observability.Measure)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Second))

	r.Post("/v1/platform", h.Instantiate)
	r.Patch("/v1/platform", h.UpdatePlatform)
	r.Post("/v1/operators", h.SetOperators)
	r.Get("/v1/operators/{account}", h.GetOperator)
	r.Post("/v1/campaigns", h.CreateCampaign)
	r.Put("/v1/campaigns/{id}", h.UpdateCampaign)
	r.Post("/v1/campaigns/{id}/airdrop", h.Airdrop)
	r.Get("/v1/campaigns/{id}", h.GetCampaign)
	r.Post("/v1/fees/withdraw", h.WithdrawFee)
	r.Get("/v1/fees/estimate", h.EstimateFee)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", observability.MetricsHandler())
	return r
}
