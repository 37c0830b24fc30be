package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(h *PayoutHandler, gatherer prometheus.Gatherer) chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/v1/payouts/{id}", h.GetPayout)

	r.Route("/v1/merchant/payouts", func(r chi.Router) {
		r.Use(RequireActor(actorMerchant))
		r.Post("/", h.CreatePayout)
		r.Get("/", h.ListMerchantPayouts)
		r.Post("/{id}/approve", h.ApprovePayout)
		r.Post("/{id}/cancel", h.CancelByMerchant)
		r.Post("/{id}/dispute", h.OpenDispute)
	})

	r.Route("/v1/trader/payouts", func(r chi.Router) {
		r.Use(RequireActor(actorTrader))
		r.Get("/", h.ListTraderPayouts)
		r.Post("/{id}/accept", h.AcceptPayout)
		r.Post("/{id}/confirm", h.ConfirmPayout)
		r.Post("/{id}/cancel", h.CancelByTrader)
	})

	r.Route("/v1/admin", func(r chi.Router) {
		r.Use(RequireActor(actorAdmin))
		r.Post("/payouts/{id}/reject", h.RejectPayout)
		r.Post("/payouts/{id}/rate", h.AdjustRate)
		r.Post("/payouts/{id}/complete", h.ForceComplete)
		r.Post("/payouts/{id}/cancel", h.ForceCancel)
		r.Post("/payouts/{id}/assign", h.AssignPayout)
		r.Post("/disputes/{id}/resolve", h.ResolveDispute)
		r.Put("/distribution", h.SetDistributionEnabled)
		r.Get("/exchange/health", h.ExchangeHealth)
	})

	return r
}
