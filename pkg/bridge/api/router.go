package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes builds the API router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/quote", h.getQuote)
		r.Post("/transfers", h.createTransfer)
		r.Get("/endpoints/{selector}", h.getEndpoint)
		r.Get("/chains", h.getChains)
		r.Get("/events", h.getEvents)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAdmin)
			r.Post("/endpoints", h.setEndpoint)
			r.Delete("/endpoints/{selector}", h.removeEndpoint)
			r.Put("/endpoints/{selector}/delivery-args", h.setDeliveryArgs)
			r.Post("/withdrawals/native", h.withdrawNative)
			r.Post("/withdrawals/token", h.withdrawToken)
		})
	})
	return r
}
