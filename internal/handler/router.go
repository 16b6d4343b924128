package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/pizza-portal/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware API.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	if h.metrics != nil {
		r.Use(h.metrics.Instrument)
	}
	r.Use(chimw.StripSlashes)
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))
	r.Use(custommiddleware.Token)

	r.Route("/api", func(r chi.Router) {
		r.Post("/users", h.CreateUser)
		r.Get("/users", h.GetUser)
		r.Put("/users", h.UpdateUser)
		r.Delete("/users", h.DeleteUser)

		if h.limiter != nil {
			r.With(h.limiter.Handler).Post("/tokens", h.CreateToken)
		} else {
			r.Post("/tokens", h.CreateToken)
		}
		r.Get("/tokens", h.GetToken)
		r.Put("/tokens", h.ExtendToken)
		r.Delete("/tokens", h.DeleteToken)

		r.Get("/menu", h.GetMenu)

		r.Post("/carts", h.CreateCart)
		r.Get("/carts", h.GetCart)
		r.Put("/carts", h.UpdateCart)

		r.Post("/orders", h.CreateOrder)
		r.Get("/orders", h.GetOrder)
		r.Put("/orders", h.UpdateOrder)
	})

	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Invalid route"})
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Invalid method: " + r.Method})
	})

	return r
}
