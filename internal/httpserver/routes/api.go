package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/mkbrechtel/patterns/internal/httpserver/deps"
	"github.com/mkbrechtel/patterns/internal/httpserver/handlers"
)

func init() { Register(registerAPI) }

func registerAPI(r chi.Router, d deps.Deps) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/sidebar", handlers.Sidebar(d))
		r.Get("/pages", handlers.Pages(d))
	})
}
