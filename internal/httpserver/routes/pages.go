package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mkbrechtel/patterns/internal/httpserver/deps"
	"github.com/mkbrechtel/patterns/internal/httpserver/handlers"
)

func init() { Register(registerPages) }

func registerPages(r chi.Router, d deps.Deps) {
	if d.ContentFS != nil {
		r.Handle("/raw/*", http.StripPrefix("/raw/", http.FileServerFS(d.ContentFS)))
	}
	r.Get("/*", handlers.Page(d))
}
