package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/mkbrechtel/patterns/internal/httpserver/deps"
	"github.com/mkbrechtel/patterns/internal/httpserver/handlers"
	"github.com/mkbrechtel/patterns/internal/httpserver/mw"
)

func init() { Register(registerReload) }

func registerReload(r chi.Router, d deps.Deps) {
	r.With(
		mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		mw.RateLimit(mw.RateLimitConfig{
			Burst:             d.ReloadBurst,
			RefillPerIPPerMin: d.ReloadPerMin,
			MaxEntries:        10000,
			TrustProxy:        d.TrustProxy,
		}),
	).Post("/reload", handlers.Reload(d))
}
