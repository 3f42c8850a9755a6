// Package api exposes search, source inspection, voting and promotion over
// HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/metrics"
	pkgmw "github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/middleware"
)

type RouterConfig struct {
	RequestTimeout time.Duration
	AdminToken     string
	AllowOrigins   []string
}

// NewRouter builds the full HTTP handler.
//
// Route table:
//
//	GET    /api/v1/search                   → scored, filtered news
//	GET    /api/v1/sources                  → trust mapping
//	GET    /api/v1/sources/unknown          → unscored domains seen in results
//	GET    /api/v1/sources/{domain}         → score, tier, votes
//	POST   /api/v1/sources/{domain}/votes   → cast vote        (rate limited)
//	DELETE /api/v1/sources/{domain}/votes   → retract vote     (rate limited)
//	GET    /api/v1/cache/stats              → search cache counters
//	POST   /api/v1/admin/promote            → run promotion    (admin)
//	POST   /api/v1/admin/cache/invalidate   → flush search cache (admin)
//	GET    /health/live, /health/ready
//
// Middleware chain (outermost first):
//
//	RequestID → CORS → Metrics → Timeout → handler
func NewRouter(h *Handler, checker *health.Checker, m *metrics.Metrics, limiter *pkgmw.IPRateLimiter, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(pkgmw.RequestID)
	r.Use(CORS(DefaultCORSConfig(cfg.AllowOrigins)))
	if m != nil {
		r.Use(pkgmw.Metrics(m))
	}
	if cfg.RequestTimeout > 0 {
		r.Use(pkgmw.Timeout(cfg.RequestTimeout))
	}

	r.Get("/health/live", checker.LiveHandler())
	r.Get("/health/ready", checker.ReadyHandler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", h.Search)
		r.Get("/cache/stats", h.CacheStats)

		r.Route("/sources", func(r chi.Router) {
			r.Get("/", h.ListSources)
			r.Get("/unknown", h.UnknownSources)
			r.Get("/{domain}", h.GetSource)
			r.Group(func(r chi.Router) {
				if limiter != nil {
					r.Use(pkgmw.RateLimit(limiter))
				}
				r.Post("/{domain}/votes", h.CastVote)
				r.Delete("/{domain}/votes", h.RetractVote)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminAuth(cfg.AdminToken))
			r.Post("/promote", h.Promote)
			r.Post("/cache/invalidate", h.InvalidateCache)
		})
	})
	return r
}
