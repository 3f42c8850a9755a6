package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/internal/search"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/internal/trust"
	apperrors "github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/logger"
)

// Searcher is implemented by search.Searcher.
type Searcher interface {
	Search(ctx context.Context, q search.Query) (*search.Result, error)
}

// TrustService is the part of trust.Service the API exposes.
type TrustService interface {
	TrustSnapshot(ctx context.Context) (map[trust.Domain]int, error)
	Source(ctx context.Context, domain string) (trust.SourceInfo, error)
	UnknownSources(ctx context.Context) ([]trust.Domain, error)
	CastVote(ctx context.Context, domain string, dir trust.Direction) (trust.Tally, error)
	RetractVote(ctx context.Context, domain string, dir trust.Direction) (trust.Tally, error)
	Promote(ctx context.Context, threshold int) ([]trust.Promotion, error)
}

// CacheAdmin is implemented by news.Cache.
type CacheAdmin interface {
	Stats() (hits, misses int64)
	Invalidate(ctx context.Context) (int64, error)
}

type Options struct {
	DefaultMinTrust int
	VoteThreshold   int
}

// Handler serves the tracker's HTTP endpoints.
type Handler struct {
	searcher Searcher
	trust    TrustService
	cache    CacheAdmin
	opts     Options
	logger   *slog.Logger
}

// NewHandler builds a Handler. cache may be nil when redis is disabled.
func NewHandler(s Searcher, t TrustService, cache CacheAdmin, opts Options) *Handler {
	return &Handler{
		searcher: s,
		trust:    t,
		cache:    cache,
		opts:     opts,
		logger:   slog.Default().With("component", "api-handler"),
	}
}

// Search handles GET /api/v1/search?q=&min_trust=&domain=. domain may repeat
// or hold a comma separated list.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	text := strings.TrimSpace(q.Get("q"))
	if text == "" {
		h.writeError(w, r, apperrors.Invalid("query parameter q is required"))
		return
	}
	minTrust := h.opts.DefaultMinTrust
	if v := q.Get("min_trust"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.writeError(w, r, apperrors.Invalid("min_trust must be an integer, got %q", v))
			return
		}
		minTrust = n
	}
	var domains []trust.Domain
	for _, raw := range q["domain"] {
		for _, part := range strings.Split(raw, ",") {
			if d := trust.NormalizeDomain(part); d != "" {
				domains = append(domains, d)
			}
		}
	}

	res, err := h.searcher.Search(r.Context(), search.Query{Text: text, MinTrust: minTrust, Domains: domains})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

type trustedSource struct {
	Domain trust.Domain `json:"domain"`
	Score  int          `json:"score"`
	Tier   trust.Tier   `json:"tier"`
}

// ListSources returns the trust mapping, best scored first.
func (h *Handler) ListSources(w http.ResponseWriter, r *http.Request) {
	levels, err := h.trust.TrustSnapshot(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sources := make([]trustedSource, 0, len(levels))
	for d, score := range levels {
		sources = append(sources, trustedSource{Domain: d, Score: score, Tier: trust.ScoreToTier(score)})
	}
	sort.Slice(sources, func(i, j int) bool {
		if sources[i].Score != sources[j].Score {
			return sources[i].Score > sources[j].Score
		}
		return sources[i].Domain < sources[j].Domain
	})
	h.writeJSON(w, http.StatusOK, map[string]any{
		"sources": sources,
		"count":   len(sources),
	})
}

func (h *Handler) UnknownSources(w http.ResponseWriter, r *http.Request) {
	domains, err := h.trust.UnknownSources(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"domains": domains,
		"count":   len(domains),
	})
}

func (h *Handler) GetSource(w http.ResponseWriter, r *http.Request) {
	info, err := h.trust.Source(r.Context(), chi.URLParam(r, "domain"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, info)
}

type voteRequest struct {
	Direction *string `json:"direction"`
}

type voteResponse struct {
	Domain    trust.Domain    `json:"domain"`
	Direction trust.Direction `json:"direction"`
	Up        int             `json:"up"`
	Down      int             `json:"down"`
	Net       int             `json:"net"`
}

// CastVote handles POST /api/v1/sources/{domain}/votes with a JSON body
// {"direction":"up"|"down"}.
func (h *Handler) CastVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := decodeBody(r.Body, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Direction == nil {
		h.writeError(w, r, apperrors.Invalid("direction is required"))
		return
	}
	dir, err := trust.ParseDirection(*req.Direction)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.vote(w, r, dir, false)
}

// RetractVote handles DELETE /api/v1/sources/{domain}/votes?direction=.
func (h *Handler) RetractVote(w http.ResponseWriter, r *http.Request) {
	dir, err := trust.ParseDirection(r.URL.Query().Get("direction"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.vote(w, r, dir, true)
}

func (h *Handler) vote(w http.ResponseWriter, r *http.Request, dir trust.Direction, retract bool) {
	domain := chi.URLParam(r, "domain")
	apply := h.trust.CastVote
	status := http.StatusCreated
	if retract {
		apply = h.trust.RetractVote
		status = http.StatusOK
	}
	tally, err := apply(r.Context(), domain, dir)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, status, voteResponse{
		Domain:    trust.NormalizeDomain(domain),
		Direction: dir,
		Up:        tally.Up,
		Down:      tally.Down,
		Net:       tally.Net(),
	})
}

// Promote handles POST /api/v1/admin/promote?threshold=.
func (h *Handler) Promote(w http.ResponseWriter, r *http.Request) {
	threshold := h.opts.VoteThreshold
	if v := r.URL.Query().Get("threshold"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.writeError(w, r, apperrors.Invalid("threshold must be an integer, got %q", v))
			return
		}
		threshold = n
	}
	promoted, err := h.trust.Promote(r.Context(), threshold)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if promoted == nil {
		promoted = []trust.Promotion{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"threshold": threshold,
		"promoted":  promoted,
		"count":     len(promoted),
	})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]any{"enabled": false})
		return
	}
	hits, misses := h.cache.Stats()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"enabled": true,
		"hits":    hits,
		"misses":  misses,
	})
}

func (h *Handler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]any{"enabled": false, "deleted": 0})
		return
	}
	n, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.writeError(w, r, fmt.Errorf("invalidating cache: %w", err))
		return
	}
	logger.FromContext(r.Context()).Info("search cache invalidated", "component", "api", "deleted", n)
	h.writeJSON(w, http.StatusOK, map[string]any{"enabled": true, "deleted": n})
}

// decodeBody rejects unknown fields and trailing data.
func decodeBody(body io.Reader, v any) error {
	dec := json.NewDecoder(io.LimitReader(body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperrors.Invalid("invalid JSON body: %v", err)
	}
	if dec.More() {
		return apperrors.Invalid("invalid JSON body: trailing data")
	}
	return nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

// writeError maps err to a status code. Server-side failures are logged and
// their detail is kept out of the response.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed",
			"component", "api",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
		if status == http.StatusInternalServerError {
			message = "internal error"
		}
	}
	writeError(w, status, message)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
