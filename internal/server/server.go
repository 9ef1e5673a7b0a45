// Package server is the HTTP boundary of the generation service.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/raine/wardrobe-editorial/internal/editorial"
	"github.com/raine/wardrobe-editorial/internal/metrics"
	"github.com/rs/zerolog"
)

// maxBodyBytes fits three inline images at the download size cap.
const maxBodyBytes = 48 << 20

// Generator runs one submission.
type Generator interface {
	Generate(ctx context.Context, req editorial.Request) (editorial.Payload, error)
}

// Config holds runtime options for the HTTP server.
type Config struct {
	Address        string
	APIKeys        []string
	RatePerMinute  int
	RequestTimeout time.Duration
	// TrustProxy takes the client address from X-Forwarded-For/X-Real-IP.
	// Only enable it behind a proxy that overwrites those headers.
	TrustProxy bool
	// Clock is used by the rate limiter. Defaults to time.Now.
	Clock func() time.Time
}

// New constructs the HTTP server with its middleware stack.
func New(cfg Config, gen Generator, reg *metrics.Registry) *http.Server {
	return &http.Server{
		Addr:              cfg.Address,
		Handler:           NewHandler(cfg, gen, reg),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// NewHandler builds the router.
func NewHandler(cfg Config, gen Generator, reg *metrics.Registry) http.Handler {
	h := &handlers{gen: gen, timeout: cfg.RequestTimeout}
	limiter := newKeyedLimiter(cfg.RatePerMinute, cfg.Clock)

	router := chi.NewRouter()
	if cfg.TrustProxy {
		router.Use(chimw.RealIP)
	}
	router.Use(requestLogger(reg))
	router.Use(chimw.Recoverer)

	router.Get("/healthz", h.health)
	if reg != nil {
		router.Get("/metrics", reg.Handler())
	}

	router.Route("/v1", func(r chi.Router) {
		r.Use(apiKeyAuth(cfg.APIKeys))
		r.Use(rateLimit(limiter, len(cfg.APIKeys) > 0))
		r.Post("/generate", h.generate)
		r.Post("/{variant}", h.generate)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
	})
	return router
}

type handlers struct {
	gen     Generator
	timeout time.Duration
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) generate(w http.ResponseWriter, r *http.Request) {
	var req editorial.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeFailure(w, r, editorial.NewError(editorial.KindInvalidInput, "request body too large"))
			return
		}
		writeFailure(w, r, editorial.Wrap(editorial.KindInvalidInput, "invalid json body", err))
		return
	}

	if name := chi.URLParam(r, "variant"); name != "" {
		v, err := editorial.ParseVariant(name)
		if err != nil {
			writeFailure(w, r, err)
			return
		}
		req.Variant = v
	} else if req.Variant != "" {
		v, err := editorial.ParseVariant(string(req.Variant))
		if err != nil {
			writeFailure(w, r, err)
			return
		}
		req.Variant = v
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	payload, err := h.gen.Generate(ctx, req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// failureBody is the wire shape of every failure.
type failureBody struct {
	Error      editorial.Kind `json:"error"`
	Message    string         `json:"message"`
	DebugID    string         `json:"debug_id"`
	RetryAfter int            `json:"retry_after,omitempty"`
}

// StatusFor maps a failure kind to its HTTP status. Application failures
// travel with 200.
func StatusFor(kind editorial.Kind) int {
	switch kind {
	case editorial.KindRateLimited:
		return http.StatusTooManyRequests
	case editorial.KindUnauthorized:
		return http.StatusUnauthorized
	case editorial.KindServerError:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	e := editorial.AsError(err)
	debugID := e.DebugID
	if debugID == "" {
		debugID = RequestIDFromContext(r.Context())
	}
	if debugID == "" {
		debugID = uuid.NewString()
	}

	body := failureBody{Error: e.Kind, Message: e.Message, DebugID: debugID}
	if e.Kind == editorial.KindServerError {
		body.Message = "internal error"
	}
	if e.Kind == editorial.KindRateLimited && e.RetryAfter > 0 {
		body.RetryAfter = setRetryAfter(w, e.RetryAfter)
	}

	zerolog.Ctx(r.Context()).Warn().
		Err(err).
		Str("kind", string(e.Kind)).
		Str("debug_id", debugID).
		Msg("request failed")

	writeJSON(w, StatusFor(e.Kind), body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
