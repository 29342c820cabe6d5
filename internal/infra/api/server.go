package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"estate-crm/internal/infra/api/apiv1"
	"estate-crm/internal/infra/logging"
	"estate-crm/internal/infra/metrics"
	red "estate-crm/internal/infra/redis"
	"estate-crm/internal/usecase"
)

// maxWebhookBody caps a delivery. Stripe events with expanded objects can exceed
// 64 KiB, so the cap is generous.
const maxWebhookBody = 1 << 20

type ServerConfig struct {
	WebhookPath    string
	WebhookTimeout time.Duration
}

// Server owns the HTTP surface: the provider webhook, the authenticated billing API,
// and the operational endpoints.
type Server struct {
	reconcile usecase.ReconcileUseCase
	v1        *apiv1.Server
	auth      *AuthManager
	limiter   *red.RateLimiter // nil disables rate limiting
	cfg       ServerConfig
	log       *zerolog.Logger
}

func NewServer(reconcile usecase.ReconcileUseCase, v1 *apiv1.Server, auth *AuthManager, limiter *red.RateLimiter, cfg ServerConfig, logger *zerolog.Logger) *Server {
	if cfg.WebhookPath == "" {
		cfg.WebhookPath = "/api/v1/payments/webhook"
	}
	if cfg.WebhookTimeout <= 0 {
		cfg.WebhookTimeout = 10 * time.Second
	}
	l := logger.With().Str("component", "http").Logger()
	return &Server{reconcile: reconcile, v1: v1, auth: auth, limiter: limiter, cfg: cfg, log: &l}
}

// Router builds the chi router with the middleware chain applied.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(s.log), Recover(s.log), RequestLog(s.log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.With(Timeout(s.cfg.WebhookTimeout)).Post(s.cfg.WebhookPath, s.handleWebhook)

	r.Group(func(r chi.Router) {
		r.Use(s.auth.RequireUser(s.log))
		apiv1.RegisterAPIV1(r, s.v1, s.limit)
	})
	return r
}

// limit returns the rate-limit middleware for a preset, or a pass-through when disabled.
func (s *Server) limit(l red.Limit) func(http.Handler) http.Handler {
	if s.limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return RateLimit(s.limiter, l, s.log)
}

// handleWebhook verifies the signature on the raw body and answers the provider
// according to the reconciliation outcome.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			// The provider will keep redelivering this event; make it visible.
			metrics.IncWebhookAlert("body_too_large")
			s.log.Error().Bool("alert", true).Int64("limit", tooLarge.Limit).Msg("webhook body exceeds limit")
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "Payload too large"})
			return
		}
		s.log.Warn().Err(err).Msg("webhook body read failed")
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid body"})
		return
	}

	res := s.reconcile.HandleDelivery(r.Context(), body, r.Header.Get("Stripe-Signature"))

	kind := res.Kind
	if kind == "" {
		kind = "unverified"
	}
	metrics.ObserveWebhook(kind, string(res.Outcome), time.Since(start))
	if res.Alert() {
		metrics.IncWebhookAlert(string(res.Outcome))
	}
	if eff := res.Effect; eff != nil {
		metrics.IncPayment(string(eff.PaymentStatus), string(eff.Purpose))
		metrics.AddCreditsGranted(string(eff.CreditType), eff.Credits)
	}

	status := res.HTTPStatus()
	if status == http.StatusOK {
		writeJSON(w, status, map[string]bool{"received": true})
		return
	}
	l := logging.With(logging.WithEvent(r.Context(), res.EventID, res.Kind), s.log)
	l.Debug().Int("status", status).Str("outcome", string(res.Outcome)).Msg("webhook not acknowledged")
	writeJSON(w, status, errorBody{Error: webhookErrorText(res.Outcome)})
}

func webhookErrorText(o usecase.OutcomeKind) string {
	switch o {
	case usecase.OutcomeInvalidSignature:
		return "Invalid signature"
	case usecase.OutcomeMisconfigured:
		return "Webhook not configured"
	}
	return "Webhook handler failed"
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
