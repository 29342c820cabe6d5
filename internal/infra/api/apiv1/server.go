// Package apiv1 serves the authenticated billing endpoints under /api/v1.
package apiv1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"estate-crm/internal/domain"
	"estate-crm/internal/infra/logging"
	red "estate-crm/internal/infra/redis"
	"estate-crm/internal/usecase"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	Email  string
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok && p.UserID != ""
}

type Server struct {
	ledger   usecase.LedgerUseCase
	checkout usecase.CheckoutUseCase
	log      *zerolog.Logger
}

func NewServer(ledger usecase.LedgerUseCase, checkout usecase.CheckoutUseCase, logger *zerolog.Logger) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Server{ledger: ledger, checkout: checkout, log: logger}
}

// Limiter yields the rate-limit middleware for a preset.
type Limiter func(red.Limit) func(http.Handler) http.Handler

// RegisterAPIV1 mounts the billing routes. Callers must authenticate requests first.
func RegisterAPIV1(r chi.Router, s *Server, limit Limiter) {
	if limit == nil {
		limit = func(red.Limit) func(http.Handler) http.Handler {
			return func(next http.Handler) http.Handler { return next }
		}
	}
	read := limit(red.LimitRead)
	sensitive := limit(red.LimitSensitive)

	r.With(read).Get("/api/v1/subscription", s.getSubscription)
	r.With(read).Get("/api/v1/subscription/limits/{resource}", s.getLimit)
	r.With(read).Get("/api/v1/credits", s.getCredits)
	r.With(read).Get("/api/v1/payments/status", s.getPaymentStatus)

	r.With(sensitive).Post("/api/v1/payments/checkout", s.postSubscriptionCheckout)
	r.With(sensitive).Post("/api/v1/credits/checkout", s.postCreditCheckout)
	r.With(sensitive).Post("/api/v1/marketplace/{listingID}/purchase", s.postLeadPurchase)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeDomainError maps use case errors to responses; anything unknown is a 500.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, domain.ErrListingUnavailable):
		writeError(w, http.StatusNotFound, "Listing not found or no longer available")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, domain.ErrUnknownPlan):
		writeError(w, http.StatusBadRequest, "Invalid plan")
	case errors.Is(err, domain.ErrInvalidCreditPack):
		writeError(w, http.StatusBadRequest, "Invalid credit package")
	case errors.Is(err, domain.ErrSelfPurchase):
		writeError(w, http.StatusBadRequest, "Cannot purchase your own listing")
	case errors.Is(err, domain.ErrAlreadyPurchased):
		writeError(w, http.StatusBadRequest, "You have already purchased this lead")
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "Invalid request")
	case errors.Is(err, domain.ErrMisconfigured):
		writeError(w, http.StatusServiceUnavailable, "Payments are not configured")
	default:
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Str("path", r.URL.Path).Msg(fallback)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func (s *Server) principal(w http.ResponseWriter, r *http.Request) (Principal, bool) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	}
	return p, ok
}
