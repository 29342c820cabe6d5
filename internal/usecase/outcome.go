// File: internal/usecase/outcome.go
package usecase

import (
	"errors"
	"net/http"

	"estate-crm/internal/domain"
	"estate-crm/internal/domain/model"
)

// OutcomeKind is the single classification every webhook delivery ends with.
type OutcomeKind string

const (
	OutcomeApplied          OutcomeKind = "applied"
	OutcomeAlreadyApplied   OutcomeKind = "already_applied"
	OutcomeUnknownEvent     OutcomeKind = "unknown_event"
	OutcomePermanentData    OutcomeKind = "permanent_data_error"
	OutcomeNotFound         OutcomeKind = "not_found"
	OutcomeRetryLater       OutcomeKind = "retry_later"
	OutcomeTransientStore   OutcomeKind = "transient_store_error"
	OutcomeInvalidSignature OutcomeKind = "invalid_signature"
	OutcomeMisconfigured    OutcomeKind = "misconfigured"
)

// Result is what the router reports for one delivery.
type Result struct {
	Outcome OutcomeKind
	EventID string
	Kind    string // provider event kind, empty when verification failed
	Handler string // applier that ran, e.g. "subscription_checkout"
	Err     error  // underlying cause for logging; nil when applied
	Effect  *Effect
}

// Effect summarizes a committed payment transition so callers can record metrics.
// It is only set when Outcome is applied.
type Effect struct {
	PaymentStatus model.PaymentStatus
	Purpose       model.PaymentPurpose
	CreditType    model.CreditType
	Credits       int64
}

// Acknowledge reports whether the provider should consider the delivery handled.
func (r Result) Acknowledge() bool {
	switch r.Outcome {
	case OutcomeApplied, OutcomeAlreadyApplied, OutcomeUnknownEvent, OutcomePermanentData, OutcomeNotFound:
		return true
	}
	return false
}

// Alert reports whether an operator should look at this delivery.
func (r Result) Alert() bool {
	return r.Outcome == OutcomePermanentData || r.Outcome == OutcomeMisconfigured
}

// HTTPStatus maps the outcome to the response the provider sees.
func (r Result) HTTPStatus() int {
	switch r.Outcome {
	case OutcomeInvalidSignature:
		return http.StatusBadRequest
	case OutcomeMisconfigured:
		return http.StatusInternalServerError
	case OutcomeTransientStore, OutcomeRetryLater:
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

// Classify maps an applier or verifier error to exactly one outcome.
// Anything unrecognised is treated as transient so the provider retries.
func Classify(err error) OutcomeKind {
	switch {
	case err == nil:
		return OutcomeApplied
	case errors.Is(err, domain.ErrInvalidSignature):
		return OutcomeInvalidSignature
	case errors.Is(err, domain.ErrMisconfigured):
		return OutcomeMisconfigured
	case errors.Is(err, domain.ErrAlreadyApplied), errors.Is(err, domain.ErrConflict):
		return OutcomeAlreadyApplied
	case errors.Is(err, domain.ErrPermanentData):
		return OutcomePermanentData
	case errors.Is(err, domain.ErrRetryLater):
		return OutcomeRetryLater
	case errors.Is(err, domain.ErrNotFound):
		return OutcomeNotFound
	}
	return OutcomeTransientStore
}
