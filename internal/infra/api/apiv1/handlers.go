package apiv1

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"estate-crm/internal/domain/model"
	"estate-crm/internal/infra/metrics"
	"estate-crm/internal/usecase"
)

func (s *Server) getSubscription(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}
	info, err := s.ledger.GetSubscriptionAndUsage(r.Context(), p.UserID)
	if err != nil {
		s.writeDomainError(w, r, err, "Failed to fetch subscription")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) getLimit(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}
	res, ok := model.ParseResource(chi.URLParam(r, "resource"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown resource")
		return
	}
	check, err := s.ledger.CheckLimit(r.Context(), p.UserID, res)
	if err != nil {
		s.writeDomainError(w, r, err, "Failed to check limit")
		return
	}
	writeJSON(w, http.StatusOK, check)
}

type creditsResponse struct {
	Credits struct {
		Lead  int64 `json:"lead"`
		AI    int64 `json:"ai"`
		Email int64 `json:"email"`
	} `json:"credits"`
	Transactions []*model.CreditTransaction `json:"transactions"`
}

func (s *Server) getCredits(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}
	sum, err := s.ledger.GetCredits(r.Context(), p.UserID)
	if err != nil {
		s.writeDomainError(w, r, err, "Failed to fetch credits")
		return
	}
	var resp creditsResponse
	resp.Credits.Lead = sum.Balance.LeadCredits
	resp.Credits.AI = sum.Balance.AICredits
	resp.Credits.Email = sum.Balance.EmailCredits
	resp.Transactions = sum.Recent
	if resp.Transactions == nil {
		resp.Transactions = []*model.CreditTransaction{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getPaymentStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "Session ID required")
		return
	}
	view, err := s.checkout.PaymentStatus(r.Context(), p.UserID, sessionID)
	if err != nil {
		s.writeDomainError(w, r, err, "Failed to check status")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type subscriptionCheckoutRequest struct {
	Plan string `json:"plan"`
}

func (s *Server) postSubscriptionCheckout(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}
	var req subscriptionCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	plan, ok := model.ParsePlan(req.Plan)
	if !ok || !plan.IsPaid() {
		writeError(w, http.StatusBadRequest, "Invalid plan")
		return
	}
	res, err := s.checkout.StartSubscriptionCheckout(r.Context(), p.UserID, p.Email, plan)
	s.respondCheckout(w, r, string(model.CheckoutSubscription), res, err)
}

type creditCheckoutRequest struct {
	Type   string `json:"type"`
	Amount int64  `json:"amount"`
}

func (s *Server) postCreditCheckout(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}
	var req creditCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	t, ok := model.ParseCreditType(req.Type)
	if !ok || req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "Type and amount are required")
		return
	}
	res, err := s.checkout.StartCreditCheckout(r.Context(), p.UserID, p.Email, t, req.Amount)
	s.respondCheckout(w, r, string(model.CheckoutCreditPurchase), res, err)
}

func (s *Server) postLeadPurchase(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}
	res, err := s.checkout.StartLeadPurchase(r.Context(), p.UserID, p.Email, chi.URLParam(r, "listingID"))
	s.respondCheckout(w, r, string(model.CheckoutLeadPurchase), res, err)
}

func (s *Server) respondCheckout(w http.ResponseWriter, r *http.Request, purpose string, res *usecase.CheckoutResult, err error) {
	if err != nil {
		metrics.IncCheckoutSession(purpose, "error")
		s.writeDomainError(w, r, err, "Failed to create checkout session")
		return
	}
	result := "created"
	if res.Reused {
		result = "reused"
	}
	metrics.IncCheckoutSession(purpose, result)
	writeJSON(w, http.StatusOK, res)
}
