//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"estate-crm/internal/domain"
	"estate-crm/internal/domain/model"
	"estate-crm/internal/domain/ports/adapter"
	"estate-crm/internal/domain/ports/repository"
	"estate-crm/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// =============================
// In-memory store
// =============================

// memState is every table the billing use cases touch. It is copied wholesale to give
// MockTxManager rollback semantics.
type memState struct {
	users         map[string]model.User
	payments      map[string]model.Payment
	subs          map[string]model.Subscription // by user id
	balances      map[string]model.CreditBalance
	creditTx      []model.CreditTransaction
	listings      map[string]model.LeadListing
	purchases     map[string]model.LeadPurchase
	notifications []model.Notification
	usage         map[string]int64 // "user|resource"
}

func newMemState() *memState {
	return &memState{
		users:     map[string]model.User{},
		payments:  map[string]model.Payment{},
		subs:      map[string]model.Subscription{},
		balances:  map[string]model.CreditBalance{},
		listings:  map[string]model.LeadListing{},
		purchases: map[string]model.LeadPurchase{},
		usage:     map[string]int64{},
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.subs {
		c.subs[k] = v
	}
	for k, v := range s.balances {
		c.balances[k] = v
	}
	for k, v := range s.listings {
		c.listings[k] = v
	}
	for k, v := range s.purchases {
		c.purchases[k] = v
	}
	for k, v := range s.usage {
		c.usage[k] = v
	}
	c.creditTx = append(c.creditTx, s.creditTx...)
	c.notifications = append(c.notifications, s.notifications...)
	return c
}

// MemStore backs every repository port with one mutex-guarded memState.
type MemStore struct {
	mu sync.Mutex
	st *memState

	// NotificationErr, when set, is returned by every notification insert.
	NotificationErr error
	// Writes counts successful mutating calls.
	Writes int
}

func NewMemStore() *MemStore { return &MemStore{st: newMemState()} }

func (m *MemStore) Stores() usecase.Stores {
	return usecase.Stores{
		Payments:      &memPayments{m},
		Subscriptions: &memSubscriptions{m},
		Credits:       &memCredits{m},
		Listings:      &memListings{m},
		Purchases:     &memPurchases{m},
		Notifications: &memNotifications{m},
		Usage:         &memUsage{m},
		Users:         &memUsers{m},
	}
}

func (m *MemStore) snapshot() *memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.clone()
}

func (m *MemStore) restore(s *memState, writes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st = s
	m.Writes = writes
}

func (m *MemStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Writes
}

// ---- seeding and inspection helpers ----

func (m *MemStore) PutUser(u model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.users[u.ID] = u
}

func (m *MemStore) PutPayment(p model.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.payments[p.ID] = p
}

func (m *MemStore) PutSubscription(s model.Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.subs[s.UserID] = s
}

func (m *MemStore) PutListing(l model.LeadListing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.listings[l.ID] = l
}

func (m *MemStore) PutPurchase(p model.LeadPurchase) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.purchases[p.ID] = p
}

func (m *MemStore) SetUsage(userID string, r model.Resource, n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.usage[userID+"|"+string(r)] = n
}

func (m *MemStore) Payment(id string) (model.Payment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.st.payments[id]
	return p, ok
}

func (m *MemStore) Payments() []model.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Payment, 0, len(m.st.payments))
	for _, p := range m.st.payments {
		out = append(out, p)
	}
	return out
}

func (m *MemStore) Subscription(userID string) (model.Subscription, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.st.subs[userID]
	return s, ok
}

func (m *MemStore) Balance(userID string) model.CreditBalance {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.balances[userID]
}

func (m *MemStore) CreditTransactions() []model.CreditTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.CreditTransaction(nil), m.st.creditTx...)
}

func (m *MemStore) Listing(id string) model.LeadListing {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.listings[id]
}

func (m *MemStore) Purchases() []model.LeadPurchase {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.LeadPurchase, 0, len(m.st.purchases))
	for _, p := range m.st.purchases {
		out = append(out, p)
	}
	return out
}

func (m *MemStore) Notifications() []model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Notification(nil), m.st.notifications...)
}

// =============================
// Transactions
// =============================

type memTx struct{}

// MockTxManager serializes transactions and restores the pre-transaction snapshot when
// fn fails, which is the isolation the conditional updates rely on in Postgres.
type MockTxManager struct {
	mu    sync.Mutex
	store *MemStore

	Begun      int
	RolledBack int
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager(store *MemStore) *MockTxManager { return &MockTxManager{store: store} }

func (t *MockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Begun++

	writes := t.store.writeCount()
	snap := t.store.snapshot()
	if err := fn(ctx, memTx{}); err != nil {
		t.store.restore(snap, writes)
		t.RolledBack++
		return err
	}
	return nil
}

// =============================
// Repositories
// =============================

type memPayments struct{ m *MemStore }

func (r *memPayments) Create(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.st.users[p.UserID]; !ok {
		return fmt.Errorf("%w: payments_user_id_fkey", domain.ErrNotFound)
	}
	for _, e := range r.m.st.payments {
		if e.ID == p.ID || e.ProviderSessionID == p.ProviderSessionID {
			return fmt.Errorf("%w: payments_provider_session_id_key", domain.ErrConflict)
		}
		if p.ProviderPaymentIntentID != nil && e.PaymentIntent() == *p.ProviderPaymentIntentID {
			return fmt.Errorf("%w: payments_provider_payment_intent_id_key", domain.ErrConflict)
		}
	}
	r.m.st.payments[p.ID] = *p
	r.m.Writes++
	return nil
}

func (r *memPayments) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	return r.find(func(p model.Payment) bool { return p.ID == id })
}

func (r *memPayments) FindBySessionID(ctx context.Context, tx repository.Tx, sessionID string) (*model.Payment, error) {
	return r.find(func(p model.Payment) bool {
		return p.ProviderSessionID == sessionID || p.PaymentIntent() == model.LegacyPendingIntentPrefix+sessionID
	})
}

func (r *memPayments) FindByPaymentIntentID(ctx context.Context, tx repository.Tx, paymentIntentID string) (*model.Payment, error) {
	if paymentIntentID == "" {
		return nil, domain.ErrNotFound
	}
	return r.find(func(p model.Payment) bool { return p.PaymentIntent() == paymentIntentID })
}

func (r *memPayments) FindRecentPending(ctx context.Context, tx repository.Tx, userID string, purpose model.PaymentPurpose, plan model.Plan, since time.Time) (*model.Payment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var best *model.Payment
	for _, p := range r.m.st.payments {
		if p.UserID != userID || p.Purpose != purpose || p.Plan != plan || p.Status != model.PaymentStatusPending || p.CreatedAt.Before(since) {
			continue
		}
		if best == nil || p.CreatedAt.After(best.CreatedAt) {
			cp := p
			best = &cp
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	return best, nil
}

func (r *memPayments) find(match func(model.Payment) bool) (*model.Payment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, p := range r.m.st.payments {
		if match(p) {
			cp := p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memPayments) ExistsCompleted(ctx context.Context, tx repository.Tx, keys model.NaturalKeys) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, p := range r.m.st.payments {
		if p.Status != model.PaymentStatusCompleted {
			continue
		}
		if (keys.SessionID != "" && p.ProviderSessionID == keys.SessionID) ||
			(keys.PaymentIntentID != "" && p.PaymentIntent() == keys.PaymentIntentID) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memPayments) MarkCompleted(ctx context.Context, tx repository.Tx, id, paymentIntentID string, at time.Time) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.st.payments[id]
	if !ok || !p.Status.Completable() {
		return false, nil
	}
	if paymentIntentID != "" {
		for _, e := range r.m.st.payments {
			if e.ID != id && e.PaymentIntent() == paymentIntentID {
				return false, fmt.Errorf("%w: payments_provider_payment_intent_id_key", domain.ErrConflict)
			}
		}
		pi := paymentIntentID
		p.ProviderPaymentIntentID = &pi
	}
	p.Status = model.PaymentStatusCompleted
	done := at
	p.CompletedAt = &done
	p.UpdatedAt = at
	r.m.st.payments[id] = p
	r.m.Writes++
	return true, nil
}

func (r *memPayments) MarkFailed(ctx context.Context, tx repository.Tx, id string, paymentIntentID *string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.st.payments[id]
	if !ok || !p.Status.Completable() {
		return false, nil
	}
	if paymentIntentID != nil {
		pi := *paymentIntentID
		p.ProviderPaymentIntentID = &pi
	}
	p.Status = model.PaymentStatusFailed
	r.m.st.payments[id] = p
	r.m.Writes++
	return true, nil
}

func (r *memPayments) MarkRefunded(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.st.payments[id]
	if !ok || p.Status != model.PaymentStatusCompleted {
		return false, nil
	}
	p.Status = model.PaymentStatusRefunded
	r.m.st.payments[id] = p
	r.m.Writes++
	return true, nil
}

type memSubscriptions struct{ m *MemStore }

func (r *memSubscriptions) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.st.subs[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (r *memSubscriptions) FindByCustomerID(ctx context.Context, tx repository.Tx, customerID string) (*model.Subscription, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, s := range r.m.st.subs {
		if s.CustomerID() == customerID {
			cp := s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memSubscriptions) Upsert(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	next := *s
	if prev, ok := r.m.st.subs[s.UserID]; ok {
		next.ID = prev.ID
		next.CreatedAt = prev.CreatedAt
		if next.ProviderCustomerID == nil {
			next.ProviderCustomerID = prev.ProviderCustomerID
		}
	}
	next.Implicit = false
	r.m.st.subs[s.UserID] = next
	r.m.Writes++
	return nil
}

func (r *memSubscriptions) Downgrade(ctx context.Context, tx repository.Tx, userID string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.st.subs[userID]
	if !ok || (s.Plan == model.PlanFree && s.Status == model.SubscriptionStatusCanceled) {
		return false, nil
	}
	s.Plan = model.PlanFree
	s.Status = model.SubscriptionStatusCanceled
	r.m.st.subs[userID] = s
	r.m.Writes++
	return true, nil
}

type memCredits struct{ m *MemStore }

func (r *memCredits) Increment(ctx context.Context, tx repository.Tx, userID string, t model.CreditType, amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidArgument
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	b := r.m.st.balances[userID]
	b.UserID = userID
	b.Add(t, amount)
	r.m.st.balances[userID] = b
	r.m.Writes++
	return nil
}

func (r *memCredits) GetBalance(ctx context.Context, tx repository.Tx, userID string) (*model.CreditBalance, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	b, ok := r.m.st.balances[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

func (r *memCredits) AppendTransaction(ctx context.Context, tx repository.Tx, ct *model.CreditTransaction) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if ct.Reference != "" {
		for _, e := range r.m.st.creditTx {
			if e.Reference == ct.Reference && e.Action == ct.Action {
				return fmt.Errorf("%w: credit_transactions_reference_action_key", domain.ErrConflict)
			}
		}
	}
	r.m.st.creditTx = append(r.m.st.creditTx, *ct)
	r.m.Writes++
	return nil
}

func (r *memCredits) ListTransactions(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.CreditTransaction, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*model.CreditTransaction
	for i := len(r.m.st.creditTx) - 1; i >= 0 && len(out) < limit; i-- {
		if ct := r.m.st.creditTx[i]; ct.UserID == userID {
			out = append(out, &ct)
		}
	}
	return out, nil
}

type memListings struct{ m *MemStore }

func (r *memListings) Save(ctx context.Context, tx repository.Tx, l *model.LeadListing) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.st.listings[l.ID] = *l
	r.m.Writes++
	return nil
}

func (r *memListings) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.LeadListing, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	l, ok := r.m.st.listings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &l, nil
}

func (r *memListings) MarkSold(ctx context.Context, tx repository.Tx, id string, at time.Time) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	l, ok := r.m.st.listings[id]
	if !ok || l.Status != model.ListingStatusActive {
		return false, nil
	}
	l.Status = model.ListingStatusSold
	sold := at
	l.SoldAt = &sold
	r.m.st.listings[id] = l
	r.m.Writes++
	return true, nil
}

type memPurchases struct{ m *MemStore }

func (r *memPurchases) Create(ctx context.Context, tx repository.Tx, p *model.LeadPurchase) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, e := range r.m.st.purchases {
		if e.ID == p.ID || e.ProviderSessionID == p.ProviderSessionID {
			return fmt.Errorf("%w: lead_purchases_provider_session_id_key", domain.ErrConflict)
		}
	}
	r.m.st.purchases[p.ID] = *p
	r.m.Writes++
	return nil
}

func (r *memPurchases) FindBySessionID(ctx context.Context, tx repository.Tx, sessionID string) (*model.LeadPurchase, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, p := range r.m.st.purchases {
		if p.ProviderSessionID == sessionID {
			cp := p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memPurchases) FindPending(ctx context.Context, tx repository.Tx, listingID, buyerID string) (*model.LeadPurchase, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var best *model.LeadPurchase
	for _, p := range r.m.st.purchases {
		if p.ListingID != listingID || p.BuyerID != buyerID || p.Status != model.PurchaseStatusPending {
			continue
		}
		if best == nil || p.CreatedAt.After(best.CreatedAt) {
			cp := p
			best = &cp
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	return best, nil
}

func (r *memPurchases) ExistsCompleted(ctx context.Context, tx repository.Tx, keys model.NaturalKeys) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, p := range r.m.st.purchases {
		if p.Status != model.PurchaseStatusCompleted {
			continue
		}
		pi := ""
		if p.ProviderPaymentIntentID != nil {
			pi = *p.ProviderPaymentIntentID
		}
		if (keys.SessionID != "" && p.ProviderSessionID == keys.SessionID) ||
			(keys.PaymentIntentID != "" && pi == keys.PaymentIntentID) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memPurchases) HasCompletedForBuyer(ctx context.Context, tx repository.Tx, listingID, buyerID string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, p := range r.m.st.purchases {
		if p.ListingID == listingID && p.BuyerID == buyerID && p.Status == model.PurchaseStatusCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (r *memPurchases) MarkCompleted(ctx context.Context, tx repository.Tx, id, paymentIntentID string, at time.Time) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.st.purchases[id]
	if !ok || p.Status != model.PurchaseStatusPending {
		return false, nil
	}
	for _, e := range r.m.st.purchases {
		if e.ListingID == p.ListingID && e.Status == model.PurchaseStatusCompleted {
			return false, fmt.Errorf("%w: lead_purchases_one_completed_per_listing", domain.ErrConflict)
		}
	}
	p.Status = model.PurchaseStatusCompleted
	if paymentIntentID != "" {
		pi := paymentIntentID
		p.ProviderPaymentIntentID = &pi
	}
	done := at
	p.CompletedAt = &done
	r.m.st.purchases[id] = p
	r.m.Writes++
	return true, nil
}

type memNotifications struct{ m *MemStore }

func (r *memNotifications) Create(ctx context.Context, tx repository.Tx, n *model.Notification) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.NotificationErr != nil {
		return r.m.NotificationErr
	}
	r.m.st.notifications = append(r.m.st.notifications, *n)
	r.m.Writes++
	return nil
}

func (r *memNotifications) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.Notification, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*model.Notification
	for i := len(r.m.st.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		if n := r.m.st.notifications[i]; n.UserID == userID {
			out = append(out, &n)
		}
	}
	return out, nil
}

type memUsage struct{ m *MemStore }

func (r *memUsage) Count(ctx context.Context, tx repository.Tx, userID string, res model.Resource, since time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.st.usage[userID+"|"+string(res)], nil
}

type memUsers struct{ m *MemStore }

func (r *memUsers) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.st.users[u.ID] = *u
	r.m.Writes++
	return nil
}

func (r *memUsers) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.st.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

// =============================
// Adapters
// =============================

// MockGateway records checkout requests and hands out sequential session ids.
type MockGateway struct {
	mu       sync.Mutex
	Requests []adapter.CheckoutRequest
	sessions map[string]*adapter.CheckoutSession
	seq      int

	EnsureCustomerFunc func(ctx context.Context, existingID, userID, email string) (string, error)
	CreateErr          error
}

var _ adapter.CheckoutGateway = (*MockGateway)(nil)

func NewMockGateway() *MockGateway {
	return &MockGateway{sessions: map[string]*adapter.CheckoutSession{}}
}

func (g *MockGateway) Name() string { return "mock" }

func (g *MockGateway) EnsureCustomer(ctx context.Context, existingID, userID, email string) (string, error) {
	if g.EnsureCustomerFunc != nil {
		return g.EnsureCustomerFunc(ctx, existingID, userID, email)
	}
	if existingID != "" {
		return existingID, nil
	}
	return "cus_" + userID, nil
}

func (g *MockGateway) CreateCheckoutSession(ctx context.Context, req adapter.CheckoutRequest) (*adapter.CheckoutSession, error) {
	if g.CreateErr != nil {
		return nil, g.CreateErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Requests = append(g.Requests, req)
	g.seq++
	id := fmt.Sprintf("cs_test_%d", g.seq)
	s := &adapter.CheckoutSession{ID: id, URL: "https://checkout.example/" + id, Open: true, CustomerID: req.CustomerID}
	g.sessions[id] = s
	cp := *s
	return &cp, nil
}

func (g *MockGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*adapter.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

// CloseSession marks a session as no longer open.
func (g *MockGateway) CloseSession(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if s, ok := g.sessions[id]; ok {
		s.Open = false
	}
}

func (g *MockGateway) LastRequest() adapter.CheckoutRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Requests[len(g.Requests)-1]
}

// ---- helpers ----

func mustUser(id string) model.User {
	return model.User{ID: id, Email: strings.ToLower(id) + "@example.com", Name: id, CreatedAt: time.Now()}
}

func sortedNotificationTitles(ns []model.Notification) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.Title
	}
	sort.Strings(out)
	return out
}

var errForced = errors.New("forced failure")
