package test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Feel-The-AGI/workstream-server/internal/domain/model"
	"github.com/Feel-The-AGI/workstream-server/internal/events"
)

// ProviderGatewayStub simulates the payment provider gateway.
type ProviderGatewayStub struct {
	OpenFn   func(context.Context, model.CheckoutRequest) (*model.ProviderHandoff, error)
	VerifyFn func(context.Context, string) (*model.VerifiedTransaction, error)

	mu       sync.Mutex
	Opens    []model.CheckoutRequest
	Verifies []string
}

// Open records the checkout request and returns configured or default handoff.
func (s *ProviderGatewayStub) Open(ctx context.Context, req model.CheckoutRequest) (*model.ProviderHandoff, error) {
	s.mu.Lock()
	s.Opens = append(s.Opens, req)
	s.mu.Unlock()
	if s.OpenFn != nil {
		return s.OpenFn(ctx, req)
	}
	return &model.ProviderHandoff{
		AuthorizationURL:  "https://checkout.test/" + req.Reference,
		AccessCode:        "access-" + req.Reference,
		ProviderReference: "prov-" + req.Reference,
	}, nil
}

// Verify records the reference and returns configured or successful state.
func (s *ProviderGatewayStub) Verify(ctx context.Context, reference string) (*model.VerifiedTransaction, error) {
	s.mu.Lock()
	s.Verifies = append(s.Verifies, reference)
	s.mu.Unlock()
	if s.VerifyFn != nil {
		return s.VerifyFn(ctx, reference)
	}
	return &model.VerifiedTransaction{Reference: reference, Status: model.TransactionStatusSuccess, Channel: "card"}, nil
}

// OpenCount returns how many checkouts were opened.
func (s *ProviderGatewayStub) OpenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Opens)
}

// PublisherStub records published events.
type PublisherStub struct {
	mu     sync.Mutex
	Events []events.Event
}

// Publish stores the event.
func (s *PublisherStub) Publish(evt events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, evt)
}

// Names returns the names of published events in order.
func (s *PublisherStub) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.Events))
	for _, evt := range s.Events {
		names = append(names, evt.Name())
	}
	return names
}

var _ events.Publisher = (*PublisherStub)(nil)

// ReconcilerFacadeStub mimics reconciliation worker interactions with the facade.
type ReconcilerFacadeStub struct {
	Batches     [][]model.Payment
	PendingFn   func(context.Context, time.Time, int) ([]model.Payment, error)
	ReconcileFn func(context.Context, model.Payment) error
	Reconciled  []string

	mu               sync.Mutex
	pendingCallCount int32
}

// Lock exposes internal mutex for external synchronization.
func (s *ReconcilerFacadeStub) Lock() { s.mu.Lock() }

// Unlock releases previously acquired lock.
func (s *ReconcilerFacadeStub) Unlock() { s.mu.Unlock() }

// PendingPayments returns batches from the configured queue.
func (s *ReconcilerFacadeStub) PendingPayments(ctx context.Context, cutoff time.Time, limit int) ([]model.Payment, error) {
	if s.PendingFn != nil {
		return s.PendingFn(ctx, cutoff, limit)
	}
	call := atomic.AddInt32(&s.pendingCallCount, 1)
	if int(call) <= len(s.Batches) {
		return s.Batches[call-1], nil
	}
	time.Sleep(10 * time.Millisecond)
	return nil, nil
}

// ReconcilePayment records reconciled references.
func (s *ReconcilerFacadeStub) ReconcilePayment(ctx context.Context, payment model.Payment) error {
	if s.ReconcileFn != nil {
		return s.ReconcileFn(ctx, payment)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reconciled = append(s.Reconciled, payment.Reference)
	return nil
}

// MaintenanceFacadeStub mimics housekeeping interactions with the facade.
type MaintenanceFacadeStub struct {
	ExpireFn func(context.Context, time.Time, int) (int, error)
	PurgeFn  func(context.Context, time.Time) (int64, error)

	mu      sync.Mutex
	Expired int
	Purged  int64
}

// ExpireStaleDrafts delegates or counts a default single cancellation.
func (s *MaintenanceFacadeStub) ExpireStaleDrafts(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	if s.ExpireFn != nil {
		return s.ExpireFn(ctx, cutoff, limit)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Expired++
	return 1, nil
}

// PurgeOrphanPayments delegates or counts a default single purge.
func (s *MaintenanceFacadeStub) PurgeOrphanPayments(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.PurgeFn != nil {
		return s.PurgeFn(ctx, cutoff)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Purged++
	return 1, nil
}
