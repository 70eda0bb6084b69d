package worker

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Feel-The-AGI/workstream-server/internal/adapter/provider"
	"github.com/Feel-The-AGI/workstream-server/internal/domain/model"
	testhelpers "github.com/Feel-The-AGI/workstream-server/internal/test"
)

func TestNewPaymentReconcilerDefaults(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	rec := NewPaymentReconciler(&testhelpers.ReconcilerFacadeStub{}, time.Second, time.Minute, 0, 0, logger)
	if rec.batchSize != 1 {
		t.Fatalf("expected batch size default to 1, got %d", rec.batchSize)
	}
	if rec.workers != 1 {
		t.Fatalf("expected workers default to 1, got %d", rec.workers)
	}
}

func TestPaymentReconcilerReconcilesPendingPayments(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	facade := &testhelpers.ReconcilerFacadeStub{Batches: [][]model.Payment{{{ID: 1, Reference: "ws-1", Status: model.PaymentStatusPending}}}}
	rec := NewPaymentReconciler(facade, 10*time.Millisecond, 0, 1, 1, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec.Start(ctx)

	deadline := time.After(500 * time.Millisecond)
	for {
		facade.Lock()
		reconciled := len(facade.Reconciled) > 0
		facade.Unlock()
		if reconciled {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timeout waiting for reconciliation")
		case <-time.After(10 * time.Millisecond):
		}
	}

	rec.Stop()
	facade.Lock()
	defer facade.Unlock()
	if facade.Reconciled[0] != "ws-1" {
		t.Fatalf("expected ws-1 to be reconciled, got %v", facade.Reconciled)
	}
}

func TestPaymentReconcilerBacksOffOnRateLimit(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	attempts := int32(0)
	done := make(chan struct{})
	facade := &testhelpers.ReconcilerFacadeStub{
		Batches: [][]model.Payment{
			{{ID: 1, Reference: "ws-1", Status: model.PaymentStatusPending}},
			{{ID: 1, Reference: "ws-1", Status: model.PaymentStatusPending}},
		},
		ReconcileFn: func(ctx context.Context, payment model.Payment) error {
			if atomic.AddInt32(&attempts, 1) == 1 {
				return provider.TooManyRequestsError{RetryAfter: 10 * time.Millisecond}
			}
			close(done)
			return nil
		},
	}

	rec := NewPaymentReconciler(facade, 5*time.Millisecond, 0, 1, 1, logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec.Start(ctx)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for retry after rate limit")
	}
	rec.Stop()
}

func TestPaymentReconcilerSkipsUnknownTransactions(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	attempts := int32(0)
	facade := &testhelpers.ReconcilerFacadeStub{
		Batches: [][]model.Payment{
			{{ID: 1, Reference: "ws-1", Status: model.PaymentStatusPending}},
			{{ID: 2, Reference: "ws-2", Status: model.PaymentStatusPending}},
		},
		ReconcileFn: func(ctx context.Context, payment model.Payment) error {
			atomic.AddInt32(&attempts, 1)
			return provider.ErrTransactionNotFound
		},
	}

	rec := NewPaymentReconciler(facade, 5*time.Millisecond, 0, 1, 1, logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec.Start(ctx)

	deadline := time.After(time.Second)
	for atomic.LoadInt32(&attempts) < 2 {
		select {
		case <-deadline:
			t.Fatal("timeout waiting for both payments to be attempted")
		case <-time.After(10 * time.Millisecond):
		}
	}
	rec.Stop()
}
