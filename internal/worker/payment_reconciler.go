package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Feel-The-AGI/workstream-server/internal/adapter/provider"
	"github.com/Feel-The-AGI/workstream-server/internal/domain/model"
)

// ReconcilerFacade exposes the subset of application functionality required
// by the reconciliation worker.
type ReconcilerFacade interface {
	PendingPayments(ctx context.Context, cutoff time.Time, limit int) ([]model.Payment, error)
	ReconcilePayment(ctx context.Context, payment model.Payment) error
}

// PaymentReconciler is the safety net behind the verify and webhook channels:
// it periodically claims PENDING payments whose provider state has not been
// heard from within the grace period and re-verifies them concurrently.
type PaymentReconciler struct {
	facade       ReconcilerFacade
	pollInterval time.Duration
	gracePeriod  time.Duration
	batchSize    int
	workers      int
	logger       *slog.Logger

	jobs   chan model.Payment
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewPaymentReconciler constructs the reconciliation worker pool.
func NewPaymentReconciler(facade ReconcilerFacade, pollInterval, gracePeriod time.Duration, batchSize, workers int, logger *slog.Logger) *PaymentReconciler {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &PaymentReconciler{
		facade:       facade,
		pollInterval: pollInterval,
		gracePeriod:  gracePeriod,
		batchSize:    batchSize,
		workers:      workers,
		logger:       logger,
		jobs:         make(chan model.Payment, batchSize*workers),
	}
}

// Start launches background processing.
func (p *PaymentReconciler) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(runCtx)
	}

	p.wg.Add(1)
	go p.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (p *PaymentReconciler) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *PaymentReconciler) dispatch(ctx context.Context) {
	defer p.wg.Done()
	defer close(p.jobs)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetchAndDispatch(ctx)
		}
	}
}

func (p *PaymentReconciler) fetchAndDispatch(ctx context.Context) {
	cutoff := time.Now().Add(-p.gracePeriod)
	payments, err := p.facade.PendingPayments(ctx, cutoff, p.batchSize)
	if err != nil {
		p.logger.Error("fetch pending payments failed", slog.String("error", err.Error()))
		return
	}
	for _, payment := range payments {
		select {
		case <-ctx.Done():
			return
		case p.jobs <- payment:
		}
	}
}

func (p *PaymentReconciler) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case payment, ok := <-p.jobs:
			if !ok {
				return
			}
			p.handlePayment(ctx, payment)
		}
	}
}

func (p *PaymentReconciler) handlePayment(ctx context.Context, payment model.Payment) {
	err := p.facade.ReconcilePayment(ctx, payment)
	if err == nil {
		return
	}

	var tooMany provider.TooManyRequestsError
	switch {
	case errors.As(err, &tooMany):
		p.logger.Warn("provider rate limited", slog.Duration("retry_after", tooMany.RetryAfter))
		time.Sleep(tooMany.RetryAfter)
	case errors.Is(err, provider.ErrTransactionNotFound):
		// The provider has not seen the transaction yet; the next sweep
		// picks the payment up again.
	default:
		p.logger.Error("payment reconciliation failed",
			slog.Int64("payment_id", payment.ID),
			slog.String("error", err.Error()),
		)
	}
}
