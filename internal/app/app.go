package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Feel-The-AGI/workstream-server/internal/config"
	"github.com/Feel-The-AGI/workstream-server/internal/events"
	"github.com/Feel-The-AGI/workstream-server/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		NewMarketplaceFacade,
		NewOwnerAuthorizer,
		func(a *OwnerAuthorizer) Authorizer { return a },
		newHTTPServer,
		newPaymentReconciler,
		newMaintenance,
		newRedisClient,
	),
	fx.Invoke(registerLifecycle),
)

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: p.Router,
	}
}

type workerParams struct {
	fx.In

	Facade *MarketplaceFacade
	Config *config.Config
	Logger *slog.Logger
}

func newPaymentReconciler(p workerParams) *worker.PaymentReconciler {
	return worker.NewPaymentReconciler(
		p.Facade,
		p.Config.PaymentPollInterval,
		p.Config.PaymentGracePeriod,
		p.Config.MaxPaymentsBatch,
		p.Config.WorkerPoolSize,
		p.Logger,
	)
}

func newMaintenance(p workerParams) (*worker.Maintenance, error) {
	return worker.NewMaintenance(
		p.Facade,
		p.Config.MaintenanceSpec,
		p.Config.DraftTTL,
		p.Config.OrphanPaymentTTL,
		p.Logger,
	)
}

// newRedisClient returns nil when no redis address is configured; the rate
// limiting middleware treats a nil client as disabled.
func newRedisClient(cfg *config.Config) *redis.Client {
	if cfg.RedisAddress == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Reconciler *worker.PaymentReconciler
	Sweeper    *worker.Maintenance
	Bus        *events.Bus
	Redis      *redis.Client
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting workstream", slog.String("addr", p.Server.Addr))
			p.Bus.Start()
			p.Reconciler.Start(ctx)
			p.Sweeper.Start()
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Sweeper.Stop()
			p.Reconciler.Stop()

			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Bus.Stop()
			if p.Redis != nil {
				_ = p.Redis.Close()
			}
			p.Logger.Info("workstream stopped")
			return nil
		},
	})
}
