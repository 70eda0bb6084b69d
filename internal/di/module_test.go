package di

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"go.uber.org/fx"

	"github.com/Feel-The-AGI/workstream-server/internal/adapter/provider"
	"github.com/Feel-The-AGI/workstream-server/internal/app"
	"github.com/Feel-The-AGI/workstream-server/internal/config"
	"github.com/Feel-The-AGI/workstream-server/internal/domain/repository"
	"github.com/Feel-The-AGI/workstream-server/internal/storage/postgres"
	"github.com/Feel-The-AGI/workstream-server/internal/test"
)

func TestModuleComposesGraphWithReplacements(t *testing.T) {
	cfg := &config.Config{
		RunAddress:          ":0",
		DatabaseURI:         "postgres://stub",
		ProviderAddress:     "http://localhost",
		ProviderSecret:      "sk_test",
		ProviderTimeout:     time.Second,
		TokenSecret:         "secret",
		PaymentPollInterval: time.Millisecond,
		PaymentGracePeriod:  time.Millisecond,
		WorkerPoolSize:      1,
		MaxPaymentsBatch:    1,
		DraftTTL:            time.Hour,
		OrphanPaymentTTL:    time.Hour,
		MaintenanceSpec:     "@every 10m",
		ShutdownTimeout:     time.Millisecond,
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	userRepo := test.NewUserRepositoryStub()
	programRepo := test.NewProgramRepositoryStub()
	applicationRepo := test.NewApplicationRepositoryStub()
	paymentRepo := test.NewPaymentRepositoryStub()
	gateway := &test.ProviderGatewayStub{}

	var facade *app.MarketplaceFacade
	fxApp := fx.New(
		fx.NopLogger,
		fx.Supply(context.Background()),
		Module(
			fx.Replace(cfg),
			fx.Replace(logger),
			fx.Replace(&postgres.Storage{}),
			fx.Replace(repository.UserRepository(userRepo)),
			fx.Replace(repository.ProgramRepository(programRepo)),
			fx.Replace(repository.ApplicationRepository(applicationRepo)),
			fx.Replace(repository.PaymentRepository(paymentRepo)),
			fx.Replace(provider.Client(gateway)),
		),
		fx.Populate(&facade),
	)

	if err := fxApp.Err(); err != nil {
		t.Fatalf("fx app returned error: %v", err)
	}
	t.Cleanup(func() { _ = fxApp.Stop(context.Background()) })
	if facade == nil {
		t.Fatal("expected marketplace facade instance")
	}
}
