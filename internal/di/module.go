package di

import (
	"go.uber.org/fx"

	"github.com/Feel-The-AGI/workstream-server/internal/adapter/provider"
	"github.com/Feel-The-AGI/workstream-server/internal/app"
	"github.com/Feel-The-AGI/workstream-server/internal/config"
	"github.com/Feel-The-AGI/workstream-server/internal/events"
	"github.com/Feel-The-AGI/workstream-server/internal/logger"
	"github.com/Feel-The-AGI/workstream-server/internal/pkg/auth"
	"github.com/Feel-The-AGI/workstream-server/internal/server/http/handlers"
	"github.com/Feel-The-AGI/workstream-server/internal/server/http/router"
	"github.com/Feel-The-AGI/workstream-server/internal/storage/postgres"
	"github.com/Feel-The-AGI/workstream-server/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		postgres.Module,
		provider.Module,
		events.Module,
		usecase.Module,
		fx.Provide(func(f *app.MarketplaceFacade) handlers.MarketplaceFacade { return f }),
		fx.Provide(func(v *provider.WebhookVerifier) handlers.SignatureVerifier { return v }),
		fx.Provide(func(s *postgres.Storage) handlers.HealthChecker { return s }),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
