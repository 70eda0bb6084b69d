package provider

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/Feel-The-AGI/workstream-server/internal/config"
)

// Module exposes the payment provider client and webhook verifier to the fx
// graph.
var Module = fx.Options(
	fx.Provide(newClient),
	fx.Provide(newWebhookVerifier),
)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) (Client, error) {
	return NewHTTPClient(p.Config.ProviderAddress, p.Config.ProviderSecret, p.Config.ProviderTimeout, p.Logger)
}

func newWebhookVerifier(p clientParams) *WebhookVerifier {
	return NewWebhookVerifier(p.Config.ProviderSecret)
}
