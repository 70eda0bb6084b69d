package usecase

import (
	"go.uber.org/fx"

	"github.com/Feel-The-AGI/workstream-server/internal/adapter/provider"
)

// Module wires the use case layer.
var Module = fx.Options(
	fx.Provide(
		NewAuthUseCase,
		NewSlotAllocator,
		NewProgramUseCase,
		NewApplicationUseCase,
		NewPaymentUseCase,
	),
	fx.Provide(func(c provider.Client) ProviderGateway { return c }),
)
