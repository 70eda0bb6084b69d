package events

import (
	"log/slog"

	"go.uber.org/fx"
)

// Module wires the event bus and its built-in subscribers.
var Module = fx.Options(
	fx.Provide(newBus),
	fx.Provide(func(b *Bus) Publisher { return b }),
)

type busParams struct {
	fx.In

	Logger *slog.Logger
}

func newBus(p busParams) *Bus {
	subs := []Subscriber{NewNotificationLogger(p.Logger)}
	return NewBus(0, subs, p.Logger)
}
