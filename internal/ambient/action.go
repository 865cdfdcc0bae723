package ambient

import "context"

// LightAction turns on a light with the given parameters. Implementations
// must not return before the action has completed.
type LightAction interface {
	TurnOn(ctx context.Context, params map[string]any) error
}

// LightActionFunc adapts a function to LightAction.
type LightActionFunc func(ctx context.Context, params map[string]any) error

// TurnOn calls f(ctx, params).
func (f LightActionFunc) TurnOn(ctx context.Context, params map[string]any) error {
	return f(ctx, params)
}
