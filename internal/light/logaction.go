package light

import (
	"context"

	"github.com/rs/zerolog/log"
)

// LogAction is a dry-run backend that only logs the parameters it receives.
type LogAction struct{}

// TurnOn logs params and always succeeds.
func (LogAction) TurnOn(ctx context.Context, params map[string]any) error {
	log.Info().Fields(params).Msg("light.turn_on (dry run)")
	return nil
}
