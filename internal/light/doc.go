// Package light provides the backends that carry out a light turn-on action.
//
// Every backend has a TurnOn(ctx, params) method that blocks until the action
// has been delivered:
//   - HomeAssistant posts the parameters to a Home Assistant light.turn_on service
//   - Hub broadcasts them to controllers connected over a WebSocket
//   - LogAction logs them and does nothing else
//
// Parameters are passed through as given; rgb_color is an [r, g, b] array and
// brightness a number.
package light
