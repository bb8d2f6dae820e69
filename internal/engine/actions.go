// SPDX-License-Identifier: MIT

package engine

import (
	"context"
)

// Context keys written by the built-in actions.
const (
	ctxKeyForecast        = "forecast"
	ctxKeyMissingLocation = "missingLocation"
)

// sendAction emits the resolver's message as the terminal reply. When an
// earlier step of the turn stored a forecast result, that result wins over
// the resolver text.
type sendAction struct{}

func (sendAction) Name() string { return "send" }

func (sendAction) Apply(_ context.Context, tc *TurnContext) (Outcome, error) {
	if forecast, ok := tc.Context[ctxKeyForecast].(string); ok && forecast != "" {
		return Terminal(forecast), nil
	}
	return Terminal(tc.Step.Message), nil
}

// forecastAction resolves the "location" entity into a forecast slot, or
// flags the location as missing so the resolver can ask for it next turn.
type forecastAction struct {
	lookup func(location string) string
}

func (forecastAction) Name() string { return "getForecast" }

func (a forecastAction) Apply(_ context.Context, tc *TurnContext) (Outcome, error) {
	location := FirstEntityValue(tc.Step.Entities, "location")
	if location == "" {
		tc.Context[ctxKeyMissingLocation] = true
		delete(tc.Context, ctxKeyForecast)
		return Continue(), nil
	}
	tc.Context[ctxKeyForecast] = a.lookup(location)
	delete(tc.Context, ctxKeyMissingLocation)
	return Continue(), nil
}

// defaultForecast stands in for a real weather API.
func defaultForecast(location string) string {
	return "sunny in " + location
}

// DefaultRegistry returns a registry with the built-in action set.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(sendAction{})
	r.Register(forecastAction{lookup: defaultForecast})
	return r
}
