/*
 * Copyright (c) 2025. Anton Starikov -- All Rights Reserved
 *
 * This file is part of THERMOZONE project.
 *
 * THERMOZONE is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as the Free Software Foundation,
 * either version 3 of the License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package engine

import (
	"context"
	"fmt"
	"strings"

	"thermozone/internal/control"
	"thermozone/internal/llm"
	"thermozone/internal/metrics"
	"thermozone/internal/zone"
)

const freeformSystemPrompt = `You are a home climate assistant. Given a zone's current state, reply in one
short sentence with a recommendation, e.g. "increase heating", "turn off the
heater", "no change needed".`

// consultFreeform asks the LLM for a free-text recommendation about a zone
// the rules had no answer for, then translates the reply into an executable
// action. A nil return means no recognizable recommendation.
func (e *Engine) consultFreeform(ctx context.Context, z *zone.ZoneState) *control.Action {
	if e.chat == nil {
		return nil
	}

	content, err := e.chat.Chat(ctx, []llm.Message{
		{Role: "system", Content: freeformSystemPrompt},
		{Role: "user", Content: describeZone(z)},
	})
	if err != nil {
		metrics.AdvisorFallbacks.Inc()
		e.log.Warnf("Freeform consult failed for zone %s: %v", z.ID, err)
		return nil
	}
	metrics.AdvisorConsults.Inc()

	action := e.translateReply(z, content)
	if action == nil {
		e.log.Debugf("No actionable recommendation for zone %s: %q", z.ID, content)
	}
	return action
}

func describeZone(z *zone.ZoneState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Zone %s (%s).\n", z.Name, z.ID)
	if z.Temperature != nil {
		fmt.Fprintf(&b, "Temperature: %.1f°C (target %.1f°C).\n", *z.Temperature, z.TargetTemperature())
	}
	if z.Humidity != nil {
		fmt.Fprintf(&b, "Humidity: %.0f%% (target %.0f%%).\n", *z.Humidity, z.TargetHumidity())
	}
	fmt.Fprintf(&b, "Occupied: %v.\n", z.Occupied)
	for reason := range z.Attention {
		fmt.Fprintf(&b, "Flagged: %s.\n", reason)
	}
	return b.String()
}

// translationRule pairs a reply predicate with an action builder. The table
// is ordered: negations come first, so "turn off the heater" never matches a
// heating keyword downstream.
type translationRule struct {
	match func(reply string) bool
	build func(z *zone.ZoneState) *control.Action
}

func (e *Engine) translationRules() []translationRule {
	anyOf := func(words ...string) func(string) bool {
		return func(reply string) bool {
			for _, w := range words {
				if strings.Contains(reply, w) {
					return true
				}
			}
			return false
		}
	}

	return []translationRule{
		{
			match: anyOf("turn off", "stop heating", "stop cooling", "shut off"),
			build: func(z *zone.ZoneState) *control.Action {
				dev := e.rules.SelectDevice(z, nil)
				devID := ""
				if dev != nil {
					devID = dev.ID
				}
				return &control.Action{
					ZoneID:   z.ID,
					DeviceID: devID,
					Type:     control.ActionTurnOff,
					Trigger:  control.TriggerLLM,
				}
			},
		},
		{
			match: anyOf("heat", "warm", "increase temperature", "raise"),
			build: func(z *zone.ZoneState) *control.Action {
				return e.setpointAction(z, z.TargetTemperature())
			},
		},
		{
			match: anyOf("cool", "lower", "decrease temperature", "reduce"),
			build: func(z *zone.ZoneState) *control.Action {
				return e.setpointAction(z, z.TargetTemperature())
			},
		},
		{
			match: anyOf("turn on", "start"),
			build: func(z *zone.ZoneState) *control.Action {
				dev := e.rules.SelectDevice(z, nil)
				devID := ""
				if dev != nil {
					devID = dev.ID
				}
				return &control.Action{
					ZoneID:   z.ID,
					DeviceID: devID,
					Type:     control.ActionTurnOn,
					Trigger:  control.TriggerLLM,
				}
			},
		},
	}
}

// translateReply walks the ordered rule table and builds the first match.
// Unrecognized replies translate to nothing, never to a guessed action.
func (e *Engine) translateReply(z *zone.ZoneState, reply string) *control.Action {
	lowered := strings.ToLower(reply)
	for _, rule := range e.translationRules() {
		if rule.match(lowered) {
			a := rule.build(z)
			if a != nil && a.Reason == "" {
				a.Reason = strings.TrimSpace(reply)
			}
			return a
		}
	}
	return nil
}

func (e *Engine) setpointAction(z *zone.ZoneState, target float64) *control.Action {
	dev := e.rules.SelectDevice(z, nil)
	devID := ""
	if dev != nil {
		devID = dev.ID
	}
	return &control.Action{
		ZoneID:   z.ID,
		DeviceID: devID,
		Type:     control.ActionSetTemperature,
		Trigger:  control.TriggerLLM,
		Params:   map[string]float64{"temperature_c": target},
	}
}
