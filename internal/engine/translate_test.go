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
	"testing"

	"thermozone/internal/control"
	"thermozone/internal/rules"
	"thermozone/internal/zone"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func translationEngine() *Engine {
	return New(zone.NewManager(), rules.NewEngine(), nil, nil, nil, nil, nil, nil, nil, nil, nil)
}

func translationZone() *zone.ZoneState {
	z := zone.NewZoneState("living", "living")
	z.Metrics[zone.MetricTargetTemperature] = 21.5
	z.Devices["thermo"] = &zone.DeviceState{
		ID:           "thermo",
		Type:         "thermostat",
		Capabilities: []string{"supports_temperature"},
	}
	return z
}

func TestTranslateReply(t *testing.T) {
	e := translationEngine()
	z := translationZone()

	tests := []struct {
		name     string
		reply    string
		wantType control.ActionType
		isNil    bool
	}{
		{
			name:     "negation beats heating keyword",
			reply:    "You should turn off the heater for now.",
			wantType: control.ActionTurnOff,
		},
		{
			name:     "stop heating is a negation",
			reply:    "Stop heating, the zone is warm enough.",
			wantType: control.ActionTurnOff,
		},
		{
			name:     "heating recommendation sets target",
			reply:    "Increase the heat slightly to reach comfort.",
			wantType: control.ActionSetTemperature,
		},
		{
			name:     "warming phrasing sets target",
			reply:    "The room could use some warmth.",
			wantType: control.ActionSetTemperature,
		},
		{
			name:     "cooling recommendation sets target",
			reply:    "Lower the temperature a little.",
			wantType: control.ActionSetTemperature,
		},
		{
			name:     "turn on maps to device start",
			reply:    "Turn on the fan.",
			wantType: control.ActionTurnOn,
		},
		{
			name:  "unrecognized reply translates to nothing",
			reply: "Everything looks comfortable right now.",
			isNil: true,
		},
		{
			name:  "empty reply translates to nothing",
			reply: "",
			isNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := e.translateReply(z, tt.reply)
			if tt.isNil {
				assert.Nil(t, a)
				return
			}
			require.NotNil(t, a)
			assert.Equal(t, tt.wantType, a.Type)
			assert.Equal(t, control.TriggerLLM, a.Trigger)
			assert.Equal(t, "living", a.ZoneID)
			assert.NotEmpty(t, a.Reason, "reply text carried as reasoning")
		})
	}
}

func TestTranslateReplySetpointUsesZoneTarget(t *testing.T) {
	e := translationEngine()
	z := translationZone()

	a := e.translateReply(z, "please warm this room up")
	require.NotNil(t, a)
	assert.Equal(t, 21.5, a.Params["temperature_c"])
	assert.Equal(t, "thermo", a.DeviceID)
}
