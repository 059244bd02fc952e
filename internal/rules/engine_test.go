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

package rules

import (
	"testing"
	"time"

	"thermozone/internal/config"
	"thermozone/internal/control"
	"thermozone/internal/zone"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine(now time.Time) *Engine {
	e := NewEngine()
	e.now = func() time.Time { return now }
	return e
}

func testZone(temp, hum *float64) *zone.ZoneState {
	z := zone.NewZoneState("living", "living")
	z.Temperature = temp
	z.Humidity = hum
	z.Devices["thermo"] = &zone.DeviceState{
		ID:           "thermo",
		Type:         "thermostat",
		Capabilities: []string{"supports_temperature"},
	}
	return z
}

func TestCheckComfortBandTemperature(t *testing.T) {
	e := testEngine(time.Now())

	tests := []struct {
		name   string
		temp   float64
		wantC  float64
		isNil  bool
	}{
		{name: "below band heats to low boundary", temp: 19.5, wantC: 20.0},
		{name: "above band cools to high boundary", temp: 22.5, wantC: 22.0},
		{name: "inside band does nothing", temp: 21.4, isNil: true},
		{name: "exactly on boundary does nothing", temp: 20.0, isNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z := testZone(&tt.temp, nil)
			a := e.CheckComfortBand(z, Reading{Temperature: &tt.temp, At: time.Now()})
			if tt.isNil {
				assert.Nil(t, a)
				return
			}
			require.NotNil(t, a)
			assert.Equal(t, control.ActionSetTemperature, a.Type)
			assert.Equal(t, control.TriggerRuleEngine, a.Trigger)
			assert.Equal(t, tt.wantC, a.Params["temperature_c"])
		})
	}
}

func TestCheckComfortBandOverrides(t *testing.T) {
	e := testEngine(time.Now())
	temp := 19.5
	z := testZone(&temp, nil)
	z.Metrics[zone.MetricComfortMin] = 19.0
	z.Metrics[zone.MetricComfortMax] = 24.0

	// 19.5 is inside the widened band
	assert.Nil(t, e.CheckComfortBand(z, Reading{Temperature: &temp}))

	temp = 18.5
	a := e.CheckComfortBand(z, Reading{Temperature: &temp})
	require.NotNil(t, a)
	assert.Equal(t, 19.0, a.Params["temperature_c"])
}

func TestCheckComfortBandTemperaturePrecedence(t *testing.T) {
	e := testEngine(time.Now())
	temp, hum := 19.0, 60.0
	z := testZone(&temp, &hum)
	z.Devices["dehum"] = &zone.DeviceState{ID: "dehum", Type: "dehumidifier"}

	a := e.CheckComfortBand(z, Reading{Temperature: &temp, Humidity: &hum})
	require.NotNil(t, a)
	assert.Equal(t, control.ActionSetTemperature, a.Type, "temperature must win over humidity")
}

func TestCheckComfortBandHumidity(t *testing.T) {
	e := testEngine(time.Now())
	temp, hum := 21.0, 55.0
	z := testZone(&temp, &hum)
	z.Devices["dehum"] = &zone.DeviceState{ID: "dehum", Type: "dehumidifier"}
	z.Devices["hum"] = &zone.DeviceState{ID: "hum", Type: "humidifier"}

	a := e.CheckComfortBand(z, Reading{Temperature: &temp, Humidity: &hum})
	require.NotNil(t, a)
	assert.Equal(t, control.ActionTurnOn, a.Type)
	assert.Equal(t, "dehum", a.DeviceID)

	hum = 35.0
	a = e.CheckComfortBand(z, Reading{Temperature: &temp, Humidity: &hum})
	require.NotNil(t, a)
	assert.Equal(t, "hum", a.DeviceID)

	// deviation below threshold
	hum = 50.0
	assert.Nil(t, e.CheckComfortBand(z, Reading{Temperature: &temp, Humidity: &hum}))
}

func TestCheckComfortBandHumidityNoDevice(t *testing.T) {
	e := testEngine(time.Now())
	temp, hum := 21.0, 60.0
	z := testZone(&temp, &hum)

	// only a thermostat: no humidity device type to act through
	assert.Nil(t, e.CheckComfortBand(z, Reading{Temperature: &temp, Humidity: &hum}))
}

func TestCheckOccupancyTransition(t *testing.T) {
	now := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	e := testEngine(now)

	t.Run("vacated applies setback", func(t *testing.T) {
		temp := 21.0
		z := testZone(&temp, nil)
		z.OccupancyChangedAt = now.Add(-10 * time.Minute)

		a := e.CheckOccupancyTransition(z, false)
		require.NotNil(t, a)
		assert.Equal(t, 19.0, a.Params["temperature_c"])
		assert.Equal(t, control.TriggerFollowMe, a.Trigger)
	})

	t.Run("debounced inside five minutes", func(t *testing.T) {
		temp := 18.0
		z := testZone(&temp, nil)
		z.OccupancyChangedAt = now.Add(-2 * time.Minute)

		assert.Nil(t, e.CheckOccupancyTransition(z, true))
	})

	t.Run("sub-half-degree move dropped", func(t *testing.T) {
		temp := 20.8
		z := testZone(&temp, nil)
		z.OccupancyChangedAt = now.Add(-10 * time.Minute)

		assert.Nil(t, e.CheckOccupancyTransition(z, true))
	})

	t.Run("occupied targets full temperature", func(t *testing.T) {
		temp := 19.0
		z := testZone(&temp, nil)
		z.OccupancyChangedAt = now.Add(-10 * time.Minute)

		a := e.CheckOccupancyTransition(z, true)
		require.NotNil(t, a)
		assert.Equal(t, 21.0, a.Params["temperature_c"])
	})
}

func TestCheckSafetyConstraints(t *testing.T) {
	now := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	e := testEngine(now)

	dev := &zone.DeviceState{
		ID:      "thermo",
		MinTemp: config.GetPTR(10.0),
		MaxTemp: config.GetPTR(30.0),
	}
	action := func(temp float64) *control.Action {
		return &control.Action{Type: control.ActionSetTemperature, Params: map[string]float64{"temperature_c": temp}}
	}

	assert.NoError(t, e.CheckSafetyConstraints(dev, action(22)))
	assert.Error(t, e.CheckSafetyConstraints(dev, action(8)))
	assert.Error(t, e.CheckSafetyConstraints(dev, action(35)))

	t.Run("duty cycle", func(t *testing.T) {
		dev := &zone.DeviceState{
			ID:         "heater",
			MinOffTime: 10 * time.Minute,
			LastRun:    now.Add(-5 * time.Minute),
		}
		assert.Error(t, e.CheckSafetyConstraints(dev, &control.Action{Type: control.ActionTurnOn}))

		dev.LastRun = now.Add(-15 * time.Minute)
		assert.NoError(t, e.CheckSafetyConstraints(dev, &control.Action{Type: control.ActionTurnOn}))

		// never ran: no anchor, no restriction
		dev.LastRun = time.Time{}
		assert.NoError(t, e.CheckSafetyConstraints(dev, &control.Action{Type: control.ActionTurnOn}))
	})
}

func TestSelectDevice(t *testing.T) {
	e := testEngine(time.Now())
	z := zone.NewZoneState("living", "living")
	z.Devices["b-vent"] = &zone.DeviceState{ID: "b-vent", Type: "vent"}
	z.Devices["c-thermo"] = &zone.DeviceState{ID: "c-thermo", Type: "thermostat", Capabilities: []string{"supports_temperature"}}
	z.Devices["a-hum"] = &zone.DeviceState{ID: "a-hum", Type: "humidifier"}

	assert.Equal(t, "a-hum", e.SelectDevice(z, []string{"humidifier"}).ID)
	assert.Equal(t, "c-thermo", e.SelectDevice(z, nil).ID, "temperature capability preferred")
	assert.Equal(t, "c-thermo", e.SelectDevice(z, []string{"boiler"}).ID, "unmatched preference falls through")

	empty := zone.NewZoneState("attic", "attic")
	assert.Nil(t, e.SelectDevice(empty, nil))

	noTempSupport := zone.NewZoneState("hall", "hall")
	noTempSupport.Devices["z-vent"] = &zone.DeviceState{ID: "z-vent", Type: "vent"}
	noTempSupport.Devices["a-vent"] = &zone.DeviceState{ID: "a-vent", Type: "vent"}
	assert.Equal(t, "a-vent", e.SelectDevice(noTempSupport, nil).ID, "falls back to first by id")
}
