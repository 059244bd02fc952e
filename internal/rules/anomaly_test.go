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

	"thermozone/internal/zone"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readingsAt(base time.Time, temps ...float64) []Reading {
	out := make([]Reading, 0, len(temps))
	for i := range temps {
		out = append(out, Reading{Temperature: &temps[i], At: base.Add(time.Duration(i) * 5 * time.Minute)})
	}
	return out
}

func TestDetectDrift(t *testing.T) {
	now := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	e := testEngine(now)
	z := zone.NewZoneState("living", "living")

	t.Run("latest far from batch mean", func(t *testing.T) {
		// mean of (20,20,20,26) = 21.5; latest deviates 4.5
		anomalies := e.DetectAnomaly(z, readingsAt(now, 20, 20, 20, 26))
		require.Len(t, anomalies, 1)
		assert.Equal(t, AnomalySensorDrift, anomalies[0].Kind)
		assert.InDelta(t, 4.5, anomalies[0].Value, 1e-9)
	})

	t.Run("steady readings clean", func(t *testing.T) {
		assert.Empty(t, e.DetectAnomaly(z, readingsAt(now, 20, 20.2, 20.1, 20.3)))
	})

	t.Run("single reading cannot drift", func(t *testing.T) {
		assert.Empty(t, e.DetectAnomaly(z, readingsAt(now, 26)))
	})
}

func TestDetectUnresponsive(t *testing.T) {
	now := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	e := testEngine(now)

	flatZone := func(running bool) *zone.ZoneState {
		z := zone.NewZoneState("living", "living")
		z.Alpha = 1.0
		z.Devices["heater"] = &zone.DeviceState{ID: "heater", Running: running}
		for i := 0; i < 6; i++ {
			z.ApplyTemperature(20.0, now.Add(time.Duration(i-6)*5*time.Minute))
		}
		return z
	}

	t.Run("running device with flat trend", func(t *testing.T) {
		anomalies := e.DetectAnomaly(flatZone(true), nil)
		require.Len(t, anomalies, 1)
		assert.Equal(t, AnomalyDeviceUnresponsive, anomalies[0].Kind)
	})

	t.Run("idle device with flat trend is fine", func(t *testing.T) {
		assert.Empty(t, e.DetectAnomaly(flatZone(false), nil))
	})

	t.Run("running device actually heating is fine", func(t *testing.T) {
		z := zone.NewZoneState("living", "living")
		z.Alpha = 1.0
		z.Devices["heater"] = &zone.DeviceState{ID: "heater", Running: true}
		for i := 0; i < 6; i++ {
			z.ApplyTemperature(20.0+float64(i)*0.2, now.Add(time.Duration(i-6)*5*time.Minute))
		}
		assert.Empty(t, e.DetectAnomaly(z, nil))
	})
}

func TestDetectHumiditySpike(t *testing.T) {
	now := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	e := testEngine(now)
	z := zone.NewZoneState("bath", "bath")

	humReadings := func(span time.Duration, from, to float64) []Reading {
		return []Reading{
			{Humidity: &from, At: now},
			{Humidity: &to, At: now.Add(span)},
		}
	}

	t.Run("shower-speed rise flagged", func(t *testing.T) {
		// 30% in 30 minutes = 60%/h
		anomalies := e.DetectAnomaly(z, humReadings(30*time.Minute, 40, 70))
		require.Len(t, anomalies, 1)
		assert.Equal(t, AnomalyHumiditySpike, anomalies[0].Kind)
		assert.InDelta(t, 60.0, anomalies[0].Value, 1e-9)
	})

	t.Run("slow rise clean", func(t *testing.T) {
		assert.Empty(t, e.DetectAnomaly(z, humReadings(time.Hour, 40, 55)))
	})

	t.Run("falling humidity clean", func(t *testing.T) {
		assert.Empty(t, e.DetectAnomaly(z, humReadings(30*time.Minute, 70, 40)))
	})
}
