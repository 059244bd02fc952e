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

package comp

import (
	"context"
	"math"
	"testing"
	"time"

	"thermozone/internal/store"
	"thermozone/internal/zone"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeAdjustedSetpoint(t *testing.T) {
	tests := []struct {
		name       string
		desiredC   float64
		zoneAvgC   float64
		maxOffsetF float64
		wantC      float64
		wantOffF   float64
	}{
		{
			name:     "two degree undershoot rounds up to four fahrenheit",
			desiredC: 22.0, zoneAvgC: 20.0, maxOffsetF: 8.0,
			wantC: 22.0 + 4.0*5.0/9.0, wantOffF: 4.0,
		},
		{
			name:     "clamped to max offset",
			desiredC: 22.0, zoneAvgC: 20.0, maxOffsetF: 2.0,
			wantC: 22.0 + 2.0*5.0/9.0, wantOffF: 2.0,
		},
		{
			name:     "zone at target yields zero offset",
			desiredC: 21.0, zoneAvgC: 21.0, maxOffsetF: 8.0,
			wantC: 21.0, wantOffF: 0,
		},
		{
			name:     "overshoot pushes setpoint down",
			desiredC: 20.0, zoneAvgC: 22.0, maxOffsetF: 8.0,
			wantC: 20.0 - 4.0*5.0/9.0, wantOffF: -4.0,
		},
		{
			name:     "sub-half-degree error rounds away",
			desiredC: 21.0, zoneAvgC: 20.8, maxOffsetF: 8.0,
			wantC: 21.0, wantOffF: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adjusted, offsetC := ComputeAdjustedSetpoint(tt.desiredC, 19.0, tt.zoneAvgC, tt.maxOffsetF)
			assert.InDelta(t, tt.wantC, adjusted, 1e-9)
			assert.InDelta(t, tt.wantOffF, DeltaCToF(offsetC), 1e-9)
		})
	}
}

func TestComputeAdjustedSetpointInvariants(t *testing.T) {
	for _, desired := range []float64{18, 20, 22, 25} {
		for avg := desired - 6.0; avg <= desired+6.0; avg += 0.37 {
			adjusted, offsetC := ComputeAdjustedSetpoint(desired, 19.0, avg, 8.0)

			offsetF := DeltaCToF(offsetC)
			assert.InDelta(t, math.Round(offsetF), offsetF, 1e-9,
				"offset must be whole fahrenheit degrees (desired=%.1f avg=%.2f)", desired, avg)
			assert.LessOrEqual(t, math.Abs(offsetF), 8.0+1e-9)
			assert.InDelta(t, desired+offsetC, adjusted, 1e-9)
		}
	}
}

type stubThermostat struct {
	temp float64
	ok   bool
}

func (s stubThermostat) Temperature(context.Context, string) (float64, bool) {
	return s.temp, s.ok
}

type stubSettings struct {
	floats  map[string]float64
	strings map[string]string
}

func (s stubSettings) FloatSettingWithDefault(_ context.Context, name string, def float64) float64 {
	if v, ok := s.floats[name]; ok {
		return v
	}
	return def
}

func (s stubSettings) StringSetting(_ context.Context, name string) (string, bool) {
	v, ok := s.strings[name]
	return v, ok
}

func seedZone(m *zone.Manager, id string, priority int, temp float64) {
	z := m.Ensure(id, id)
	z.Priority = priority
	z.ApplyTemperature(temp, time.Now())
}

func TestCompensatorApply(t *testing.T) {
	ctx := context.Background()
	settings := stubSettings{
		strings: map[string]string{store.SettingClimateEntity: "climate.hall"},
	}

	t.Run("heating undershoot compensated", func(t *testing.T) {
		zones := zone.NewManager()
		seedZone(zones, "living", 1, 20.0)
		c := NewCompensator(zones, settings, stubThermostat{temp: 19.0, ok: true})

		res := c.Apply(ctx, 22.0, []string{"living"}, "heat", PriorityTier)
		assert.InDelta(t, 22.0+4.0*5.0/9.0, res.AdjustedC, 1e-9)
		assert.Equal(t, []string{"living"}, res.Zones)
	})

	t.Run("heating guard discards negative adjustment", func(t *testing.T) {
		zones := zone.NewManager()
		seedZone(zones, "living", 1, 23.0)
		c := NewCompensator(zones, settings, stubThermostat{temp: 19.0, ok: true})

		res := c.Apply(ctx, 20.0, []string{"living"}, "heat", PriorityTier)
		assert.Equal(t, 20.0, res.AdjustedC)
		assert.Zero(t, res.OffsetC)
	})

	t.Run("cooling guard discards positive adjustment", func(t *testing.T) {
		zones := zone.NewManager()
		seedZone(zones, "living", 1, 22.0)
		c := NewCompensator(zones, settings, stubThermostat{temp: 26.0, ok: true})

		res := c.Apply(ctx, 24.0, []string{"living"}, "cool", PriorityTier)
		assert.Equal(t, 24.0, res.AdjustedC)
		assert.Zero(t, res.OffsetC)
	})

	t.Run("no live zone readings degrades to no-op", func(t *testing.T) {
		zones := zone.NewManager()
		zones.Ensure("living", "living")
		c := NewCompensator(zones, settings, stubThermostat{temp: 19.0, ok: true})

		res := c.Apply(ctx, 22.0, []string{"living"}, "heat", PriorityTier)
		assert.Equal(t, 22.0, res.AdjustedC)
		assert.Zero(t, res.OffsetC)
		assert.Nil(t, res.Zones)
	})

	t.Run("no thermostat reading degrades to no-op", func(t *testing.T) {
		zones := zone.NewManager()
		seedZone(zones, "living", 1, 20.0)
		c := NewCompensator(zones, settings, stubThermostat{ok: false})

		res := c.Apply(ctx, 22.0, []string{"living"}, "heat", PriorityTier)
		assert.Equal(t, 22.0, res.AdjustedC)
		assert.Zero(t, res.OffsetC)
	})

	t.Run("no climate entity degrades to no-op", func(t *testing.T) {
		zones := zone.NewManager()
		seedZone(zones, "living", 1, 20.0)
		c := NewCompensator(zones, stubSettings{}, stubThermostat{temp: 19.0, ok: true})

		res := c.Apply(ctx, 22.0, []string{"living"}, "heat", PriorityTier)
		assert.Equal(t, 22.0, res.AdjustedC)
	})

	t.Run("priority tier ignores lower priority zones", func(t *testing.T) {
		zones := zone.NewManager()
		seedZone(zones, "living", 2, 20.0)
		seedZone(zones, "hall", 1, 16.0)
		c := NewCompensator(zones, settings, stubThermostat{temp: 19.0, ok: true})

		res := c.Apply(ctx, 22.0, []string{"living", "hall"}, "heat", PriorityTier)
		require.Equal(t, []string{"living"}, res.Zones)
		// error computed against living only: 2°C -> 4°F
		assert.InDelta(t, 22.0+4.0*5.0/9.0, res.AdjustedC, 1e-9)
	})

	t.Run("all zones strategy averages across priorities", func(t *testing.T) {
		zones := zone.NewManager()
		seedZone(zones, "living", 2, 20.0)
		seedZone(zones, "hall", 1, 18.0)
		c := NewCompensator(zones, settings, stubThermostat{temp: 19.0, ok: true})

		res := c.Apply(ctx, 22.0, nil, "heat", AllZones)
		require.Len(t, res.Zones, 2)
		// avg 19.0, error 3°C -> 5.4°F -> 5°F
		assert.InDelta(t, 22.0+5.0*5.0/9.0, res.AdjustedC, 1e-9)
	})

	t.Run("max offset setting respected", func(t *testing.T) {
		zones := zone.NewManager()
		seedZone(zones, "living", 1, 17.0)
		c := NewCompensator(zones, stubSettings{
			floats:  map[string]float64{store.SettingMaxTempOffsetF: 2.0},
			strings: map[string]string{store.SettingClimateEntity: "climate.hall"},
		}, stubThermostat{temp: 19.0, ok: true})

		res := c.Apply(ctx, 22.0, []string{"living"}, "heat", PriorityTier)
		assert.InDelta(t, 22.0+2.0*5.0/9.0, res.AdjustedC, 1e-9)
	})
}

func TestUnitHelpers(t *testing.T) {
	assert.InDelta(t, 32.0, CToF(0), 1e-9)
	assert.InDelta(t, 0.0, FToC(32), 1e-9)
	assert.InDelta(t, 1.8, DeltaCToF(1.0), 1e-9)
	assert.InDelta(t, 1.0, DeltaFToC(1.8), 1e-9)
	assert.Equal(t, 5.0, Clamp(7, 0, 5))
	assert.Equal(t, 0.0, Clamp(-1, 0, 5))
	assert.Equal(t, 3.0, Clamp(3, 0, 5))
}
