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

// Package comp implements the thermostat-location bias compensation: the
// setpoint commanded to the one physical thermostat is shifted so it runs
// long enough to bring the actual target zones to the desired temperature.
package comp

import (
	"context"
	"math"
	"strings"

	"thermozone/internal/logger"
	"thermozone/internal/store"
	"thermozone/internal/zone"

	"go.uber.org/zap"
)

const DefaultMaxOffsetF = 8.0

// ComputeAdjustedSetpoint is the core formula. The zone error is converted
// to Fahrenheit and rounded to a whole degree before clamping: thermostats
// act on whole-degree F steps, so a fractional offset must be eliminated
// before it is trusted to change behavior. thermostatC is part of the
// contract (the caller only compensates when a live thermostat reading
// exists) but does not enter the arithmetic.
func ComputeAdjustedSetpoint(desiredC, thermostatC, zoneAvgC, maxOffsetF float64) (adjustedC, offsetC float64) {
	_ = thermostatC

	zoneErrC := desiredC - zoneAvgC
	offsetF := math.Round(DeltaCToF(zoneErrC))
	offsetF = Clamp(offsetF, -maxOffsetF, maxOffsetF)

	offsetC = DeltaFToC(offsetF)
	return desiredC + offsetC, offsetC
}

// AverageStrategy selects which zones feed the live average.
type AverageStrategy int

const (
	// PriorityTier averages only the zones sharing the numerically highest
	// priority that have live data; used when scoping to one schedule's
	// explicit zone list.
	PriorityTier AverageStrategy = iota
	// AllZones averages every active zone with a live reading, ignoring
	// priority; the whole-house signal.
	AllZones
)

// ThermostatReader resolves a live temperature for an entity.
type ThermostatReader interface {
	Temperature(ctx context.Context, entityID string) (float64, bool)
}

// Settings is the scalar settings contract the compensator needs.
type Settings interface {
	FloatSettingWithDefault(ctx context.Context, name string, def float64) float64
	StringSetting(ctx context.Context, name string) (string, bool)
}

// Result carries the compensated setpoint. Zones is nil when compensation
// degraded to a no-op for lack of live data.
type Result struct {
	AdjustedC float64
	OffsetC   float64
	Zones     []string
}

type Compensator struct {
	zones      *zone.Manager
	settings   Settings
	thermostat ThermostatReader
	log        *zap.SugaredLogger
}

func NewCompensator(zones *zone.Manager, settings Settings, thermostat ThermostatReader) *Compensator {
	return &Compensator{
		zones:      zones,
		settings:   settings,
		thermostat: thermostat,
		log:        logger.Named("comp"),
	}
}

// Apply resolves the live zone average and thermostat reading and runs the
// formula. Either reading missing degrades to the desired temperature with
// zero offset rather than failing the caller. In heating mode the adjustment
// is discarded when it would undershoot the desired temperature (the HVAC
// would stall instead of merely running suboptimally); cooling is symmetric.
func (c *Compensator) Apply(ctx context.Context, desiredC float64, zoneIDs []string, hvacMode string, strat AverageStrategy) Result {
	noop := Result{AdjustedC: desiredC, OffsetC: 0}

	var avg float64
	var names []string
	var ok bool
	switch strat {
	case AllZones:
		avg, names, ok = c.zones.AverageAll()
	default:
		avg, names, ok = c.zones.AveragePriorityTier(zoneIDs)
	}
	if !ok {
		c.log.Debugf("No live zone readings, holding desired %.2f°C", desiredC)
		return noop
	}

	entity, ok := c.settings.StringSetting(ctx, store.SettingClimateEntity)
	if !ok {
		c.log.Debug("No climate entity configured, holding desired")
		return noop
	}
	thermostatC, ok := c.thermostat.Temperature(ctx, entity)
	if !ok {
		c.log.Debugf("No live thermostat reading from %s, holding desired %.2f°C", entity, desiredC)
		return noop
	}

	maxOffsetF := c.settings.FloatSettingWithDefault(ctx, store.SettingMaxTempOffsetF, DefaultMaxOffsetF)
	adjusted, offset := ComputeAdjustedSetpoint(desiredC, thermostatC, avg, maxOffsetF)

	mode := strings.ToLower(hvacMode)
	if strings.Contains(mode, "heat") && adjusted < desiredC {
		c.log.Debugf("Heating undershoot guard: %.2f°C < desired %.2f°C, holding desired", adjusted, desiredC)
		return Result{AdjustedC: desiredC, OffsetC: 0, Zones: names}
	}
	if strings.Contains(mode, "cool") && adjusted > desiredC {
		c.log.Debugf("Cooling overshoot guard: %.2f°C > desired %.2f°C, holding desired", adjusted, desiredC)
		return Result{AdjustedC: desiredC, OffsetC: 0, Zones: names}
	}

	c.log.Debugf(
		"Compensated setpoint: desired=%.2f°C zones=%.2f°C thermostat=%.2f°C offset=%.2f°C -> %.2f°C",
		desiredC, avg, thermostatC, offset, adjusted,
	)
	return Result{AdjustedC: adjusted, OffsetC: offset, Zones: names}
}
