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

// Package rules is the deterministic fast path: cheap decisions that must
// never wait on network or LLM latency.
package rules

import (
	"fmt"
	"math"
	"sort"
	"time"

	"thermozone/internal/control"
	"thermozone/internal/logger"
	"thermozone/internal/zone"

	"go.uber.org/zap"
)

const (
	defaultComfortBandC      = 1.0
	defaultHumidityDeviation = 8.0
	defaultSetbackC          = 2.0
	occupancyDebounce        = 5 * time.Minute
	chatterThresholdC        = 0.5

	driftThresholdC    = 3.5
	flatTrendCPerH     = 0.05
	humiditySpikePerH  = 25.0
	trendWindow        = 30 * time.Minute
)

// Reading is the latest raw observation handed to the engine alongside the
// aggregated zone state.
type Reading struct {
	Temperature *float64
	Humidity    *float64
	At          time.Time
}

type Engine struct {
	ComfortBandC      float64
	HumidityDeviation float64
	SetbackC          float64

	log *zap.SugaredLogger
	now func() time.Time
}

func NewEngine() *Engine {
	return &Engine{
		ComfortBandC:      defaultComfortBandC,
		HumidityDeviation: defaultHumidityDeviation,
		SetbackC:          defaultSetbackC,
		log:               logger.Named("rules"),
		now:               time.Now,
	}
}

// CheckComfortBand emits a corrective action when the zone sits outside its
// comfort band. Temperature takes precedence over humidity when both would
// fire.
func (e *Engine) CheckComfortBand(z *zone.ZoneState, r Reading) *control.Action {
	current := r.Temperature
	if current == nil {
		current = z.Temperature
	}

	if current != nil {
		target := z.TargetTemperature()
		low, high := target-e.ComfortBandC, target+e.ComfortBandC
		if v, ok := z.Metrics[zone.MetricComfortMin]; ok {
			low = v
		}
		if v, ok := z.Metrics[zone.MetricComfortMax]; ok {
			high = v
		}

		if *current < low {
			return e.temperatureAction(z, low, "heat", *current)
		}
		if *current > high {
			return e.temperatureAction(z, high, "cool", *current)
		}
	}

	hum := r.Humidity
	if hum == nil {
		hum = z.Humidity
	}
	if hum != nil {
		dev := *hum - z.TargetHumidity()
		if math.Abs(dev) >= e.HumidityDeviation {
			devType := "humidifier"
			if dev > 0 {
				devType = "dehumidifier"
			}
			target := e.SelectDevice(z, []string{devType})
			if target == nil {
				return nil
			}
			return &control.Action{
				ZoneID:   z.ID,
				DeviceID: target.ID,
				Type:     control.ActionTurnOn,
				Trigger:  control.TriggerRuleEngine,
				Params:   map[string]float64{"humidity_deviation": dev},
				Reason:   fmt.Sprintf("humidity off target by %.1f%% in %s", dev, z.Name),
			}
		}
	}

	return nil
}

func (e *Engine) temperatureAction(z *zone.ZoneState, boundary float64, direction string, current float64) *control.Action {
	dev := e.SelectDevice(z, nil)
	devID := ""
	if dev != nil {
		devID = dev.ID
	}
	return &control.Action{
		ZoneID:   z.ID,
		DeviceID: devID,
		Type:     control.ActionSetTemperature,
		Trigger:  control.TriggerRuleEngine,
		Params:   map[string]float64{"temperature_c": boundary},
		Reason:   fmt.Sprintf("%s: %.1f°C outside comfort band, %s to %.1f°C", z.Name, current, direction, boundary),
	}
}

// CheckOccupancyTransition reacts to presence flips. Transitions within five
// minutes of the previous recorded change are debounced, and moves smaller
// than 0.5°C are dropped to avoid chatter.
func (e *Engine) CheckOccupancyTransition(z *zone.ZoneState, occupied bool) *control.Action {
	if !z.OccupancyChangedAt.IsZero() && e.now().Sub(z.OccupancyChangedAt) < occupancyDebounce {
		return nil
	}

	desired := z.TargetTemperature()
	if !occupied {
		desired -= e.SetbackC
	}

	if z.Temperature == nil || math.Abs(desired-*z.Temperature) < chatterThresholdC {
		return nil
	}

	state := "vacated"
	if occupied {
		state = "occupied"
	}
	dev := e.SelectDevice(z, nil)
	devID := ""
	if dev != nil {
		devID = dev.ID
	}
	return &control.Action{
		ZoneID:   z.ID,
		DeviceID: devID,
		Type:     control.ActionSetTemperature,
		Trigger:  control.TriggerFollowMe,
		Params:   map[string]float64{"temperature_c": desired},
		Reason:   fmt.Sprintf("%s %s, targeting %.1f°C", z.Name, state, desired),
	}
}

// CheckSafetyConstraints validates a proposed action against the device's
// temperature bounds and its duty-cycle limiter. Returns nil when the action
// is acceptable.
func (e *Engine) CheckSafetyConstraints(dev *zone.DeviceState, a *control.Action) error {
	if dev == nil || a == nil {
		return nil
	}

	if t, ok := a.Params["temperature_c"]; ok {
		if dev.MinTemp != nil && t < *dev.MinTemp {
			return fmt.Errorf("setpoint %.1f°C below device %s minimum %.1f°C", t, dev.ID, *dev.MinTemp)
		}
		if dev.MaxTemp != nil && t > *dev.MaxTemp {
			return fmt.Errorf("setpoint %.1f°C above device %s maximum %.1f°C", t, dev.ID, *dev.MaxTemp)
		}
	}

	if dev.MinOffTime > 0 && !dev.LastRun.IsZero() {
		if since := e.now().Sub(dev.LastRun); since < dev.MinOffTime {
			return fmt.Errorf("device %s inside minimum-off window (%s since last run)", dev.ID, since.Round(time.Second))
		}
	}

	return nil
}

// SelectDevice prefers a type from the preference set, then the first device
// advertising temperature support, then the first device at all. Ordering
// over the zone's device map is made deterministic by id.
func (e *Engine) SelectDevice(z *zone.ZoneState, preferred []string) *zone.DeviceState {
	ordered := orderedDevices(z)
	if len(ordered) == 0 {
		return nil
	}

	for _, want := range preferred {
		for _, d := range ordered {
			if d.Type == want {
				return d
			}
		}
	}
	for _, d := range ordered {
		if d.HasCapability("supports_temperature") {
			return d
		}
	}
	return ordered[0]
}

func orderedDevices(z *zone.ZoneState) []*zone.DeviceState {
	out := make([]*zone.DeviceState, 0, len(z.Devices))
	for _, d := range z.Devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
