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

package zone

import (
	"math"
	"time"
)

const (
	// historyDepth holds ~24h at the 5-minute cadence.
	historyDepth = 288

	defaultAlpha = 0.3

	// Metric names recognized across the rule engine and comfort scoring.
	MetricTargetTemperature = "target_temperature_c"
	MetricTargetHumidity    = "target_humidity"
	MetricComfortMin        = "comfort_min_c"
	MetricComfortMax        = "comfort_max_c"
)

// Sample is one smoothed temperature observation kept for trend math.
type Sample struct {
	At          time.Time
	Temperature float64
}

// DeviceState mirrors one controllable device owned by a zone.
type DeviceState struct {
	ID            string
	Name          string
	Type          string
	ControlMethod string
	Capabilities  []string
	Running       bool
	MinTemp       *float64
	MaxTemp       *float64
	MinOffTime    time.Duration
	// LastRun is the duty-cycle anchor: the moment the device last switched on.
	LastRun     time.Time
	LastUpdated time.Time
}

func (d *DeviceState) HasCapability(name string) bool {
	for _, c := range d.Capabilities {
		if c == name {
			return true
		}
	}
	return false
}

// ZoneState is the aggregated in-memory snapshot of one physical zone.
// Temperature and humidity stay nil until the first reading arrives; after
// that they are exponentially smoothed and never reset.
type ZoneState struct {
	ID       string
	Name     string
	Priority int
	Alpha    float64

	Temperature *float64
	Humidity    *float64

	Occupied           bool
	OccupancyChangedAt time.Time
	LastUpdate         time.Time

	Devices   map[string]*DeviceState
	Metrics   map[string]float64
	Attention map[string]bool

	history []Sample
}

func NewZoneState(id, name string) *ZoneState {
	return &ZoneState{
		ID:        id,
		Name:      name,
		Priority:  1,
		Alpha:     defaultAlpha,
		Devices:   make(map[string]*DeviceState),
		Metrics:   make(map[string]float64),
		Attention: make(map[string]bool),
	}
}

// ApplyTemperature folds a reading into the smoothed value and history.
// The first reading is assigned verbatim; smoothing never resets after that.
func (z *ZoneState) ApplyTemperature(v float64, at time.Time) {
	if z.Temperature == nil {
		z.Temperature = &v
	} else {
		smoothed := *z.Temperature + z.Alpha*(v-*z.Temperature)
		z.Temperature = &smoothed
	}
	z.LastUpdate = at
	z.pushSample(Sample{At: at, Temperature: *z.Temperature})
}

func (z *ZoneState) ApplyHumidity(v float64, at time.Time) {
	if z.Humidity == nil {
		z.Humidity = &v
	} else {
		smoothed := *z.Humidity + z.Alpha*(v-*z.Humidity)
		z.Humidity = &smoothed
	}
	z.LastUpdate = at
}

// ApplyOccupancy updates the flag; the change timestamp moves only when the
// value actually flips.
func (z *ZoneState) ApplyOccupancy(occupied bool, at time.Time) {
	if occupied != z.Occupied {
		z.Occupied = occupied
		z.OccupancyChangedAt = at
	}
	z.LastUpdate = at
}

func (z *ZoneState) pushSample(s Sample) {
	z.history = append(z.history, s)
	if len(z.history) > historyDepth {
		z.history = z.history[len(z.history)-historyDepth:]
	}
}

// History returns a copy of the retained samples, oldest first.
func (z *ZoneState) History() []Sample {
	out := make([]Sample, len(z.history))
	copy(out, z.history)
	return out
}

// Trend returns the temperature rate of change in °C/h over the trailing
// window, via least-squares over the retained samples. ok is false when
// fewer than two samples fall inside the window.
func (z *ZoneState) Trend(window time.Duration, now time.Time) (float64, bool) {
	cutoff := now.Add(-window)
	var pts []Sample
	for _, s := range z.history {
		if !s.At.Before(cutoff) {
			pts = append(pts, s)
		}
	}
	return RegressionRate(pts)
}

// RegressionRate fits temperature-vs-time and returns the slope in °C/h.
func RegressionRate(pts []Sample) (float64, bool) {
	if len(pts) < 2 {
		return 0, false
	}
	t0 := pts[0].At
	var sx, sy, sxx, sxy float64
	for _, p := range pts {
		x := p.At.Sub(t0).Hours()
		sx += x
		sy += p.Temperature
		sxx += x * x
		sxy += x * p.Temperature
	}
	n := float64(len(pts))
	den := n*sxx - sx*sx
	if math.Abs(den) < 1e-12 {
		return 0, false
	}
	return (n*sxy - sx*sy) / den, true
}

// TargetTemperature reads the zone's target metric, falling back to 21°C.
func (z *ZoneState) TargetTemperature() float64 {
	if v, ok := z.Metrics[MetricTargetTemperature]; ok {
		return v
	}
	return 21.0
}

func (z *ZoneState) TargetHumidity() float64 {
	if v, ok := z.Metrics[MetricTargetHumidity]; ok {
		return v
	}
	return 45.0
}

// ComfortScore blends temperature and humidity closeness to target into
// [0,100]. Deviations in an unoccupied zone count half: nobody is there to
// feel them.
func (z *ZoneState) ComfortScore() float64 {
	if z.Temperature == nil {
		return 0
	}

	tempDev := math.Abs(*z.Temperature - z.TargetTemperature())
	humDev := 0.0
	if z.Humidity != nil {
		humDev = math.Abs(*z.Humidity - z.TargetHumidity())
	}
	if !z.Occupied {
		tempDev /= 2
		humDev /= 2
	}

	tempScore := math.Max(0, 1-tempDev/5.0)
	humScore := math.Max(0, 1-humDev/30.0)

	score := (0.7*tempScore + 0.3*humScore) * 100
	return math.Round(score*10) / 10
}
