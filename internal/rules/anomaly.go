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
	"fmt"
	"math"

	"thermozone/internal/zone"
)

const (
	AnomalySensorDrift        = "sensor_drift"
	AnomalyDeviceUnresponsive = "device_unresponsive"
	AnomalyHumiditySpike      = "humidity_spike"
)

type Anomaly struct {
	Kind   string
	ZoneID string
	Value  float64
	Detail string
}

// DetectAnomaly inspects a recent batch of readings against the zone state.
// readings are expected oldest first, the last entry being the latest.
func (e *Engine) DetectAnomaly(z *zone.ZoneState, readings []Reading) []Anomaly {
	var out []Anomaly

	if a := e.detectDrift(z, readings); a != nil {
		out = append(out, *a)
	}
	if a := e.detectUnresponsive(z); a != nil {
		out = append(out, *a)
	}
	if a := e.detectHumiditySpike(z, readings); a != nil {
		out = append(out, *a)
	}
	return out
}

func (e *Engine) detectDrift(z *zone.ZoneState, readings []Reading) *Anomaly {
	var temps []float64
	for _, r := range readings {
		if r.Temperature != nil {
			temps = append(temps, *r.Temperature)
		}
	}
	if len(temps) < 2 {
		return nil
	}

	latest := temps[len(temps)-1]
	var sum float64
	for _, t := range temps {
		sum += t
	}
	mean := sum / float64(len(temps))

	if dev := math.Abs(latest - mean); dev >= driftThresholdC {
		return &Anomaly{
			Kind:   AnomalySensorDrift,
			ZoneID: z.ID,
			Value:  dev,
			Detail: fmt.Sprintf("latest %.1f°C deviates %.1f°C from batch mean %.1f°C", latest, dev, mean),
		}
	}
	return nil
}

func (e *Engine) detectUnresponsive(z *zone.ZoneState) *Anomaly {
	anyRunning := false
	for _, d := range z.Devices {
		if d.Running {
			anyRunning = true
			break
		}
	}
	if !anyRunning {
		return nil
	}

	rate, ok := z.Trend(trendWindow, e.now())
	if !ok {
		return nil
	}
	if math.Abs(rate) < flatTrendCPerH {
		return &Anomaly{
			Kind:   AnomalyDeviceUnresponsive,
			ZoneID: z.ID,
			Value:  rate,
			Detail: fmt.Sprintf("device reports running but trend is flat (%.3f°C/h)", rate),
		}
	}
	return nil
}

func (e *Engine) detectHumiditySpike(z *zone.ZoneState, readings []Reading) *Anomaly {
	var first, last *Reading
	for i := range readings {
		if readings[i].Humidity == nil {
			continue
		}
		if first == nil {
			first = &readings[i]
		}
		last = &readings[i]
	}
	if first == nil || last == first {
		return nil
	}

	hours := last.At.Sub(first.At).Hours()
	if hours <= 0 {
		return nil
	}
	rate := (*last.Humidity - *first.Humidity) / hours
	if rate > humiditySpikePerH {
		return &Anomaly{
			Kind:   AnomalyHumiditySpike,
			ZoneID: z.ID,
			Value:  rate,
			Detail: fmt.Sprintf("humidity rising %.1f%%/h", rate),
		}
	}
	return nil
}
