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

package config

const (
	zoneDefaultPriority = 1
	zoneDefaultAlpha    = 0.3
	zoneDefaultTarget   = 21.0
	zoneDefaultHumidity = 45.0
)

type ZoneConfig struct {
	Priority       *int            `yaml:"priority"`
	SmoothingAlpha *float64        `yaml:"smoothing_alpha"`
	TargetTemp     *float64        `yaml:"target_temperature_c"`
	TargetHumidity *float64        `yaml:"target_humidity"`
	Sensors        []*SensorConfig `yaml:"sensors"`
	Devices        []*DeviceConfig `yaml:"devices"`
}

// DeviceConfig describes a controllable device owned by a zone.
type DeviceConfig struct {
	ID            string   `yaml:"id"`
	Name          string   `yaml:"name,omitempty"`
	Type          string   `yaml:"type"`
	ControlMethod string   `yaml:"control_method,omitempty"`
	Capabilities  []string `yaml:"capabilities,omitempty"`
	MinTemp       *float64 `yaml:"min_temp_c,omitempty"`
	MaxTemp       *float64 `yaml:"max_temp_c,omitempty"`
	MinOffMinutes *int     `yaml:"min_off_minutes,omitempty"`
}

func (z *ZoneConfig) FillDefaults() {
	if z.Priority == nil {
		z.Priority = GetPTR(zoneDefaultPriority)
	}
	if z.SmoothingAlpha == nil {
		z.SmoothingAlpha = GetPTR(zoneDefaultAlpha)
	}
	// smoothing outside [0.05,1.0] makes the filter either frozen or a no-op
	if *z.SmoothingAlpha < 0.05 {
		z.SmoothingAlpha = GetPTR(0.05)
	}
	if *z.SmoothingAlpha > 1.0 {
		z.SmoothingAlpha = GetPTR(1.0)
	}
	if z.TargetTemp == nil {
		z.TargetTemp = GetPTR(zoneDefaultTarget)
	}
	if z.TargetHumidity == nil {
		z.TargetHumidity = GetPTR(zoneDefaultHumidity)
	}
	for _, s := range z.Sensors {
		s.FillDefaults()
	}
}

func NewZoneConfig() *ZoneConfig {
	return &ZoneConfig{
		Sensors: make([]*SensorConfig, 0),
	}
}
