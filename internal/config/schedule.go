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

// ScheduleConfig is one named schedule document: which zones it scopes to and
// its per-period temperature windows.
type ScheduleConfig struct {
	Name    string                `yaml:"name"`
	Zones   []string              `yaml:"zones"`
	Periods []*SchedulePeriodConf `yaml:"periods"`
}

type SchedulePeriodConf struct {
	Days   string   `yaml:"days"`   // weekday | weekend
	Period string   `yaml:"period"` // wake | home | away | sleep
	Start  string   `yaml:"start"`  // HH:MM
	End    string   `yaml:"end"`    // HH:MM
	Heat   *float64 `yaml:"heat_c"`
	Cool   *float64 `yaml:"cool_c"`
}
