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

// Package control holds the normalized executable intent passed from the
// decision layers to the executor.
package control

type ActionType string

const (
	ActionSetTemperature ActionType = "set_temperature"
	ActionTurnOn         ActionType = "turn_on"
	ActionTurnOff        ActionType = "turn_off"
	ActionSetMode        ActionType = "set_mode"
	ActionSetFanSpeed    ActionType = "set_fan_speed"
	ActionOpenCover      ActionType = "open_cover"
	ActionCloseCover     ActionType = "close_cover"
	ActionSetVent        ActionType = "set_vent_position"
)

type Trigger string

const (
	TriggerSchedule   Trigger = "schedule"
	TriggerLLM        Trigger = "llm"
	TriggerUser       Trigger = "user"
	TriggerFollowMe   Trigger = "follow_me"
	TriggerRuleEngine Trigger = "rule_engine"
	TriggerAnomaly    Trigger = "anomaly"
)

// Action is immutable once constructed and consumed exactly once by the
// executor. DeviceID may be empty when the action targets the zone's
// thermostat entity.
type Action struct {
	ZoneID   string
	DeviceID string
	Type     ActionType
	Trigger  Trigger
	Params   map[string]float64
	Reason   string
}
