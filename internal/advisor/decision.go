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

package advisor

import "time"

type ActionKind string

const (
	ActionAdjust ActionKind = "adjust"
	ActionHold   ActionKind = "hold"
	ActionWait   ActionKind = "wait"
)

// Decision is the advisor's unit of output. SetpointC is always populated:
// it equals the deterministic formula result whenever the action is not an
// adjustment. Every decision handed to a caller has already passed the
// safety vet.
type Decision struct {
	Action    ActionKind
	SetpointC float64
	WaitUntil time.Time
	Reasoning string
	FromLLM   bool
}

// Request carries one maintenance-tick consultation for a schedule.
type Request struct {
	ScheduleID string
	ZoneIDs    []string
	DesiredC   float64
	// FormulaC/OffsetC are the offset-compensation result the advisor may
	// confirm, modify or defer.
	FormulaC float64
	OffsetC  float64
	// ZoneAvgC is the live zone average at consult time; the cache movement
	// guard compares against it.
	ZoneAvgC float64
	HVACMode string
}
