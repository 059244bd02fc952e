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

import (
	"time"

	"thermozone/internal/comp"
	"thermozone/internal/logger"
)

const (
	// Absolute physical band: 55–90°F. Nothing the LLM says moves a
	// thermostat outside it.
	absMinF = 55.0
	absMaxF = 90.0

	maxWait = 30 * time.Minute
)

// VetDecision is the safety protocol: a pure, stateless clamp applied to
// every decision before it can be cached or acted on. Adjustments are
// clamped first to the absolute band and then to ±maxOffsetF around the
// desired temperature; waits are capped to 30 minutes from now; holds pass
// untouched.
func VetDecision(d Decision, desiredC, maxOffsetF float64, now time.Time) Decision {
	switch d.Action {
	case ActionAdjust:
		clamped := comp.Clamp(d.SetpointC, comp.FToC(absMinF), comp.FToC(absMaxF))

		band := comp.DeltaFToC(maxOffsetF)
		clamped = comp.Clamp(clamped, desiredC-band, desiredC+band)

		if clamped != d.SetpointC {
			logger.Named("advisor").Warnf(
				"Safety clamp: setpoint %.2f°C -> %.2f°C (desired %.2f°C, max offset %.0f°F)",
				d.SetpointC, clamped, desiredC, maxOffsetF,
			)
			d.SetpointC = clamped
		}
	case ActionWait:
		cap := now.Add(maxWait)
		if d.WaitUntil.After(cap) {
			logger.Named("advisor").Warnf(
				"Safety clamp: wait deadline %v -> %v", d.WaitUntil.Format(time.RFC3339), cap.Format(time.RFC3339),
			)
			d.WaitUntil = cap
		}
	}
	return d
}
