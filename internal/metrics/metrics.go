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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TicksTotal counts control-loop ticks by outcome ("ok", "failed").
	TicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thermozone_ticks_total",
			Help: "Control loop ticks by outcome",
		},
		[]string{"outcome"},
	)

	// ActionsTotal counts executed control actions by trigger and result.
	ActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thermozone_actions_total",
			Help: "Executed control actions by trigger and result",
		},
		[]string{"trigger", "result"},
	)

	// AdvisorConsults counts successful LLM round trips.
	AdvisorConsults = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "thermozone_advisor_consults_total",
			Help: "LLM consultations that returned a reply",
		},
	)

	// AdvisorFallbacks counts consults that degraded to the formula result.
	AdvisorFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "thermozone_advisor_fallbacks_total",
			Help: "Advisor decisions that fell back to the deterministic formula",
		},
	)

	// ZonesNeedingAttention gauges the size of the last attention sweep.
	ZonesNeedingAttention = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "thermozone_zones_needing_attention",
			Help: "Zones flagged by the last attention sweep",
		},
	)

	// ConsecutiveTickFailures gauges the current failure streak.
	ConsecutiveTickFailures = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "thermozone_consecutive_tick_failures",
			Help: "Consecutive failed control loop ticks",
		},
	)
)
