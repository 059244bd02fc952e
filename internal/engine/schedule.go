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

package engine

import (
	"context"
	"fmt"
	"time"

	"thermozone/internal/advisor"
	"thermozone/internal/comp"
	"thermozone/internal/control"
	"thermozone/internal/schedule"
	"thermozone/internal/store"
	"thermozone/internal/zone"
)

// maintainSchedules is the setpoint maintenance pass: for every schedule
// with an active period, compensate the desired temperature against the
// live zone average and, when the formula wants a change, let the advisor
// confirm, modify or defer it. An unreadable HVAC mode is a tick failure;
// a missing climate entity is just an unconfigured installation.
func (e *Engine) maintainSchedules(ctx context.Context, now time.Time) error {
	if len(e.schedules) == 0 {
		return nil
	}

	entity, ok := e.settings.StringSetting(ctx, store.SettingClimateEntity)
	if !ok {
		e.log.Debug("No climate entity configured, skipping schedule maintenance")
		return nil
	}

	mode, ok := e.dispatcher.HVACMode(ctx, entity)
	if !ok {
		return fmt.Errorf("cannot read HVAC mode from %s", entity)
	}
	if mode == "off" {
		e.log.Debug("HVAC is off, skipping schedule maintenance")
		return nil
	}

	for _, sched := range e.schedules {
		e.maintainSchedule(ctx, sched, entity, mode, now)
	}
	return nil
}

func (e *Engine) maintainSchedule(ctx context.Context, sched *schedule.Schedule, entity, mode string, now time.Time) {
	entry, ok := sched.CurrentPeriod(now)
	if !ok {
		e.log.Debugf("Schedule %s has no entry for today, skipping", sched.ID)
		return
	}
	desired := entry.DesiredFor(mode)

	result := e.comp.Apply(ctx, desired, sched.ZoneIDs, mode, comp.PriorityTier)
	if result.OffsetC == 0 && result.AdjustedC == desired {
		e.log.Debugf("Schedule %s: zones at target, nothing to do", sched.ID)
		return
	}

	zoneAvg, _, _ := e.zones.AveragePriorityTier(sched.ZoneIDs)
	decision := e.adviser.Advise(ctx, advisor.Request{
		ScheduleID: sched.ID,
		ZoneIDs:    sched.ZoneIDs,
		DesiredC:   desired,
		FormulaC:   result.AdjustedC,
		OffsetC:    result.OffsetC,
		ZoneAvgC:   zoneAvg,
		HVACMode:   mode,
	})

	switch decision.Action {
	case advisor.ActionAdjust:
		trigger := control.TriggerSchedule
		if decision.FromLLM {
			trigger = control.TriggerLLM
		}
		primary := ""
		var primaryZone *zone.ZoneState
		if len(sched.ZoneIDs) > 0 {
			primary = sched.ZoneIDs[0]
			primaryZone, _ = e.zones.Get(primary)
		}
		e.executeAndRecord(ctx, primaryZone, &control.Action{
			ZoneID:  primary,
			Type:    control.ActionSetTemperature,
			Trigger: trigger,
			Params:  map[string]float64{"temperature_c": decision.SetpointC},
			Reason:  decision.Reasoning,
		})
	case advisor.ActionWait:
		e.log.Infof("Schedule %s: deferring until %v (%s)", sched.ID, decision.WaitUntil.Format(time.Kitchen), decision.Reasoning)
	default:
		e.log.Debugf("Schedule %s: holding setpoint (%s)", sched.ID, decision.Reasoning)
	}
}
