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

// Package engine runs the five-minute control loop: gather zones needing
// attention, decide (rules first, LLM second), execute, audit.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"thermozone/internal/advisor"
	"thermozone/internal/comp"
	"thermozone/internal/control"
	"thermozone/internal/hass"
	"thermozone/internal/logger"
	"thermozone/internal/llm"
	"thermozone/internal/metrics"
	"thermozone/internal/pattern"
	"thermozone/internal/pid"
	"thermozone/internal/rules"
	"thermozone/internal/schedule"
	"thermozone/internal/store"
	"thermozone/internal/zone"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	tickInterval = 300 * time.Second

	tempAttentionC    = 1.5
	humAttentionPct   = 10.0
	failureEscalation = 3

	safetyMinDefaultC = 12.78
	safetyMaxDefaultC = 32.22

	pidTrimMaxC     = 2.0
	pidTrimMinMoveC = 0.25

	anomalyWindow = 30 * time.Minute
)

// Dispatcher is the thermostat-facing command contract. Failures arrive
// folded into the result, never raised.
type Dispatcher interface {
	SetTemperature(ctx context.Context, entityID string, celsius float64) hass.CommandResult
	SetHVACMode(ctx context.Context, entityID, mode string) hass.CommandResult
	TurnOn(ctx context.Context, entityID string) hass.CommandResult
	TurnOff(ctx context.Context, entityID string) hass.CommandResult
	HVACMode(ctx context.Context, entityID string) (string, bool)
}

type Settings interface {
	FloatSettingWithDefault(ctx context.Context, name string, def float64) float64
	StringSetting(ctx context.Context, name string) (string, bool)
	StringSettingWithDefault(ctx context.Context, name, def string) string
}

type Audit interface {
	AppendAction(ctx context.Context, rec *store.ActionRecord) error
}

type SeriesReader interface {
	ReadingsBetween(ctx context.Context, zoneID string, from, to time.Time) ([]store.Reading, error)
}

type Adviser interface {
	Advise(ctx context.Context, req advisor.Request) advisor.Decision
}

type Compensator interface {
	Apply(ctx context.Context, desiredC float64, zoneIDs []string, hvacMode string, strat comp.AverageStrategy) comp.Result
}

type Engine struct {
	zones      *zone.Manager
	rules      *rules.Engine
	adviser    Adviser
	comp       Compensator
	dispatcher Dispatcher
	settings   Settings
	audit      Audit
	series     SeriesReader
	patterns   *pattern.Engine
	chat       llm.ChatClient
	schedules  []*schedule.Schedule

	log  *zap.SugaredLogger
	now  func() time.Time
	pids map[string]*pid.Controller

	consecutiveFailures int
}

func New(
	zones *zone.Manager, ruleEngine *rules.Engine, adviser Adviser, compensator Compensator,
	dispatcher Dispatcher, settings Settings, audit Audit, series SeriesReader,
	patterns *pattern.Engine, chat llm.ChatClient, schedules []*schedule.Schedule,
) *Engine {
	return &Engine{
		zones:      zones,
		rules:      ruleEngine,
		adviser:    adviser,
		comp:       compensator,
		dispatcher: dispatcher,
		settings:   settings,
		audit:      audit,
		series:     series,
		patterns:   patterns,
		chat:       chat,
		schedules:  schedules,
		log:        logger.Named("engine"),
		now:        time.Now,
		pids:       make(map[string]*pid.Controller),
	}
}

// Run ticks every five minutes until the context is cancelled. Individual
// tick failures are tolerated and logged; three consecutive failures mark
// HVAC control degraded, but the loop never stops.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	e.log.Infof("Control loop started, tick every %v", tickInterval)
	for {
		select {
		case <-ctx.Done():
			e.log.Info("Control loop stopped")
			return
		case <-ticker.C:
			e.runTick(ctx)
		}
	}
}

func (e *Engine) runTick(ctx context.Context) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("tick panic: %v", r)
			}
		}()
		return e.Tick(ctx)
	}()
	if err != nil {
		e.consecutiveFailures++
		metrics.TicksTotal.WithLabelValues("failed").Inc()
		metrics.ConsecutiveTickFailures.Set(float64(e.consecutiveFailures))
		e.log.Errorf("Tick failed (%d consecutive): %v", e.consecutiveFailures, err)
		if e.consecutiveFailures >= failureEscalation {
			// zap has no critical level; the marker is what the alerting
			// pipeline matches on
			e.log.Errorf("CRITICAL: HVAC control degraded, %d consecutive tick failures", e.consecutiveFailures)
		}
		return
	}
	e.consecutiveFailures = 0
	metrics.TicksTotal.WithLabelValues("ok").Inc()
	metrics.ConsecutiveTickFailures.Set(0)
}

// Tick is one pass: attention sweep with the rule-first decision path, then
// the schedule maintenance pass.
func (e *Engine) Tick(ctx context.Context) error {
	now := e.now()

	flagged := e.zones.NeedingAttention(now, tempAttentionC, humAttentionPct)
	metrics.ZonesNeedingAttention.Set(float64(len(flagged)))

	for _, z := range flagged {
		e.reportAnomalies(ctx, z, now)
		e.handleZone(ctx, z, now)
	}

	return e.maintainSchedules(ctx, now)
}

// OccupancyChanged is the event-driven fast path for presence flips. Ingest
// calls it before the zone state absorbs the transition, so the debounce
// window still measures from the previous flip.
func (e *Engine) OccupancyChanged(ctx context.Context, zoneID string, occupied bool) {
	z, ok := e.zones.Get(zoneID)
	if !ok {
		return
	}
	if a := e.rules.CheckOccupancyTransition(z, occupied); a != nil {
		e.executeAndRecord(ctx, z, a)
	}
}

// UserAction runs an operator-issued command through the same safety checks
// and audit trail as loop decisions.
func (e *Engine) UserAction(ctx context.Context, a *control.Action) {
	z, _ := e.zones.Get(a.ZoneID)
	e.executeAndRecord(ctx, z, a)
}

// reportAnomalies runs the detectors over a flagged zone and audits every
// hit so sensor and device faults land next to the control decisions.
func (e *Engine) reportAnomalies(ctx context.Context, z *zone.ZoneState, now time.Time) {
	var batch []rules.Reading
	if e.series != nil {
		readings, err := e.series.ReadingsBetween(ctx, z.ID, now.Add(-anomalyWindow), now)
		if err != nil {
			e.log.Warnf("Anomaly sweep: cannot read history for %s: %v", z.ID, err)
		}
		for _, r := range readings {
			batch = append(batch, rules.Reading{Temperature: r.Temperature, Humidity: r.Humidity, At: r.TakenAt})
		}
	}

	for _, a := range e.rules.DetectAnomaly(z, batch) {
		metrics.ActionsTotal.WithLabelValues(string(control.TriggerAnomaly), "reported").Inc()
		e.log.Warnf("Anomaly in zone %s: %s (%s)", z.ID, a.Kind, a.Detail)
		rec := &store.ActionRecord{
			ID:         uuid.New().String(),
			ZoneID:     z.ID,
			Trigger:    string(control.TriggerAnomaly),
			Action:     a.Kind,
			Parameters: "{}",
			Result:     "reported",
			Reasoning:  a.Detail,
			Mode:       e.settings.StringSettingWithDefault(ctx, store.SettingSystemMode, "auto"),
			CreatedAt:  e.now().UTC(),
		}
		if err := e.audit.AppendAction(ctx, rec); err != nil {
			e.log.Errorf("Audit append failed for %s: %v", z.ID, err)
		}
	}
}

func (e *Engine) handleZone(ctx context.Context, z *zone.ZoneState, now time.Time) {
	reading := rules.Reading{Temperature: z.Temperature, Humidity: z.Humidity, At: now}

	if action := e.rules.CheckComfortBand(z, reading); action != nil {
		e.executeAndRecord(ctx, z, action)
		return
	}

	mode := e.settings.StringSettingWithDefault(ctx, store.SettingSystemMode, "auto")
	if mode == "learn" {
		e.recordTrainingData(ctx, z, now)
	}

	action := e.consultFreeform(ctx, z)
	if action == nil {
		action = e.pidTrim(z, now)
	}
	if action == nil {
		e.log.Debugf("No action for zone %s (%v)", z.ID, attentionReasons(z))
		return
	}
	e.executeAndRecord(ctx, z, action)
}

// pidTrim is the backup actuator for zones carrying a feedback-controlled
// device: a bounded setpoint trim around the target instead of a jump to a
// comfort boundary. Trims below a quarter degree are dropped.
func (e *Engine) pidTrim(z *zone.ZoneState, now time.Time) *control.Action {
	if z.Temperature == nil {
		return nil
	}
	dev := feedbackDevice(z)
	if dev == nil {
		return nil
	}

	target := z.TargetTemperature()
	ctl, ok := e.pids[z.ID]
	if !ok {
		ctl = pid.NewController(1.0, 0.1, 0.05, -pidTrimMaxC, pidTrimMaxC, tickInterval)
		ctl.Autotune(target, *z.Temperature, 0)
		e.pids[z.ID] = ctl
	}

	trim := ctl.Compute(target, *z.Temperature, now)
	if math.Abs(trim) < pidTrimMinMoveC {
		return nil
	}
	return &control.Action{
		ZoneID:   z.ID,
		DeviceID: dev.ID,
		Type:     control.ActionSetTemperature,
		Trigger:  control.TriggerRuleEngine,
		Params:   map[string]float64{"temperature_c": target + trim},
		Reason:   fmt.Sprintf("feedback trim %+.2f°C toward %.1f°C in %s", trim, target, z.Name),
	}
}

func feedbackDevice(z *zone.ZoneState) *zone.DeviceState {
	ids := make([]string, 0, len(z.Devices))
	for id := range z.Devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		d := z.Devices[id]
		if d.ControlMethod == "pid" && d.HasCapability("supports_temperature") {
			return d
		}
	}
	return nil
}

// recordTrainingData refreshes the in-memory thermal estimate and the
// persisted occupancy buckets from the last day of readings.
func (e *Engine) recordTrainingData(ctx context.Context, z *zone.ZoneState, now time.Time) {
	readings, err := e.series.ReadingsBetween(ctx, z.ID, now.Add(-24*time.Hour), now)
	if err != nil {
		e.log.Warnf("Learn mode: cannot read history for %s: %v", z.ID, err)
		return
	}
	e.patterns.LearnThermalProfile(z.ID, readings)
	if _, err := e.patterns.LearnOccupancyPatterns(ctx, z.ID, readings); err != nil {
		e.log.Warnf("Learn mode: occupancy update failed for %s: %v", z.ID, err)
	}
}

func attentionReasons(z *zone.ZoneState) []string {
	var out []string
	for r := range z.Attention {
		out = append(out, r)
	}
	return out
}

// executeAndRecord dispatches the action and appends an audit record
// regardless of dispatch success or failure.
func (e *Engine) executeAndRecord(ctx context.Context, z *zone.ZoneState, a *control.Action) {
	result := e.execute(ctx, z, a)
	metrics.ActionsTotal.WithLabelValues(string(a.Trigger), resultLabel(result)).Inc()

	params, err := json.Marshal(a.Params)
	if err != nil {
		params = []byte("{}")
	}
	var deviceID *string
	if a.DeviceID != "" {
		deviceID = &a.DeviceID
	}
	rec := &store.ActionRecord{
		ID:         uuid.New().String(),
		ZoneID:     a.ZoneID,
		DeviceID:   deviceID,
		Trigger:    string(a.Trigger),
		Action:     string(a.Type),
		Parameters: string(params),
		Result:     result.String(),
		Reasoning:  a.Reason,
		Mode:       e.settings.StringSettingWithDefault(ctx, store.SettingSystemMode, "auto"),
		CreatedAt:  e.now().UTC(),
	}
	if err := e.audit.AppendAction(ctx, rec); err != nil {
		e.log.Errorf("Audit append failed for %s: %v", a.ZoneID, err)
	}

	if result.OK {
		e.log.Infof("Executed %s for zone %s: %s", a.Type, a.ZoneID, a.Reason)
	} else {
		e.log.Warnf("Dispatch failed for zone %s (%s): %s", a.ZoneID, a.Type, result.Detail)
	}
}

func resultLabel(r hass.CommandResult) string {
	if r.OK {
		return "ok"
	}
	return "failed"
}

func (e *Engine) execute(ctx context.Context, z *zone.ZoneState, a *control.Action) hass.CommandResult {
	entity := a.DeviceID
	if entity == "" {
		var ok bool
		entity, ok = e.settings.StringSetting(ctx, store.SettingClimateEntity)
		if !ok {
			return hass.CommandResult{OK: false, Detail: "no climate entity configured"}
		}
	}

	if z != nil {
		if dev, ok := z.Devices[a.DeviceID]; ok {
			if err := e.rules.CheckSafetyConstraints(dev, a); err != nil {
				return hass.CommandResult{OK: false, Detail: err.Error()}
			}
		}
	}

	switch a.Type {
	case control.ActionSetTemperature:
		t := a.Params["temperature_c"]
		minC := e.settings.FloatSettingWithDefault(ctx, store.SettingSafetyMinTempC, safetyMinDefaultC)
		maxC := e.settings.FloatSettingWithDefault(ctx, store.SettingSafetyMaxTempC, safetyMaxDefaultC)
		clamped := comp.Clamp(t, minC, maxC)
		if clamped != t {
			e.log.Warnf("Safety clamp before dispatch: %.2f°C -> %.2f°C", t, clamped)
		}
		return e.dispatcher.SetTemperature(ctx, entity, clamped)
	case control.ActionTurnOn:
		res := e.dispatcher.TurnOn(ctx, entity)
		if res.OK && z != nil {
			if dev, ok := z.Devices[a.DeviceID]; ok {
				dev.Running = true
				dev.LastRun = e.now()
			}
		}
		return res
	case control.ActionTurnOff:
		res := e.dispatcher.TurnOff(ctx, entity)
		if res.OK && z != nil {
			if dev, ok := z.Devices[a.DeviceID]; ok {
				dev.Running = false
			}
		}
		return res
	case control.ActionSetMode:
		mode := "auto"
		if a.Params["heat"] > 0 {
			mode = "heat"
		} else if a.Params["cool"] > 0 {
			mode = "cool"
		}
		return e.dispatcher.SetHVACMode(ctx, entity, mode)
	default:
		return hass.CommandResult{OK: false, Detail: "unsupported action type: " + string(a.Type)}
	}
}
