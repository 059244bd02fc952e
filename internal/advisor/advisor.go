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

// Package advisor decides, on each maintenance tick where the formula
// proposes a change, whether to apply it as-is, modify it, or defer, by
// consulting an LLM. The final answer always passes the deterministic
// safety vet; the LLM is a peer advisor, never an authority.
package advisor

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"thermozone/internal/comp"
	"thermozone/internal/logger"
	"thermozone/internal/llm"
	"thermozone/internal/metrics"
	"thermozone/internal/store"

	"go.uber.org/zap"
)

const (
	cacheMaxAge = 10 * time.Minute
	// cached non-wait decisions are invalidated once the zone average has
	// moved a whole Fahrenheit degree
	movementGuardC = 1.0 * 5.0 / 9.0

	defaultWaitMinutes = 15.0
)

// Series is the time-series/audit/profile slice of the store the advisor
// consults for context assembly.
type Series interface {
	BucketAverages(ctx context.Context, zoneID string, from, to time.Time, bucket time.Duration) ([]store.BucketAverage, error)
	RecentActions(ctx context.Context, zoneID string, limit int) ([]store.ActionRecord, error)
	ThermalProfileFor(ctx context.Context, zoneID string) (*store.ThermalProfile, bool)
}

// Settings is the scalar settings contract.
type Settings interface {
	BoolSettingWithDefault(ctx context.Context, name string, def bool) bool
	FloatSettingWithDefault(ctx context.Context, name string, def float64) float64
	StringSetting(ctx context.Context, name string) (string, bool)
}

// WeatherReader resolves outdoor conditions for the prompt.
type WeatherReader interface {
	OutdoorConditions(ctx context.Context, weatherEntity string) (string, bool)
}

type cacheEntry struct {
	decision Decision
	at       time.Time
	zoneAvgC float64
}

// Advisor owns its decision cache explicitly (one instance per process,
// passed by reference) instead of hiding it in package state.
type Advisor struct {
	settings Settings
	series   Series
	weather  WeatherReader
	chat     llm.ChatClient
	log      *zap.SugaredLogger
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

func New(settings Settings, series Series, weather WeatherReader, chat llm.ChatClient) *Advisor {
	return &Advisor{
		settings: settings,
		series:   series,
		weather:  weather,
		chat:     chat,
		log:      logger.Named("advisor"),
		now:      time.Now,
		cache:    make(map[string]cacheEntry),
	}
}

// Advise runs the per-schedule decision protocol: disabled gate, cache
// check, LLM consultation, safety vet. It never returns an unvetted
// decision and never propagates consult failures to the caller.
//
// The cache is keyed per schedule id; concurrent calls for the same id are
// not mutually exclusive, so two simultaneous misses may both consult the
// LLM. Last write wins.
func (a *Advisor) Advise(ctx context.Context, req Request) Decision {
	now := a.now()

	if !a.settings.BoolSettingWithDefault(ctx, store.SettingAdvisorEnabled, true) {
		return a.formulaDecision(req, "advisor disabled")
	}

	if cached, ok := a.cachedDecision(req, now); ok {
		return cached
	}

	maxOffsetF := a.settings.FloatSettingWithDefault(ctx, store.SettingMaxTempOffsetF, comp.DefaultMaxOffsetF)

	decision := a.consult(ctx, req, now)
	decision = VetDecision(decision, req.DesiredC, maxOffsetF, now)

	a.mu.Lock()
	a.cache[req.ScheduleID] = cacheEntry{decision: decision, at: now, zoneAvgC: req.ZoneAvgC}
	a.mu.Unlock()

	return decision
}

// formulaDecision is the deterministic fallback: the compensation result,
// never cached.
func (a *Advisor) formulaDecision(req Request, why string) Decision {
	action := ActionHold
	if req.FormulaC != req.DesiredC {
		action = ActionAdjust
	}
	return Decision{
		Action:    action,
		SetpointC: req.FormulaC,
		Reasoning: why,
		FromLLM:   false,
	}
}

// cachedDecision applies the reuse rules: an active wait is honored verbatim
// until its deadline regardless of any other staleness measure; otherwise a
// decision survives while younger than 10 minutes and the zone average has
// moved less than 1°F since it was made.
func (a *Advisor) cachedDecision(req Request, now time.Time) (Decision, bool) {
	a.mu.Lock()
	entry, ok := a.cache[req.ScheduleID]
	a.mu.Unlock()
	if !ok {
		return Decision{}, false
	}

	if entry.decision.Action == ActionWait && now.Before(entry.decision.WaitUntil) {
		a.log.Debugf("Honoring wait for schedule %s until %v", req.ScheduleID, entry.decision.WaitUntil)
		return entry.decision, true
	}

	if now.Sub(entry.at) < cacheMaxAge && math.Abs(req.ZoneAvgC-entry.zoneAvgC) < movementGuardC {
		return entry.decision, true
	}
	return Decision{}, false
}

func (a *Advisor) consult(ctx context.Context, req Request, now time.Time) Decision {
	content, err := a.chat.Chat(ctx, []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: a.buildContext(ctx, req, now)},
	})
	if err != nil {
		metrics.AdvisorFallbacks.Inc()
		a.log.Warnf("LLM consult failed for schedule %s, using formula: %v", req.ScheduleID, err)
		return a.formulaDecision(req, "llm unavailable")
	}
	metrics.AdvisorConsults.Inc()

	reply, err := parseReply(content)
	if err != nil {
		metrics.AdvisorFallbacks.Inc()
		a.log.Warnf("Unparseable LLM reply for schedule %s, using formula: %v", req.ScheduleID, err)
		return a.formulaDecision(req, "llm reply unparseable")
	}

	return a.decisionFromReply(reply, req, now)
}

func (a *Advisor) decisionFromReply(reply *llmReply, req Request, now time.Time) Decision {
	d := Decision{
		Action:    normalizedAction(reply.Action),
		SetpointC: req.FormulaC,
		Reasoning: truncateReasoning(reply.Reasoning),
		FromLLM:   true,
	}

	switch d.Action {
	case ActionAdjust:
		if f, ok := numeric(reply.SetpointF); ok {
			d.SetpointC = comp.FToC(f)
		}
	case ActionWait:
		minutes := defaultWaitMinutes
		if m, ok := numeric(reply.WaitMinutes); ok {
			minutes = m
		}
		minutes = comp.Clamp(minutes, 5, 30)
		d.WaitUntil = now.Add(time.Duration(minutes * float64(time.Minute)))
	}
	return d
}

var systemPrompt = fmt.Sprintf(`You are a home HVAC advisor. Given the zone trends, thermal profile and
current setpoint proposal, answer with a single JSON object:
{"action": "adjust"|"hold"|"wait", "setpoint_f": number, "wait_minutes": number, "reasoning": "short text"}
setpoint_f only for adjust, wait_minutes (5-%d) only for wait. Keep reasoning under %d characters.`,
	30, maxReasoningLen)
