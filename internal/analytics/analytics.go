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

// Package analytics mines 30 days of readings and audit rows into per-zone
// thermal profiles, replaced wholesale every cycle.
package analytics

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"thermozone/internal/logger"
	"thermozone/internal/store"
	"thermozone/internal/zone"

	"go.uber.org/zap"
)

const (
	runInterval    = 4 * time.Hour
	analysisWindow = 30 * 24 * time.Hour

	// fewer qualifying samples than this and the zone is skipped outright:
	// a profile from a handful of points is worse than none
	minReadings = 12

	// rate estimation pairs each sample with the closest one 15 minutes ahead
	forwardDelta     = 15 * time.Minute
	forwardTolerance = 5 * time.Minute

	// response lag: first move of at least 0.3°C within 45 minutes of a
	// setpoint command
	responseMoveC  = 0.3
	responseWindow = 45 * time.Minute

	// illuminance at or below this is "dark" for the occupancy blend
	darkLux = 10.0

	presenceWeight    = 0.7
	illuminanceWeight = 0.3

	windowThreshold = 0.6
)

// Store is the persistence slice the miner consumes and feeds.
type Store interface {
	ReadingsBetween(ctx context.Context, zoneID string, from, to time.Time) ([]store.Reading, error)
	SetpointActions(ctx context.Context, zoneID string, from, to time.Time) ([]store.ActionRecord, error)
	UpsertThermalProfile(ctx context.Context, zoneID string, p *store.ThermalProfile) error
	PruneReadings(ctx context.Context, cutoff time.Time) (int64, error)
}

// OccupancyLearner rebuilds the persisted occupancy probability table.
type OccupancyLearner interface {
	LearnOccupancyPatterns(ctx context.Context, zoneID string, readings []store.Reading) (*store.PatternRecord, error)
}

// ZoneLister enumerates the zones to analyze.
type ZoneLister interface {
	Zones() []*zone.ZoneState
}

type Miner struct {
	store    Store
	zones    ZoneLister
	patterns OccupancyLearner
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewMiner(s Store, zones ZoneLister, patterns OccupancyLearner) *Miner {
	return &Miner{
		store:    s,
		zones:    zones,
		patterns: patterns,
		log:      logger.Named("analytics"),
		now:      time.Now,
	}
}

// Run executes one cycle immediately and then every four hours until the
// context is cancelled.
func (m *Miner) Run(ctx context.Context) {
	m.RunOnce(ctx)

	ticker := time.NewTicker(runInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.RunOnce(ctx)
		}
	}
}

// RunOnce rebuilds every zone's profile and occupancy table, then prunes
// readings beyond the 30-day window.
func (m *Miner) RunOnce(ctx context.Context) {
	now := m.now()
	for _, z := range m.zones.Zones() {
		if err := m.analyzeZone(ctx, z.ID, now); err != nil {
			m.log.Warnf("Analytics for zone %s failed: %v", z.ID, err)
		}
	}

	if n, err := m.store.PruneReadings(ctx, now.Add(-analysisWindow)); err != nil {
		m.log.Warnf("Reading prune failed: %v", err)
	} else if n > 0 {
		m.log.Debugf("Pruned %d readings beyond the analysis window", n)
	}
}

func (m *Miner) analyzeZone(ctx context.Context, zoneID string, now time.Time) error {
	from := now.Add(-analysisWindow)
	readings, err := m.store.ReadingsBetween(ctx, zoneID, from, now)
	if err != nil {
		return err
	}

	if _, err := m.patterns.LearnOccupancyPatterns(ctx, zoneID, readings); err != nil {
		m.log.Warnf("Occupancy learning for zone %s failed: %v", zoneID, err)
	}

	temps := temperatureSamples(readings)
	if len(temps) < minReadings {
		m.log.Debugf("Zone %s has %d temperature samples, skipping profile", zoneID, len(temps))
		return nil
	}

	actions, err := m.store.SetpointActions(ctx, zoneID, from, now)
	if err != nil {
		return err
	}

	profile := &store.ThermalProfile{
		DataAgeDays: now.Sub(temps[0].at).Hours() / 24,
	}
	profile.HeatingRateC, profile.CoolingRateC = rates(temps)
	profile.ResponseLagMin = responseLag(actions, temps)
	profile.OvershootC = overshoot(actions, temps)
	profile.OccupancyByHour = occupancyByHour(readings)
	profile.SleepWindow = detectWindow(profile.OccupancyByHour, 21, 9)
	profile.NapWindow = detectWindow(profile.OccupancyByHour, 12, 17)

	if err := m.store.UpsertThermalProfile(ctx, zoneID, profile); err != nil {
		return err
	}
	m.log.Infof(
		"Zone %s profile: heat %.2f°C/h cool %.2f°C/h lag %.0fmin overshoot %.2f°C",
		zoneID, profile.HeatingRateC, profile.CoolingRateC, profile.ResponseLagMin, profile.OvershootC,
	)
	return nil
}

type tempSample struct {
	at time.Time
	c  float64
}

func temperatureSamples(readings []store.Reading) []tempSample {
	var out []tempSample
	for _, r := range readings {
		if r.Temperature != nil {
			out = append(out, tempSample{at: r.TakenAt, c: *r.Temperature})
		}
	}
	return out
}

// rates pairs each sample with the closest sample 15 minutes ahead (within a
// 5-minute tolerance) and averages positive deltas into the heating rate and
// negative deltas into the cooling rate, both expressed in °C/h.
func rates(temps []tempSample) (heatingCPerH, coolingCPerH float64) {
	var heatSum, coolSum float64
	var heatN, coolN int

	j := 0
	for i, s := range temps {
		target := s.at.Add(forwardDelta)
		if j <= i {
			j = i + 1
		}
		for j < len(temps) && temps[j].at.Before(target) {
			j++
		}
		if j >= len(temps) || temps[j].at.Sub(target) > forwardTolerance {
			continue
		}

		hours := temps[j].at.Sub(s.at).Hours()
		if hours <= 0 {
			continue
		}
		rate := (temps[j].c - s.c) / hours
		if rate > 0 {
			heatSum += rate
			heatN++
		} else if rate < 0 {
			coolSum += -rate
			coolN++
		}
	}

	if heatN > 0 {
		heatingCPerH = heatSum / float64(heatN)
	}
	if coolN > 0 {
		coolingCPerH = coolSum / float64(coolN)
	}
	return heatingCPerH, coolingCPerH
}

// responseLag measures, per setpoint command, the minutes until the zone
// first moved 0.3°C off its temperature at command time, capped at 45
// minutes. Commands with no qualifying move contribute nothing.
func responseLag(actions []store.ActionRecord, temps []tempSample) float64 {
	var sum float64
	var n int

	for _, a := range actions {
		base, ok := temperatureAt(temps, a.CreatedAt)
		if !ok {
			continue
		}
		deadline := a.CreatedAt.Add(responseWindow)
		for _, s := range temps {
			if s.at.Before(a.CreatedAt) {
				continue
			}
			if s.at.After(deadline) {
				break
			}
			if math.Abs(s.c-base) >= responseMoveC {
				sum += s.at.Sub(a.CreatedAt).Minutes()
				n++
				break
			}
		}
	}

	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// overshoot averages, per setpoint command, how far past the commanded
// target the zone peaked before the next command.
func overshoot(actions []store.ActionRecord, temps []tempSample) float64 {
	var sum float64
	var n int

	for i, a := range actions {
		target, ok := commandedTarget(a)
		if !ok {
			continue
		}
		end := time.Time{}
		if i+1 < len(actions) {
			end = actions[i+1].CreatedAt
		}

		peak := math.Inf(-1)
		for _, s := range temps {
			if s.at.Before(a.CreatedAt) {
				continue
			}
			if !end.IsZero() && s.at.After(end) {
				break
			}
			peak = math.Max(peak, s.c)
		}
		if math.IsInf(peak, -1) {
			continue
		}
		if over := peak - target; over > 0 {
			sum += over
			n++
		}
	}

	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func commandedTarget(a store.ActionRecord) (float64, bool) {
	var params map[string]float64
	if err := json.Unmarshal([]byte(a.Parameters), &params); err != nil {
		return 0, false
	}
	t, ok := params["temperature_c"]
	return t, ok
}

// temperatureAt returns the last sample at or before the instant.
func temperatureAt(temps []tempSample, at time.Time) (float64, bool) {
	var last *tempSample
	for i := range temps {
		if temps[i].at.After(at) {
			break
		}
		last = &temps[i]
	}
	if last == nil {
		return 0, false
	}
	return last.c, true
}

// occupancyByHour blends presence (70%) and illuminance (30%) per hour of
// day. A reading counts toward the illuminance signal as occupied when it is
// brighter than 10 lux.
func occupancyByHour(readings []store.Reading) [24]float64 {
	var presSum, presN, luxSum, luxN [24]float64

	for _, r := range readings {
		h := r.TakenAt.Hour()
		if r.Presence != nil {
			if *r.Presence {
				presSum[h]++
			}
			presN[h]++
		}
		if r.Illuminance != nil {
			if *r.Illuminance > darkLux {
				luxSum[h]++
			}
			luxN[h]++
		}
	}

	var out [24]float64
	for h := 0; h < 24; h++ {
		var score, weight float64
		if presN[h] > 0 {
			score += presenceWeight * (presSum[h] / presN[h])
			weight += presenceWeight
		}
		if luxN[h] > 0 {
			score += illuminanceWeight * (luxSum[h] / luxN[h])
			weight += illuminanceWeight
		}
		if weight > 0 {
			out[h] = math.Round(score/weight*1000) / 1000
		}
	}
	return out
}

// detectWindow finds the longest contiguous run of hours at or above the
// occupancy threshold inside [startHour, endHour), scanning through midnight
// when the range wraps. Runs shorter than an hour are not reported.
func detectWindow(occ [24]float64, startHour, endHour int) *store.DetectedWindow {
	span := endHour - startHour
	if span <= 0 {
		span += 24
	}

	bestStart, bestLen := -1, 0
	runStart, runLen := -1, 0
	for i := 0; i <= span; i++ {
		h := (startHour + i) % 24
		if i < span && occ[h] >= windowThreshold {
			if runLen == 0 {
				runStart = h
			}
			runLen++
			continue
		}
		if runLen > bestLen {
			bestStart, bestLen = runStart, runLen
		}
		runLen = 0
	}

	if bestLen == 0 {
		return nil
	}
	return &store.DetectedWindow{
		StartHour: bestStart,
		EndHour:   (bestStart + bestLen) % 24,
	}
}
