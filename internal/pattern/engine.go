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

// Package pattern turns raw occupancy history into per-(weekday, 5-minute
// slot) probability tables and raw thermal history into coarse warming and
// cooling rate estimates.
package pattern

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"thermozone/internal/logger"
	"thermozone/internal/store"

	"go.uber.org/zap"
)

const (
	maxSampleAge = 30 * 24 * time.Hour

	preconditionMinMinutes = 5.0
	preconditionMaxMinutes = 120.0
)

// ThermalEstimate is the coarse per-zone result of learn-mode thermal
// observation: mean per-minute deltas split by sign.
type ThermalEstimate struct {
	HeatingDeltaPerMin float64
	CoolingDeltaPerMin float64
	// HeatCapacity is a unitless inverse of the heating delta; larger means
	// the zone is slower to warm.
	HeatCapacity float64
}

type Engine struct {
	store *store.Store
	log   *zap.SugaredLogger
	now   func() time.Time

	mu              sync.Mutex
	thermal         map[string]ThermalEstimate
	preconditioning map[string]float64
}

func NewEngine(s *store.Store) *Engine {
	return &Engine{
		store:           s,
		log:             logger.Named("pattern"),
		now:             time.Now,
		thermal:         make(map[string]ThermalEstimate),
		preconditioning: make(map[string]float64),
	}
}

// BucketKey is `{day-abbrev}:{slot}` where slot = hour*12 + minute/5.
func BucketKey(t time.Time) string {
	return fmt.Sprintf("%s:%d", t.Weekday().String()[:3], t.Hour()*12+t.Minute()/5)
}

func Season(t time.Time) string {
	switch t.Month() {
	case time.December, time.January, time.February:
		return "winter"
	case time.March, time.April, time.May:
		return "spring"
	case time.June, time.July, time.August:
		return "summer"
	default:
		return "autumn"
	}
}

// LearnOccupancyPatterns rebuilds the zone's occupancy probability table from
// presence readings. Samples older than 30 days are discarded; bucket values
// are the mean of 0/1 samples rounded to 3 decimals. The table is persisted
// keyed by zone, pattern type and current season, with confidence set to the
// mean of all bucket probabilities.
func (e *Engine) LearnOccupancyPatterns(ctx context.Context, zoneID string, readings []store.Reading) (*store.PatternRecord, error) {
	cutoff := e.now().Add(-maxSampleAge)

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range readings {
		if r.Presence == nil || r.TakenAt.Before(cutoff) {
			continue
		}
		key := BucketKey(r.TakenAt)
		if *r.Presence {
			sums[key]++
		}
		counts[key]++
	}

	buckets := make(map[string]float64, len(counts))
	var total float64
	for key, n := range counts {
		p := math.Round(sums[key]/float64(n)*1000) / 1000
		buckets[key] = p
		total += p
	}

	confidence := 0.0
	if len(buckets) > 0 {
		confidence = total / float64(len(buckets))
	}

	rec := &store.PatternRecord{
		ZoneID:      zoneID,
		PatternType: store.PatternOccupancy,
		Season:      Season(e.now()),
		Buckets:     buckets,
		Confidence:  confidence,
		UpdatedAt:   e.now().UTC(),
	}
	if err := e.store.UpsertPattern(ctx, rec); err != nil {
		return nil, err
	}
	e.log.Debugf("Learned %d occupancy buckets for `%s` (confidence %.3f)", len(buckets), zoneID, confidence)
	return rec, nil
}

// LearnThermalProfile derives mean per-minute temperature deltas from
// consecutive readings at least one minute apart. Positive deltas average
// into the heating signal, negative into cooling.
func (e *Engine) LearnThermalProfile(zoneID string, readings []store.Reading) ThermalEstimate {
	var heatSum, coolSum float64
	var heatN, coolN int

	var prev *store.Reading
	for i := range readings {
		r := &readings[i]
		if r.Temperature == nil {
			continue
		}
		if prev != nil {
			gap := r.TakenAt.Sub(prev.TakenAt)
			if gap >= time.Minute {
				perMin := (*r.Temperature - *prev.Temperature) / gap.Minutes()
				if perMin > 0 {
					heatSum += perMin
					heatN++
				} else if perMin < 0 {
					coolSum += perMin
					coolN++
				}
			}
		}
		prev = r
	}

	est := ThermalEstimate{}
	if heatN > 0 {
		est.HeatingDeltaPerMin = heatSum / float64(heatN)
		est.HeatCapacity = 1.0 / est.HeatingDeltaPerMin
	}
	if coolN > 0 {
		est.CoolingDeltaPerMin = coolSum / float64(coolN)
	}

	e.mu.Lock()
	e.thermal[zoneID] = est
	delete(e.preconditioning, zoneID)
	e.mu.Unlock()

	return est
}

// PredictOccupancy reads the last-learned table for the zone.
func (e *Engine) PredictOccupancy(ctx context.Context, zoneID string, at time.Time) (float64, bool) {
	rec, ok := e.store.PatternFor(ctx, zoneID, store.PatternOccupancy, Season(e.now()))
	if !ok {
		return 0, false
	}
	p, ok := rec.Buckets[BucketKey(at)]
	return p, ok
}

// PreconditioningTime returns how many minutes of lead the zone needs before
// expected occupancy: clamp(1.5/rate, 5, 120). Computed once per zone and
// cached until the thermal estimate is relearned.
func (e *Engine) PreconditioningTime(zoneID string) (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if m, ok := e.preconditioning[zoneID]; ok {
		return m, true
	}
	est, ok := e.thermal[zoneID]
	if !ok || est.HeatingDeltaPerMin <= 0 {
		return 0, false
	}

	minutes := 1.5 / est.HeatingDeltaPerMin
	minutes = math.Max(preconditionMinMinutes, math.Min(preconditionMaxMinutes, minutes))
	e.preconditioning[zoneID] = minutes
	return minutes, true
}
