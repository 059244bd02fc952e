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
	"context"
	"fmt"
	"strings"
	"time"

	"thermozone/internal/store"
	"thermozone/internal/zone"
)

const (
	shortTrendSpan   = 2 * time.Hour
	shortTrendBucket = 5 * time.Minute
	longTrendSpan    = 48 * time.Hour
	longTrendBucket  = time.Hour
	rateWindow       = 30 * time.Minute
)

// buildContext assembles the consultation prompt body: short and long trend
// buckets, the trailing rate of change, the thermal profile, outdoor
// weather and recent thermostat actions.
func (a *Advisor) buildContext(ctx context.Context, req Request, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Desired temperature: %.1f°C\n", req.DesiredC)
	fmt.Fprintf(&b, "Formula-adjusted setpoint: %.1f°C (offset %.2f°C)\n", req.FormulaC, req.OffsetC)
	fmt.Fprintf(&b, "Current zone average: %.1f°C\n", req.ZoneAvgC)
	fmt.Fprintf(&b, "HVAC mode: %s\n", req.HVACMode)

	primary := ""
	if len(req.ZoneIDs) > 0 {
		primary = req.ZoneIDs[0]
	}
	if primary == "" {
		return b.String()
	}

	short, err := a.series.BucketAverages(ctx, primary, now.Add(-shortTrendSpan), now, shortTrendBucket)
	if err == nil && len(short) > 0 {
		fmt.Fprintf(&b, "Recent 2h trend (5-min buckets): %s\n", formatBuckets(short, 24))
		if rate, ok := trailingRate(short, now); ok {
			fmt.Fprintf(&b, "Rate of change over last 30min: %+.2f°C/h\n", rate)
		}
	}
	long, err := a.series.BucketAverages(ctx, primary, now.Add(-longTrendSpan), now, longTrendBucket)
	if err == nil && len(long) > 0 {
		fmt.Fprintf(&b, "48h hourly trend: %s\n", formatBuckets(long, 48))
	}

	if profile, ok := a.series.ThermalProfileFor(ctx, primary); ok {
		fmt.Fprintf(
			&b,
			"Thermal profile: heats %.2f°C/h, cools %.2f°C/h, lag %.0fmin, overshoot %.1f°C, data age %.0fd\n",
			profile.HeatingRateC, profile.CoolingRateC, profile.ResponseLagMin, profile.OvershootC, profile.DataAgeDays,
		)
	}

	if entity, ok := a.settings.StringSetting(ctx, store.SettingWeatherEntity); ok {
		if weather, ok := a.weather.OutdoorConditions(ctx, entity); ok {
			fmt.Fprintf(&b, "Outdoor: %s\n", weather)
		}
	}

	if actions, err := a.series.RecentActions(ctx, primary, 5); err == nil && len(actions) > 0 {
		fmt.Fprintf(&b, "Time since last thermostat action: %s\n", now.Sub(actions[0].CreatedAt).Round(time.Minute))
		fmt.Fprintf(&b, "Recent actions:\n")
		for _, rec := range actions {
			fmt.Fprintf(&b, "  - %s %s (%s) %s\n", rec.CreatedAt.Format("15:04"), rec.Action, rec.Trigger, rec.Result)
		}
	}

	return b.String()
}

func formatBuckets(buckets []store.BucketAverage, max int) string {
	if len(buckets) > max {
		buckets = buckets[len(buckets)-max:]
	}
	parts := make([]string, 0, len(buckets))
	for _, bk := range buckets {
		parts = append(parts, fmt.Sprintf("%.1f", bk.Temperature))
	}
	return strings.Join(parts, " ")
}

// trailingRate runs a linear regression over the buckets inside the trailing
// 30-minute window.
func trailingRate(buckets []store.BucketAverage, now time.Time) (float64, bool) {
	cutoff := now.Add(-rateWindow)
	var pts []zone.Sample
	for _, bk := range buckets {
		if !bk.BucketStart.Before(cutoff) {
			pts = append(pts, zone.Sample{At: bk.BucketStart, Temperature: bk.Temperature})
		}
	}
	return zone.RegressionRate(pts)
}
