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

// Package schedule holds the internal representation of a schedule document:
// per-day-bucket period windows with heat and cool targets.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type DayBucket string

const (
	Weekday DayBucket = "weekday"
	Weekend DayBucket = "weekend"
)

type Period string

const (
	PeriodWake  Period = "wake"
	PeriodHome  Period = "home"
	PeriodAway  Period = "away"
	PeriodSleep Period = "sleep"
)

// Entry is one period window. Start and End are minutes of day; End is
// exclusive.
type Entry struct {
	Days     DayBucket
	Period   Period
	StartMin int
	EndMin   int
	HeatC    float64
	CoolC    float64
}

// Schedule is one named document scoped to an explicit zone list. Entries
// are derived once from the document and only queried afterwards.
type Schedule struct {
	ID      string
	ZoneIDs []string
	Entries []Entry
}

// ParseClock converts "HH:MM" to minutes of day.
func ParseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("bad clock value %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("bad hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad minute in %q", s)
	}
	return h*60 + m, nil
}

func bucketFor(t time.Time) DayBucket {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return Weekend
	default:
		return Weekday
	}
}

// CurrentPeriod returns the entry whose window contains now, scanning only
// today's day bucket. When no window matches, the last entry of today's
// bucket is used as fallback. Windows that started yesterday and wrap past
// midnight are deliberately not considered.
func (s *Schedule) CurrentPeriod(now time.Time) (Entry, bool) {
	bucket := bucketFor(now)
	minute := now.Hour()*60 + now.Minute()

	var last *Entry
	for i := range s.Entries {
		e := &s.Entries[i]
		if e.Days != bucket {
			continue
		}
		if minute >= e.StartMin && minute < e.EndMin {
			return *e, true
		}
		last = e
	}
	if last != nil {
		return *last, true
	}
	return Entry{}, false
}

// DesiredFor picks the period's target for the HVAC mode: the heat target
// in any heating mode, the cool target otherwise.
func (e Entry) DesiredFor(hvacMode string) float64 {
	if strings.Contains(strings.ToLower(hvacMode), "heat") {
		return e.HeatC
	}
	return e.CoolC
}
