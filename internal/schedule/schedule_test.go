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

package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "06:30", want: 390},
		{in: "23:59", want: 1439},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noonish", wantErr: true},
		{in: "12", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func weekSchedule() *Schedule {
	return &Schedule{
		ID:      "main",
		ZoneIDs: []string{"living"},
		Entries: []Entry{
			{Days: Weekday, Period: PeriodWake, StartMin: 6 * 60, EndMin: 8 * 60, HeatC: 21, CoolC: 24},
			{Days: Weekday, Period: PeriodAway, StartMin: 8 * 60, EndMin: 17 * 60, HeatC: 18, CoolC: 27},
			{Days: Weekday, Period: PeriodSleep, StartMin: 22 * 60, EndMin: 23*60 + 59, HeatC: 17, CoolC: 26},
			{Days: Weekend, Period: PeriodHome, StartMin: 8 * 60, EndMin: 22 * 60, HeatC: 21, CoolC: 25},
		},
	}
}

func TestCurrentPeriod(t *testing.T) {
	s := weekSchedule()

	t.Run("matching window", func(t *testing.T) {
		// Tuesday 07:00
		e, ok := s.CurrentPeriod(time.Date(2026, 2, 10, 7, 0, 0, 0, time.UTC))
		require.True(t, ok)
		assert.Equal(t, PeriodWake, e.Period)
	})

	t.Run("end is exclusive", func(t *testing.T) {
		e, ok := s.CurrentPeriod(time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC))
		require.True(t, ok)
		assert.Equal(t, PeriodAway, e.Period, "08:00 belongs to the next window")
	})

	t.Run("gap falls back to last entry of the bucket", func(t *testing.T) {
		// Tuesday 19:00: between away and sleep
		e, ok := s.CurrentPeriod(time.Date(2026, 2, 10, 19, 0, 0, 0, time.UTC))
		require.True(t, ok)
		assert.Equal(t, PeriodSleep, e.Period)
	})

	t.Run("weekend bucket selected on saturday", func(t *testing.T) {
		e, ok := s.CurrentPeriod(time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC))
		require.True(t, ok)
		assert.Equal(t, PeriodHome, e.Period)
	})

	t.Run("no wrap past midnight", func(t *testing.T) {
		// Tuesday 02:00: sleep ended at 23:59 yesterday; fallback is the last
		// weekday entry, not a wrapped window
		e, ok := s.CurrentPeriod(time.Date(2026, 2, 10, 2, 0, 0, 0, time.UTC))
		require.True(t, ok)
		assert.Equal(t, PeriodSleep, e.Period)
	})

	t.Run("empty bucket yields nothing", func(t *testing.T) {
		weekdayOnly := &Schedule{Entries: []Entry{
			{Days: Weekday, Period: PeriodHome, StartMin: 0, EndMin: 24 * 60},
		}}
		_, ok := weekdayOnly.CurrentPeriod(time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC))
		assert.False(t, ok)
	})
}

func TestDesiredFor(t *testing.T) {
	e := Entry{HeatC: 21, CoolC: 25}
	assert.Equal(t, 21.0, e.DesiredFor("heat"))
	assert.Equal(t, 21.0, e.DesiredFor("heat_cool"))
	assert.Equal(t, 25.0, e.DesiredFor("cool"))
	assert.Equal(t, 25.0, e.DesiredFor("auto"))
}
