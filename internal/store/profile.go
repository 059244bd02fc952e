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

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// ThermalProfile is the per-zone blob produced wholesale by zone analytics
// every four hours. It is replaced atomically, never merged.
type ThermalProfile struct {
	HeatingRateC    float64         `json:"heating_rate_c_per_h"`
	CoolingRateC    float64         `json:"cooling_rate_c_per_h"`
	ResponseLagMin  float64         `json:"response_lag_minutes"`
	OvershootC      float64         `json:"typical_overshoot_c"`
	OccupancyByHour [24]float64     `json:"occupancy_by_hour"`
	SleepWindow     *DetectedWindow `json:"sleep_window,omitempty"`
	NapWindow       *DetectedWindow `json:"nap_window,omitempty"`
	DataAgeDays     float64         `json:"data_age_days"`
}

type DetectedWindow struct {
	StartHour int `json:"start_hour"`
	EndHour   int `json:"end_hour"`
}

func (s *Store) UpsertThermalProfile(ctx context.Context, zoneID string, p *ThermalProfile) error {
	blob, err := json.Marshal(p)
	if err != nil {
		return errors.Wrapf(err, "marshal thermal profile for %s", zoneID)
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO thermal_profiles (zone_id, profile, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(zone_id) DO UPDATE SET profile = excluded.profile, updated_at = excluded.updated_at`,
		zoneID, string(blob), time.Now().UTC(),
	)
	return errors.Wrapf(err, "upsert thermal profile for %s", zoneID)
}

func (s *Store) ThermalProfileFor(ctx context.Context, zoneID string) (*ThermalProfile, bool) {
	var blob string
	err := s.db.GetContext(ctx, &blob, `SELECT profile FROM thermal_profiles WHERE zone_id = ?`, zoneID)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		return nil, false
	}
	var p ThermalProfile
	if err := json.Unmarshal([]byte(blob), &p); err != nil {
		return nil, false
	}
	return &p, true
}
