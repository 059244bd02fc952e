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

	"github.com/pkg/errors"
)

// Well-known setting names. Values are stored wrapped as {"value": <scalar>};
// an absent row means "not configured", never an error.
const (
	SettingMaxTempOffsetF   = "max_temp_offset_f"
	SettingAdvisorEnabled   = "ai_advisor_enabled"
	SettingWeatherEntity    = "weather_entity"
	SettingClimateEntity    = "climate_entities"
	SettingSystemMode       = "system_mode"
	SettingSafetyMinTempC   = "safety_min_temp_c"
	SettingSafetyMaxTempC   = "safety_max_temp_c"
	SettingOccupancySetback = "occupancy_setback_c"
)

type settingWrapper struct {
	Value json.RawMessage `json:"value"`
}

func (s *Store) SetSetting(ctx context.Context, name string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "marshal setting %s", name)
	}
	wrapped, err := json.Marshal(settingWrapper{Value: raw})
	if err != nil {
		return errors.Wrapf(err, "wrap setting %s", name)
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO settings (name, value) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
		name, string(wrapped),
	)
	return errors.Wrapf(err, "upsert setting %s", name)
}

func (s *Store) getSettingRaw(ctx context.Context, name string) (json.RawMessage, bool) {
	var raw string
	err := s.db.GetContext(ctx, &raw, `SELECT value FROM settings WHERE name = ?`, name)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		return nil, false
	}
	var w settingWrapper
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return nil, false
	}
	return w.Value, true
}

func (s *Store) FloatSetting(ctx context.Context, name string) (float64, bool) {
	raw, ok := s.getSettingRaw(ctx, name)
	if !ok {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, true
}

func (s *Store) BoolSetting(ctx context.Context, name string) (bool, bool) {
	raw, ok := s.getSettingRaw(ctx, name)
	if !ok {
		return false, false
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, false
	}
	return v, true
}

func (s *Store) StringSetting(ctx context.Context, name string) (string, bool) {
	raw, ok := s.getSettingRaw(ctx, name)
	if !ok {
		return "", false
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	return v, true
}

func (s *Store) FloatSettingWithDefault(ctx context.Context, name string, def float64) float64 {
	if v, ok := s.FloatSetting(ctx, name); ok {
		return v
	}
	return def
}

func (s *Store) BoolSettingWithDefault(ctx context.Context, name string, def bool) bool {
	if v, ok := s.BoolSetting(ctx, name); ok {
		return v
	}
	return def
}

func (s *Store) StringSettingWithDefault(ctx context.Context, name, def string) string {
	if v, ok := s.StringSetting(ctx, name); ok {
		return v
	}
	return def
}
