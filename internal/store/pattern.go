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

const (
	PatternOccupancy = "occupancy"
	PatternThermal   = "thermal"
)

// PatternRecord is one learned pattern table, keyed by zone + type + season.
type PatternRecord struct {
	ZoneID      string             `db:"zone_id"`
	PatternType string             `db:"pattern_type"`
	Season      string             `db:"season"`
	Buckets     map[string]float64 `db:"-"`
	Confidence  float64            `db:"confidence"`
	UpdatedAt   time.Time          `db:"updated_at"`
}

func (s *Store) UpsertPattern(ctx context.Context, rec *PatternRecord) error {
	blob, err := json.Marshal(rec.Buckets)
	if err != nil {
		return errors.Wrapf(err, "marshal pattern buckets for %s", rec.ZoneID)
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO occupancy_patterns (zone_id, pattern_type, season, buckets, confidence, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(zone_id, pattern_type, season) DO UPDATE SET
		   buckets = excluded.buckets,
		   confidence = excluded.confidence,
		   updated_at = excluded.updated_at`,
		rec.ZoneID, rec.PatternType, rec.Season, string(blob), rec.Confidence, rec.UpdatedAt,
	)
	return errors.Wrapf(err, "upsert pattern for %s", rec.ZoneID)
}

func (s *Store) PatternFor(ctx context.Context, zoneID, patternType, season string) (*PatternRecord, bool) {
	row := struct {
		Buckets    string    `db:"buckets"`
		Confidence float64   `db:"confidence"`
		UpdatedAt  time.Time `db:"updated_at"`
	}{}
	err := s.db.GetContext(
		ctx, &row,
		`SELECT buckets, confidence, updated_at FROM occupancy_patterns
		  WHERE zone_id = ? AND pattern_type = ? AND season = ?`,
		zoneID, patternType, season,
	)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		return nil, false
	}

	buckets := make(map[string]float64)
	if err := json.Unmarshal([]byte(row.Buckets), &buckets); err != nil {
		return nil, false
	}
	return &PatternRecord{
		ZoneID:      zoneID,
		PatternType: patternType,
		Season:      season,
		Buckets:     buckets,
		Confidence:  row.Confidence,
		UpdatedAt:   row.UpdatedAt,
	}, true
}
