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
	"time"

	"github.com/pkg/errors"
)

// Reading is one raw sensor sample for a zone. Any of the value columns may
// be absent depending on which channel reported.
type Reading struct {
	ZoneID      string     `db:"zone_id"`
	TakenAt     time.Time  `db:"taken_at"`
	Temperature *float64   `db:"temperature_c"`
	Humidity    *float64   `db:"humidity"`
	Presence    *bool      `db:"presence"`
	Illuminance *float64   `db:"illuminance"`
}

// BucketAverage is one pre-aggregated trend row.
type BucketAverage struct {
	BucketStart time.Time
	Temperature float64
	Samples     int
}

func (s *Store) InsertReading(ctx context.Context, r *Reading) error {
	_, err := s.db.NamedExecContext(
		ctx,
		`INSERT INTO sensor_readings (zone_id, taken_at, temperature_c, humidity, presence, illuminance)
		 VALUES (:zone_id, :taken_at, :temperature_c, :humidity, :presence, :illuminance)`,
		r,
	)
	return errors.Wrap(err, "insert reading")
}

// ReadingsBetween returns the zone's samples in [from, to], oldest first.
func (s *Store) ReadingsBetween(ctx context.Context, zoneID string, from, to time.Time) ([]Reading, error) {
	var rs []Reading
	err := s.db.SelectContext(
		ctx, &rs,
		`SELECT zone_id, taken_at, temperature_c, humidity, presence, illuminance
		   FROM sensor_readings
		  WHERE zone_id = ? AND taken_at BETWEEN ? AND ?
		  ORDER BY taken_at ASC`,
		zoneID, from, to,
	)
	return rs, errors.Wrap(err, "readings between")
}

type bucketRow struct {
	Bucket      int64   `db:"bucket"`
	Temperature float64 `db:"avg_temp"`
	Samples     int     `db:"samples"`
}

// BucketAverages returns per-bucket temperature means over [from, to].
// bucket is the wall-clock bucket width (5 minutes for short-range trends,
// an hour for the long tail).
func (s *Store) BucketAverages(ctx context.Context, zoneID string, from, to time.Time, bucket time.Duration) ([]BucketAverage, error) {
	sec := int64(bucket / time.Second)
	if sec <= 0 {
		return nil, errors.New("bucket width must be positive")
	}

	var rows []bucketRow
	err := s.db.SelectContext(
		ctx, &rows,
		`SELECT (CAST(strftime('%s', taken_at) AS INTEGER) / ?) * ? AS bucket,
		        AVG(temperature_c) AS avg_temp,
		        COUNT(temperature_c) AS samples
		   FROM sensor_readings
		  WHERE zone_id = ? AND taken_at BETWEEN ? AND ? AND temperature_c IS NOT NULL
		  GROUP BY bucket
		  ORDER BY bucket ASC`,
		sec, sec, zoneID, from, to,
	)
	if err != nil {
		return nil, errors.Wrap(err, "bucket averages")
	}

	out := make([]BucketAverage, 0, len(rows))
	for _, r := range rows {
		out = append(out, BucketAverage{
			BucketStart: time.Unix(r.Bucket, 0).UTC(),
			Temperature: r.Temperature,
			Samples:     r.Samples,
		})
	}
	return out, nil
}

// PruneReadings drops samples older than the cutoff. The learners only ever
// look 30 days back, so anything older is dead weight.
func (s *Store) PruneReadings(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sensor_readings WHERE taken_at < ?`, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "prune readings")
	}
	n, _ := res.RowsAffected()
	return n, nil
}
