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

// ActionRecord is one append-only audit row. The core writes these on every
// executed (or failed) control action and reads them back only for the
// advisor's recent-actions context.
type ActionRecord struct {
	ID         string    `db:"id"`
	ZoneID     string    `db:"zone_id"`
	DeviceID   *string   `db:"device_id"`
	Trigger    string    `db:"trigger"`
	Action     string    `db:"action"`
	Parameters string    `db:"parameters"`
	Result     string    `db:"result"`
	Reasoning  string    `db:"reasoning"`
	Mode       string    `db:"mode"`
	CreatedAt  time.Time `db:"created_at"`
}

func (s *Store) AppendAction(ctx context.Context, rec *ActionRecord) error {
	_, err := s.db.NamedExecContext(
		ctx,
		`INSERT INTO device_actions
		   (id, zone_id, device_id, "trigger", action, parameters, result, reasoning, mode, created_at)
		 VALUES
		   (:id, :zone_id, :device_id, :trigger, :action, :parameters, :result, :reasoning, :mode, :created_at)`,
		rec,
	)
	return errors.Wrap(err, "append device action")
}

// RecentActions returns the newest actions for a zone, newest first.
func (s *Store) RecentActions(ctx context.Context, zoneID string, limit int) ([]ActionRecord, error) {
	var recs []ActionRecord
	err := s.db.SelectContext(
		ctx, &recs,
		`SELECT id, zone_id, device_id, "trigger", action, parameters, result, reasoning, mode, created_at
		   FROM device_actions
		  WHERE zone_id = ?
		  ORDER BY created_at DESC
		  LIMIT ?`,
		zoneID, limit,
	)
	return recs, errors.Wrap(err, "recent device actions")
}

// SetpointActions returns set_temperature actions in a window, oldest first.
// Zone analytics correlates them with subsequent readings.
func (s *Store) SetpointActions(ctx context.Context, zoneID string, from, to time.Time) ([]ActionRecord, error) {
	var recs []ActionRecord
	err := s.db.SelectContext(
		ctx, &recs,
		`SELECT id, zone_id, device_id, "trigger", action, parameters, result, reasoning, mode, created_at
		   FROM device_actions
		  WHERE zone_id = ? AND action = 'set_temperature' AND created_at BETWEEN ? AND ?
		  ORDER BY created_at ASC`,
		zoneID, from, to,
	)
	return recs, errors.Wrap(err, "setpoint actions")
}
