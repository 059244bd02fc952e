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

package ingest

import (
	"context"
	"encoding/json"

	"thermozone/internal/control"
)

// controlCommand is the operator command shape accepted on the control
// topic. Params carries the numeric arguments of the action, e.g.
// {"temperature_c": 21.5} for set_temperature.
type controlCommand struct {
	ZoneID   string             `json:"zone_id"`
	DeviceID string             `json:"device_id"`
	Action   string             `json:"action"`
	Params   map[string]float64 `json:"params"`
	Reason   string             `json:"reason"`
}

func (i *Ingestor) handleControl(topic string, payload []byte) {
	var cmd controlCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		i.log.Errorf("Bad control payload on %s: %v", topic, err)
		return
	}
	if cmd.ZoneID == "" || cmd.Action == "" {
		i.log.Errorf("Control payload on %s missing zone_id or action", topic)
		return
	}

	reason := cmd.Reason
	if reason == "" {
		reason = "operator command"
	}
	i.actions.UserAction(context.Background(), &control.Action{
		ZoneID:   cmd.ZoneID,
		DeviceID: cmd.DeviceID,
		Type:     control.ActionType(cmd.Action),
		Trigger:  control.TriggerUser,
		Params:   cmd.Params,
		Reason:   reason,
	})
}
