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
	"testing"

	"thermozone/internal/config"
	"thermozone/internal/control"
	"thermozone/internal/logger"
	"thermozone/internal/store"
	"thermozone/internal/zone"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type occupancyEvent struct {
	zoneID     string
	occupied   bool
	priorState bool
}

// recordingActions snapshots the zone's occupancy at call time, so ordering
// relative to the state update is observable.
type recordingActions struct {
	zones  *zone.Manager
	events []occupancyEvent
	user   []*control.Action
}

func (r *recordingActions) OccupancyChanged(_ context.Context, zoneID string, occupied bool) {
	prior := false
	if z, ok := r.zones.Get(zoneID); ok {
		prior = z.Occupied
	}
	r.events = append(r.events, occupancyEvent{zoneID: zoneID, occupied: occupied, priorState: prior})
}

func (r *recordingActions) UserAction(_ context.Context, a *control.Action) {
	r.user = append(r.user, a)
}

func testIngestor(t *testing.T) (*Ingestor, *recordingActions, *zone.Manager) {
	t.Helper()
	zones := zone.NewManager()
	st := store.Open(":memory:")
	t.Cleanup(func() { st.Close() })
	sink := &recordingActions{zones: zones}
	return &Ingestor{
		zones:   zones,
		store:   st,
		actions: sink,
		log:     logger.Named("ingest"),
	}, sink, zones
}

func TestPresenceFlipConsultsSinkBeforeStateUpdate(t *testing.T) {
	i, sink, zones := testIngestor(t)
	z := zones.Ensure("living", "living")
	z.Occupied = true

	scfg := config.NewSensorConfig()
	scfg.Kind = config.SensorPresence

	i.handleMessage("living", scfg, "zigbee2mqtt/living/motion", []byte("OFF"))

	require.Len(t, sink.events, 1)
	ev := sink.events[0]
	assert.Equal(t, "living", ev.zoneID)
	assert.False(t, ev.occupied)
	assert.True(t, ev.priorState, "sink must see the pre-flip state, or the debounce clock resets under it")
	assert.False(t, z.Occupied, "state absorbed after the sink ran")
}

func TestHandleControl(t *testing.T) {
	i, sink, _ := testIngestor(t)

	t.Run("well-formed command dispatched as user action", func(t *testing.T) {
		i.handleControl("thermozone/control", []byte(
			`{"zone_id":"living","device_id":"climate.hall","action":"set_temperature","params":{"temperature_c":21.5},"reason":"guest room prep"}`))

		require.Len(t, sink.user, 1)
		a := sink.user[0]
		assert.Equal(t, "living", a.ZoneID)
		assert.Equal(t, "climate.hall", a.DeviceID)
		assert.Equal(t, control.ActionSetTemperature, a.Type)
		assert.Equal(t, control.TriggerUser, a.Trigger)
		assert.Equal(t, 21.5, a.Params["temperature_c"])
		assert.Equal(t, "guest room prep", a.Reason)
	})

	t.Run("reason defaulted", func(t *testing.T) {
		i.handleControl("thermozone/control", []byte(`{"zone_id":"living","action":"turn_off"}`))
		require.Len(t, sink.user, 2)
		assert.Equal(t, "operator command", sink.user[1].Reason)
	})

	t.Run("garbage dropped", func(t *testing.T) {
		i.handleControl("thermozone/control", []byte("not json"))
		assert.Len(t, sink.user, 2)
	})

	t.Run("missing zone or action dropped", func(t *testing.T) {
		i.handleControl("thermozone/control", []byte(`{"action":"turn_off"}`))
		i.handleControl("thermozone/control", []byte(`{"zone_id":"living"}`))
		assert.Len(t, sink.user, 2)
	})
}
