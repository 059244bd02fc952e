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

package zone

import (
	"sort"
	"sync"
	"time"

	"thermozone/internal/logger"
)

const (
	staleAfter = 20 * time.Minute

	AttentionTemperature = "temperature"
	AttentionHumidity    = "humidity"
	AttentionStale       = "stale"
)

// Manager owns the zone-state map. The mutex guards structural mutations
// (add/remove zone, register device); numeric field updates inside a zone
// follow the single-writer discipline and are not additionally locked.
type Manager struct {
	mu    sync.RWMutex
	zones map[string]*ZoneState
}

func NewManager() *Manager {
	return &Manager{zones: make(map[string]*ZoneState)}
}

// Ensure returns the zone, creating it on first reference.
func (m *Manager) Ensure(id, name string) *ZoneState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if z, ok := m.zones[id]; ok {
		return z
	}
	z := NewZoneState(id, name)
	m.zones[id] = z
	logger.L().Debugf("Created zone state for `%s`", id)
	return z
}

func (m *Manager) Get(id string) (*ZoneState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	z, ok := m.zones[id]
	return z, ok
}

func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.zones, id)
}

// RegisterDevice attaches a device to a zone, creating the zone if needed.
func (m *Manager) RegisterDevice(zoneID string, dev *DeviceState) {
	z := m.Ensure(zoneID, zoneID)
	m.mu.Lock()
	defer m.mu.Unlock()
	z.Devices[dev.ID] = dev
}

// Zones returns a stable-ordered snapshot of the current zone set.
func (m *Manager) Zones() []*ZoneState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*ZoneState, 0, len(m.zones))
	for _, z := range m.zones {
		out = append(out, z)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AverageAll is the whole-house signal: every zone with a live temperature,
// priority ignored. Returns the mean, the contributing zone names and whether
// any zone contributed.
func (m *Manager) AverageAll() (float64, []string, bool) {
	return m.average(m.Zones())
}

// AveragePriorityTier averages only the zones sharing the numerically highest
// priority among those with live data, scoped to ids when non-empty.
func (m *Manager) AveragePriorityTier(ids []string) (float64, []string, bool) {
	zones := m.Zones()
	if len(ids) > 0 {
		wanted := make(map[string]bool, len(ids))
		for _, id := range ids {
			wanted[id] = true
		}
		var scoped []*ZoneState
		for _, z := range zones {
			if wanted[z.ID] {
				scoped = append(scoped, z)
			}
		}
		zones = scoped
	}

	top := 0
	found := false
	for _, z := range zones {
		if z.Temperature == nil {
			continue
		}
		if !found || z.Priority > top {
			top = z.Priority
			found = true
		}
	}
	if !found {
		return 0, nil, false
	}

	var tier []*ZoneState
	for _, z := range zones {
		if z.Temperature != nil && z.Priority == top {
			tier = append(tier, z)
		}
	}
	return m.average(tier)
}

func (m *Manager) average(zones []*ZoneState) (float64, []string, bool) {
	var sum float64
	var names []string
	for _, z := range zones {
		if z.Temperature == nil {
			continue
		}
		sum += *z.Temperature
		names = append(names, z.Name)
	}
	if len(names) == 0 {
		return 0, nil, false
	}
	return sum / float64(len(names)), names, true
}

// NeedingAttention flags zones whose temperature or humidity deviates beyond
// the thresholds, or whose sensors have gone stale. Flags are recorded on the
// zone and the flagged set is returned in stable order.
func (m *Manager) NeedingAttention(now time.Time, tempThreshold, humThreshold float64) []*ZoneState {
	var flagged []*ZoneState
	for _, z := range m.Zones() {
		reasons := make(map[string]bool)

		if z.Temperature != nil {
			if dev := *z.Temperature - z.TargetTemperature(); dev > tempThreshold || dev < -tempThreshold {
				reasons[AttentionTemperature] = true
			}
		}
		if z.Humidity != nil {
			if dev := *z.Humidity - z.TargetHumidity(); dev > humThreshold || dev < -humThreshold {
				reasons[AttentionHumidity] = true
			}
		}
		if !z.LastUpdate.IsZero() && now.Sub(z.LastUpdate) >= staleAfter {
			reasons[AttentionStale] = true
		}

		z.Attention = reasons
		if len(reasons) > 0 {
			flagged = append(flagged, z)
		}
	}
	return flagged
}
