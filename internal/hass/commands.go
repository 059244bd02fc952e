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

package hass

import (
	"context"
	"net/http"
	"strings"
)

// domainOf extracts the service domain from an entity id
// ("climate.living_room" -> "climate").
func domainOf(entityID string) string {
	if i := strings.IndexByte(entityID, '.'); i > 0 {
		return entityID[:i]
	}
	return "homeassistant"
}

func (c *Client) callService(ctx context.Context, domain, service string, payload map[string]interface{}) CommandResult {
	err := c.request(ctx, http.MethodPost, "/api/services/"+domain+"/"+service, payload, nil)
	if err != nil {
		c.log.Warnf("Service %s.%s failed: %v", domain, service, err)
		return CommandResult{OK: false, Detail: err.Error()}
	}
	return CommandResult{OK: true}
}

// SetTemperature commands a thermostat setpoint. celsius is converted to the
// ambient unit system before dispatch.
func (c *Client) SetTemperature(ctx context.Context, entityID string, celsius float64) CommandResult {
	value := celsius
	if c.UnitSystem(ctx) == "°F" {
		value = celsius*9.0/5.0 + 32.0
	}
	return c.callService(ctx, "climate", "set_temperature", map[string]interface{}{
		"entity_id":   entityID,
		"temperature": value,
	})
}

func (c *Client) SetHVACMode(ctx context.Context, entityID, mode string) CommandResult {
	return c.callService(ctx, "climate", "set_hvac_mode", map[string]interface{}{
		"entity_id": entityID,
		"hvac_mode": mode,
	})
}

func (c *Client) TurnOn(ctx context.Context, entityID string) CommandResult {
	return c.callService(ctx, domainOf(entityID), "turn_on", map[string]interface{}{
		"entity_id": entityID,
	})
}

func (c *Client) TurnOff(ctx context.Context, entityID string) CommandResult {
	return c.callService(ctx, domainOf(entityID), "turn_off", map[string]interface{}{
		"entity_id": entityID,
	})
}
