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

// Package hass is the narrow Home Assistant REST adapter: live entity reads,
// unit-system detection and fire-and-report command dispatch.
package hass

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"thermozone/internal/config"
	"thermozone/internal/logger"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const requestTimeout = 10 * time.Second

type EntityState struct {
	EntityID   string                 `json:"entity_id"`
	State      string                 `json:"state"`
	Attributes map[string]interface{} `json:"attributes"`
}

// CommandResult is the folded outcome of a dispatch: failures are reported,
// never raised to the audit layer.
type CommandResult struct {
	OK     bool
	Detail string
}

func (r CommandResult) String() string {
	if r.OK {
		return "ok"
	}
	return "failed: " + r.Detail
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *zap.SugaredLogger

	// unit system cache, owned by the client instance
	unitMu    sync.Mutex
	unit      string
	unitKnown bool
}

func NewClient(cfg *config.HAConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: requestTimeout},
		log:     logger.Named("hass"),
	}
}

func (c *Client) request(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshal request body")
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrapf(err, "decode %s response", path)
		}
	}
	return nil
}

func (c *Client) GetState(ctx context.Context, entityID string) (*EntityState, error) {
	var st EntityState
	if err := c.request(ctx, http.MethodGet, "/api/states/"+entityID, nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// UnitSystem returns "°C" or "°F", detected once per client and cached.
func (c *Client) UnitSystem(ctx context.Context) string {
	c.unitMu.Lock()
	defer c.unitMu.Unlock()
	if c.unitKnown {
		return c.unit
	}

	var cfg struct {
		UnitSystem struct {
			Temperature string `json:"temperature"`
		} `json:"unit_system"`
	}
	if err := c.request(ctx, http.MethodGet, "/api/config", nil, &cfg); err != nil {
		c.log.Warnf("Unit system detection failed, assuming °C: %v", err)
		return "°C"
	}
	c.unit = cfg.UnitSystem.Temperature
	if c.unit == "" {
		c.unit = "°C"
	}
	c.unitKnown = true
	return c.unit
}

// Temperature resolves a live Celsius reading for an entity: the
// current_temperature attribute for climate entities, else the state itself.
// Any failure folds to "unavailable".
func (c *Client) Temperature(ctx context.Context, entityID string) (float64, bool) {
	st, err := c.GetState(ctx, entityID)
	if err != nil {
		c.log.Debugf("No live reading for %s: %v", entityID, err)
		return 0, false
	}

	v, ok := numericAttribute(st, "current_temperature")
	if !ok {
		parsed, err := strconv.ParseFloat(st.State, 64)
		if err != nil {
			return 0, false
		}
		v = parsed
	}

	if c.UnitSystem(ctx) == "°F" {
		v = (v - 32.0) * 5.0 / 9.0
	}
	return v, true
}

// HVACMode reads the current mode of a climate entity ("heat", "cool", ...).
func (c *Client) HVACMode(ctx context.Context, entityID string) (string, bool) {
	st, err := c.GetState(ctx, entityID)
	if err != nil {
		return "", false
	}
	return st.State, true
}

// OutdoorConditions reads the configured weather entity for advisor context.
func (c *Client) OutdoorConditions(ctx context.Context, weatherEntity string) (string, bool) {
	st, err := c.GetState(ctx, weatherEntity)
	if err != nil {
		return "", false
	}
	temp, hasTemp := numericAttribute(st, "temperature")
	if hasTemp {
		return fmt.Sprintf("%s, %.1f°", st.State, temp), true
	}
	return st.State, true
}

func numericAttribute(st *EntityState, name string) (float64, bool) {
	raw, ok := st.Attributes[name]
	if !ok {
		return 0, false
	}
	v, ok := raw.(float64)
	return v, ok
}
