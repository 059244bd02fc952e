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

package config

const defaultHAURL = "http://127.0.0.1:8123"

// HAConfig holds the Home Assistant REST endpoint credentials.
type HAConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

func NewHAConfig() *HAConfig {
	cfg := &HAConfig{}
	cfg.FillDefaults()
	return cfg
}

func (c *HAConfig) FillDefaults() {
	if c.URL == "" {
		c.URL = defaultHAURL
	}
}
