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

const (
	defaultLLMBaseURL     = "https://api.openai.com/v1"
	defaultLLMModel       = "gpt-4o-mini"
	defaultLLMMaxTokens   = 400
	defaultLLMTemperature = 0.2
	defaultLLMTimeoutSec  = 45
)

// LLMConfig describes the OpenAI-compatible completion endpoint consulted by
// the advisor. An empty APIKey leaves the advisor running on the formula path.
type LLMConfig struct {
	BaseURL     string   `yaml:"base_url"`
	APIKey      string   `yaml:"api_key"`
	Model       string   `yaml:"model"`
	MaxTokens   *int     `yaml:"max_tokens"`
	Temperature *float64 `yaml:"temperature"`
	TimeoutSec  *int     `yaml:"timeout_seconds"`
}

func NewLLMConfig() *LLMConfig {
	cfg := &LLMConfig{}
	cfg.FillDefaults()
	return cfg
}

func (c *LLMConfig) FillDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultLLMBaseURL
	}
	if c.Model == "" {
		c.Model = defaultLLMModel
	}
	if c.MaxTokens == nil {
		c.MaxTokens = GetPTR(defaultLLMMaxTokens)
	}
	if c.Temperature == nil {
		c.Temperature = GetPTR(defaultLLMTemperature)
	}
	if c.TimeoutSec == nil {
		c.TimeoutSec = GetPTR(defaultLLMTimeoutSec)
	}
}
