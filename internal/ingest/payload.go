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
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// ExtractF64PlainOrJSON parses a sensor payload that is either a bare float
// ("21.5") or a JSON object holding one ({"temperature": 21.5}). Booleans
// map to 1/0 so presence sensors work through the same path.
func ExtractF64PlainOrJSON(payload []byte, topic string, jsonEntry *string) (float64, error) {
	if jsonEntry == nil {
		if v, err := strconv.ParseFloat(string(payload), 64); err == nil {
			return v, nil
		}
		switch string(payload) {
		case "true", "on", "ON":
			return 1, nil
		case "false", "off", "OFF":
			return 0, nil
		}
		return 0, fmt.Errorf("cannot parse payload on %v: %v", topic, string(payload))
	}

	var valMap map[string]interface{}
	if err := json.Unmarshal(payload, &valMap); err != nil {
		return 0, errors.Wrapf(err, "json unmarshal error with : %v : %v", topic, string(payload))
	}

	v, ok := valMap[*jsonEntry]
	if !ok {
		return 0, fmt.Errorf("not found: `%v` in `%v`: %v", *jsonEntry, topic, string(payload))
	}

	switch t := v.(type) {
	case float64:
		return t, nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("cannot cast `%v` to float64 in : %v : %v", v, topic, string(payload))
	}
}
