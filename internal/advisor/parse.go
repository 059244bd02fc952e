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

package advisor

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const maxReasoningLen = 300

var jsonSpanRe = regexp.MustCompile(`(?s)\{.*\}`)

// llmReply is the shape the advisor asks the model for. Fields arrive as
// interface{} because models routinely quote numbers.
type llmReply struct {
	Action      string      `json:"action"`
	SetpointF   interface{} `json:"setpoint_f"`
	WaitMinutes interface{} `json:"wait_minutes"`
	Reasoning   string      `json:"reasoning"`
}

// parseReply recovers a reply from whatever the model returned: code fences
// are stripped, and when direct parsing fails the first {...} span is tried
// before giving up.
func parseReply(content string) (*llmReply, error) {
	text := stripFences(content)

	var reply llmReply
	if err := json.Unmarshal([]byte(text), &reply); err == nil {
		return &reply, nil
	}

	if span := jsonSpanRe.FindString(text); span != "" {
		if err := json.Unmarshal([]byte(span), &reply); err == nil {
			return &reply, nil
		}
	}
	return nil, errors.Errorf("no JSON object in advisor reply: %.80s", content)
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// the fence line may carry a language tag
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// numeric coerces a JSON value that should be a number.
func numeric(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// normalizedAction coerces unknown actions to "adjust".
func normalizedAction(s string) ActionKind {
	switch ActionKind(strings.ToLower(strings.TrimSpace(s))) {
	case ActionHold:
		return ActionHold
	case ActionWait:
		return ActionWait
	default:
		return ActionAdjust
	}
}

func truncateReasoning(s string) string {
	if len(s) <= maxReasoningLen {
		return s
	}
	return s[:maxReasoningLen]
}
