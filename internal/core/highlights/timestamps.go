// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package highlights holds the pure domain logic of the pipeline: timestamp
// normalization, shot-event canonicalization, and clip planning. Nothing in
// this package touches the network or the filesystem, which keeps the
// worker's decision logic directly testable.
//
// This file normalizes the timestamp formats the generative model answers
// with. The model may reply with bare seconds ("75"), minute:second ("1:15"),
// or hour:minute:second ("0:01:15") strings, or with JSON numbers. All core
// computation happens on integer seconds, so every inbound value funnels
// through ParseTimestamp.
package highlights

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseTimestamp converts a timestamp of any supported shape into integer
// seconds. Accepted inputs: "H:M:S", "M:S", "S" strings, and JSON-decoded
// float64/int values. Fractional seconds are truncated.
func ParseTimestamp(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return nonNegative(v)
	case int64:
		return nonNegative(int(v))
	case float64:
		return nonNegative(int(v))
	case string:
		return parseTimestampString(v)
	default:
		return 0, fmt.Errorf("unsupported timestamp type %T", value)
	}
}

func nonNegative(v int) (int, error) {
	if v < 0 {
		return 0, fmt.Errorf("negative timestamp %d", v)
	}
	return v, nil
}

func parseTimestampString(in string) (int, error) {
	s := strings.TrimSpace(in)
	if s == "" {
		return 0, fmt.Errorf("empty timestamp")
	}

	// Bare seconds, possibly fractional ("75" or "75.5").
	if !strings.Contains(s, ":") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp %q: %w", in, err)
		}
		return nonNegative(int(f))
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", in)
	}
	total := 0
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp %q: %w", in, err)
		}
		if f < 0 {
			return 0, fmt.Errorf("negative timestamp %q", in)
		}
		total = total*60 + int(f)
	}
	return total, nil
}

// FormatTimestamp renders integer seconds back into the "H:MM:SS" shape used
// in stored analysis artifacts. Values under an hour render as "00:MM:SS" so
// the round trip through ParseTimestamp is exact.
func FormatTimestamp(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// CeilSeconds converts a fractional duration (as reported by ffprobe) into
// whole seconds, rounding up so a 10.04s video reports 11 rather than 10.
func CeilSeconds(d float64) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d))
}
