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

// Package highlights holds the pure domain logic of the pipeline.
//
// This file turns the generative model's raw JSON answer into canonical
// ShotEvent values. The model is not reliable about shape: it may wrap the
// array in Markdown code fences, nest it one level deep, or answer with
// either a minimal {TimeStamp, Outcome} row or the richer
// {SR, SL, ST, TS, MM} row. The parser tolerates all of these; anything it
// cannot salvage into a timestamped event is dropped rather than failing the
// whole job.
package highlights

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/model"
)

// rawShotEvent is the union of every field shape the model has been observed
// to answer with. Short keys come from the rich prompt schema: SR=subject,
// SL=shot location, ST=shot type, TS=timestamp, MM=outcome.
type rawShotEvent struct {
	TimestampStart interface{} `json:"timestamp_start"`
	TimestampEnd   interface{} `json:"timestamp_end"`
	TimeStamp      interface{} `json:"TimeStamp"`
	TS             interface{} `json:"TS"`
	Outcome        string      `json:"Outcome"`
	OutcomeLower   string      `json:"outcome"`
	MM             string      `json:"MM"`
	Subject        string      `json:"subject"`
	SR             string      `json:"SR"`
	ShotType       string      `json:"shot_type"`
	ST             string      `json:"ST"`
	ShotLocation   string      `json:"shot_location"`
	SL             string      `json:"SL"`
}

// StripCodeFences removes a Markdown code fence wrapper (``` or ```json)
// from a model response, leaving the payload untouched otherwise.
func StripCodeFences(in string) string {
	s := strings.TrimSpace(in)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseShotEvents decodes a raw model response into canonical events.
// durationSec, when positive, clamps timestamps into [0, durationSec] and
// drops events that start past the end of the video. Event ids are not
// assigned here; the worker does that when it commits.
func ParseShotEvents(raw string, durationSec int) ([]model.ShotEvent, error) {
	payload := StripCodeFences(raw)
	if payload == "" {
		return []model.ShotEvent{}, nil
	}

	// The model occasionally prefixes prose; recover by slicing out the
	// outermost JSON array.
	if !strings.HasPrefix(payload, "[") {
		start := strings.Index(payload, "[")
		end := strings.LastIndex(payload, "]")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("no JSON array in model response")
		}
		payload = payload[start : end+1]
	}

	rows, err := decodeRows(payload)
	if err != nil {
		return nil, err
	}

	events := make([]model.ShotEvent, 0, len(rows))
	for _, row := range rows {
		ev, ok := canonicalize(row, durationSec)
		if !ok {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// decodeRows handles both a flat array of rows and the single-nested
// [[{...}]] wrapping some responses carry.
func decodeRows(payload string) ([]rawShotEvent, error) {
	var rows []rawShotEvent
	if err := json.Unmarshal([]byte(payload), &rows); err == nil {
		return rows, nil
	}
	var nested [][]rawShotEvent
	if err := json.Unmarshal([]byte(payload), &nested); err == nil {
		if len(nested) == 0 {
			return []rawShotEvent{}, nil
		}
		return nested[0], nil
	}
	return nil, fmt.Errorf("model response is not a shot-event array")
}

func canonicalize(row rawShotEvent, durationSec int) (model.ShotEvent, bool) {
	start, endVal := row.TimestampStart, row.TimestampEnd
	if start == nil {
		start = firstNonNil(row.TimeStamp, row.TS)
	}
	if start == nil {
		// No timestamp means nothing to cut; drop the row.
		return model.ShotEvent{}, false
	}

	startSec, err := ParseTimestamp(start)
	if err != nil {
		return model.ShotEvent{}, false
	}
	endSec := startSec
	if endVal != nil {
		if v, err := ParseTimestamp(endVal); err == nil && v >= startSec {
			endSec = v
		}
	}

	if durationSec > 0 {
		if startSec > durationSec {
			return model.ShotEvent{}, false
		}
		if endSec > durationSec {
			endSec = durationSec
		}
	}

	return model.ShotEvent{
		TimestampStart: startSec,
		TimestampEnd:   endSec,
		Outcome:        CanonicalOutcome(firstNonEmpty(row.OutcomeLower, row.Outcome, row.MM)),
		Subject:        firstNonEmpty(row.Subject, row.SR),
		ShotType:       firstNonEmpty(row.ShotType, row.ST),
		ShotLocation:   firstNonEmpty(row.ShotLocation, row.SL),
		Show:           true,
		Deleted:        false,
	}, true
}

// CanonicalOutcome lowercases an outcome and folds the synonyms the model
// uses ("made", "missed") onto the canonical vocabulary.
func CanonicalOutcome(in string) string {
	out := strings.ToLower(strings.TrimSpace(in))
	switch out {
	case "made", "make":
		return model.OutcomeMake
	case "missed", "miss":
		return model.OutcomeMiss
	case "":
		return model.OutcomeUndetermined
	case model.OutcomeUndetermined, model.OutcomeOther:
		return out
	default:
		return out
	}
}

func firstNonNil(values ...interface{}) interface{} {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
