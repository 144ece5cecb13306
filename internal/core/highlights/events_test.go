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

package highlights

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/model"
)

func TestParseShotEventsRichSchema(t *testing.T) {
	raw := "```json\n[{\"TS\": \"0:01:15\", \"MM\": \"Made\", \"SR\": \"white shirt\", \"ST\": \"layup\", \"SL\": \"paint\"}]\n```"
	events, err := ParseShotEvents(raw, 0)
	assert.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, 75, events[0].TimestampStart)
	assert.Equal(t, model.OutcomeMake, events[0].Outcome)
	assert.Equal(t, "white shirt", events[0].Subject)
	assert.Equal(t, "layup", events[0].ShotType)
	assert.Equal(t, "paint", events[0].ShotLocation)
	assert.True(t, events[0].Show)
	assert.False(t, events[0].Deleted)
}

func TestParseShotEventsMinimalSchema(t *testing.T) {
	raw := `[{"TimeStamp": 42, "Outcome": "missed"}, {"TimeStamp": "1:05", "Outcome": "make"}]`
	events, err := ParseShotEvents(raw, 0)
	assert.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, 42, events[0].TimestampStart)
	assert.Equal(t, model.OutcomeMiss, events[0].Outcome)
	assert.Equal(t, 65, events[1].TimestampStart)
	assert.Equal(t, model.OutcomeMake, events[1].Outcome)
}

func TestParseShotEventsNestedArray(t *testing.T) {
	raw := `[[{"timestamp_start": 10, "timestamp_end": 12, "outcome": "make"}]]`
	events, err := ParseShotEvents(raw, 0)
	assert.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, 10, events[0].TimestampStart)
	assert.Equal(t, 12, events[0].TimestampEnd)
}

func TestParseShotEventsDropsRowsWithoutTimestamp(t *testing.T) {
	raw := `[{"Outcome": "make"}, {"TimeStamp": 5, "Outcome": "make"}]`
	events, err := ParseShotEvents(raw, 0)
	assert.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, 5, events[0].TimestampStart)
}

func TestParseShotEventsClampsToDuration(t *testing.T) {
	raw := `[{"timestamp_start": 50, "timestamp_end": 70, "outcome": "make"},
	         {"timestamp_start": 90, "outcome": "make"}]`
	events, err := ParseShotEvents(raw, 60)
	assert.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, 50, events[0].TimestampStart)
	assert.Equal(t, 60, events[0].TimestampEnd)
}

func TestParseShotEventsProsePrefix(t *testing.T) {
	raw := "Here are the detected shots:\n[{\"TimeStamp\": 7, \"Outcome\": \"made\"}]"
	events, err := ParseShotEvents(raw, 0)
	assert.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, 7, events[0].TimestampStart)
}

func TestParseShotEventsEmptyAndInvalid(t *testing.T) {
	events, err := ParseShotEvents("```json\n[]\n```", 0)
	assert.NoError(t, err)
	assert.Empty(t, events)

	events, err = ParseShotEvents("", 0)
	assert.NoError(t, err)
	assert.Empty(t, events)

	_, err = ParseShotEvents("not json at all", 0)
	assert.Error(t, err)
}

func TestCanonicalOutcome(t *testing.T) {
	assert.Equal(t, model.OutcomeMake, CanonicalOutcome("Made"))
	assert.Equal(t, model.OutcomeMake, CanonicalOutcome("make"))
	assert.Equal(t, model.OutcomeMiss, CanonicalOutcome("MISSED"))
	assert.Equal(t, model.OutcomeUndetermined, CanonicalOutcome(""))
	assert.Equal(t, model.OutcomeOther, CanonicalOutcome("other"))
	assert.Equal(t, "blocked", CanonicalOutcome("Blocked"))
}
