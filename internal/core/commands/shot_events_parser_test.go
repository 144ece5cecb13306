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

package commands

import (
	"context"
	"testing"

	"github.com/zeebo/assert"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/cor"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/model"
)

func TestShotEventsParserAssignsIds(t *testing.T) {
	parser := NewShotEventsParser("parse-shot-events")

	c := cor.NewBaseContext()
	c.SetContext(context.Background())
	defer c.Close()
	envelope := &model.Envelope{JobId: "job-9"}
	c.Add(cor.CtxIn, envelope)
	c.Add(GetRawAnalysisParameterName(), "```json\n[\n"+
		`{"timestamp_start": 12, "timestamp_end": 14, "outcome": "made", "shot_type": "layup"},`+
		`{"timestamp_start": 31, "timestamp_end": 33, "outcome": "miss"}`+
		"\n]\n```")
	c.Add(GetVideoDurationParameterName(), 60)

	assert.True(t, parser.IsExecutable(c))
	parser.Execute(c)

	assert.False(t, c.HasErrors())
	events := c.Get(GetShotEventsParameterName()).([]model.ShotEvent)
	assert.Equal(t, 2, len(events))
	for _, ev := range events {
		assert.True(t, ev.Id != "")
		assert.True(t, ev.Show)
		assert.False(t, ev.Deleted)
	}
	assert.Equal(t, model.OutcomeMake, events[0].Outcome)
	assert.Equal(t, model.OutcomeMiss, events[1].Outcome)

	// The envelope keeps flowing as the pipe value.
	assert.Equal(t, envelope, c.Get(cor.CtxOut))
}

func TestShotEventsParserRejectsNonArrayResponse(t *testing.T) {
	parser := NewShotEventsParser("parse-shot-events")

	c := cor.NewBaseContext()
	c.SetContext(context.Background())
	defer c.Close()
	c.Add(cor.CtxIn, &model.Envelope{JobId: "job-9"})
	c.Add(GetRawAnalysisParameterName(), "I could not find any shots in this video.")

	parser.Execute(c)

	assert.True(t, c.HasErrors())
}

// Without the raw analysis staged the parser does not run at all; the
// analysis-only pipeline relies on this when the detector was skipped.
func TestShotEventsParserRequiresRawAnalysis(t *testing.T) {
	parser := NewShotEventsParser("parse-shot-events")

	c := cor.NewBaseContext()
	c.SetContext(context.Background())
	defer c.Close()
	c.Add(cor.CtxIn, &model.Envelope{JobId: "job-9"})

	assert.False(t, parser.IsExecutable(c))
}
