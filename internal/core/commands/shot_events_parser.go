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

// This file defines the command that turns the model's raw response into
// canonical shot events. The tolerant parsing itself lives in the highlights
// package; this command wires it into the chain, assigns each surviving
// event a stable id, and stages the result.
package commands

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/cor"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/highlights"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/model"
)

// GetShotEventsParameterName returns the context key holding the canonical
// shot events.
//
// Outputs:
//   - string: A constant placeholder string "__SHOT_EVENTS__".
func GetShotEventsParameterName() string {
	return "__SHOT_EVENTS__"
}

// ShotEventsParser is a command that canonicalizes the raw analysis text.
type ShotEventsParser struct {
	cor.BaseCommand
}

// NewShotEventsParser is the constructor for the ShotEventsParser command.
//
// Inputs:
//   - name: A string name for this command instance.
//
// Outputs:
//   - *ShotEventsParser: A pointer to the newly instantiated command.
func NewShotEventsParser(name string) *ShotEventsParser {
	return &ShotEventsParser{BaseCommand: *cor.NewBaseCommand(name)}
}

// IsExecutable checks that the raw analysis text is present in the context.
func (c *ShotEventsParser) IsExecutable(context cor.Context) bool {
	return context != nil &&
		context.Get(c.GetInputParam()) != nil &&
		context.Get(GetRawAnalysisParameterName()) != nil
}

// Execute parses the raw response and assigns event ids.
//
// Inputs:
//   - context: The shared `cor.Context` holding the envelope in the input parameter.
func (c *ShotEventsParser) Execute(context cor.Context) {
	envelope := context.Get(c.GetInputParam()).(*model.Envelope)
	raw := context.Get(GetRawAnalysisParameterName()).(string)

	durationSec := 0
	if v := context.Get(GetVideoDurationParameterName()); v != nil {
		durationSec = v.(int)
	}

	events, err := highlights.ParseShotEvents(raw, durationSec)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("parsing analysis for job %s: %w", envelope.JobId, err))
		return
	}
	for i := range events {
		events[i].Id = uuid.NewString()
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetShotEventsParameterName(), events)
	context.Add(c.GetOutputParam(), envelope)
}
