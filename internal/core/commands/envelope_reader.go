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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines the
// entry command of every worker chain: parsing the job envelope the API
// published to the bus.
//
// Logic Flow:
//  1. The command receives the raw Pub/Sub message data as a JSON string.
//  2. It unmarshals the string into a `model.Envelope`.
//  3. It validates the fields every pipeline needs (job id, source URI,
//     output bucket) and, for render mode, the final clip list.
//  4. The envelope is placed into the context under a well-known key and as
//     the pipe output, so the rest of the chain flows off it.
package commands

import (
	"encoding/json"
	"fmt"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/cor"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/model"
)

// GetEnvelopeParameterName returns the context key under which the parsed
// job envelope is stored for the rest of the chain.
//
// Outputs:
//   - string: A constant placeholder string "__ENVELOPE__".
func GetEnvelopeParameterName() string {
	return "__ENVELOPE__"
}

// EnvelopeReader is a command that parses and validates the job envelope
// carried by a bus message.
type EnvelopeReader struct {
	cor.BaseCommand
}

// NewEnvelopeReader is the constructor for the EnvelopeReader command.
//
// Inputs:
//   - name: A string name for this command instance.
//
// Outputs:
//   - *EnvelopeReader: A pointer to the newly instantiated command.
func NewEnvelopeReader(name string) *EnvelopeReader {
	return &EnvelopeReader{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute parses the raw message into an envelope and validates it.
//
// Inputs:
//   - context: The shared `cor.Context` for this workflow execution, holding
//     the raw message data in the input parameter.
func (c *EnvelopeReader) Execute(context cor.Context) {
	in := context.Get(c.GetInputParam()).(string)

	var envelope model.Envelope
	if err := json.Unmarshal([]byte(in), &envelope); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to unmarshal job envelope: %w", err))
		return
	}

	if err := validateEnvelope(&envelope); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetEnvelopeParameterName(), &envelope)
	context.Add(c.GetOutputParam(), &envelope)
}

func validateEnvelope(e *model.Envelope) error {
	if e.JobId == "" {
		return fmt.Errorf("envelope missing jobId")
	}
	if e.VideoGcsUri == "" {
		return fmt.Errorf("envelope for job %s missing videoGcsUri", e.JobId)
	}
	if e.OutBucket == "" {
		return fmt.Errorf("envelope for job %s missing outBucket", e.JobId)
	}
	if e.NormalizedMode() == model.ModeRender && len(e.FinalClips) == 0 {
		return fmt.Errorf("render envelope for job %s has no finalClips", e.JobId)
	}
	for _, clip := range e.FinalClips {
		if clip.End <= clip.Start || clip.Start < 0 {
			return fmt.Errorf("render envelope for job %s has invalid clip [%v, %v]", e.JobId, clip.Start, clip.End)
		}
	}
	return nil
}
