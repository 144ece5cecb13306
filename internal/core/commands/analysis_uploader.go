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

// This file defines the command that persists the analysis artifact. The
// canonical shot events are serialized as a plain JSON array and written to
// the output bucket under the job's analysis key, so the read side can serve
// large event lists from storage instead of inlining them.
package commands

import (
	"bytes"
	"encoding/json"
	"fmt"

	cloudpkg "github.com/hooplight/gcp-go-hoops-highlights/internal/cloud"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/cor"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/model"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/services"
)

// GetAnalysisURIParameterName returns the context key holding the gs:// URI
// of the uploaded analysis artifact.
//
// Outputs:
//   - string: A constant placeholder string "__ANALYSIS_URI__".
func GetAnalysisURIParameterName() string {
	return "__ANALYSIS_URI__"
}

// AnalysisUploader is a command that writes the shot-event JSON artifact to
// the output bucket.
type AnalysisUploader struct {
	cor.BaseCommand
	media *services.MediaService
}

// NewAnalysisUploader is the constructor for the AnalysisUploader command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - mediaService: The object storage service.
//
// Outputs:
//   - *AnalysisUploader: A pointer to the newly instantiated command.
func NewAnalysisUploader(name string, mediaService *services.MediaService) *AnalysisUploader {
	return &AnalysisUploader{BaseCommand: *cor.NewBaseCommand(name), media: mediaService}
}

// encodeAnalysisArtifact serializes the shot events as the artifact body: a
// bare JSON array, nothing wrapped around it.
//
// Inputs:
//   - events: The canonical shot events of the run.
//
// Outputs:
//   - []byte: The UTF-8 JSON array.
//   - error: An error when serialization fails.
func encodeAnalysisArtifact(events []model.ShotEvent) ([]byte, error) {
	if events == nil {
		events = []model.ShotEvent{}
	}
	return json.MarshalIndent(events, "", "  ")
}

// IsExecutable checks that the parsed shot events are present in the context.
func (c *AnalysisUploader) IsExecutable(context cor.Context) bool {
	return context != nil &&
		context.Get(c.GetInputParam()) != nil &&
		context.Get(GetShotEventsParameterName()) != nil
}

// Execute serializes and uploads the analysis artifact.
//
// Inputs:
//   - context: The shared `cor.Context` holding the envelope in the input parameter.
func (c *AnalysisUploader) Execute(context cor.Context) {
	envelope := context.Get(c.GetInputParam()).(*model.Envelope)
	events := context.Get(GetShotEventsParameterName()).([]model.ShotEvent)

	payload, err := encodeAnalysisArtifact(events)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("serializing analysis for job %s: %w", envelope.JobId, err))
		return
	}

	uri, err := c.media.Upload(
		context.GetContext(),
		envelope.OutBucket,
		cloudpkg.AnalysisObjectName(envelope.JobId),
		"application/json",
		bytes.NewReader(payload))
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("uploading analysis for job %s: %w", envelope.JobId, err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetAnalysisURIParameterName(), uri)
	context.Add(c.GetOutputParam(), envelope)
}
