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

// This file defines the command that uploads the rendered highlight file to
// the output bucket. The destination key differs between the pipelines
// (highlight.mp4 for planner output, final_render.mp4 for user-edited cuts),
// so the key builder is injected by the workflow.
package commands

import (
	"fmt"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/cor"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/media"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/model"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/services"
)

// GetOutputURIParameterName returns the context key holding the gs:// URI of
// the uploaded highlight video.
//
// Outputs:
//   - string: A constant placeholder string "__OUTPUT_URI__".
func GetOutputURIParameterName() string {
	return "__OUTPUT_URI__"
}

// HighlightUploader is a command that uploads the rendered highlight and
// records its duration.
type HighlightUploader struct {
	cor.BaseCommand
	media      *services.MediaService
	toolkit    *media.Toolkit
	objectName func(jobId string) string
}

// NewHighlightUploader is the constructor for the HighlightUploader command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - mediaService: The object storage service.
//   - toolkit: The local media toolkit, used to probe the rendered file.
//   - objectName: Builds the destination object key from the job id.
//
// Outputs:
//   - *HighlightUploader: A pointer to the newly instantiated command.
func NewHighlightUploader(name string, mediaService *services.MediaService, toolkit *media.Toolkit, objectName func(jobId string) string) *HighlightUploader {
	return &HighlightUploader{
		BaseCommand: *cor.NewBaseCommand(name),
		media:       mediaService,
		toolkit:     toolkit,
		objectName:  objectName,
	}
}

// Execute uploads the highlight file when one was rendered. A run with an
// empty plan has no file and passes straight through.
//
// Inputs:
//   - context: The shared `cor.Context` holding the envelope in the input parameter.
func (c *HighlightUploader) Execute(context cor.Context) {
	envelope := context.Get(c.GetInputParam()).(*model.Envelope)

	fileValue := context.Get(GetHighlightFileParameterName())
	if fileValue == nil {
		c.GetSuccessCounter().Add(context.GetContext(), 1)
		context.Add(c.GetOutputParam(), envelope)
		return
	}
	highlightPath := fileValue.(string)

	duration, err := c.toolkit.ProbeDurationSeconds(context.GetContext(), highlightPath)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("probing highlight for job %s: %w", envelope.JobId, err))
		return
	}
	context.Add(GetHighlightDurationParameterName(), duration)

	uri, err := c.media.UploadFile(
		context.GetContext(),
		envelope.OutBucket,
		c.objectName(envelope.JobId),
		"video/mp4",
		highlightPath)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("uploading highlight for job %s: %w", envelope.JobId, err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetOutputURIParameterName(), uri)
	context.Add(c.GetOutputParam(), envelope)
}

// GetHighlightDurationParameterName returns the context key holding the
// rendered highlight's duration in fractional seconds.
//
// Outputs:
//   - string: A constant placeholder string "__HIGHLIGHT_DURATION__".
func GetHighlightDurationParameterName() string {
	return "__HIGHLIGHT_DURATION__"
}
