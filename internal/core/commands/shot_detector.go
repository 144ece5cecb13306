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

// This file defines the command that asks the generative model to find shot
// attempts in the source video.
//
// Logic Flow:
//  1. Render the shot-detection prompt template with the video duration, so
//     the model knows the valid timestamp range.
//  2. Build a multi-modal request that references the video by its GCS URI.
//     Vertex reads the object directly from the bucket, so the worker never
//     re-uploads footage it already has in storage.
//  3. Call the model through the quota-aware wrapper, which enforces the
//     rate limit and retries transient failures.
//  4. Stage the raw response text for the parsing command.
package commands

import (
	"bytes"
	"fmt"
	"text/template"

	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/cloud"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/cor"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/highlights"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/model"
)

// GetRawAnalysisParameterName returns the context key holding the model's
// raw response text.
//
// Outputs:
//   - string: A constant placeholder string "__RAW_ANALYSIS__".
func GetRawAnalysisParameterName() string {
	return "__RAW_ANALYSIS__"
}

// ShotDetector is a command that runs the generative shot analysis over the
// source video.
type ShotDetector struct {
	cor.BaseCommand
	generativeAIModel        *cloud.QuotaAwareGenerativeAIModel // The rate-limited generative model client.
	promptTemplate           *template.Template                 // The Go template for the shot-detection prompt.
	geminiInputTokenCounter  metric.Int64Counter                // OTel counter for input tokens.
	geminiOutputTokenCounter metric.Int64Counter                // OTel counter for output tokens.
}

// NewShotDetector is the constructor for the ShotDetector command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - model: The client for the generative AI model.
//   - prompt: The parsed Go template for the prompt.
//
// Outputs:
//   - *ShotDetector: A pointer to the newly instantiated command.
func NewShotDetector(
	name string,
	model *cloud.QuotaAwareGenerativeAIModel,
	prompt *template.Template) *ShotDetector {
	out := &ShotDetector{
		BaseCommand:       *cor.NewBaseCommand(name),
		generativeAIModel: model,
		promptTemplate:    prompt,
	}

	out.geminiInputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.input", out.GetName()))
	out.geminiOutputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.output", out.GetName()))

	return out
}

// IsExecutable checks that both the envelope and the probed duration are
// present in the context.
func (c *ShotDetector) IsExecutable(context cor.Context) bool {
	return context != nil &&
		context.Get(c.GetInputParam()) != nil &&
		context.Get(GetVideoDurationParameterName()) != nil
}

// Execute renders the prompt and runs the model call.
//
// Inputs:
//   - context: The shared `cor.Context` holding the envelope in the input parameter.
func (c *ShotDetector) Execute(context cor.Context) {
	envelope := context.Get(c.GetInputParam()).(*model.Envelope)
	durationSec := context.Get(GetVideoDurationParameterName()).(int)

	vocabulary := map[string]string{
		"DURATION": highlights.FormatTimestamp(durationSec),
	}
	var doc bytes.Buffer
	if err := c.promptTemplate.Execute(&doc, vocabulary); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("rendering prompt for job %s: %w", envelope.JobId, err))
		return
	}

	fileData := cloud.NewFileData(envelope.VideoGcsUri, "video/mp4")
	contents := []*genai.Content{
		{
			Parts: []*genai.Part{
				{Text: doc.String()},
				{FileData: &fileData},
			},
			Role: "user",
		},
	}

	raw, err := cloud.GenerateMultiModalResponse(
		context.GetContext(),
		c.geminiInputTokenCounter,
		c.geminiOutputTokenCounter,
		c.generativeAIModel,
		contents)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("analyzing job %s: %w", envelope.JobId, err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetRawAnalysisParameterName(), raw)
	context.Add(c.GetOutputParam(), envelope)
}
