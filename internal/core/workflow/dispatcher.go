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

// This file defines the mode dispatcher, the single command attached to the
// job subscription. All job envelopes travel on one topic; the dispatcher
// peeks at the envelope's mode and hands the untouched message to the
// matching pipeline. Historical clients publish mode "old", which normalizes
// to the full analysis pipeline.
package workflow

import (
	"encoding/json"
	"fmt"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/cloud"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/cor"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/model"
)

// ModeDispatcher routes bus messages to the pipeline matching their mode.
type ModeDispatcher struct {
	cor.BaseCommand
	pipelines map[string]cor.Command
}

// NewModeDispatcher builds the dispatcher with all three pipelines wired.
//
// Inputs:
//   - config: The application's overall configuration.
//   - serviceClients: A struct containing initialized clients for GCP services.
//   - agentModelName: The name of the Vertex AI agent model config used by
//     the analyzing pipelines.
//
// Returns:
//   - A pointer to a newly created ModeDispatcher.
func NewModeDispatcher(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients,
	agentModelName string) *ModeDispatcher {
	return &ModeDispatcher{
		BaseCommand: *cor.NewBaseCommand("mode-dispatcher"),
		pipelines: map[string]cor.Command{
			model.ModeAnalysis: NewHighlightPipeline(config, serviceClients, agentModelName),
			model.ModeVertex:   NewAnalysisOnlyPipeline(config, serviceClients, agentModelName),
			model.ModeRender:   NewRenderPipeline(config, serviceClients),
		},
	}
}

// Execute peeks at the message's mode and delegates to the matching
// pipeline. The raw message stays in the context so the pipeline's own
// envelope reader performs the full parse and validation.
//
// Inputs:
//   - context: The shared `cor.Context` holding the raw bus message.
func (m *ModeDispatcher) Execute(context cor.Context) {
	in := context.Get(m.GetInputParam()).(string)

	var peek model.Envelope
	if err := json.Unmarshal([]byte(in), &peek); err != nil {
		m.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(m.GetName(), fmt.Errorf("failed to unmarshal job envelope: %w", err))
		return
	}

	pipeline, ok := m.pipelines[peek.NormalizedMode()]
	if !ok {
		m.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(m.GetName(), fmt.Errorf("no pipeline for mode %q", peek.Mode))
		return
	}

	m.GetSuccessCounter().Add(context.GetContext(), 1)
	pipeline.Execute(context)
}
