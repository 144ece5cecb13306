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

// This file implements the analysis-only pipeline. It runs the same shot
// detection as the full pipeline but stops after persisting the events: the
// caller reads them through the result endpoint, edits the clip list in the
// browser, and submits a render job later. The raw source is never deleted
// here because that later render still needs it.
package workflow

import (
	"text/template"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/cloud"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/commands"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/cor"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/media"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/services"
)

// AnalysisOnlyWorkflow orchestrates shot detection without rendering.
type AnalysisOnlyWorkflow struct {
	cor.BaseCommand
	config     *cloud.Config
	jobs       *services.JobService
	media      *services.MediaService
	analytics  *services.AnalyticsService
	genaiModel *cloud.QuotaAwareGenerativeAIModel
	toolkit    *media.Toolkit
	prompt     *template.Template
	chain      cor.Chain
}

// Execute runs the analysis-only workflow by invoking the underlying chain.
//
// Inputs:
//   - context: The chain of responsibility context for this execution.
func (m *AnalysisOnlyWorkflow) Execute(context cor.Context) {
	m.chain.Execute(context)
}

func (m *AnalysisOnlyWorkflow) initializeChain() {
	out := cor.NewBaseChain(m.GetName())

	// Steps mirror the head of the full pipeline, then commit without
	// cutting anything.
	out.AddCommand(commands.NewEnvelopeReader("read-job-envelope"))
	out.AddCommand(commands.NewJobGuard("guard-job-status", m.jobs))
	out.AddCommand(commands.NewSourceDownloader("stage-source-video", m.media, m.jobs, m.toolkit))
	out.AddCommand(commands.NewShotDetector("detect-shots", m.genaiModel, m.prompt))
	out.AddCommand(commands.NewShotEventsParser("parse-shot-events"))
	out.AddCommand(commands.NewAnalysisUploader("upload-analysis", m.media))
	out.AddCommand(commands.NewVertexCommit("commit-analysis", m.jobs, m.analytics))

	m.chain = out
}

// NewAnalysisOnlyPipeline is the constructor for the AnalysisOnlyWorkflow.
//
// Inputs:
//   - config: The application's overall configuration.
//   - serviceClients: A struct containing initialized clients for GCP services.
//   - agentModelName: The name of the Vertex AI agent model config to use.
//
// Returns:
//   - A pointer to a newly created and fully initialized AnalysisOnlyWorkflow.
func NewAnalysisOnlyPipeline(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients,
	agentModelName string) *AnalysisOnlyWorkflow {

	prompt, err := template.New("shot-events-template").Parse(config.PromptTemplates.ShotEvents)
	if err != nil {
		panic(err)
	}

	pipeline := &AnalysisOnlyWorkflow{
		BaseCommand: *cor.NewBaseCommand("analysis-only-pipeline"),
		config:      config,
		jobs:        NewJobService(config, serviceClients),
		media:       NewMediaService(config, serviceClients),
		analytics:   NewAnalyticsService(config, serviceClients),
		genaiModel:  serviceClients.AgentModels[agentModelName],
		toolkit:     media.NewToolkit(config.Worker.FfmpegPath, config.Worker.FfprobePath),
		prompt:      prompt,
	}
	pipeline.initializeChain()
	return pipeline
}
