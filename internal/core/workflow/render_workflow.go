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

// This file implements the render pipeline: a render-mode envelope carrying
// user-edited clip ranges in, a final_render.mp4 and a ready job out. No
// generative analysis runs here; the cut list arrives fully decided.
package workflow

import (
	"github.com/hooplight/gcp-go-hoops-highlights/internal/cloud"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/commands"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/cor"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/media"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/services"
)

// RenderWorkflow orchestrates the final-cut pipeline for highlights whose
// clip list was edited by the owner.
type RenderWorkflow struct {
	cor.BaseCommand
	config      *cloud.Config
	jobs        *services.JobService
	media       *services.MediaService
	analytics   *services.AnalyticsService
	toolkit     *media.Toolkit
	workerCount int
	chain       cor.Chain
}

// Execute runs the render workflow by invoking the underlying chain.
//
// Inputs:
//   - context: The chain of responsibility context for this execution.
func (m *RenderWorkflow) Execute(context cor.Context) {
	m.chain.Execute(context)
}

func (m *RenderWorkflow) initializeChain() {
	out := cor.NewBaseChain(m.GetName())

	// Step 1: Parse and validate the envelope, including its clip list.
	out.AddCommand(commands.NewEnvelopeReader("read-render-envelope"))

	// Step 2: Skip replays of already rendered jobs, move fresh ones to
	// rendering.
	out.AddCommand(commands.NewRenderGuard("guard-render-status", m.jobs))

	// Step 3: Stage the source video locally.
	out.AddCommand(commands.NewSourceDownloader("stage-source-video", m.media, m.jobs, m.toolkit))

	// Step 4: Cut the user's clip list exactly as given and join it.
	out.AddCommand(commands.NewFinalClipExtractor("extract-final-clips", m.toolkit, m.workerCount))

	// Step 5: Upload the final render.
	out.AddCommand(commands.NewHighlightUploader("upload-final-render", m.media, m.toolkit, cloud.FinalRenderObjectName))

	// Step 6: Commit the job as ready.
	out.AddCommand(commands.NewRenderCommit("commit-render", m.jobs, m.analytics))

	m.chain = out
}

// NewRenderPipeline is the constructor for the RenderWorkflow.
//
// Inputs:
//   - config: The application's overall configuration.
//   - serviceClients: A struct containing initialized clients for GCP services.
//
// Returns:
//   - A pointer to a newly created and fully initialized RenderWorkflow.
func NewRenderPipeline(config *cloud.Config, serviceClients *cloud.ServiceClients) *RenderWorkflow {
	pipeline := &RenderWorkflow{
		BaseCommand: *cor.NewBaseCommand("render-pipeline"),
		config:      config,
		jobs:        NewJobService(config, serviceClients),
		media:       NewMediaService(config, serviceClients),
		analytics:   NewAnalyticsService(config, serviceClients),
		toolkit:     media.NewToolkit(config.Worker.FfmpegPath, config.Worker.FfprobePath),
		workerCount: config.Application.ThreadPoolSize,
	}
	pipeline.initializeChain()
	return pipeline
}
