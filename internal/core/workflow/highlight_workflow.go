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

// Package workflow defines the high-level business logic orchestrations,
// combining various commands into coherent pipelines. This file implements
// the full highlight pipeline: a job envelope in, a rendered highlight reel
// and committed job record out.
package workflow

import (
	"text/template"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/cloud"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/commands"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/cor"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/highlights"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/media"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/services"
)

// HighlightWorkflow orchestrates the automatic highlight pipeline. It is
// structured as a Chain of Responsibility (cor.Chain) that parses the
// envelope, guards against replays, stages the source, runs the generative
// analysis, cuts and uploads the reel, and commits the job.
//
// The workflow is triggered by an analysis-mode envelope on the job topic.
type HighlightWorkflow struct {
	cor.BaseCommand
	config       *cloud.Config
	jobs         *services.JobService
	media        *services.MediaService
	analytics    *services.AnalyticsService
	genaiModel   *cloud.QuotaAwareGenerativeAIModel
	toolkit      *media.Toolkit
	planner      *highlights.Planner
	prompt       *template.Template
	workerCount  int
	deleteSource bool
	chain        cor.Chain // The underlying chain of commands to be executed.
}

// Execute runs the entire highlight workflow by invoking the underlying chain.
//
// Inputs:
//   - context: The chain of responsibility context for this execution.
func (m *HighlightWorkflow) Execute(context cor.Context) {
	m.chain.Execute(context)
}

// initializeChain builds the sequence of commands that make up this workflow.
// The parsed envelope is the value piped between commands; intermediate
// artifacts travel under named context keys.
func (m *HighlightWorkflow) initializeChain() {
	out := cor.NewBaseChain(m.GetName())

	// Step 1: Parse and validate the job envelope from the bus message.
	out.AddCommand(commands.NewEnvelopeReader("read-job-envelope"))

	// Step 2: Load the job record, skip replayed terminal jobs, and move the
	// job to processing.
	out.AddCommand(commands.NewJobGuard("guard-job-status", m.jobs))

	// Step 3: Stage the source video locally, remux to MP4 if needed, and
	// record its duration on the job.
	out.AddCommand(commands.NewSourceDownloader("stage-source-video", m.media, m.jobs, m.toolkit))

	// Step 4: Run the generative shot analysis against the GCS source.
	out.AddCommand(commands.NewShotDetector("detect-shots", m.genaiModel, m.prompt))

	// Step 5: Canonicalize the model response into shot events with ids.
	out.AddCommand(commands.NewShotEventsParser("parse-shot-events"))

	// Step 6: Persist the analysis artifact to the output bucket.
	out.AddCommand(commands.NewAnalysisUploader("upload-analysis", m.media))

	// Step 7: Plan the cut list from the made shots and render the reel.
	// Extraction runs on a worker pool sized from the config.
	out.AddCommand(commands.NewClipExtractor("extract-clips", m.toolkit, m.planner, m.workerCount))

	// Step 8: Upload the rendered reel. A run with no makes has no file and
	// passes through.
	out.AddCommand(commands.NewHighlightUploader("upload-highlight", m.media, m.toolkit, cloud.HighlightObjectName))

	// Step 9: Commit the terminal job state, then best-effort housekeeping
	// (source delete when configured, analytics row).
	out.AddCommand(commands.NewAnalysisCommit("commit-job", m.jobs, m.media, m.analytics, m.deleteSource))

	m.chain = out
}

// NewHighlightPipeline is the constructor for the HighlightWorkflow. It sets
// up all dependencies, compiles the prompt template, and initializes the
// command chain.
//
// Inputs:
//   - config: The application's overall configuration.
//   - serviceClients: A struct containing initialized clients for GCP services.
//   - agentModelName: The name of the Vertex AI agent model config to use (e.g., "shot-detector").
//
// Returns:
//   - A pointer to a newly created and fully initialized HighlightWorkflow.
func NewHighlightPipeline(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients,
	agentModelName string) *HighlightWorkflow {

	prompt, err := template.New("shot-events-template").Parse(config.PromptTemplates.ShotEvents)
	if err != nil {
		panic(err) // The app cannot run without a valid prompt template.
	}

	pipeline := &HighlightWorkflow{
		BaseCommand:  *cor.NewBaseCommand("highlight-pipeline"),
		config:       config,
		jobs:         NewJobService(config, serviceClients),
		media:        NewMediaService(config, serviceClients),
		analytics:    NewAnalyticsService(config, serviceClients),
		genaiModel:   serviceClients.AgentModels[agentModelName],
		toolkit:      media.NewToolkit(config.Worker.FfmpegPath, config.Worker.FfprobePath),
		planner:      NewPlanner(config),
		prompt:       prompt,
		workerCount:  config.Application.ThreadPoolSize,
		deleteSource: config.Storage.DeleteSourceOnSuccess,
	}
	pipeline.initializeChain()
	return pipeline
}

// NewJobService builds the job document service from the shared clients.
func NewJobService(config *cloud.Config, serviceClients *cloud.ServiceClients) *services.JobService {
	return &services.JobService{
		FirestoreClient: serviceClients.FirestoreClient,
		Collection:      config.Firestore.JobsCollection,
	}
}

// NewMediaService builds the object storage service from the shared clients.
func NewMediaService(config *cloud.Config, serviceClients *cloud.ServiceClients) *services.MediaService {
	return &services.MediaService{
		StorageClient: serviceClients.StorageClient,
		IAMClient:     serviceClients.IAMClient,
		SignerEmail:   config.Application.SignerServiceAccountEmail,
	}
}

// NewAnalyticsService builds the BigQuery sink, or nil when no dataset is
// configured.
func NewAnalyticsService(config *cloud.Config, serviceClients *cloud.ServiceClients) *services.AnalyticsService {
	if config.BigQueryDataSource.DatasetName == "" {
		return nil
	}
	return &services.AnalyticsService{
		BigQueryClient: serviceClients.BigQueryClient,
		DatasetName:    config.BigQueryDataSource.DatasetName,
		JobsTable:      config.BigQueryDataSource.JobsTable,
	}
}

// NewPlanner builds the clip planner from the worker config, falling back to
// the production defaults for unset values.
func NewPlanner(config *cloud.Config) *highlights.Planner {
	planner := highlights.NewPlanner()
	if config.Worker.ClipDuration > 0 {
		planner.ClipDuration = config.Worker.ClipDuration
	}
	if config.Worker.PreRoll > 0 {
		planner.PreRoll = config.Worker.PreRoll
	}
	if config.Worker.MergeGap > 0 {
		planner.MergeGap = config.Worker.MergeGap
	}
	return planner
}
