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

// This file defines the terminal commit command of each worker pipeline. The
// commit is the single durable write that makes the run's results visible:
// everything staged in the chain context (artifact URIs, events, durations)
// lands on the job document in one merge. After the commit, housekeeping
// runs best effort: the raw source may be deleted when configured, and a
// completion row goes to the analytics sink. Neither failure unwinds a
// committed job.
package commands

import (
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/cor"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/highlights"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/model"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/services"
)

// JobCommit writes the terminal success state for a pipeline run.
type JobCommit struct {
	cor.BaseCommand
	jobs      *services.JobService
	media     *services.MediaService
	analytics *services.AnalyticsService
	// terminalStatus is the status the commit writes (done or ready).
	terminalStatus string
	// commitEvents controls whether staged shot events land on the document.
	commitEvents bool
	// commitFinalVideo writes the staged output URI as finalVideoUrl, which
	// the render pipeline pairs with the ready status.
	commitFinalVideo bool
	// deleteSource removes the raw upload after a successful commit.
	deleteSource bool
}

// NewAnalysisCommit builds the commit for the full analysis pipeline: the
// job finishes done with its events, artifact URIs, and durations, the raw
// source is optionally deleted, and a completion row goes to analytics.
//
// Inputs:
//   - name: A string name for this command instance.
//   - jobs: The job document service.
//   - mediaService: The object storage service, for the source delete.
//   - analytics: The analytics sink; may be nil to disable.
//   - deleteSource: Whether to remove the raw upload after the commit.
//
// Outputs:
//   - *JobCommit: A pointer to the newly instantiated command.
func NewAnalysisCommit(name string, jobs *services.JobService, mediaService *services.MediaService, analytics *services.AnalyticsService, deleteSource bool) *JobCommit {
	return &JobCommit{
		BaseCommand:    *cor.NewBaseCommand(name),
		jobs:           jobs,
		media:          mediaService,
		analytics:      analytics,
		terminalStatus: model.StatusDone,
		commitEvents:   true,
		deleteSource:   deleteSource,
	}
}

// NewVertexCommit builds the commit for the analysis-only pipeline. Events
// and the analysis artifact are committed but the raw source always stays,
// because a later render run still needs it.
func NewVertexCommit(name string, jobs *services.JobService, analytics *services.AnalyticsService) *JobCommit {
	return &JobCommit{
		BaseCommand:    *cor.NewBaseCommand(name),
		jobs:           jobs,
		analytics:      analytics,
		terminalStatus: model.StatusDone,
		commitEvents:   true,
	}
}

// NewRenderCommit builds the commit for the render pipeline: the job
// finishes ready with the final render's URI recorded as finalVideoUrl.
func NewRenderCommit(name string, jobs *services.JobService, analytics *services.AnalyticsService) *JobCommit {
	return &JobCommit{
		BaseCommand:      *cor.NewBaseCommand(name),
		jobs:             jobs,
		analytics:        analytics,
		terminalStatus:   model.StatusReady,
		commitFinalVideo: true,
	}
}

// buildCommitFields assembles the merge payload from everything the pipeline
// staged in the chain context.
//
// Inputs:
//   - context: The shared `cor.Context` carrying staged results.
//
// Outputs:
//   - map[string]interface{}: The fields merged onto the job document.
func (c *JobCommit) buildCommitFields(context cor.Context) map[string]interface{} {
	fields := map[string]interface{}{
		"status":     c.terminalStatus,
		"error":      firestore.Delete,
		"finishedAt": firestore.ServerTimestamp,
	}

	if v := context.Get(GetOutputURIParameterName()); v != nil {
		fields["outputGcsUri"] = v.(string)
		if c.commitFinalVideo {
			fields["finalVideoUrl"] = v.(string)
		}
	}
	if v := context.Get(GetAnalysisURIParameterName()); v != nil {
		fields["analysisGcsUri"] = v.(string)
	}
	if c.commitEvents {
		if v := context.Get(GetShotEventsParameterName()); v != nil {
			fields["shotEvents"] = v.([]model.ShotEvent)
		}
	}
	if v := context.Get(GetHighlightDurationParameterName()); v != nil {
		seconds := highlights.CeilSeconds(v.(float64))
		fields["highlightDurationSeconds"] = seconds
		fields["highlightVideoLength"] = seconds
	}
	return fields
}

// Execute merges the staged results onto the job document and runs the
// post-commit housekeeping.
//
// Inputs:
//   - context: The shared `cor.Context` holding the envelope in the input parameter.
func (c *JobCommit) Execute(context cor.Context) {
	envelope := context.Get(c.GetInputParam()).(*model.Envelope)

	fields := c.buildCommitFields(context)

	if err := c.jobs.Merge(context.GetContext(), envelope.JobId, fields); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("committing job %s: %w", envelope.JobId, err))
		return
	}
	c.GetSuccessCounter().Add(context.GetContext(), 1)

	if c.deleteSource && c.media != nil {
		if err := c.media.Delete(context.GetContext(), envelope.VideoGcsUri); err != nil {
			slog.Warn("failed to delete source after commit", "jobId", envelope.JobId, "error", err)
		}
	}

	if c.analytics != nil {
		clipCount := 0
		if v := context.Get(GetClipPlanParameterName()); v != nil {
			clipCount = len(v.([]model.ClipRange))
		}
		job, err := c.jobs.Get(context.GetContext(), envelope.JobId)
		if err == nil {
			err = c.analytics.RecordCompletion(context.GetContext(), job, clipCount)
		}
		if err != nil {
			slog.Warn("failed to record completion analytics", "jobId", envelope.JobId, "error", err)
		}
	}

	context.Add(c.GetOutputParam(), envelope)
}
