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

// This file defines the idempotency guard at the head of every worker chain.
// Pub/Sub delivery is at-least-once, so a crash between the terminal commit
// and the ack redelivers the envelope. The guard looks up the job record and
// halts the chain without error when the job already reached a terminal
// state, so the redelivered message is simply acked.
//
// Halting works through the chain's piping: by not writing a pipe output, the
// guard leaves the next command's input empty and every later command is
// skipped as not executable.
package commands

import (
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/cor"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/model"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/services"
)

// GetJobParameterName returns the context key under which the guard stores
// the job record it loaded.
//
// Outputs:
//   - string: A constant placeholder string "__JOB__".
func GetJobParameterName() string {
	return "__JOB__"
}

// JobGuard checks the job record before any expensive work starts and moves
// the job into its in-flight status.
type JobGuard struct {
	cor.BaseCommand
	jobs *services.JobService
	// skipStatuses are the statuses that end the run silently.
	skipStatuses []string
	// runningStatus is the in-flight status the guard writes (processing or rendering).
	runningStatus string
}

// NewJobGuard is the constructor for the JobGuard command used by the
// analysis pipelines: replays of done, failed, or deleted jobs are skipped
// and fresh jobs move to processing.
//
// Inputs:
//   - name: A string name for this command instance.
//   - jobs: The job document service.
//
// Outputs:
//   - *JobGuard: A pointer to the newly instantiated command.
func NewJobGuard(name string, jobs *services.JobService) *JobGuard {
	return &JobGuard{
		BaseCommand:   *cor.NewBaseCommand(name),
		jobs:          jobs,
		skipStatuses:  []string{model.StatusDone, model.StatusError, model.StatusDeleted},
		runningStatus: model.StatusProcessing,
	}
}

// NewRenderGuard builds the guard variant for the render pipeline: a replay
// of an already rendered job is skipped and fresh render jobs move to
// rendering.
func NewRenderGuard(name string, jobs *services.JobService) *JobGuard {
	return &JobGuard{
		BaseCommand:   *cor.NewBaseCommand(name),
		jobs:          jobs,
		skipStatuses:  []string{model.StatusReady, model.StatusError, model.StatusDeleted},
		runningStatus: model.StatusRendering,
	}
}

// Execute loads the job, halts on terminal states, and otherwise marks the
// job in flight.
//
// Inputs:
//   - context: The shared `cor.Context` holding the envelope in the input parameter.
func (c *JobGuard) Execute(context cor.Context) {
	envelope := context.Get(c.GetInputParam()).(*model.Envelope)

	job, err := c.jobs.Get(context.GetContext(), envelope.JobId)
	if err == services.ErrJobNotFound {
		// An envelope can outlive its record when a job was created by a
		// client writing straight to the bus. Synthesize a minimal record so
		// the run has something to commit into.
		job = &model.Job{
			JobId:       envelope.JobId,
			UserId:      envelope.UserId,
			OwnerEmail:  envelope.OwnerEmail,
			VideoGcsUri: envelope.VideoGcsUri,
			Mode:        envelope.NormalizedMode(),
			Visibility:  envelope.Visibility,
		}
		if createErr := c.jobs.Create(context.GetContext(), job); createErr != nil {
			c.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(c.GetName(), fmt.Errorf("creating record for job %s: %w", envelope.JobId, createErr))
			return
		}
	} else if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("loading job %s: %w", envelope.JobId, err))
		return
	}

	for _, status := range c.skipStatuses {
		if job.Status == status {
			slog.Info("skipping redelivered job", "jobId", job.JobId, "status", job.Status)
			c.GetSuccessCounter().Add(context.GetContext(), 1)
			// No pipe output: the chain stops here without an error and the
			// listener acks the message.
			return
		}
	}

	if err := c.jobs.Merge(context.GetContext(), job.JobId, map[string]interface{}{
		"status":    c.runningStatus,
		"startedAt": firestore.ServerTimestamp,
		"mode":      envelope.NormalizedMode(),
	}); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("marking job %s %s: %w", job.JobId, c.runningStatus, err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetJobParameterName(), job)
	context.Add(c.GetOutputParam(), envelope)
}
