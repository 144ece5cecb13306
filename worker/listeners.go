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

// Package main contains the logic for setting up and starting the Pub/Sub
// message listener that drives the worker. One subscription carries every
// job envelope; the mode dispatcher picks the pipeline per message.
//
// Functions:
//   - SetupListeners: Attaches the dispatcher and the failure handler to the
//     job subscription and starts receiving.
//   - newFailureHandler: Builds the handler that commits a failed job before
//     the message is acknowledged.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/cloud"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/model"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/services"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/workflow"
)

// SetupListeners configures and starts the background Pub/Sub listener.
// It builds the mode dispatcher over the three pipelines and attaches it,
// together with the terminal-error handler, to the job subscription.
//
// Inputs:
//   - config: The application's configuration, containing settings for storage, topics, etc.
//   - cloudClients: A struct containing all the initialized Google Cloud service clients.
//   - ctx: The process's root context, used to manage the lifecycle of the listener.
//
// Outputs:
//   - This function does not return any value. It starts the listener as a background goroutine.
func SetupListeners(config *cloud.Config, cloudClients *cloud.ServiceClients, ctx context.Context) {
	// The dispatcher owns all three pipelines; every envelope flows through it.
	dispatcher := workflow.NewModeDispatcher(config, cloudClients, ShotDetectorModel)

	listener := cloudClients.PubSubListeners[JobQueueName]
	listener.SetCommand(dispatcher)

	// When a chain fails, the job document must reach a terminal error state
	// before the message is acked, so redeliveries short-circuit at the
	// idempotency guard.
	jobs := workflow.NewJobService(config, cloudClients)
	listener.SetFailureHandler(newFailureHandler(jobs))

	listener.Listen(ctx)
}

// newFailureHandler builds the terminal-error write for failed chain runs.
// The handler extracts the job id from the raw envelope and records the
// chain's errors on the document. A payload without a job id has nothing to
// commit against and is only logged.
func newFailureHandler(jobs *services.JobService) cloud.FailureHandler {
	return func(ctx context.Context, payload []byte, errs map[string]error) {
		var envelope model.Envelope
		if err := json.Unmarshal(payload, &envelope); err != nil || envelope.JobId == "" {
			slog.Error("failed message carries no job id", "error", err)
			return
		}

		// Deterministic message order regardless of map iteration.
		parts := make([]string, 0, len(errs))
		for name, e := range errs {
			parts = append(parts, fmt.Sprintf("%s: %v", name, e))
		}
		sort.Strings(parts)

		if err := jobs.CommitError(ctx, envelope.JobId, strings.Join(parts, "; ")); err != nil {
			slog.Error("failed to commit job error state", "jobId", envelope.JobId, "error", err)
		}
	}
}
