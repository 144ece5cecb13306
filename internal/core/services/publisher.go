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

// This file defines the PublisherService, the API tier's only write path to
// the message bus. Enqueueing is the durability boundary of ingest: the job
// document is written first, then the envelope is published, and a publish
// failure is surfaced to the caller as a distinct job state instead of being
// retried silently.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/model"
)

// DefaultPublishTimeout bounds how long an HTTP request blocks on the bus
// before the API reports the enqueue as failed.
const DefaultPublishTimeout = 10 * time.Second

// PublisherService publishes job envelopes to the processing topic.
type PublisherService struct {
	PubsubClient *pubsub.Client // Client for Google Cloud Pub/Sub.
	TopicName    string         // The topic the API publishes job envelopes to.
	Timeout      time.Duration  // Per-publish timeout; zero means DefaultPublishTimeout.
}

// PublishEnvelope serializes the envelope and publishes it, blocking until
// the server acknowledges the message or the timeout elapses.
//
// Inputs:
//   - ctx: The context for the request.
//   - envelope: The job envelope to enqueue.
//
// Outputs:
//   - string: The server-assigned message id.
//   - error: An error when marshaling or publishing fails.
func (s *PublisherService) PublishEnvelope(ctx context.Context, envelope *model.Envelope) (string, error) {
	data, err := json.Marshal(envelope)
	if err != nil {
		return "", fmt.Errorf("marshaling envelope for job %s: %w", envelope.JobId, err)
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	pubCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	topic := s.PubsubClient.Topic(s.TopicName)
	result := topic.Publish(pubCtx, &pubsub.Message{Data: data})
	id, err := result.Get(pubCtx)
	if err != nil {
		return "", fmt.Errorf("publishing job %s: %w", envelope.JobId, err)
	}
	return id, nil
}
