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

// Package cloud provides components for interacting with Google Cloud services.
// This file implements a wrapper around the standard Generative AI client.
// The wrapper uses the Decorator pattern to add rate limiting and a retry
// policy to the Generative AI model without altering the client itself.
// Vertex AI enforces per-minute quotas, and long-running video analysis calls
// hit transient unavailability often enough that every caller needs both.
//
// Structs:
//   - QuotaAwareGenerativeAIModel: Wraps the model handle with a rate limiter
//     and an exponential backoff retry policy.
//
// Functions:
//   - NewQuotaAwareModel: A constructor to create a new instance of the wrapped model.
//   - GenerateContent: An overridden method that intercepts calls to the AI model
//     to enforce rate limiting and retries.
//   - IsRetryableModelError: Classifies transient model errors.
package cloud

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// Retry policy for model calls. Waits grow from the initial interval by the
// multiplier between attempts; after MaxModelAttempts the last error surfaces
// to the caller.
const (
	ModelRetryInitialInterval = 5 * time.Second
	ModelRetryMultiplier      = 2.0
	MaxModelAttempts          = 3
)

// QuotaAwareGenerativeAIModel is a decorator that adds rate limiting and
// retries to a generative model handle. The generation config, model name,
// and handle travel together so callers only ever deal with this struct.
type QuotaAwareGenerativeAIModel struct {
	GenerativeContentConfig *genai.GenerateContentConfig // The generation parameters applied to every call.
	ModelName               string                       // The Vertex AI model identifier.
	ModelHandle             *genai.Models                // The underlying model accessor from the genai client.
	RateLimit               *rate.Limiter                // Controls request frequency against the model quota.
}

// NewQuotaAwareModel is a constructor function that creates a new
// QuotaAwareGenerativeAIModel.
//
// Inputs:
//   - wrapped: The generation config applied to each call.
//   - name: The Vertex AI model identifier.
//   - modelHandle: The model accessor from the genai client.
//   - requestsPerSecond: The maximum number of API calls allowed per second.
//
// Outputs:
//   - *QuotaAwareGenerativeAIModel: A pointer to the newly created wrapper.
func NewQuotaAwareModel(wrapped *genai.GenerateContentConfig, name string, modelHandle *genai.Models, requestsPerSecond int) *QuotaAwareGenerativeAIModel {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &QuotaAwareGenerativeAIModel{
		GenerativeContentConfig: wrapped,
		ModelName:               name,
		ModelHandle:             modelHandle,
		RateLimit:               rate.NewLimiter(rate.Every(time.Second), requestsPerSecond),
	}
}

// GenerateContent calls the underlying model, blocking on the rate limiter
// first and retrying transient failures with exponential backoff. Permanent
// failures (safety blocks, invalid arguments) surface immediately.
//
// Inputs:
//   - ctx: The context for the request; cancellation aborts waits and retries.
//   - content: The multi-modal prompt contents.
//
// Outputs:
//   - *genai.GenerateContentResponse: The response from the AI model if successful.
//   - error: The last error after the retry policy is exhausted.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, content []*genai.Content) (*genai.GenerateContentResponse, error) {
	var resp *genai.GenerateContentResponse
	operation := func() error {
		if err := q.RateLimit.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		var err error
		resp, err = q.ModelHandle.GenerateContent(ctx, q.ModelName, content, q.GenerativeContentConfig)
		if err == nil {
			return nil
		}
		if IsRetryableModelError(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	if err := retryModelCall(ctx, newModelRetryPolicy(), operation); err != nil {
		return nil, err
	}
	return resp, nil
}

// newModelRetryPolicy builds the exponential backoff applied between model
// call attempts.
func newModelRetryPolicy() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = ModelRetryInitialInterval
	policy.Multiplier = ModelRetryMultiplier
	policy.RandomizationFactor = 0
	policy.MaxElapsedTime = 0
	return policy
}

// retryModelCall runs the operation under the model retry budget: at most
// MaxModelAttempts invocations, stopping early on a permanent error or
// context cancellation. This is the only retry layer for model calls.
func retryModelCall(ctx context.Context, policy backoff.BackOff, operation backoff.Operation) error {
	return backoff.Retry(operation,
		backoff.WithContext(backoff.WithMaxRetries(policy, MaxModelAttempts-1), ctx))
}

// IsRetryableModelError reports whether a model call failed for a transient
// reason worth retrying: service overload, explicit unavailability, or a
// deadline expiring mid-call.
func IsRetryableModelError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "503") ||
		strings.Contains(msg, "unavailable") ||
		strings.Contains(msg, "deadline exceeded") ||
		strings.Contains(msg, "timeout")
}
