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

package cloud

import (
	"context"
	"errors"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
)

func TestRetryModelCallStopsAtAttemptBudget(t *testing.T) {
	calls := 0
	transient := errors.New("googleapi: Error 503: service unavailable")
	err := retryModelCall(context.Background(), &backoff.ZeroBackOff{}, func() error {
		calls++
		return transient
	})
	assert.Error(t, err)
	assert.Equal(t, MaxModelAttempts, calls)
}

func TestRetryModelCallFailsFastOnPermanentError(t *testing.T) {
	calls := 0
	blocked := errors.New("googleapi: Error 400: invalid argument")
	err := retryModelCall(context.Background(), &backoff.ZeroBackOff{}, func() error {
		calls++
		return backoff.Permanent(blocked)
	})
	assert.ErrorIs(t, err, blocked)
	assert.Equal(t, 1, calls)
}

func TestRetryModelCallRecoversMidBudget(t *testing.T) {
	calls := 0
	err := retryModelCall(context.Background(), &backoff.ZeroBackOff{}, func() error {
		calls++
		if calls < 2 {
			return errors.New("rpc error: code = Unavailable desc = overloaded")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetryModelCallHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := retryModelCall(ctx, &backoff.ZeroBackOff{}, func() error {
		calls++
		return errors.New("googleapi: Error 503: service unavailable")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
