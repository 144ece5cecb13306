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

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAnalysisArtifactArray(t *testing.T) {
	events, err := parseAnalysisArtifact([]byte(
		`[{"id": "ev-1", "timestamp_start": 9, "timestamp_end": 15, "outcome": "make", "show": true}]`))
	assert.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, "ev-1", events[0].Id)
	assert.Equal(t, 9, events[0].TimestampStart)
}

func TestParseAnalysisArtifactLegacyWrapper(t *testing.T) {
	events, err := parseAnalysisArtifact([]byte(
		`{"jobId": "job-1", "shotEvents": [{"id": "ev-1", "timestamp_start": 9, "timestamp_end": 15, "outcome": "make", "show": true}]}`))
	assert.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, "ev-1", events[0].Id)
}

func TestParseAnalysisArtifactGarbage(t *testing.T) {
	_, err := parseAnalysisArtifact([]byte("not json"))
	assert.Error(t, err)
}
