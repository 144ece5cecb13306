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

package commands

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/model"
)

func TestEncodeAnalysisArtifactIsBareArray(t *testing.T) {
	payload, err := encodeAnalysisArtifact([]model.ShotEvent{
		{Id: "ev-1", TimestampStart: 9, TimestampEnd: 15, Outcome: model.OutcomeMake, Show: true},
		{Id: "ev-2", TimestampStart: 29, TimestampEnd: 34, Outcome: model.OutcomeMiss, Show: true},
	})
	assert.NoError(t, err)

	var events []model.ShotEvent
	assert.NoError(t, json.Unmarshal(payload, &events))
	assert.Len(t, events, 2)
	assert.Equal(t, "ev-1", events[0].Id)

	// The artifact body is the array itself, not an object around it.
	var wrapper map[string]interface{}
	assert.Error(t, json.Unmarshal(payload, &wrapper))
}

func TestEncodeAnalysisArtifactEmptyRun(t *testing.T) {
	payload, err := encodeAnalysisArtifact(nil)
	assert.NoError(t, err)
	assert.JSONEq(t, "[]", string(payload))
}
