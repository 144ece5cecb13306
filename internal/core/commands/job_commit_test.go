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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/cor"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/model"
)

func TestRenderCommitFieldsCarryFinalVideoUrl(t *testing.T) {
	commit := NewRenderCommit("commit-render", nil, nil)

	c := cor.NewBaseContext()
	c.SetContext(context.Background())
	defer c.Close()
	c.Add(cor.CtxIn, &model.Envelope{JobId: "job-7"})
	c.Add(GetOutputURIParameterName(), "gs://out-bucket/job-7/final_render.mp4")
	c.Add(GetHighlightDurationParameterName(), 14.2)

	fields := commit.buildCommitFields(c)

	assert.Equal(t, model.StatusReady, fields["status"])
	assert.Equal(t, "gs://out-bucket/job-7/final_render.mp4", fields["outputGcsUri"])
	assert.Equal(t, "gs://out-bucket/job-7/final_render.mp4", fields["finalVideoUrl"])
	assert.Equal(t, 15, fields["highlightDurationSeconds"])
	assert.NotContains(t, fields, "shotEvents")
}

func TestAnalysisCommitFieldsOmitFinalVideoUrl(t *testing.T) {
	commit := NewAnalysisCommit("commit-analysis", nil, nil, nil, false)

	c := cor.NewBaseContext()
	c.SetContext(context.Background())
	defer c.Close()
	c.Add(cor.CtxIn, &model.Envelope{JobId: "job-7"})
	c.Add(GetOutputURIParameterName(), "gs://out-bucket/job-7/highlight.mp4")
	c.Add(GetAnalysisURIParameterName(), "gs://out-bucket/job-7/analysis.json")
	c.Add(GetShotEventsParameterName(), []model.ShotEvent{{Id: "ev-1", TimestampStart: 9, TimestampEnd: 15}})

	fields := commit.buildCommitFields(c)

	assert.Equal(t, model.StatusDone, fields["status"])
	assert.Equal(t, "gs://out-bucket/job-7/highlight.mp4", fields["outputGcsUri"])
	assert.Equal(t, "gs://out-bucket/job-7/analysis.json", fields["analysisGcsUri"])
	assert.NotContains(t, fields, "finalVideoUrl")
	assert.Len(t, fields["shotEvents"], 1)
}
