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

package workflow_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/cloud"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/cor"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/model"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/workflow"
	test "github.com/hooplight/gcp-go-hoops-highlights/internal/testutil"
)

const testAgentModel = "shot-detector"

// newDispatcher builds a dispatcher over an empty client set. Construction
// only wires commands together; no cloud calls happen until a message flows
// through a pipeline.
func newDispatcher(t *testing.T) *workflow.ModeDispatcher {
	t.Helper()
	return workflow.NewModeDispatcher(config, &cloud.ServiceClients{}, testAgentModel)
}

func newChainContext(raw string) cor.Context {
	c := cor.NewBaseContext()
	c.SetContext(ctx)
	c.Add(cor.CtxIn, raw)
	return c
}

func TestDispatcherRejectsMalformedEnvelope(t *testing.T) {
	dispatcher := newDispatcher(t)

	c := newChainContext("this is not an envelope")
	defer c.Close()
	dispatcher.Execute(c)

	assert.True(t, c.HasErrors())
}

// An envelope that parses but fails validation is delegated to a pipeline,
// whose envelope reader records the error and halts the chain before any
// cloud client is touched.
func TestDispatcherDelegatesInvalidEnvelope(t *testing.T) {
	dispatcher := newDispatcher(t)

	c := newChainContext(`{"jobId": "job-1", "mode": "analysis"}`)
	defer c.Close()
	dispatcher.Execute(c)

	assert.True(t, c.HasErrors())
}

// The envelope fixtures cover the three published mode values plus the
// retired "old" value. Normalization decides which pipeline runs.
func TestEnvelopeModeNormalization(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{name: "analysis", raw: test.GetTestAnalysisEnvelopeText(), want: model.ModeAnalysis},
		{name: "render", raw: test.GetTestRenderEnvelopeText(), want: model.ModeRender},
		{name: "legacy old mode", raw: test.GetTestLegacyEnvelopeText(), want: model.ModeAnalysis},
		{name: "empty mode", raw: `{"jobId": "job-2"}`, want: model.ModeAnalysis},
		{name: "vertex", raw: `{"jobId": "job-3", "mode": "vertex"}`, want: model.ModeVertex},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var envelope model.Envelope
			err := json.Unmarshal([]byte(tc.raw), &envelope)
			assert.NoError(t, err)
			assert.Equal(t, tc.want, envelope.NormalizedMode())
		})
	}
}

func TestRenderEnvelopeFixtureCarriesClips(t *testing.T) {
	var envelope model.Envelope
	err := json.Unmarshal([]byte(test.GetTestRenderEnvelopeText()), &envelope)
	assert.NoError(t, err)

	assert.Equal(t, "test-job-002", envelope.JobId)
	assert.Len(t, envelope.FinalClips, 2)
	assert.Equal(t, 10.2, envelope.FinalClips[0].Start)
	assert.Equal(t, 15.4, envelope.FinalClips[0].End)
}

// Every pipeline constructor must come up cleanly from configuration alone,
// including the prompt template compile.
func TestPipelineConstructors(t *testing.T) {
	clients := &cloud.ServiceClients{}

	assert.NotNil(t, workflow.NewHighlightPipeline(config, clients, testAgentModel))
	assert.NotNil(t, workflow.NewAnalysisOnlyPipeline(config, clients, testAgentModel))
	assert.NotNil(t, workflow.NewRenderPipeline(config, clients))
}
