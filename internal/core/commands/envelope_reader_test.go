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

func newTestContext(raw string) cor.Context {
	c := cor.NewBaseContext()
	c.SetContext(context.Background())
	c.Add(cor.CtxIn, raw)
	return c
}

func TestEnvelopeReaderParsesValidEnvelope(t *testing.T) {
	reader := NewEnvelopeReader("read-job-envelope")

	c := newTestContext(`{
		"jobId": "job-42",
		"videoGcsUri": "gs://raw/uploads/job-42/game.mp4",
		"outBucket": "highlights-out",
		"ownerEmail": "coach@example.com",
		"mode": "analysis"
	}`)
	defer c.Close()
	reader.Execute(c)

	assert.False(t, c.HasErrors())

	envelope, ok := c.Get(GetEnvelopeParameterName()).(*model.Envelope)
	assert.True(t, ok)
	assert.Equal(t, "job-42", envelope.JobId)
	assert.Equal(t, "gs://raw/uploads/job-42/game.mp4", envelope.VideoGcsUri)
	assert.Equal(t, "highlights-out", envelope.OutBucket)

	// The envelope is also the pipe output for the next command.
	assert.Equal(t, envelope, c.Get(cor.CtxOut))
}

func TestEnvelopeReaderRejectsInvalidEnvelopes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: "plainly not json"},
		{name: "missing jobId", raw: `{"videoGcsUri": "gs://raw/a.mp4", "outBucket": "out"}`},
		{name: "missing videoGcsUri", raw: `{"jobId": "job-1", "outBucket": "out"}`},
		{name: "missing outBucket", raw: `{"jobId": "job-1", "videoGcsUri": "gs://raw/a.mp4"}`},
		{
			name: "render without clips",
			raw:  `{"jobId": "job-1", "videoGcsUri": "gs://raw/a.mp4", "outBucket": "out", "mode": "render"}`,
		},
		{
			name: "render clip ends before it starts",
			raw: `{"jobId": "job-1", "videoGcsUri": "gs://raw/a.mp4", "outBucket": "out",
				"mode": "render", "finalClips": [{"start": 9.5, "end": 4.0}]}`,
		},
		{
			name: "render clip with negative start",
			raw: `{"jobId": "job-1", "videoGcsUri": "gs://raw/a.mp4", "outBucket": "out",
				"mode": "render", "finalClips": [{"start": -1.0, "end": 4.0}]}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reader := NewEnvelopeReader("read-job-envelope")
			c := newTestContext(tc.raw)
			defer c.Close()
			reader.Execute(c)

			assert.True(t, c.HasErrors())
			assert.Nil(t, c.Get(GetEnvelopeParameterName()))
		})
	}
}

// Legacy envelopes with mode "old" validate like analysis envelopes: no clip
// list required.
func TestEnvelopeReaderAcceptsLegacyMode(t *testing.T) {
	reader := NewEnvelopeReader("read-job-envelope")

	c := newTestContext(`{"jobId": "job-7", "videoGcsUri": "gs://raw/b.mov", "outBucket": "out", "mode": "old"}`)
	defer c.Close()
	reader.Execute(c)

	assert.False(t, c.HasErrors())
	envelope := c.Get(GetEnvelopeParameterName()).(*model.Envelope)
	assert.Equal(t, model.ModeAnalysis, envelope.NormalizedMode())
}
