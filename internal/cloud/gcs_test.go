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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseGCSURI(t *testing.T) {
	bucket, name, err := ParseGCSURI("gs://raw-bucket/uploads/job-1/game.mp4")
	assert.NoError(t, err)
	assert.Equal(t, "raw-bucket", bucket)
	assert.Equal(t, "uploads/job-1/game.mp4", name)
}

func TestParseGCSURIInvalid(t *testing.T) {
	for _, uri := range []string{"", "http://bucket/name", "gs://", "gs://bucket", "gs://bucket/"} {
		_, _, err := ParseGCSURI(uri)
		assert.Error(t, err, uri)
	}
}

func TestFormatGCSURIRoundTrip(t *testing.T) {
	uri := FormatGCSURI("out-bucket", "job-1/highlight.mp4")
	assert.Equal(t, "gs://out-bucket/job-1/highlight.mp4", uri)

	bucket, name, err := ParseGCSURI(uri)
	assert.NoError(t, err)
	assert.Equal(t, "out-bucket", bucket)
	assert.Equal(t, "job-1/highlight.mp4", name)
}

func TestObjectNameBuilders(t *testing.T) {
	assert.Equal(t, "uploads/job-1/game.mp4", UploadObjectName("job-1", "game.mp4"))
	assert.Equal(t, "job-1/highlight.mp4", HighlightObjectName("job-1"))
	assert.Equal(t, "job-1/analysis.json", AnalysisObjectName("job-1"))
	assert.Equal(t, "job-1/final_render.mp4", FinalRenderObjectName("job-1"))
}

func TestIsRetryableModelError(t *testing.T) {
	assert.True(t, IsRetryableModelError(errors.New("rpc error: code = Unavailable desc = overloaded")))
	assert.True(t, IsRetryableModelError(errors.New("googleapi: Error 503: service unavailable")))
	assert.True(t, IsRetryableModelError(errors.New("context deadline exceeded")))
	assert.False(t, IsRetryableModelError(errors.New("googleapi: Error 400: invalid argument")))
	assert.False(t, IsRetryableModelError(nil))
}
