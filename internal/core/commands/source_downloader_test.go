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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/cor"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/media"
)

// The leading bytes of an MP4 container: a size-prefixed ftyp box with the
// isom brand.
var mp4Magic = []byte{
	0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p',
	'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00,
	'i', 's', 'o', 'm', 'i', 's', 'o', '2',
}

func writeSourceFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	assert.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestEnsureMP4PassesThroughMP4Sources(t *testing.T) {
	c := cor.NewBaseContext()
	c.SetContext(context.Background())
	defer c.Close()

	// A toolkit pointing at a missing binary proves no subprocess runs for
	// a source that is already MP4.
	toolkit := media.NewToolkit("/nonexistent/ffmpeg", "/nonexistent/ffprobe")
	path := writeSourceFile(t, "source.video", mp4Magic)

	assert.Equal(t, path, ensureMP4(c, toolkit, "job-1", path))
	assert.False(t, c.HasErrors())
}

func TestEnsureMP4KeepsOriginalWhenConversionFails(t *testing.T) {
	c := cor.NewBaseContext()
	c.SetContext(context.Background())
	defer c.Close()

	toolkit := media.NewToolkit("/nonexistent/ffmpeg", "/nonexistent/ffprobe")
	path := writeSourceFile(t, "source.video", []byte("definitely not an mp4 container"))

	assert.Equal(t, path, ensureMP4(c, toolkit, "job-1", path))
	assert.False(t, c.HasErrors())
}
