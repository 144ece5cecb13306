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

package media

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseProbeDuration(t *testing.T) {
	raw := []byte(`{"format": {"duration": "10.042000"}}`)
	d, err := ParseProbeDuration(raw)
	assert.NoError(t, err)
	assert.InDelta(t, 10.042, d, 0.0001)
}

func TestParseProbeDurationErrors(t *testing.T) {
	_, err := ParseProbeDuration([]byte(`{}`))
	assert.Error(t, err)

	_, err = ParseProbeDuration([]byte(`not json`))
	assert.Error(t, err)

	_, err = ParseProbeDuration([]byte(`{"format": {"duration": "abc"}}`))
	assert.Error(t, err)
}

func TestWriteConcatList(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, "list.txt")
	clips := []string{
		filepath.Join(dir, "clip-000.mp4"),
		filepath.Join(dir, "clip-001.mp4"),
	}
	err := WriteConcatList(listPath, clips)
	assert.NoError(t, err)

	data, err := os.ReadFile(listPath)
	assert.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t, "file '"+clips[0]+"'", lines[0])
	assert.Equal(t, "file '"+clips[1]+"'", lines[1])
}

func TestClipFileName(t *testing.T) {
	assert.Equal(t, filepath.Join("/tmp/x", "clip-000.mp4"), ClipFileName("/tmp/x", 0))
	assert.Equal(t, filepath.Join("/tmp/x", "clip-012.mp4"), ClipFileName("/tmp/x", 12))
}

func TestConvertArgsReencode(t *testing.T) {
	args := strings.Join(convertArgs("in.webm", "out.mp4"), " ")
	assert.Contains(t, args, "-c:v libx264")
	assert.Contains(t, args, "-c:a aac")
	assert.Contains(t, args, "-movflags +faststart")
	assert.NotContains(t, args, "-c copy")
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "9", formatSeconds(9))
	assert.Equal(t, "9.5", formatSeconds(9.5))
	assert.Equal(t, "0.25", formatSeconds(0.25))
	assert.Equal(t, "0", formatSeconds(0))
}
