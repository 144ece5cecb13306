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

// This file defines the command that stages the source video locally for the
// cutting steps.
//
// Logic Flow:
//  1. Download the object named by the envelope's videoGcsUri into a temp file.
//  2. Sniff the container with the filetype library; anything that is not
//     already MP4 is re-encoded so the stream-copy cuts later in the chain
//     work. When the conversion fails the original file is kept and the
//     chain tries to cut it anyway.
//  3. Probe the duration with ffprobe, round it up to whole seconds, and
//     write it back onto the job record so listings can show it even if the
//     run fails later.
//  4. Stage the local path and duration in the context for the rest of the chain.
//
// All temp files are registered on the context, which removes them when the
// chain context closes.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/cor"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/highlights"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/media"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/model"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/services"
)

// GetSourceFileParameterName returns the context key holding the local path
// of the staged source video.
//
// Outputs:
//   - string: A constant placeholder string "__SOURCE_FILE__".
func GetSourceFileParameterName() string {
	return "__SOURCE_FILE__"
}

// GetVideoDurationParameterName returns the context key holding the source
// video duration in whole seconds.
//
// Outputs:
//   - string: A constant placeholder string "__VIDEO_DURATION__".
func GetVideoDurationParameterName() string {
	return "__VIDEO_DURATION__"
}

// SourceDownloader stages the source video in the local filesystem and
// records its duration.
type SourceDownloader struct {
	cor.BaseCommand
	media   *services.MediaService
	jobs    *services.JobService
	toolkit *media.Toolkit
}

// NewSourceDownloader is the constructor for the SourceDownloader command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - mediaService: The object storage service.
//   - jobs: The job document service, for the duration write-back.
//   - toolkit: The local media toolkit wrapping ffmpeg and ffprobe.
//
// Outputs:
//   - *SourceDownloader: A pointer to the newly instantiated command.
func NewSourceDownloader(name string, mediaService *services.MediaService, jobs *services.JobService, toolkit *media.Toolkit) *SourceDownloader {
	return &SourceDownloader{
		BaseCommand: *cor.NewBaseCommand(name),
		media:       mediaService,
		jobs:        jobs,
		toolkit:     toolkit,
	}
}

// ensureMP4 returns a path to an MP4 rendition of the staged source. Sources
// already in MP4 pass through untouched. When the sniff or the conversion
// fails the original path comes back with a warning, so the cutting steps
// get a chance at the file as uploaded instead of the job failing here.
//
// Inputs:
//   - context: The shared `cor.Context`, which owns the converted temp file.
//   - toolkit: The local media toolkit wrapping ffmpeg.
//   - jobId: The job id, for log correlation.
//   - localPath: The downloaded source file.
//
// Outputs:
//   - string: The converted path, or localPath when no conversion happened.
func ensureMP4(context cor.Context, toolkit *media.Toolkit, jobId string, localPath string) string {
	kind, err := filetype.MatchFile(localPath)
	if err != nil {
		slog.Warn("could not sniff source container", "jobId", jobId, "error", err)
		return localPath
	}
	if kind == matchers.TypeMp4 {
		return localPath
	}

	converted, err := os.CreateTemp("", "source-*.mp4")
	if err != nil {
		slog.Warn("could not stage conversion output", "jobId", jobId, "error", err)
		return localPath
	}
	convertedPath := converted.Name()
	// ffmpeg needs exclusive access to the output path.
	if err := converted.Close(); err != nil {
		slog.Warn("could not stage conversion output", "jobId", jobId, "error", err)
		return localPath
	}
	context.AddTempFile(convertedPath)
	if err := toolkit.ConvertToMP4(context.GetContext(), localPath, convertedPath); err != nil {
		slog.Warn("source conversion failed, keeping original", "jobId", jobId, "error", err)
		return localPath
	}
	return convertedPath
}

// Execute downloads, converts if needed, and probes the source video.
//
// Inputs:
//   - context: The shared `cor.Context` holding the envelope in the input parameter.
func (c *SourceDownloader) Execute(context cor.Context) {
	envelope := context.Get(c.GetInputParam()).(*model.Envelope)

	localPath, err := c.media.DownloadToFile(context.GetContext(), envelope.VideoGcsUri, "source-*.video")
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("downloading source for job %s: %w", envelope.JobId, err))
		return
	}
	context.AddTempFile(localPath)

	localPath = ensureMP4(context, c.toolkit, envelope.JobId, localPath)

	durationFractional, err := c.toolkit.ProbeDurationSeconds(context.GetContext(), localPath)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("probing source for job %s: %w", envelope.JobId, err))
		return
	}
	durationSec := highlights.CeilSeconds(durationFractional)

	// Write the duration back immediately so it survives a later failure.
	if err := c.jobs.Merge(context.GetContext(), envelope.JobId, map[string]interface{}{
		"videoDurationSec": durationSec,
	}); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("recording duration for job %s: %w", envelope.JobId, err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetSourceFileParameterName(), localPath)
	context.Add(GetVideoDurationParameterName(), durationSec)
	context.Add(c.GetOutputParam(), envelope)
}
