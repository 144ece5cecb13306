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

// Package media wraps the ffmpeg and ffprobe binaries behind a small toolkit
// used by the worker commands. All cuts use stream copy, never re-encode, so
// a clip lands on the nearest preceding keyframe and extraction stays fast
// enough to run many clips per job.
//
// Functions:
//   - ProbeDurationSeconds: Reads the container duration of a local file.
//   - ExtractRange: Cuts one [start, end) range into a standalone clip file.
//   - Concatenate: Joins clip files losslessly with the concat demuxer.
//   - ConvertToMP4: Re-encodes a non-MP4 source into a playable MP4.
package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	DefaultFfmpegPath  = "ffmpeg"
	DefaultFfprobePath = "ffprobe"

	clipFilePrefix = "clip-"
)

// Toolkit holds the binary paths for the local media tools. The zero value
// is not usable; construct with NewToolkit.
type Toolkit struct {
	FfmpegPath  string
	FfprobePath string
}

// NewToolkit returns a toolkit using the given binary paths, falling back to
// resolution via PATH when either is empty.
func NewToolkit(ffmpegPath string, ffprobePath string) *Toolkit {
	if ffmpegPath == "" {
		ffmpegPath = DefaultFfmpegPath
	}
	if ffprobePath == "" {
		ffprobePath = DefaultFfprobePath
	}
	return &Toolkit{FfmpegPath: ffmpegPath, FfprobePath: ffprobePath}
}

// probeFormat mirrors the JSON shape of `ffprobe -of json -show_entries
// format=duration`. The duration arrives as a string holding a float.
type probeFormat struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ParseProbeDuration extracts the fractional duration in seconds from raw
// ffprobe JSON output.
func ParseProbeDuration(raw []byte) (float64, error) {
	var out probeFormat
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, fmt.Errorf("invalid ffprobe output: %w", err)
	}
	if out.Format.Duration == "" {
		return 0, fmt.Errorf("ffprobe output has no format.duration")
	}
	d, err := strconv.ParseFloat(out.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ffprobe duration %q: %w", out.Format.Duration, err)
	}
	return d, nil
}

// ProbeDurationSeconds returns the container duration of the file at path as
// fractional seconds.
func (t *Toolkit) ProbeDurationSeconds(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, t.FfprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		path)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("error running ffprobe on %s: %w", path, err)
	}
	return ParseProbeDuration(out)
}

// ExtractRange cuts the interval starting at start seconds with the given
// duration out of inputPath into outputPath. The seek flag precedes the input
// so ffmpeg jumps instead of decoding from the head of the file.
func (t *Toolkit) ExtractRange(ctx context.Context, inputPath string, start float64, duration float64, outputPath string) error {
	if duration <= 0 {
		return fmt.Errorf("non-positive clip duration %v", duration)
	}
	cmd := exec.CommandContext(ctx, t.FfmpegPath,
		"-hide_banner",
		"-ss", formatSeconds(start),
		"-i", inputPath,
		"-t", formatSeconds(duration),
		"-c", "copy",
		"-avoid_negative_ts", "make_zero",
		"-y",
		outputPath)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("error extracting clip [%v, +%v) from %s: %w", start, duration, inputPath, err)
	}
	return nil
}

// Concatenate joins the clip files in order into outputPath using the concat
// demuxer. The list file is written next to the output and removed when the
// join finishes.
func (t *Toolkit) Concatenate(ctx context.Context, clipPaths []string, outputPath string) error {
	if len(clipPaths) == 0 {
		return fmt.Errorf("no clips to concatenate")
	}
	listPath := outputPath + ".txt"
	if err := WriteConcatList(listPath, clipPaths); err != nil {
		return err
	}
	defer os.Remove(listPath)

	cmd := exec.CommandContext(ctx, t.FfmpegPath,
		"-hide_banner",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y",
		outputPath)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("error concatenating %d clips: %w", len(clipPaths), err)
	}
	return nil
}

// convertArgs builds the argument vector for ConvertToMP4. Sources arrive in
// arbitrary containers and codecs, so the conversion re-encodes to H.264 and
// AAC rather than stream-copying, and faststart moves the moov atom to the
// head of the file for progressive playback.
func convertArgs(inputPath string, outputPath string) []string {
	return []string{
		"-hide_banner",
		"-i", inputPath,
		"-c:v", "libx264",
		"-c:a", "aac",
		"-movflags", "+faststart",
		"-y",
		outputPath,
	}
}

// ConvertToMP4 re-encodes inputPath into a playable MP4 at outputPath.
func (t *Toolkit) ConvertToMP4(ctx context.Context, inputPath string, outputPath string) error {
	cmd := exec.CommandContext(ctx, t.FfmpegPath, convertArgs(inputPath, outputPath)...)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("error converting %s to mp4: %w", inputPath, err)
	}
	return nil
}

// WriteConcatList writes the concat demuxer list file. Paths are quoted with
// single quotes; the demuxer has no escape for a quote inside a path, so the
// caller must keep temp file names quote-free (CreateTemp names always are).
func WriteConcatList(listPath string, clipPaths []string) error {
	var b strings.Builder
	for _, p := range clipPaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("could not resolve clip path %s: %w", p, err)
		}
		fmt.Fprintf(&b, "file '%s'\n", abs)
	}
	if err := os.WriteFile(listPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("could not write concat list: %w", err)
	}
	return nil
}

// ClipFileName returns the temp file name for the clip at the given index,
// keeping the planner's ordering visible in the filesystem.
func ClipFileName(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("%s%03d.mp4", clipFilePrefix, index))
}

// formatSeconds renders a fractional second count without scientific
// notation, trimming trailing zeros so whole seconds render bare.
func formatSeconds(v float64) string {
	s := strconv.FormatFloat(v, 'f', 3, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
