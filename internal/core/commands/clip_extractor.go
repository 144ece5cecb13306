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

// This file defines the commands that cut the highlight reel out of the
// staged source video.
//
// Logic Flow:
// The ClipExtractor plans the cut list from the detected shot events and the
// FinalClipExtractor takes the user-edited clip list from a render envelope;
// both hand their ranges to the same worker pool.
//
//  1. **Worker Pool Pattern**: clip extraction is ffmpeg-bound, so a pool of
//     goroutines cuts several ranges concurrently.
//     - A `jobs` channel feeds one clipJob per range to the workers.
//     - A `results` channel carries per-clip failures back.
//  2. Each worker runs one stream-copy extraction per job. Output files are
//     indexed so ordering survives the concurrency.
//  3. After the pool drains, the clips are concatenated in plan order into a
//     single highlight file, which is staged in the context for upload.
//
// An empty plan is not an error: the extractor stages the empty plan and no
// highlight file, and the commit step records the job as done without video.
package commands

import (
	"fmt"
	"os"
	"sync"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/cor"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/highlights"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/media"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/model"
)

// GetClipPlanParameterName returns the context key holding the planned clip
// ranges.
//
// Outputs:
//   - string: A constant placeholder string "__CLIP_PLAN__".
func GetClipPlanParameterName() string {
	return "__CLIP_PLAN__"
}

// GetHighlightFileParameterName returns the context key holding the local
// path of the rendered highlight file. The key is absent when the plan was
// empty.
//
// Outputs:
//   - string: A constant placeholder string "__HIGHLIGHT_FILE__".
func GetHighlightFileParameterName() string {
	return "__HIGHLIGHT_FILE__"
}

// clipJob is the unit of work handed to the extraction pool.
type clipJob struct {
	index    int
	start    float64
	duration float64
	outPath  string
}

// clipResult carries a per-clip failure back from a worker.
type clipResult struct {
	index int
	err   error
}

// ClipExtractor plans and cuts the highlight reel from detected shot events.
type ClipExtractor struct {
	cor.BaseCommand
	toolkit         *media.Toolkit
	planner         *highlights.Planner
	numberOfWorkers int
}

// NewClipExtractor is the constructor for the ClipExtractor command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - toolkit: The local media toolkit wrapping ffmpeg.
//   - planner: The clip planner carrying the window parameters.
//   - numberOfWorkers: The size of the worker pool for concurrent extraction.
//
// Outputs:
//   - *ClipExtractor: A pointer to the newly instantiated command.
func NewClipExtractor(name string, toolkit *media.Toolkit, planner *highlights.Planner, numberOfWorkers int) *ClipExtractor {
	if numberOfWorkers <= 0 {
		numberOfWorkers = 1
	}
	return &ClipExtractor{
		BaseCommand:     *cor.NewBaseCommand(name),
		toolkit:         toolkit,
		planner:         planner,
		numberOfWorkers: numberOfWorkers,
	}
}

// IsExecutable checks that the staged source file and the parsed events are
// present in the context.
func (c *ClipExtractor) IsExecutable(context cor.Context) bool {
	return context != nil &&
		context.Get(c.GetInputParam()) != nil &&
		context.Get(GetSourceFileParameterName()) != nil &&
		context.Get(GetShotEventsParameterName()) != nil
}

// Execute plans the cut list and renders the highlight file.
//
// Inputs:
//   - context: The shared `cor.Context` holding the envelope in the input parameter.
func (c *ClipExtractor) Execute(context cor.Context) {
	envelope := context.Get(c.GetInputParam()).(*model.Envelope)
	sourcePath := context.Get(GetSourceFileParameterName()).(string)
	events := context.Get(GetShotEventsParameterName()).([]model.ShotEvent)

	durationSec := 0
	if v := context.Get(GetVideoDurationParameterName()); v != nil {
		durationSec = v.(int)
	}

	plan := c.planner.Plan(events, durationSec)
	context.Add(GetClipPlanParameterName(), plan)

	if len(plan) == 0 {
		// Nothing to cut. The commit step turns this into a done job with
		// no highlight video.
		c.GetSuccessCounter().Add(context.GetContext(), 1)
		context.Add(c.GetOutputParam(), envelope)
		return
	}

	ranges := make([][2]float64, 0, len(plan))
	for _, r := range plan {
		ranges = append(ranges, [2]float64{float64(r.Start), float64(r.Duration())})
	}

	highlightPath, err := extractAndConcat(context, c.toolkit, sourcePath, ranges, c.numberOfWorkers)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("rendering highlight for job %s: %w", envelope.JobId, err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetHighlightFileParameterName(), highlightPath)
	context.Add(c.GetOutputParam(), envelope)
}

// FinalClipExtractor cuts a user-edited clip list exactly as given, in the
// order given. Unlike the planner path, ranges carry fractional seconds and
// are not merged.
type FinalClipExtractor struct {
	cor.BaseCommand
	toolkit         *media.Toolkit
	numberOfWorkers int
}

// NewFinalClipExtractor is the constructor for the FinalClipExtractor command.
func NewFinalClipExtractor(name string, toolkit *media.Toolkit, numberOfWorkers int) *FinalClipExtractor {
	if numberOfWorkers <= 0 {
		numberOfWorkers = 1
	}
	return &FinalClipExtractor{
		BaseCommand:     *cor.NewBaseCommand(name),
		toolkit:         toolkit,
		numberOfWorkers: numberOfWorkers,
	}
}

// IsExecutable checks that the staged source file is present in the context.
func (c *FinalClipExtractor) IsExecutable(context cor.Context) bool {
	return context != nil &&
		context.Get(c.GetInputParam()) != nil &&
		context.Get(GetSourceFileParameterName()) != nil
}

// Execute cuts and joins the envelope's final clips.
//
// Inputs:
//   - context: The shared `cor.Context` holding the envelope in the input parameter.
func (c *FinalClipExtractor) Execute(context cor.Context) {
	envelope := context.Get(c.GetInputParam()).(*model.Envelope)
	sourcePath := context.Get(GetSourceFileParameterName()).(string)

	ranges := make([][2]float64, 0, len(envelope.FinalClips))
	for _, clip := range envelope.FinalClips {
		ranges = append(ranges, [2]float64{clip.Start, clip.End - clip.Start})
	}

	highlightPath, err := extractAndConcat(context, c.toolkit, sourcePath, ranges, c.numberOfWorkers)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("rendering final cut for job %s: %w", envelope.JobId, err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetHighlightFileParameterName(), highlightPath)
	context.Add(c.GetOutputParam(), envelope)
}

// extractAndConcat runs the extraction pool over the given (start, duration)
// ranges and joins the resulting clips in range order. All intermediate files
// are registered on the context for cleanup.
func extractAndConcat(context cor.Context, toolkit *media.Toolkit, sourcePath string, ranges [][2]float64, numberOfWorkers int) (string, error) {
	workDir, err := os.MkdirTemp("", "highlight-clips-")
	if err != nil {
		return "", err
	}

	var wg sync.WaitGroup
	jobs := make(chan *clipJob, len(ranges))
	results := make(chan *clipResult, len(ranges))

	for w := 0; w < numberOfWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				err := toolkit.ExtractRange(context.GetContext(), sourcePath, j.start, j.duration, j.outPath)
				results <- &clipResult{index: j.index, err: err}
			}
		}()
	}

	clipPaths := make([]string, len(ranges))
	for i, r := range ranges {
		outPath := media.ClipFileName(workDir, i)
		clipPaths[i] = outPath
		context.AddTempFile(outPath)
		jobs <- &clipJob{index: i, start: r[0], duration: r[1], outPath: outPath}
	}
	close(jobs)
	wg.Wait()
	close(results)

	for r := range results {
		if r.err != nil {
			return "", fmt.Errorf("clip %d: %w", r.index, r.err)
		}
	}

	outFile, err := os.CreateTemp("", "highlight-*.mp4")
	if err != nil {
		return "", err
	}
	outPath := outFile.Name()
	if err := outFile.Close(); err != nil {
		return "", err
	}
	context.AddTempFile(outPath)

	if err := toolkit.Concatenate(context.GetContext(), clipPaths, outPath); err != nil {
		return "", err
	}
	// Registered after the clip files so cleanup empties the directory
	// before removing it.
	context.AddTempFile(workDir)
	return outPath, nil
}
