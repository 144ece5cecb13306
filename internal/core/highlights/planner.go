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

// This file plans the cut list for a highlight reel. The planner is pure:
// made-shot timestamps in, ordered non-overlapping ClipRanges out. The worker
// hands the result to the media toolkit for extraction.
package highlights

import (
	"sort"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/model"
)

// Planner turns made-shot timestamps into a merged cut list. The zero value
// is not usable; construct with NewPlanner so the defaults apply.
type Planner struct {
	// ClipDuration is the length in seconds of the window opened at each make.
	ClipDuration int
	// PreRoll is how many seconds before the make each window starts.
	PreRoll int
	// MergeGap merges adjacent windows whose gap is at most this many seconds.
	// At zero, only windows that touch or overlap merge.
	MergeGap int
}

const (
	DefaultClipDuration = 5
	DefaultPreRoll      = 1
	DefaultMergeGap     = 0
)

// NewPlanner returns a planner with the production defaults: a five second
// window starting one second before each make, merging only overlapping
// windows.
func NewPlanner() *Planner {
	return &Planner{
		ClipDuration: DefaultClipDuration,
		PreRoll:      DefaultPreRoll,
		MergeGap:     DefaultMergeGap,
	}
}

// Plan computes the cut list for the given events. Only events whose outcome
// is a make and whose show flag is set (and deleted flag is not) contribute.
// durationSec, when positive, drops events past the end of the video and
// clamps windows that would run over it. The result is sorted by start and
// ranges never overlap.
func (p *Planner) Plan(events []model.ShotEvent, durationSec int) []model.ClipRange {
	starts := make([]int, 0, len(events))
	for _, ev := range events {
		if ev.Outcome != model.OutcomeMake || ev.Deleted || !ev.Show {
			continue
		}
		t := ev.TimestampStart
		if t < 0 {
			continue
		}
		if durationSec > 0 && t > durationSec {
			continue
		}
		starts = append(starts, t)
	}
	return p.PlanFromTimestamps(starts, durationSec)
}

// PlanFromTimestamps is the core sweep. Each timestamp t opens the window
// [max(0, t-PreRoll), start+ClipDuration]; after sorting by start, a window
// whose start is within MergeGap of the previous window's end extends it
// instead of opening a new range.
func (p *Planner) PlanFromTimestamps(timestamps []int, durationSec int) []model.ClipRange {
	if len(timestamps) == 0 {
		return []model.ClipRange{}
	}

	windows := make([]model.ClipRange, 0, len(timestamps))
	for _, t := range timestamps {
		if t < 0 {
			continue
		}
		if durationSec > 0 && t > durationSec {
			continue
		}
		start := t - p.PreRoll
		if start < 0 {
			start = 0
		}
		end := start + p.ClipDuration
		if durationSec > 0 && end > durationSec {
			end = durationSec
		}
		if end <= start {
			continue
		}
		windows = append(windows, model.ClipRange{Start: start, End: end})
	}
	if len(windows) == 0 {
		return []model.ClipRange{}
	}

	sort.Slice(windows, func(i, j int) bool {
		if windows[i].Start == windows[j].Start {
			return windows[i].End < windows[j].End
		}
		return windows[i].Start < windows[j].Start
	})

	merged := []model.ClipRange{windows[0]}
	for _, w := range windows[1:] {
		last := &merged[len(merged)-1]
		if w.Start <= last.End+p.MergeGap {
			if w.End > last.End {
				last.End = w.End
			}
			continue
		}
		merged = append(merged, w)
	}
	return merged
}

// TotalDuration sums the lengths of the ranges in seconds.
func TotalDuration(ranges []model.ClipRange) int {
	total := 0
	for _, r := range ranges {
		total += r.Duration()
	}
	return total
}
