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

package highlights

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/model"
)

func TestPlanFromTimestampsMergesOverlaps(t *testing.T) {
	p := NewPlanner()
	ranges := p.PlanFromTimestamps([]int{10, 11, 30}, 0)
	assert.Equal(t, []model.ClipRange{
		{Start: 9, End: 15},
		{Start: 29, End: 34},
	}, ranges)
}

func TestPlanFromTimestampsClampsAtZero(t *testing.T) {
	p := NewPlanner()
	ranges := p.PlanFromTimestamps([]int{0}, 0)
	assert.Equal(t, []model.ClipRange{{Start: 0, End: 5}}, ranges)
}

func TestPlanFromTimestampsEmpty(t *testing.T) {
	p := NewPlanner()
	assert.Empty(t, p.PlanFromTimestamps(nil, 0))
	assert.Empty(t, p.PlanFromTimestamps([]int{}, 120))
}

func TestPlanFromTimestampsUnsortedInput(t *testing.T) {
	p := NewPlanner()
	ranges := p.PlanFromTimestamps([]int{30, 11, 10}, 0)
	assert.Equal(t, []model.ClipRange{
		{Start: 9, End: 15},
		{Start: 29, End: 34},
	}, ranges)
}

func TestPlanFromTimestampsRespectsDuration(t *testing.T) {
	p := NewPlanner()
	ranges := p.PlanFromTimestamps([]int{10, 58, 90}, 60)
	assert.Equal(t, []model.ClipRange{
		{Start: 9, End: 15},
		{Start: 57, End: 60},
	}, ranges)
}

func TestPlanFromTimestampsMergeGap(t *testing.T) {
	p := &Planner{ClipDuration: 5, PreRoll: 1, MergeGap: 3}
	ranges := p.PlanFromTimestamps([]int{10, 18}, 0)
	assert.Equal(t, []model.ClipRange{{Start: 9, End: 22}}, ranges)
}

func TestPlanFiltersOutcomeAndFlags(t *testing.T) {
	p := NewPlanner()
	events := []model.ShotEvent{
		{TimestampStart: 10, Outcome: model.OutcomeMake, Show: true},
		{TimestampStart: 20, Outcome: model.OutcomeMiss, Show: true},
		{TimestampStart: 30, Outcome: model.OutcomeMake, Show: true},
		{TimestampStart: 40, Outcome: model.OutcomeMake, Show: false},
		{TimestampStart: 50, Outcome: model.OutcomeMake, Show: true, Deleted: true},
	}
	ranges := p.Plan(events, 0)
	assert.Equal(t, []model.ClipRange{
		{Start: 9, End: 14},
		{Start: 29, End: 34},
	}, ranges)
}

func TestPlanNoMakesYieldsEmptyPlan(t *testing.T) {
	p := NewPlanner()
	events := []model.ShotEvent{
		{TimestampStart: 12, Outcome: model.OutcomeMiss, Show: true},
		{TimestampStart: 40, Outcome: model.OutcomeUndetermined, Show: true},
	}
	assert.Empty(t, p.Plan(events, 0))
}

func TestTotalDuration(t *testing.T) {
	ranges := []model.ClipRange{
		{Start: 9, End: 15},
		{Start: 29, End: 34},
	}
	assert.Equal(t, 11, TotalDuration(ranges))
	assert.Equal(t, 0, TotalDuration(nil))
}
