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

// This file defines the AnalyticsService, the BigQuery sink receiving one row
// per completed pipeline run. The sink is best effort: the job commit is the
// source of truth, and a failed insert is logged rather than failing the run.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/model"
)

// JobCompletionRow is one analytics record of a finished pipeline run.
type JobCompletionRow struct {
	JobId             string    `bigquery:"job_id"`
	OwnerEmail        string    `bigquery:"owner_email"`
	Mode              string    `bigquery:"mode"`
	Status            string    `bigquery:"status"`
	VideoDurationSec  int       `bigquery:"video_duration_sec"`
	HighlightDuration int       `bigquery:"highlight_duration_sec"`
	ShotCount         int       `bigquery:"shot_count"`
	MakeCount         int       `bigquery:"make_count"`
	ClipCount         int       `bigquery:"clip_count"`
	CompletedAt       time.Time `bigquery:"completed_at"`
}

// AnalyticsService writes run records to BigQuery.
type AnalyticsService struct {
	BigQueryClient *bigquery.Client // Client for interacting with Google BigQuery.
	DatasetName    string           // The name of the BigQuery dataset.
	JobsTable      string           // The table receiving one row per completed job.
}

// GetFQN (Get Fully Qualified Name) returns the complete, queryable name for
// the jobs table in BigQuery, formatted with dots instead of colons.
//
// Outputs:
//   - string: The fully qualified table name.
func (s *AnalyticsService) GetFQN() string {
	fqn := s.BigQueryClient.Dataset(s.DatasetName).Table(s.JobsTable).FullyQualifiedName()
	return strings.Replace(fqn, ":", ".", -1)
}

// RecordCompletion inserts a run record derived from a finished job.
//
// Inputs:
//   - ctx: The context for the request.
//   - job: The job as committed, after the worker's terminal write.
//   - clipCount: How many clip ranges the render contained.
//
// Outputs:
//   - error: An error if the streaming insert fails.
func (s *AnalyticsService) RecordCompletion(ctx context.Context, job *model.Job, clipCount int) error {
	makeCount := 0
	for _, ev := range job.ShotEvents {
		if ev.Outcome == model.OutcomeMake {
			makeCount++
		}
	}
	row := &JobCompletionRow{
		JobId:             job.JobId,
		OwnerEmail:        job.OwnerEmail,
		Mode:              job.Mode,
		Status:            job.Status,
		VideoDurationSec:  job.VideoDurationSec,
		HighlightDuration: job.HighlightDurationSeconds,
		ShotCount:         len(job.ShotEvents),
		MakeCount:         makeCount,
		ClipCount:         clipCount,
		CompletedAt:       time.Now().UTC(),
	}
	inserter := s.BigQueryClient.Dataset(s.DatasetName).Table(s.JobsTable).Inserter()
	return inserter.Put(ctx, row)
}

// CompletionStats is the dashboard's rollup of recent pipeline activity.
type CompletionStats struct {
	CompletedJobs    int64 `bigquery:"completed_jobs" json:"completedJobs"`
	HighlightSeconds int64 `bigquery:"highlight_seconds" json:"highlightSeconds"`
	ShotsDetected    int64 `bigquery:"shots_detected" json:"shotsDetected"`
	MakesDetected    int64 `bigquery:"makes_detected" json:"makesDetected"`
	ClipsRendered    int64 `bigquery:"clips_rendered" json:"clipsRendered"`
}

// OwnerActivity is one leaderboard row: an owner and their completed runs.
type OwnerActivity struct {
	OwnerEmail    string `bigquery:"owner_email" json:"ownerEmail"`
	CompletedJobs int64  `bigquery:"completed_jobs" json:"completedJobs"`
}

// GetCompletionStats aggregates the completion rows of the last `days` days
// into the dashboard counters. An empty table yields all zeros.
//
// Inputs:
//   - ctx: The context for the request.
//   - days: The size of the reporting window in days.
//
// Outputs:
//   - *CompletionStats: The aggregated counters.
//   - error: An error if the query fails.
func (s *AnalyticsService) GetCompletionStats(ctx context.Context, days int) (*CompletionStats, error) {
	q := s.BigQueryClient.Query(fmt.Sprintf(QryCompletionStats, s.GetFQN(), days))
	it, err := q.Read(ctx)
	if err != nil {
		return nil, err
	}
	out := &CompletionStats{}
	err = it.Next(out)
	if err == iterator.Done {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetTopOwners returns the most active owners of the last `days` days,
// limited to `count` rows.
func (s *AnalyticsService) GetTopOwners(ctx context.Context, days int, count int) ([]*OwnerActivity, error) {
	q := s.BigQueryClient.Query(fmt.Sprintf(QryTopOwners, s.GetFQN(), days, count))
	it, err := q.Read(ctx)
	if err != nil {
		return nil, err
	}
	owners := make([]*OwnerActivity, 0, count)
	for {
		row := &OwnerActivity{}
		err := it.Next(row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		owners = append(owners, row)
	}
	return owners, nil
}
