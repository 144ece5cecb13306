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

// Package services contains the business logic for interacting with data
// sources. This file, `queries.go`, centralizes the BigQuery SQL query
// strings used by the analytics service. Storing queries as constants in a
// dedicated file improves maintainability, readability, and reusability. The
// queries use `fmt.Sprintf` format verbs (e.g., %s, %d) as placeholders for
// dynamic values that will be injected at runtime.
package services

const (
	// QryCompletionStats aggregates the completion rows written by the
	// worker into the dashboard counters.
	//
	// How it works:
	// - Each successful pipeline run appends one row to the jobs table, so
	//   COUNT(*) over a time window is the number of completed runs.
	// - The SUM columns roll up the per-run totals the worker recorded:
	//   rendered seconds, detected shots, and detected makes.
	// - COALESCE guards the sums against an empty window, which would
	//   otherwise yield NULL instead of 0.
	//
	// Placeholders:
	// - `%s`: The fully qualified name of the jobs analytics table.
	// - `%d`: The size of the reporting window in days, counted back from now.
	QryCompletionStats = "SELECT COUNT(*) AS completed_jobs, COALESCE(SUM(highlight_duration_sec), 0) AS highlight_seconds, COALESCE(SUM(shot_count), 0) AS shots_detected, COALESCE(SUM(make_count), 0) AS makes_detected, COALESCE(SUM(clip_count), 0) AS clips_rendered FROM `%s` WHERE completed_at >= TIMESTAMP_SUB(CURRENT_TIMESTAMP(), INTERVAL %d DAY)"

	// QryTopOwners ranks owners by completed runs within the same window,
	// for the dashboard's leaderboard panel.
	//
	// Placeholders:
	// - `%s`: The fully qualified name of the jobs analytics table.
	// - `%d`: The size of the reporting window in days.
	// - `%d`: The maximum number of owners to return.
	QryTopOwners = "SELECT owner_email, COUNT(*) AS completed_jobs FROM `%s` WHERE completed_at >= TIMESTAMP_SUB(CURRENT_TIMESTAMP(), INTERVAL %d DAY) AND owner_email != '' GROUP BY owner_email ORDER BY completed_jobs DESC LIMIT %d"
)
