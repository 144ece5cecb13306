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

// Package main contains the job read-side routes: polling, downloads,
// editor data, and the stream redirect. These handlers never proxy video
// bytes; large content always moves via signed URLs straight from the
// bucket.
//
// Functions:
//   - JobsRouter: Registers the job read routes.
//   - StreamRouter: Registers the playback redirect route.
//   - loadShotEvents: Inline-or-artifact event resolution shared by the
//     download and editor endpoints.
package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/model"
)

// Signed URL lifetimes for the read side. Downloads are short-lived clicks;
// streaming and the editor hold a URL open across a viewing session.
const (
	downloadURLTTL = 30 * time.Minute
	streamURLTTL   = 60 * time.Minute
)

// JobsRouter sets up the API routes for reading job state and results.
//
// Inputs:
//   - r: A *gin.RouterGroup to which the job routes will be added.
//
// This function defines the following endpoints:
//   - GET /jobs/:id: Returns the job document as-is; the polling endpoint.
//   - GET /jobs/:id/download: Returns signed URLs for the rendered highlight
//     and the source, plus the parsed shot events.
//   - GET /jobs/:id/highlight-data: Returns the editor payload of source
//     URL, raw events, and derived clip ranges.
//   - GET /jobs/:id/result: Returns the analysis-only result for jobs run in
//     vertex mode.
func JobsRouter(r *gin.RouterGroup) {
	jobs := r.Group("/jobs")
	{
		// Handler for GET /jobs/:id. Cheap enough for high-cadence polling;
		// one document read, no signing.
		jobs.GET("/:id", func(c *gin.Context) {
			job, _ := getJobOr404(c, c.Param("id"))
			if job == nil {
				return
			}
			c.JSON(http.StatusOK, job)
		})

		// Handler for GET /jobs/:id/download. 409 until the worker has
		// committed done with a rendered file; a done job without an output
		// is a valid zero-makes run and also answers 409.
		jobs.GET("/:id/download", func(c *gin.Context) {
			job, _ := getJobOr404(c, c.Param("id"))
			if job == nil {
				return
			}
			if job.Status != model.StatusDone || job.OutputGcsUri == "" {
				c.JSON(http.StatusConflict, gin.H{"ok": false, "error": "highlight not ready", "status": job.Status})
				return
			}

			url, err := state.mediaService.GenerateSignedURL(c, job.OutputGcsUri, http.MethodGet, downloadURLTTL)
			if err != nil {
				slog.Error("failed to sign download url", "jobId", job.JobId, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not generate download URL"})
				return
			}

			out := gin.H{
				"ok":               true,
				"url":              url,
				"expiresInMinutes": int(downloadURLTTL.Minutes()),
			}
			if job.VideoGcsUri != "" {
				if src, err := state.mediaService.GenerateSignedURL(c, job.VideoGcsUri, http.MethodGet, downloadURLTTL); err == nil {
					out["sourceVideoUrl"] = src
				}
			}
			if events := loadShotEvents(c, job); events != nil {
				out["shot_events"] = events
			}
			c.JSON(http.StatusOK, out)
		})

		// Handler for GET /jobs/:id/highlight-data. The editor payload: a
		// long-lived source URL plus the raw events and the (start, end)
		// ranges derived from them.
		jobs.GET("/:id/highlight-data", func(c *gin.Context) {
			job, _ := getJobOr404(c, c.Param("id"))
			if job == nil {
				return
			}
			if job.Status != model.StatusDone && job.Status != model.StatusReady {
				c.JSON(http.StatusConflict, gin.H{"ok": false, "error": "analysis not finished", "status": job.Status})
				return
			}

			src, err := state.mediaService.GenerateSignedURL(c, job.VideoGcsUri, http.MethodGet, streamURLTTL)
			if err != nil {
				slog.Error("failed to sign source url", "jobId", job.JobId, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not generate source URL"})
				return
			}

			events := loadShotEvents(c, job)
			ranges := make([]model.ClipRange, 0, len(events))
			for _, ev := range events {
				if ev.TimestampEnd > ev.TimestampStart {
					ranges = append(ranges, model.ClipRange{Start: ev.TimestampStart, End: ev.TimestampEnd})
				}
			}

			c.JSON(http.StatusOK, gin.H{
				"ok":             true,
				"sourceVideoUrl": src,
				"rawEvents":      events,
				"ranges":         ranges,
			})
		})

		// Handler for GET /jobs/:id/result. The vertex-mode read: events and
		// source only, no rendered file expected.
		jobs.GET("/:id/result", func(c *gin.Context) {
			job, _ := getJobOr404(c, c.Param("id"))
			if job == nil {
				return
			}
			if job.Status != model.StatusDone {
				c.JSON(http.StatusConflict, gin.H{"ok": false, "error": "analysis not finished", "status": job.Status})
				return
			}

			src, err := state.mediaService.GenerateSignedURL(c, job.VideoGcsUri, http.MethodGet, streamURLTTL)
			if err != nil {
				slog.Error("failed to sign source url", "jobId", job.JobId, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not generate source URL"})
				return
			}

			events := loadShotEvents(c, job)
			ranges := make([]model.ClipRange, 0, len(events))
			for _, ev := range events {
				if ev.TimestampEnd > ev.TimestampStart {
					ranges = append(ranges, model.ClipRange{Start: ev.TimestampStart, End: ev.TimestampEnd})
				}
			}

			c.JSON(http.StatusOK, gin.H{
				"ok":               true,
				"jobId":            job.JobId,
				"sourceVideoUrl":   src,
				"rawEvents":        events,
				"ranges":           ranges,
				"videoDurationSec": job.VideoDurationSec,
			})
		})
	}
}

// StreamRouter sets up the playback redirect.
//
// Inputs:
//   - r: A *gin.RouterGroup to which the stream route will be added.
//
// This function defines the following endpoint:
//   - GET /stream/:id: 307 to a fresh signed URL of the source, so the
//     browser range-seeks directly against the bucket.
func StreamRouter(r *gin.RouterGroup) {
	r.GET("/stream/:id", func(c *gin.Context) {
		job, _ := getJobOr404(c, c.Param("id"))
		if job == nil {
			return
		}
		if job.VideoGcsUri == "" {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "job has no source video"})
			return
		}
		url, err := state.mediaService.GenerateSignedURL(c, job.VideoGcsUri, http.MethodGet, streamURLTTL)
		if err != nil {
			slog.Error("failed to sign stream url", "jobId", job.JobId, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not generate streaming URL"})
			return
		}
		c.Redirect(http.StatusTemporaryRedirect, url)
	})
}

// parseAnalysisArtifact decodes the analysis artifact body. The worker
// writes a bare JSON array of shot events; artifacts written before that
// format settled wrapped the array in a {jobId, shotEvents} object, so that
// shape still parses.
//
// Inputs:
//   - data: The raw artifact bytes.
//
// Outputs:
//   - []model.ShotEvent: The decoded events.
//   - error: An error when neither shape decodes.
func parseAnalysisArtifact(data []byte) ([]model.ShotEvent, error) {
	var events []model.ShotEvent
	if err := json.Unmarshal(data, &events); err == nil {
		return events, nil
	}
	var wrapped struct {
		ShotEvents []model.ShotEvent `json:"shotEvents"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.ShotEvents, nil
}

// loadShotEvents returns the job's shot events, preferring the inline copy
// on the document and falling back to the analysis artifact in the output
// bucket. A missing artifact is not an error; the caller just gets nil.
func loadShotEvents(c *gin.Context, job *model.Job) []model.ShotEvent {
	if len(job.ShotEvents) > 0 {
		return job.ShotEvents
	}
	if job.AnalysisGcsUri == "" {
		return nil
	}
	path, err := state.mediaService.DownloadToFile(c, job.AnalysisGcsUri, "analysis-*.json")
	if err != nil {
		slog.Warn("failed to fetch analysis artifact", "jobId", job.JobId, "error", err)
		return nil
	}
	defer func() { _ = os.Remove(path) }()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	events, err := parseAnalysisArtifact(data)
	if err != nil {
		slog.Warn("analysis artifact is not valid JSON", "jobId", job.JobId, "error", err)
		return nil
	}
	return events
}
