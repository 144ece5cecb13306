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

// Package main contains the highlight management routes: the owner and
// public listings, metadata edits, per-event edits, and soft delete.
//
// Functions:
//   - HighlightsRouter: Registers the highlight routes.
//   - resolveDurationSeconds: Duration fallback chain with write-back
//     caching for items committed before durations were recorded.
package main

import (
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/highlights"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/model"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/services"
)

// Listing page bounds. The clamp keeps a hostile limit parameter from
// turning one request into a collection scan.
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// highlightItem is one listing entry: the job document plus the fields the
// gallery needs that are derived at read time.
type highlightItem struct {
	*model.Job
	DurationSeconds int    `json:"durationSeconds"`
	SignedUrl       string `json:"signedUrl,omitempty"`
}

// HighlightsRouter sets up the API routes for managing finished highlights.
//
// Inputs:
//   - r: A *gin.RouterGroup to which the highlight routes will be added.
//
// This function defines the following endpoints:
//   - GET /highlights: Lists finished highlights for an owner or the public
//     feed, newest first, with cursor pagination.
//   - PATCH /highlights/:id: Edits title, visibility, or the cached length.
//   - DELETE /highlights/:id: Soft-deletes a highlight.
//   - PATCH /highlights/:id/events/:event_id: Toggles one shot event's
//     show/deleted flags for the editor.
func HighlightsRouter(r *gin.RouterGroup) {
	hl := r.Group("/highlights")
	{
		// Handler for GET /highlights?ownerEmail=&userId=&limit=&pageToken=&signed=
		hl.GET("", func(c *gin.Context) {
			ownerEmail := c.Query("ownerEmail")
			userId := c.Query("userId")
			if ownerEmail == "" && userId == "" {
				c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "ownerEmail or userId is required"})
				return
			}

			limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
			if err != nil || limit < 1 {
				limit = defaultPageSize
			}
			if limit > maxPageSize {
				limit = maxPageSize
			}

			opts := services.ListOptions{
				OwnerEmail: ownerEmail,
				UserId:     userId,
				Status:     model.StatusDone,
				// One extra row tells us whether another page exists.
				Limit: limit + 1,
				// The page token is the document id of the previous page's
				// last item, opaque to clients.
				StartAfterJobId: c.Query("pageToken"),
			}

			jobs, err := state.jobService.List(c, opts)
			if err != nil {
				slog.Error("highlight listing failed", "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "listing failed"})
				return
			}
			jobs, nextPageToken := pageOf(jobs, limit)

			sign := c.Query("signed") == "true"
			items := make([]*highlightItem, 0, len(jobs))
			for _, job := range jobs {
				item := &highlightItem{Job: job, DurationSeconds: resolveDurationSeconds(c, job)}
				if sign && job.OutputGcsUri != "" {
					if url, err := state.mediaService.GenerateSignedURL(c, job.OutputGcsUri, http.MethodGet, downloadURLTTL); err == nil {
						item.SignedUrl = url
					}
				}
				items = append(items, item)
			}

			out := gin.H{"items": items}
			if nextPageToken != "" {
				out["nextPageToken"] = nextPageToken
			}
			c.JSON(http.StatusOK, out)
		})

		// Handler for PATCH /highlights/:id. Only the owner-editable fields
		// move here; everything else on the document belongs to the worker.
		hl.PATCH("/:id", func(c *gin.Context) {
			var req struct {
				Title                *string `json:"title"`
				Visibility           *string `json:"visibility"`
				HighlightVideoLength *int    `json:"highlightVideoLength"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
				return
			}

			job, _ := getJobOr404(c, c.Param("id"))
			if job == nil {
				return
			}

			fields := map[string]interface{}{}
			updated := make([]string, 0, 3)
			if req.Title != nil {
				fields["title"] = *req.Title
				updated = append(updated, "title")
			}
			if req.Visibility != nil {
				switch *req.Visibility {
				case model.VisibilityPublic, model.VisibilityUnlisted, model.VisibilityPrivate:
				default:
					c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "visibility must be public, unlisted, or private"})
					return
				}
				fields["visibility"] = *req.Visibility
				fields["isPublic"] = *req.Visibility == model.VisibilityPublic
				updated = append(updated, "visibility")
			}
			if req.HighlightVideoLength != nil {
				fields["highlightVideoLength"] = *req.HighlightVideoLength
				updated = append(updated, "highlightVideoLength")
			}
			if len(fields) == 0 {
				c.JSON(http.StatusOK, gin.H{"ok": true, "updated": updated, "item": job})
				return
			}

			if err := state.jobService.Merge(c, job.JobId, fields); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "update failed"})
				return
			}
			fresh, err := state.jobService.Get(c, job.JobId)
			if err != nil {
				fresh = job
			}
			c.JSON(http.StatusOK, gin.H{"ok": true, "updated": updated, "item": fresh})
		})

		// Handler for DELETE /highlights/:id. Soft delete: the document
		// stays, listings hide it, and the rendered file is removed best
		// effort.
		hl.DELETE("/:id", func(c *gin.Context) {
			job, _ := getJobOr404(c, c.Param("id"))
			if job == nil {
				return
			}
			if err := state.jobService.SoftDelete(c, job.JobId); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "delete failed"})
				return
			}
			if job.OutputGcsUri != "" {
				if err := state.mediaService.Delete(c, job.OutputGcsUri); err != nil {
					slog.Warn("failed to delete rendered file", "jobId", job.JobId, "error", err)
				}
			}
			c.JSON(http.StatusOK, gin.H{"ok": true, "deleted": true})
		})

		// Handler for PATCH /highlights/:id/events/:event_id. The editor's
		// per-shot toggles ahead of a render run.
		hl.PATCH("/:id/events/:event_id", func(c *gin.Context) {
			var req struct {
				Show    *bool `json:"show"`
				Deleted *bool `json:"deleted"`
			}
			if err := c.ShouldBindJSON(&req); err != nil || (req.Show == nil && req.Deleted == nil) {
				c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "show or deleted is required"})
				return
			}

			job, err := state.jobService.PatchShotEvent(c, c.Param("id"), c.Param("event_id"), req.Show, req.Deleted)
			if err == services.ErrJobNotFound {
				c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "job not found"})
				return
			}
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"ok": true, "item": job})
		})
	}
}

// pageOf trims an over-fetched listing to one page. The listing asks for one
// row past the limit; when that row came back there is a next page and the
// token is the trimmed page's last document id.
//
// Inputs:
//   - jobs: Up to limit+1 jobs from the listing query.
//   - limit: The requested page size.
//
// Outputs:
//   - []*model.Job: At most limit jobs.
//   - string: The next page token, empty on the last page.
func pageOf(jobs []*model.Job, limit int) ([]*model.Job, string) {
	if len(jobs) <= limit {
		return jobs, ""
	}
	page := jobs[:limit]
	return page, page[len(page)-1].JobId
}

// resolveDurationSeconds returns the highlight duration for a listing item.
// Jobs committed by older workers predate the duration fields, so the chain
// runs: committed fields, then the planned ranges from the events, then an
// actual probe of the rendered file. Values derived by the last two steps
// are written back so the next listing takes the first branch.
func resolveDurationSeconds(c *gin.Context, job *model.Job) int {
	if job.HighlightDurationSeconds > 0 {
		return job.HighlightDurationSeconds
	}
	if job.HighlightVideoLength > 0 {
		return job.HighlightVideoLength
	}
	if job.VideoDurationSec > 0 && job.OutputGcsUri == "" {
		return job.VideoDurationSec
	}

	seconds := 0
	if len(job.ShotEvents) > 0 {
		ranges := state.planner.Plan(job.ShotEvents, job.VideoDurationSec)
		seconds = highlights.TotalDuration(ranges)
	}
	if seconds == 0 && job.OutputGcsUri != "" {
		path, err := state.mediaService.DownloadToFile(c, job.OutputGcsUri, "probe-*.mp4")
		if err == nil {
			defer func() { _ = os.Remove(path) }()
			if d, err := state.toolkit.ProbeDurationSeconds(c, path); err == nil {
				seconds = highlights.CeilSeconds(d)
			}
		}
	}
	if seconds > 0 {
		if err := state.jobService.Merge(c, job.JobId, map[string]interface{}{
			"highlightDurationSeconds": seconds,
			"highlightVideoLength":     seconds,
		}); err != nil {
			slog.Warn("failed to cache derived duration", "jobId", job.JobId, "error", err)
		}
	}
	return seconds
}
