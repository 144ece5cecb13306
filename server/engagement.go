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

// Package main contains the viewer engagement routes: views, likes, and
// comments on finished highlights. Counters are atomic increments on the
// job document; comments live in their own collection.
//
// Functions:
//   - EngagementRouter: Registers the view/like routes.
//   - CommentsRouter: Registers the comment routes.
package main

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/model"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/services"
)

// EngagementRouter sets up the view and like routes.
//
// Inputs:
//   - r: A *gin.RouterGroup to which the engagement routes will be added.
//
// This function defines the following endpoints:
//   - POST /video/engagement/view: Atomically bumps the view counter.
//   - POST /video/engagement/like: Applies a like delta for the calling
//     viewer, idempotent per email.
func EngagementRouter(r *gin.RouterGroup) {
	engagement := r.Group("/video/engagement")
	{
		// Handler for POST /video/engagement/view.
		engagement.POST("/view", func(c *gin.Context) {
			var req struct {
				HighlightId string `json:"highlightId"`
			}
			if err := c.ShouldBindJSON(&req); err != nil || req.HighlightId == "" {
				c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "highlightId is required"})
				return
			}
			if err := state.jobService.RecordView(c, req.HighlightId); err != nil {
				if err == services.ErrJobNotFound {
					c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "highlight not found"})
					return
				}
				c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "recording view failed"})
				return
			}
			job, err := state.jobService.Get(c, req.HighlightId)
			if err != nil {
				c.JSON(http.StatusOK, gin.H{"ok": true})
				return
			}
			c.JSON(http.StatusOK, gin.H{"ok": true, "viewsCount": job.ViewsCount})
		})

		// Handler for POST /video/engagement/like. Delta +1 likes, -1
		// unlikes, 0 just reads the current state for the caller.
		engagement.POST("/like", func(c *gin.Context) {
			var req struct {
				HighlightId string `json:"highlightId"`
				Delta       int    `json:"delta"`
			}
			if err := c.ShouldBindJSON(&req); err != nil || req.HighlightId == "" {
				c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "highlightId is required"})
				return
			}
			email := c.GetHeader("x-user-email")
			if email == "" {
				c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "x-user-email header is required"})
				return
			}

			var err error
			switch req.Delta {
			case 1:
				err = state.jobService.Like(c, req.HighlightId, email)
			case -1:
				err = state.jobService.Unlike(c, req.HighlightId, email)
			case 0:
				// Read-only; fall through to the fresh fetch below.
			default:
				c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "delta must be -1, 0, or 1"})
				return
			}
			if err == services.ErrJobNotFound {
				c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "highlight not found"})
				return
			}
			if err != nil {
				slog.Error("like update failed", "highlightId", req.HighlightId, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "like update failed"})
				return
			}

			job, err := state.jobService.Get(c, req.HighlightId)
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "highlight not found"})
				return
			}
			liked := false
			for _, e := range job.LikedByEmails {
				if e == email {
					liked = true
					break
				}
			}
			c.JSON(http.StatusOK, gin.H{
				"ok":                 true,
				"likesCount":         job.LikesCount,
				"likedByCurrentUser": liked,
			})
		})
	}
}

// CommentsRouter sets up the comment routes.
//
// Inputs:
//   - r: A *gin.RouterGroup to which the comment routes will be added.
//
// This function defines the following endpoints:
//   - POST /video/comments: Adds a comment. Only the owner may comment on a
//     non-public highlight.
//   - GET /video/comments: Lists a highlight's comments, newest first.
func CommentsRouter(r *gin.RouterGroup) {
	comments := r.Group("/video/comments")
	{
		// Handler for POST /video/comments.
		comments.POST("", func(c *gin.Context) {
			var req struct {
				HighlightId string `json:"highlightId"`
				Text        string `json:"text"`
			}
			if err := c.ShouldBindJSON(&req); err != nil || req.HighlightId == "" || req.Text == "" {
				c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "highlightId and text are required"})
				return
			}
			email := c.GetHeader("x-user-email")
			if email == "" {
				c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "x-user-email header is required"})
				return
			}

			job, _ := getJobOr404(c, req.HighlightId)
			if job == nil {
				return
			}
			// Non-public highlights accept comments only from their owner.
			if !job.IsPublic && job.Visibility != model.VisibilityPublic && job.OwnerEmail != email {
				c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "commenting is limited to the owner on non-public highlights"})
				return
			}

			stored, err := state.commentService.Add(c, &model.Comment{
				HighlightId:             job.JobId,
				AuthorEmail:             email,
				Text:                    req.Text,
				VisibilityAtCommentTime: job.Visibility,
			})
			if err != nil {
				slog.Error("failed to store comment", "highlightId", job.JobId, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "storing comment failed"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"ok": true, "comment": stored})
		})

		// Handler for GET /video/comments?highlightId=&limit=&pageToken=
		comments.GET("", func(c *gin.Context) {
			highlightId := c.Query("highlightId")
			if highlightId == "" {
				c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "highlightId is required"})
				return
			}
			limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
			if err != nil || limit < 1 {
				limit = 50
			}
			if limit > maxPageSize {
				limit = maxPageSize
			}
			startAfter := time.Time{}
			if token := c.Query("pageToken"); token != "" {
				nanos, err := strconv.ParseInt(token, 10, 64)
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid pageToken"})
					return
				}
				startAfter = time.Unix(0, nanos)
			}

			list, err := state.commentService.ListForHighlight(c, highlightId, limit, startAfter)
			if err != nil {
				slog.Error("comment listing failed", "highlightId", highlightId, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "listing failed"})
				return
			}

			out := gin.H{"ok": true, "comments": list}
			if len(list) == limit {
				out["nextPageToken"] = strconv.FormatInt(list[len(list)-1].CreatedAt.UnixNano(), 10)
			}
			c.JSON(http.StatusOK, out)
		})
	}
}
