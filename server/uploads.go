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

// Package main contains the ingest routes: the streaming multipart upload,
// the two-phase signed-URL upload, and the publish endpoints that hand a job
// to the worker tier.
//
// Ingest is the durability boundary of the system. Every path here follows
// the same order: write the object, write the job document, then publish the
// envelope. A publish failure is recorded on the job as a distinct status so
// the client sees an actionable state instead of a job stuck in queued.
//
// Functions:
//   - UploadRouter: Registers the upload and publish routes.
//   - enqueueJob: The shared document-write + publish step.
package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/cloud"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/model"
)

// signedUploadTTL is how long a two-phase upload URL stays valid. Full games
// over residential connections take a while.
const signedUploadTTL = time.Hour

// sniffLen is how many leading bytes the upload handler inspects to decide
// whether the payload is video. 262 covers every matcher filetype ships.
const sniffLen = 262

// UploadRouter sets up the ingest and publish routes.
//
// Inputs:
//   - r: A *gin.RouterGroup to which the routes will be added. This allows
//     nesting routes under a common path prefix (e.g., "/api/v1").
//
// This function defines the following endpoints:
//   - POST /upload: Streams a multipart video straight into the raw bucket,
//     creates a queued job, and publishes an analysis envelope.
//   - POST /upload/init: Creates an upload_pending job and returns a signed
//     PUT URL so the client uploads directly to the bucket.
//   - POST /upload/complete: Verifies the client's direct upload landed and
//     enqueues the job.
//   - POST /publish_job: Re-enqueues an existing job by id and source URI.
//   - POST /publish_render_job: Enqueues a render run for a user-edited clip
//     list.
func UploadRouter(r *gin.RouterGroup) {
	// Handler for POST /upload. The multipart body streams through to GCS
	// without buffering to disk; only the leading bytes are held for type
	// sniffing.
	r.POST("/upload", UploadRateLimit(state.uploadLimiter), func(c *gin.Context) {
		fileHeader, err := c.FormFile("video")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "missing multipart field 'video'"})
			return
		}
		userId := c.PostForm("userId")
		ownerEmail := c.GetHeader("x-owner-email")

		f, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": fmt.Sprintf("opening upload: %v", err)})
			return
		}
		defer f.Close()

		// Sniff the leading bytes, then stitch them back onto the stream.
		head := make([]byte, sniffLen)
		n, err := io.ReadFull(f, head)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "unreadable upload"})
			return
		}
		kind, _ := filetype.Match(head[:n])
		if kind.MIME.Type != "video" {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "payload is not a video file"})
			return
		}
		body := io.MultiReader(bytes.NewReader(head[:n]), f)

		jobId := uuid.NewString()
		objectName := cloud.UploadObjectName(jobId, fileHeader.Filename)
		contentType := fileHeader.Header.Get("Content-Type")
		if contentType == "" {
			contentType = kind.MIME.Value
		}

		videoGcsUri, err := state.mediaService.Upload(c, state.config.Storage.RawBucket, objectName, contentType, body)
		if err != nil {
			slog.Error("upload to raw bucket failed", "jobId", jobId, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "storing upload failed"})
			return
		}

		job := newJobFields(jobId, userId, ownerEmail, fileHeader.Filename, videoGcsUri)
		if ok := enqueueJob(c, jobId, job, &model.Envelope{
			JobId:       jobId,
			VideoGcsUri: videoGcsUri,
			OutBucket:   state.config.Storage.OutputBucket,
			UserId:      userId,
			OwnerEmail:  ownerEmail,
			Visibility:  model.VisibilityPrivate,
			Mode:        model.ModeAnalysis,
		}); !ok {
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"ok":          true,
			"jobId":       jobId,
			"status":      model.StatusQueued,
			"videoGcsUri": videoGcsUri,
		})
	})

	// Handler for POST /upload/init. Large uploads bypass the API's
	// bandwidth entirely: the client PUTs against the signed URL and calls
	// /upload/complete afterwards.
	r.POST("/upload/init", func(c *gin.Context) {
		var req struct {
			Filename         string `json:"filename"`
			ContentType      string `json:"contentType"`
			UserId           string `json:"userId"`
			VideoDurationSec int    `json:"videoDurationSec"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Filename == "" {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "filename is required"})
			return
		}

		jobId := uuid.NewString()
		objectName := cloud.UploadObjectName(jobId, req.Filename)
		videoGcsUri := cloud.FormatGCSURI(state.config.Storage.RawBucket, objectName)

		uploadUrl, err := state.mediaService.GenerateSignedURL(c, videoGcsUri, http.MethodPut, signedUploadTTL)
		if err != nil {
			slog.Error("failed to sign upload url", "jobId", jobId, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not create upload URL"})
			return
		}

		fields := newJobFields(jobId, req.UserId, c.GetHeader("x-owner-email"), req.Filename, videoGcsUri)
		fields["status"] = model.StatusUploadPending
		delete(fields, "queuedAt")
		if req.VideoDurationSec > 0 {
			fields["videoDurationSec"] = req.VideoDurationSec
		}
		if err := state.jobService.Merge(c, jobId, fields); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not create job"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"ok":          true,
			"jobId":       jobId,
			"uploadUrl":   uploadUrl,
			"videoGcsUri": videoGcsUri,
		})
	})

	// Handler for POST /upload/complete. The job only becomes queued once
	// the object is actually present; a client calling complete without
	// finishing its PUT gets a 400 and can retry.
	r.POST("/upload/complete", func(c *gin.Context) {
		var req struct {
			JobId  string `json:"jobId"`
			UserId string `json:"userId"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.JobId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "jobId is required"})
			return
		}

		job, err := getJobOr404(c, req.JobId)
		if job == nil {
			return
		}
		if job.VideoGcsUri == "" {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "job has no upload target"})
			return
		}
		exists, err := state.mediaService.Exists(c, job.VideoGcsUri)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not verify upload"})
			return
		}
		if !exists {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "upload not found; PUT the file before completing"})
			return
		}

		fields := map[string]interface{}{
			"status":            model.StatusQueued,
			"uploadCompletedAt": firestore.ServerTimestamp,
			"queuedAt":          firestore.ServerTimestamp,
		}
		if ok := enqueueJob(c, job.JobId, fields, &model.Envelope{
			JobId:       job.JobId,
			VideoGcsUri: job.VideoGcsUri,
			OutBucket:   state.config.Storage.OutputBucket,
			UserId:      req.UserId,
			OwnerEmail:  job.OwnerEmail,
			Visibility:  job.Visibility,
			Mode:        model.ModeAnalysis,
		}); !ok {
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true, "jobId": job.JobId, "status": model.StatusQueued})
	})

	// Handler for POST /publish_job. Manual re-enqueue of an existing job,
	// the recovery path for publish_error.
	r.POST("/publish_job", func(c *gin.Context) {
		var req struct {
			JobId       string `json:"jobId"`
			VideoGcsUri string `json:"videoGcsUri"`
			UserId      string `json:"userId"`
			OwnerEmail  string `json:"ownerEmail"`
			Mode        string `json:"mode"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.JobId == "" || req.VideoGcsUri == "" {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "jobId and videoGcsUri are required"})
			return
		}
		mode := req.Mode
		if mode == "" {
			mode = model.ModeAnalysis
		}

		fields := map[string]interface{}{
			"status":   model.StatusQueued,
			"mode":     mode,
			"queuedAt": firestore.ServerTimestamp,
		}
		if ok := enqueueJob(c, req.JobId, fields, &model.Envelope{
			JobId:       req.JobId,
			VideoGcsUri: req.VideoGcsUri,
			OutBucket:   state.config.Storage.OutputBucket,
			UserId:      req.UserId,
			OwnerEmail:  req.OwnerEmail,
			Mode:        mode,
		}); !ok {
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	// Handler for POST /publish_render_job. The clip list arrives exactly as
	// the user edited it; the worker renders it without re-merging.
	r.POST("/publish_render_job", func(c *gin.Context) {
		var req struct {
			JobId       string            `json:"jobId"`
			VideoGcsUri string            `json:"videoGcsUri"`
			FinalClips  []model.FinalClip `json:"finalClips"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.JobId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "jobId is required"})
			return
		}
		if len(req.FinalClips) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "finalClips must not be empty"})
			return
		}
		for i, clip := range req.FinalClips {
			if clip.Start < 0 || clip.End <= clip.Start {
				c.JSON(http.StatusBadRequest, gin.H{
					"ok":    false,
					"error": fmt.Sprintf("finalClips[%d] is not a valid range", i),
				})
				return
			}
		}

		videoGcsUri := req.VideoGcsUri
		if videoGcsUri == "" {
			job, _ := getJobOr404(c, req.JobId)
			if job == nil {
				return
			}
			videoGcsUri = job.VideoGcsUri
		}
		if videoGcsUri == "" {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "job has no source video"})
			return
		}

		if err := state.jobService.Merge(c, req.JobId, map[string]interface{}{
			"status":         model.StatusRenderQueued,
			"mode":           model.ModeRender,
			"finalClips":     req.FinalClips,
			"renderQueuedAt": firestore.ServerTimestamp,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not update job"})
			return
		}

		if _, err := state.publisher.PublishEnvelope(c, &model.Envelope{
			JobId:       req.JobId,
			VideoGcsUri: videoGcsUri,
			OutBucket:   state.config.Storage.OutputBucket,
			Mode:        model.ModeRender,
			FinalClips:  req.FinalClips,
		}); err != nil {
			slog.Error("render publish failed", "jobId", req.JobId, "error", err)
			_ = state.jobService.Merge(c, req.JobId, map[string]interface{}{
				"status": model.StatusRenderPublishError,
				"error":  fmt.Sprintf("publish failed: %v", err),
			})
			c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "failed to enqueue render job"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true, "jobId": req.JobId, "status": model.StatusRenderQueued})
	})
}

// newJobFields builds the initial document fields every ingest path shares.
// The document is written with a merge so retried ingests of the same job id
// stay additive.
func newJobFields(jobId, userId, ownerEmail, fileName, videoGcsUri string) map[string]interface{} {
	return map[string]interface{}{
		"jobId":            jobId,
		"userId":           userId,
		"ownerEmail":       ownerEmail,
		"status":           model.StatusQueued,
		"mode":             model.ModeAnalysis,
		"originalFileName": fileName,
		"visibility":       model.VisibilityPrivate,
		"isPublic":         false,
		"show":             true,
		"deleted":          false,
		"videoGcsUri":      videoGcsUri,
		"likesCount":       0,
		"viewsCount":       0,
		"createdAt":        firestore.ServerTimestamp,
		"queuedAt":         firestore.ServerTimestamp,
	}
}

// enqueueJob writes the job fields and publishes the envelope. On publish
// failure the job is moved to publish_error and a 502 is written to the
// response; the caller should return without writing anything further.
//
// Outputs:
//   - bool: True when the job was enqueued and the caller owns the response.
func enqueueJob(c *gin.Context, jobId string, fields map[string]interface{}, envelope *model.Envelope) bool {
	if err := state.jobService.Merge(c, jobId, fields); err != nil {
		slog.Error("failed to write job document", "jobId", jobId, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not create job"})
		return false
	}
	if _, err := state.publisher.PublishEnvelope(c, envelope); err != nil {
		slog.Error("publish failed", "jobId", jobId, "error", err)
		_ = state.jobService.Merge(c, jobId, map[string]interface{}{
			"status": model.StatusPublishError,
			"error":  fmt.Sprintf("publish failed: %v", err),
		})
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "failed to enqueue job"})
		return false
	}
	return true
}

// getJobOr404 loads a job and writes the 404 response itself when the id is
// unknown. Callers check for nil and return.
func getJobOr404(c *gin.Context, jobId string) (*model.Job, error) {
	job, err := state.jobService.Get(c, jobId)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "job not found"})
		return nil, err
	}
	return job, nil
}
