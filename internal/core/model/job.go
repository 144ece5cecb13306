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

// Package model defines the core data structures for the application.
// This file, `job.go`, defines the Job entity, the durable record of one
// video-processing run. A Job is created by the API at ingest time, advanced
// by the worker as the pipeline progresses, and read back by the HTTP
// surface for polling, listings, and downloads.
//
// Structs:
//   - Job: The primary entity, one per uploaded video.
//   - ShotEvent: A single detected basketball shot within a Job.
//   - ClipRange: A renderable (start, end) cut interval in integer seconds.
//   - FinalClip: A user-edited cut interval carried by render-mode envelopes.
package model

import "time"

// Job status values. A job only moves forward along these states; the only
// transition out of a terminal state is the soft-delete of a finished job.
const (
	StatusUploadPending      = "upload_pending"
	StatusUploading          = "uploading"
	StatusQueued             = "queued"
	StatusProcessing         = "processing"
	StatusDone               = "done"
	StatusError              = "error"
	StatusPublishError       = "publish_error"
	StatusDeleted            = "deleted"
	StatusRenderQueued       = "render_queued"
	StatusRendering          = "rendering"
	StatusReady              = "ready"
	StatusRenderPublishError = "render_publish_error"
)

// Visibility values for a Job. "public" is the only visibility that allows
// non-owner comments.
const (
	VisibilityPrivate  = "private"
	VisibilityUnlisted = "unlisted"
	VisibilityPublic   = "public"
)

// IsTerminalStatus reports whether a worker receiving a redelivered envelope
// for a job in this status should skip processing and ack immediately.
func IsTerminalStatus(status string) bool {
	return status == StatusDone || status == StatusError || status == StatusDeleted
}

// ShotOutcome values after canonicalization. The model may answer with
// synonyms ("made", "missed"); those are normalized at the parsing edge.
const (
	OutcomeMake         = "make"
	OutcomeMiss         = "miss"
	OutcomeUndetermined = "undetermined"
	OutcomeOther        = "other"
)

// ShotEvent is a single detected shot. Timestamps are canonical integer
// seconds from the start of the source video. The `show` and `deleted`
// flags are mutation state owned by the editor UI.
type ShotEvent struct {
	Id             string `json:"id" firestore:"id"`
	TimestampStart int    `json:"timestamp_start" firestore:"timestamp_start"`
	TimestampEnd   int    `json:"timestamp_end" firestore:"timestamp_end"`
	Outcome        string `json:"outcome" firestore:"outcome"`
	Subject        string `json:"subject,omitempty" firestore:"subject,omitempty"`
	ShotType       string `json:"shot_type,omitempty" firestore:"shot_type,omitempty"`
	ShotLocation   string `json:"shot_location,omitempty" firestore:"shot_location,omitempty"`
	Show           bool   `json:"show" firestore:"show"`
	Deleted        bool   `json:"deleted" firestore:"deleted"`
}

// ClipRange is one cut interval of the rendered highlight, in integer seconds.
type ClipRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Duration returns the length of the range in seconds.
func (r ClipRange) Duration() int {
	return r.End - r.Start
}

// FinalClip is a user-edited cut range from the highlight editor. Unlike
// planner output these carry fractional seconds and are rendered exactly as
// given, in the order given.
type FinalClip struct {
	Start float64 `json:"start" firestore:"start"`
	End   float64 `json:"end" firestore:"end"`
}

// Job is the durable record of a single video-processing unit. It lives in
// the document store, keyed by JobId, and every field below is owned either
// by the API (title, visibility, engagement) or by the worker (status, URIs,
// events, durations, error).
type Job struct {
	JobId      string `json:"jobId" firestore:"jobId"`
	UserId     string `json:"userId,omitempty" firestore:"userId,omitempty"`
	OwnerEmail string `json:"ownerEmail,omitempty" firestore:"ownerEmail,omitempty"`

	Status   string `json:"status" firestore:"status"`
	Pipeline string `json:"pipeline,omitempty" firestore:"pipeline,omitempty"`
	Mode     string `json:"mode,omitempty" firestore:"mode,omitempty"`
	Error    string `json:"error,omitempty" firestore:"error,omitempty"`

	OriginalFileName string `json:"originalFileName,omitempty" firestore:"originalFileName,omitempty"`
	Title            string `json:"title,omitempty" firestore:"title,omitempty"`
	Visibility       string `json:"visibility,omitempty" firestore:"visibility,omitempty"`
	IsPublic         bool   `json:"isPublic" firestore:"isPublic"`
	Show             bool   `json:"show" firestore:"show"`
	Deleted          bool   `json:"deleted" firestore:"deleted"`

	VideoGcsUri    string `json:"videoGcsUri,omitempty" firestore:"videoGcsUri,omitempty"`
	OutputGcsUri   string `json:"outputGcsUri,omitempty" firestore:"outputGcsUri,omitempty"`
	AnalysisGcsUri string `json:"analysisGcsUri,omitempty" firestore:"analysisGcsUri,omitempty"`
	FinalVideoUrl  string `json:"finalVideoUrl,omitempty" firestore:"finalVideoUrl,omitempty"`

	ShotEvents []ShotEvent `json:"shotEvents,omitempty" firestore:"shotEvents,omitempty"`
	FinalClips []FinalClip `json:"finalClips,omitempty" firestore:"finalClips,omitempty"`

	VideoDurationSec          int `json:"videoDurationSec,omitempty" firestore:"videoDurationSec,omitempty"`
	HighlightDurationSeconds  int `json:"highlightDurationSeconds,omitempty" firestore:"highlightDurationSeconds,omitempty"`
	HighlightVideoLength      int `json:"highlightVideoLength,omitempty" firestore:"highlightVideoLength,omitempty"`

	LikesCount    int      `json:"likesCount" firestore:"likesCount"`
	ViewsCount    int      `json:"viewsCount" firestore:"viewsCount"`
	LikedByEmails []string `json:"likedByEmails,omitempty" firestore:"likedByEmails,omitempty"`

	CreatedAt         time.Time `json:"createdAt,omitempty" firestore:"createdAt,omitempty"`
	QueuedAt          time.Time `json:"queuedAt,omitempty" firestore:"queuedAt,omitempty"`
	StartedAt         time.Time `json:"startedAt,omitempty" firestore:"startedAt,omitempty"`
	FinishedAt        time.Time `json:"finishedAt,omitempty" firestore:"finishedAt,omitempty"`
	UpdatedAt         time.Time `json:"updatedAt,omitempty" firestore:"updatedAt,omitempty"`
	DeletedAt         time.Time `json:"deletedAt,omitempty" firestore:"deletedAt,omitempty"`
	LastViewedAt      time.Time `json:"lastViewedAt,omitempty" firestore:"lastViewedAt,omitempty"`
	LastLikedAt       time.Time `json:"lastLikedAt,omitempty" firestore:"lastLikedAt,omitempty"`
	UploadCompletedAt time.Time `json:"uploadCompletedAt,omitempty" firestore:"uploadCompletedAt,omitempty"`
	RenderQueuedAt    time.Time `json:"renderQueuedAt,omitempty" firestore:"renderQueuedAt,omitempty"`
}

// Comment is a single viewer comment on a finished highlight. Comments live
// in their own collection, keyed by an auto-assigned document id.
type Comment struct {
	Id                      string    `json:"id" firestore:"-"`
	HighlightId             string    `json:"highlightId" firestore:"highlightId"`
	AuthorEmail             string    `json:"authorEmail" firestore:"authorEmail"`
	Text                    string    `json:"text" firestore:"text"`
	VisibilityAtCommentTime string    `json:"visibilityAtCommentTime,omitempty" firestore:"visibilityAtCommentTime,omitempty"`
	CreatedAt               time.Time `json:"createdAt,omitempty" firestore:"createdAt,omitempty"`
}
