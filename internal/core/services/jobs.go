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
// sources. This file, `jobs.go`, defines the JobService, the read/write layer
// over the Firestore collection holding Job documents. The API tier creates
// and mutates jobs on user actions; the worker tier advances status and
// commits pipeline results. Both go through this service so document layout
// and merge semantics live in one place.
//
// Functions:
//   - Get, Create, Merge, Update: Basic document operations.
//   - CommitError: The worker's terminal error write.
//   - List: Owner and public-feed listings with cursor pagination.
//   - SoftDelete: Marks a job deleted without removing the document.
//   - Like, Unlike, RecordView: Engagement counters.
package services

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/model"
)

// ErrJobNotFound is returned when a job id resolves to no document.
var ErrJobNotFound = fmt.Errorf("job not found")

// JobService is the data access layer for Job documents.
type JobService struct {
	FirestoreClient *firestore.Client // Client for the Firestore document store.
	Collection      string            // The collection name holding Job documents.
}

func (s *JobService) doc(jobId string) *firestore.DocumentRef {
	return s.FirestoreClient.Collection(s.Collection).Doc(jobId)
}

// Get retrieves a single job by id.
//
// Inputs:
//   - ctx: The context for the request.
//   - jobId: The unique identifier of the job.
//
// Outputs:
//   - *model.Job: The job document.
//   - error: ErrJobNotFound when the document does not exist.
func (s *JobService) Get(ctx context.Context, jobId string) (*model.Job, error) {
	snap, err := s.doc(jobId).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	job := &model.Job{}
	if err := snap.DataTo(job); err != nil {
		return nil, err
	}
	job.JobId = snap.Ref.ID
	return job, nil
}

// Create writes a new job document keyed by its JobId.
func (s *JobService) Create(ctx context.Context, job *model.Job) error {
	if job.JobId == "" {
		return fmt.Errorf("job has no id")
	}
	_, err := s.doc(job.JobId).Set(ctx, job)
	return err
}

// Merge applies a partial update, creating the document when absent. Fields
// not named in the map are left untouched.
func (s *JobService) Merge(ctx context.Context, jobId string, fields map[string]interface{}) error {
	fields["updatedAt"] = firestore.ServerTimestamp
	_, err := s.doc(jobId).Set(ctx, fields, firestore.MergeAll)
	return err
}

// Update applies field updates to an existing document and fails when the
// document does not exist.
func (s *JobService) Update(ctx context.Context, jobId string, updates []firestore.Update) error {
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: firestore.ServerTimestamp})
	_, err := s.doc(jobId).Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return ErrJobNotFound
	}
	return err
}

// CommitError is the worker's terminal failure write: the job moves to the
// error status with a human-readable message and a finish time, so a
// redelivered envelope will be skipped by the idempotency guard.
func (s *JobService) CommitError(ctx context.Context, jobId string, message string) error {
	return s.Merge(ctx, jobId, map[string]interface{}{
		"status":     model.StatusError,
		"error":      message,
		"finishedAt": firestore.ServerTimestamp,
	})
}

// ListOptions selects which jobs a listing returns.
type ListOptions struct {
	// OwnerEmail limits the listing to one owner's jobs when set.
	OwnerEmail string
	// UserId limits the listing by the opaque user id when no email is known.
	UserId string
	// Status limits the listing to one status when set (e.g., done).
	Status string
	// PublicOnly limits the listing to public, finished highlights.
	PublicOnly bool
	// Limit caps the page size; zero means the default of 50.
	Limit int
	// StartAfterJobId resumes a listing just after this document id. An
	// unknown id restarts the listing from the top.
	StartAfterJobId string
}

const defaultListLimit = 50

// List returns jobs ordered by finish time, newest first. The cursor is the
// id of the last document of the previous page. Soft-deleted jobs are
// filtered out before the limit is applied, so a page is never short just
// because it overlapped deletions; Firestore cannot combine a != filter with
// the ordering without an extra composite index.
func (s *JobService) List(ctx context.Context, opts ListOptions) ([]*model.Job, error) {
	q := s.FirestoreClient.Collection(s.Collection).Query
	if opts.OwnerEmail != "" {
		q = q.Where("ownerEmail", "==", opts.OwnerEmail)
	} else if opts.UserId != "" {
		q = q.Where("userId", "==", opts.UserId)
	}
	if opts.Status != "" {
		q = q.Where("status", "==", opts.Status)
	}
	if opts.PublicOnly {
		q = q.Where("isPublic", "==", true)
	}
	q = q.OrderBy("finishedAt", firestore.Desc)
	if opts.StartAfterJobId != "" {
		cursor, err := s.doc(opts.StartAfterJobId).Get(ctx)
		if err != nil && status.Code(err) != codes.NotFound {
			return nil, err
		}
		if cursor != nil && cursor.Exists() {
			q = q.StartAfter(cursor)
		}
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	itr := q.Documents(ctx)
	defer itr.Stop()

	jobs := make([]*model.Job, 0, limit)
	for len(jobs) < limit {
		snap, err := itr.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		job := &model.Job{}
		if err := snap.DataTo(job); err != nil {
			return nil, err
		}
		job.JobId = snap.Ref.ID
		if job.Deleted || job.Status == model.StatusDeleted {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// SoftDelete marks a finished job deleted. The document and its artifacts
// remain so the operation is reversible by hand.
func (s *JobService) SoftDelete(ctx context.Context, jobId string) error {
	return s.Merge(ctx, jobId, map[string]interface{}{
		"status":    model.StatusDeleted,
		"deleted":   true,
		"show":      false,
		"deletedAt": firestore.ServerTimestamp,
	})
}

// hasEmail reports whether the email is already in the membership list.
func hasEmail(emails []string, email string) bool {
	for _, e := range emails {
		if e == email {
			return true
		}
	}
	return false
}

// Like records a like from the given email. The membership check and the
// counter move run in one transaction, so concurrent likes from the same
// user cannot inflate the counter.
func (s *JobService) Like(ctx context.Context, jobId string, email string) error {
	return s.FirestoreClient.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(s.doc(jobId))
		if status.Code(err) == codes.NotFound {
			return ErrJobNotFound
		}
		if err != nil {
			return err
		}
		job := &model.Job{}
		if err := snap.DataTo(job); err != nil {
			return err
		}
		if hasEmail(job.LikedByEmails, email) {
			return nil
		}
		return tx.Update(snap.Ref, []firestore.Update{
			{Path: "likedByEmails", Value: firestore.ArrayUnion(email)},
			{Path: "likesCount", Value: firestore.Increment(1)},
			{Path: "lastLikedAt", Value: firestore.ServerTimestamp},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		})
	})
}

// Unlike removes a like from the given email, if present. Transactional for
// the same reason Like is.
func (s *JobService) Unlike(ctx context.Context, jobId string, email string) error {
	return s.FirestoreClient.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(s.doc(jobId))
		if status.Code(err) == codes.NotFound {
			return ErrJobNotFound
		}
		if err != nil {
			return err
		}
		job := &model.Job{}
		if err := snap.DataTo(job); err != nil {
			return err
		}
		if !hasEmail(job.LikedByEmails, email) {
			return nil
		}
		return tx.Update(snap.Ref, []firestore.Update{
			{Path: "likedByEmails", Value: firestore.ArrayRemove(email)},
			{Path: "likesCount", Value: firestore.Increment(-1)},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		})
	})
}

// RecordView increments the view counter.
func (s *JobService) RecordView(ctx context.Context, jobId string) error {
	return s.Update(ctx, jobId, []firestore.Update{
		{Path: "viewsCount", Value: firestore.Increment(1)},
		{Path: "lastViewedAt", Value: firestore.ServerTimestamp},
	})
}

// PatchShotEvent applies the allowed per-event mutations (show, deleted) to
// one event of a job and writes the whole array back. Returns ErrJobNotFound
// for a missing job and an error naming the event when no event matches.
func (s *JobService) PatchShotEvent(ctx context.Context, jobId string, eventId string, show *bool, deleted *bool) (*model.Job, error) {
	job, err := s.Get(ctx, jobId)
	if err != nil {
		return nil, err
	}
	patched := false
	for i := range job.ShotEvents {
		if job.ShotEvents[i].Id != eventId {
			continue
		}
		if show != nil {
			job.ShotEvents[i].Show = *show
		}
		if deleted != nil {
			job.ShotEvents[i].Deleted = *deleted
		}
		patched = true
		break
	}
	if !patched {
		return nil, fmt.Errorf("shot event %s not found on job %s", eventId, jobId)
	}
	if err := s.Merge(ctx, jobId, map[string]interface{}{"shotEvents": job.ShotEvents}); err != nil {
		return nil, err
	}
	return job, nil
}
