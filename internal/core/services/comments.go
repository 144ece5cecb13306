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

// This file defines the CommentService, the Firestore layer for viewer
// comments on finished highlights. Comments live in their own collection so
// a busy highlight does not grow its job document unboundedly.
package services

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/model"
)

// CommentService is the data access layer for Comment documents.
type CommentService struct {
	FirestoreClient *firestore.Client // Client for the Firestore document store.
	Collection      string            // The collection name holding Comment documents.
}

// Add stores a new comment and returns it with its assigned id and creation
// time filled in.
//
// Inputs:
//   - ctx: The context for the request.
//   - comment: The comment to store; Id and CreatedAt are assigned here.
//
// Outputs:
//   - *model.Comment: The stored comment.
//   - error: An error if the write fails.
func (s *CommentService) Add(ctx context.Context, comment *model.Comment) (*model.Comment, error) {
	if comment.HighlightId == "" {
		return nil, fmt.Errorf("comment has no highlight id")
	}
	ref := s.FirestoreClient.Collection(s.Collection).NewDoc()
	if _, err := ref.Set(ctx, map[string]interface{}{
		"highlightId":             comment.HighlightId,
		"authorEmail":             comment.AuthorEmail,
		"text":                    comment.Text,
		"visibilityAtCommentTime": comment.VisibilityAtCommentTime,
		"createdAt":               firestore.ServerTimestamp,
	}); err != nil {
		return nil, err
	}
	stored, err := ref.Get(ctx)
	if err != nil {
		return nil, err
	}
	out := &model.Comment{}
	if err := stored.DataTo(out); err != nil {
		return nil, err
	}
	out.Id = ref.ID
	return out, nil
}

const defaultCommentLimit = 50

// ListForHighlight returns a page of a highlight's comments, newest first.
// A zero startAfter starts at the newest comment; a zero limit means the
// default of 50.
func (s *CommentService) ListForHighlight(ctx context.Context, highlightId string, limit int, startAfter time.Time) ([]*model.Comment, error) {
	if limit <= 0 {
		limit = defaultCommentLimit
	}
	q := s.FirestoreClient.Collection(s.Collection).
		Where("highlightId", "==", highlightId).
		OrderBy("createdAt", firestore.Desc)
	if !startAfter.IsZero() {
		q = q.StartAfter(startAfter)
	}
	itr := q.Limit(limit).Documents(ctx)
	defer itr.Stop()

	comments := make([]*model.Comment, 0)
	for {
		snap, err := itr.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		c := &model.Comment{}
		if err := snap.DataTo(c); err != nil {
			return nil, err
		}
		c.Id = snap.Ref.ID
		comments = append(comments, c)
	}
	return comments, nil
}
