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

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/model"
)

func listingJobs(ids ...string) []*model.Job {
	jobs := make([]*model.Job, 0, len(ids))
	for _, id := range ids {
		jobs = append(jobs, &model.Job{JobId: id})
	}
	return jobs
}

func TestPageOfEmitsTokenWhenMoreRemain(t *testing.T) {
	page, token := pageOf(listingJobs("job-3", "job-2", "job-1"), 2)
	assert.Len(t, page, 2)
	assert.Equal(t, "job-2", page[1].JobId)
	assert.Equal(t, "job-2", token)
}

func TestPageOfLastPageHasNoToken(t *testing.T) {
	page, token := pageOf(listingJobs("job-2", "job-1"), 2)
	assert.Len(t, page, 2)
	assert.Empty(t, token)

	page, token = pageOf(listingJobs("job-1"), 2)
	assert.Len(t, page, 1)
	assert.Empty(t, token)
}

func TestPageOfEmptyListing(t *testing.T) {
	page, token := pageOf(nil, 20)
	assert.Empty(t, page)
	assert.Empty(t, token)
}
