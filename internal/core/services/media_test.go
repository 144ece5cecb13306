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

package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSignerResourceName(t *testing.T) {
	assert.Equal(t,
		"projects/-/serviceAccounts/signer@project.iam.gserviceaccount.com",
		signerResourceName("signer@project.iam.gserviceaccount.com"))
}

func TestGenerateSignedURLRejectsInvalidURI(t *testing.T) {
	s := &MediaService{SignerEmail: "signer@project.iam.gserviceaccount.com"}
	_, err := s.GenerateSignedURL(context.Background(), "https://not-a-gcs-uri", http.MethodGet, 15*time.Minute)
	assert.Error(t, err)
}
