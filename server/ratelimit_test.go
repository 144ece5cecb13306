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
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestKeyedLimiterAllowsBurstPerKey(t *testing.T) {
	limiter := NewKeyedLimiter(time.Minute, 1)

	assert.True(t, limiter.Allow("coach@example.com"))
	assert.False(t, limiter.Allow("coach@example.com"))

	// A different caller has an untouched bucket.
	assert.True(t, limiter.Allow("player@example.com"))
}

func TestCallerKeyPrefersIdentityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	makeContext := func(headers map[string]string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/upload", nil)
		for k, v := range headers {
			c.Request.Header.Set(k, v)
		}
		return c
	}

	c := makeContext(map[string]string{
		"x-owner-email": "owner@example.com",
		"x-user-email":  "user@example.com",
	})
	assert.Equal(t, "owner@example.com", callerKey(c))

	c = makeContext(map[string]string{"x-user-email": "user@example.com"})
	assert.Equal(t, "user@example.com", callerKey(c))

	// No identity headers falls back to the client address.
	c = makeContext(nil)
	assert.NotEmpty(t, callerKey(c))
}

func TestUploadRateLimitReturns429(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/upload", UploadRateLimit(NewKeyedLimiter(time.Minute, 1)), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	send := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/upload", nil)
		req.Header.Set("x-owner-email", "coach@example.com")
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send().Code)

	w := send()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Rate limit exceeded")
}
