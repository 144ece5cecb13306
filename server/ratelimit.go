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

// Package main contains the per-caller rate limiting for the upload
// endpoint. A full-game upload is an expensive request (hundreds of MB of
// object storage writes plus a generative analysis downstream), so callers
// get one per minute, keyed by their identity header or client address.
//
// Structs:
//   - KeyedLimiter: A map of token-bucket limiters, one per caller key.
//
// Functions:
//   - NewKeyedLimiter: Constructor for a KeyedLimiter.
//   - UploadRateLimit: Gin middleware enforcing the limit on a route.
package main

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// KeyedLimiter tracks one token bucket per caller key. Buckets are created
// on first use and kept for the life of the process; the key space is
// bounded by the active user population.
type KeyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewKeyedLimiter builds a limiter allowing `burst` requests per `interval`
// for each distinct key.
//
// Inputs:
//   - interval: The refill period for one token.
//   - burst: The number of requests allowed back to back.
//
// Outputs:
//   - *KeyedLimiter: A pointer to the newly created limiter.
func NewKeyedLimiter(interval time.Duration, burst int) *KeyedLimiter {
	return &KeyedLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(interval),
		burst:    burst,
	}
}

// Allow reports whether the caller identified by key may proceed now.
func (l *KeyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}

// callerKey identifies the caller for rate limiting purposes: the owner
// email header when present, otherwise the client address.
func callerKey(c *gin.Context) string {
	if email := c.GetHeader("x-owner-email"); email != "" {
		return email
	}
	if email := c.GetHeader("x-user-email"); email != "" {
		return email
	}
	return c.ClientIP()
}

// UploadRateLimit is the Gin middleware enforcing the upload limit. Callers
// over the limit get a 429 and the request never reaches the handler.
func UploadRateLimit(limiter *KeyedLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(callerKey(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"detail": "Rate limit exceeded: 1 upload per minute. Please wait and try again.",
			})
			return
		}
		c.Next()
	}
}
