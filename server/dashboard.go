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

// Package main contains the dashboard routes, backed by the analytics rows
// the worker appends on every completed run.
//
// Functions:
//   - Dashboard: Sets up the route group for statistics endpoints.
package main

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Dashboard configures the statistics routes. The counters come from the
// BigQuery analytics table, not from the document store, so a dashboard
// refresh never competes with job reads.
//
// Inputs:
//   - r: A *gin.RouterGroup to which the new "/stats" route group will be added.
//
// This function defines the following endpoints:
//   - GET /stats?days=: The completion rollup for the reporting window.
//   - GET /stats/owners?days=&count=: The most active owners.
func Dashboard(r *gin.RouterGroup) {
	stats := r.Group("/stats")
	{
		stats.GET("", func(c *gin.Context) {
			if state.analytics == nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "analytics is not configured"})
				return
			}
			days := clampQueryInt(c, "days", 30, 1, 365)
			out, err := state.analytics.GetCompletionStats(c, days)
			if err != nil {
				slog.Error("dashboard stats query failed", "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "stats query failed"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"ok": true, "days": days, "stats": out})
		})

		stats.GET("/owners", func(c *gin.Context) {
			if state.analytics == nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "analytics is not configured"})
				return
			}
			days := clampQueryInt(c, "days", 30, 1, 365)
			count := clampQueryInt(c, "count", 10, 1, 100)
			owners, err := state.analytics.GetTopOwners(c, days, count)
			if err != nil {
				slog.Error("dashboard owners query failed", "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "stats query failed"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"ok": true, "days": days, "owners": owners})
		})
	}
}

// clampQueryInt parses an integer query parameter and clamps it to the
// inclusive range, falling back to the default on absence or garbage.
func clampQueryInt(c *gin.Context, name string, def, min, max int) int {
	v, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
