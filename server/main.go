// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// *****************************************************************************************************//
// Package main is the entry point for the highlights API server.
//
// This application sets up and runs a web server using the Gin framework. It
// provides the REST API for uploading game footage, enqueueing processing
// jobs, polling job state, and managing finished highlights. The server is
// instrumented with OpenTelemetry for logging, tracing, and metrics.
//
// The main function initializes the application's configuration, sets up
// logging and telemetry, and initializes the application state, including
// clients for Google Cloud services. It then registers the API routes and
// serves until interrupted.
//
// The heavy lifting (analysis, rendering) happens in the separate worker
// binary; this process only writes objects, documents, and envelopes.
//
// Functions:
//   - main: The main entry point of the application. It sets up the server,
//     configures routes, initializes services, and handles graceful shutdown.
//   - requestTimeout: Per-request deadline middleware for the cheap routes.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/telemetry"
)

// Upload requests stream entire game files and get a long deadline; every
// other route is a document read or a signing call and gets a short one.
const (
	uploadTimeout   = 600 * time.Second
	requestDeadline = 30 * time.Second
)

// main is the primary entry point for the application.
// It orchestrates the setup of logging, telemetry, configuration, cloud
// services, the web server, and API routes. It also handles graceful
// shutdown of the server upon receiving an interrupt signal.
func main() {
	// Initialize structured logging for the application.
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	// Create a new context that can be cancelled. This is the root context for the application.
	ctx, cancel := context.WithCancel(context.Background())
	// Defer the cancel function to be called when main exits, ensuring all child contexts are cancelled.
	defer cancel()

	// Load application configuration from TOML files.
	config := GetConfig()

	// Initialize OpenTelemetry for distributed tracing and metrics.
	_, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized")

	// Initialize the application's state, including all necessary service clients.
	InitState(ctx)
	slog.Info("Initialized State")

	// Set up the Gin web server with default middleware.
	r := gin.Default()

	// Add OpenTelemetry middleware to the Gin router to trace incoming requests.
	// This will automatically create spans for each request.
	r.Use(otelgin.Middleware("hoops-highlights-api"))

	// Configure Cross-Origin Resource Sharing (CORS) middleware.
	// Using cors.Default() provides a permissive configuration suitable for
	// development, allowing requests from any origin.
	r.Use(cors.Default())

	// Liveness endpoints outside the versioned group.
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"detail": "hoops highlights API"})
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	// Group routes under the "/api/v1" prefix.
	apiV1 := r.Group("/api/v1")
	{
		// Ingest keeps the long deadline; everything after it is bounded.
		UploadRouter(apiV1)

		read := apiV1.Group("", requestTimeout(requestDeadline))
		{
			JobsRouter(read)
			StreamRouter(read)
			HighlightsRouter(read)
			EngagementRouter(read)
			CommentsRouter(read)
			Dashboard(read)
		}
	}

	// Configure the HTTP server with the address and handler. The write
	// timeout must outlast the slowest allowed request, the upload.
	srv := &http.Server{
		Addr:         ":8080",
		Handler:      r,
		ReadTimeout:  uploadTimeout,
		WriteTimeout: uploadTimeout,
	}

	// Start the HTTP server in a separate goroutine so it doesn't block the main thread.
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to listen: ", "error", err)
		}
	}()
	slog.Info("Server Ready on port 8080")

	// Set up a channel to listen for OS interrupt signals (e.g., Ctrl+C).
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	// Block until a signal is received on the quit channel.
	<-quit
	slog.Info("Shutdown Server ...")

	// Create a context with a timeout for the graceful shutdown.
	// This gives active requests 5 seconds to complete.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	// Attempt to gracefully shut down the server.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed:", "error", err)
	}

	log.Println("Server exiting")
}

// requestTimeout attaches a deadline to the request context so a stuck
// downstream call (document store, signing, bucket metadata) cannot hold a
// handler open indefinitely.
func requestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
