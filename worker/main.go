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
// Package main is the entry point for the highlights worker.
//
// The worker subscribes to the job topic and runs the processing pipelines:
// download the source, analyze it with the configured Vertex AI model, cut
// and join the highlight clips with ffmpeg, upload the artifacts, and commit
// the job document. Which pipeline runs is decided per message by the mode
// dispatcher.
//
// The process holds no HTTP surface. It initializes configuration, logging,
// and telemetry the same way the API server does, attaches the dispatcher to
// the job subscription, and serves messages until interrupted.
//
// Functions:
//   - main: The main entry point. Sets up state, starts the listener, and
//     handles graceful shutdown.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/telemetry"
)

// main is the primary entry point for the worker process.
// It orchestrates the setup of logging, telemetry, configuration, and cloud
// services, starts the Pub/Sub listener, and blocks until an interrupt
// signal arrives.
func main() {
	// Initialize structured logging for the application.
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	// The root context. Cancelling it stops the Pub/Sub receive loop, which
	// is the worker's graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
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

	// Initialize the worker state and start listening for job envelopes.
	InitState(ctx)
	slog.Info("Worker ready")

	// Block until a signal is received, then let the deferred cancel stop
	// the listener.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Worker ...")

	log.Println("Worker exiting")
}
