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

// Package main contains the setup and initialization logic for the API
// server's state. This file is responsible for creating and managing a
// centralized state manager that holds all shared dependencies, such as
// configuration, Google Cloud service clients, and the application-level
// services for jobs, media, comments, and publishing.
//
// The API binary holds no Pub/Sub listeners; consuming the job topic is the
// worker binary's responsibility. The API only publishes to it.
//
// Functions:
//   - SetupOS: Configures necessary environment variables for the application,
//     pointing to the correct configuration files.
//   - GetConfig: A singleton function that loads the application's configuration
//     from TOML files. It ensures the configuration is loaded only once.
//   - InitState: The core initialization function that creates all service
//     clients and configures the application services the HTTP handlers use.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/cloud"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/highlights"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/media"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/services"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/workflow"
)

// JobQueueName is the logical name of the topic/subscription pair carrying
// job envelopes, as keyed in the [topic_subscriptions] config table.
const JobQueueName = "JobQueue"

// StateManager holds all the shared dependencies for the API server, acting
// as a centralized container for service clients and configurations. This
// avoids the need for scattered globals and makes dependency management
// cleaner.
type StateManager struct {
	config         *cloud.Config
	cloud          *cloud.ServiceClients
	jobService     *services.JobService
	mediaService   *services.MediaService
	commentService *services.CommentService
	publisher      *services.PublisherService
	analytics      *services.AnalyticsService
	toolkit        *media.Toolkit
	planner        *highlights.Planner
	uploadLimiter  *KeyedLimiter
}

// state is a package-level variable that holds the single instance of StateManager.
var state = &StateManager{}

// SetupOS sets the necessary environment variables that the configuration
// loader uses to find the correct TOML files.
//
// This function sets the prefix for the configuration directory and specifies
// the runtime environment (e.g., "local", "test", "prod"), allowing for
// environment-specific overrides of the base configuration.
//
// Outputs:
//   - error: An error if setting any of the environment variables fails.
func SetupOS() (err error) {
	// Set the directory where configuration files are located.
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	// Set the current runtime environment to "local". The config loader will
	// look for a ".env.local.toml" file to override base settings.
	err = os.Setenv(cloud.EnvConfigRuntime, "local")
	return err
}

// GetConfig provides a singleton instance of the application configuration.
// It ensures that the configuration is loaded from the file system only once.
// On the first call, it sets up the OS environment and loads the configuration
// from the TOML files. Subsequent calls return the cached configuration.
//
// Outputs:
//   - *cloud.Config: A pointer to the loaded application configuration struct.
func GetConfig() *cloud.Config {
	// If the config has not been loaded yet...
	if state.config == nil {
		// Set up the environment variables required for config loading.
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup os environment: %v\n", err)
		}
		// Create a new, empty config struct.
		config := cloud.NewConfig()
		// Load the configuration from the .toml files into the struct.
		cloud.LoadConfig(&config)
		// Fail at startup rather than on the first request.
		if err := config.Validate(); err != nil {
			log.Fatalf("invalid configuration: %v\n", err)
		}
		// Store the loaded config in the state manager.
		state.config = config
	}
	// Return the cached config.
	return state.config
}

// InitState initializes the entire API server state.
// It orchestrates the creation of all necessary services and clients based on
// the application configuration and wires them together.
//
// Inputs:
//   - ctx: The root context.Context for the application, used for managing
//     the lifecycle of client connections.
//
// This function performs the following steps:
//  1. Loads the application configuration.
//  2. Initializes all Google Cloud service clients (Storage, Firestore,
//     Pub/Sub, BigQuery, IAM).
//  3. Instantiates the application services the handlers depend on.
//  4. Builds the per-key upload rate limiter.
func InitState(ctx context.Context) {
	// Get the application configuration.
	config := GetConfig()

	// Initialize all the base Google Cloud service clients.
	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		panic(err)
	}

	// Store the initialized clients in the global state.
	state.cloud = cloudClients

	// Initialize the data access services shared with the worker tier.
	state.jobService = workflow.NewJobService(config, cloudClients)
	state.mediaService = workflow.NewMediaService(config, cloudClients)
	state.analytics = workflow.NewAnalyticsService(config, cloudClients)
	state.commentService = &services.CommentService{
		FirestoreClient: cloudClients.FirestoreClient,
		Collection:      config.Firestore.CommentsCollection,
	}

	// The publisher is the API's only write path to the job topic.
	queue := config.TopicSubscriptions[JobQueueName]
	state.publisher = &services.PublisherService{
		PubsubClient: cloudClients.PubsubClient,
		TopicName:    queue.Topic,
		Timeout:      time.Duration(queue.TimeoutInSeconds) * time.Second,
	}

	// The listing duration fallback probes rendered files, so the API keeps
	// its own toolkit and planner alongside the worker's.
	state.toolkit = media.NewToolkit(config.Worker.FfmpegPath, config.Worker.FfprobePath)
	state.planner = workflow.NewPlanner(config)

	// One upload per minute per user or client address.
	state.uploadLimiter = NewKeyedLimiter(time.Minute, 1)
}
