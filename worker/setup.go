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

// Package main contains the setup and initialization logic for the worker's
// state: configuration, Google Cloud service clients, and the Pub/Sub
// listener carrying job envelopes.
//
// Functions:
//   - SetupOS: Configures necessary environment variables for the application,
//     pointing to the correct configuration files.
//   - GetConfig: A singleton function that loads the application's configuration
//     from TOML files. It ensures the configuration is loaded only once.
//   - InitState: Creates all service clients and starts the job listener.
package main

import (
	"context"
	"log"
	"os"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/cloud"
)

// JobQueueName is the logical name of the topic/subscription pair carrying
// job envelopes, as keyed in the [topic_subscriptions] config table.
const JobQueueName = "JobQueue"

// ShotDetectorModel is the logical name of the agent model configuration the
// analyzing pipelines use, as keyed in the [agent_models] config table.
const ShotDetectorModel = "shot-detector"

// StateManager holds the shared dependencies of the worker process.
type StateManager struct {
	config *cloud.Config
	cloud  *cloud.ServiceClients
}

// state is a package-level variable that holds the single instance of StateManager.
var state = &StateManager{}

// SetupOS sets the necessary environment variables that the configuration
// loader uses to find the correct TOML files.
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
//
// Outputs:
//   - *cloud.Config: A pointer to the loaded application configuration struct.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup os environment: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		if err := config.Validate(); err != nil {
			log.Fatalf("invalid configuration: %v\n", err)
		}
		state.config = config
	}
	return state.config
}

// InitState initializes the worker's state: it creates the Google Cloud
// service clients and attaches the processing pipelines to the job
// subscription.
//
// Inputs:
//   - ctx: The root context.Context for the process, used for managing the
//     lifecycle of client connections and the listener.
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

	// Configure and start the Pub/Sub listener serving job envelopes.
	SetupListeners(config, cloudClients, ctx)
}
