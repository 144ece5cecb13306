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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files. It provides a structured way to manage settings
// for Google Cloud services, AI models, Pub/Sub topics, prompt templates,
// and the local media tools the worker shells out to.
//
// Structs:
//   - Storage: Configuration for the raw-upload and output GCS buckets.
//   - Firestore: Collection names for the job and comment documents.
//   - BigQueryDataSource: Configuration for the analytics dataset and table.
//   - PromptTemplates: Text templates for prompts sent to GenAI models.
//   - VertexAiLLMModel: Configuration for a Vertex AI Large Language Model.
//   - TopicSubscription: Configuration for a single Pub/Sub topic and subscription.
//   - Worker: Clip-planning defaults and ffmpeg/ffprobe binary paths.
//   - Config: The top-level struct that aggregates all other configuration structs.
//
// Functions:
//   - NewConfig: A constructor that initializes a new Config object with empty maps.
//   - Validate: Fail-fast startup check for the settings both tiers require.
package cloud

import (
	"fmt"

	"google.golang.org/genai"
)

// DefaultSafetySettings defines the default content safety thresholds for
// GenAI models. Game footage regularly trips the dangerous-content filter on
// hard fouls, so all categories pass through unblocked.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// Storage represents the configuration for the GCS buckets.
type Storage struct {
	RawBucket             string `toml:"raw_bucket"`               // The bucket for full-game source uploads.
	OutputBucket          string `toml:"output_bucket"`            // The bucket for rendered highlights and analysis artifacts.
	DeleteSourceOnSuccess bool   `toml:"delete_source_on_success"` // Whether the worker deletes the raw upload after a successful run.
}

// Firestore holds the collection names for the document store.
type Firestore struct {
	JobsCollection     string `toml:"jobs_collection"`     // The collection holding Job documents, keyed by job id.
	CommentsCollection string `toml:"comments_collection"` // The collection holding viewer comments.
}

// BigQueryDataSource represents the configuration for the analytics sink.
type BigQueryDataSource struct {
	DatasetName string `toml:"dataset"`    // The name of the BigQuery dataset.
	JobsTable   string `toml:"jobs_table"` // The table receiving one row per completed job.
}

// PromptTemplates holds the templates for different types of prompts.
type PromptTemplates struct {
	// ShotEvents is the shot-detection prompt. It carries a %s verb that
	// receives the video duration in H:MM:SS form.
	ShotEvents string `toml:"shot_events"`
}

// VertexAiLLMModel represents the configuration for a Vertex AI large language model (LLM).
type VertexAiLLMModel struct {
	Model              string  `toml:"model"`               // The name of the Vertex AI LLM.
	SystemInstructions string  `toml:"system_instructions"` // The system instructions for the LLM.
	Temperature        float32 `toml:"temperature"`         // The temperature parameter for the LLM.
	TopP               float32 `toml:"top_p"`               // The top_p parameter for the LLM.
	TopK               float32 `toml:"top_k"`               // The top_k parameter for the LLM.
	MaxTokens          int32   `toml:"max_tokens"`          // The maximum number of tokens for the LLM output.
	OutputFormat       string  `toml:"output_format"`       // The desired output format for the LLM.
	RateLimit          int     `toml:"rate_limit"`          // The rate limit for the LLM in requests per second.
}

// TopicSubscription represents the configuration for a Pub/Sub topic and its subscription.
type TopicSubscription struct {
	Topic            string `toml:"topic"`              // The topic the API publishes job envelopes to.
	Name             string `toml:"name"`               // The name of the Pub/Sub subscription the worker pulls from.
	DeadLetterTopic  string `toml:"dead_letter_topic"`  // The name of the dead-letter topic for the subscription.
	TimeoutInSeconds int    `toml:"timeout_in_seconds"` // The publish timeout in seconds.
}

// Worker holds the clip-planning defaults and the paths to the local media
// tool binaries.
type Worker struct {
	ClipDuration int    `toml:"clip_duration"` // Seconds of footage kept per made shot.
	PreRoll      int    `toml:"pre_roll"`      // Seconds of lead-in before each made shot.
	MergeGap     int    `toml:"merge_gap"`     // Maximum gap in seconds between windows that still merge.
	FfmpegPath   string `toml:"ffmpeg_path"`   // Path to the ffmpeg binary; empty resolves via PATH.
	FfprobePath  string `toml:"ffprobe_path"`  // Path to the ffprobe binary; empty resolves via PATH.
}

// Config represents the overall configuration for the application, loaded from
// TOML files. It acts as the root container for all other configuration structs.
type Config struct {
	// Application holds general application settings.
	Application struct {
		Name                      string `toml:"name"`                         // The name of the application.
		GoogleProjectId           string `toml:"google_project_id"`            // The Google Cloud project ID.
		GoogleLocation            string `toml:"location"`                     // The Google Cloud location.
		ThreadPoolSize            int    `toml:"thread_pool_size"`             // The size of the worker pool for parallel clip extraction.
		SignerServiceAccountEmail string `toml:"signer_service_account_email"` // The service account email used for signing GCS URLs.
	} `toml:"application"`
	Storage            Storage                      `toml:"storage"`
	Firestore          Firestore                    `toml:"firestore"`
	BigQueryDataSource BigQueryDataSource           `toml:"big_query_data_source"`
	PromptTemplates    PromptTemplates              `toml:"prompt_templates"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"` // Keyed by a logical name (e.g., "JobQueue").
	AgentModels        map[string]VertexAiLLMModel  `toml:"agent_models"`        // Keyed by a logical name (e.g., "shot-detector").
	Worker             Worker                       `toml:"worker"`
}

// NewConfig is a constructor function that creates a new, initialized Config
// instance. The maps must be initialized before the TOML loader populates them.
//
// Outputs:
//   - *Config: A pointer to a new Config struct with its map fields initialized.
func NewConfig() *Config {
	return &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
		AgentModels:        make(map[string]VertexAiLLMModel),
	}
}

// Validate checks the settings both tiers need before any client is built, so
// a misconfigured deployment fails at startup instead of on the first job.
//
// Outputs:
//   - error: The first missing setting found, or nil when the config is usable.
func (c *Config) Validate() error {
	if c.Application.GoogleProjectId == "" {
		return fmt.Errorf("missing application.google_project_id")
	}
	if c.Storage.RawBucket == "" {
		return fmt.Errorf("missing storage.raw_bucket")
	}
	if c.Storage.OutputBucket == "" {
		return fmt.Errorf("missing storage.output_bucket")
	}
	if c.Firestore.JobsCollection == "" {
		return fmt.Errorf("missing firestore.jobs_collection")
	}
	if len(c.TopicSubscriptions) == 0 {
		return fmt.Errorf("no topic_subscriptions configured")
	}
	for key, sub := range c.TopicSubscriptions {
		if sub.Topic == "" {
			return fmt.Errorf("topic_subscriptions.%s missing topic", key)
		}
	}
	return nil
}
