// Copyright 2025 HealthTriage Authors
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
// loaded from TOML files. It provides a structured way to manage settings for
// Google Cloud services, OpenAI models, Pub/Sub topics, frame sampling, and
// prompt templates.
package cloud

// BigQueryDataSource represents the configuration for the analytics sink.
type BigQueryDataSource struct {
	DatasetName    string `toml:"dataset"`         // The name of the BigQuery dataset.
	AnalyticsTable string `toml:"analytics_table"` // The table receiving one row per finished analysis run.
}

// FirestoreDataSource represents the configuration for the triage record store.
type FirestoreDataSource struct {
	RequestCollection string `toml:"request_collection"` // The collection holding TriageRequest documents.
}

// PromptTemplates holds the templates for the two staged model prompts.
type PromptTemplates struct {
	ExtractionPrompt string `toml:"extraction"` // The template for the vision extraction request.
	ReportPrompt     string `toml:"report"`     // The template for the advice report request.
}

// OpenAIChatModel represents the configuration for one chat model, including
// the request budget the quota-aware wrapper enforces.
type OpenAIChatModel struct {
	Model       string  `toml:"model"`        // The model name (e.g., "gpt-4o").
	Temperature float32 `toml:"temperature"`  // The sampling temperature.
	MaxTokens   int     `toml:"max_tokens"`   // The maximum number of completion tokens.
	RateLimit   int     `toml:"rate_limit"`   // Allowed request burst; refilled once per second.
	DetailLevel string  `toml:"detail_level"` // Vision detail level for inline images ("high", "low", "auto").
}

// OpenAITranscriptionModel represents the configuration for the audio
// transcription model.
type OpenAITranscriptionModel struct {
	Model     string `toml:"model"`      // The transcription model name (e.g., "whisper-1").
	RateLimit int    `toml:"rate_limit"` // Allowed request burst; refilled once per second.
}

// TopicSubscription represents the configuration for a Pub/Sub subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`               // The subscription ID.
	DeadLetterTopic  string `toml:"dead_letter_topic"`  // The dead-letter topic for the subscription.
	TimeoutInSeconds int    `toml:"timeout_in_seconds"` // The per-run deadline applied to triggered workflows.
}

// Storage represents the configuration for video storage.
type Storage struct {
	VideoBucket string `toml:"video_bucket"` // The bucket patient videos are uploaded to.
}

// Sampling represents the frame sampling parameters for the pipeline.
type Sampling struct {
	FrameIntervalSeconds float64 `toml:"frame_interval_seconds"` // Width of each sampling bucket.
	MaxFrames            int     `toml:"max_frames"`             // Upper bound on sampled frames per video.
	FFmpegPath           string  `toml:"ffmpeg_path"`            // Path to the ffmpeg binary.
	FFprobePath          string  `toml:"ffprobe_path"`           // Path to the ffprobe binary.
}

// CitationSearch represents the configuration for the citation retrieval aid.
type CitationSearch struct {
	EngineId   string `toml:"engine_id"`   // The programmable search engine ID.
	MaxResults int    `toml:"max_results"` // Result cap per query.
}

// Config represents the overall configuration for the application, loaded
// from TOML files. It is the root container for all other configuration
// structs.
type Config struct {
	Application struct {
		Name                      string `toml:"name"`                         // The application name, used as the telemetry service name.
		GoogleProjectId           string `toml:"google_project_id"`            // The Google Cloud project ID.
		ThreadPoolSize            int    `toml:"thread_pool_size"`             // The worker pool size for frame preprocessing.
		SignerServiceAccountEmail string `toml:"signer_service_account_email"` // The service account used for signing playback URLs.
		OpenAIAPIKeyEnv           string `toml:"openai_api_key_env"`           // The environment variable holding the OpenAI API key.
	} `toml:"application"`
	Storage             Storage                             `toml:"storage"`               // Video storage configuration.
	Firestore           FirestoreDataSource                 `toml:"firestore"`             // Triage record store configuration.
	BigQueryDataSource  BigQueryDataSource                  `toml:"big_query_data_source"` // Analytics sink configuration.
	PromptTemplates     PromptTemplates                     `toml:"prompt_templates"`      // Staged prompt templates.
	Sampling            Sampling                            `toml:"sampling"`              // Frame sampling parameters.
	CitationSearch      CitationSearch                      `toml:"citation_search"`       // Citation retrieval configuration.
	Topics              map[string]string                   `toml:"topics"`                // Pub/Sub publish topics keyed by a logical name (e.g., "TriageCreated").
	TopicSubscriptions  map[string]TopicSubscription        `toml:"topic_subscriptions"`   // Pub/Sub subscriptions keyed by a logical name (e.g., "TriageCreated").
	ChatModels          map[string]OpenAIChatModel          `toml:"chat_models"`           // Chat models keyed by a logical name (e.g., "vision", "report").
	TranscriptionModels map[string]OpenAITranscriptionModel `toml:"transcription_models"`  // Transcription models keyed by a logical name (e.g., "default").
}

// NewConfig creates a new, initialized Config instance. The maps must be
// initialized before the TOML loader populates them.
func NewConfig() *Config {
	return &Config{
		Topics:              make(map[string]string),
		TopicSubscriptions:  make(map[string]TopicSubscription),
		ChatModels:          make(map[string]OpenAIChatModel),
		TranscriptionModels: make(map[string]OpenAITranscriptionModel),
	}
}
