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

// Package cloud provides components for interacting with external services.
// This file initializes and holds every client the application talks through.
// NewCloudServiceClients runs once at startup and bundles the results into a
// single ServiceClients container that is passed by reference into the
// workflows and services; nothing else in the codebase constructs clients.
package cloud

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/firestore"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	openai "github.com/sashabaranov/go-openai"
	customsearch "google.golang.org/api/customsearch/v1"
)

// ServiceClients is the dependency container for all external connections.
type ServiceClients struct {
	StorageClient   *storage.Client                   // Client for Google Cloud Storage.
	PubsubClient    *pubsub.Client                    // Client for Google Cloud Pub/Sub.
	FirestoreClient *firestore.Client                 // Client for the triage record store.
	BigQueryClient  *bigquery.Client                  // Client for the analytics sink.
	IAMClient       *credentials.IamCredentialsClient // Client for IAM, used to sign playback URLs.
	OpenAIClient    *openai.Client                    // Client for the transcription and chat endpoints.
	SearchService   *customsearch.Service             // Client for the citation web search.
	PubSubListeners map[string]*PubSubListener        // Active listeners keyed by logical name from config.
	ChatModels      map[string]*QuotaAwareChatModel   // Rate-limited chat models keyed by logical name.
	Transcribers    map[string]*WhisperTranscriber    // Rate-limited transcription models keyed by logical name.
}

// Close releases all active client connections. Useful in tests and for
// controlled shutdowns.
func (c *ServiceClients) Close() {
	_ = c.StorageClient.Close()
	_ = c.PubsubClient.Close()
	_ = c.FirestoreClient.Close()
	_ = c.BigQueryClient.Close()
}

// NewCloudServiceClients initializes every external client from the provided
// configuration. Pub/Sub listeners are created without a command; workflows
// are attached later during server setup.
func NewCloudServiceClients(ctx context.Context, config *Config) (cloud *ServiceClients, err error) {
	sc, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}

	pc, err := pubsub.NewClient(ctx, config.Application.GoogleProjectId)
	if err != nil {
		return nil, err
	}

	fc, err := firestore.NewClient(ctx, config.Application.GoogleProjectId)
	if err != nil {
		return nil, err
	}

	bc, err := bigquery.NewClient(ctx, config.Application.GoogleProjectId)
	if err != nil {
		return nil, err
	}

	apiKey := os.Getenv(config.Application.OpenAIAPIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key not set in environment variable %s", config.Application.OpenAIAPIKeyEnv)
	}
	oc := openai.NewClient(apiKey)

	ss, err := customsearch.NewService(ctx)
	if err != nil {
		return nil, err
	}

	subscriptions := make(map[string]*PubSubListener)
	for subKey := range config.TopicSubscriptions {
		values := config.TopicSubscriptions[subKey]
		actual, err := NewPubSubListener(pc, values.Name, nil)
		if err != nil {
			return nil, err
		}
		subscriptions[subKey] = actual
	}

	chatModels := make(map[string]*QuotaAwareChatModel)
	for key := range config.ChatModels {
		chatModels[key] = NewQuotaAwareChatModel(oc, config.ChatModels[key])
	}

	transcribers := make(map[string]*WhisperTranscriber)
	for key := range config.TranscriptionModels {
		transcribers[key] = NewWhisperTranscriber(oc, config.TranscriptionModels[key])
	}

	cloud = &ServiceClients{
		StorageClient:   sc,
		PubsubClient:    pc,
		FirestoreClient: fc,
		BigQueryClient:  bc,
		OpenAIClient:    oc,
		SearchService:   ss,
		PubSubListeners: subscriptions,
		ChatModels:      chatModels,
		Transcribers:    transcribers,
	}

	return cloud, err
}
