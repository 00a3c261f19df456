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

package main

import (
	"context"
	"log"
	"os"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"github.com/healthtriage/gcp-go-video-triage/internal/cloud"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/citations"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/services"
)

// StateManager holds the shared components for the application.
type StateManager struct {
	config        *cloud.Config
	cloud         *cloud.ServiceClients
	triageService services.TriageStore
	videoService  *services.VideoService
	searcher      citations.Searcher
}

var state = &StateManager{}

// SetupOS points the config loader at the local configs directory.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "local")
	return err
}

// GetConfig loads the application configuration once and caches it.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup env: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(config)
		state.config = config
	}
	return state.config
}

// InitState initializes the service clients, the services behind the API
// surface, and the Pub/Sub listeners.
func InitState(ctx context.Context) {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		panic(err)
	}

	iamClient, err := credentials.NewIamCredentialsClient(ctx)
	if err != nil {
		panic(err)
	}
	cloudClients.IAMClient = iamClient

	state.cloud = cloudClients

	state.triageService = services.NewFirestoreTriageService(
		cloudClients.FirestoreClient,
		config.Firestore.RequestCollection)

	state.videoService = services.NewVideoService(
		cloudClients.StorageClient,
		cloudClients.IAMClient,
		config.Application.SignerServiceAccountEmail)

	state.searcher = citations.NewCustomSearchService(
		cloudClients.SearchService,
		config.CitationSearch.EngineId)

	SetupListeners(config, cloudClients, ctx)
}
