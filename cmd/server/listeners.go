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

// Package main contains the logic for setting up and starting the Pub/Sub
// message listeners that trigger the triage workflows.
package main

import (
	"context"

	"github.com/healthtriage/gcp-go-video-triage/internal/cloud"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/services"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/workflow"
)

// SetupListeners attaches the request workflow to the creation-event
// subscription and starts receiving. The per-message deadline comes from the
// subscription configuration so a stalled model call cannot pin a request in
// PROCESSING forever.
func SetupListeners(config *cloud.Config, cloudClients *cloud.ServiceClients, ctx context.Context) {
	store := services.NewFirestoreTriageService(
		cloudClients.FirestoreClient,
		config.Firestore.RequestCollection)

	analysis := workflow.NewTriageAnalysisWorkflow(config, cloudClients, "vision", "default", nil)
	requestWorkflow := workflow.NewTriageRequestWorkflow(store, analysis)

	listener := cloudClients.PubSubListeners["TriageCreated"]
	listener.SetCommand(requestWorkflow)
	listener.SetTimeout(config.TopicSubscriptions["TriageCreated"].TimeoutInSeconds)
	listener.Listen(ctx)
}
