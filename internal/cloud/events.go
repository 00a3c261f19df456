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
// This file defines the creation event published when a triage request
// document is written, which is what triggers the analysis workflow. The
// workflow's logic is independent of the queue substrate; only this payload
// shape is shared between the publisher and the listener.
package cloud

// GetTriageEventParamName returns the well-known context key under which the
// parsed creation event is stored for all commands in a workflow run.
func GetTriageEventParamName() string {
	return "__TRIAGE_EVENT__"
}

// TriageCreatedEvent is the JSON payload published to the triage topic when
// a new request document is created.
type TriageCreatedEvent struct {
	RequestId string `json:"request_id"` // The document ID of the new triage request.
	PatientId string `json:"patient_id"` // The submitting patient.
	VideoUrl  string `json:"video_url"`  // The video locator: gs:// object, http(s) URL, or local path.
}
