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

// Package test provides shared helpers and canned payloads for the test
// suite: a cached test configuration and sample creation events for the
// triage workflows.
package test

import (
	"log"
	"os"
	"testing"

	"github.com/healthtriage/gcp-go-video-triage/internal/cloud"
)

// StateManager caches the test configuration so the TOML files are loaded
// once per test run.
type StateManager struct {
	config *cloud.Config
}

var state = &StateManager{}

// HandleErr fails the test when err is non-nil.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("Error reading config file: %v", err)
	}
}

// GetTestTriageCreatedMessageText returns the JSON payload of a creation
// event as published by the intake API.
func GetTestTriageCreatedMessageText() string {
	return `{
  "request_id": "req-test-0001",
  "patient_id": "patient-42",
  "video_url": "gs://healthtriage-test-videos/req-test-0001.mp4"
}`
}

// GetTestTriageCreatedMessageWithoutVideo returns a creation event missing
// its video locator, the malformed-submission case the workflow must ignore.
func GetTestTriageCreatedMessageWithoutVideo() string {
	return `{
  "request_id": "req-test-0002",
  "patient_id": "patient-42",
  "video_url": ""
}`
}

// SetupOS points the configuration loader at the test TOML files.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "test")
	return err
}

// GetConfig is the singleton accessor for the test configuration.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(config)
		state.config = config
	}
	return state.config
}
