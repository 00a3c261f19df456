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

package test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestGetConfigAppliesTestOverrides loads the real configuration files and
// verifies the test runtime overlay wins over the base file. The config
// directory is resolved relative to the repository root, as it is for the
// server binary.
func TestGetConfigAppliesTestOverrides(t *testing.T) {
	wd, err := os.Getwd()
	HandleErr(err, t)
	HandleErr(os.Chdir(filepath.Join("..", "..")), t)
	defer func() { _ = os.Chdir(wd) }()

	config := GetConfig()

	// Overlay values from .env.test.toml.
	assert.Equal(t, "healthtriage-test", config.Application.GoogleProjectId)
	assert.Equal(t, 2, config.Application.ThreadPoolSize)
	assert.Equal(t, "triage_requests_test", config.Firestore.RequestCollection)
	assert.Equal(t, "triage-created-test-sub", config.TopicSubscriptions["TriageCreated"].Name)
	assert.Equal(t, 120, config.TopicSubscriptions["TriageCreated"].TimeoutInSeconds)

	// Base values the overlay does not touch survive.
	assert.Equal(t, "video-triage-server", config.Application.Name)
	assert.Equal(t, "whisper-1", config.TranscriptionModels["default"].Model)
	assert.Equal(t, "gpt-4o", config.ChatModels["vision"].Model)
}
