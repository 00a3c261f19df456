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

// This file provides the shared setup for the workflow test suite. The
// workflows under test run entirely against in-memory fakes, so TestMain only
// initializes logging and telemetry plumbing.
package workflow

import (
	"os"
	"testing"

	"go.opentelemetry.io/contrib/bridges/otelslog"

	"github.com/healthtriage/gcp-go-video-triage/internal/telemetry"
)

const tName = "github.com/healthtriage/gcp-go-video-triage/tests/workflow"

var logger = otelslog.NewLogger(tName)

func TestMain(m *testing.M) {
	telemetry.SetupLogging()
	logger.Info("completed workflow test setup")
	os.Exit(m.Run())
}
