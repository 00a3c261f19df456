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

package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/healthtriage/gcp-go-video-triage/internal/cloud"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/cor"
)

func TestTriageTriggerReaderParsesEvent(t *testing.T) {
	cmd := NewTriageTriggerReader("read-triage-trigger")

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, `{
  "request_id": "req-1",
  "patient_id": "p-1",
  "video_url": "gs://bucket/v.mp4"
}`)

	cmd.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	event := chainCtx.Get(cloud.GetTriageEventParamName()).(*cloud.TriageCreatedEvent)
	assert.Equal(t, "req-1", event.RequestId)
	assert.Equal(t, "p-1", event.PatientId)
	assert.Equal(t, "gs://bucket/v.mp4", event.VideoUrl)
}

func TestTriageTriggerReaderRejectsMalformedPayload(t *testing.T) {
	cmd := NewTriageTriggerReader("read-triage-trigger")

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, "not json at all")

	cmd.Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
}
