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

// Package commands provides the concrete pipeline steps of the triage
// workflows. This file defines the entry command of the request workflow: it
// parses the raw Pub/Sub creation-event JSON into a typed event so the rest
// of the chain never touches the wire format.
package commands

import (
	"encoding/json"
	"fmt"

	"github.com/healthtriage/gcp-go-video-triage/internal/cloud"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/cor"
)

// TriageTriggerReader parses a triage creation event from the raw message
// payload.
type TriageTriggerReader struct {
	cor.BaseCommand
}

// NewTriageTriggerReader constructs the command.
func NewTriageTriggerReader(name string) *TriageTriggerReader {
	return &TriageTriggerReader{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute unmarshals the event JSON and stores the typed event under the
// well-known key and the default output slot.
func (c *TriageTriggerReader) Execute(context cor.Context) {
	in := context.Get(c.GetInputParam()).(string)

	var out cloud.TriageCreatedEvent
	err := json.Unmarshal([]byte(in), &out)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to unmarshal triage creation event: %w", err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)

	context.Add(cloud.GetTriageEventParamName(), &out)
	context.Add(c.GetOutputParam(), &out)
}
