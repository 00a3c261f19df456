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
// workflows. This file defines the TRANSCRIBING stage: sending the fetched
// video's audio track to the hosted transcription model. Transcription
// failures are fatal to the run because both downstream model stages build
// their prompts around the transcript.
package commands

import (
	"fmt"

	"github.com/healthtriage/gcp-go-video-triage/internal/cloud"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/cor"
)

// Transcribe produces the spoken-word transcript of the fetched video.
type Transcribe struct {
	cor.BaseCommand
	transcriber cloud.Transcriber
}

// NewTranscribe constructs the command around a rate-limited transcription
// model.
func NewTranscribe(name string, transcriber cloud.Transcriber) *Transcribe {
	return &Transcribe{
		BaseCommand: *cor.NewBaseCommand(name),
		transcriber: transcriber,
	}
}

// IsExecutable requires the fetched video's local path in the context.
func (c *Transcribe) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(GetVideoPathParamName()) != nil
}

// Execute transcribes the video file and stores the transcript under the
// well-known transcript key and the default output slot.
func (c *Transcribe) Execute(context cor.Context) {
	videoPath := context.Get(GetVideoPathParamName()).(string)

	transcript, err := c.transcriber.Transcribe(context.GetContext(), videoPath)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("transcription failed: %w", err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetTranscriptParamName(), transcript)
	context.Add(c.GetOutputParam(), transcript)
}
