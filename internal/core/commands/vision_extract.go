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
// workflows. This file defines the EXTRACTING stage: one multimodal chat
// request combining the transcript with the sampled frames, asking the model
// for structured clinical observations as JSON.
//
// The prompt carries a complete example payload (few-shot prompting) to pin
// the output structure. The model still occasionally returns malformed JSON;
// rather than failing the run, the decode fallback preserves the raw text
// and the transcript so a clinician reviewing the record loses nothing.
package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/metric"

	"github.com/healthtriage/gcp-go-video-triage/internal/cloud"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/cor"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/model"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/text"
)

// VisionExtract asks the vision model for structured symptom observations.
type VisionExtract struct {
	cor.BaseCommand
	chatModel          cloud.ChatModel
	promptTemplate     *template.Template
	detailLevel        string
	inputTokenCounter  metric.Int64Counter
	outputTokenCounter metric.Int64Counter
	retryCounter       metric.Int64Counter
}

// NewVisionExtract constructs the command. detailLevel is the image fidelity
// hint forwarded with every frame ("low", "high", or "auto").
func NewVisionExtract(
	name string,
	chatModel cloud.ChatModel,
	prompt *template.Template,
	detailLevel string) *VisionExtract {

	out := &VisionExtract{
		BaseCommand:    *cor.NewBaseCommand(name),
		chatModel:      chatModel,
		promptTemplate: prompt,
		detailLevel:    detailLevel,
	}

	out.inputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.openai.token.input", out.GetName()))
	out.outputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.openai.token.output", out.GetName()))
	out.retryCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.openai.retry", out.GetName()))

	return out
}

// IsExecutable requires the transcript and the sampled frames in the context.
func (c *VisionExtract) IsExecutable(context cor.Context) bool {
	return context != nil &&
		context.Get(GetTranscriptParamName()) != nil &&
		context.Get(GetFramesParamName()) != nil
}

// GenerateParams builds the substitution map for the extraction prompt.
func (c *VisionExtract) GenerateParams(transcript string) map[string]interface{} {
	params := make(map[string]interface{})
	params["TRANSCRIPT"] = transcript

	exampleJson, _ := json.Marshal(model.GetExampleExtraction())
	params["EXAMPLE_JSON"] = string(exampleJson)
	return params
}

// Execute sends one multimodal request and stores the decoded extraction
// under the well-known extraction key and the default output slot. A model
// request failure ends the run; a decode failure falls back to a payload
// carrying the raw response.
func (c *VisionExtract) Execute(context cor.Context) {
	transcript := context.Get(GetTranscriptParamName()).(string)
	frames := context.Get(GetFramesParamName()).([]*model.InlineImage)

	var buffer bytes.Buffer
	if err := c.promptTemplate.Execute(&buffer, c.GenerateParams(transcript)); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to execute extraction prompt template: %w", err))
		return
	}

	// One text part followed by the frames in chronological order.
	parts := make([]openai.ChatMessagePart, 0, len(frames)+1)
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: buffer.String(),
	})
	for _, frame := range frames {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    frame.DataURL,
				Detail: openai.ImageURLDetail(c.detailLevel),
			},
		})
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, MultiContent: parts},
	}

	raw, err := cloud.GenerateChatResponse(
		context.GetContext(),
		c.inputTokenCounter,
		c.outputTokenCounter,
		c.retryCounter,
		0,
		c.chatModel,
		messages)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("vision extraction request failed: %w", err))
		return
	}

	extraction := &model.TranscriptionData{}
	if err := text.DecodeLoose(raw, extraction); err != nil {
		// Keep the run alive: the raw text and the transcript still have
		// clinical value even when the structure is lost.
		extraction = &model.TranscriptionData{
			Error: fmt.Sprintf("failed to decode extraction response: %v", err),
			Raw:   text.Sanitize(raw),
		}
	}
	extraction.Transcription = transcript

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetExtractionParamName(), extraction)
	context.Add(c.GetOutputParam(), extraction)
}
