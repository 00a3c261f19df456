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
// workflows. This file defines the REPORTING stage: a text-only chat request
// that turns the structured extraction into patient-facing guidance. The
// extraction is serialized verbatim into the prompt so the model advises on
// exactly what was observed, including any decode-fallback raw text.
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

// ReportGenerate asks the chat model for a patient guidance report.
type ReportGenerate struct {
	cor.BaseCommand
	chatModel          cloud.ChatModel
	promptTemplate     *template.Template
	inputTokenCounter  metric.Int64Counter
	outputTokenCounter metric.Int64Counter
	retryCounter       metric.Int64Counter
}

// NewReportGenerate constructs the command.
func NewReportGenerate(
	name string,
	chatModel cloud.ChatModel,
	prompt *template.Template) *ReportGenerate {

	out := &ReportGenerate{
		BaseCommand:    *cor.NewBaseCommand(name),
		chatModel:      chatModel,
		promptTemplate: prompt,
	}

	out.inputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.openai.token.input", out.GetName()))
	out.outputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.openai.token.output", out.GetName()))
	out.retryCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.openai.retry", out.GetName()))

	return out
}

// IsExecutable requires the decoded extraction in the context.
func (c *ReportGenerate) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(GetExtractionParamName()) != nil
}

// GenerateParams builds the substitution map for the report prompt.
func (c *ReportGenerate) GenerateParams(extraction *model.TranscriptionData) (map[string]interface{}, error) {
	extractionJson, err := json.Marshal(extraction)
	if err != nil {
		return nil, err
	}

	params := make(map[string]interface{})
	params["EXTRACTION_JSON"] = string(extractionJson)

	exampleJson, _ := json.Marshal(model.GetExampleReport())
	params["EXAMPLE_JSON"] = string(exampleJson)
	return params, nil
}

// Execute sends the report request and stores the decoded report under the
// well-known report key and the default output slot. A model request failure
// ends the run; a decode failure falls back to a payload carrying the raw
// response.
func (c *ReportGenerate) Execute(context cor.Context) {
	extraction := context.Get(GetExtractionParamName()).(*model.TranscriptionData)

	params, err := c.GenerateParams(extraction)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to serialize extraction for report prompt: %w", err))
		return
	}

	var buffer bytes.Buffer
	if err := c.promptTemplate.Execute(&buffer, params); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to execute report prompt template: %w", err))
		return
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: buffer.String()},
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
		context.AddError(c.GetName(), fmt.Errorf("report generation request failed: %w", err))
		return
	}

	report := &model.AdviceReport{}
	if err := text.DecodeLoose(raw, report); err != nil {
		report = &model.AdviceReport{
			Error: fmt.Sprintf("failed to decode report response: %v", err),
			Raw:   text.Sanitize(raw),
		}
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetReportParamName(), report)
	context.Add(c.GetOutputParam(), report)
}
