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
// workflows. This file defines the final assembly stage: folding the
// extraction and the report into one AnalysisResult. The error-shaped result
// for failed runs is built by the workflow, not here; this command only runs
// when every prior stage succeeded.
package commands

import (
	"github.com/healthtriage/gcp-go-video-triage/internal/cloud"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/cor"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/model"
)

// ResultAssembly folds the pipeline artifacts into a completed
// AnalysisResult.
type ResultAssembly struct {
	cor.BaseCommand
}

// NewResultAssembly constructs the command.
func NewResultAssembly(name string) *ResultAssembly {
	return &ResultAssembly{BaseCommand: *cor.NewBaseCommand(name)}
}

// IsExecutable requires the triage event, the extraction, and the report in
// the context.
func (c *ResultAssembly) IsExecutable(context cor.Context) bool {
	return context != nil &&
		context.Get(cloud.GetTriageEventParamName()) != nil &&
		context.Get(GetExtractionParamName()) != nil &&
		context.Get(GetReportParamName()) != nil
}

// Execute stores the assembled result under the well-known analysis result
// key and the default output slot.
func (c *ResultAssembly) Execute(context cor.Context) {
	event := context.Get(cloud.GetTriageEventParamName()).(*cloud.TriageCreatedEvent)
	extraction := context.Get(GetExtractionParamName()).(*model.TranscriptionData)
	report := context.Get(GetReportParamName()).(*model.AdviceReport)

	result := &model.AnalysisResult{
		RequestId:         event.RequestId,
		TranscriptionData: extraction,
		AdviceReport:      report,
		Status:            model.AnalysisCompleted,
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetAnalysisResultParamName(), result)
	context.Add(c.GetOutputParam(), result)
}
