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

// Package workflow defines the high-level business orchestrations, combining
// commands into coherent pipelines. This file implements the per-video
// analysis pipeline: fetch, transcribe, sample, extract, report, assemble,
// and persist analytics.
//
// The workflow always produces an AnalysisResult, never a bare error. When a
// stage fails, the result carries ERROR status and the joined stage errors,
// but retains whatever the pipeline produced before failing; in particular a
// transcript obtained before a sampling failure survives into the error
// result. Temporary files created by fetch are released on every exit path
// through the chain context's deferred Close.
package workflow

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/healthtriage/gcp-go-video-triage/internal/cloud"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/commands"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/cor"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/media"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/model"
)

// TriageAnalysisWorkflow runs the full analysis pipeline for one video.
type TriageAnalysisWorkflow struct {
	cor.BaseCommand
	config         *cloud.Config
	serviceClients *cloud.ServiceClients
	chatModel      cloud.ChatModel
	transcriber    cloud.Transcriber
	detailLevel    string
	extractionTmpl *template.Template
	reportTmpl     *template.Template
	sourceFactory  commands.FrameSourceFactory
	chain          cor.Chain
}

// NewTriageAnalysisWorkflow is the constructor for the analysis pipeline.
// chatModelName and transcriptionModelName select entries from the
// configuration's model maps; unknown keys panic at construction. A nil
// sourceFactory gets the ffmpeg-backed default; tests pass synthetic
// factories.
func NewTriageAnalysisWorkflow(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients,
	chatModelName string,
	transcriptionModelName string,
	sourceFactory commands.FrameSourceFactory) *TriageAnalysisWorkflow {

	extractionTmpl, err := template.New("extraction-template").Parse(config.PromptTemplates.ExtractionPrompt)
	if err != nil {
		panic(err)
	}
	reportTmpl, err := template.New("report-template").Parse(config.PromptTemplates.ReportPrompt)
	if err != nil {
		panic(err)
	}

	// A misspelled model key must fail at startup, not as a nil-interface
	// panic in the middle of a run.
	chatModel, ok := serviceClients.ChatModels[chatModelName]
	if !ok {
		panic(fmt.Sprintf("chat model %q is not configured", chatModelName))
	}
	transcriber, ok := serviceClients.Transcribers[transcriptionModelName]
	if !ok {
		panic(fmt.Sprintf("transcription model %q is not configured", transcriptionModelName))
	}

	if sourceFactory == nil {
		ffmpegPath := config.Sampling.FFmpegPath
		if ffmpegPath == "" {
			ffmpegPath = media.DefaultFFmpegPath
		}
		ffprobePath := config.Sampling.FFprobePath
		if ffprobePath == "" {
			ffprobePath = media.DefaultFFprobePath
		}
		sourceFactory = func(videoPath string) (media.FrameSource, error) {
			return media.NewFFmpegFrameSource(ffmpegPath, ffprobePath, videoPath)
		}
	}

	pipeline := &TriageAnalysisWorkflow{
		BaseCommand:    *cor.NewBaseCommand("triage-analysis-pipeline"),
		config:         config,
		serviceClients: serviceClients,
		chatModel:      chatModel,
		transcriber:    transcriber,
		detailLevel:    config.ChatModels[chatModelName].DetailLevel,
		extractionTmpl: extractionTmpl,
		reportTmpl:     reportTmpl,
		sourceFactory:  sourceFactory,
	}
	pipeline.initializeChain()
	return pipeline
}

// initializeChain builds the sequence of commands that make up the pipeline.
func (m *TriageAnalysisWorkflow) initializeChain() {
	interval := m.config.Sampling.FrameIntervalSeconds
	if interval <= 0 {
		interval = media.DefaultFrameIntervalSeconds
	}
	maxFrames := m.config.Sampling.MaxFrames
	if maxFrames <= 0 {
		maxFrames = media.DefaultMaxFrames
	}
	sampler, err := media.NewSampler(interval, maxFrames)
	if err != nil {
		panic(err)
	}

	out := cor.NewBaseChain(m.GetName())

	// Resolve the video locator to a tracked local file.
	out.AddCommand(commands.NewVideoFetch(
		"fetch-video",
		m.serviceClients.StorageClient,
		nil,
		"triage-video-"))

	// Transcribe the audio track.
	out.AddCommand(commands.NewTranscribe("transcribe-video", m.transcriber))

	// Sample and preprocess frames, parallelizing the per-frame work.
	out.AddCommand(commands.NewFrameExtract(
		"extract-frames",
		m.sourceFactory,
		sampler,
		media.NewPreprocessor(),
		m.config.Application.ThreadPoolSize))

	// First staged model call: transcript plus frames to structured
	// observations.
	out.AddCommand(commands.NewVisionExtract(
		"extract-observations",
		m.chatModel,
		m.extractionTmpl,
		m.detailLevel))

	// Second staged call: structured observations to patient guidance.
	out.AddCommand(commands.NewReportGenerate(
		"generate-report",
		m.chatModel,
		m.reportTmpl))

	// Fold the artifacts into the completed result.
	out.AddCommand(commands.NewResultAssembly("assemble-result"))

	// Stream an analytics row for trend queries.
	out.AddCommand(commands.NewAnalysisPersistToBigQuery(
		"write-analytics-row",
		m.serviceClients.BigQueryClient,
		m.config.BigQueryDataSource.DatasetName,
		m.config.BigQueryDataSource.AnalyticsTable))

	m.chain = out
}

// Execute runs the pipeline by invoking the underlying chain.
func (m *TriageAnalysisWorkflow) Execute(context cor.Context) {
	m.chain.Execute(context)
}

// Run executes the pipeline for one creation event and returns the final
// result. The chain context is closed on every exit path so temporary video
// files never outlive the run.
func (m *TriageAnalysisWorkflow) Run(ctx context.Context, event *cloud.TriageCreatedEvent) *model.AnalysisResult {
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(ctx)
	defer chainCtx.Close()

	chainCtx.Add(cloud.GetTriageEventParamName(), event)
	chainCtx.Add(cor.CtxIn, event)

	m.chain.Execute(chainCtx)

	if !chainCtx.HasErrors() {
		return chainCtx.Get(commands.GetAnalysisResultParamName()).(*model.AnalysisResult)
	}
	return errorResult(chainCtx, event)
}

// errorResult shapes the terminal ERROR record from whatever the pipeline
// produced before failing. Stage errors are joined in command-name order so
// the recorded reason is deterministic.
func errorResult(chainCtx cor.Context, event *cloud.TriageCreatedEvent) *model.AnalysisResult {
	errs := chainCtx.GetErrors()
	names := make([]string, 0, len(errs))
	for name := range errs {
		names = append(names, name)
	}
	sort.Strings(names)

	reasons := make([]string, 0, len(names))
	for _, name := range names {
		reasons = append(reasons, errs[name].Error())
	}

	result := &model.AnalysisResult{
		RequestId: event.RequestId,
		Status:    model.AnalysisError,
		Error:     strings.Join(reasons, "; "),
	}

	// Partial work survives into the error record.
	if extraction, ok := chainCtx.Get(commands.GetExtractionParamName()).(*model.TranscriptionData); ok {
		result.TranscriptionData = extraction
	} else if transcript, ok := chainCtx.Get(commands.GetTranscriptParamName()).(string); ok {
		result.TranscriptionData = &model.TranscriptionData{Transcription: transcript}
	}
	if report, ok := chainCtx.Get(commands.GetReportParamName()).(*model.AdviceReport); ok {
		result.AdviceReport = report
	}

	return result
}
