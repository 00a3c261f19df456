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

package workflow

import (
	"context"
	"image"
	"io"
	"strings"
	"testing"
	"text/template"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"

	"github.com/healthtriage/gcp-go-video-triage/internal/cloud"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/commands"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/cor"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/media"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/model"
)

const testTranscript = "I have a fever and rash on my arm"

// fakeTranscriber returns a canned transcript for any file.
type fakeTranscriber struct {
	transcript string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ string) (string, error) {
	return f.transcript, nil
}

// fakeChatModel replays queued responses in order.
type fakeChatModel struct {
	responses []string
	calls     int
}

func (f *fakeChatModel) GenerateContent(_ context.Context, _ []openai.ChatCompletionMessage) (*openai.ChatCompletionResponse, error) {
	resp := f.responses[f.calls]
	f.calls++
	return &openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: resp}},
		},
		Usage: openai.Usage{PromptTokens: 10, CompletionTokens: 20},
	}, nil
}

// fakeFrameSource emits synthetic frames at 30fps.
type fakeFrameSource struct {
	total  int
	cursor int
}

func (f *fakeFrameSource) FrameRate() float64 { return 30 }

func (f *fakeFrameSource) Next() (image.Image, error) {
	if f.cursor >= f.total {
		return nil, io.EOF
	}
	f.cursor++
	return image.NewRGBA(image.Rect(0, 0, 8, 8)), nil
}

func (f *fakeFrameSource) Close() error { return nil }

func testTemplates(t *testing.T) (*template.Template, *template.Template) {
	t.Helper()
	extraction := template.Must(template.New("extraction").Parse(
		"TRANSCRIPTION: {{.TRANSCRIPT}}\nEXAMPLE: {{.EXAMPLE_JSON}}"))
	report := template.Must(template.New("report").Parse(
		"DATA: {{.EXTRACTION_JSON}}\nEXAMPLE: {{.EXAMPLE_JSON}}"))
	return extraction, report
}

// testChain assembles the model-facing portion of the analysis pipeline with
// fakes, starting from the transcription stage.
func testChain(t *testing.T, chatModel *fakeChatModel, frameTotal int) cor.Chain {
	t.Helper()
	extractionTmpl, reportTmpl := testTemplates(t)

	sampler, err := media.NewSampler(media.DefaultFrameIntervalSeconds, media.DefaultMaxFrames)
	assert.NoError(t, err)

	sourceFactory := func(_ string) (media.FrameSource, error) {
		return &fakeFrameSource{total: frameTotal}, nil
	}

	chain := cor.NewBaseChain("triage-analysis-test")
	chain.AddCommand(commands.NewTranscribe("transcribe-video", &fakeTranscriber{transcript: testTranscript}))
	chain.AddCommand(commands.NewFrameExtract("extract-frames", sourceFactory, sampler, media.NewPreprocessor(), 2))
	chain.AddCommand(commands.NewVisionExtract("extract-observations", chatModel, extractionTmpl, "low"))
	chain.AddCommand(commands.NewReportGenerate("generate-report", chatModel, reportTmpl))
	chain.AddCommand(commands.NewResultAssembly("assemble-result"))
	return chain
}

func newChainContext(event *cloud.TriageCreatedEvent) cor.Context {
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cloud.GetTriageEventParamName(), event)
	chainCtx.Add(commands.GetVideoPathParamName(), "/tmp/test-video.mp4")
	return chainCtx
}

func TestAnalysisChainCompletes(t *testing.T) {
	chatModel := &fakeChatModel{responses: []string{
		"```json\n{\"identified_symptoms\": [\"fever\", \"rash\"], \"visual_signs\": [\"red patches on forearm\"], \"initial_severity\": \"Moderate\"}\n```",
		"{\"report_text\": \"Monitor your temperature and keep the rash clean.\", \"citations\": [{\"title\": \"Understanding Fever\", \"url\": \"https://www.cdc.gov/fever\", \"snippet\": \"...\"}]}",
	}}

	event := &cloud.TriageCreatedEvent{RequestId: "req-1", PatientId: "p-1", VideoUrl: "gs://bucket/v.mp4"}
	chainCtx := newChainContext(event)
	defer chainCtx.Close()

	// 5 seconds at 30fps yields frames in buckets 0, 1, and 2.
	testChain(t, chatModel, 150).Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, 2, chatModel.calls)

	result := chainCtx.Get(commands.GetAnalysisResultParamName()).(*model.AnalysisResult)
	assert.Equal(t, "req-1", result.RequestId)
	assert.Equal(t, model.AnalysisCompleted, result.Status)
	assert.Equal(t, "Moderate", result.TranscriptionData.InitialSeverity)
	assert.Equal(t, testTranscript, result.TranscriptionData.Transcription)
	assert.Equal(t, []string{"fever", "rash"}, result.TranscriptionData.IdentifiedSymptoms)
	assert.Len(t, result.AdviceReport.Citations, 1)

	frames := chainCtx.Get(commands.GetFramesParamName()).([]*model.InlineImage)
	assert.Len(t, frames, 3)
}

func TestAnalysisChainZeroFramesRetainsTranscript(t *testing.T) {
	chatModel := &fakeChatModel{responses: []string{}}

	event := &cloud.TriageCreatedEvent{RequestId: "req-2", PatientId: "p-1", VideoUrl: "gs://bucket/v.mp4"}
	chainCtx := newChainContext(event)
	defer chainCtx.Close()

	testChain(t, chatModel, 0).Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
	// The model stages never ran.
	assert.Equal(t, 0, chatModel.calls)

	result := errorResult(chainCtx, event)
	assert.Equal(t, model.AnalysisError, result.Status)
	assert.Contains(t, result.Error, "no frames extracted")
	assert.NotNil(t, result.TranscriptionData)
	assert.Equal(t, testTranscript, result.TranscriptionData.Transcription)
}

func TestAnalysisChainMalformedExtractionFallsBack(t *testing.T) {
	chatModel := &fakeChatModel{responses: []string{
		"The patient appears to have a mild rash.",
		"{\"report_text\": \"See a clinician if it spreads.\", \"citations\": []}",
	}}

	event := &cloud.TriageCreatedEvent{RequestId: "req-3", PatientId: "p-1", VideoUrl: "gs://bucket/v.mp4"}
	chainCtx := newChainContext(event)
	defer chainCtx.Close()

	testChain(t, chatModel, 150).Execute(chainCtx)

	// A malformed extraction is absorbed, not fatal.
	assert.False(t, chainCtx.HasErrors())

	result := chainCtx.Get(commands.GetAnalysisResultParamName()).(*model.AnalysisResult)
	assert.Equal(t, model.AnalysisCompleted, result.Status)
	assert.NotEmpty(t, result.TranscriptionData.Error)
	assert.Equal(t, "The patient appears to have a mild rash.", result.TranscriptionData.Raw)
	assert.Equal(t, testTranscript, result.TranscriptionData.Transcription)
	assert.Empty(t, result.TranscriptionData.InitialSeverity)
}

func TestAnalysisWorkflowRejectsUnknownModelKey(t *testing.T) {
	config := cloud.NewConfig()
	clients := &cloud.ServiceClients{
		ChatModels:   map[string]*cloud.QuotaAwareChatModel{},
		Transcribers: map[string]*cloud.WhisperTranscriber{},
	}
	sourceFactory := func(_ string) (media.FrameSource, error) {
		return &fakeFrameSource{}, nil
	}

	// A key with no configured model must fail construction, not the first
	// model call mid-run.
	assert.Panics(t, func() {
		NewTriageAnalysisWorkflow(config, clients, "vision", "default", sourceFactory)
	})
}

func TestErrorResultJoinsStageErrors(t *testing.T) {
	event := &cloud.TriageCreatedEvent{RequestId: "req-4"}
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.AddError("fetch-video", io.ErrUnexpectedEOF)

	result := errorResult(chainCtx, event)
	assert.Equal(t, "req-4", result.RequestId)
	assert.Equal(t, model.AnalysisError, result.Status)
	assert.True(t, strings.Contains(result.Error, io.ErrUnexpectedEOF.Error()))
}
