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

// Package cloud provides components for interacting with external services.
// This file wraps the OpenAI client behind narrow capability interfaces and
// decorates the chat model with rate limiting. Hosted model quotas are
// enforced per minute; the limiter keeps a burst budget that refills once per
// second so a batch of frame-heavy requests cannot blow through the quota.
package cloud

import (
	"context"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// ChatModel is the capability contract the pipeline commands depend on.
// Production code uses QuotaAwareChatModel; tests substitute fakes.
type ChatModel interface {
	GenerateContent(ctx context.Context, messages []openai.ChatCompletionMessage) (*openai.ChatCompletionResponse, error)
}

// Transcriber is the audio transcription capability contract.
type Transcriber interface {
	Transcribe(ctx context.Context, filePath string) (string, error)
}

// QuotaAwareChatModel decorates the OpenAI chat endpoint with a rate limiter.
// Model name, temperature, and token budget come from configuration so the
// vision and report stages can run different models.
type QuotaAwareChatModel struct {
	Client      *openai.Client
	ModelName   string
	Temperature float32
	MaxTokens   int
	RateLimit   *rate.Limiter
}

// NewQuotaAwareChatModel wraps the client with the model settings from one
// OpenAIChatModel config entry.
func NewQuotaAwareChatModel(client *openai.Client, cfg OpenAIChatModel) *QuotaAwareChatModel {
	return &QuotaAwareChatModel{
		Client:      client,
		ModelName:   cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		RateLimit:   rate.NewLimiter(rate.Every(time.Second), cfg.RateLimit),
	}
}

// GenerateContent blocks until the limiter grants a slot, then executes the
// chat completion.
func (q *QuotaAwareChatModel) GenerateContent(ctx context.Context, messages []openai.ChatCompletionMessage) (*openai.ChatCompletionResponse, error) {
	if err := q.RateLimit.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := q.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       q.ModelName,
		Messages:    messages,
		Temperature: q.Temperature,
		MaxTokens:   q.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// WhisperTranscriber is the production Transcriber backed by the OpenAI audio
// transcription endpoint.
type WhisperTranscriber struct {
	Client    *openai.Client
	ModelName string
	RateLimit *rate.Limiter
}

// NewWhisperTranscriber wraps the client with one transcription model config
// entry.
func NewWhisperTranscriber(client *openai.Client, cfg OpenAITranscriptionModel) *WhisperTranscriber {
	return &WhisperTranscriber{
		Client:    client,
		ModelName: cfg.Model,
		RateLimit: rate.NewLimiter(rate.Every(time.Second), cfg.RateLimit),
	}
}

// Transcribe submits the media file and returns the transcript text. The
// endpoint accepts video containers directly and transcribes their audio
// track.
func (w *WhisperTranscriber) Transcribe(ctx context.Context, filePath string) (string, error) {
	if err := w.RateLimit.Wait(ctx); err != nil {
		return "", err
	}
	resp, err := w.Client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.ModelName,
		FilePath: filePath,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
