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

// Package workflow defines the high-level business orchestrations. This file
// implements the request lifecycle workflow triggered by the creation event:
// PENDING to PROCESSING to a terminal COMPLETED or ERROR, with no
// back-transitions.
//
// Two malformed-input cases end the run without an error so the message is
// acknowledged and never redelivered: a missing video locator (an incomplete
// submission that retrying cannot fix) and a record already past PENDING (a
// duplicate delivery of the creation event). Store failures, by contrast,
// leave the chain in error so the listener lets Pub/Sub redeliver.
package workflow

import (
	"context"
	"fmt"
	"log"

	"github.com/healthtriage/gcp-go-video-triage/internal/cloud"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/commands"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/cor"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/model"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/services"
)

// AnalysisRunner is the analysis pipeline as seen by the request lifecycle.
// The production implementation is TriageAnalysisWorkflow.
type AnalysisRunner interface {
	Run(ctx context.Context, event *cloud.TriageCreatedEvent) *model.AnalysisResult
}

// TriageRequestWorkflow drives one request record through its lifecycle in
// response to a creation event.
type TriageRequestWorkflow struct {
	cor.BaseCommand
	store    services.TriageStore
	analysis AnalysisRunner
	chain    cor.Chain
}

// NewTriageRequestWorkflow is the constructor for the request lifecycle
// workflow.
func NewTriageRequestWorkflow(store services.TriageStore, analysis AnalysisRunner) *TriageRequestWorkflow {
	pipeline := &TriageRequestWorkflow{
		BaseCommand: *cor.NewBaseCommand("triage-request-pipeline"),
		store:       store,
		analysis:    analysis,
	}
	pipeline.initializeChain()
	return pipeline
}

// initializeChain builds the two-step chain: parse the creation event, then
// run the state machine.
func (m *TriageRequestWorkflow) initializeChain() {
	out := cor.NewBaseChain(m.GetName())
	out.AddCommand(commands.NewTriageTriggerReader("read-triage-trigger"))
	out.AddCommand(newTriageRequestProcessor("process-triage-request", m.store, m.analysis))
	m.chain = out
}

// Execute runs the workflow by invoking the underlying chain.
func (m *TriageRequestWorkflow) Execute(context cor.Context) {
	m.chain.Execute(context)
}

// triageRequestProcessor is the state-machine command. It is unexported
// because only the request workflow assembles it.
type triageRequestProcessor struct {
	cor.BaseCommand
	store    services.TriageStore
	analysis AnalysisRunner
}

func newTriageRequestProcessor(name string, store services.TriageStore, analysis AnalysisRunner) *triageRequestProcessor {
	return &triageRequestProcessor{
		BaseCommand: *cor.NewBaseCommand(name),
		store:       store,
		analysis:    analysis,
	}
}

// IsExecutable requires the parsed creation event in the context.
func (c *triageRequestProcessor) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(cloud.GetTriageEventParamName()) != nil
}

// Execute runs the state machine for one creation event.
func (c *triageRequestProcessor) Execute(context cor.Context) {
	event := context.Get(cloud.GetTriageEventParamName()).(*cloud.TriageCreatedEvent)
	ctx := context.GetContext()

	// An event without a video locator is an incomplete submission. Drop it
	// without touching the record; redelivery cannot make it processable.
	if event.VideoUrl == "" {
		log.Printf("triage request %s has no video locator; ignoring", event.RequestId)
		c.GetSuccessCounter().Add(ctx, 1)
		return
	}

	current, err := c.store.Get(ctx, event.RequestId)
	if err != nil {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to load triage request %s: %w", event.RequestId, err))
		return
	}

	// A record already past PENDING means this event was delivered before.
	// Status transitions are monotonic, so the duplicate is dropped.
	if current.Status != model.StatusPending {
		log.Printf("triage request %s already in status %s; skipping duplicate event", event.RequestId, current.Status)
		c.GetSuccessCounter().Add(ctx, 1)
		return
	}

	// Mark work as started before the long-running analysis so concurrent
	// readers observe the transition.
	if err := c.store.SetStatus(ctx, event.RequestId, model.StatusProcessing); err != nil {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to mark request %s processing: %w", event.RequestId, err))
		return
	}

	result := c.analysis.Run(ctx, event)

	status := model.StatusCompleted
	if result.Status != model.AnalysisCompleted {
		status = model.StatusError
	}

	severity := ""
	if result.TranscriptionData != nil {
		severity = result.TranscriptionData.InitialSeverity
	}
	priority := model.PriorityForSeverity(severity)

	if err := c.store.Complete(ctx, event.RequestId, status, result, priority); err != nil {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to finalize request %s: %w", event.RequestId, err))
		return
	}

	c.GetSuccessCounter().Add(ctx, 1)
	log.Printf("triage request %s finished with status %s priority %s", event.RequestId, status, priority)
	context.Add(c.GetOutputParam(), result)
}
