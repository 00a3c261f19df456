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
// workflows. This file defines the analytics persistence stage: streaming a
// flattened row per finished analysis into BigQuery so severity and symptom
// trends can be queried across the whole population without scanning the
// operational record store.
//
// The analytics row is strictly best-effort. The analysis result is already
// assembled when this stage runs, and a sink failure must never turn a
// successful analysis into a terminal ERROR record, so insert failures are
// logged and counted but never added to the chain's error map.
package commands

import (
	"context"
	"log"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/healthtriage/gcp-go-video-triage/internal/core/cor"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/model"
)

// AnalysisRow is the flattened analytics record for one finished run.
type AnalysisRow struct {
	RequestId          string    `bigquery:"request_id"`
	Status             string    `bigquery:"status"`
	InitialSeverity    string    `bigquery:"initial_severity"`
	IdentifiedSymptoms []string  `bigquery:"identified_symptoms"`
	VisualSigns        []string  `bigquery:"visual_signs"`
	CitationCount      int       `bigquery:"citation_count"`
	AnalyzedAt         time.Time `bigquery:"analyzed_at"`
}

// analyticsSink is the streaming-insert capability this command needs.
// *bigquery.Inserter satisfies it; tests substitute fakes.
type analyticsSink interface {
	Put(ctx context.Context, src interface{}) error
}

// AnalysisPersistToBigQuery streams one analytics row per analysis run.
type AnalysisPersistToBigQuery struct {
	cor.BaseCommand
	sink analyticsSink
}

// NewAnalysisPersistToBigQuery constructs the command over the given dataset
// and table.
func NewAnalysisPersistToBigQuery(name string, client *bigquery.Client, dataset string, table string) *AnalysisPersistToBigQuery {
	return &AnalysisPersistToBigQuery{
		BaseCommand: *cor.NewBaseCommand(name),
		sink:        client.Dataset(dataset).Table(table).Inserter(),
	}
}

// IsExecutable requires the assembled analysis result in the context.
func (c *AnalysisPersistToBigQuery) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(GetAnalysisResultParamName()) != nil
}

// Execute flattens the result and streams it through the sink. The result
// passes through to the output slot whether or not the insert succeeded.
func (c *AnalysisPersistToBigQuery) Execute(context cor.Context) {
	result := context.Get(GetAnalysisResultParamName()).(*model.AnalysisResult)

	row := &AnalysisRow{
		RequestId:  result.RequestId,
		Status:     string(result.Status),
		AnalyzedAt: time.Now().UTC(),
	}
	if result.TranscriptionData != nil {
		row.InitialSeverity = result.TranscriptionData.InitialSeverity
		row.IdentifiedSymptoms = result.TranscriptionData.IdentifiedSymptoms
		row.VisualSigns = result.TranscriptionData.VisualSigns
	}
	if result.AdviceReport != nil {
		row.CitationCount = len(result.AdviceReport.Citations)
	}

	if err := c.sink.Put(context.GetContext(), row); err != nil {
		// Analytics only; the analysis outcome stands.
		log.Printf("failed to write analysis row for request %s: %v", result.RequestId, err)
		c.GetErrorCounter().Add(context.GetContext(), 1)
	} else {
		c.GetSuccessCounter().Add(context.GetContext(), 1)
	}

	context.Add(c.GetOutputParam(), result)
}
