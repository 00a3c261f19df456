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

package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/healthtriage/gcp-go-video-triage/internal/core/cor"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/model"
)

// fakeAnalyticsSink records the rows it receives and fails on demand.
type fakeAnalyticsSink struct {
	rows   []*AnalysisRow
	putErr error
}

func (f *fakeAnalyticsSink) Put(_ context.Context, src interface{}) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.rows = append(f.rows, src.(*AnalysisRow))
	return nil
}

func newPersistContext(result *model.AnalysisResult) cor.Context {
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(GetAnalysisResultParamName(), result)
	return chainCtx
}

func completedResult() *model.AnalysisResult {
	return &model.AnalysisResult{
		RequestId: "req-1",
		Status:    model.AnalysisCompleted,
		TranscriptionData: &model.TranscriptionData{
			Transcription:      "I have a fever and rash on my arm",
			IdentifiedSymptoms: []string{"fever", "rash"},
			VisualSigns:        []string{"red patches on forearm"},
			InitialSeverity:    "Severe",
		},
		AdviceReport: &model.AdviceReport{
			ReportText: "Seek in-person care today.",
			Citations:  []*model.Citation{{Title: "Fever", Url: "https://www.cdc.gov/fever"}},
		},
	}
}

func TestAnalysisPersistFlattensResult(t *testing.T) {
	sink := &fakeAnalyticsSink{}
	cmd := &AnalysisPersistToBigQuery{
		BaseCommand: *cor.NewBaseCommand("write-analytics-row"),
		sink:        sink,
	}
	chainCtx := newPersistContext(completedResult())

	cmd.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Len(t, sink.rows, 1)
	row := sink.rows[0]
	assert.Equal(t, "req-1", row.RequestId)
	assert.Equal(t, "COMPLETED", row.Status)
	assert.Equal(t, "Severe", row.InitialSeverity)
	assert.Equal(t, []string{"fever", "rash"}, row.IdentifiedSymptoms)
	assert.Equal(t, 1, row.CitationCount)
	assert.False(t, row.AnalyzedAt.IsZero())
}

func TestAnalysisPersistSinkFailureLeavesChainClean(t *testing.T) {
	sink := &fakeAnalyticsSink{putErr: errors.New("streaming insert unavailable")}
	cmd := &AnalysisPersistToBigQuery{
		BaseCommand: *cor.NewBaseCommand("write-analytics-row"),
		sink:        sink,
	}
	result := completedResult()
	chainCtx := newPersistContext(result)

	cmd.Execute(chainCtx)

	// A sink failure must not flip a successful analysis into an ERROR
	// record: the chain stays clean and the result still flows through.
	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, result, chainCtx.Get(cor.CtxOut))
}

func TestAnalysisPersistHandlesSparseResult(t *testing.T) {
	sink := &fakeAnalyticsSink{}
	cmd := &AnalysisPersistToBigQuery{
		BaseCommand: *cor.NewBaseCommand("write-analytics-row"),
		sink:        sink,
	}
	chainCtx := newPersistContext(&model.AnalysisResult{
		RequestId: "req-2",
		Status:    model.AnalysisError,
	})

	cmd.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Len(t, sink.rows, 1)
	assert.Equal(t, "ERROR", sink.rows[0].Status)
	assert.Empty(t, sink.rows[0].InitialSeverity)
	assert.Equal(t, 0, sink.rows[0].CitationCount)
}
