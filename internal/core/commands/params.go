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
// workflows. This file declares the well-known context keys commands use to
// share data beyond the chain's default input/output piping: later stages
// need more than their immediate predecessor's output (the report stage needs
// the extraction, the assembly stage needs everything), so each major
// artifact is stored under a stable key as well.
package commands

// GetVideoPathParamName returns the context key for the fetched video's local
// path.
func GetVideoPathParamName() string {
	return "__VIDEO_PATH__"
}

// GetTranscriptParamName returns the context key for the audio transcript.
func GetTranscriptParamName() string {
	return "__TRANSCRIPT__"
}

// GetFramesParamName returns the context key for the preprocessed frame
// payloads.
func GetFramesParamName() string {
	return "__FRAMES__"
}

// GetExtractionParamName returns the context key for the decoded vision
// extraction payload.
func GetExtractionParamName() string {
	return "__EXTRACTION__"
}

// GetReportParamName returns the context key for the decoded advice report.
func GetReportParamName() string {
	return "__REPORT__"
}

// GetAnalysisResultParamName returns the context key for the assembled
// analysis result.
func GetAnalysisResultParamName() string {
	return "__ANALYSIS_RESULT__"
}
