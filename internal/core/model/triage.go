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

// Package model defines the core data structures for the application.
// This file contains the persistent triage record and the structured analysis
// payloads written into it. A TriageRequest document is created by the intake
// API with status PENDING and is mutated exclusively by the triage request
// workflow after that: status only ever moves forward through
// PENDING -> PROCESSING -> {COMPLETED | ERROR}, and the analysis result is
// null until a terminal status is reached.
package model

import (
	"strings"
	"time"
)

// RequestStatus is the lifecycle state of a triage request.
type RequestStatus string

const (
	StatusPending    RequestStatus = "PENDING"
	StatusProcessing RequestStatus = "PROCESSING"
	StatusCompleted  RequestStatus = "COMPLETED"
	StatusError      RequestStatus = "ERROR"
)

// Priority is the scheduling label doctors sort their queue by. It is derived
// from the model's severity estimate, never supplied by the patient.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityModerate Priority = "moderate"
	PriorityCritical Priority = "critical"
)

// AnalysisStatus is the terminal state of one analysis run.
type AnalysisStatus string

const (
	AnalysisCompleted AnalysisStatus = "COMPLETED"
	AnalysisError     AnalysisStatus = "ERROR"
)

// TriageRequest represents one patient submission. The struct maps directly
// onto the Firestore document, so field tags define the persisted shape.
type TriageRequest struct {
	RequestId      string          `json:"request_id" firestore:"request_id"`
	PatientId      string          `json:"patient_id" firestore:"patient_id"`
	VideoUrl       string          `json:"video_url" firestore:"video_url"`
	Symptoms       []string        `json:"symptoms" firestore:"symptoms"`
	AdditionalInfo string          `json:"additional_info,omitempty" firestore:"additional_info"`
	Status         RequestStatus   `json:"status" firestore:"status"`
	Priority       Priority        `json:"priority,omitempty" firestore:"priority"`
	CreatedAt      time.Time       `json:"created_at" firestore:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" firestore:"updated_at"`
	AnalysisResult *AnalysisResult `json:"analysis_result,omitempty" firestore:"analysis_result"`
}

// AnalysisResult is the structured output of one pipeline run. Exactly one is
// produced per request. When a stage fails the result still carries a
// deterministic error shape rather than being absent, so a failed run is as
// inspectable as a successful one.
type AnalysisResult struct {
	RequestId         string             `json:"request_id" firestore:"request_id"`
	TranscriptionData *TranscriptionData `json:"transcription_data,omitempty" firestore:"transcription_data"`
	AdviceReport      *AdviceReport      `json:"advice_report,omitempty" firestore:"advice_report"`
	Status            AnalysisStatus     `json:"status" firestore:"status"`
	Error             string             `json:"error,omitempty" firestore:"error"`
}

// TranscriptionData holds the output of the vision extraction stage: the audio
// transcript plus what the model identified in the transcript and the sampled
// frames. When the model's response did not decode, Error and Raw carry the
// failure and the unparsed text while Transcription is still retained.
type TranscriptionData struct {
	Transcription      string   `json:"transcription" firestore:"transcription"`
	IdentifiedSymptoms []string `json:"identified_symptoms,omitempty" firestore:"identified_symptoms"`
	VisualSigns        []string `json:"visual_signs,omitempty" firestore:"visual_signs"`
	InitialSeverity    string   `json:"initial_severity,omitempty" firestore:"initial_severity"`
	Error              string   `json:"error,omitempty" firestore:"error"`
	Raw                string   `json:"raw,omitempty" firestore:"raw"`
}

// AdviceReport holds the output of the report synthesis stage. The same
// decode-with-fallback discipline applies: Error and Raw are set when the
// model output could not be parsed.
type AdviceReport struct {
	ReportText string      `json:"report_text" firestore:"report_text"`
	Citations  []*Citation `json:"citations,omitempty" firestore:"citations"`
	Error      string      `json:"error,omitempty" firestore:"error"`
	Raw        string      `json:"raw,omitempty" firestore:"raw"`
}

// Citation is one supporting source: either cited by the advice report or
// returned by the citation search endpoint. SourceTag is derived
// deterministically from the URL: the first trusted domain that matches
// yields its leading segment upper-cased, otherwise the sentinel "OTHER".
type Citation struct {
	Title     string `json:"title" firestore:"title"`
	Url       string `json:"url" firestore:"url"`
	Snippet   string `json:"snippet,omitempty" firestore:"snippet"`
	SourceTag string `json:"source_tag,omitempty" firestore:"source_tag"`
}

// PriorityForSeverity maps the model's severity estimate to a queue priority.
// The match is case-insensitive. Anything unrecognized or missing maps to
// moderate: a middle default is safer than low for a case the model could not
// classify.
func PriorityForSeverity(severity string) Priority {
	switch strings.ToLower(strings.TrimSpace(severity)) {
	case "severe":
		return PriorityCritical
	case "moderate":
		return PriorityModerate
	case "mild":
		return PriorityLow
	default:
		return PriorityModerate
	}
}
