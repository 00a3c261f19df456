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

// Package model defines the data structures for the application. This file
// provides factory functions for hardcoded example instances of the analysis
// payloads. The examples are serialized into the prompts as few-shot guidance
// so the model returns JSON matching the structures we decode into.
package model

// GetExampleExtraction creates a sample TranscriptionData object used as a
// few-shot example in the vision extraction prompt.
func GetExampleExtraction() *TranscriptionData {
	return &TranscriptionData{
		Transcription:      "I've had a sore throat and a light cough since Tuesday, and this morning I noticed these red spots on my arm.",
		IdentifiedSymptoms: []string{"sore throat", "cough"},
		VisualSigns:        []string{"red maculopapular spots on the left forearm"},
		InitialSeverity:    "Moderate",
	}
}

// GetExampleReport creates a sample AdviceReport object used as a few-shot
// example in the report synthesis prompt.
func GetExampleReport() *AdviceReport {
	return &AdviceReport{
		ReportText: "Your symptoms are consistent with a mild viral infection. Rest, stay hydrated, and monitor the rash. If the spots spread rapidly, a fever above 39C develops, or breathing becomes difficult, seek in-person care promptly.",
		Citations: []*Citation{
			{
				Title:   "Sore Throat Basics",
				Url:     "https://www.cdc.gov/sore-throat/about/index.html",
				Snippet: "Sore throats can be painful and annoying. Most go away on their own.",
			},
			{
				Title:   "Rashes",
				Url:     "https://medlineplus.gov/rashes.html",
				Snippet: "A rash is an area of irritated or swollen skin.",
			},
		},
	}
}
