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

// Package text provides helpers for normalizing generative model output.
// Chat models routinely wrap JSON answers in fenced code blocks even when the
// prompt asks for bare JSON, so every structured decode in the pipeline runs
// the response through Sanitize first. Sanitize only removes formatting
// artifacts; it never attempts to validate or repair the JSON itself.
package text

import (
	"encoding/json"
	"regexp"
	"strings"
)

// fencePattern matches markdown code fence markers with an optional json tag,
// together with the whitespace hugging them.
var fencePattern = regexp.MustCompile("```(?:json)?\\s*|\\s*```")

// Sanitize strips code fence markers and surrounding whitespace from a model
// response. It is idempotent: sanitizing an already clean string returns it
// unchanged.
func Sanitize(in string) string {
	return strings.TrimSpace(fencePattern.ReplaceAllString(in, ""))
}

// DecodeLoose sanitizes the model response and attempts to unmarshal it into
// out. The error reports decode failure; callers decide whether to substitute
// a fallback payload rather than fail the run.
func DecodeLoose(in string, out interface{}) error {
	return json.Unmarshal([]byte(Sanitize(in)), out)
}
