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

package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeStripsJsonFences(t *testing.T) {
	in := "```json\n{\"a\":1}\n```"
	assert.Equal(t, `{"a":1}`, Sanitize(in))
}

func TestSanitizeStripsBareFences(t *testing.T) {
	in := "```\n{\"a\":1}\n```"
	assert.Equal(t, `{"a":1}`, Sanitize(in))
}

func TestSanitizeLeavesCleanInputAlone(t *testing.T) {
	in := `{"report_text": "rest and hydrate"}`
	assert.Equal(t, in, Sanitize(in))
}

func TestSanitizeTrimsWhitespace(t *testing.T) {
	assert.Equal(t, `{"a":1}`, Sanitize("  {\"a\":1}\n\n"))
}

func TestSanitizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"```json\n{\"a\":1}\n```",
		"```\nplain text\n```",
		`{"a":1}`,
		"",
		"   \n\t  ",
		"no fences at all",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once), "input %q", in)
	}
}

func TestDecodeLooseParsesFencedJson(t *testing.T) {
	var out map[string]int
	err := DecodeLoose("```json\n{\"a\":1}\n```", &out)
	assert.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 1}, out)
}

func TestDecodeLooseReportsMalformedJson(t *testing.T) {
	var out map[string]int
	err := DecodeLoose("the patient seems fine", &out)
	assert.Error(t, err)
}
