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

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriorityForSeverity(t *testing.T) {
	tests := []struct {
		severity string
		want     Priority
	}{
		{"Severe", PriorityCritical},
		{"severe", PriorityCritical},
		{"SEVERE", PriorityCritical},
		{"Moderate", PriorityModerate},
		{"moderate", PriorityModerate},
		{"Mild", PriorityLow},
		{"mild", PriorityLow},
		{"MILD", PriorityLow},
		{"unknown", PriorityModerate},
		{"", PriorityModerate},
		{"  Severe  ", PriorityCritical},
		{"critical", PriorityModerate},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, PriorityForSeverity(tc.severity), "severity %q", tc.severity)
	}
}
