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

package services

import (
	"testing"
	"time"

	"github.com/zeebo/assert"

	"github.com/healthtriage/gcp-go-video-triage/internal/core/model"
)

func TestPriorityRank(t *testing.T) {
	assert.Equal(t, 0, priorityRank(model.PriorityCritical))
	assert.Equal(t, 1, priorityRank(model.PriorityModerate))
	assert.Equal(t, 2, priorityRank(model.PriorityLow))
	// Unknown labels sort with the moderate band.
	assert.Equal(t, 1, priorityRank(model.Priority("urgent")))
}

// TestQueueOrdering exercises the ordering ListQueue applies after the
// Firestore query. Critical cases come first, and within a band the oldest
// submission comes first.
func TestQueueOrdering(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	requests := []*model.TriageRequest{
		{RequestId: "low-early", Priority: model.PriorityLow, CreatedAt: base},
		{RequestId: "critical-late", Priority: model.PriorityCritical, CreatedAt: base.Add(2 * time.Hour)},
		{RequestId: "moderate", Priority: model.PriorityModerate, CreatedAt: base.Add(time.Hour)},
		{RequestId: "critical-early", Priority: model.PriorityCritical, CreatedAt: base.Add(time.Minute)},
	}

	sortByClinicalPriority(requests)

	assert.Equal(t, "critical-early", requests[0].RequestId)
	assert.Equal(t, "critical-late", requests[1].RequestId)
	assert.Equal(t, "moderate", requests[2].RequestId)
	assert.Equal(t, "low-early", requests[3].RequestId)
}
