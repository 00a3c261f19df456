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

// Package media implements the frame sampling and preprocessing stages of the
// analysis pipeline. This file contains the Sampler, which selects a bounded
// set of representative frames from a FrameSource at a fixed time cadence.
package media

import (
	"fmt"
	"io"
	"math"

	"github.com/healthtriage/gcp-go-video-triage/internal/core/model"
)

// Default sampling parameters for the triage pipeline.
const (
	DefaultFrameIntervalSeconds = 2.0
	DefaultMaxFrames            = 5
)

// Sampler walks a frame stream and keeps one frame per interval bucket.
// The elapsed time of frame n is n divided by the source's frame rate; a
// frame is kept when floor(elapsed/interval) enters a bucket no prior frame
// occupied, until maxFrames frames have been kept or the stream ends.
type Sampler struct {
	IntervalSeconds float64
	MaxFrames       int
}

// NewSampler constructs a sampler with the given cadence and cap.
func NewSampler(intervalSeconds float64, maxFrames int) (*Sampler, error) {
	if intervalSeconds <= 0 {
		return nil, fmt.Errorf("frame interval must be positive, got %v", intervalSeconds)
	}
	if maxFrames <= 0 {
		return nil, fmt.Errorf("max frames must be positive, got %d", maxFrames)
	}
	return &Sampler{IntervalSeconds: intervalSeconds, MaxFrames: maxFrames}, nil
}

// Sample drains the source and returns the kept frames in increasing time
// order. An empty or undecodable stream yields an empty slice, not an error;
// zero frames is a distinct pipeline outcome the orchestrator handles.
func (s *Sampler) Sample(source FrameSource) ([]*model.Frame, error) {
	rate := source.FrameRate()
	if rate <= 0 {
		rate = FallbackFrameRate
	}

	frames := make([]*model.Frame, 0, s.MaxFrames)
	lastBucket := -1

	for n := 0; ; n++ {
		img, err := source.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			// A decode error mid-stream ends sampling with whatever was
			// collected; a failure on the very first frame means an
			// undecodable stream and an empty result.
			break
		}

		elapsed := float64(n) / rate
		bucket := int(math.Floor(elapsed / s.IntervalSeconds))
		if bucket == lastBucket {
			continue
		}
		lastBucket = bucket

		frames = append(frames, &model.Frame{Image: img, ElapsedSeconds: elapsed})
		if len(frames) >= s.MaxFrames {
			break
		}
	}

	return frames, nil
}
