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
// analysis pipeline. This file defines the FrameSource abstraction, which
// decouples the sampling arithmetic from the actual video decoder so the
// sampler can be exercised with synthetic sources in tests.
package media

import "image"

// FallbackFrameRate is substituted when a source reports an unknown or zero
// frame rate, so bucket computation stays well-defined.
const FallbackFrameRate = 30.0

// FrameSource is a sequential decoder over a video's frames. Implementations
// are not restartable: once Next returns io.EOF the source is exhausted.
type FrameSource interface {
	// FrameRate returns the decode rate in frames per second, or zero when
	// the container does not declare one.
	FrameRate() float64

	// Next decodes and returns the next frame in presentation order. It
	// returns io.EOF when the stream is exhausted.
	Next() (image.Image, error)

	// Close releases the decoder's resources.
	Close() error
}
