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
// This file contains in-memory models that exist only for the duration of one
// analysis run and are never persisted. Frames and their encoded payloads are
// owned by the run that sampled them and are released when the run's context
// closes.
package model

import "image"

// Frame is one still image sampled from a video, with the elapsed playback
// time at which it was decoded.
type Frame struct {
	Image          image.Image
	ElapsedSeconds float64
}

// InlineImage is a preprocessed frame encoded as a base64 data URL, ready to
// embed directly in a vision model request.
type InlineImage struct {
	MIMEType string
	DataURL  string
}
