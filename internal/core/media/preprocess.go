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
// analysis pipeline. This file contains the Preprocessor, which converts a
// sampled frame into the compact inline payload the vision model accepts:
// a fixed 512x384 resize, JPEG re-encode at quality 85, and base64 data URL
// encoding. The output is deterministic for identical input pixels.
package media

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"

	"github.com/healthtriage/gcp-go-video-triage/internal/core/model"
)

// Fixed output geometry and encoder quality for model-bound frames.
const (
	PreprocessWidth   = 512
	PreprocessHeight  = 384
	PreprocessQuality = 85
	jpegMIMEType      = "image/jpeg"
)

// Preprocessor re-encodes decoded frames into inline vision model payloads.
type Preprocessor struct {
	Width   int
	Height  int
	Quality int
}

// NewPreprocessor returns a preprocessor with the pipeline's fixed geometry.
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{Width: PreprocessWidth, Height: PreprocessHeight, Quality: PreprocessQuality}
}

// Encode downscales the image to the fixed output size, JPEG-encodes it, and
// wraps the bytes in a base64 data URL.
func (p *Preprocessor) Encode(img image.Image) (*model.InlineImage, error) {
	scaled := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: p.Quality}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	return &model.InlineImage{
		MIMEType: jpegMIMEType,
		DataURL:  fmt.Sprintf("data:%s;base64,%s", jpegMIMEType, base64.StdEncoding.EncodeToString(buf.Bytes())),
	}, nil
}
