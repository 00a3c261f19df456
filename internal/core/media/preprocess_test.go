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

package media

import (
	"encoding/base64"
	"image"
	"image/jpeg"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreprocessorEncodeProducesFixedGeometry(t *testing.T) {
	p := NewPreprocessor()

	// A source larger than the target, at a different aspect ratio.
	src := image.NewRGBA(image.Rect(0, 0, 1920, 1080))
	out, err := p.Encode(src)
	assert.NoError(t, err)
	assert.Equal(t, "image/jpeg", out.MIMEType)

	prefix := "data:image/jpeg;base64,"
	assert.True(t, strings.HasPrefix(out.DataURL, prefix))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(out.DataURL, prefix))
	assert.NoError(t, err)

	decoded, err := jpeg.Decode(strings.NewReader(string(raw)))
	assert.NoError(t, err)
	assert.Equal(t, PreprocessWidth, decoded.Bounds().Dx())
	assert.Equal(t, PreprocessHeight, decoded.Bounds().Dy())
}

func TestPreprocessorEncodeIsDeterministic(t *testing.T) {
	p := NewPreprocessor()
	src := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for i := range src.Pix {
		src.Pix[i] = uint8(i % 251)
	}

	first, err := p.Encode(src)
	assert.NoError(t, err)
	second, err := p.Encode(src)
	assert.NoError(t, err)
	assert.Equal(t, first.DataURL, second.DataURL)
}

func TestPreprocessorUpscalesSmallFrames(t *testing.T) {
	p := NewPreprocessor()
	src := image.NewRGBA(image.Rect(0, 0, 100, 80))
	out, err := p.Encode(src)
	assert.NoError(t, err)
	assert.NotEmpty(t, out.DataURL)
}
