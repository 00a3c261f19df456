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
	"image"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeFrameSource emits a fixed number of synthetic frames at a declared
// frame rate.
type fakeFrameSource struct {
	rate   float64
	total  int
	cursor int
}

func (f *fakeFrameSource) FrameRate() float64 { return f.rate }

func (f *fakeFrameSource) Next() (image.Image, error) {
	if f.cursor >= f.total {
		return nil, io.EOF
	}
	f.cursor++
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
}

func (f *fakeFrameSource) Close() error { return nil }

func TestSamplerKeepsOneFramePerBucket(t *testing.T) {
	sampler, err := NewSampler(2.0, 5)
	assert.NoError(t, err)

	// 10 seconds of 30fps video: buckets 0,1,2,3,4 at 0s,2s,4s,6s,8s.
	source := &fakeFrameSource{rate: 30, total: 300}
	frames, err := sampler.Sample(source)
	assert.NoError(t, err)
	assert.Len(t, frames, 5)

	for i, frame := range frames {
		bucket := int(math.Floor(frame.ElapsedSeconds / sampler.IntervalSeconds))
		assert.Equal(t, i, bucket)
	}
}

func TestSamplerBucketsAreStrictlyIncreasing(t *testing.T) {
	sampler, err := NewSampler(2.0, 50)
	assert.NoError(t, err)

	source := &fakeFrameSource{rate: 24, total: 24 * 30}
	frames, err := sampler.Sample(source)
	assert.NoError(t, err)
	assert.NotEmpty(t, frames)

	lastBucket := -1
	for _, frame := range frames {
		bucket := int(math.Floor(frame.ElapsedSeconds / sampler.IntervalSeconds))
		assert.Greater(t, bucket, lastBucket)
		lastBucket = bucket
	}
}

func TestSamplerRespectsMaxFrames(t *testing.T) {
	sampler, err := NewSampler(2.0, 5)
	assert.NoError(t, err)

	// An hour of footage still yields at most five frames.
	source := &fakeFrameSource{rate: 30, total: 30 * 3600}
	frames, err := sampler.Sample(source)
	assert.NoError(t, err)
	assert.Len(t, frames, 5)
}

func TestSamplerShortVideoYieldsFewerFrames(t *testing.T) {
	sampler, err := NewSampler(2.0, 5)
	assert.NoError(t, err)

	// 3 seconds at 30fps covers buckets 0 and 1 only.
	source := &fakeFrameSource{rate: 30, total: 90}
	frames, err := sampler.Sample(source)
	assert.NoError(t, err)
	assert.Len(t, frames, 2)
}

func TestSamplerEmptyStreamYieldsEmptySlice(t *testing.T) {
	sampler, err := NewSampler(2.0, 5)
	assert.NoError(t, err)

	frames, err := sampler.Sample(&fakeFrameSource{rate: 30, total: 0})
	assert.NoError(t, err)
	assert.Empty(t, frames)
}

func TestSamplerUsesFallbackRateForUnknownRate(t *testing.T) {
	sampler, err := NewSampler(2.0, 5)
	assert.NoError(t, err)

	// Rate 0 falls back to 30fps, so 60 frames span one bucket boundary.
	source := &fakeFrameSource{rate: 0, total: 90}
	frames, err := sampler.Sample(source)
	assert.NoError(t, err)
	assert.Len(t, frames, 2)
}

func TestNewSamplerRejectsInvalidParameters(t *testing.T) {
	_, err := NewSampler(0, 5)
	assert.Error(t, err)
	_, err = NewSampler(-1, 5)
	assert.Error(t, err)
	_, err = NewSampler(2.0, 0)
	assert.Error(t, err)
}
