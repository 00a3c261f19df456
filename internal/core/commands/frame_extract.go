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

// Package commands provides the concrete pipeline steps of the triage
// workflows. This file defines the SAMPLING stage: decoding the fetched video
// into frames, keeping one frame per sampling interval, and preprocessing the
// kept frames into inline image payloads for the vision model.
//
// Sampling is sequential because the decoder emits frames in order, but
// preprocessing (resize plus JPEG re-encode) is CPU-bound and independent per
// frame, so it runs on a worker pool. Results carry their original index so
// the frames reach the vision model in chronological order regardless of
// which worker finished first.
package commands

import (
	"fmt"
	"log"
	"sync"

	"github.com/healthtriage/gcp-go-video-triage/internal/core/cor"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/media"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/model"
)

// NoFramesMessage is the terminal error reason recorded when the video yields
// no usable frames.
const NoFramesMessage = "no frames extracted"

// FrameSourceFactory opens a decoder for a local video file. Tests substitute
// synthetic sources here.
type FrameSourceFactory func(videoPath string) (media.FrameSource, error)

// FrameExtract samples the video and preprocesses the kept frames.
type FrameExtract struct {
	cor.BaseCommand
	sourceFactory   FrameSourceFactory
	sampler         *media.Sampler
	preprocessor    *media.Preprocessor
	numberOfWorkers int
}

// NewFrameExtract constructs the command. numberOfWorkers below one is raised
// to one.
func NewFrameExtract(
	name string,
	sourceFactory FrameSourceFactory,
	sampler *media.Sampler,
	preprocessor *media.Preprocessor,
	numberOfWorkers int) *FrameExtract {
	if numberOfWorkers < 1 {
		numberOfWorkers = 1
	}
	return &FrameExtract{
		BaseCommand:     *cor.NewBaseCommand(name),
		sourceFactory:   sourceFactory,
		sampler:         sampler,
		preprocessor:    preprocessor,
		numberOfWorkers: numberOfWorkers,
	}
}

// IsExecutable requires the fetched video's local path in the context.
func (c *FrameExtract) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(GetVideoPathParamName()) != nil
}

// frameJob carries one sampled frame to a preprocessing worker.
type frameJob struct {
	index int
	frame *model.Frame
}

// frameResult carries one preprocessed payload back, tagged with its
// chronological index.
type frameResult struct {
	index int
	image *model.InlineImage
	err   error
}

// Execute samples the video, preprocesses the frames concurrently, and stores
// the ordered payloads under the well-known frames key and the default output
// slot. A video that yields zero frames is a terminal failure.
func (c *FrameExtract) Execute(context cor.Context) {
	videoPath := context.Get(GetVideoPathParamName()).(string)

	source, err := c.sourceFactory(videoPath)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to open video %s: %w", videoPath, err))
		return
	}
	defer func() {
		if err := source.Close(); err != nil {
			log.Printf("failed to close frame source: %v", err)
		}
	}()

	frames, err := c.sampler.Sample(source)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to sample video %s: %w", videoPath, err))
		return
	}
	if len(frames) == 0 {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("%s from %s", NoFramesMessage, videoPath))
		return
	}

	jobs := make(chan *frameJob, len(frames))
	results := make(chan *frameResult, len(frames))

	var wg sync.WaitGroup
	for w := 0; w < c.numberOfWorkers; w++ {
		wg.Add(1)
		go c.preprocessWorker(jobs, results, &wg)
	}

	for i, frame := range frames {
		jobs <- &frameJob{index: i, frame: frame}
	}
	close(jobs)
	wg.Wait()
	close(results)

	ordered := make([]*model.InlineImage, len(frames))
	for r := range results {
		if r.err != nil {
			c.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(c.GetName(), fmt.Errorf("failed to preprocess frame %d: %w", r.index, r.err))
			return
		}
		ordered[r.index] = r.image
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	log.Printf("sampled %d frames from %s", len(ordered), videoPath)
	context.Add(GetFramesParamName(), ordered)
	context.Add(c.GetOutputParam(), ordered)
}

// preprocessWorker resizes and re-encodes frames until the jobs channel
// closes.
func (c *FrameExtract) preprocessWorker(jobs <-chan *frameJob, results chan<- *frameResult, wg *sync.WaitGroup) {
	defer wg.Done()
	for j := range jobs {
		payload, err := c.preprocessor.Encode(j.frame.Image)
		results <- &frameResult{index: j.index, image: payload, err: err}
	}
}
