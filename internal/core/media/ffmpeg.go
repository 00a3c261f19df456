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
// analysis pipeline. This file provides the production FrameSource backed by
// the ffmpeg and ffprobe binaries.
//
// The decoder runs ffmpeg with an MJPEG image2pipe output and splits the byte
// stream on JPEG SOI/EOI markers, decoding one image per call to Next. The
// frame rate is probed separately with ffprobe; a missing or unparsable rate
// is reported as zero and the sampler substitutes its fallback.
package media

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// Default binary names. Resolved through PATH unless overridden.
const (
	DefaultFFmpegPath  = "ffmpeg"
	DefaultFFprobePath = "ffprobe"
)

// jpegSOI and jpegEOI are the JPEG start-of-image and end-of-image markers
// used to split the MJPEG pipe into individual frames.
var (
	jpegSOI = []byte{0xFF, 0xD8}
	jpegEOI = []byte{0xFF, 0xD9}
)

// FFmpegFrameSource decodes frames from a local video file by streaming MJPEG
// output from an ffmpeg child process.
type FFmpegFrameSource struct {
	cmd       *exec.Cmd
	stdout    io.ReadCloser
	reader    *bufio.Reader
	frameRate float64
	pending   bytes.Buffer
}

// NewFFmpegFrameSource probes the file's frame rate and starts the decoding
// process. The returned source must be closed by the caller.
func NewFFmpegFrameSource(ffmpegPath string, ffprobePath string, videoPath string) (*FFmpegFrameSource, error) {
	if ffmpegPath == "" {
		ffmpegPath = DefaultFFmpegPath
	}
	if ffprobePath == "" {
		ffprobePath = DefaultFFprobePath
	}

	frameRate := probeFrameRate(ffprobePath, videoPath)

	cmd := exec.Command(ffmpegPath,
		"-hide_banner",
		"-loglevel", "error",
		"-i", videoPath,
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", "2",
		"pipe:1",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	return &FFmpegFrameSource{
		cmd:       cmd,
		stdout:    stdout,
		reader:    bufio.NewReaderSize(stdout, 1<<20),
		frameRate: frameRate,
	}, nil
}

// FrameRate returns the probed frame rate, or zero when ffprobe could not
// determine one.
func (s *FFmpegFrameSource) FrameRate() float64 {
	return s.frameRate
}

// Next reads the pipe until a complete JPEG is buffered, then decodes it.
// Returns io.EOF once ffmpeg has emitted its last frame.
func (s *FFmpegFrameSource) Next() (image.Image, error) {
	for {
		if frame := s.takeFrame(); frame != nil {
			img, err := jpeg.Decode(bytes.NewReader(frame))
			if err != nil {
				return nil, fmt.Errorf("failed to decode mjpeg frame: %w", err)
			}
			return img, nil
		}

		chunk := make([]byte, 64*1024)
		n, err := s.reader.Read(chunk)
		if n > 0 {
			s.pending.Write(chunk[:n])
			continue
		}
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("failed to read ffmpeg output: %w", err)
		}
	}
}

// takeFrame extracts one complete SOI..EOI delimited JPEG from the pending
// buffer, or returns nil when no complete frame is buffered yet.
func (s *FFmpegFrameSource) takeFrame() []byte {
	buf := s.pending.Bytes()
	start := bytes.Index(buf, jpegSOI)
	if start < 0 {
		return nil
	}
	end := bytes.Index(buf[start:], jpegEOI)
	if end < 0 {
		return nil
	}
	end = start + end + len(jpegEOI)
	frame := make([]byte, end-start)
	copy(frame, buf[start:end])
	s.pending.Next(end)
	return frame
}

// Close terminates the ffmpeg process and releases the pipe.
func (s *FFmpegFrameSource) Close() error {
	_ = s.stdout.Close()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	// Wait reaps the child; the error is expected after Kill.
	_ = s.cmd.Wait()
	return nil
}

// probeFrameRate asks ffprobe for the video stream's average frame rate.
// Returns zero on any failure so the caller can apply the fallback rate.
func probeFrameRate(ffprobePath string, videoPath string) float64 {
	cmd := exec.Command(ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=avg_frame_rate",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0
	}
	return ParseFrameRate(strings.TrimSpace(string(out)))
}

// ParseFrameRate parses ffprobe's rational frame rate notation ("30000/1001",
// "25/1") or a bare decimal. Returns zero for anything unparsable or
// non-positive.
func ParseFrameRate(in string) float64 {
	if in == "" || in == "0/0" {
		return 0
	}
	if num, den, ok := strings.Cut(in, "/"); ok {
		n, errN := strconv.ParseFloat(num, 64)
		d, errD := strconv.ParseFloat(den, 64)
		if errN != nil || errD != nil || d == 0 {
			return 0
		}
		if rate := n / d; rate > 0 {
			return rate
		}
		return 0
	}
	rate, err := strconv.ParseFloat(in, 64)
	if err != nil || rate <= 0 {
		return 0
	}
	return rate
}
