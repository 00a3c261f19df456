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
// workflows. This file defines the FETCHING stage: resolving the request's
// video locator to a local temporary file the decoder and the transcription
// endpoint can read.
//
// Three locator forms are supported: a gs:// object streamed through the
// storage client, an http(s) URL downloaded over the network, and a bare
// local path used as-is (no copy, not tracked for cleanup). Downloaded bytes
// are sniffed to confirm they are a video container; serving an HTML error
// page to ffmpeg produces far less useful diagnostics than rejecting it here.
package commands

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"

	"github.com/healthtriage/gcp-go-video-triage/internal/cloud"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/cor"
)

// FetchFailureMessage is the terminal error reason recorded when the video
// locator cannot be resolved to readable bytes.
const FetchFailureMessage = "failed to fetch video"

// VideoFetch resolves the event's video locator to a local file path.
type VideoFetch struct {
	cor.BaseCommand
	storageClient  *storage.Client
	httpClient     *http.Client
	tempFilePrefix string
}

// NewVideoFetch constructs the command. The http client may be nil, in which
// case the default client is used.
func NewVideoFetch(name string, storageClient *storage.Client, httpClient *http.Client, tempFilePrefix string) *VideoFetch {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &VideoFetch{
		BaseCommand:    *cor.NewBaseCommand(name),
		storageClient:  storageClient,
		httpClient:     httpClient,
		tempFilePrefix: tempFilePrefix,
	}
}

// Execute resolves the locator and stores the local path under the well-known
// video path key and the default output slot. Any failure is recorded with
// the fetch failure reason and ends the run.
func (c *VideoFetch) Execute(context cor.Context) {
	event := context.Get(c.GetInputParam()).(*cloud.TriageCreatedEvent)

	localPath, temporary, err := c.fetch(context, event.VideoUrl)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("%s: %w", FetchFailureMessage, err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	if temporary {
		context.AddTempFile(localPath)
	}
	context.Add(GetVideoPathParamName(), localPath)
	context.Add(c.GetOutputParam(), localPath)
}

// fetch dispatches on the locator scheme. The boolean reports whether the
// returned path is a temporary file owned by this run.
func (c *VideoFetch) fetch(context cor.Context, locator string) (string, bool, error) {
	switch {
	case strings.HasPrefix(locator, "gs://"):
		path, err := c.fetchGCS(context, locator)
		return path, true, err
	case strings.HasPrefix(locator, "http://"), strings.HasPrefix(locator, "https://"):
		path, err := c.fetchHTTP(context, locator)
		return path, true, err
	default:
		if _, err := os.Stat(locator); err != nil {
			return "", false, fmt.Errorf("video path %s not readable: %w", locator, err)
		}
		return locator, false, nil
	}
}

// fetchGCS streams a gs://bucket/object locator into a temp file.
func (c *VideoFetch) fetchGCS(context cor.Context, locator string) (string, error) {
	trimmed := strings.TrimPrefix(locator, "gs://")
	bucket, object, ok := strings.Cut(trimmed, "/")
	if !ok || bucket == "" || object == "" {
		return "", fmt.Errorf("malformed gcs locator: %s", locator)
	}

	reader, err := c.storageClient.Bucket(bucket).Object(object).NewReader(context.GetContext())
	if err != nil {
		return "", fmt.Errorf("failed to open gs://%s/%s: %w", bucket, object, err)
	}
	defer func(reader *storage.Reader) {
		if err := reader.Close(); err != nil {
			log.Printf("failed to close GCS reader: %v\n", err)
		}
	}(reader)

	return c.spool(reader)
}

// fetchHTTP downloads an http(s) locator into a temp file.
func (c *VideoFetch) fetchHTTP(context cor.Context, locator string) (string, error) {
	req, err := http.NewRequestWithContext(context.GetContext(), http.MethodGet, locator, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", locator, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download %s: status %d", locator, resp.StatusCode)
	}

	return c.spool(resp.Body)
}

// spool copies the stream to a new temp file and sniffs the leading bytes for
// a known video container signature.
func (c *VideoFetch) spool(reader io.Reader) (string, error) {
	tempFile, err := os.CreateTemp("", c.tempFilePrefix)
	if err != nil {
		return "", fmt.Errorf("could not create temp file: %w", err)
	}

	written, err := io.Copy(tempFile, reader)
	if err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempFile.Name())
		return "", fmt.Errorf("failed to copy video to local file, %d bytes written: %w", written, err)
	}
	if err := tempFile.Close(); err != nil {
		return "", err
	}

	head := make([]byte, 261)
	f, err := os.Open(tempFile.Name())
	if err != nil {
		return "", err
	}
	n, _ := io.ReadFull(f, head)
	_ = f.Close()

	kind, _ := filetype.Match(head[:n])
	if kind == filetype.Unknown || !isVideoType(kind.MIME.Value) {
		_ = os.Remove(tempFile.Name())
		return "", fmt.Errorf("fetched bytes are not a recognized video container (detected %q)", kind.MIME.Value)
	}

	log.Printf("fetched video to local file %s (%d bytes, %s)", tempFile.Name(), written, kind.MIME.Value)
	return tempFile.Name(), nil
}

// isVideoType accepts the container types patients actually upload.
func isVideoType(mime string) bool {
	switch mime {
	case matchers.TypeMp4.MIME.Value,
		matchers.TypeMov.MIME.Value,
		matchers.TypeWebm.MIME.Value,
		matchers.TypeAvi.MIME.Value,
		matchers.TypeMkv.MIME.Value,
		matchers.Type3gp.MIME.Value:
		return true
	}
	return strings.HasPrefix(mime, "video/")
}
