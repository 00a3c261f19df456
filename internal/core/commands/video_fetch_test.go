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

package commands

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/healthtriage/gcp-go-video-triage/internal/cloud"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/cor"
)

func newFetchContext(videoUrl string) cor.Context {
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, &cloud.TriageCreatedEvent{
		RequestId: "req-1",
		PatientId: "p-1",
		VideoUrl:  videoUrl,
	})
	return chainCtx
}

func TestVideoFetchUsesLocalPathDirectly(t *testing.T) {
	dir := t.TempDir()
	videoPath := filepath.Join(dir, "sample.mp4")
	assert.NoError(t, os.WriteFile(videoPath, []byte("not a real video"), 0o600))

	cmd := NewVideoFetch("fetch-video", nil, nil, "triage-video-")
	chainCtx := newFetchContext(videoPath)
	defer chainCtx.Close()

	cmd.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, videoPath, chainCtx.Get(GetVideoPathParamName()))
	// A caller-owned local file is never tracked for cleanup.
	assert.Empty(t, chainCtx.GetTempFiles())
}

func TestVideoFetchMissingLocalPathFails(t *testing.T) {
	cmd := NewVideoFetch("fetch-video", nil, nil, "triage-video-")
	chainCtx := newFetchContext("/nonexistent/video.mp4")
	defer chainCtx.Close()

	cmd.Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
	err := chainCtx.GetErrors()["fetch-video"]
	assert.Contains(t, err.Error(), FetchFailureMessage)
}

func TestVideoFetchHTTPRejectsNonVideoPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>404</body></html>"))
	}))
	defer srv.Close()

	cmd := NewVideoFetch("fetch-video", nil, srv.Client(), "triage-video-")
	chainCtx := newFetchContext(srv.URL + "/video.mp4")
	defer chainCtx.Close()

	cmd.Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
	err := chainCtx.GetErrors()["fetch-video"]
	assert.Contains(t, err.Error(), FetchFailureMessage)
}

func TestVideoFetchHTTPErrorStatusFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cmd := NewVideoFetch("fetch-video", nil, srv.Client(), "triage-video-")
	chainCtx := newFetchContext(srv.URL + "/video.mp4")
	defer chainCtx.Close()

	cmd.Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
	err := chainCtx.GetErrors()["fetch-video"]
	assert.Contains(t, err.Error(), FetchFailureMessage)
}

func TestVideoFetchDownloadsValidMP4(t *testing.T) {
	// Minimal bytes with the ftyp box signature that the sniffer accepts as
	// an mp4 container.
	payload := append([]byte{0x00, 0x00, 0x00, 0x18}, []byte("ftypisom")...)
	payload = append(payload, make([]byte, 300)...)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	cmd := NewVideoFetch("fetch-video", nil, srv.Client(), "triage-video-")
	chainCtx := newFetchContext(srv.URL + "/video.mp4")
	defer chainCtx.Close()

	cmd.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	localPath, ok := chainCtx.Get(GetVideoPathParamName()).(string)
	assert.True(t, ok)
	assert.FileExists(t, localPath)
	// The downloaded copy is tracked and reclaimed by the context.
	assert.Equal(t, []string{localPath}, chainCtx.GetTempFiles())
}
