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

// Package services contains the business logic for interacting with data
// sources. This file defines the video access service, which turns a
// request's private gs:// locator into a time-limited signed URL so a
// clinician's browser can stream the video without holding GCS credentials.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
)

// DefaultSignedURLExpiry bounds how long a playback link stays valid.
const DefaultSignedURLExpiry = 15 * time.Minute

// VideoService generates signed playback URLs for stored triage videos.
type VideoService struct {
	StorageClient *storage.Client
	IAMClient     *credentials.IamCredentialsClient
	SignerEmail   string
}

// NewVideoService constructs the service. SignerEmail is the service account
// whose IAM identity signs the URLs.
func NewVideoService(storageClient *storage.Client, iamClient *credentials.IamCredentialsClient, signerEmail string) *VideoService {
	return &VideoService{
		StorageClient: storageClient,
		IAMClient:     iamClient,
		SignerEmail:   signerEmail,
	}
}

// GenerateSignedURL creates a V4 signed GET URL for a gs://bucket/object
// locator. Signing goes through the IAM Credentials API so no private key
// material is ever present on the serving host.
func (s *VideoService) GenerateSignedURL(ctx context.Context, gcsURI string, expires time.Duration) (string, error) {
	if !strings.HasPrefix(gcsURI, "gs://") {
		return "", fmt.Errorf("invalid GCS URI format: %s", gcsURI)
	}
	path := strings.TrimPrefix(gcsURI, "gs://")
	bucketName, objectName, ok := strings.Cut(path, "/")
	if !ok || bucketName == "" || objectName == "" {
		return "", fmt.Errorf("invalid GCS URI: unable to determine bucket and object from %s", gcsURI)
	}

	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        time.Now().Add(expires),
		GoogleAccessID: s.SignerEmail,
		SignBytes: func(b []byte) ([]byte, error) {
			req := &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", s.SignerEmail),
				Payload: b,
			}
			resp, err := s.IAMClient.SignBlob(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("IAMClient.SignBlob: %w", err)
			}
			return resp.SignedBlob, nil
		},
	}

	u, err := s.StorageClient.Bucket(bucketName).SignedURL(objectName, opts)
	if err != nil {
		return "", fmt.Errorf("Bucket(%q).Object(%q).SignedURL: %w", bucketName, objectName, err)
	}
	return u, nil
}
