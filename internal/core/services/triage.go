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
// sources. This file defines the triage record store backed by Firestore.
//
// The request document is the only shared mutable state in the system, so
// every write here is a single-document operation: Firestore's per-document
// atomicity is what keeps the PENDING to PROCESSING to terminal transitions
// observable in order without any explicit locking.
package services

import (
	"context"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/healthtriage/gcp-go-video-triage/internal/core/model"
)

// TriageStore is the persistence contract for triage request records.
type TriageStore interface {
	// Get retrieves one request by its document id.
	Get(ctx context.Context, requestId string) (*model.TriageRequest, error)

	// Create writes a new request record. The document id is the request id.
	Create(ctx context.Context, request *model.TriageRequest) error

	// SetStatus updates only the status and the updated timestamp.
	SetStatus(ctx context.Context, requestId string, status model.RequestStatus) error

	// Complete writes the terminal status, the full analysis result, and the
	// derived priority in one update.
	Complete(ctx context.Context, requestId string, status model.RequestStatus, result *model.AnalysisResult, priority model.Priority) error

	// ListByPatient returns all requests submitted by one patient, newest
	// first.
	ListByPatient(ctx context.Context, patientId string) ([]*model.TriageRequest, error)

	// ListQueue returns completed requests ordered by clinical priority for
	// the review queue.
	ListQueue(ctx context.Context) ([]*model.TriageRequest, error)
}

// FirestoreTriageService is the Firestore-backed TriageStore.
type FirestoreTriageService struct {
	Client     *firestore.Client
	Collection string
}

var _ TriageStore = (*FirestoreTriageService)(nil)

// NewFirestoreTriageService constructs the store over the given collection.
func NewFirestoreTriageService(client *firestore.Client, collection string) *FirestoreTriageService {
	return &FirestoreTriageService{Client: client, Collection: collection}
}

func (s *FirestoreTriageService) doc(requestId string) *firestore.DocumentRef {
	return s.Client.Collection(s.Collection).Doc(requestId)
}

// Get retrieves one request record by id.
func (s *FirestoreTriageService) Get(ctx context.Context, requestId string) (*model.TriageRequest, error) {
	snapshot, err := s.doc(requestId).Get(ctx)
	if err != nil {
		return nil, err
	}
	request := &model.TriageRequest{}
	if err := snapshot.DataTo(request); err != nil {
		return nil, err
	}
	return request, nil
}

// Create writes a new request record with server-side timestamps.
func (s *FirestoreTriageService) Create(ctx context.Context, request *model.TriageRequest) error {
	_, err := s.doc(request.RequestId).Set(ctx, request)
	return err
}

// SetStatus writes the status transition and refreshes the updated timestamp.
func (s *FirestoreTriageService) SetStatus(ctx context.Context, requestId string, status model.RequestStatus) error {
	_, err := s.doc(requestId).Update(ctx, []firestore.Update{
		{Path: "status", Value: status},
		{Path: "updated_at", Value: firestore.ServerTimestamp},
	})
	return err
}

// Complete writes the terminal state in one update so readers never observe a
// result without its status and priority.
func (s *FirestoreTriageService) Complete(ctx context.Context, requestId string, status model.RequestStatus, result *model.AnalysisResult, priority model.Priority) error {
	_, err := s.doc(requestId).Update(ctx, []firestore.Update{
		{Path: "status", Value: status},
		{Path: "analysis_result", Value: result},
		{Path: "priority", Value: priority},
		{Path: "updated_at", Value: firestore.ServerTimestamp},
	})
	return err
}

// ListByPatient returns one patient's requests, newest first.
func (s *FirestoreTriageService) ListByPatient(ctx context.Context, patientId string) ([]*model.TriageRequest, error) {
	itr := s.Client.Collection(s.Collection).
		Where("patient_id", "==", patientId).
		OrderBy("created_at", firestore.Desc).
		Documents(ctx)
	return collect(itr)
}

// ListQueue returns completed requests for clinician review. Priority is a
// label, not a sortable value, so the store sorts by clinical rank after the
// query rather than asking Firestore to order lexicographically.
func (s *FirestoreTriageService) ListQueue(ctx context.Context) ([]*model.TriageRequest, error) {
	itr := s.Client.Collection(s.Collection).
		Where("status", "==", model.StatusCompleted).
		Documents(ctx)
	requests, err := collect(itr)
	if err != nil {
		return nil, err
	}
	sortByClinicalPriority(requests)
	return requests, nil
}

// sortByClinicalPriority orders requests most urgent first. Within a priority
// band, older submissions come first.
func sortByClinicalPriority(requests []*model.TriageRequest) {
	sort.SliceStable(requests, func(i, j int) bool {
		ri, rj := priorityRank(requests[i].Priority), priorityRank(requests[j].Priority)
		if ri != rj {
			return ri < rj
		}
		return requests[i].CreatedAt.Before(requests[j].CreatedAt)
	})
}

// priorityRank maps priorities to queue order, most urgent first.
func priorityRank(p model.Priority) int {
	switch p {
	case model.PriorityCritical:
		return 0
	case model.PriorityModerate:
		return 1
	case model.PriorityLow:
		return 2
	}
	return 1
}

// collect drains a document iterator into typed request records.
func collect(itr *firestore.DocumentIterator) ([]*model.TriageRequest, error) {
	defer itr.Stop()

	out := make([]*model.TriageRequest, 0)
	for {
		snapshot, err := itr.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		request := &model.TriageRequest{}
		if err := snapshot.DataTo(request); err != nil {
			return nil, err
		}
		out = append(out, request)
	}
	return out, nil
}
