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

// Package citations restricts web search results to credible medical sources.
// This file wraps the Google Custom Search API as the search collaborator and
// applies the allow-list filter to its results. The core consumes the
// provider's ranking as-is.
package citations

import (
	"context"
	"fmt"

	customsearch "google.golang.org/api/customsearch/v1"

	"github.com/healthtriage/gcp-go-video-triage/internal/core/model"
)

// Searcher retrieves candidate results for a query, capped at maxResults.
// Implementations may fail with a provider error; filtering is left to the
// caller.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]*model.Citation, error)
}

// CustomSearchService is the production Searcher backed by Google Custom
// Search with a programmable search engine scoped to the web.
type CustomSearchService struct {
	service  *customsearch.Service
	engineId string
}

// NewCustomSearchService wraps an initialized customsearch service and the
// programmable search engine ID to query.
func NewCustomSearchService(service *customsearch.Service, engineId string) *CustomSearchService {
	return &CustomSearchService{service: service, engineId: engineId}
}

// Search runs the query and maps raw items to untagged citations. The
// provider caps a single page at ten results.
func (s *CustomSearchService) Search(ctx context.Context, query string, maxResults int) ([]*model.Citation, error) {
	if maxResults <= 0 || maxResults > 10 {
		maxResults = 10
	}
	resp, err := s.service.Cse.List().
		Q(query).
		Cx(s.engineId).
		Num(int64(maxResults)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("custom search failed for query %q: %w", query, err)
	}

	out := make([]*model.Citation, 0, len(resp.Items))
	for _, item := range resp.Items {
		out = append(out, &model.Citation{
			Title:   item.Title,
			Url:     item.Link,
			Snippet: item.Snippet,
		})
	}
	return out, nil
}

// FilterAndTag applies the allow-list membership test to raw results and
// stamps the accepted ones with their source tag, preserving provider order.
func FilterAndTag(results []*model.Citation) []*model.Citation {
	out := make([]*model.Citation, 0, len(results))
	for _, r := range results {
		if !Accept(r.Title, r.Url) {
			continue
		}
		out = append(out, &model.Citation{
			Title:     r.Title,
			Url:       r.Url,
			Snippet:   r.Snippet,
			SourceTag: SourceTag(r.Url),
		})
	}
	return out
}
