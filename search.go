package esindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
)

// Search builds a query scoped to one or more indices. Obtained from
// Index.Search, it carries the index's target name and registered schemas;
// query, paging and sort are added by chaining. ToMap is pure and may be
// called repeatedly; Do executes the request.
type Search struct {
	client  *elasticsearch.Client
	index   []string
	schemas []*Schema
	query   map[string]any
	size    *int
	from    *int
	sort    []string
}

// Index returns the target index list.
func (s *Search) Index() []string {
	return append([]string(nil), s.index...)
}

// Schemas returns the document schemas used for result typing.
func (s *Search) Schemas() []*Schema {
	return append([]*Schema(nil), s.schemas...)
}

// Query sets the query body, e.g. {"match": {"title": "go"}}.
func (s *Search) Query(query map[string]any) *Search {
	s.query = query
	return s
}

// Size limits the number of hits returned.
func (s *Search) Size(n int) *Search {
	s.size = &n
	return s
}

// From sets the hit offset for paging.
func (s *Search) From(n int) *Search {
	s.from = &n
	return s
}

// Sort appends sort clauses, e.g. "published_from:desc".
func (s *Search) Sort(fields ...string) *Search {
	s.sort = append(s.sort, fields...)
	return s
}

// ToMap serializes the request body. Unset parts are omitted.
func (s *Search) ToMap() map[string]any {
	body := make(map[string]any)
	if s.query != nil {
		body["query"] = copyMap(s.query)
	}
	if s.size != nil {
		body["size"] = *s.size
	}
	if s.from != nil {
		body["from"] = *s.from
	}
	return body
}

// Hit is a single search hit.
type Hit struct {
	ID     string         `json:"_id"`
	Index  string         `json:"_index"`
	Score  float64        `json:"_score"`
	Source map[string]any `json:"_source"`
}

// SearchResult is a decoded search response.
type SearchResult struct {
	Total int
	Hits  []Hit
}

// Do executes the search against the cluster.
func (s *Search) Do(ctx context.Context) (*SearchResult, error) {
	if s.client == nil {
		return nil, errNoClient
	}

	payload, err := json.Marshal(s.ToMap())
	if err != nil {
		return nil, fmt.Errorf("esindex: encoding search body: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index...),
		s.client.Search.WithBody(bytes.NewReader(payload)),
		s.client.Search.WithSort(s.sort...),
	)
	if err != nil {
		return nil, fmt.Errorf("esindex: searching %v: %w", s.index, err)
	}
	defer res.Body.Close()

	if err := checkResponse(res); err != nil {
		return nil, fmt.Errorf("esindex: searching %v: %w", s.index, err)
	}

	var decoded struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []Hit `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("esindex: decoding search response: %w", err)
	}

	return &SearchResult{
		Total: decoded.Hits.Total.Value,
		Hits:  decoded.Hits.Hits,
	}, nil
}
