package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"

	"content-tracker/internal/model"
)

const contentMapping = `{
	"mappings": {
		"properties": {
			"platform_id":     { "type": "keyword" },
			"author_username": { "type": "keyword" },
			"caption":         { "type": "text", "analyzer": "standard" },
			"video_url":       { "type": "keyword", "index": false },
			"cover_image_url": { "type": "keyword", "index": false },
			"created_at":      { "type": "date" }
		}
	}
}`

// ContentIndex keeps a searchable copy of every announced item in Elasticsearch.
// Documents are keyed by platform ID, so indexing the same item twice overwrites it.
type ContentIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewContentIndex(es *elasticsearch.Client, index string) *ContentIndex {
	return &ContentIndex{es: es, index: index}
}

func (r *ContentIndex) EnsureIndex(ctx context.Context) (err error) {
	exists, err := r.es.Indices.Exists([]string{r.index}, r.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return storeError("check index existence", err)
	}

	defer func() {
		if cErr := exists.Body.Close(); cErr != nil {
			err = fmt.Errorf("%w, failed to close response body: %w", err, cErr)
		}
	}()

	switch exists.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("unexpected status on exists: %s", exists.Status())
	}

	res, err := r.es.Indices.Create(
		r.index,
		r.es.Indices.Create.WithBody(strings.NewReader(contentMapping)),
		r.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return storeError("create index", err)
	}

	defer func() {
		if cErr := res.Body.Close(); cErr != nil {
			err = fmt.Errorf("%w, failed to close response body: %w", err, cErr)
		}
	}()

	// Another instance may have created it between the two calls.
	if res.IsError() && !strings.Contains(res.String(), "resource_already_exists_exception") {
		return fmt.Errorf("index creation failed: %s", res.String())
	}

	return nil
}

func (r *ContentIndex) Index(ctx context.Context, content model.DiscoveredContent) (err error) {
	data, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to marshal content: %w", err)
	}

	res, err := r.es.Index(
		r.index,
		bytes.NewReader(data),
		r.es.Index.WithDocumentID(content.PlatformID),
		r.es.Index.WithContext(ctx),
	)
	if err != nil {
		return storeError("index content", err)
	}

	defer func() {
		if cErr := res.Body.Close(); cErr != nil {
			err = fmt.Errorf("%w, failed to close response body: %w", err, cErr)
		}
	}()

	if res.IsError() {
		if res.StatusCode >= http.StatusInternalServerError || res.StatusCode == http.StatusTooManyRequests {
			return storeError("index content", fmt.Errorf("%s", res.String()))
		}

		return fmt.Errorf("failed to index content %s: %s", content.PlatformID, res.String())
	}

	return nil
}

// Search matches captions, optionally restricted to one author, newest first.
func (r *ContentIndex) Search(ctx context.Context, query, author string, size int) (hits []model.ContentSearchHit, err error) {
	must := []any{}
	if query != "" {
		must = append(must, map[string]any{"match": map[string]any{"caption": query}})
	}

	filter := []any{}
	if author != "" {
		filter = append(filter, map[string]any{"term": map[string]any{"author_username": author}})
	}

	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{"must": must, "filter": filter},
		},
		"highlight": map[string]any{
			"pre_tags":  []string{"<em>"},
			"post_tags": []string{"</em>"},
			"fields":    map[string]any{"caption": struct{}{}},
		},
		"sort": []any{map[string]any{"created_at": map[string]string{"order": "desc"}}},
	}

	if size > 0 {
		body["size"] = size
	}

	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode search body: %w", err)
	}

	res, err := r.es.Search(
		r.es.Search.WithContext(ctx),
		r.es.Search.WithIndex(r.index),
		r.es.Search.WithBody(buf),
	)
	if err != nil {
		return nil, storeError("search content", err)
	}

	defer func() {
		if cErr := res.Body.Close(); cErr != nil {
			err = fmt.Errorf("%w, failed to close response body: %w", err, cErr)
		}
	}()

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.String())
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source    model.DiscoveredContent `json:"_source"`
				Highlight map[string][]string     `json:"highlight,omitempty"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	hits = make([]model.ContentSearchHit, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		hits = append(hits, model.ContentSearchHit{Content: hit.Source, Highlight: hit.Highlight})
	}

	return hits, nil
}
