// audit/archive.go
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/smplabs/warden/model"
)

const archiveIndex = "auth-events"

// Archiver ships events to long-term searchable storage. The hot
// decision log in Redis is capped; the archive is not.
type Archiver interface {
	IndexEvent(ctx context.Context, event model.AuthEvent) error
	SearchEvents(ctx context.Context, from, to time.Time, userID, resourceID string) ([]model.AuthEvent, error)
}

type ElasticsearchArchiver struct {
	esClient *elasticsearch.Client
}

var _ Archiver = (*ElasticsearchArchiver)(nil)

// NewElasticsearchArchiver creates an archiver against the given Elasticsearch URL.
func NewElasticsearchArchiver(esURL string) (*ElasticsearchArchiver, error) {
	esClient, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{esURL},
	})
	if err != nil {
		return nil, err
	}
	return &ElasticsearchArchiver{esClient: esClient}, nil
}

// IndexEvent writes one event to the archive index.
func (a *ElasticsearchArchiver) IndexEvent(ctx context.Context, event model.AuthEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      archiveIndex,
		DocumentID: event.ID,
		Body:       strings.NewReader(string(data)),
	}

	res, err := req.Do(ctx, a.esClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing event: %s", res.String())
	}
	return nil
}

// SearchEvents queries the archive within a time frame, optionally
// filtered by user and resource.
func (a *ElasticsearchArchiver) SearchEvents(ctx context.Context, from, to time.Time, userID, resourceID string) ([]model.AuthEvent, error) {
	must := []any{
		map[string]any{
			"range": map[string]any{
				"timestamp": map[string]any{
					"gte": from.Format(time.RFC3339),
					"lte": to.Format(time.RFC3339),
				},
			},
		},
	}
	if userID != "" {
		must = append(must, map[string]any{
			"match": map[string]any{"userId": userID},
		})
	}
	if resourceID != "" {
		must = append(must, map[string]any{
			"match": map[string]any{"resourceId": resourceID},
		})
	}

	query := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{"must": must},
		},
	}

	var buf strings.Builder
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, err
	}

	res, err := a.esClient.Search(
		a.esClient.Search.WithContext(ctx),
		a.esClient.Search.WithIndex(archiveIndex),
		a.esClient.Search.WithBody(strings.NewReader(buf.String())),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error searching events: %s", res.String())
	}

	var rmap map[string]any
	if err := json.NewDecoder(res.Body).Decode(&rmap); err != nil {
		return nil, err
	}

	hitsWrapper, _ := rmap["hits"].(map[string]any)
	hits, _ := hitsWrapper["hits"].([]any)

	events := make([]model.AuthEvent, 0, len(hits))
	for _, hit := range hits {
		doc, ok := hit.(map[string]any)
		if !ok {
			continue
		}
		data, err := json.Marshal(doc["_source"])
		if err != nil {
			continue
		}
		var event model.AuthEvent
		if err := json.Unmarshal(data, &event); err != nil {
			continue
		}
		events = append(events, event)
	}
	return events, nil
}
