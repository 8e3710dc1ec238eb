package ledger

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// OpenSearchConfig holds connection settings for the OpenSearch backend.
type OpenSearchConfig struct {
	URL           string `mapstructure:"url"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	TLSSkipVerify bool   `mapstructure:"tls_skip_verify"`
	IndexPrefix   string `mapstructure:"index_prefix"`
}

const outcomesMapping = `{
  "mappings": {
    "properties": {
      "event_id":    {"type": "keyword"},
      "detail_type": {"type": "keyword"},
      "source":      {"type": "keyword"},
      "outcome":     {"type": "keyword"},
      "attempt":     {"type": "integer"},
      "error":       {"type": "text"},
      "duration_ms": {"type": "long"},
      "recorded_at": {"type": "date"}
    }
  }
}`

// OpenSearch stores entries as documents in <prefix>-outcomes.
type OpenSearch struct {
	client *opensearch.Client
	index  string
}

// NewOpenSearch connects and makes sure the outcomes index exists.
func NewOpenSearch(ctx context.Context, cfg OpenSearchConfig) (*OpenSearch, error) {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.TLSSkipVerify},
	}
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create opensearch client: %w", err)
	}

	prefix := cfg.IndexPrefix
	if prefix == "" {
		prefix = "amesa-notify"
	}
	o := &OpenSearch{client: client, index: prefix + "-outcomes"}
	if err := o.ensureIndex(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

// Index returns the outcomes index name.
func (o *OpenSearch) Index() string { return o.index }

func (o *OpenSearch) ensureIndex(ctx context.Context) error {
	exists, err := o.client.Indices.Exists([]string{o.index}, o.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check outcomes index: %w", err)
	}
	defer exists.Body.Close()
	if exists.StatusCode == http.StatusOK {
		return nil
	}

	res, err := o.client.Indices.Create(o.index,
		o.client.Indices.Create.WithContext(ctx),
		o.client.Indices.Create.WithBody(strings.NewReader(outcomesMapping)),
	)
	if err != nil {
		return fmt.Errorf("create outcomes index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		// Another instance may have created it first.
		if strings.Contains(string(body), "resource_already_exists_exception") {
			return nil
		}
		return fmt.Errorf("create outcomes index: %s - %s", res.Status(), string(body))
	}
	return nil
}

func (o *OpenSearch) Record(ctx context.Context, entry Entry) error {
	body, err := json.Marshal(stamp(entry))
	if err != nil {
		return fmt.Errorf("marshal outcome: %w", err)
	}

	req := opensearchapi.IndexRequest{
		Index: o.index,
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, o.client)
	if err != nil {
		return fmt.Errorf("index outcome: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return fmt.Errorf("opensearch error: %s - %s", res.Status(), string(msg))
	}
	return nil
}

func (o *OpenSearch) ListByEvent(ctx context.Context, eventID string) ([]Entry, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"event_id": eventID},
		},
		"size": 100,
		"sort": []map[string]interface{}{
			{"recorded_at": map[string]string{"order": "asc"}},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search body: %w", err)
	}

	res, err := o.client.Search(
		o.client.Search.WithContext(ctx),
		o.client.Search.WithIndex(o.index),
		o.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search outcomes: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("opensearch error: %s - %s", res.Status(), string(msg))
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source Entry `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	entries := make([]Entry, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		entries = append(entries, hit.Source)
	}
	return entries, nil
}

func (o *OpenSearch) Close() error { return nil }
