package esindex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/elastic/go-elasticsearch/v8/esutil"
)

// Document is a single document payload for Bulk loading.
type Document struct {
	ID   string         // optional; empty means server-generated
	Body map[string]any // document source
}

var errNoClient = errors.New("esindex: no client configured, use WithClient")

// Create creates the index on the cluster with the accumulated
// mappings, settings and aliases.
func (i *Index) Create(ctx context.Context) error {
	if i.client == nil {
		return errNoClient
	}

	var opts []func(*esapi.IndicesCreateRequest)
	if body := i.ToMap(); len(body) > 0 {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("esindex: encoding body for %q: %w", i.name, err)
		}
		opts = append(opts, i.client.Indices.Create.WithBody(bytes.NewReader(payload)))
	}
	opts = append(opts, i.client.Indices.Create.WithContext(ctx))

	res, err := i.client.Indices.Create(i.name, opts...)
	if err != nil {
		return fmt.Errorf("esindex: creating index %q: %w", i.name, err)
	}
	defer res.Body.Close()

	if err := checkResponse(res); err != nil {
		return fmt.Errorf("esindex: creating index %q: %w", i.name, err)
	}

	return nil
}

// Delete deletes the index. A missing index is not an error.
func (i *Index) Delete(ctx context.Context) error {
	if i.client == nil {
		return errNoClient
	}

	res, err := i.client.Indices.Delete(
		[]string{i.name},
		i.client.Indices.Delete.WithContext(ctx),
		i.client.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return fmt.Errorf("esindex: deleting index %q: %w", i.name, err)
	}
	defer res.Body.Close()

	if err := checkResponse(res); err != nil {
		return fmt.Errorf("esindex: deleting index %q: %w", i.name, err)
	}

	return nil
}

// Exists reports whether the index is present on the cluster.
func (i *Index) Exists(ctx context.Context) (bool, error) {
	if i.client == nil {
		return false, errNoClient
	}

	res, err := i.client.Indices.Exists(
		[]string{i.name},
		i.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, fmt.Errorf("esindex: checking index %q: %w", i.name, err)
	}
	defer res.Body.Close()
	io.Copy(io.Discard, res.Body)

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("esindex: checking index %q: unexpected status %s", i.name, res.Status())
	}
}

// Refresh forces a refresh so indexed documents become searchable.
func (i *Index) Refresh(ctx context.Context) error {
	if i.client == nil {
		return errNoClient
	}

	res, err := i.client.Indices.Refresh(
		i.client.Indices.Refresh.WithIndex(i.name),
		i.client.Indices.Refresh.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("esindex: refreshing index %q: %w", i.name, err)
	}
	defer res.Body.Close()

	if err := checkResponse(res); err != nil {
		return fmt.Errorf("esindex: refreshing index %q: %w", i.name, err)
	}

	return nil
}

// Save pushes the configuration to the cluster: the index is created when
// absent; otherwise the merged mapping and the dynamic (non-analysis)
// settings are applied to the live index. Analysis cannot be changed on an
// open index and is excluded from the update path.
func (i *Index) Save(ctx context.Context) error {
	exists, err := i.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return i.Create(ctx)
	}

	if props := i.mapping(); len(props) > 0 {
		if err := i.putMapping(ctx, props); err != nil {
			return err
		}
	}
	if len(i.settings) > 0 {
		if err := i.putSettings(ctx, copyMap(i.settings)); err != nil {
			return err
		}
	}

	return nil
}

func (i *Index) putMapping(ctx context.Context, props map[string]any) error {
	payload, err := json.Marshal(map[string]any{"properties": props})
	if err != nil {
		return fmt.Errorf("esindex: encoding mapping for %q: %w", i.name, err)
	}

	res, err := i.client.Indices.PutMapping(
		[]string{i.name},
		bytes.NewReader(payload),
		i.client.Indices.PutMapping.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("esindex: updating mapping for %q: %w", i.name, err)
	}
	defer res.Body.Close()

	if err := checkResponse(res); err != nil {
		return fmt.Errorf("esindex: updating mapping for %q: %w", i.name, err)
	}

	return nil
}

func (i *Index) putSettings(ctx context.Context, settings map[string]any) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("esindex: encoding settings for %q: %w", i.name, err)
	}

	res, err := i.client.Indices.PutSettings(
		bytes.NewReader(payload),
		i.client.Indices.PutSettings.WithIndex(i.name),
		i.client.Indices.PutSettings.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("esindex: updating settings for %q: %w", i.name, err)
	}
	defer res.Body.Close()

	if err := checkResponse(res); err != nil {
		return fmt.Errorf("esindex: updating settings for %q: %w", i.name, err)
	}

	return nil
}

// Analyze runs text through the named analyzer in the context of this
// index and returns the produced tokens.
func (i *Index) Analyze(ctx context.Context, analyzer, text string) ([]string, error) {
	if i.client == nil {
		return nil, errNoClient
	}

	payload, err := json.Marshal(map[string]any{
		"analyzer": analyzer,
		"text":     text,
	})
	if err != nil {
		return nil, fmt.Errorf("esindex: encoding analyze request: %w", err)
	}

	res, err := i.client.Indices.Analyze(
		i.client.Indices.Analyze.WithIndex(i.name),
		i.client.Indices.Analyze.WithBody(bytes.NewReader(payload)),
		i.client.Indices.Analyze.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("esindex: analyzing with %q: %w", analyzer, err)
	}
	defer res.Body.Close()

	if err := checkResponse(res); err != nil {
		return nil, fmt.Errorf("esindex: analyzing with %q: %w", analyzer, err)
	}

	var result struct {
		Tokens []struct {
			Token string `json:"token"`
		} `json:"tokens"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("esindex: decoding analyze response: %w", err)
	}

	tokens := make([]string, len(result.Tokens))
	for n, t := range result.Tokens {
		tokens[n] = t.Token
	}
	return tokens, nil
}

// Bulk loads documents into the index using a BulkIndexer.
func (i *Index) Bulk(ctx context.Context, docs []Document) error {
	if i.client == nil {
		return errNoClient
	}
	if len(docs) == 0 {
		return nil
	}

	indexer, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client: i.client,
		Index:  i.name,
	})
	if err != nil {
		return fmt.Errorf("esindex: creating bulk indexer for %q: %w", i.name, err)
	}

	var bulkErrors []string
	for _, doc := range docs {
		body, err := json.Marshal(doc.Body)
		if err != nil {
			return fmt.Errorf("esindex: marshaling document: %w", err)
		}

		item := esutil.BulkIndexerItem{
			Action: "index",
			Body:   bytes.NewReader(body),
			OnFailure: func(_ context.Context, _ esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				if err != nil {
					bulkErrors = append(bulkErrors, err.Error())
				} else {
					bulkErrors = append(bulkErrors, fmt.Sprintf("[%d] %s: %s", res.Status, res.Error.Type, res.Error.Reason))
				}
			},
		}

		if doc.ID != "" {
			item.DocumentID = doc.ID
		}

		if err := indexer.Add(ctx, item); err != nil {
			return fmt.Errorf("esindex: adding document to bulk indexer: %w", err)
		}
	}

	if err := indexer.Close(ctx); err != nil {
		return fmt.Errorf("esindex: closing bulk indexer for %q: %w", i.name, err)
	}

	if len(bulkErrors) > 0 {
		return fmt.Errorf("esindex: bulk insert errors for %q: %s", i.name, strings.Join(bulkErrors, "; "))
	}

	stats := indexer.Stats()
	if stats.NumFailed > 0 {
		return fmt.Errorf("esindex: bulk insert for %q: %d documents failed", i.name, stats.NumFailed)
	}

	return nil
}

// checkResponse checks an Elasticsearch API response for errors.
func checkResponse(res *esapi.Response) error {
	if !res.IsError() {
		return nil
	}

	body, _ := io.ReadAll(res.Body)
	return fmt.Errorf("elasticsearch error [%s]: %s", res.Status(), string(body))
}
