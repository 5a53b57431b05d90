//go:build integration

package esindex

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
)

var testClient *elasticsearch.Client

func TestMain(m *testing.M) {
	addr := os.Getenv("ELASTICSEARCH_URL")
	if addr == "" {
		addr = "http://localhost:9200"
	}

	var err error
	testClient, err = elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{addr},
	})
	if err != nil {
		fmt.Printf("creating ES client: %v\n", err)
		os.Exit(1)
	}

	res, err := testClient.Ping()
	if err != nil {
		fmt.Printf("Elasticsearch not available: %v\n", err)
		os.Exit(1)
	}
	res.Body.Close()

	os.Exit(m.Run())
}

// newBlogIndex builds the index configuration used across the
// integration tests.
func newBlogIndex(t *testing.T, name string) *Index {
	t.Helper()

	i := New(name, WithClient(testClient))
	i.Settings(map[string]any{
		"number_of_shards":   1,
		"number_of_replicas": 0,
	})
	if err := i.Analyzer(NewAnalyzer("folded", "standard", "lowercase", "asciifolding")); err != nil {
		t.Fatalf("Analyzer() error: %v", err)
	}
	if err := i.Document(NewSchema("post").
		Field("title", Text().Analyzer("folded")).
		Field("published_from", Date())); err != nil {
		t.Fatalf("Document() error: %v", err)
	}
	return i
}

func TestIndexLifecycle(t *testing.T) {
	ctx := context.Background()
	i := newBlogIndex(t, "esindex-it-blog")
	t.Cleanup(func() { i.Delete(ctx) })

	if err := i.Delete(ctx); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	if err := i.Create(ctx); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	exists, err := i.Exists(ctx)
	if err != nil {
		t.Fatalf("Exists() error: %v", err)
	}
	if !exists {
		t.Fatal("index should exist after Create")
	}

	docs := []Document{
		{ID: "1", Body: map[string]any{"title": "Motörhead live", "published_from": "2024-01-01"}},
		{ID: "2", Body: map[string]any{"title": "Quiet evening", "published_from": "2024-02-01"}},
	}
	if err := i.Bulk(ctx, docs); err != nil {
		t.Fatalf("Bulk() error: %v", err)
	}
	if err := i.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}

	// The folded analyzer should match despite the umlaut.
	result, err := i.Search().
		Query(map[string]any{"match": map[string]any{"title": "motorhead"}}).
		Do(ctx)
	if err != nil {
		t.Fatalf("Search().Do() error: %v", err)
	}
	if result.Total != 1 {
		t.Errorf("expected 1 hit, got %d", result.Total)
	}
	if len(result.Hits) == 1 && result.Hits[0].ID != "1" {
		t.Errorf("hit ID = %q, want 1", result.Hits[0].ID)
	}

	tokens, err := i.Analyze(ctx, "folded", "Motörhead")
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if len(tokens) != 1 || tokens[0] != "motorhead" {
		t.Errorf("tokens = %v, want [motorhead]", tokens)
	}
}

func TestSaveUpdatesLiveIndex(t *testing.T) {
	ctx := context.Background()
	i := New("esindex-it-save", WithClient(testClient))
	i.Settings(map[string]any{"number_of_replicas": 0})
	t.Cleanup(func() { i.Delete(ctx) })

	if err := i.Delete(ctx); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	// First save creates the index.
	if err := i.Save(ctx); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	// Second save applies the new mapping to the live index.
	if err := i.Document(NewSchema("post").Field("title", Text())); err != nil {
		t.Fatalf("Document() error: %v", err)
	}
	if err := i.Save(ctx); err != nil {
		t.Fatalf("Save() after mapping change error: %v", err)
	}
}

func TestTemplateAppliesToNewIndices(t *testing.T) {
	ctx := context.Background()

	pattern := New("esindex-it-logs-*", WithClient(testClient))
	pattern.Settings(map[string]any{"number_of_replicas": 0})

	if err := pattern.AsTemplate("esindex-it-logs", WithOrder(1)).Save(ctx); err != nil {
		t.Fatalf("Template.Save() error: %v", err)
	}

	i := New("esindex-it-logs-2024", WithClient(testClient))
	t.Cleanup(func() { i.Delete(ctx) })

	if err := i.Delete(ctx); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if err := i.Create(ctx); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
}
