package esindex

import "github.com/elastic/go-elasticsearch/v8"

// Option configures an Index at construction or clone time.
type Option func(*Index)

// WithClient attaches the Elasticsearch client used by cluster-facing
// operations (Create, Delete, Save, Search execution and so on). An Index
// without a client can still be configured and serialized.
func WithClient(client *elasticsearch.Client) Option {
	return func(i *Index) {
		i.client = client
	}
}
