// Package search mirrors rooms into an Elasticsearch index.
package search

import (
	"errors"
	"fmt"

	"qufit/backend/internal/config"

	"github.com/elastic/go-elasticsearch/v8"
)

// ErrDisabled is returned by NewClient when no Elasticsearch URL is configured.
var ErrDisabled = errors.New("search: elasticsearch is not configured")

// NewClient builds an Elasticsearch client from cfg. The CA certificate
// fingerprint pins the server certificate for self-signed clusters.
func NewClient(cfg config.SearchConfig) (*elasticsearch.Client, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:              []string{cfg.URL},
		Username:               cfg.Username,
		Password:               cfg.Password,
		CertificateFingerprint: cfg.Fingerprint,
	})
	if err != nil {
		return nil, fmt.Errorf("search: create client: %w", err)
	}
	return client, nil
}
