package entsearch

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	dsn string

	esAddresses  []string
	esUsername   string
	esPassword   string
	indexPrefix  string
	documentType bool
	escalate     bool

	entities []entityConfig

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

type entityConfig struct {
	name       string
	searchable bool
	fields     []Field
}

// WithSQLite sets the authoritative document store. Required.
func WithSQLite(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.dsn = dsn
	})
}

// WithElasticsearch enables the search index. Without it every search is
// served by the SQLite store.
func WithElasticsearch(addresses ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.esAddresses = addresses
	})
}

// WithBasicAuth sets Elasticsearch credentials.
func WithBasicAuth(username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.esUsername = username
		c.esPassword = password
	})
}

// WithIndexPrefix prepends prefix to every index name.
func WithIndexPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.indexPrefix = prefix
	})
}

// WithDocumentType sends the entity name as document type.
func WithDocumentType() Option {
	return optionFunc(func(c *clientConfig) {
		c.documentType = true
	})
}

// WithEscalation returns index failures to the caller instead of falling back.
func WithEscalation() Option {
	return optionFunc(func(c *clientConfig) {
		c.escalate = true
	})
}

// WithEntity registers a searchable entity.
func WithEntity(name string, fields ...Field) Option {
	return optionFunc(func(c *clientConfig) {
		c.entities = append(c.entities, entityConfig{name: name, searchable: true, fields: fields})
	})
}

// WithFallbackOnlyEntity registers an entity that is never searched through the index.
func WithFallbackOnlyEntity(name string, fields ...Field) Option {
	return optionFunc(func(c *clientConfig) {
		c.entities = append(c.entities, entityConfig{name: name, fields: fields})
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
