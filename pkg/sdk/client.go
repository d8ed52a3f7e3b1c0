package entsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kailas-cloud/entsearch/internal/db"
	"github.com/kailas-cloud/entsearch/internal/db/elastic"
	"github.com/kailas-cloud/entsearch/internal/db/sqlite"
	"github.com/kailas-cloud/entsearch/internal/domain"
	"github.com/kailas-cloud/entsearch/internal/domain/entity"
	"github.com/kailas-cloud/entsearch/internal/domain/entity/field"
	"github.com/kailas-cloud/entsearch/internal/domain/search/criteria"
	"github.com/kailas-cloud/entsearch/internal/domain/search/result"
	"github.com/kailas-cloud/entsearch/internal/dsl"
	fallbackrepo "github.com/kailas-cloud/entsearch/internal/repository/fallback"
	searchrepo "github.com/kailas-cloud/entsearch/internal/repository/search"
	"github.com/kailas-cloud/entsearch/internal/usecase/eligibility"
	healthuc "github.com/kailas-cloud/entsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/entsearch/internal/usecase/search"
)

// Client is the main entry point for embedded entsearch.
// Create with New(), close with Close().
type Client struct {
	docs      *sqlite.Store
	registry  *entity.Registry
	flags     *memoryFlags
	refresher *eligibility.Refresher
	searchSvc searchUseCase
	healthSvc healthUseCase
	obs       *observer
}

// searchUseCase is the internal interface for search operations.
type searchUseCase interface {
	Search(ctx context.Context, entity string, c criteria.Criteria, scope domain.Scope) (result.IDSearchResult, error)
}

// New creates a new entsearch client. WithSQLite and at least one entity are required.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.dsn == "" {
		return nil, errors.New("entsearch: sqlite dsn required (use WithSQLite)")
	}
	if len(cfg.entities) == 0 {
		return nil, errors.New("entsearch: at least one entity required (use WithEntity)")
	}

	registry, err := buildRegistry(cfg.entities)
	if err != nil {
		return nil, fmt.Errorf("entsearch: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, fmt.Errorf("entsearch: init observer: %w", err)
	}

	docs, err := sqlite.Open(ctx, cfg.dsn)
	if err != nil {
		return nil, fmt.Errorf("entsearch: open store: %w", err)
	}

	var (
		engine    healthuc.Pinger
		indexExec engineSearcher = disabledEngine{}
	)
	searchEnabled := len(cfg.esAddresses) > 0
	if searchEnabled {
		es, err := elastic.NewStore(elastic.Config{
			Addresses: cfg.esAddresses,
			Username:  cfg.esUsername,
			Password:  cfg.esPassword,
		})
		if err != nil {
			_ = docs.Close()
			return nil, fmt.Errorf("entsearch: create elasticsearch client: %w", err)
		}
		engine, indexExec = es, es
	}

	return wireClient(cfg, registry, docs, engine, indexExec, searchEnabled, obs), nil
}

func wireClient(
	cfg *clientConfig, registry *entity.Registry, docs *sqlite.Store,
	engine healthuc.Pinger, indexExec engineSearcher, searchEnabled bool, obs *observer,
) *Client {
	logger := newServiceLogger(cfg.logger)

	guard := eligibility.NewGuard(searchEnabled, registry)
	flags := &memoryFlags{values: map[string]string{}}
	refresher := eligibility.NewRefresher(guard, flags, 0, logger)

	policy := searchuc.PolicyLog
	if cfg.escalate {
		policy = searchuc.PolicyEscalate
	}
	builder := searchuc.NewBuilder(dsl.NewParser(registry), registry)
	executor := &observedExecutor{
		inner: searchrepo.New(indexExec, searchrepo.Options{
			IndexPrefix:  cfg.indexPrefix,
			DocumentType: cfg.documentType,
		}),
		obs: obs,
	}
	fallback := fallbackrepo.New(docs, registry)

	return &Client{
		docs:      docs,
		registry:  registry,
		flags:     flags,
		refresher: refresher,
		searchSvc: searchuc.New(guard, builder, executor, fallback, policy, logger),
		healthSvc: healthuc.New(engine, docs, nil),
		obs:       obs,
	}
}

// Close releases the document store.
func (c *Client) Close() error {
	if c.docs == nil {
		return nil
	}
	return c.docs.Close()
}

// Entities returns the registered entity names.
func (c *Client) Entities() []string {
	return c.registry.Names()
}

// Put stores documents of one entity in the authoritative store. Each value
// is marshalled to JSON and keyed by its map key.
func (c *Client) Put(ctx context.Context, entityName string, docs map[string]any) (err error) {
	defer func(start time.Time) { c.obs.observe("document.put", start, err) }(time.Now())

	if _, err := c.registry.Get(entityName); err != nil {
		return err
	}
	batch := make([]db.Document, 0, len(docs))
	for id, v := range docs {
		body, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s/%s: %w", entityName, id, err)
		}
		batch = append(batch, db.Document{Entity: entityName, ID: id, Body: body})
	}
	return c.docs.PutDocuments(ctx, batch)
}

// SetEnabled flips the index kill switch of an entity. Use "*" for all entities.
// Disabled entities are served from the authoritative store.
func (c *Client) SetEnabled(ctx context.Context, entityName string, enabled bool) (err error) {
	defer func(start time.Time) { c.obs.observe("flags.set", start, err) }(time.Now())

	if entityName == "" {
		return errors.New("entity name is required")
	}
	c.flags.set(entityName, enabled)
	return c.refresher.Refresh(ctx)
}

// Search returns a query builder for entityName.
func (c *Client) Search(entityName string) *SearchService {
	return &SearchService{client: c, entity: entityName, scope: domain.NewScope("")}
}

func (c *Client) search(
	ctx context.Context, entityName string, cr criteria.Criteria, scope domain.Scope,
) (res Result, err error) {
	defer func(start time.Time) { c.obs.observe("search", start, err) }(time.Now())

	out, err := c.searchSvc.Search(ctx, entityName, cr, scope)
	if err != nil {
		return Result{}, err
	}
	return resultFromDomain(out), nil
}

func buildRegistry(entities []entityConfig) (*entity.Registry, error) {
	defs := make([]entity.Definition, 0, len(entities))
	for _, ec := range entities {
		fields := make([]field.Field, 0, len(ec.fields))
		for _, f := range ec.fields {
			ff, err := field.New(f.Name, field.Type(f.Type), f.Boost, f.Required)
			if err != nil {
				return nil, fmt.Errorf("entity %s: field %q: %w", ec.name, f.Name, err)
			}
			fields = append(fields, ff)
		}
		def, err := entity.New(ec.name, fields, ec.searchable)
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", ec.name, err)
		}
		defs = append(defs, def)
	}
	return entity.NewRegistry(defs...)
}

// observedExecutor reports every index round trip as the "engine.search" operation.
type observedExecutor struct {
	inner searchuc.Executor
	obs   *observer
}

func (e *observedExecutor) Execute(
	ctx context.Context, entityName, languageID string, q *db.Query,
) (raw *db.RawResult, err error) {
	defer func(start time.Time) { e.obs.observe("engine.search", start, err) }(time.Now())
	return e.inner.Execute(ctx, entityName, languageID, q)
}

type engineSearcher interface {
	Search(ctx context.Context, req *db.SearchRequest) (*db.RawResult, error)
}

// disabledEngine is never reached: the guard rejects every call when no
// Elasticsearch address is configured.
type disabledEngine struct{}

func (disabledEngine) Search(context.Context, *db.SearchRequest) (*db.RawResult, error) {
	return nil, domain.ErrEngineUnavailable
}

// memoryFlags keeps kill switches in process.
type memoryFlags struct {
	mu     sync.Mutex
	values map[string]string
}

func (m *memoryFlags) set(entityName string, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if enabled {
		m.values[entityName] = "true"
		return
	}
	m.values[entityName] = "false"
}

func (m *memoryFlags) Flags(_ context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out, nil
}
