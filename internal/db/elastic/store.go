package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	elasticsearch7 "github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"

	"github.com/kailas-cloud/entsearch/internal/db"
)

// Compile-time check: Store implements db.Engine.
var _ db.Engine = (*Store)(nil)

// Config holds connection parameters for an Elasticsearch cluster.
type Config struct {
	Addresses []string
	Username  string
	Password  string
	Transport http.RoundTripper
}

// Store implements db.Engine via the official v7 client.
type Store struct {
	client *elasticsearch7.Client
}

// NewStore creates an Elasticsearch store.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("addresses is required")
	}

	client, err := elasticsearch7.NewClient(elasticsearch7.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Store{client: client}, nil
}

// Search executes the compiled query against one index.
func (s *Store) Search(ctx context.Context, req *db.SearchRequest) (*db.RawResult, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(req.Query); err != nil {
		return nil, &db.Error{Op: db.OpEncode, Err: err}
	}

	opts := []func(*esapi.SearchRequest){
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(req.Index),
		s.client.Search.WithBody(&buf),
	}
	if req.DocumentType != "" {
		opts = append(opts, s.client.Search.WithDocumentType(req.DocumentType))
	}

	res, err := s.client.Search(opts...)
	if err != nil {
		return nil, &db.Error{Op: db.OpTransport, Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, &db.Error{Op: db.OpSearch, Err: responseError(res)}
	}

	var raw db.RawResult
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return nil, &db.Error{Op: db.OpDecode, Err: fmt.Errorf("%w: %w", db.ErrBadResponse, err)}
	}
	return &raw, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	defer res.Body.Close()
	if res.IsError() {
		return &db.Error{Op: db.OpPing, Err: fmt.Errorf("status %s", res.Status())}
	}
	return nil
}

// WaitForReady polls Ping until the cluster responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for elasticsearch: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

type errorBody struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

func responseError(res *esapi.Response) error {
	data, _ := io.ReadAll(res.Body)
	var e errorBody
	if err := json.Unmarshal(data, &e); err != nil || e.Error.Type == "" {
		return fmt.Errorf("%w: status %s", db.ErrBadResponse, res.Status())
	}
	if e.Error.Type == "index_not_found_exception" {
		return fmt.Errorf("%w: %s", db.ErrIndexNotFound, e.Error.Reason)
	}
	return fmt.Errorf("[%s] %s: %s", res.Status(), e.Error.Type, e.Error.Reason)
}
