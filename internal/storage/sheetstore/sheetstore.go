// Package sheetstore implements a storage backend over a spreadsheet
// relay: a webhook endpoint that maps collections onto sheet tabs. The
// relay speaks a small JSON protocol, one action per request.
package sheetstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/craftedcrochet/storefront/internal/storage"
)

type Store struct {
	endpoint string
	client   *http.Client
}

type request struct {
	Action     string             `json:"action"`
	Collection string             `json:"collection"`
	ID         string             `json:"id,omitempty"`
	Data       json.RawMessage    `json:"data,omitempty"`
	Documents  []storage.Document `json:"documents,omitempty"`
}

type response struct {
	Success   bool               `json:"success"`
	Error     string             `json:"error,omitempty"`
	NotFound  bool               `json:"not_found,omitempty"`
	Documents []storage.Document `json:"documents,omitempty"`
}

// New builds a relay client for the given webhook endpoint. Requests
// are capped at timeout so a hung relay degrades into a chain fallback
// instead of stalling the caller.
func New(endpoint string, timeout time.Duration) *Store {
	return &Store{
		endpoint: endpoint,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (s *Store) Name() string { return "sheets" }

func (s *Store) Read(ctx context.Context, collection string) ([]storage.Document, error) {
	u := fmt.Sprintf("%s?collection=%s", s.endpoint, url.QueryEscape(collection))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.do(req)
	if err != nil {
		return nil, err
	}
	return resp.Documents, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (storage.Document, error) {
	resp, err := s.post(ctx, request{Action: "get", Collection: collection, ID: id})
	if err != nil {
		return storage.Document{}, err
	}
	if len(resp.Documents) == 0 {
		return storage.Document{}, storage.ErrNotFound
	}
	return resp.Documents[0], nil
}

func (s *Store) Write(ctx context.Context, collection, id string, data json.RawMessage) error {
	_, err := s.post(ctx, request{Action: "write", Collection: collection, ID: id, Data: data})
	return err
}

func (s *Store) Update(ctx context.Context, collection, id string, data json.RawMessage) error {
	_, err := s.post(ctx, request{Action: "update", Collection: collection, ID: id, Data: data})
	return err
}

func (s *Store) Remove(ctx context.Context, collection, id string) error {
	_, err := s.post(ctx, request{Action: "remove", Collection: collection, ID: id})
	return err
}

func (s *Store) Replace(ctx context.Context, collection string, docs []storage.Document) error {
	_, err := s.post(ctx, request{Action: "replace", Collection: collection, Documents: docs})
	return err
}

func (s *Store) post(ctx context.Context, payload request) (*response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return s.do(req)
}

func (s *Store) do(req *http.Request) (*response, error) {
	httpResp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("relay request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("relay returned status %d", httpResp.StatusCode)
	}

	var resp response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode relay response: %w", err)
	}
	if resp.NotFound {
		return nil, storage.ErrNotFound
	}
	if !resp.Success {
		return nil, fmt.Errorf("relay error: %s", resp.Error)
	}
	return &resp, nil
}
