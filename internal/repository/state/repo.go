// Package state persists the coordinator's request state machine. Every
// transition is written through, so a restarted server can answer status
// queries for requests it did not coordinate itself.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/kailas-cloud/crossdex/internal/db"
	"github.com/kailas-cloud/crossdex/internal/domain"
)

// store is the consumer interface for request persistence (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo stores one JSON document per request.
type Repo struct {
	store  store
	prefix string
}

// New creates a request state repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix + "request:"}
}

func (r *Repo) key(id string) string { return r.prefix + id }

// Save writes the request's current state, replacing any previous document.
func (r *Repo) Save(ctx context.Context, req *domain.Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request %s: %w", req.ID, err)
	}
	if err := r.store.JSONSet(ctx, r.key(req.ID), "$", data); err != nil {
		return fmt.Errorf("save request %s: %w", req.ID, err)
	}
	return nil
}

// Get loads a request by id.
func (r *Repo) Get(ctx context.Context, id string) (*domain.Request, error) {
	data, err := r.store.JSONGet(ctx, r.key(id), "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, fmt.Errorf("load request %s: %w", id, err)
	}
	return decodeStored(data)
}

// List returns every persisted request, newest first.
func (r *Repo) List(ctx context.Context) ([]*domain.Request, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan requests: %w", err)
	}

	out := make([]*domain.Request, 0, len(keys))
	for _, key := range keys {
		data, err := r.store.JSONGet(ctx, key, "$")
		if err != nil {
			if errors.Is(err, db.ErrKeyNotFound) {
				continue // deleted between scan and read
			}
			return nil, fmt.Errorf("load request %s: %w", key, err)
		}
		req, err := decodeStored(data)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes a request document.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, r.key(id)); err != nil {
		return fmt.Errorf("delete request %s: %w", id, err)
	}
	return nil
}

// decodeStored handles the JSONPath wrapping: JSON.GET with "$" returns a
// one-element array around the stored document.
func decodeStored(data []byte) (*domain.Request, error) {
	if len(data) > 1 && data[0] == '[' {
		data = data[1 : len(data)-1]
	}
	var req domain.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("unmarshal request: %w", err)
	}
	return &req, nil
}
