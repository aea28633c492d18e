package report

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"lucas/internal/core"
	"lucas/internal/kvstore"
)

// MarkerStore durably persists the generated-report marker set under the
// generatedReports key. One uniform strategy for both monthly and annual
// gating; markers survive process restarts.
type MarkerStore struct {
	store kvstore.Store
	mu    sync.Mutex
}

func NewMarkerStore(store kvstore.Store) *MarkerStore {
	return &MarkerStore{store: store}
}

// Markers loads the persisted marker set, empty when none exist.
func (m *MarkerStore) Markers(ctx context.Context) (Markers, error) {
	raw, ok, err := m.store.Get(ctx, core.GeneratedReportsKey)
	if err != nil {
		return nil, fmt.Errorf("read markers: %w", err)
	}
	markers := make(Markers)
	if !ok {
		return markers, nil
	}
	var keys []string
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, fmt.Errorf("decode markers: %w", err)
	}
	for _, k := range keys {
		markers.Add(k)
	}
	return markers, nil
}

// Mark records that the report for the given period key has been produced.
// Marking an already marked period is a no-op.
func (m *MarkerStore) Mark(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok, err := m.store.Get(ctx, core.GeneratedReportsKey)
	if err != nil {
		return fmt.Errorf("read markers: %w", err)
	}
	var keys []string
	if ok {
		if err := json.Unmarshal(raw, &keys); err != nil {
			return fmt.Errorf("decode markers: %w", err)
		}
	}
	for _, k := range keys {
		if k == key {
			return nil
		}
	}
	keys = append(keys, key)

	out, err := json.Marshal(keys)
	if err != nil {
		return fmt.Errorf("encode markers: %w", err)
	}
	if err := m.store.Set(ctx, core.GeneratedReportsKey, out); err != nil {
		return fmt.Errorf("write markers: %w", err)
	}
	return nil
}
