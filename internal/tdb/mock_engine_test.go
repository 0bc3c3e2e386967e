// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package tdb

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// newStore returns a directory that looks like an existing store
func newStore(t *testing.T) string {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nodes.dat"), nil, 0o644))
	return dir
}

// An in memory engine that records what it was asked to run
type mockEngine struct {
	mu sync.Mutex

	queries   []string
	updates   []string
	locations []string
	// whether each call had a deadline set on its context
	deadlines []bool

	results *ResultSet
	err     error
	panics  bool
}

func (m *mockEngine) Query(ctx context.Context, location, query string) (*ResultSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(ctx, location)
	m.queries = append(m.queries, query)
	if m.panics {
		panic("engine crashed")
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.results == nil {
		return &ResultSet{}, nil
	}
	return m.results, nil
}

func (m *mockEngine) Update(ctx context.Context, location, update string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(ctx, location)
	m.updates = append(m.updates, update)
	if m.panics {
		panic("engine crashed")
	}
	return m.err
}

func (m *mockEngine) record(ctx context.Context, location string) {
	_, hasDeadline := ctx.Deadline()
	m.deadlines = append(m.deadlines, hasDeadline)
	m.locations = append(m.locations, location)
}
