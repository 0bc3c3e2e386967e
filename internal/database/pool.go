// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package database

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// A database reachable through a registered database/sql driver
type RemoteDatabase interface {
	DriverName() string
	ConnectionString() string
}

// Pool hands out one *sql.DB per distinct connection string.
// Connection pooling itself is left to database/sql
type Pool struct {
	mu  sync.Mutex
	dbs map[string]*sql.DB
}

func NewPool() *Pool {
	return &Pool{dbs: make(map[string]*sql.DB)}
}

// DataSource returns the shared handle for the database, opening it on first use.
// Opening does not connect; use PingContext or Conn to reach the database
func (p *Pool) DataSource(db RemoteDatabase) (*sql.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.dbs == nil {
		p.dbs = make(map[string]*sql.DB)
	}
	driverName, dsn := db.DriverName(), db.ConnectionString()
	key := driverName + "|" + dsn
	if existing, ok := p.dbs[key]; ok {
		return existing, nil
	}

	handle, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s data source: %w", driverName, err)
	}
	p.dbs[key] = handle
	log.Debugf("Opened %s data source", driverName)
	return handle, nil
}

// Size returns how many data sources are currently open
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.dbs)
}

// Close closes every data source the pool opened
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for key, handle := range p.dbs {
		if err := handle.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(p.dbs, key)
	}
	return errors.Join(errs...)
}
