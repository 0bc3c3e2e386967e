// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

const stubDriverName = "database-stub"

var errStubUnreachable = errors.New("stub database is unreachable")

// a driver whose connections can never be established
type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) {
	return nil, errStubUnreachable
}

func init() {
	sql.Register(stubDriverName, stubDriver{})
}

type stubDatabase struct {
	driverName string
	dsn        string
}

func (s stubDatabase) DriverName() string       { return s.driverName }
func (s stubDatabase) ConnectionString() string { return s.dsn }

func TestPoolReusesDataSources(t *testing.T) {
	pool := NewPool()
	defer pool.Close()

	first, err := pool.DataSource(stubDatabase{stubDriverName, "a"})
	require.NoError(t, err)
	again, err := pool.DataSource(stubDatabase{stubDriverName, "a"})
	require.NoError(t, err)
	require.Same(t, first, again)

	other, err := pool.DataSource(stubDatabase{stubDriverName, "b"})
	require.NoError(t, err)
	require.NotSame(t, first, other)
	require.Equal(t, 2, pool.Size())
}

func TestPoolDefersConnecting(t *testing.T) {
	pool := NewPool()
	defer pool.Close()

	db, err := pool.DataSource(stubDatabase{stubDriverName, "a"})
	require.NoError(t, err)
	require.ErrorIs(t, db.PingContext(context.Background()), errStubUnreachable)
}

func TestPoolUnknownDriver(t *testing.T) {
	pool := NewPool()
	_, err := pool.DataSource(stubDatabase{"not-registered", "a"})
	require.ErrorContains(t, err, "unknown driver")
	require.Zero(t, pool.Size())
}

func TestPoolClose(t *testing.T) {
	pool := NewPool()
	db, err := pool.DataSource(stubDatabase{stubDriverName, "a"})
	require.NoError(t, err)

	require.NoError(t, pool.Close())
	require.Zero(t, pool.Size())
	// closed handles refuse further use
	require.Error(t, db.PingContext(context.Background()))

	var zero Pool
	_, err = zero.DataSource(stubDatabase{stubDriverName, "a"})
	require.NoError(t, err)
	require.NoError(t, zero.Close())
}

// counts how often the connection string is built
type countingDatabase struct {
	calls int
}

func (c *countingDatabase) DriverName() string { return stubDriverName }
func (c *countingDatabase) ConnectionString() string {
	c.calls++
	return "counted"
}

func TestPoolBuildsConnectionStringOnce(t *testing.T) {
	pool := NewPool()
	defer pool.Close()

	db := &countingDatabase{}
	_, err := pool.DataSource(db)
	require.NoError(t, err)
	require.Equal(t, 1, db.calls)
}
