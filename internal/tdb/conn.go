// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package tdb

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/knakk/rdf"
)

var ErrTransactionsUnsupported = errors.New("jena tdb connections do not support transactions")
var ErrArgumentsUnsupported = errors.New("jena tdb statements do not support query parameters")
var ErrEnginePanic = errors.New("jena engine panicked")

const (
	xsdBoolean = "http://www.w3.org/2001/XMLSchema#boolean"
	xsdInteger = "http://www.w3.org/2001/XMLSchema#integer"
	xsdLong    = "http://www.w3.org/2001/XMLSchema#long"
	xsdInt     = "http://www.w3.org/2001/XMLSchema#int"
	xsdDouble  = "http://www.w3.org/2001/XMLSchema#double"
	xsdDecimal = "http://www.w3.org/2001/XMLSchema#decimal"
	xsdFloat   = "http://www.w3.org/2001/XMLSchema#float"
)

// The probe used when pinging a connection
const pingQuery = "ASK WHERE { ?s ?p ?o }"

var _ driver.Conn = &Conn{}
var _ driver.QueryerContext = &Conn{}
var _ driver.ExecerContext = &Conn{}
var _ driver.Pinger = &Conn{}

// Conn is a connection to a single TDB store
type Conn struct {
	params Params
	engine Engine
	closed bool
}

func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	if c.closed {
		return nil, driver.ErrBadConn
	}
	return &Stmt{conn: c, query: query}, nil
}

func (c *Conn) Close() error {
	c.closed = true
	return nil
}

func (c *Conn) Begin() (driver.Tx, error) {
	return nil, ErrTransactionsUnsupported
}

func (c *Conn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if c.closed {
		return nil, driver.ErrBadConn
	}
	if len(args) > 0 {
		return nil, ErrArgumentsUnsupported
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	results, err := c.query(ctx, query)
	if err != nil {
		return nil, err
	}
	return newRows(results, c.params.Compatibility), nil
}

// ExecContext runs updates; query forms are run and their results discarded
func (c *Conn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if c.closed {
		return nil, driver.ErrBadConn
	}
	if len(args) > 0 {
		return nil, ErrArgumentsUnsupported
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if IsQuery(query) {
		if _, err := c.query(ctx, query); err != nil {
			return nil, err
		}
		return driver.RowsAffected(0), nil
	}
	if err := c.update(ctx, query); err != nil {
		return nil, err
	}
	// the engine does not report how many triples changed
	return driver.RowsAffected(0), nil
}

func (c *Conn) Ping(ctx context.Context) error {
	if c.closed {
		return driver.ErrBadConn
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	_, err := c.query(ctx, pingQuery)
	return err
}

// The engine calls below recover panics here, since database/sql holds
// connection locks that a panic unwinding through it would leave held
func (c *Conn) query(ctx context.Context, query string) (results *ResultSet, err error) {
	defer recoverEngine(&err)
	return c.engine.Query(ctx, c.params.Location, query)
}

func (c *Conn) update(ctx context.Context, update string) (err error) {
	defer recoverEngine(&err)
	return c.engine.Update(ctx, c.params.Location, update)
}

func recoverEngine(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", ErrEnginePanic, r)
	}
}

func (c *Conn) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.params.Timeout > 0 {
		return context.WithTimeout(ctx, c.params.Timeout)
	}
	return context.WithCancel(ctx)
}

var _ driver.StmtQueryContext = &Stmt{}
var _ driver.StmtExecContext = &Stmt{}

type Stmt struct {
	conn  *Conn
	query string
}

func (s *Stmt) Close() error {
	return nil
}

// SPARQL statements never take placeholders
func (s *Stmt) NumInput() int {
	return 0
}

func (s *Stmt) Exec(args []driver.Value) (driver.Result, error) {
	return s.ExecContext(context.Background(), toNamedValues(args))
}

func (s *Stmt) Query(args []driver.Value) (driver.Rows, error) {
	return s.QueryContext(context.Background(), toNamedValues(args))
}

func (s *Stmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	return s.conn.ExecContext(ctx, s.query, args)
}

func (s *Stmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	return s.conn.QueryContext(ctx, s.query, args)
}

func toNamedValues(args []driver.Value) []driver.NamedValue {
	named := make([]driver.NamedValue, len(args))
	for i, arg := range args {
		named[i] = driver.NamedValue{Ordinal: i + 1, Value: arg}
	}
	return named
}

// Rows holds a fully materialized result set
type Rows struct {
	columns []string
	values  [][]driver.Value
	pos     int
}

func newRows(results *ResultSet, compatibility int) *Rows {
	if results.Boolean != nil {
		return &Rows{
			columns: []string{FormAsk},
			values:  [][]driver.Value{{*results.Boolean}},
		}
	}

	rows := &Rows{columns: results.Vars}
	for _, row := range results.Rows {
		converted := make([]driver.Value, len(row))
		for i, value := range row {
			converted[i] = columnValue(value, compatibility)
		}
		rows.values = append(rows.values, converted)
	}
	return rows
}

func (r *Rows) Columns() []string {
	return r.columns
}

func (r *Rows) Close() error {
	r.pos = len(r.values)
	return nil
}

func (r *Rows) Next(dest []driver.Value) error {
	if r.pos >= len(r.values) {
		return io.EOF
	}
	copy(dest, r.values[r.pos])
	r.pos++
	return nil
}

func columnValue(value *Value, compatibility int) driver.Value {
	if value == nil {
		return nil
	}
	if compatibility <= CompatibilityLow {
		return value.Term.Serialize(rdf.NTriples)
	}

	switch value.Datatype {
	case xsdBoolean:
		if b, err := strconv.ParseBool(value.Lexical); err == nil {
			return b
		}
	case xsdInteger, xsdLong, xsdInt:
		if i, err := strconv.ParseInt(value.Lexical, 10, 64); err == nil {
			return i
		}
	case xsdDouble, xsdDecimal, xsdFloat:
		if f, err := strconv.ParseFloat(value.Lexical, 64); err == nil {
			return f
		}
	}
	return value.Lexical
}
