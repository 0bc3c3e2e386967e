// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package jenatdb

import (
	"context"
	"fmt"

	"github.com/internetofwater/sparqltdb/internal/database"
	"github.com/internetofwater/sparqltdb/internal/metrics"
	"github.com/internetofwater/sparqltdb/internal/opentelemetry"
	"github.com/internetofwater/sparqltdb/internal/tdb"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DisplayName = "SPARQL TDB"
	// Run against the store to prove it can be queried
	ProbeQuery = "SELECT * WHERE { ?a ?b ?c } LIMIT 1"

	connectFailure = "Failed to connect to SPARQL TDB"
)

// Descriptor describes the jena tdb connector to a configuration ui
type Descriptor struct{}

func NewDescriptor() *Descriptor {
	return &Descriptor{}
}

func (d *Descriptor) DisplayName() string {
	return DisplayName
}

// Validate checks that the store described by the form values can be
// connected to and queried. Failures are reported in the result, never returned
func (d *Descriptor) Validate(ctx context.Context, location string, mustExist *bool) database.FormValidation {
	return d.ValidateDatabase(ctx, New(location, mustExist))
}

func (d *Descriptor) ValidateDatabase(ctx context.Context, db Database) database.FormValidation {
	span, ctx := opentelemetry.SubSpanFromCtx(ctx)
	defer span.End()
	span.SetAttributes(attribute.String("tdb.location", db.Location()), attribute.Bool("tdb.must_exist", db.MustExist()))

	result := validate(ctx, db)
	span.SetAttributes(attribute.String("validation.result", string(result.Kind)))
	metrics.ObserveValidation(string(result.Kind))
	return result
}

func validate(ctx context.Context, db Database) (result database.FormValidation) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic during validation: %v", r)
			log.Warnf("%s: %v", connectFailure, err)
			result = database.Error(err, connectFailure)
		}
	}()

	pool := database.NewPool()
	defer func() {
		if err := pool.Close(); err != nil {
			log.Errorf("error closing data source for %s: %v", db.Location(), err)
		}
	}()

	if err := probe(ctx, pool, db); err != nil {
		log.Warnf("%s: %v", connectFailure, err)
		return database.Error(err, connectFailure)
	}
	return database.Ok("OK")
}

func probe(ctx context.Context, pool *database.Pool, db Database) error {
	ds, err := pool.DataSource(db)
	if err != nil {
		return err
	}
	conn, err := ds.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, ProbeQuery)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
	}
	return rows.Err()
}

// ValidateProperties checks extra connection properties against the
// parameters the driver accepts
func (d *Descriptor) ValidateProperties(text string) database.FormValidation {
	var reporter database.PropertyReporter
	if registered, ok := tdb.Registered(); ok {
		reporter = registered
	} else {
		reporter = tdb.NewDriver(nil)
	}
	result := database.ValidateProperties(text, reporter)
	metrics.ObserveValidation(string(result.Kind))
	return result
}
