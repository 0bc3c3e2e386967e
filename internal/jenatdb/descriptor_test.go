// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package jenatdb

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/internetofwater/sparqltdb/internal/database"
	"github.com/internetofwater/sparqltdb/internal/metrics"
	"github.com/internetofwater/sparqltdb/internal/tdb"
	"github.com/internetofwater/sparqltdb/internal/tdb/tdbtest"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestDisplayName(t *testing.T) {
	require.Equal(t, "SPARQL TDB", NewDescriptor().DisplayName())
}

func TestValidateMissingStore(t *testing.T) {
	engine.reset(nil, false)
	location := filepath.Join(t.TempDir(), "missing")

	result := NewDescriptor().Validate(context.Background(), location, boolPtr(true))
	require.Equal(t, database.KindError, result.Kind)
	require.Equal(t, "Failed to connect to SPARQL TDB", result.Message)
	require.ErrorIs(t, result.Cause, tdb.ErrLocationNotFound)
	require.Empty(t, engine.seen())
}

func TestValidateReachableStore(t *testing.T) {
	engine.reset(nil, false)
	before := testutil.ToFloat64(metrics.ValidationsTotal.WithLabelValues(string(database.KindOK)))

	result := NewDescriptor().Validate(context.Background(), tdbtest.NewStoreDir(t), boolPtr(true))
	require.Equal(t, database.Ok("OK"), result)
	require.Equal(t, []string{ProbeQuery}, engine.seen())
	// only one row is needed to show the store answers queries
	require.True(t, strings.HasSuffix(engine.seen()[0], "LIMIT 1"))

	after := testutil.ToFloat64(metrics.ValidationsTotal.WithLabelValues(string(database.KindOK)))
	require.Equal(t, before+1, after)
}

func TestValidateCreatesStoreWhenMustExistIsUnset(t *testing.T) {
	engine.reset(nil, false)
	location := filepath.Join(t.TempDir(), "new")

	result := NewDescriptor().Validate(context.Background(), location, nil)
	require.True(t, result.IsOK(), result.String())
	require.DirExists(t, location)
}

func TestValidateBlankLocation(t *testing.T) {
	engine.reset(nil, false)

	result := NewDescriptor().Validate(context.Background(), " ", nil)
	require.Equal(t, database.KindError, result.Kind)
	require.ErrorIs(t, result.Cause, tdb.ErrMissingLocation)
}

func TestValidateEngineFailure(t *testing.T) {
	engine.reset(errors.New("Failed to acquire lock on the store"), false)

	result := NewDescriptor().Validate(context.Background(), tdbtest.NewStoreDir(t), boolPtr(true))
	require.Equal(t, database.KindError, result.Kind)
	require.ErrorContains(t, result.Cause, "Failed to acquire lock")
}

func TestValidateNeverPanics(t *testing.T) {
	engine.reset(nil, true)
	defer engine.reset(nil, false)

	var result database.FormValidation
	require.NotPanics(t, func() {
		result = NewDescriptor().Validate(context.Background(), tdbtest.NewStoreDir(t), boolPtr(true))
	})
	require.Equal(t, database.KindError, result.Kind)
	require.ErrorContains(t, result.Cause, "engine crashed")
	require.ErrorIs(t, result.Cause, tdb.ErrEnginePanic)
}

func TestValidateEmptyDirectoryWithMustExist(t *testing.T) {
	engine.reset(nil, false)

	result := NewDescriptor().Validate(context.Background(), t.TempDir(), boolPtr(true))
	require.Equal(t, database.KindError, result.Kind)
	require.ErrorIs(t, result.Cause, tdb.ErrLocationNotFound)
	require.Empty(t, engine.seen())
}

func TestDescriptorValidateProperties(t *testing.T) {
	descriptor := NewDescriptor()
	require.True(t, descriptor.ValidateProperties("").IsOK())
	require.True(t, descriptor.ValidateProperties("jdbc-compatibility=3").IsOK())

	result := descriptor.ValidateProperties("user=admin")
	require.Equal(t, database.KindWarning, result.Kind)
	require.Contains(t, result.Message, "user")
}
