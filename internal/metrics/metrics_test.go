// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveEngineCall(t *testing.T) {
	before := testutil.ToFloat64(EngineCallsTotal.WithLabelValues("query", StatusFailure))
	ObserveEngineCall("query", time.Now(), errors.New("boom"))
	after := testutil.ToFloat64(EngineCallsTotal.WithLabelValues("query", StatusFailure))
	require.Equal(t, before+1, after)

	before = testutil.ToFloat64(EngineCallsTotal.WithLabelValues("update", StatusSuccess))
	ObserveEngineCall("update", time.Now(), nil)
	after = testutil.ToFloat64(EngineCallsTotal.WithLabelValues("update", StatusSuccess))
	require.Equal(t, before+1, after)
}

func TestObserveValidation(t *testing.T) {
	before := testutil.ToFloat64(ValidationsTotal.WithLabelValues("warning"))
	ObserveValidation("warning")
	require.Equal(t, before+1, testutil.ToFloat64(ValidationsTotal.WithLabelValues("warning")))
}
