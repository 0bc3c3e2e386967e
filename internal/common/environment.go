// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"os"
	"strings"
)

const ProfilingEnvVar = "SPARQLTDB_PROFILING"

// ProfilingEnabled reports whether runtime tracing was requested through the environment
func ProfilingEnabled() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv(ProfilingEnvVar)), "true")
}
