// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"time"
)

// The top level config for all sparqltdb operations
type SparqlTDBConfig struct {
	TDB    TDBConfig
	Engine EngineConfig
	Server ServerConfig

	// path to a yaml file listing the named data sources
	DataSourcesFile string
}

// The config for a single TDB store
type TDBConfig struct {
	Location  string `arg:"--location" help:"filesystem path to the TDB store directory"`
	MustExist bool   `arg:"--must-exist" help:"fail instead of creating the store if the location does not exist"`
}

// The config for the external jena command line engine
type EngineConfig struct {
	QueryBinary  string        `arg:"--tdbquery,env:TDBQUERY" help:"path to the jena tdbquery binary" default:"tdbquery"`
	UpdateBinary string        `arg:"--tdbupdate,env:TDBUPDATE" help:"path to the jena tdbupdate binary" default:"tdbupdate"`
	Timeout      time.Duration `arg:"--timeout" help:"timeout for each call to the engine" default:"30s"`
}

// The config for the validation http server
type ServerConfig struct {
	Address string `arg:"--listen" help:"address for the validation server to listen on" default:":8080"`
}
