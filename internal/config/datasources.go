// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// A named TDB store held by the host configuration.
// MustExist is a pointer so that an omitted key can be told apart
// from an explicit false; defaulting happens when the store is built
type DataSource struct {
	Name      string `yaml:"name"`
	Location  string `yaml:"location"`
	MustExist *bool  `yaml:"mustExist,omitempty"`
}

type dataSourcesFile struct {
	DataSources []DataSource `yaml:"datasources"`
}

// ReadDataSources reads the list of named data sources from a yaml file
func ReadDataSources(path string) ([]DataSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data sources file: %w", err)
	}
	defer f.Close()
	return decodeDataSources(f)
}

func decodeDataSources(r io.Reader) ([]DataSource, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var file dataSourcesFile
	if err := decoder.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return []DataSource{}, nil
		}
		return nil, fmt.Errorf("failed to decode data sources: %w", err)
	}

	seen := make(map[string]bool, len(file.DataSources))
	for i, ds := range file.DataSources {
		name := strings.TrimSpace(ds.Name)
		if name == "" {
			return nil, fmt.Errorf("data source at index %d has no name", i)
		}
		if seen[name] {
			return nil, fmt.Errorf("data source %s is defined more than once", name)
		}
		seen[name] = true
		file.DataSources[i].Name = name
	}
	return file.DataSources, nil
}
