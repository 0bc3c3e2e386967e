// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

// Package tdbtest holds helpers for testing against jena tdb stores
package tdbtest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/internetofwater/sparqltdb/internal/tdb"

	"github.com/docker/docker/api/types/container"
	"github.com/moby/moby/pkg/stdcopy"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

const jenaImage = "stain/jena"

// NewStoreDir returns a temporary directory that the driver accepts as an
// existing store when must-exist is set
func NewStoreDir(t *testing.T) string {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nodes.dat"), nil, 0o644))
	return dir
}

type JenaContainer struct {
	Container testcontainers.Container
	// An engine that runs the jena tools inside the container
	Engine *tdb.CommandEngine
}

// Spin up a jena container with the host directory dir mounted at the same
// path, so that store locations under dir resolve identically on the host
// (where the driver checks them) and in the container (where jena opens them)
func NewJenaContainer(ctx context.Context, dir string) (JenaContainer, error) {
	req := testcontainers.ContainerRequest{
		Image: jenaImage,
		// the image runs a one shot command by default; keep it alive so we can exec into it
		Entrypoint: []string{"tail"},
		Cmd:        []string{"-f", "/dev/null"},
		HostConfigModifier: func(hc *container.HostConfig) {
			hc.Binds = append(hc.Binds, dir+":"+dir)
		},
	}
	jenaC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return JenaContainer{}, err
	}

	engine := &tdb.CommandEngine{
		QueryBinary:  "tdbquery",
		UpdateBinary: "tdbupdate",
		Timeout:      2 * time.Minute,
		Runner:       containerRunner{container: jenaC},
	}
	return JenaContainer{Container: jenaC, Engine: engine}, nil
}

// Runs commands with docker exec inside a container
type containerRunner struct {
	container testcontainers.Container
}

func (r containerRunner) Run(ctx context.Context, argv []string) ([]byte, error) {
	exitCode, reader, err := r.container.Exec(ctx, argv)
	if err != nil {
		return nil, err
	}

	// jena logs warnings to stderr so the streams have to be kept apart
	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, reader); err != nil {
		return nil, fmt.Errorf("error demuxing output of %s: %w", argv[0], err)
	}
	if exitCode != 0 {
		return nil, fmt.Errorf("%s exited with status %d: %s", argv[0], exitCode, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
