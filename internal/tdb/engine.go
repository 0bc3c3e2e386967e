// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package tdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/internetofwater/sparqltdb/internal/config"
	"github.com/internetofwater/sparqltdb/internal/metrics"
	"github.com/internetofwater/sparqltdb/internal/opentelemetry"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// The external engine that actually executes SPARQL against a store.
// The driver only manages connection parameters and result mapping
type Engine interface {
	// Run a SPARQL query form (SELECT, ASK, CONSTRUCT, DESCRIBE) against the store at location
	Query(ctx context.Context, location, query string) (*ResultSet, error)

	// Run a SPARQL update against the store at location
	Update(ctx context.Context, location, update string) error
}

// Runs a command and returns what it wrote to stdout
type Runner interface {
	Run(ctx context.Context, argv []string) ([]byte, error)
}

// Adapts a plain function to the Runner interface
type RunnerFunc func(ctx context.Context, argv []string) ([]byte, error)

func (f RunnerFunc) Run(ctx context.Context, argv []string) ([]byte, error) {
	return f(ctx, argv)
}

// Runs commands as local processes
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, argv []string) ([]byte, error) {
	if len(argv) == 0 {
		return nil, errors.New("no command to run")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("%s failed: %w", argv[0], err)
		}
		return nil, fmt.Errorf("%s failed: %w: %s", argv[0], err, msg)
	}
	return stdout.Bytes(), nil
}

// assert that the command engine implements the interface
var _ Engine = &CommandEngine{}

// CommandEngine executes SPARQL with the jena tdbquery and tdbupdate tools
type CommandEngine struct {
	QueryBinary  string
	UpdateBinary string
	// applied when the caller's context has no deadline
	Timeout time.Duration
	Runner  Runner
}

func NewCommandEngine(conf config.EngineConfig) *CommandEngine {
	return &CommandEngine{
		QueryBinary:  conf.QueryBinary,
		UpdateBinary: conf.UpdateBinary,
		Timeout:      conf.Timeout,
		Runner:       ExecRunner{},
	}
}

func (e *CommandEngine) Query(ctx context.Context, location, query string) (*ResultSet, error) {
	span, ctx := opentelemetry.SubSpanFromCtx(ctx)
	defer span.End()

	form := QueryForm(query)
	span.SetAttributes(attribute.String("tdb.location", location), attribute.String("sparql.form", form))

	resultsFormat := "json"
	if form == FormConstruct || form == FormDescribe {
		resultsFormat = "nt"
	}

	argv := []string{e.QueryBinary, "--loc=" + location, "--results=" + resultsFormat, query}
	out, err := e.run(ctx, "query", argv)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if resultsFormat == "nt" {
		return ParseTriples(bytes.NewReader(out))
	}
	return ParseResults(out)
}

func (e *CommandEngine) Update(ctx context.Context, location, update string) error {
	span, ctx := opentelemetry.SubSpanFromCtx(ctx)
	defer span.End()
	span.SetAttributes(attribute.String("tdb.location", location))

	_, err := e.run(ctx, "update", []string{e.UpdateBinary, "--loc=" + location, update})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (e *CommandEngine) run(ctx context.Context, kind string, argv []string) ([]byte, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	runner := e.Runner
	if runner == nil {
		runner = ExecRunner{}
	}

	log.Debugf("Running jena %s with %s", kind, argv[0])
	start := time.Now()
	out, err := runner.Run(ctx, argv)
	metrics.ObserveEngineCall(kind, start, err)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("jena %s did not finish: %w", kind, ctxErr)
		}
		return nil, fmt.Errorf("jena %s failed: %w", kind, err)
	}
	return out, nil
}
