// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/trace"
	"strings"
	"syscall"

	"github.com/internetofwater/sparqltdb/internal/common"
	"github.com/internetofwater/sparqltdb/internal/config"
	"github.com/internetofwater/sparqltdb/internal/database"
	"github.com/internetofwater/sparqltdb/internal/jenatdb"
	"github.com/internetofwater/sparqltdb/internal/opentelemetry"
	"github.com/internetofwater/sparqltdb/internal/server"
	"github.com/internetofwater/sparqltdb/internal/tdb"

	"github.com/alexflint/go-arg"
	log "github.com/sirupsen/logrus"
	otelTrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Returned when a validation completed but reported an error
var ErrValidationFailed = errors.New("validation failed")

type URLCmd struct{}
type ValidateCmd struct{}
type ValidateAllCmd struct {
	Concurrency int `arg:"--concurrency" help:"how many data sources to validate at once" default:"4"`
}
type PropertiesCmd struct {
	File string `arg:"positional" help:"file with the properties to check; stdin is read if omitted"`
}
type QueryCmd struct {
	Query         string `arg:"positional,required"`
	Compatibility int    `arg:"--jdbc-compatibility" help:"1 prints N-Triples terms, 2 and 3 print typed values" default:"1"`
}
type UpdateCmd struct {
	Update string `arg:"positional,required"`
}
type LoadCmd struct {
	File  string `arg:"positional,required" help:"an N-Triples (.nt) or N-Quads (.nq) file"`
	Graph string `arg:"--graph" help:"load every statement into this graph instead of the one in the file"`
}
type ServeCmd struct{}

type SparqlTDBArgs struct {
	// Subcommands that can be run
	URL         *URLCmd         `arg:"subcommand:url" help:"print the connection url for a store"`
	Validate    *ValidateCmd    `arg:"subcommand:validate" help:"check that a store can be connected to and queried"`
	ValidateAll *ValidateAllCmd `arg:"subcommand:validate-all" help:"validate every data source in the data sources file"`
	Properties  *PropertiesCmd  `arg:"subcommand:properties" help:"check a block of extra connection properties"`
	Query       *QueryCmd       `arg:"subcommand:query" help:"run a SPARQL query against a store and print the rows"`
	Update      *UpdateCmd      `arg:"subcommand:update" help:"run a SPARQL update against a store"`
	Load        *LoadCmd        `arg:"subcommand:load" help:"insert the statements of an rdf file into a store"`
	Serve       *ServeCmd       `arg:"subcommand:serve" help:"serve the validation endpoints over http"`

	// Flags that can be set for config particular services / operations
	config.TDBConfig
	config.EngineConfig
	config.ServerConfig
	DataSourcesFile string `arg:"--datasources,env:SPARQLTDB_DATASOURCES" help:"yaml file listing named data sources"`

	// Flags that can be set which affect all operations
	LogLevel     string `arg:"--log-level" default:"INFO"`
	Trace        bool   `arg:"--trace" help:"enable runtime tracing for performance analysis"`
	TraceFile    string `arg:"--trace-file" help:"where to write the runtime trace" default:"trace.out"`
	UseOtel      bool   `arg:"--use-otel"`
	OtelEndpoint string `arg:"--otel-endpoint" help:"OpenTelemetry endpoint"`
}

// ToStructuredConfig converts the args to a structured config
// that can be used for more config isolation
func (a SparqlTDBArgs) ToStructuredConfig() config.SparqlTDBConfig {
	return config.SparqlTDBConfig{
		TDB:             a.TDBConfig,
		Engine:          a.EngineConfig,
		Server:          a.ServerConfig,
		DataSourcesFile: a.DataSourcesFile,
	}
}

type SparqlTDBRunner struct {
	args SparqlTDBArgs
	out  io.Writer
	in   io.Reader
}

func NewSparqlTDBRunner(cliArgs []string) (SparqlTDBRunner, error) {
	args := SparqlTDBArgs{}
	parser, err := arg.NewParser(arg.Config{Program: "sparqltdb"}, &args)
	if err != nil {
		return SparqlTDBRunner{}, err
	}
	if err := parser.Parse(cliArgs); err != nil {
		if errors.Is(err, arg.ErrHelp) {
			parser.WriteHelp(os.Stdout)
		}
		return SparqlTDBRunner{}, err
	}
	if parser.Subcommand() == nil {
		parser.WriteHelp(os.Stderr)
		return SparqlTDBRunner{}, errors.New("no subcommand provided")
	}
	return SparqlTDBRunner{args: args, out: os.Stdout, in: os.Stdin}, nil
}

func (r SparqlTDBRunner) Run(ctx context.Context) error {
	level, err := log.ParseLevel(r.args.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %s: %w", r.args.LogLevel, err)
	}
	log.SetLevel(level)
	log.SetFormatter(&log.JSONFormatter{})

	if r.args.UseOtel || r.args.OtelEndpoint != "" {
		if r.args.OtelEndpoint == "" {
			r.args.OtelEndpoint = opentelemetry.DefaultTracingEndpoint
		}
		log.Infof("Starting opentelemetry traces and exporting to: %s", r.args.OtelEndpoint)
		if err := opentelemetry.InitTracer("sparqltdb", r.args.OtelEndpoint); err != nil {
			return err
		}
		var span otelTrace.Span
		span, ctx = opentelemetry.SubSpanFromCtxWithName(ctx, strings.Join(os.Args, "_"))
		defer opentelemetry.Shutdown()
		defer span.End()
	}

	if r.args.Trace || common.ProfilingEnabled() {
		log.Infof("Trace enabled; Outputting to %s", r.args.TraceFile)
		f, err := os.Create(r.args.TraceFile)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := trace.Start(f); err != nil {
			return err
		}
		defer trace.Stop()
	}

	cfg := r.args.ToStructuredConfig()

	// a failed registration is already logged; operations that need the
	// driver will report it as unknown
	_ = tdb.Register(tdb.NewCommandEngine(cfg.Engine))

	switch {
	case r.args.URL != nil:
		_, err := fmt.Fprintln(r.out, jenatdb.New(cfg.TDB.Location, &cfg.TDB.MustExist).ConnectionString())
		return err
	case r.args.Validate != nil:
		result := jenatdb.NewDescriptor().Validate(ctx, cfg.TDB.Location, &cfg.TDB.MustExist)
		return r.report(result)
	case r.args.ValidateAll != nil:
		return r.validateAll(ctx, cfg, r.args.ValidateAll.Concurrency)
	case r.args.Properties != nil:
		return r.validateProperties(r.args.Properties.File)
	case r.args.Query != nil:
		return r.query(ctx, cfg.TDB, *r.args.Query)
	case r.args.Update != nil:
		return r.update(ctx, cfg.TDB, r.args.Update.Update)
	case r.args.Load != nil:
		return r.load(ctx, cfg.TDB, *r.args.Load)
	case r.args.Serve != nil:
		return r.serve(ctx, cfg)
	default:
		return fmt.Errorf("unknown sparqltdb subcommand")
	}
}

// report prints the result and turns an error result into an error
func (r SparqlTDBRunner) report(result database.FormValidation) error {
	if err := json.NewEncoder(r.out).Encode(result); err != nil {
		return err
	}
	if result.Kind == database.KindError {
		return fmt.Errorf("%w: %s", ErrValidationFailed, result)
	}
	return nil
}

type namedResult struct {
	Name   string                  `json:"name"`
	Result database.FormValidation `json:"result"`
}

func (r SparqlTDBRunner) validateAll(ctx context.Context, cfg config.SparqlTDBConfig, concurrency int) error {
	if cfg.DataSourcesFile == "" {
		return errors.New("validate-all needs a data sources file; set --datasources")
	}
	dataSources, err := config.ReadDataSources(cfg.DataSourcesFile)
	if err != nil {
		return err
	}

	descriptor := jenatdb.NewDescriptor()
	results := make([]namedResult, len(dataSources))

	group, groupCtx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		group.SetLimit(concurrency)
	}
	for i, ds := range dataSources {
		group.Go(func() error {
			results[i] = namedResult{
				Name:   ds.Name,
				Result: descriptor.Validate(groupCtx, ds.Location, ds.MustExist),
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	var failed []string
	encoder := json.NewEncoder(r.out)
	for _, result := range results {
		if err := encoder.Encode(result); err != nil {
			return err
		}
		if result.Result.Kind == database.KindError {
			failed = append(failed, result.Name)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%w for %s", ErrValidationFailed, strings.Join(failed, ", "))
	}
	log.Infof("Validated %d data sources", len(results))
	return nil
}

func (r SparqlTDBRunner) validateProperties(file string) error {
	var text []byte
	var err error
	if file == "" {
		text, err = io.ReadAll(r.in)
	} else {
		text, err = os.ReadFile(file)
	}
	if err != nil {
		return err
	}
	return r.report(jenatdb.NewDescriptor().ValidateProperties(string(text)))
}

func (r SparqlTDBRunner) query(ctx context.Context, tdbConfig config.TDBConfig, cmd QueryCmd) error {
	pool := database.NewPool()
	defer pool.Close()

	url := tdb.FormatURL(tdbConfig.Location, tdbConfig.MustExist)
	if cmd.Compatibility != tdb.CompatibilityLow {
		url += fmt.Sprintf("&%s=%d", tdb.ParamJdbcCompatibility, cmd.Compatibility)
	}
	db, err := pool.DataSource(rawURL{url: url})
	if err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, cmd.Query)
	if err != nil {
		return err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(r.out)
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return err
		}
		row := make(map[string]any, len(columns))
		for i, column := range columns {
			row[column] = values[i]
		}
		if err := encoder.Encode(row); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r SparqlTDBRunner) update(ctx context.Context, tdbConfig config.TDBConfig, update string) error {
	pool := database.NewPool()
	defer pool.Close()

	db, err := pool.DataSource(jenatdb.New(tdbConfig.Location, &tdbConfig.MustExist))
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, update); err != nil {
		return err
	}
	log.Infof("Applied update to %s", tdbConfig.Location)
	return nil
}

func (r SparqlTDBRunner) load(ctx context.Context, tdbConfig config.TDBConfig, cmd LoadCmd) error {
	format, err := tdb.FormatForFile(cmd.File)
	if err != nil {
		return err
	}
	f, err := os.Open(cmd.File)
	if err != nil {
		return err
	}
	defer f.Close()

	graphs, err := tdb.DecodeGraphs(f, format, cmd.Graph)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cmd.File, err)
	}

	pool := database.NewPool()
	defer pool.Close()
	db, err := pool.DataSource(jenatdb.New(tdbConfig.Location, &tdbConfig.MustExist))
	if err != nil {
		return err
	}

	for _, graph := range graphs {
		if _, err := db.ExecContext(ctx, graph.InsertData()); err != nil {
			return fmt.Errorf("failed to load graph %q: %w", graph.GraphIRI, err)
		}
		log.Infof("Loaded %d triples into graph %q", len(graph.Triples), graph.GraphIRI)
	}
	return nil
}

func (r SparqlTDBRunner) serve(ctx context.Context, cfg config.SparqlTDBConfig) error {
	var dataSources []config.DataSource
	if cfg.DataSourcesFile != "" {
		var err error
		dataSources, err = config.ReadDataSources(cfg.DataSourcesFile)
		if err != nil {
			return err
		}
	}
	return server.New(jenatdb.NewDescriptor(), dataSources).ListenAndServe(ctx, cfg.Server.Address)
}

// a connection url that carries parameters beyond location and must-exist
type rawURL struct {
	url string
}

func (r rawURL) DriverName() string       { return tdb.DriverName }
func (r rawURL) ConnectionString() string { return r.url }

func main() {
	runner, err := NewSparqlTDBRunner(os.Args[1:])
	if errors.Is(err, arg.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runner.Run(ctx); err != nil {
		if errors.Is(err, ErrValidationFailed) {
			log.Error(err)
			// a failed check is not a crash; distinguish it from fatal errors
			const validationFailure = 3
			log.Exit(validationFailure)
		}
		log.Fatal(err)
	}
}
