// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/internetofwater/sparqltdb/internal/config"
	"github.com/internetofwater/sparqltdb/internal/jenatdb"
	"github.com/internetofwater/sparqltdb/internal/tdb"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	EndPointValidate           = "/descriptor/validate"
	EndPointValidateProperties = "/descriptor/properties"
	EndPointConnectionURL      = "/descriptor/url"
	EndPointDataSources        = "/datasources"
	EndPointValidateDataSource = "/datasources/:name/validate"
	EndPointHealth             = "/healthz"
	EndPointMetrics            = "/metrics"
)

const maxBodySize = 1 << 20

var errBodyTooLarge = fmt.Errorf("request body is larger than %d bytes", maxBodySize)

// Server exposes the descriptor operations over http
type Server struct {
	router      *gin.Engine
	descriptor  *jenatdb.Descriptor
	dataSources map[string]config.DataSource
	// preserves the order data sources were configured in
	names []string
}

func New(descriptor *jenatdb.Descriptor, dataSources []config.DataSource) *Server {
	s := &Server{
		router:      gin.New(),
		descriptor:  descriptor,
		dataSources: make(map[string]config.DataSource, len(dataSources)),
	}
	for _, ds := range dataSources {
		s.dataSources[ds.Name] = ds
		s.names = append(s.names, ds.Name)
	}

	s.router.Use(gin.Recovery(), requestLogger())
	s.router.POST(EndPointValidate, s.validate)
	s.router.POST(EndPointValidateProperties, s.validateProperties)
	s.router.GET(EndPointConnectionURL, s.connectionURL)
	s.router.GET(EndPointDataSources, s.listDataSources)
	s.router.POST(EndPointValidateDataSource, s.validateDataSource)
	s.router.GET(EndPointHealth, s.health)
	s.router.GET(EndPointMetrics, gin.WrapH(promhttp.Handler()))
	return s
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

// Handler returns the router wrapped with request tracing
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "sparqltdb")
}

// ListenAndServe serves until the context is cancelled
func (s *Server) ListenAndServe(ctx context.Context, address string) error {
	srv := &http.Server{
		Addr:              address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Infof("Listening on %s", address)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("handled request")
	}
}

func abortWithError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// validate accepts either a json body or form fields
func (s *Server) validate(c *gin.Context) {
	db, err := databaseFromRequest(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, s.descriptor.ValidateDatabase(c.Request.Context(), db))
}

func databaseFromRequest(c *gin.Context) (jenatdb.Database, error) {
	mediaType, _, _ := mime.ParseMediaType(c.GetHeader("Content-Type"))
	if mediaType == gin.MIMEJSON {
		body, err := readBody(c)
		if err != nil {
			return jenatdb.Database{}, err
		}
		return jenatdb.FromJSON(body)
	}
	if err := c.Request.ParseForm(); err != nil {
		return jenatdb.Database{}, err
	}
	return jenatdb.FromForm(c.Request.PostForm)
}

// readBody reads the whole request body, refusing anything over maxBodySize
func readBody(c *gin.Context) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodySize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxBodySize {
		return nil, errBodyTooLarge
	}
	return body, nil
}

func (s *Server) validateProperties(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, s.descriptor.ValidateProperties(string(body)))
}

func (s *Server) connectionURL(c *gin.Context) {
	db, err := jenatdb.FromForm(c.Request.URL.Query())
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": db.ConnectionString()})
}

type dataSourceResponse struct {
	Name      string `json:"name"`
	Location  string `json:"location"`
	MustExist bool   `json:"mustExist"`
	URL       string `json:"url"`
}

func (s *Server) listDataSources(c *gin.Context) {
	out := make([]dataSourceResponse, 0, len(s.names))
	for _, name := range s.names {
		ds := s.dataSources[name]
		db := jenatdb.New(ds.Location, ds.MustExist)
		out = append(out, dataSourceResponse{
			Name:      ds.Name,
			Location:  db.Location(),
			MustExist: db.MustExist(),
			URL:       db.ConnectionString(),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) validateDataSource(c *gin.Context) {
	name := c.Param("name")
	ds, ok := s.dataSources[name]
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no data source named " + name})
		return
	}
	c.JSON(http.StatusOK, s.descriptor.Validate(c.Request.Context(), ds.Location, ds.MustExist))
}

func (s *Server) health(c *gin.Context) {
	_, registered := tdb.Registered()
	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"displayName":      s.descriptor.DisplayName(),
		"driverRegistered": registered,
	})
}
