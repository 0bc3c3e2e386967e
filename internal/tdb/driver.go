// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package tdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
)

var ErrLocationNotFound = errors.New("location does not exist and must-exist is set")
var ErrInMemoryUnsupported = errors.New("in-memory datasets are not supported; location must be a directory")

// The location jena reserves for an in-memory dataset
const InMemoryLocation = "memory"

// assert that the driver implements the database/sql interfaces
var _ driver.Driver = &Driver{}
var _ driver.DriverContext = &Driver{}

// Driver opens connections to TDB stores identified by a connection url
type Driver struct {
	engine Engine
}

func NewDriver(engine Engine) *Driver {
	return &Driver{engine: engine}
}

// Open parses the connection url and makes sure the store location is usable
func (d *Driver) Open(name string) (driver.Conn, error) {
	params, err := ParseURL(name)
	if err != nil {
		return nil, err
	}
	if err := prepareLocation(params); err != nil {
		return nil, err
	}
	log.Debugf("Opened jena tdb connection to %s", params.Location)
	return &Conn{params: params, engine: d.engine}, nil
}

func (d *Driver) OpenConnector(name string) (driver.Connector, error) {
	// fail early on a malformed url instead of on first use
	if _, err := ParseURL(name); err != nil {
		return nil, err
	}
	return &connector{driver: d, name: name}, nil
}

// PropertyInfo lists the connection parameters the driver accepts
func (d *Driver) PropertyInfo() []PropertyInfo {
	return PropertyInfos()
}

// AllowedProperties returns the names of the accepted connection parameters
func (d *Driver) AllowedProperties() []string {
	infos := d.PropertyInfo()
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}
	return names
}

type connector struct {
	driver *Driver
	name   string
}

func (c *connector) Connect(_ context.Context) (driver.Conn, error) {
	return c.driver.Open(c.name)
}

func (c *connector) Driver() driver.Driver {
	return c.driver
}

func prepareLocation(params Params) error {
	if params.Location == InMemoryLocation {
		return ErrInMemoryUnsupported
	}
	info, err := os.Stat(params.Location)
	switch {
	case err == nil && !info.IsDir():
		return fmt.Errorf("location %s is not a directory", params.Location)
	case err == nil && params.MustExist:
		// an empty directory is not a store yet
		entries, err := os.ReadDir(params.Location)
		if err != nil {
			return fmt.Errorf("failed to read location %s: %w", params.Location, err)
		}
		if len(entries) == 0 {
			return fmt.Errorf("%w: %s is empty", ErrLocationNotFound, params.Location)
		}
		return nil
	case err == nil:
		return nil
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("failed to access location %s: %w", params.Location, err)
	case params.MustExist:
		return fmt.Errorf("%w: %s", ErrLocationNotFound, params.Location)
	}

	if err := os.MkdirAll(params.Location, 0o755); err != nil {
		return fmt.Errorf("failed to create location %s: %w", params.Location, err)
	}
	log.Infof("Created new jena tdb location at %s", params.Location)
	return nil
}

var (
	registerOnce     sync.Once
	registerErr      error
	registeredDriver *Driver
)

// Register makes the driver available to database/sql under DriverName.
// Only the first call has any effect; later calls return its result.
// A failure is logged and returned rather than crashing the process,
// and sql.Open will later report the driver as unknown
func Register(engine Engine) error {
	registerOnce.Do(func() {
		d := NewDriver(engine)
		registerErr = registerDriver(DriverName, d)
		if registerErr != nil {
			log.Warnf("Failed to register Jena TDB driver: %v", registerErr)
			return
		}
		registeredDriver = d
		log.Debugf("Registered the %s driver", DriverName)
	})
	return registerErr
}

// Registered returns the driver installed by Register, if any
func Registered() (*Driver, bool) {
	return registeredDriver, registeredDriver != nil
}

// sql.Register panics on a duplicate or nil driver
func registerDriver(name string, d driver.Driver) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	sql.Register(name, d)
	return nil
}
