// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package jenatdb

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/internetofwater/sparqltdb/internal/database"
	"github.com/internetofwater/sparqltdb/internal/tdb"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// Field names used by forms and json payloads
const (
	FieldLocation  = "location"
	FieldMustExist = "mustExist"
)

// assert that a database can be handed to the data source pool
var _ database.RemoteDatabase = Database{}

// Database identifies a TDB store by its location on disk
type Database struct {
	location  string
	mustExist bool
}

// New builds a database, treating a blank location as empty and an
// unset mustExist as false
func New(location string, mustExist *bool) Database {
	if strings.TrimSpace(location) == "" {
		location = ""
	}
	return Database{
		location:  location,
		mustExist: mustExist != nil && *mustExist,
	}
}

func (d Database) Location() string {
	return d.location
}

func (d Database) MustExist() bool {
	return d.mustExist
}

func (d Database) DriverName() string {
	return tdb.DriverName
}

func (d Database) ConnectionString() string {
	connectionString := tdb.FormatURL(d.location, d.mustExist)
	log.Debugf("Constructed connection string: %s", connectionString)
	return connectionString
}

// FromForm reads a database from submitted form fields.
// A checked html checkbox sends "on" which counts as true
func FromForm(values url.Values) (Database, error) {
	var mustExist *bool
	if raw := strings.TrimSpace(values.Get(FieldMustExist)); raw != "" {
		parsed, err := parseBool(raw)
		if err != nil {
			return Database{}, err
		}
		mustExist = &parsed
	}
	return New(values.Get(FieldLocation), mustExist), nil
}

// FromJSON reads a database from a json object such as
// {"location": "/var/lib/tdb", "mustExist": true}
func FromJSON(body []byte) (Database, error) {
	if !gjson.ValidBytes(body) {
		return Database{}, fmt.Errorf("invalid json payload")
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return Database{}, fmt.Errorf("expected a json object with %s and %s", FieldLocation, FieldMustExist)
	}

	location := parsed.Get(FieldLocation)
	if location.Exists() && location.Type != gjson.String && location.Type != gjson.Null {
		return Database{}, fmt.Errorf("%s must be a string", FieldLocation)
	}

	var mustExist *bool
	switch field := parsed.Get(FieldMustExist); field.Type {
	case gjson.Null:
	case gjson.True, gjson.False:
		value := field.Bool()
		mustExist = &value
	case gjson.String:
		if strings.TrimSpace(field.Str) == "" {
			break
		}
		value, err := parseBool(field.Str)
		if err != nil {
			return Database{}, err
		}
		mustExist = &value
	default:
		return Database{}, fmt.Errorf("%s must be a boolean", FieldMustExist)
	}
	return New(location.String(), mustExist), nil
}

func parseBool(raw string) (bool, error) {
	if strings.EqualFold(raw, "on") {
		return true, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid value %q for %s", raw, FieldMustExist)
	}
	return value, nil
}
