// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package tdb

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// The name the driver is registered under with database/sql
	DriverName = "jena-tdb"
	// Every connection url starts with this prefix
	URLPrefix = "jdbc:jena:tdb:"

	ParamLocation          = "location"
	ParamMustExist         = "must-exist"
	ParamJdbcCompatibility = "jdbc-compatibility"
	ParamTimeout           = "timeout"

	// Column values are the N-Triples form of each term
	CompatibilityLow = 1
	// Column values are lexical forms, with common xsd types converted to go values
	CompatibilityMedium = 2
	CompatibilityHigh   = 3
)

var ErrMissingLocation = errors.New("required connection parameter location is not present")
var ErrUnknownProperty = errors.New("unrecognized connection parameter")

// FormatURL builds the driver connection url for a store.
// The location is embedded verbatim; it is not escaped or validated
func FormatURL(location string, mustExist bool) string {
	return fmt.Sprintf("%s%s=%s&%s=%t", URLPrefix, ParamLocation, location, ParamMustExist, mustExist)
}

// Connection parameters decoded from a connection url
type Params struct {
	Location      string
	MustExist     bool
	Compatibility int
	// zero means the engine default is used
	Timeout time.Duration
}

// ParseURL decodes a connection url produced by FormatURL, optionally
// extended with the other keys reported by PropertyInfos.
// Since FormatURL does not escape the location, a location containing
// '&' cannot be recovered
func ParseURL(url string) (Params, error) {
	rest, ok := strings.CutPrefix(url, URLPrefix)
	if !ok {
		return Params{}, fmt.Errorf("%s is not a jena tdb connection url; expected the prefix %s", url, URLPrefix)
	}

	params := Params{Compatibility: CompatibilityLow}
	for _, part := range strings.Split(rest, "&") {
		if part == "" {
			continue
		}
		key, value, found := strings.Cut(part, "=")
		if !found {
			return Params{}, fmt.Errorf("malformed connection parameter %q; expected key=value", part)
		}
		switch key {
		case ParamLocation:
			params.Location = value
		case ParamMustExist:
			mustExist, err := strconv.ParseBool(value)
			if err != nil {
				return Params{}, fmt.Errorf("invalid value %q for %s: %w", value, ParamMustExist, err)
			}
			params.MustExist = mustExist
		case ParamJdbcCompatibility:
			level, err := strconv.Atoi(value)
			if err != nil || level < CompatibilityLow || level > CompatibilityHigh {
				return Params{}, fmt.Errorf("invalid value %q for %s; expected a level between %d and %d", value, ParamJdbcCompatibility, CompatibilityLow, CompatibilityHigh)
			}
			params.Compatibility = level
		case ParamTimeout:
			timeout, err := time.ParseDuration(value)
			if err != nil || timeout <= 0 {
				return Params{}, fmt.Errorf("invalid value %q for %s; expected a positive duration", value, ParamTimeout)
			}
			params.Timeout = timeout
		default:
			return Params{}, fmt.Errorf("%w: %s", ErrUnknownProperty, key)
		}
	}

	if params.Location == "" {
		return Params{}, ErrMissingLocation
	}
	return params, nil
}

// Describes a connection parameter the driver accepts
type PropertyInfo struct {
	Name        string
	Description string
	Default     string
	Required    bool
}

// PropertyInfos lists every connection parameter understood by ParseURL
func PropertyInfos() []PropertyInfo {
	return []PropertyInfo{
		{
			Name:        ParamLocation,
			Description: "filesystem path to the TDB store directory; the in-memory location \"memory\" is not supported",
			Required:    true,
		},
		{
			Name:        ParamMustExist,
			Description: "if true the store must already exist, otherwise it is created on first use",
			Default:     "false",
		},
		{
			Name:        ParamJdbcCompatibility,
			Description: "how RDF terms are mapped to column values; 1 returns N-Triples, 2 and 3 return typed lexical values",
			Default:     strconv.Itoa(CompatibilityLow),
		},
		{
			Name:        ParamTimeout,
			Description: "timeout for each call to the engine, as a duration such as 30s",
		},
	}
}
