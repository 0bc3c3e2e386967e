// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package database

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/magiconair/properties"
)

type Kind string

const (
	KindOK      Kind = "OK"
	KindWarning Kind = "WARNING"
	KindError   Kind = "ERROR"
)

// The outcome of checking a form value, as shown to the user
type FormValidation struct {
	Kind    Kind
	Message string
	// the underlying failure for error results
	Cause error
}

func Ok(message string) FormValidation {
	return FormValidation{Kind: KindOK, Message: message}
}

func Warning(message string) FormValidation {
	return FormValidation{Kind: KindWarning, Message: message}
}

func Error(cause error, message string) FormValidation {
	return FormValidation{Kind: KindError, Message: message, Cause: cause}
}

func (v FormValidation) IsOK() bool {
	return v.Kind == KindOK
}

func (v FormValidation) String() string {
	if v.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", v.Kind, v.Message, v.Cause)
	}
	if v.Message == "" {
		return string(v.Kind)
	}
	return fmt.Sprintf("%s: %s", v.Kind, v.Message)
}

type formValidationJSON struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message,omitempty"`
	Cause   string `json:"cause,omitempty"`
}

func (v FormValidation) MarshalJSON() ([]byte, error) {
	out := formValidationJSON{Kind: v.Kind, Message: v.Message}
	if v.Cause != nil {
		out.Cause = v.Cause.Error()
	}
	return json.Marshal(out)
}

// Anything that can report which connection properties it understands
type PropertyReporter interface {
	AllowedProperties() []string
}

// How many unknown keys are named in a warning before it is cut short
const maxReportedKeys = 5

// ValidateProperties checks a block of extra connection properties in
// java properties format against the keys the reporter allows
func ValidateProperties(text string, reporter PropertyReporter) FormValidation {
	if strings.TrimSpace(text) == "" {
		return Ok("")
	}

	loader := properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	props, err := loader.LoadBytes([]byte(text))
	if err != nil {
		return Error(err, "Unable to parse the connection properties")
	}

	allowed := reporter.AllowedProperties()
	var unknown []string
	for _, key := range props.Keys() {
		if !slices.Contains(allowed, key) {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return Ok("")
	}

	slices.Sort(unknown)
	named := unknown
	if len(named) > maxReportedKeys {
		named = named[:maxReportedKeys]
	}
	msg := fmt.Sprintf("Unknown properties: %s", strings.Join(named, ", "))
	if len(unknown) > len(named) {
		msg += fmt.Sprintf(" and %d more", len(unknown)-len(named))
	}
	return Warning(msg)
}
