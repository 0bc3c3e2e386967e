// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package tdb

import (
	"strings"
	"unicode"
)

const (
	FormSelect    = "SELECT"
	FormAsk       = "ASK"
	FormConstruct = "CONSTRUCT"
	FormDescribe  = "DESCRIBE"
)

// QueryForm returns the SPARQL query form of the text, skipping comments
// and any PREFIX or BASE declarations. It returns an empty string for
// updates and anything it does not recognize
func QueryForm(sparql string) string {
	s := sparql
	for {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		if strings.HasPrefix(s, "#") {
			newline := strings.IndexByte(s, '\n')
			if newline < 0 {
				return ""
			}
			s = s[newline+1:]
			continue
		}

		keyword := strings.ToUpper(firstWord(s))
		switch keyword {
		case "PREFIX", "BASE":
			// both declarations end with an iri in angle brackets
			end := strings.IndexByte(s, '>')
			if end < 0 {
				return ""
			}
			s = s[end+1:]
		case FormSelect, FormAsk, FormConstruct, FormDescribe:
			return keyword
		default:
			return ""
		}
	}
}

func firstWord(s string) string {
	end := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if end < 0 {
		return s
	}
	return s[:end]
}

// IsQuery reports whether the text is a query rather than an update
func IsQuery(sparql string) bool {
	return QueryForm(sparql) != ""
}
