// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package tdb

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/knakk/rdf"
	"github.com/tidwall/gjson"
)

// A single bound value in a result row
type Value struct {
	Term rdf.Term
	// the lexical form as reported by the engine
	Lexical string
	// the datatype iri for typed literals, empty otherwise
	Datatype string
}

// The results of a query against the store.
// Boolean is set for ASK queries; Vars and Rows are set otherwise.
// A nil entry in a row means the variable was unbound
type ResultSet struct {
	Vars    []string
	Rows    [][]*Value
	Boolean *bool
}

// ParseResults decodes the SPARQL 1.1 query results JSON format
func ParseResults(body []byte) (*ResultSet, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("engine returned invalid json results: %s", truncate(string(body), 200))
	}
	parsed := gjson.ParseBytes(body)

	if boolean := parsed.Get("boolean"); boolean.Exists() {
		result := boolean.Bool()
		return &ResultSet{Boolean: &result}, nil
	}

	head := parsed.Get("head.vars")
	if !head.IsArray() {
		return nil, errors.New("results are missing head.vars")
	}
	set := &ResultSet{}
	for _, v := range head.Array() {
		set.Vars = append(set.Vars, v.String())
	}

	for _, binding := range parsed.Get("results.bindings").Array() {
		fields := binding.Map()
		row := make([]*Value, len(set.Vars))
		for i, name := range set.Vars {
			field, ok := fields[name]
			if !ok {
				continue
			}
			value, err := valueFromBinding(field)
			if err != nil {
				return nil, fmt.Errorf("invalid binding for ?%s: %w", name, err)
			}
			row[i] = value
		}
		set.Rows = append(set.Rows, row)
	}
	return set, nil
}

func valueFromBinding(binding gjson.Result) (*Value, error) {
	fields := binding.Map()
	lexical := fields["value"].String()

	switch termType := fields["type"].String(); termType {
	case "uri":
		iri, err := rdf.NewIRI(lexical)
		if err != nil {
			return nil, err
		}
		return &Value{Term: iri, Lexical: lexical}, nil
	case "bnode":
		blank, err := rdf.NewBlank(lexical)
		if err != nil {
			return nil, err
		}
		return &Value{Term: blank, Lexical: lexical}, nil
	case "literal", "typed-literal":
		if lang := fields["xml:lang"].String(); lang != "" {
			literal, err := rdf.NewLangLiteral(lexical, lang)
			if err != nil {
				return nil, err
			}
			return &Value{Term: literal, Lexical: lexical}, nil
		}
		if datatype := fields["datatype"].String(); datatype != "" {
			dt, err := rdf.NewIRI(datatype)
			if err != nil {
				return nil, err
			}
			return &Value{Term: rdf.NewTypedLiteral(lexical, dt), Lexical: lexical, Datatype: datatype}, nil
		}
		literal, err := rdf.NewLiteral(lexical)
		if err != nil {
			return nil, err
		}
		return &Value{Term: literal, Lexical: lexical}, nil
	default:
		return nil, fmt.Errorf("unknown term type %q", termType)
	}
}

// ParseTriples decodes the N-Triples output of a CONSTRUCT or DESCRIBE
// query into a result set with subject, predicate and object columns
func ParseTriples(r io.Reader) (*ResultSet, error) {
	dec := rdf.NewTripleDecoder(r, rdf.NTriples)
	triples, err := dec.DecodeAll()
	if err != nil {
		return nil, fmt.Errorf("failed to decode triples: %w", err)
	}

	set := &ResultSet{Vars: []string{"Subject", "Predicate", "Object"}}
	for _, triple := range triples {
		set.Rows = append(set.Rows, []*Value{
			valueFromTerm(triple.Subj),
			valueFromTerm(triple.Pred),
			valueFromTerm(triple.Obj),
		})
	}
	return set, nil
}

func valueFromTerm(term rdf.Term) *Value {
	value := &Value{Term: term, Lexical: term.String()}
	if literal, ok := term.(rdf.Literal); ok && literal.Lang() == "" {
		value.Datatype = literal.DataType.String()
	}
	return value
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n]) + "..."
}
