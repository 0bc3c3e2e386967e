// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package tdb

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/knakk/rdf"
	log "github.com/sirupsen/logrus"
)

var ErrNoTriples = errors.New("no triples to load")

// Triples that belong in the same graph of a store.
// An empty GraphIRI means the default graph
type NamedGraph struct {
	GraphIRI string
	Triples  []rdf.Triple
}

// InsertData renders the graph as a SPARQL INSERT DATA update
func (g NamedGraph) InsertData() string {
	var body strings.Builder
	for _, triple := range g.Triples {
		body.WriteString(triple.Serialize(rdf.NTriples))
	}
	if g.GraphIRI == "" {
		return "INSERT DATA {\n" + body.String() + "}"
	}
	return fmt.Sprintf("INSERT DATA { GRAPH <%s> {\n%s} }", g.GraphIRI, body.String())
}

// FormatForFile picks the rdf format from a file extension
func FormatForFile(path string) (rdf.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".nt":
		return rdf.NTriples, nil
	case ".nq":
		return rdf.NQuads, nil
	default:
		return 0, fmt.Errorf("cannot load %s; only .nt and .nq files are supported", path)
	}
}

// DecodeGraphs reads N-Triples or N-Quads and groups the statements by graph,
// in the order each graph first appears. For N-Triples every statement goes
// into graphIRI; for N-Quads graphIRI only replaces the graph when set,
// and statements without a graph go to the default graph
func DecodeGraphs(r io.Reader, format rdf.Format, graphIRI string) ([]NamedGraph, error) {
	if graphIRI != "" {
		if _, err := rdf.NewIRI(graphIRI); err != nil {
			return nil, fmt.Errorf("invalid graph %q: %w", graphIRI, err)
		}
	}

	var graphs []NamedGraph
	index := map[string]int{}
	add := func(graph string, triple rdf.Triple) {
		i, ok := index[graph]
		if !ok {
			i = len(graphs)
			index[graph] = i
			graphs = append(graphs, NamedGraph{GraphIRI: graph})
		}
		graphs[i].Triples = append(graphs[i].Triples, triple)
	}

	switch format {
	case rdf.NTriples:
		triples, err := rdf.NewTripleDecoder(r, rdf.NTriples).DecodeAll()
		if err != nil {
			return nil, fmt.Errorf("error decoding triples: %w", err)
		}
		for _, triple := range triples {
			add(graphIRI, triple)
		}
	case rdf.NQuads:
		quads, err := rdf.NewQuadDecoder(r, rdf.NQuads).DecodeAll()
		if err != nil {
			return nil, fmt.Errorf("error decoding quads: %w", err)
		}
		for _, quad := range quads {
			graph := graphIRI
			// statements without a graph are decoded with a blank node context
			if iri, ok := quad.Ctx.(rdf.IRI); graph == "" && ok {
				graph = iri.String()
			}
			add(graph, quad.Triple)
		}
	default:
		return nil, fmt.Errorf("unsupported rdf format %v", format)
	}

	if len(graphs) == 0 {
		return nil, ErrNoTriples
	}
	log.Debugf("Decoded %d graphs", len(graphs))
	return graphs, nil
}
