// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package tdb

import (
	"strings"
	"testing"

	"github.com/knakk/rdf"
	"github.com/stretchr/testify/require"
)

const orgQuads = `<https://example.org/id/org/gages> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <https://schema.org/Organization> <urn:iow:orgs:gages.nq> .
<https://example.org/id/org/gages> <https://schema.org/name> "Gages"@en <urn:iow:orgs:gages.nq> .
<https://example.org/id/org/dams> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <https://schema.org/Organization> <urn:iow:orgs:dams.nq> .
`

func TestDecodeQuadsGroupsByGraph(t *testing.T) {
	graphs, err := DecodeGraphs(strings.NewReader(orgQuads), rdf.NQuads, "")
	require.NoError(t, err)
	require.Len(t, graphs, 2)
	require.Equal(t, "urn:iow:orgs:gages.nq", graphs[0].GraphIRI)
	require.Len(t, graphs[0].Triples, 2)
	require.Equal(t, "urn:iow:orgs:dams.nq", graphs[1].GraphIRI)

	update := graphs[1].InsertData()
	require.True(t, strings.HasPrefix(update, "INSERT DATA { GRAPH <urn:iow:orgs:dams.nq> {"))
	require.Contains(t, update, "<https://example.org/id/org/dams>")
	require.False(t, IsQuery(update))
}

func TestDecodeQuadsWithGraphOverride(t *testing.T) {
	graphs, err := DecodeGraphs(strings.NewReader(orgQuads), rdf.NQuads, "urn:iow:orgs")
	require.NoError(t, err)
	require.Len(t, graphs, 1)
	require.Len(t, graphs[0].Triples, 3)
}

func TestDecodeTriples(t *testing.T) {
	nt := "<http://example.org/a> <http://example.org/b> <http://example.org/c> .\n"

	graphs, err := DecodeGraphs(strings.NewReader(nt), rdf.NTriples, "")
	require.NoError(t, err)
	require.Len(t, graphs, 1)
	require.Empty(t, graphs[0].GraphIRI)
	require.Equal(t, "INSERT DATA {\n<http://example.org/a> <http://example.org/b> <http://example.org/c> .\n}", graphs[0].InsertData())

	graphs, err = DecodeGraphs(strings.NewReader(nt), rdf.NTriples, "http://example.org/graph")
	require.NoError(t, err)
	require.Equal(t, "http://example.org/graph", graphs[0].GraphIRI)
}

func TestDecodeGraphsErrors(t *testing.T) {
	_, err := DecodeGraphs(strings.NewReader(""), rdf.NTriples, "")
	require.ErrorIs(t, err, ErrNoTriples)

	_, err = DecodeGraphs(strings.NewReader("not rdf at all"), rdf.NTriples, "")
	require.ErrorContains(t, err, "error decoding triples")

	_, err = DecodeGraphs(strings.NewReader(orgQuads), rdf.NQuads, "has spaces in it")
	require.ErrorContains(t, err, "invalid graph")
}

func TestFormatForFile(t *testing.T) {
	format, err := FormatForFile("/data/orgs.NQ")
	require.NoError(t, err)
	require.Equal(t, rdf.NQuads, format)

	format, err = FormatForFile("export.nt")
	require.NoError(t, err)
	require.Equal(t, rdf.NTriples, format)

	_, err = FormatForFile("data.jsonld")
	require.Error(t, err)
}

func TestDecodeQuadsWithoutGraph(t *testing.T) {
	nq := "<http://example.org/a> <http://example.org/b> <http://example.org/c> .\n" +
		"<http://example.org/a> <http://example.org/b> <http://example.org/d> <urn:iow:named> .\n"

	graphs, err := DecodeGraphs(strings.NewReader(nq), rdf.NQuads, "")
	require.NoError(t, err)
	require.Len(t, graphs, 2)
	require.Empty(t, graphs[0].GraphIRI)
	require.Equal(t, "INSERT DATA {\n<http://example.org/a> <http://example.org/b> <http://example.org/c> .\n}", graphs[0].InsertData())
	require.NotContains(t, graphs[0].InsertData(), "GRAPH")
	require.Equal(t, "urn:iow:named", graphs[1].GraphIRI)
}
