// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package jenatdb

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool {
	return &b
}

func TestNewAppliesDefaults(t *testing.T) {
	db := New("", nil)
	require.Equal(t, "", db.Location())
	require.False(t, db.MustExist())
	require.Equal(t, "jdbc:jena:tdb:location=&must-exist=false", db.ConnectionString())

	db = New("   \t", boolPtr(false))
	require.Equal(t, "", db.Location())
	require.Equal(t, "jdbc:jena:tdb:location=&must-exist=false", db.ConnectionString())
}

func TestConnectionString(t *testing.T) {
	cases := []struct {
		location  string
		mustExist *bool
		expected  string
	}{
		{"/var/lib/tdb", boolPtr(true), "jdbc:jena:tdb:location=/var/lib/tdb&must-exist=true"},
		{"/var/lib/tdb", boolPtr(false), "jdbc:jena:tdb:location=/var/lib/tdb&must-exist=false"},
		{"/var/lib/tdb", nil, "jdbc:jena:tdb:location=/var/lib/tdb&must-exist=false"},
		{"data/my store", boolPtr(true), "jdbc:jena:tdb:location=data/my store&must-exist=true"},
	}
	for _, c := range cases {
		db := New(c.location, c.mustExist)
		require.Equal(t, c.location, db.Location())
		require.Equal(t, c.expected, db.ConnectionString())
		require.Equal(t, "jena-tdb", db.DriverName())
	}
}

func TestFromForm(t *testing.T) {
	db, err := FromForm(url.Values{"location": {"/var/lib/tdb"}, "mustExist": {"on"}})
	require.NoError(t, err)
	require.Equal(t, New("/var/lib/tdb", boolPtr(true)), db)

	db, err = FromForm(url.Values{"location": {"/var/lib/tdb"}, "mustExist": {"false"}})
	require.NoError(t, err)
	require.False(t, db.MustExist())

	db, err = FromForm(url.Values{})
	require.NoError(t, err)
	require.Equal(t, New("", nil), db)

	_, err = FromForm(url.Values{"mustExist": {"sometimes"}})
	require.ErrorContains(t, err, "sometimes")
}

func TestFromJSON(t *testing.T) {
	db, err := FromJSON([]byte(`{"location": "/var/lib/tdb", "mustExist": true}`))
	require.NoError(t, err)
	require.Equal(t, New("/var/lib/tdb", boolPtr(true)), db)

	db, err = FromJSON([]byte(`{"location": "/var/lib/tdb", "mustExist": "true"}`))
	require.NoError(t, err)
	require.True(t, db.MustExist())

	db, err = FromJSON([]byte(`{"location": null}`))
	require.NoError(t, err)
	require.Equal(t, New("", nil), db)

	db, err = FromJSON([]byte(`{}`))
	require.NoError(t, err)
	require.Equal(t, New("", nil), db)
}

func TestFromJSONErrors(t *testing.T) {
	for _, body := range []string{
		`{"location": "/tdb"`,
		`["/tdb", true]`,
		`{"location": 5}`,
		`{"location": "/tdb", "mustExist": 1}`,
		`{"location": "/tdb", "mustExist": "perhaps"}`,
	} {
		_, err := FromJSON([]byte(body))
		require.Error(t, err, body)
	}
}
