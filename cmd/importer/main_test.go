package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bus_tracker/internal/testutil"
)

func TestParseArgs(t *testing.T) {
	cases := []struct {
		name string
		args []string
		code int
		ok   bool
	}{
		{"no command prints usage", nil, 0, false},
		{"unknown command", []string{"vehicles"}, 1, false},
		{"unknown flag", []string{"-verbose", "all"}, 1, false},
		{"help", []string{"-h"}, 0, false},
		{"single stage", []string{"route-stops"}, 0, true},
		{"all with data dir", []string{"-data", "/srv/import", "all"}, 0, true},
		{"clear confirmed", []string{"-yes", "clear"}, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var stderr bytes.Buffer
			_, code, ok := parseArgs(tc.args, "./data", &stderr)
			assert.Equal(t, tc.code, code)
			assert.Equal(t, tc.ok, ok)
			if !ok {
				assert.Contains(t, stderr.String(), "usage: importer")
			}
		})
	}
}

func TestSourcesResolveAgainstDataDir(t *testing.T) {
	opts, _, ok := parseArgs([]string{"-data", "/srv/import", "-links", "/tmp/links.yaml", "all"}, "./data", &bytes.Buffer{})
	require.True(t, ok)
	src := opts.sources()
	assert.Equal(t, filepath.Join("/srv/import", "stops.json"), src.Stops)
	assert.Equal(t, filepath.Join("/srv/import", "routes.json"), src.Routes)
	assert.Equal(t, "/tmp/links.yaml", src.Links)
}

func TestExecuteAllThenClear(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("stops.json", `[{"name": "Plaza Central", "latitude": 9.9333, "longitude": -84.0833}]`)
	write("routes.json", `[{"name": "Centro - Norte", "code": "R1"}]`)
	write("route_stops.json", `[
		{"routeCode": "R1", "stopName": "Plaza Central", "direction": "outbound", "stopOrder": 1},
		{"routeCode": "R1", "stopName": "Unknown Stop", "direction": "outbound", "stopOrder": 2}
	]`)

	s := testutil.OpenStore(t)
	ctx := context.Background()

	opts, _, ok := parseArgs([]string{"-data", dir, "all"}, "", &bytes.Buffer{})
	require.True(t, ok)
	var out bytes.Buffer
	require.NoError(t, execute(ctx, s, opts, &out))
	assert.Contains(t, out.String(), "route-stops  created 1, skipped 0, errors 1")

	out.Reset()
	require.NoError(t, execute(ctx, s, opts, &out))
	assert.Contains(t, out.String(), "stops        created 0, skipped 1, errors 0")

	opts.command = cmdClear
	out.Reset()
	require.NoError(t, execute(ctx, s, opts, &out))
	assert.Contains(t, out.String(), "route_stops  deleted 1")

	n, err := s.CountStops(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestExecuteMissingFileFails(t *testing.T) {
	opts, _, ok := parseArgs([]string{"-data", t.TempDir(), "stops"}, "", &bytes.Buffer{})
	require.True(t, ok)
	err := execute(context.Background(), testutil.OpenStore(t), opts, &bytes.Buffer{})
	assert.Error(t, err)
}
