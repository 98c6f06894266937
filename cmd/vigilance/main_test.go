package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/couchcryptid/meteo-vigilance/internal/export"
	"github.com/couchcryptid/meteo-vigilance/meteofrance"
	"github.com/couchcryptid/meteo-vigilance/vigilance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newClient(t *testing.T, mux *http.ServeMux) *vigilance.Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := vigilance.New(vigilance.Config{Config: meteofrance.Config{
		APIKey:  "test-api-key",
		BaseURL: srv.URL + "/public/",
		Logger:  discardLogger(),
	}})
	require.NoError(t, err)
	return c
}

func TestFetch_PhenomenonAndSummary(t *testing.T) {
	carte, err := os.ReadFile("../../vigilance/testdata/carte.json")
	require.NoError(t, err)

	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("GET /public/"+vigilance.CarteEndpoint, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(carte)
	})

	var out bytes.Buffer
	opts := options{phenomenon: true, summary: true, format: export.CSV}
	require.NoError(t, fetch(context.Background(), newClient(t, mux), opts, &out, discardLogger()))

	assert.Equal(t, 1, calls, "one map request serves every table")
	text := out.String()
	assert.True(t, strings.HasPrefix(text, "# phenomenon\necheance,domain_id,"))
	assert.Contains(t, text, "# timelapse\n")
	assert.Contains(t, text, "# summary\n")
	assert.Contains(t, text, "2A,6,canicule,2,Jaune")
}

func TestFetch_BulletinNotPublished(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /public/"+vigilance.BulletinEndpoint, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"code":"404","message":"no matching blob"}`, http.StatusNotFound)
	})

	var out bytes.Buffer
	opts := options{bulletin: true, format: export.JSON}
	require.NoError(t, fetch(context.Background(), newClient(t, mux), opts, &out, discardLogger()))
	assert.Empty(t, out.String())
}

func TestFetch_UpstreamFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /public/"+vigilance.CarteEndpoint, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := fetch(context.Background(), newClient(t, mux), options{phenomenon: true, format: export.CSV}, &bytes.Buffer{}, discardLogger())
	require.Error(t, err)
	assert.True(t, meteofrance.IsUpstreamError(err))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "debug", "json").Debug("vignette downloaded", "bytes", 42)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "vignette downloaded", entry["msg"])
	assert.Equal(t, "DEBUG", entry["level"])

	buf.Reset()
	newLogger(&buf, "warn", "text").Info("hidden")
	assert.Empty(t, buf.String())

	newLogger(&buf, "bogus", "text").Info("shown")
	assert.Contains(t, buf.String(), "msg=shown")
}
