package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"prowler/adapters/rng"
	"prowler/adapters/store"
	"prowler/app"
	"prowler/internal"
	"prowler/internal/config"
	"prowler/internal/errors"
	"prowler/internal/permutation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const records = `[
	{"query_id":"Q1","array_id":"A1","dmf":0.8,"query_smf":0.9,"array_smf":0.95,"bioprocess":"identical","query_profile":"+++","array_profile":"+++"},
	{"query_id":"Q2","array_id":"A2","dmf":0.8,"query_smf":0.9,"array_smf":0.95,"bioprocess":"identical","query_profile":"+++","array_profile":"++-"},
	{"query_id":"Q3","array_id":"A3","dmf":0.8,"query_smf":0.9,"array_smf":0.95,"bioprocess":"different","query_profile":"+++","array_profile":"---"},
	{"query_id":"Q4","array_id":"A4","dmf":0.8,"query_smf":0.9,"array_smf":0.95,"bioprocess":"different","query_profile":"+++","array_profile":"-+-"}
]`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestServerWith(t, permutation.Options{Trials: 10, Workers: 2, Threshold: 2, Seed: 1})
}

func newTestServerWith(t *testing.T, defaults permutation.Options) *Server {
	t.Helper()
	logger := internal.NewLogger(internal.LogLevelError).WithOutput(io.Discard)
	repo, err := store.Open(context.Background(), config.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	engine := permutation.NewEngine(rng.New(), permutation.WithLogger(logger))
	return NewServer(
		app.NewSignificanceService(engine, repo, logger),
		app.NewEnrichmentService(repo, logger),
		defaults, logger)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestEnrichmentEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/enrichment",
		`{"records":`+records+`,"selector":{"process":"identical"},"column":"BSS","label":"api"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res app.EnrichmentResult
	decodeBody(t, rec, &res)
	assert.Equal(t, []string{"iden_proc"}, res.Names)
	require.Len(t, res.Enrichment.Bins, 1)
	assert.Equal(t, 2, res.Enrichment.Bins[0].Count)
	require.NotEmpty(t, res.ID)

	got := do(t, s, http.MethodGet, "/api/enrichments/"+res.ID.String(), "")
	require.Equal(t, http.StatusOK, got.Code, got.Body.String())
	assert.Contains(t, got.Body.String(), `"label":"api"`)
}

func TestPermutationEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/permutations",
		`{"records":`+records+`,"strategies":["columns","names"],"options":{"trials":5,"seed":9}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res permutationResponse
	decodeBody(t, rec, &res)
	require.Len(t, res.Runs, 2)
	assert.Equal(t, permutation.StrategyColumnShuffle, res.Runs[0].Strategy)
	assert.Equal(t, 5, res.Runs[0].Options.Trials)
	assert.Equal(t, 2, res.Runs[0].Options.Workers, "unset options come from the defaults")
	assert.Len(t, res.Runs[1].Trials, 5)

	id := res.Runs[1].ID.String()
	got := do(t, s, http.MethodGet, "/api/runs/"+id, "")
	require.Equal(t, http.StatusOK, got.Code, got.Body.String())
	var stored app.StoredRun
	decodeBody(t, got, &stored)
	assert.Equal(t, "names", stored.Strategy)
	assert.Equal(t, 5, stored.Summary.Trials)

	list := do(t, s, http.MethodGet, "/api/runs?strategy=columns", "")
	require.Equal(t, http.StatusOK, list.Code)
	var listed struct {
		Runs []app.StoredRun `json:"runs"`
	}
	decodeBody(t, list, &listed)
	require.Len(t, listed.Runs, 1)
	assert.Equal(t, res.Runs[0].ID, listed.Runs[0].ID)

	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, "/api/runs/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/runs/"+id, "").Code)
}

func TestPermutationOptionsOverlayDefaults(t *testing.T) {
	s := newTestServerWith(t, permutation.Options{Trials: 3, Workers: 1, Threshold: 2, Seed: 1, KeepTables: true})

	tests := []struct {
		name string
		opts string
		keep bool
	}{
		{"default kept", `{}`, true},
		{"explicit false", `{"keep_tables":false}`, false},
		{"explicit true", `{"keep_tables":true}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/permutations",
				`{"records":`+records+`,"strategies":["columns"],"options":`+tt.opts+`}`)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var res permutationResponse
			decodeBody(t, rec, &res)
			require.Len(t, res.Runs, 1)
			assert.Equal(t, tt.keep, res.Runs[0].Options.KeepTables)
			assert.Equal(t, 3, res.Runs[0].Options.Trials)
		})
	}
}

func TestEnrichmentRescoresClientRecords(t *testing.T) {
	// Every row claims a score of 0; the real scores are 3, 2, 0, 1.
	body := `{"records":[
		{"query_id":"Q1","array_id":"A1","query_profile":"+++","array_profile":"+++","pss":0,"scored":true},
		{"query_id":"Q2","array_id":"A2","query_profile":"+++","array_profile":"++-","pss":0,"scored":true},
		{"query_id":"Q3","array_id":"A3","query_profile":"+++","array_profile":"---","pss":0,"scored":true},
		{"query_id":"Q4","array_id":"A4","query_profile":"+++","array_profile":"-+-","pss":0,"scored":true}
	],"selector":{"profiles":"similar","threshold":2}}`

	rec := do(t, newTestServer(t), http.MethodPost, "/api/enrichment", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res app.EnrichmentResult
	decodeBody(t, rec, &res)
	assert.Equal(t, 2, res.Enrichment.Selected)
	var categories []string
	for _, b := range res.Enrichment.Bins {
		categories = append(categories, b.Category)
	}
	assert.Equal(t, []string{"2", "3"}, categories)
}

func TestErrorResponses(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"malformed body", http.MethodPost, "/api/enrichment", `{"records":`, http.StatusBadRequest, errors.CodeInvalidInput},
		{"unknown field", http.MethodPost, "/api/enrichment", `{"rows":[]}`, http.StatusBadRequest, errors.CodeInvalidInput},
		{"bad profile", http.MethodPost, "/api/enrichment",
			`{"records":[{"query_id":"Q","array_id":"A","query_profile":"+x","array_profile":"++"}]}`,
			http.StatusBadRequest, errors.CodeInvalidInput},
		{"unknown strategy", http.MethodPost, "/api/permutations",
			`{"records":` + records + `,"strategies":["bogus"]}`, http.StatusBadRequest, errors.CodeInvalidInput},
		{"no strategies", http.MethodPost, "/api/permutations",
			`{"records":` + records + `}`, http.StatusBadRequest, errors.CodeInvalidInput},
		{"bad timeout", http.MethodPost, "/api/permutations",
			`{"records":` + records + `,"strategies":["names"],"options":{"timeout":"soon"}}`,
			http.StatusBadRequest, errors.CodeInvalidInput},
		{"empty table", http.MethodPost, "/api/permutations",
			`{"records":[],"strategies":["names"]}`, http.StatusBadRequest, errors.CodeInvalidInput},
		{"bad run id", http.MethodGet, "/api/runs/nope", "", http.StatusBadRequest, errors.CodeInvalidInput},
		{"missing enrichment", http.MethodGet, "/api/enrichments/nope", "", http.StatusNotFound, errors.CodeNotFound},
		{"bad limit", http.MethodGet, "/api/runs?limit=-1", "", http.StatusBadRequest, errors.CodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.path, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			var body errorResponse
			decodeBody(t, rec, &body)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}
