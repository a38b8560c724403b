package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"prowler/app"
	"prowler/domain/interaction"
	"prowler/internal/errors"
	"prowler/internal/permutation"
	"prowler/ports"
)

// maxBodyBytes bounds request bodies; a genome-wide screen fits comfortably.
const maxBodyBytes = 256 << 20

type enrichmentRequest struct {
	Records  []interaction.Record `json:"records"`
	Selector interaction.Selector `json:"selector"`
	Column   interaction.Column   `json:"column"`
	Label    string               `json:"label"`
}

type optionsRequest struct {
	Trials     *int     `json:"trials"`
	Workers    *int     `json:"workers"`
	Threshold  *float64 `json:"threshold"`
	Seed       *int64   `json:"seed"`
	Timeout    string   `json:"timeout"`
	KeepTables *bool    `json:"keep_tables"`
}

type permutationRequest struct {
	Records    []interaction.Record         `json:"records"`
	Catalogue  []interaction.CatalogueEntry `json:"catalogue"`
	Strategies []permutation.Strategy       `json:"strategies"`
	Options    optionsRequest               `json:"options"`
}

type permutationResponse struct {
	Runs []*permutation.Run `json:"runs"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEnrichment(w http.ResponseWriter, r *http.Request) {
	var req enrichmentRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	table, err := tableFromRecords(req.Records)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.enrichment.Analyze(r.Context(), app.EnrichmentRequest{
		Table:    table,
		Selector: req.Selector,
		Column:   req.Column,
		Label:    req.Label,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetEnrichment(w http.ResponseWriter, r *http.Request) {
	rec, err := s.enrichment.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":         rec.ID,
		"label":      rec.Label,
		"enrichment": rec.Table,
		"created_at": rec.CreatedAt,
	})
}

func (s *Server) handlePermutations(w http.ResponseWriter, r *http.Request) {
	var req permutationRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	table, err := tableFromRecords(req.Records)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var catalogue interaction.Catalogue
	if len(req.Catalogue) > 0 {
		if catalogue, err = interaction.NewCatalogue(req.Catalogue); err != nil {
			s.writeError(w, err)
			return
		}
	}
	opts, err := s.options(req.Options)
	if err != nil {
		s.writeError(w, err)
		return
	}

	runs, err := s.significance.Run(r.Context(), app.SignificanceRequest{
		Table:      table,
		Catalogue:  catalogue,
		Strategies: req.Strategies,
		Options:    opts,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, permutationResponse{Runs: runs})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := ports.RunFilters{Strategy: q.Get("strategy")}
	var err error
	if filters.Limit, err = queryInt(q.Get("limit")); err != nil {
		s.writeError(w, errors.InvalidInput("limit: "+err.Error()))
		return
	}
	if filters.Offset, err = queryInt(q.Get("offset")); err != nil {
		s.writeError(w, errors.InvalidInput("offset: "+err.Error()))
		return
	}

	runs, err := s.significance.List(r.Context(), filters)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.significance.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if err := s.significance.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// options overlays the request on the server defaults.
func (s *Server) options(req optionsRequest) (permutation.Options, error) {
	opts := s.defaults
	if req.Trials != nil {
		opts.Trials = *req.Trials
	}
	if req.Workers != nil {
		opts.Workers = *req.Workers
	}
	if req.Threshold != nil {
		opts.Threshold = *req.Threshold
	}
	if req.Seed != nil {
		opts.Seed = *req.Seed
	}
	if req.Timeout != "" {
		d, err := time.ParseDuration(req.Timeout)
		if err != nil {
			return opts, errors.InvalidInput(fmt.Sprintf("timeout %q: %v", req.Timeout, err))
		}
		opts.Timeout = d
	}
	if req.KeepTables != nil {
		opts.KeepTables = *req.KeepTables
	}
	return opts, nil
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "malformed request body"))
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	appErr := errors.FromDomain(err)
	status := errors.HTTPStatus(appErr)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed: %v", err)
	}
	s.writeJSON(w, status, errorResponse{Error: appErr.Error(), Code: errors.GetCode(appErr)})
}

// tableFromRecords builds a table from client records. Client-side scores are
// dropped so every table is scored here.
func tableFromRecords(records []interaction.Record) (interaction.Table, error) {
	for i := range records {
		records[i].PSS = 0
		records[i].Scored = false
	}
	return interaction.NewTable(records)
}

func queryInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return n, nil
}
