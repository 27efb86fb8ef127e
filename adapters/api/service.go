package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"adlens/domain/campaign"
	"adlens/domain/core"
	"adlens/internal"
	"adlens/internal/engine"
	"adlens/internal/errors"
	"adlens/internal/report"
	"adlens/ports"
)

// Service is the JSON transport around the analysis engine. It owns no
// algorithmic logic: handlers decode, delegate, and encode.
type Service struct {
	engine *engine.Engine
	repo   ports.ResultRepository // optional
	log    *internal.Logger
}

// NewService creates the API service. repo may be nil when persistence is
// not configured.
func NewService(e *engine.Engine, repo ports.ResultRepository) *Service {
	return &Service{engine: e, repo: repo, log: internal.DefaultLogger}
}

// Router builds the chi route tree.
func (s *Service) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/drivers", s.handleDrivers)
		r.Get("/analyses", s.handleListAnalyses)
		r.Get("/analyses/{id}", s.handleGetAnalysis)
		r.Get("/analyses/{id}/report", s.handleAnalysisReport)
	})
	return r
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.InvalidInput("invalid JSON body"))
		return
	}
	if req.Metric == "" {
		writeError(w, http.StatusBadRequest, errors.InvalidInput("metric is required"))
		return
	}
	dateCol := req.DateColumn
	if dateCol == "" {
		dateCol = campaign.ColDate
	}

	table, err := tableFromRows(req.Rows)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	// The engine is fail-soft: this never errors, even on hostile input.
	result := s.engine.Analyze(r.Context(), table, campaign.ParseMetric(req.Metric), dateCol, req.Options())

	resp := AnalyzeResponse{Result: result}
	if s.repo != nil {
		stored := &ports.StoredAnalysis{
			ID:        core.NewAnalysisID(),
			Metric:    string(result.Metric),
			CreatedAt: core.Now(),
			Result:    result,
		}
		if err := s.repo.Save(r.Context(), stored); err != nil {
			s.log.Warn("failed to persist analysis: %v", err)
		} else {
			resp.ID = stored.ID.String()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleDrivers(w http.ResponseWriter, r *http.Request) {
	var req DriversRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.InvalidInput("invalid JSON body"))
		return
	}
	if req.Metric == "" {
		writeError(w, http.StatusBadRequest, errors.InvalidInput("metric is required"))
		return
	}

	table, err := tableFromRows(req.Rows)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	analysis := s.engine.AnalyzeDrivers(table, campaign.ParseMetric(req.Metric), req.FeatureColumns, req.CategoricalColumns)
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Service) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New(errors.CodeDatabaseError, "persistence not configured"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	analyses, err := s.repo.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, analyses)
}

func (s *Service) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	stored, ok := s.loadAnalysis(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Service) handleAnalysisReport(w http.ResponseWriter, r *http.Request) {
	stored, ok := s.loadAnalysis(w, r)
	if !ok {
		return
	}
	md := report.RenderMarkdown(stored.Result)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(report.ToHTML(md))
}

func (s *Service) loadAnalysis(w http.ResponseWriter, r *http.Request) (*ports.StoredAnalysis, bool) {
	if s.repo == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New(errors.CodeDatabaseError, "persistence not configured"))
		return nil, false
	}
	id, err := core.ParseAnalysisID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.InvalidInput("invalid analysis id"))
		return nil, false
	}
	stored, err := s.repo.Get(r.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if core.IsNotFoundError(err) {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return nil, false
	}
	return stored, true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: errors.GetCode(err)})
}
