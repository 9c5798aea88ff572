package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/repriselab/prospect-cli/internal/export"
	"github.com/repriselab/prospect-cli/internal/model"
	"github.com/repriselab/prospect-cli/internal/store"
	"github.com/repriselab/prospect-cli/pkg/fullenrich"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// searchResponse is the body returned by POST /api/search.
type searchResponse struct {
	Results []model.Row `json:"results"`
	Total   int         `json:"total"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var criteria model.Criteria
	if err := json.NewDecoder(r.Body).Decode(&criteria); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	companies, err := s.pipeline.Run(r.Context(), criteria)
	if err != nil {
		if errors.Is(err, model.ErrNoCriteria) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		// The request-driven path requires a complete result set.
		respondError(w, http.StatusBadGateway, "registry search failed: "+err.Error())
		return
	}

	rows := model.Rows(companies)
	if rows == nil {
		rows = []model.Row{}
	}
	respondJSON(w, http.StatusOK, searchResponse{Results: rows, Total: len(rows)})
}

// exportRequest is the body accepted by POST /api/export: rows previously
// returned by /api/search, possibly trimmed by the operator.
type exportRequest struct {
	Results []model.Row `json:"results"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	filename := fmt.Sprintf("entreprises_%d.csv", time.Now().Unix())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	if err := export.WriteCSV(w, req.Results); err != nil {
		respondError(w, http.StatusInternalServerError, "csv export failed")
	}
}

// enrichRequest is the body accepted by POST /api/enrich. Fields defaults to
// emails and phones.
type enrichRequest struct {
	Contacts []enrichContact `json:"contacts"`
	Fields   []string        `json:"fields"`
}

type enrichContact struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Domain      string `json:"domain"`
	CompanyName string `json:"company_name"`
}

type enrichResponse struct {
	Results     []fullenrich.ContactResult `json:"results"`
	CreditsUsed int                        `json:"credits_used"`
}

func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	var req enrichRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Contacts) == 0 {
		respondError(w, http.StatusBadRequest, "at least one contact is required")
		return
	}

	contacts := make([]fullenrich.ContactInput, len(req.Contacts))
	for i, c := range req.Contacts {
		contacts[i] = fullenrich.ContactInput{
			FirstName:   c.FirstName,
			LastName:    c.LastName,
			Domain:      c.Domain,
			CompanyName: c.CompanyName,
		}
	}
	fields := make([]fullenrich.Field, len(req.Fields))
	for i, f := range req.Fields {
		fields[i] = fullenrich.Field(f)
	}

	name := "prospection-web-" + time.Now().Format("20060102-150405")
	result, err := fullenrich.SubmitAndAwait(r.Context(), s.enricher, name, contacts, fields, s.pollOpts...)
	if err != nil {
		switch {
		case errors.Is(err, fullenrich.ErrInsufficientCredits):
			respondError(w, http.StatusPaymentRequired, "insufficient enrichment credits")
		case errors.Is(err, fullenrich.ErrTimeout):
			respondError(w, http.StatusGatewayTimeout, "enrichment still running, check back later")
		default:
			respondError(w, http.StatusBadGateway, "enrichment failed: "+err.Error())
		}
		return
	}

	respondJSON(w, http.StatusOK, enrichResponse{
		Results:     result.Results,
		CreditsUsed: result.CreditsUsed,
	})
}

func (s *Server) handleCredits(w http.ResponseWriter, r *http.Request) {
	balance, err := s.enricher.Credits(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, "credit balance unavailable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"balance": balance})
}

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	filter := store.LeadFilter{
		Status: r.URL.Query().Get("status"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		filter.Offset, _ = strconv.Atoi(v)
	}

	leads, err := s.store.ListLeads(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "list leads failed")
		return
	}
	if leads == nil {
		leads = []model.Lead{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"leads": leads, "total": len(leads)})
}

func (s *Server) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	var lead model.Lead
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if lead.Name == "" {
		respondError(w, http.StatusBadRequest, "nom_entreprise is required")
		return
	}

	created, err := s.store.CreateLead(r.Context(), lead)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateLead) {
			respondError(w, http.StatusConflict, "a lead with this SIREN already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "create lead failed")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetLead(w http.ResponseWriter, r *http.Request) {
	lead, err := s.store.GetLead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrLeadNotFound) {
			respondError(w, http.StatusNotFound, "lead not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "get lead failed")
		return
	}
	respondJSON(w, http.StatusOK, lead)
}

func (s *Server) handleUpdateLead(w http.ResponseWriter, r *http.Request) {
	var lead model.Lead
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	lead.ID = chi.URLParam(r, "id")

	if err := s.store.UpdateLead(r.Context(), lead); err != nil {
		if errors.Is(err, store.ErrLeadNotFound) {
			respondError(w, http.StatusNotFound, "lead not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "update lead failed")
		return
	}
	respondJSON(w, http.StatusOK, lead)
}

func (s *Server) handleDeleteLead(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteLead(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, store.ErrLeadNotFound) {
			respondError(w, http.StatusNotFound, "lead not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "delete lead failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := s.store.ListLeads(r.Context(), store.LeadFilter{
		Status: r.URL.Query().Get("status"),
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "list leads failed")
		return
	}

	filename := fmt.Sprintf("leads_%d.csv", time.Now().Unix())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	if err := export.WriteCSV(w, leads); err != nil {
		respondError(w, http.StatusInternalServerError, "csv export failed")
	}
}
