package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/fieldwork/internal/presentation/graph"
	"github.com/aretw0/fieldwork/pkg/domain"
)

// requireDraftID rejects draft ids that no draft store accepts.
func (s *Server) requireDraftID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if errs := validateStruct(idParam{ID: chi.URLParam(r, "draftID")}); len(errs) > 0 {
			writeBadRequest(w, "invalid draft id", errs)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Validate handles POST /v1/validate.
func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	var req surveyData
	shape, err := decodeBody(w, r, &req, false)
	if err != nil {
		writeBadRequest(w, "invalid request body", nil)
		return
	}
	if len(shape) > 0 {
		writeBadRequest(w, "invalid request body", shape)
		return
	}
	errs := s.svc.ValidateSurveyData(req.Title, req.Description, req.StartDate, req.Deadline, req.Sections)
	if errs == nil {
		errs = []domain.ValidationError{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":  len(errs) == 0,
		"errors": errs,
	})
}

// ListDrafts handles GET /v1/drafts.
func (s *Server) ListDrafts(w http.ResponseWriter, r *http.Request) {
	ids, err := s.svc.ListDrafts(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"drafts": ids})
}

// PutDraft handles PUT /v1/drafts/{draftID}.
func (s *Server) PutDraft(w http.ResponseWriter, r *http.Request) {
	draftID := chi.URLParam(r, "draftID")

	var req draftRequest
	shape, err := decodeBody(w, r, &req, false)
	if err != nil {
		writeBadRequest(w, "invalid request body", nil)
		return
	}
	if len(shape) > 0 {
		writeBadRequest(w, "invalid request body", shape)
		return
	}
	d, err := req.toDraft()
	if err != nil {
		writeBadRequest(w, err.Error(), nil)
		return
	}
	if err := s.svc.SaveDraft(r.Context(), draftID, d); err != nil {
		s.writeError(w, r, err)
		return
	}
	// SaveDraft keeps the survey id already assigned to the draft.
	stored, err := s.svc.LoadDraft(r.Context(), draftID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// GetDraft handles GET /v1/drafts/{draftID}.
func (s *Server) GetDraft(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.LoadDraft(r.Context(), chi.URLParam(r, "draftID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// DeleteDraft handles DELETE /v1/drafts/{draftID}.
func (s *Server) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteDraft(r.Context(), chi.URLParam(r, "draftID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaveSection handles POST /v1/drafts/{draftID}/sections/{sectionID}/save.
func (s *Server) SaveSection(w http.ResponseWriter, r *http.Request) {
	var req saveSectionRequest
	shape, err := decodeBody(w, r, &req, true)
	if err != nil {
		writeBadRequest(w, "invalid request body", nil)
		return
	}
	if len(shape) > 0 {
		writeBadRequest(w, "invalid request body", shape)
		return
	}

	res, err := s.svc.SaveSection(r.Context(), chi.URLParam(r, "draftID"), chi.URLParam(r, "sectionID"), req.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetSaveState handles GET /v1/drafts/{draftID}/save-state.
func (s *Server) GetSaveState(w http.ResponseWriter, r *http.Request) {
	tracker, err := s.svc.Tracker(r.Context(), chi.URLParam(r, "draftID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tracker.Snapshot())
}

// ResetSaveState handles DELETE /v1/drafts/{draftID}/save-state.
func (s *Server) ResetSaveState(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ResetDraft(r.Context(), chi.URLParam(r, "draftID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetGraph handles GET /v1/drafts/{draftID}/graph.
// It returns the section flow as a Mermaid diagram styled by save state.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	draftID := chi.URLParam(r, "draftID")
	d, err := s.svc.LoadDraft(r.Context(), draftID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	tracker, err := s.svc.Tracker(r.Context(), draftID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	snap := tracker.Snapshot()
	states := make(map[string]domain.SaveState, len(snap.States))
	for id, p := range snap.States {
		states[id] = p.State
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(graph.GenerateMermaid(d, &graph.Overlay{States: states}))); err != nil {
		s.logger.Error("Failed to write graph", "err", err)
	}
}

// GetSurvey handles GET /v1/surveys/{surveyID}.
func (s *Server) GetSurvey(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.LoadSurvey(r.Context(), chi.URLParam(r, "surveyID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
