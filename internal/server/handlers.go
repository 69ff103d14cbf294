package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tidewater/inboxpilot/internal/common"
	"github.com/tidewater/inboxpilot/internal/intake"
	"github.com/tidewater/inboxpilot/internal/model"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIntake(w http.ResponseWriter, r *http.Request) {
	var raw intake.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if raw.Sender == "" || raw.Content == "" {
		writeError(w, http.StatusBadRequest, "missing sender or content")
		return
	}

	item := intake.Normalize(raw)
	s.engine.Add(item)
	s.persistItem(r, item.ID)
	writeJSON(w, http.StatusCreated, item)
}

// persistItem archives the current snapshot of an item, best effort.
func (s *Server) persistItem(r *http.Request, id string) {
	if s.persist == nil {
		return
	}
	item, err := s.engine.Item(id)
	if err != nil {
		return
	}
	if err := s.persist(r.Context(), item); err != nil {
		s.logger.Error("failed to persist item", "item_id", id, "error", err)
	}
}

func (s *Server) handleListItems(w http.ResponseWriter, _ *http.Request) {
	items := s.engine.Items()
	if items == nil {
		items = []model.InboxItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.engine.Item(chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	decision, err := s.engine.Classify(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	s.persistItem(r, id)
	writeJSON(w, http.StatusOK, decision)
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.engine.Commit(r.Context(), id); err != nil {
		writeEngineError(w, err)
		return
	}
	s.persistItem(r, id)
	item, err := s.engine.Item(id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.engine.Focus(id); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
		Channel string `json:"channel"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if payload.Content == "" {
		writeError(w, http.StatusBadRequest, "missing content")
		return
	}

	decision, err := s.engine.Simulate(r.Context(), payload.Content, model.ParseChannel(payload.Channel))
	if err != nil {
		s.logger.Error("simulation failed", "error", err)
		writeError(w, http.StatusBadGateway, "classification backend unavailable")
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

func (s *Server) handleTeach(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Trigger string `json:"trigger"`
		Reply   string `json:"reply"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if payload.Trigger == "" || payload.Reply == "" {
		writeError(w, http.StatusBadRequest, "missing trigger or reply")
		return
	}

	g, err := s.engine.Teach(r.Context(), payload.Trigger, payload.Reply)
	if err != nil {
		s.logger.Error("teach failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save guideline")
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) handleListGuidelines(w http.ResponseWriter, _ *http.Request) {
	guidelines := s.engine.Guidelines()
	if guidelines == nil {
		guidelines = []model.Guideline{}
	}
	writeJSON(w, http.StatusOK, guidelines)
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	catalog := s.engine.Catalog()
	if catalog == nil {
		catalog = []model.Product{}
	}
	writeJSON(w, http.StatusOK, catalog)
}

func (s *Server) handleUpdatePolicy(w http.ResponseWriter, r *http.Request) {
	var policy model.Policy
	if err := json.NewDecoder(r.Body).Decode(&policy); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := s.engine.UpdatePolicy(r.Context(), policy); err != nil {
		s.logger.Error("policy update failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save policy")
		return
	}
	writeJSON(w, http.StatusOK, policy)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrItemNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, common.ErrNoDecision):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
