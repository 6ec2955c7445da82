package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/artstore/artstore/internal/common"
	"github.com/artstore/artstore/internal/server/repositories/records"
)

// idFilter extracts the row id from a PostgREST-style "id=eq.<value>" query
// parameter.
func idFilter(r *http.Request) (string, bool) {
	raw := r.URL.Query().Get("id")
	if !strings.HasPrefix(raw, "eq.") {
		return "", false
	}
	id := strings.TrimPrefix(raw, "eq.")
	return id, id != ""
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	id, ok := idFilter(r)
	if !ok {
		writeRestError(w, http.StatusBadRequest, "unsupported_filter", "only id=eq.<value> filters are supported")
		return
	}

	row, err := s.records.SelectByID(r.Context(), table, id)
	if err != nil {
		switch {
		case errors.Is(err, records.ErrUnknownTable):
			writeRestError(w, http.StatusNotFound, "unknown_table", "relation does not exist")
		case errors.Is(err, common.ErrorNotFound):
			writeRestError(w, http.StatusNotAcceptable, pgrstNoRows, "JSON object requested, multiple (or no) rows returned")
		default:
			s.logger.Error(r.Context(), "record select failed", "table", table, "error", err)
			writeRestError(w, http.StatusInternalServerError, "internal_error", "select failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	var record map[string]any
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeRestError(w, http.StatusBadRequest, "bad_json", "malformed request body")
		return
	}

	if err := s.records.Insert(r.Context(), table, record); err != nil {
		switch {
		case errors.Is(err, records.ErrUnknownTable):
			writeRestError(w, http.StatusNotFound, "unknown_table", "relation does not exist")
		case errors.Is(err, records.ErrNoColumns):
			writeRestError(w, http.StatusBadRequest, "no_columns", "no recognized columns in payload")
		case errors.Is(err, common.ErrorAlreadyExists):
			writeRestError(w, http.StatusConflict, "duplicate_key", "duplicate key value violates unique constraint")
		default:
			s.logger.Error(r.Context(), "record insert failed", "table", table, "error", err)
			writeRestError(w, http.StatusInternalServerError, "internal_error", "insert failed")
		}
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	id, ok := idFilter(r)
	if !ok {
		writeRestError(w, http.StatusBadRequest, "unsupported_filter", "only id=eq.<value> filters are supported")
		return
	}

	var record map[string]any
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeRestError(w, http.StatusBadRequest, "bad_json", "malformed request body")
		return
	}

	if err := s.records.Update(r.Context(), table, id, record); err != nil {
		switch {
		case errors.Is(err, records.ErrUnknownTable):
			writeRestError(w, http.StatusNotFound, "unknown_table", "relation does not exist")
		case errors.Is(err, records.ErrNoColumns):
			writeRestError(w, http.StatusBadRequest, "no_columns", "no recognized columns in payload")
		case errors.Is(err, common.ErrorNotFound):
			writeRestError(w, http.StatusNotAcceptable, pgrstNoRows, "JSON object requested, multiple (or no) rows returned")
		default:
			s.logger.Error(r.Context(), "record update failed", "table", table, "error", err)
			writeRestError(w, http.StatusInternalServerError, "internal_error", "update failed")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
