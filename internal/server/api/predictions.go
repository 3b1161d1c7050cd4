package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/mudra/internal/store"
)

// DefaultHistoryLimit is used when the limit query parameter is absent.
const DefaultHistoryLimit = 50

// PredictionsHandler serves the recorded prediction history.
type PredictionsHandler struct {
	store *store.Store
}

// NewPredictionsHandler creates a new PredictionsHandler with the given store.
func NewPredictionsHandler(s *store.Store) *PredictionsHandler {
	return &PredictionsHandler{store: s}
}

type listPredictionsResponse struct {
	Predictions []*store.Prediction `json:"predictions"`
}

type countsResponse struct {
	Counts map[string]int `json:"counts"`
}

type clearResponse struct {
	Deleted int64 `json:"deleted"`
}

// ServeHTTP routes requests under /api/predictions.
// Expected paths: /api/predictions, /api/predictions/counts or /api/predictions/{id}
func (h *PredictionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/predictions")
	path = strings.TrimPrefix(path, "/")

	switch {
	case path == "":
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodDelete:
			h.clear(w)
		default:
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	case r.Method != http.MethodGet:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	case path == "counts":
		h.counts(w)
	default:
		h.get(w, path)
	}
}

func (h *PredictionsHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := DefaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	predictions, err := h.store.Predictions().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list predictions")
		return
	}
	if predictions == nil {
		predictions = []*store.Prediction{}
	}

	writeJSON(w, http.StatusOK, listPredictionsResponse{Predictions: predictions})
}

func (h *PredictionsHandler) get(w http.ResponseWriter, id string) {
	p, err := h.store.Predictions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Prediction not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get prediction")
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (h *PredictionsHandler) counts(w http.ResponseWriter) {
	counts, err := h.store.Predictions().CountByLabel()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count predictions")
		return
	}

	writeJSON(w, http.StatusOK, countsResponse{Counts: counts})
}

func (h *PredictionsHandler) clear(w http.ResponseWriter) {
	n, err := h.store.Predictions().DeleteAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to clear predictions")
		return
	}

	writeJSON(w, http.StatusOK, clearResponse{Deleted: n})
}
