package api

import (
	"context"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/ayusman/mudra/internal/landmark"
	"github.com/ayusman/mudra/internal/predict"
)

// maxPredictBody bounds the request body. 21 points fit comfortably.
const maxPredictBody = 64 << 10

// Predictor is the part of predict.Client the handler needs.
type Predictor interface {
	GetPredictedLabel(ctx context.Context, landmarks landmark.Set) (predict.Label, bool)
}

// PredictHandler classifies a posted landmark set.
type PredictHandler struct {
	predictor Predictor
	validate  *validator.Validate
}

// NewPredictHandler creates a PredictHandler backed by p.
func NewPredictHandler(p Predictor) *PredictHandler {
	return &PredictHandler{predictor: p, validate: validator.New()}
}

type predictRequest struct {
	Landmarks []landmark.Point3D `json:"landmarks" validate:"required,len=21"`
}

// predictResponse encodes an absent label as null.
type predictResponse struct {
	Label *string `json:"label"`
}

// ServeHTTP handles POST /api/predict.
func (h *PredictHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPredictBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	var req predictRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "landmarks must hold exactly 21 points")
		return
	}

	var resp predictResponse
	if label, ok := h.predictor.GetPredictedLabel(r.Context(), landmark.Set(req.Landmarks)); ok {
		s := label.String()
		resp.Label = &s
	}

	writeJSON(w, http.StatusOK, resp)
}
