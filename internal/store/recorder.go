package store

import (
	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/predict"
)

// Recorder is a predict.Observer that writes every event to the history.
// Write failures are logged and otherwise ignored.
type Recorder struct {
	repo *PredictionRepository
	log  logrus.FieldLogger
}

// NewRecorder creates a Recorder backed by s.
func NewRecorder(s *Store, log logrus.FieldLogger) *Recorder {
	return &Recorder{repo: s.Predictions(), log: log}
}

// OnResult implements predict.Observer.
func (r *Recorder) OnResult(e predict.Event) {
	p := &Prediction{
		ID:        e.RequestID,
		Label:     string(e.Label),
		Raw:       e.Raw,
		Encoder:   e.Encoder,
		Status:    e.Status,
		Failure:   predict.Kind(e.Err),
		LatencyMs: e.Latency.Milliseconds(),
		CreatedAt: e.At,
	}
	if err := r.repo.Create(p); err != nil {
		r.log.WithField("error", err.Error()).Error("[store.Recorder] failed to record prediction")
	}
}
