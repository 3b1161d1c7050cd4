package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Prediction is one recorded classifier attempt.
type Prediction struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Raw       string    `json:"raw"`
	Encoder   string    `json:"encoder"`
	Status    int       `json:"status"`
	Failure   string    `json:"failure"`
	LatencyMs int64     `json:"latency_ms"`
	CreatedAt time.Time `json:"created_at"`
}

// PredictionRepository provides access to recorded predictions.
type PredictionRepository struct {
	db *sql.DB
}

// Predictions returns the prediction repository for this store.
func (s *Store) Predictions() *PredictionRepository {
	return &PredictionRepository{db: s.db}
}

// Create inserts p, assigning an ID and timestamp when they are unset.
func (r *PredictionRepository) Create(p *Prediction) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	// UTC without a monotonic reading keeps stored timestamps sortable as text.
	p.CreatedAt = p.CreatedAt.UTC()

	_, err := r.db.Exec(
		`INSERT INTO predictions (id, label, raw, encoder, status, failure, latency_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Label, p.Raw, p.Encoder, p.Status, p.Failure, p.LatencyMs, p.CreatedAt,
	)
	return err
}

// GetByID retrieves a prediction by its ID.
func (r *PredictionRepository) GetByID(id string) (*Prediction, error) {
	p := &Prediction{}

	err := r.db.QueryRow(
		`SELECT id, label, raw, encoder, status, failure, latency_ms, created_at
		 FROM predictions WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.Label, &p.Raw, &p.Encoder, &p.Status, &p.Failure, &p.LatencyMs, &p.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return p, nil
}

// List returns the most recent predictions first. A limit <= 0 returns all.
func (r *PredictionRepository) List(limit int) ([]*Prediction, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT id, label, raw, encoder, status, failure, latency_ms, created_at
		 FROM predictions ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var predictions []*Prediction
	for rows.Next() {
		p := &Prediction{}
		if err := rows.Scan(&p.ID, &p.Label, &p.Raw, &p.Encoder, &p.Status, &p.Failure, &p.LatencyMs, &p.CreatedAt); err != nil {
			return nil, err
		}
		predictions = append(predictions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return predictions, nil
}

// CountByLabel returns how many predictions ended with each label. Absent
// results are counted under the empty string.
func (r *PredictionRepository) CountByLabel() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT label, COUNT(*) FROM predictions GROUP BY label`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, err
		}
		counts[label] = n
	}

	return counts, rows.Err()
}

// DeleteAll removes every recorded prediction and returns how many were removed.
func (r *PredictionRepository) DeleteAll() (int64, error) {
	result, err := r.db.Exec(`DELETE FROM predictions`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
