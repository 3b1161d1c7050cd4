package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// One row per prediction attempt; label is empty when nothing was recognized
		`CREATE TABLE IF NOT EXISTS predictions (
			id TEXT PRIMARY KEY,
			label TEXT NOT NULL DEFAULT '' CHECK(label IN ('', 'up', 'down', 'left', 'right')),
			raw TEXT NOT NULL DEFAULT '',
			encoder TEXT NOT NULL DEFAULT '',
			status INTEGER NOT NULL DEFAULT 0,
			failure TEXT NOT NULL DEFAULT '',
			latency_ms INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_label ON predictions(label)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
