package storage

// Schema statements are idempotent so they run on every open.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS domain_reputation (
		domain TEXT PRIMARY KEY,
		safe   INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS unsafe_reviews (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		raw_url    TEXT NOT NULL,
		domain     TEXT NOT NULL,
		analysis   TEXT NOT NULL DEFAULT '{}',
		llm_output TEXT NOT NULL DEFAULT '',
		timestamp  TIMESTAMP NOT NULL,
		reviewed   BOOLEAN NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_unsafe_reviews_pending
		ON unsafe_reviews (reviewed, timestamp)`,
	`CREATE TABLE IF NOT EXISTS admin_metrics (
		metric TEXT PRIMARY KEY,
		value  INTEGER NOT NULL DEFAULT 0
	)`,
}

func (s *SQLiteStore) applySchema() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
