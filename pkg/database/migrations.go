package database

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql"
)

// CreateGINIndexes creates full-text search GIN indexes for PostgreSQL.
// These indexes enable efficient full-text search on task descriptions
// and validation code summaries.
func CreateGINIndexes(ctx context.Context, driver *sql.Driver) error {
	db := driver.DB()

	// GIN index for task description full-text search
	_, err := db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_tasks_description_gin
		ON tasks USING gin(to_tsvector('english', description))`)
	if err != nil {
		return fmt.Errorf("failed to create description GIN index: %w", err)
	}

	// GIN index for validation code summary full-text search
	_, err = db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_validation_requests_code_summary_gin
		ON validation_requests USING gin(to_tsvector('english', COALESCE(code_summary, '')))`)
	if err != nil {
		return fmt.Errorf("failed to create code_summary GIN index: %w", err)
	}

	return nil
}
