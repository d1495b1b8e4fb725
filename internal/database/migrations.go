package database

import (
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// AddIndexes adds the composite indexes the list queries rely on. Single
// column indexes are declared on the models.
func AddIndexes(db *gorm.DB, log zerolog.Logger) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Project task listing, newest first
		{"tasks", "idx_tasks_project_created", "project_id, created_at"},
		// Team member task visibility
		{"tasks", "idx_tasks_assignee_created", "assignee_id, created_at"},
		// Comment ordering per task
		{"task_comments", "idx_task_comments_task_created", "task_id, created_at"},
		// Event listing by attendee
		{"event_attendees", "idx_event_attendees_user_event", "user_id, event_id"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.table, idx.name) {
			log.Debug().Str("index", idx.name).Msg("index already exists, skipping")
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Debug().Str("index", idx.name).Str("table", idx.table).Msg("created index")
	}

	return nil
}
