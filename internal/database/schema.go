package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order on startup.  Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS halls (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(120) NOT NULL,
		location VARCHAR(255) NOT NULL DEFAULT '',
		seating_capacity INT UNSIGNED NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_halls_name (name),
		CONSTRAINT chk_halls_capacity CHECK (seating_capacity > 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS events (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(200) NOT NULL,
		description TEXT NOT NULL,
		club_id BIGINT UNSIGNED NOT NULL,
		type VARCHAR(32) NOT NULL DEFAULT 'OTHER',
		location VARCHAR(255) NULL,
		image_url VARCHAR(1024) NULL,
		accepts_ideas BOOLEAN NOT NULL DEFAULT FALSE,
		idea_submission_deadline DATETIME NULL,
		start_at DATETIME NULL,
		end_at DATETIME NULL,
		registration_deadline DATETIME NULL,
		hall_id BIGINT UNSIGNED NULL,
		max_participants INT UNSIGNED NULL,
		registration_fee_cents INT UNSIGNED NOT NULL DEFAULT 0,
		is_team_event BOOLEAN NOT NULL DEFAULT FALSE,
		min_team_members INT UNSIGNED NULL,
		max_team_members INT UNSIGNED NULL,
		status VARCHAR(24) NOT NULL DEFAULT 'DRAFT',
		approval_status VARCHAR(16) NOT NULL DEFAULT 'PENDING',
		rejection_reason TEXT NULL,
		approved_by_id BIGINT UNSIGNED NULL,
		approved_by_name VARCHAR(120) NULL,
		approval_date DATETIME NULL,
		source_idea_id BIGINT UNSIGNED NULL,
		created_by BIGINT UNSIGNED NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_events_hall_window (hall_id, status, start_at, end_at),
		KEY idx_events_club (club_id),
		CONSTRAINT fk_events_hall FOREIGN KEY (hall_id) REFERENCES halls(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS ideas (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		event_id BIGINT UNSIGNED NOT NULL,
		student_id BIGINT UNSIGNED NOT NULL,
		title VARCHAR(200) NOT NULL,
		description TEXT NOT NULL,
		expected_outcome TEXT NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'SUBMITTED',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_ideas_event_student (event_id, student_id),
		CONSTRAINT fk_ideas_event FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS registrations (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		event_id BIGINT UNSIGNED NOT NULL,
		user_id BIGINT UNSIGNED NOT NULL,
		roll_number VARCHAR(64) NOT NULL DEFAULT '',
		notes TEXT NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'REGISTERED',
		payment_status VARCHAR(16) NOT NULL DEFAULT 'NOT_REQUIRED',
		registered_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_registrations_event_user (event_id, user_id),
		KEY idx_registrations_user (user_id),
		CONSTRAINT fk_registrations_event FOREIGN KEY (event_id) REFERENCES events(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS team_registrations (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		event_id BIGINT UNSIGNED NOT NULL,
		team_name VARCHAR(120) NOT NULL,
		leader_user_id BIGINT UNSIGNED NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'REGISTERED',
		payment_status VARCHAR(16) NOT NULL DEFAULT 'NOT_REQUIRED',
		registered_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_teams_event_leader (event_id, leader_user_id),
		CONSTRAINT fk_teams_event FOREIGN KEY (event_id) REFERENCES events(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS team_members (
		team_id BIGINT UNSIGNED NOT NULL,
		position INT UNSIGNED NOT NULL,
		name VARCHAR(120) NOT NULL,
		email VARCHAR(255) NOT NULL,
		roll_number VARCHAR(64) NOT NULL,
		PRIMARY KEY (team_id, position),
		KEY idx_team_members_roll (roll_number),
		CONSTRAINT fk_team_members_team FOREIGN KEY (team_id) REFERENCES team_registrations(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing table.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema step %d: %w", i+1, err)
		}
	}
	return nil
}
