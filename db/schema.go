// ABOUTME: Database schema definitions
// ABOUTME: Creates contact, interaction, draft, group, calendar, settings and sync tables
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS contacts (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL,
	job TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL DEFAULT '',
	academic_degree TEXT NOT NULL DEFAULT '',
	birthday TEXT NOT NULL DEFAULT '',
	hobbies TEXT NOT NULL DEFAULT '',
	favorite_food TEXT NOT NULL DEFAULT '',
	how_we_met TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	profile_picture TEXT NOT NULL DEFAULT '',
	language TEXT NOT NULL DEFAULT '',
	tone TEXT NOT NULL DEFAULT '',
	example_message TEXT NOT NULL DEFAULT '',
	device_contact_id TEXT NOT NULL DEFAULT '',
	pipeline_stage TEXT NOT NULL,
	last_contact_date DATETIME,
	next_due DATETIME,
	target_interval_days INTEGER NOT NULL DEFAULT 0,
	version INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	CHECK ((pipeline_stage = 'New') = (next_due IS NULL))
);

CREATE INDEX IF NOT EXISTS idx_contacts_user ON contacts(user_id, name);
CREATE INDEX IF NOT EXISTS idx_contacts_due ON contacts(user_id, next_due);
CREATE INDEX IF NOT EXISTS idx_contacts_stage ON contacts(user_id, pipeline_stage);
CREATE INDEX IF NOT EXISTS idx_contacts_email ON contacts(user_id, email);

CREATE TABLE IF NOT EXISTS user_groups (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	color TEXT NOT NULL DEFAULT '',
	profile_picture TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_user_groups_user ON user_groups(user_id, name);

CREATE TABLE IF NOT EXISTS contact_groups (
	contact_id TEXT NOT NULL,
	group_id TEXT NOT NULL,
	PRIMARY KEY (contact_id, group_id),
	FOREIGN KEY (contact_id) REFERENCES contacts(id) ON DELETE CASCADE,
	FOREIGN KEY (group_id) REFERENCES user_groups(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_contact_groups_group ON contact_groups(group_id);

CREATE TABLE IF NOT EXISTS interactions (
	id TEXT PRIMARY KEY,
	contact_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	interaction_type TEXT NOT NULL CHECK(interaction_type IN ('Personal Meeting', 'Phone Call', 'Email', 'WhatsApp', 'Scheduled Meeting', 'Other')),
	date DATETIME NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	event_id TEXT,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (contact_id) REFERENCES contacts(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_interactions_contact ON interactions(contact_id, date DESC);
CREATE INDEX IF NOT EXISTS idx_interactions_user ON interactions(user_id);

CREATE TABLE IF NOT EXISTS drafts (
	id TEXT PRIMARY KEY,
	contact_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	contact_name TEXT NOT NULL,
	draft_message TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'sent', 'dismissed')),
	created_at DATETIME NOT NULL,
	resolved_at DATETIME,
	FOREIGN KEY (contact_id) REFERENCES contacts(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_drafts_user_status ON drafts(user_id, status, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_drafts_contact ON drafts(contact_id);

CREATE TABLE IF NOT EXISTS calendar_events (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	date TEXT NOT NULL,
	start_time TEXT NOT NULL DEFAULT '',
	end_time TEXT NOT NULL DEFAULT '',
	all_day INTEGER NOT NULL DEFAULT 0,
	reminder_minutes INTEGER NOT NULL DEFAULT 0,
	color TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL DEFAULT 'manual' CHECK(source IN ('manual', 'google')),
	external_id TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_calendar_events_user_date ON calendar_events(user_id, date, start_time);
CREATE UNIQUE INDEX IF NOT EXISTS idx_calendar_events_external ON calendar_events(user_id, source, external_id) WHERE external_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS event_participants (
	event_id TEXT NOT NULL,
	contact_id TEXT NOT NULL,
	PRIMARY KEY (event_id, contact_id),
	FOREIGN KEY (event_id) REFERENCES calendar_events(id) ON DELETE CASCADE,
	FOREIGN KEY (contact_id) REFERENCES contacts(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_event_participants_contact ON event_participants(contact_id);

CREATE TABLE IF NOT EXISTS settings (
	user_id TEXT PRIMARY KEY,
	writing_style_sample TEXT NOT NULL,
	notification_time TEXT NOT NULL,
	pipeline_stages TEXT NOT NULL DEFAULT '[]',
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS sync_state (
	user_id TEXT NOT NULL,
	service TEXT NOT NULL,
	last_sync_time DATETIME,
	last_sync_token TEXT,
	status TEXT CHECK(status IN ('idle', 'syncing', 'error')),
	error_message TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (user_id, service)
);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
