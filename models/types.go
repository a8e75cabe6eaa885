// ABOUTME: Data models for relationship-management entities
// ABOUTME: Defines Contact, Interaction, Draft, Group, CalendarEvent, and Settings structs
package models

import (
	"time"

	"github.com/google/uuid"
)

// StageNew is the sentinel pipeline stage: never scheduled, never has a next_due.
const StageNew = "New"

// Default pipeline stage names.
const (
	StageDaily     = "Daily"
	StageWeekly    = "Weekly"
	StageBiWeekly  = "Bi-Weekly"
	StageMonthly   = "Monthly"
	StageQuarterly = "Quarterly"
	StageAnnually  = "Annually"
)

type Contact struct {
	ID              uuid.UUID `json:"id"`
	UserID          string    `json:"user_id"`
	Name            string    `json:"name"`
	Job             string    `json:"job,omitempty"`
	Location        string    `json:"location,omitempty"`
	AcademicDegree  string    `json:"academic_degree,omitempty"`
	Birthday        string    `json:"birthday,omitempty"`
	Hobbies         string    `json:"hobbies,omitempty"`
	FavoriteFood    string    `json:"favorite_food,omitempty"`
	HowWeMet        string    `json:"how_we_met,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Email           string    `json:"email,omitempty"`
	ProfilePicture  string    `json:"profile_picture,omitempty"`
	Language        string    `json:"language,omitempty"`
	Tone            string    `json:"tone,omitempty"`
	ExampleMessage  string    `json:"example_message,omitempty"`
	DeviceContactID string    `json:"device_contact_id,omitempty"`
	Groups          []string  `json:"groups"`

	PipelineStage      string     `json:"pipeline_stage"`
	LastContactDate    *time.Time `json:"last_contact_date"`
	NextDue            *time.Time `json:"next_due"`
	TargetIntervalDays int        `json:"target_interval_days"`

	// Version increments on every write; updates that read first are guarded by it.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Scheduled reports whether the contact is in an active cadence.
func (c *Contact) Scheduled() bool {
	return c.PipelineStage != StageNew
}

// NewContact is the input for creating a contact.
type NewContact struct {
	Name            string   `json:"name" validate:"required"`
	Job             string   `json:"job,omitempty"`
	Location        string   `json:"location,omitempty"`
	AcademicDegree  string   `json:"academic_degree,omitempty"`
	Birthday        string   `json:"birthday,omitempty"`
	Hobbies         string   `json:"hobbies,omitempty"`
	FavoriteFood    string   `json:"favorite_food,omitempty"`
	HowWeMet        string   `json:"how_we_met,omitempty"`
	Notes           string   `json:"notes,omitempty"`
	Phone           string   `json:"phone,omitempty"`
	Email           string   `json:"email,omitempty"`
	ProfilePicture  string   `json:"profile_picture,omitempty"`
	Language        string   `json:"language,omitempty"`
	Tone            string   `json:"tone,omitempty"`
	ExampleMessage  string   `json:"example_message,omitempty"`
	DeviceContactID string   `json:"device_contact_id,omitempty"`
	Groups          []string `json:"groups,omitempty"`
	PipelineStage   string   `json:"pipeline_stage,omitempty"`
	// LastContactDate is parsed leniently; unparseable values anchor at now.
	LastContactDate *string `json:"last_contact_date,omitempty"`
}

// ContactUpdate is a partial update. Each field is unchanged, cleared, or set.
type ContactUpdate struct {
	Name            Field[string]   `json:"name"`
	Job             Field[string]   `json:"job"`
	Location        Field[string]   `json:"location"`
	AcademicDegree  Field[string]   `json:"academic_degree"`
	Birthday        Field[string]   `json:"birthday"`
	Hobbies         Field[string]   `json:"hobbies"`
	FavoriteFood    Field[string]   `json:"favorite_food"`
	HowWeMet        Field[string]   `json:"how_we_met"`
	Notes           Field[string]   `json:"notes"`
	Phone           Field[string]   `json:"phone"`
	Email           Field[string]   `json:"email"`
	ProfilePicture  Field[string]   `json:"profile_picture"`
	Language        Field[string]   `json:"language"`
	Tone            Field[string]   `json:"tone"`
	ExampleMessage  Field[string]   `json:"example_message"`
	DeviceContactID Field[string]   `json:"device_contact_id"`
	Groups          Field[[]string] `json:"groups"`
	PipelineStage   Field[string]   `json:"pipeline_stage"`
	LastContactDate Field[string]   `json:"last_contact_date"`
}

// Interaction type constants (wire values).
const (
	InteractionPersonalMeeting  = "Personal Meeting"
	InteractionPhoneCall        = "Phone Call"
	InteractionEmail            = "Email"
	InteractionWhatsApp         = "WhatsApp"
	InteractionScheduledMeeting = "Scheduled Meeting"
	InteractionOther            = "Other"
)

// InteractionTypes is the closed set of accepted interaction types.
var InteractionTypes = []string{
	InteractionPersonalMeeting,
	InteractionPhoneCall,
	InteractionEmail,
	InteractionWhatsApp,
	InteractionScheduledMeeting,
	InteractionOther,
}

// ValidInteractionType reports whether t is in the closed set.
func ValidInteractionType(t string) bool {
	for _, v := range InteractionTypes {
		if v == t {
			return true
		}
	}
	return false
}

type Interaction struct {
	ID              string    `json:"id"`
	ContactID       uuid.UUID `json:"contact_id"`
	UserID          string    `json:"user_id"`
	InteractionType string    `json:"interaction_type"`
	Date            time.Time `json:"date"`
	Notes           string    `json:"notes,omitempty"`
	EventID         string    `json:"event_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewInteraction is the input for logging an interaction.
type NewInteraction struct {
	InteractionType string `json:"interaction_type" validate:"required"`
	Date            string `json:"date,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// Draft status constants.
const (
	DraftPending   = "pending"
	DraftSent      = "sent"
	DraftDismissed = "dismissed"
)

type Draft struct {
	ID           uuid.UUID  `json:"id"`
	ContactID    uuid.UUID  `json:"contact_id"`
	UserID       string     `json:"user_id"`
	ContactName  string     `json:"contact_name"`
	DraftMessage string     `json:"draft_message"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}

type Group struct {
	ID             uuid.UUID `json:"id"`
	UserID         string    `json:"user_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Color          string    `json:"color,omitempty"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	ContactCount   int       `json:"contact_count"`
	Contacts       []Contact `json:"contacts,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type GroupInput struct {
	Name           string `json:"name" validate:"required"`
	Description    string `json:"description,omitempty"`
	Color          string `json:"color,omitempty"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

type GroupUpdate struct {
	Name           Field[string] `json:"name"`
	Description    Field[string] `json:"description"`
	Color          Field[string] `json:"color"`
	ProfilePicture Field[string] `json:"profile_picture"`
}

// Calendar event sources.
const (
	EventSourceManual = "manual"
	EventSourceGoogle = "google"
)

// Date and clock layouts used by calendar events.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

type CalendarEvent struct {
	ID              uuid.UUID   `json:"id"`
	UserID          string      `json:"user_id"`
	Title           string      `json:"title"`
	Description     string      `json:"description,omitempty"`
	Date            string      `json:"date"`
	StartTime       string      `json:"start_time,omitempty"`
	EndTime         string      `json:"end_time,omitempty"`
	AllDay          bool        `json:"all_day"`
	Participants    []uuid.UUID `json:"participants"`
	ReminderMinutes int         `json:"reminder_minutes"`
	Color           string      `json:"color,omitempty"`
	Source          string      `json:"source"`
	ExternalID      string      `json:"external_id,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Start returns the moment the event begins, in UTC. All-day events and
// events without a start time begin at midnight.
func (e *CalendarEvent) Start() (time.Time, error) {
	day, err := time.Parse(DateLayout, e.Date)
	if err != nil {
		return time.Time{}, err
	}
	if e.AllDay || e.StartTime == "" {
		return day, nil
	}
	clock, err := time.Parse(ClockLayout, e.StartTime)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute), nil
}

type CalendarEventInput struct {
	Title           string   `json:"title" validate:"required"`
	Description     string   `json:"description,omitempty"`
	Date            string   `json:"date" validate:"required"`
	StartTime       string   `json:"start_time,omitempty"`
	EndTime         string   `json:"end_time,omitempty"`
	AllDay          bool     `json:"all_day,omitempty"`
	Participants    []string `json:"participants,omitempty"`
	ReminderMinutes int      `json:"reminder_minutes,omitempty"`
	Color           string   `json:"color,omitempty"`
}

type CalendarEventUpdate struct {
	Title           Field[string]   `json:"title"`
	Description     Field[string]   `json:"description"`
	Date            Field[string]   `json:"date"`
	StartTime       Field[string]   `json:"start_time"`
	EndTime         Field[string]   `json:"end_time"`
	AllDay          Field[bool]     `json:"all_day"`
	Participants    Field[[]string] `json:"participants"`
	ReminderMinutes Field[int]      `json:"reminder_minutes"`
	Color           Field[string]   `json:"color"`
}

// PipelineStage is one row of a cadence table.
type PipelineStage struct {
	Name            string `json:"name" validate:"required"`
	IntervalDays    int    `json:"interval_days" validate:"min=1"`
	Randomize       bool   `json:"randomize"`
	RandomVariation int    `json:"random_variation" validate:"min=0"`
}

// DefaultWritingStyle seeds new users' settings.
const DefaultWritingStyle = "Hey! How have you been? Just wanted to catch up and see what you've been up to lately."

// DefaultNotificationTime is when the morning briefing is due.
const DefaultNotificationTime = "09:00"

type Settings struct {
	UserID             string          `json:"user_id"`
	WritingStyleSample string          `json:"writing_style_sample"`
	NotificationTime   string          `json:"notification_time"`
	PipelineStages     []PipelineStage `json:"pipeline_stages"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// DefaultSettings returns settings for a user who has never saved any.
func DefaultSettings(userID string) *Settings {
	return &Settings{
		UserID:             userID,
		WritingStyleSample: DefaultWritingStyle,
		NotificationTime:   DefaultNotificationTime,
		PipelineStages:     []PipelineStage{},
	}
}

type SettingsUpdate struct {
	WritingStyleSample Field[string]          `json:"writing_style_sample"`
	NotificationTime   Field[string]          `json:"notification_time"`
	PipelineStages     Field[[]PipelineStage] `json:"pipeline_stages"`
}

// Sync status constants.
const (
	SyncStatusIdle    = "idle"
	SyncStatusSyncing = "syncing"
	SyncStatusError   = "error"
)

type SyncState struct {
	UserID        string     `json:"user_id"`
	Service       string     `json:"service"`
	LastSyncTime  *time.Time `json:"last_sync_time,omitempty"`
	LastSyncToken string     `json:"last_sync_token,omitempty"`
	Status        string     `json:"status"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
