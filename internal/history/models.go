package history

import "time"

// Run statuses
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusPartial = "partial"
)

// Run triggers
const (
	TriggerCLI      = "cli"
	TriggerSchedule = "schedule"
	TriggerCleanup  = "cleanup"
)

// Run is one invocation of the organizer
type Run struct {
	ID             string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Trigger        string     `gorm:"type:varchar(20);not null" json:"trigger"`
	Status         string     `gorm:"type:varchar(20);not null;index:idx_runs_status" json:"status"`
	Processed      int        `gorm:"not null;default:0" json:"processed"`
	MovedToLibrary int        `gorm:"not null;default:0" json:"moved_to_library"`
	Duplicates     int        `gorm:"not null;default:0" json:"duplicates"`
	RenamedInPlace int        `gorm:"not null;default:0" json:"renamed_in_place"`
	FilesRenamed   int        `gorm:"not null;default:0" json:"files_renamed"`
	Skipped        int        `gorm:"not null;default:0" json:"skipped"`
	Unmatched      int        `gorm:"not null;default:0" json:"unmatched"`
	Deleted        int        `gorm:"not null;default:0" json:"deleted"`
	Swept          int        `gorm:"not null;default:0" json:"swept"`
	Errors         int        `gorm:"not null;default:0" json:"errors"`
	ErrorMessage   *string    `gorm:"type:text" json:"error_message,omitempty"`
	StartedAt      time.Time  `gorm:"not null;index:idx_runs_started_at" json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null" json:"updated_at"`

	// Associations
	Placements []Placement `gorm:"foreignKey:RunID" json:"placements,omitempty"`
}

// TableName specifies the table name for Run
func (Run) TableName() string {
	return "runs"
}

// Placement is one entry handled during a run
type Placement struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RunID       string    `gorm:"type:varchar(36);not null;index:idx_placements_run" json:"run_id"`
	MediaType   string    `gorm:"type:varchar(10);not null;index:idx_placements_media_type" json:"media_type"`
	Phase       string    `gorm:"type:varchar(20);not null" json:"phase"`
	Source      string    `gorm:"type:text;not null" json:"source"`
	Destination string    `gorm:"type:text" json:"destination,omitempty"`
	Outcome     string    `gorm:"type:varchar(20);not null;index:idx_placements_outcome" json:"outcome"`
	Reason      string    `gorm:"type:text" json:"reason,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

// TableName specifies the table name for Placement
func (Placement) TableName() string {
	return "placements"
}
