package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ReportStatusPending    = "pending"
	ReportStatusProcessing = "processing"
	ReportStatusCompleted  = "completed"
	ReportStatusFailed     = "failed"
)

// ReportJob is the status record for one report generation run. At most one
// job per (user, tier) may be pending or processing at a time; a processing
// row older than the staleness threshold is reset to pending by the watchdog.
type ReportJob struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Tier         string         `gorm:"column:tier;not null;index" json:"tier"`
	Status       string         `gorm:"column:status;not null;index" json:"status"`
	ArtifactPath string         `gorm:"column:artifact_path" json:"artifact_path,omitempty"`
	Error        string         `gorm:"column:error;type:text" json:"error,omitempty"`
	Result       datatypes.JSON `gorm:"column:result" json:"result,omitempty"`
	StartedAt    *time.Time     `gorm:"column:started_at;index" json:"started_at,omitempty"`
	FinishedAt   *time.Time     `gorm:"column:finished_at" json:"finished_at,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ReportJob) TableName() string { return "report_job" }
