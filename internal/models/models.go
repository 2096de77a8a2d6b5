package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/justsurfingit/pipeline-board/internal/pipeline"
)

type Company struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name string `gorm:"uniqueIndex;not null" json:"company_name"`

	// 'omitempty' prevents infinite loops when fetching a Job -> Company -> Jobs -> ...
	Jobs []Job `json:"jobs,omitempty"`
}

type Job struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Foreign Key
	CompanyID uint `json:"company_id"`
	// Association: GORM needs Preload() to fill this
	Company Company `json:"company"`

	Title               string     `gorm:"not null" json:"title"`
	Description         string     `gorm:"type:text" json:"description"`
	JobLink             string     `json:"job_link"`
	Status              string     `gorm:"default:'interested'" json:"status"`
	LastStatusChange    time.Time  `json:"last_status_change"`
	ApplicationDeadline *time.Time `json:"application_deadline"`
	Location            string     `json:"location"`
	JobType             string     `json:"job_type"`
	Notes               string     `gorm:"type:text" json:"notes"`
	ResumeLink          string     `json:"resume_link"`
}

// Record flattens a Job (with its Company preloaded) into the wire shape
// the board consumes.
func (j *Job) Record() pipeline.JobRecord {
	return pipeline.JobRecord{
		ID:                  j.ID,
		Title:               j.Title,
		CompanyName:         j.Company.Name,
		Status:              pipeline.ParseStage(j.Status),
		LastStatusChange:    j.LastStatusChange,
		ApplicationDeadline: j.ApplicationDeadline,
		Location:            j.Location,
		JobType:             j.JobType,
		JobLink:             j.JobLink,
		Notes:               j.Notes,
	}
}

type JobEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	JobID     uint      `json:"job_id"`
	EventType string    `json:"event_type"`
	Details   string    `gorm:"type:text" json:"details"`
}
