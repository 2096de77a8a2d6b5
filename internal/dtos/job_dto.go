package dtos

import "time"

type JobCreationRequest struct {
	CompanyName string `json:"company_name" binding:"required"`
	Title       string `json:"role_title" binding:"required"`
	JobLink     string `json:"job_link"`
	Description string `json:"description"`

	// Optional Fields
	Location            string     `json:"location"`
	JobType             string     `json:"job_type"`
	Notes               string     `json:"notes"`
	ResumeLink          string     `json:"resume_link"`
	ApplicationDeadline *time.Time `json:"application_deadline"`
	Status              string     `json:"status"` // Defaults to "interested" if empty or unknown
}

// JobPatchRequest is a partial update: nil fields are left untouched.
// ClearDeadline distinguishes "clear the deadline" from "don't touch it".
type JobPatchRequest struct {
	Status              *string    `json:"status"`
	ApplicationDeadline *time.Time `json:"application_deadline"`
	ClearDeadline       bool       `json:"clear_deadline"`
	Notes               *string    `json:"notes"`
}

type BulkStatusRequest struct {
	IDs    []uint `json:"ids" binding:"required,min=1"`
	Status string `json:"status" binding:"required"`
}

// BulkDeadlineRequest sets the deadline for every listed job; a null
// deadline clears it.
type BulkDeadlineRequest struct {
	IDs      []uint     `json:"ids" binding:"required,min=1"`
	Deadline *time.Time `json:"deadline"`
}
