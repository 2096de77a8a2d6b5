// Package pipeline defines the job pipeline stages and the JobRecord shape
// shared by the board engine, the sync adapter, and the API server.
package pipeline

import "time"

// Stage is one column of the pipeline board.
type Stage string

const (
	StageInterested  Stage = "interested"
	StageApplied     Stage = "applied"
	StagePhoneScreen Stage = "phone_screen"
	StageInterview   Stage = "interview"
	StageOffer       Stage = "offer"
	StageRejected    Stage = "rejected"
)

// Stages lists every stage in board display order.
var Stages = []Stage{
	StageInterested,
	StageApplied,
	StagePhoneScreen,
	StageInterview,
	StageOffer,
	StageRejected,
}

// ParseStage maps a raw status string to a Stage. Unknown or empty values
// default to StageInterested, matching the board's partitioning rule.
func ParseStage(s string) Stage {
	st := Stage(s)
	if st.Valid() {
		return st
	}
	return StageInterested
}

// Valid reports whether s is one of the fixed stages.
func (s Stage) Valid() bool {
	switch s {
	case StageInterested, StageApplied, StagePhoneScreen, StageInterview, StageOffer, StageRejected:
		return true
	}
	return false
}

// Label returns the human-readable column header for s.
func (s Stage) Label() string {
	switch s {
	case StageInterested:
		return "Interested"
	case StageApplied:
		return "Applied"
	case StagePhoneScreen:
		return "Phone Screen"
	case StageInterview:
		return "Interview"
	case StageOffer:
		return "Offer"
	case StageRejected:
		return "Rejected"
	}
	return string(s)
}

// JobRecord is the client-side copy of one job as served by the Jobs API.
// The board holds a mutable cached copy per visible job; the API owns the
// authoritative record.
type JobRecord struct {
	ID                  uint       `json:"id"`
	Title               string     `json:"title"`
	CompanyName         string     `json:"company_name"`
	Status              Stage      `json:"status"`
	LastStatusChange    time.Time  `json:"last_status_change"`
	ApplicationDeadline *time.Time `json:"application_deadline,omitempty"`
	Location            string     `json:"location,omitempty"`
	JobType             string     `json:"job_type,omitempty"`
	JobLink             string     `json:"job_link,omitempty"`
	Notes               string     `json:"notes,omitempty"`
}
