package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/justsurfingit/pipeline-board/internal/dtos"
	"github.com/justsurfingit/pipeline-board/internal/models"
	"github.com/justsurfingit/pipeline-board/internal/pipeline"
)

type JobService struct {
	DB *gorm.DB
}

func NewJobService(db *gorm.DB) *JobService {
	return &JobService{
		DB: db,
	}
}

func (s *JobService) CreateJob(req *dtos.JobCreationRequest) (*models.Job, error) {
	// So we have to create a Job and enter its entry into the database
	var company models.Company
	// it create an entry if it already don't exist
	err := s.DB.Where(models.Company{Name: req.CompanyName}).
		FirstOrCreate(&company).Error
	if err != nil {
		return nil, err
	}
	// creating the job
	job := &models.Job{
		CompanyID:           company.ID,
		Title:               req.Title,
		Description:         req.Description,
		JobLink:             req.JobLink,
		Location:            req.Location,
		JobType:             req.JobType,
		Notes:               req.Notes,
		ResumeLink:          req.ResumeLink,
		Status:              string(pipeline.ParseStage(req.Status)),
		LastStatusChange:    time.Now(),
		ApplicationDeadline: req.ApplicationDeadline,
	}
	err = s.DB.Create(job).Error
	if err != nil {
		return nil, err
	}
	job.Company = company
	return job, nil
}

// ListJobs returns every job flattened to the wire shape, oldest first so
// the board's insertion order is stable across reloads.
func (s *JobService) ListJobs() ([]pipeline.JobRecord, error) {
	var jobs []models.Job
	if err := s.DB.Preload("Company").Order("id asc").Find(&jobs).Error; err != nil {
		return nil, err
	}
	records := make([]pipeline.JobRecord, 0, len(jobs))
	for i := range jobs {
		records = append(records, jobs[i].Record())
	}
	return records, nil
}

// StageStats returns the per-stage job counts. Every stage is present in
// the result, zero included, so the client never sees a partial map.
func (s *JobService) StageStats() (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := s.DB.Model(&models.Job{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	stats := make(map[string]int64, len(pipeline.Stages))
	for _, st := range pipeline.Stages {
		stats[string(st)] = 0
	}
	for _, row := range rows {
		// Unknown statuses count toward 'interested', same bucket the
		// board files them under.
		stats[string(pipeline.ParseStage(row.Status))] += row.Count
	}
	return stats, nil
}

// PatchJob applies a partial update. A status change rewrites
// last_status_change and appends a JobEvent; setting the same status is a
// no-op for both.
func (s *JobService) PatchJob(id uint, req *dtos.JobPatchRequest) (*models.Job, error) {
	var job models.Job
	if err := s.DB.Preload("Company").First(&job, id).Error; err != nil {
		return nil, err
	}

	if req.Status != nil {
		target := pipeline.Stage(*req.Status)
		if !target.Valid() {
			return nil, fmt.Errorf("unknown status %q", *req.Status)
		}
		if string(target) != job.Status {
			event := models.JobEvent{
				JobID:     job.ID,
				EventType: "status_change",
				Details:   fmt.Sprintf("%s -> %s", job.Status, target),
			}
			if err := s.DB.Create(&event).Error; err != nil {
				return nil, err
			}
			job.Status = string(target)
			job.LastStatusChange = time.Now()
		}
	}
	if req.ClearDeadline {
		job.ApplicationDeadline = nil
	} else if req.ApplicationDeadline != nil {
		job.ApplicationDeadline = req.ApplicationDeadline
	}
	if req.Notes != nil {
		job.Notes = *req.Notes
	}

	if err := s.DB.Save(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// BulkUpdateStatus moves every listed job to target. Jobs already in the
// target stage keep their last_status_change; unknown ids are skipped.
// Returns the number of jobs that actually changed stage.
func (s *JobService) BulkUpdateStatus(ids []uint, target pipeline.Stage) (int64, error) {
	if !target.Valid() {
		return 0, fmt.Errorf("unknown status %q", target)
	}
	var moved int64
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var jobs []models.Job
		if err := tx.Where("id IN ? AND status <> ?", ids, string(target)).Find(&jobs).Error; err != nil {
			return err
		}
		if len(jobs) == 0 {
			return nil
		}
		events := make([]models.JobEvent, 0, len(jobs))
		changed := make([]uint, 0, len(jobs))
		for i := range jobs {
			events = append(events, models.JobEvent{
				JobID:     jobs[i].ID,
				EventType: "status_change",
				Details:   fmt.Sprintf("%s -> %s (bulk)", jobs[i].Status, target),
			})
			changed = append(changed, jobs[i].ID)
		}
		res := tx.Model(&models.Job{}).
			Where("id IN ?", changed).
			Updates(map[string]any{
				"status":             string(target),
				"last_status_change": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		moved = res.RowsAffected
		return tx.Create(&events).Error
	})
	return moved, err
}

// BulkUpdateDeadline sets (or clears, when deadline is nil) the application
// deadline for every listed job.
func (s *JobService) BulkUpdateDeadline(ids []uint, deadline *time.Time) (int64, error) {
	res := s.DB.Model(&models.Job{}).
		Where("id IN ?", ids).
		Update("application_deadline", deadline)
	return res.RowsAffected, res.Error
}
