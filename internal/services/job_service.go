package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/signalpage/signalpage/internal/dtos"
	"github.com/signalpage/signalpage/internal/models"
	"gorm.io/gorm"
)

type JobService struct {
	DB *gorm.DB
}

func NewJobService(db *gorm.DB) *JobService {
	return &JobService{
		DB: db,
	}
}

func (s *JobService) CreateJob(ctx context.Context, userID string, req *dtos.JobCreationRequest) (*models.Job, error) {
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if status == "" {
		status = models.StatusApplied
	}
	if !slices.Contains(models.JobStatuses, status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, req.Status)
	}
	if req.JobLink != "" && !isHTTPURL(req.JobLink, false) {
		return nil, fmt.Errorf("%w: job_link must be an http(s) URL", ErrInvalidInput)
	}

	job := &models.Job{
		UserID:          userID,
		CompanyName:     strings.TrimSpace(req.CompanyName),
		Title:           strings.TrimSpace(req.Title),
		Location:        strings.TrimSpace(req.Location),
		Description:     strings.TrimSpace(req.Description),
		JobLink:         strings.TrimSpace(req.JobLink),
		SalaryRange:     strings.TrimSpace(req.SalaryRange),
		RequiredSkills:  cleanList(req.RequiredSkills),
		PreferredSkills: cleanList(req.PreferredSkills),
		Status:          status,
	}
	if len(job.RequiredSkills) == 0 && len(job.PreferredSkills) == 0 {
		// Nothing structured was given; pull what we can from the description.
		if detected := DetectSkills(job.Description); len(detected) > 0 {
			job.RequiredSkills = detected
		}
	}
	if err := s.DB.WithContext(ctx).Create(job).Error; err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}

func (s *JobService) List(ctx context.Context, userID string) ([]models.Job, error) {
	var jobs []models.Job
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

func (s *JobService) Get(ctx context.Context, userID, id string) (*models.Job, error) {
	var job models.Job
	err := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

func (s *JobService) UpdateStatus(ctx context.Context, userID, id, status string) (*models.Job, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	if !slices.Contains(models.JobStatuses, status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	job, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(job).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("update job status: %w", err)
	}
	job.Status = status
	return job, nil
}

func (s *JobService) Delete(ctx context.Context, userID, id string) error {
	res := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Job{})
	if res.Error != nil {
		return fmt.Errorf("delete job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
