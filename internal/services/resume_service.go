package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/signalpage/signalpage/internal/logger"
	"github.com/signalpage/signalpage/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const minResumeText = 50

type ResumeService struct {
	DB  *gorm.DB
	LLM *LLMService
	log *zap.Logger
}

func NewResumeService(db *gorm.DB, llm *LLMService, log *zap.Logger) *ResumeService {
	return &ResumeService{DB: db, LLM: llm, log: logger.OrNop(log)}
}

// CreateFromPDF extracts the text of an uploaded PDF, structures it and stores it.
func (s *ResumeService) CreateFromPDF(ctx context.Context, userID, fileName string, data []byte) (*models.Resume, error) {
	if !strings.EqualFold(filepath.Ext(fileName), ".pdf") {
		return nil, fmt.Errorf("%w: only PDF files are supported", ErrInvalidInput)
	}
	if len(data) > MaxResumeBytes {
		return nil, fmt.Errorf("%w: file too large, maximum size is 10MB", ErrInvalidInput)
	}

	text, err := ExtractPDFText(data)
	if errors.Is(err, ErrNotPDF) {
		return nil, fmt.Errorf("%w: invalid PDF file", ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: could not extract text from this PDF", ErrUnprocessable)
	}
	return s.CreateFromText(ctx, userID, fileName, text)
}

// CreateFromText stores a resume from already-extracted text. When the LLM is
// unavailable the resume is kept with locally detected skills.
func (s *ResumeService) CreateFromText(ctx context.Context, userID, fileName, text string) (*models.Resume, error) {
	text = strings.TrimSpace(text)
	if len([]rune(text)) < minResumeText {
		return nil, fmt.Errorf("%w: very little text was extracted, the PDF may be image-based", ErrUnprocessable)
	}

	resume := &models.Resume{
		UserID:   userID,
		FileName: filepath.Base(fileName),
		RawText:  text,
	}

	parsed, err := s.LLM.StructureResume(ctx, text)
	if err != nil {
		s.log.Warn("resume structuring failed, using keyword skills", zap.String("user_id", userID), zap.Error(err))
		resume.Skills = DetectSkills(text)
	} else {
		resume.Summary = parsed.Summary
		resume.Skills = parsed.Skills
		resume.Experience = parsed.Experience
		resume.YearsExperience = parsed.YearsExperience
	}
	if resume.Skills == nil {
		resume.Skills = []string{}
	}

	if err := s.DB.WithContext(ctx).Create(resume).Error; err != nil {
		return nil, fmt.Errorf("create resume: %w", err)
	}
	return resume, nil
}

func (s *ResumeService) List(ctx context.Context, userID string) ([]models.Resume, error) {
	var resumes []models.Resume
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&resumes).Error
	if err != nil {
		return nil, fmt.Errorf("list resumes: %w", err)
	}
	return resumes, nil
}

func (s *ResumeService) Get(ctx context.Context, userID, id string) (*models.Resume, error) {
	var r models.Resume
	err := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get resume: %w", err)
	}
	return &r, nil
}

func (s *ResumeService) Delete(ctx context.Context, userID, id string) error {
	res := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Resume{})
	if res.Error != nil {
		return fmt.Errorf("delete resume: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
