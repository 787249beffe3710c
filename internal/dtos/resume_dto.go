package dtos

import "github.com/signalpage/signalpage/internal/models"

// ParsedResume is what the LLM extracts from resume text.
type ParsedResume struct {
	Summary         string                  `json:"summary"`
	Skills          []string                `json:"skills"`
	Experience      []models.ExperienceItem `json:"experience"`
	YearsExperience int                     `json:"years_experience"`
}
