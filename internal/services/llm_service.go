package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/signalpage/signalpage/internal/dtos"
	"github.com/signalpage/signalpage/internal/logger"
	"github.com/signalpage/signalpage/internal/metrics"
	"go.uber.org/zap"
)

const (
	maxJobInput    = 20000
	maxResumeInput = 30000

	defaultLLMAttempts  = 2
	defaultLLMRetryWait = 500 * time.Millisecond
)

var errNoLLM = errors.New("llm is not configured")

type LLMService struct {
	Client Generator
	// Attempts and RetryWait control retries of failed generations.
	Attempts  int
	RetryWait time.Duration
	log       *zap.Logger
}

// NewLLMService wraps client. A nil client makes every call fail with a
// wrapped ErrUnavailable so callers can fall back.
func NewLLMService(client Generator, log *zap.Logger) *LLMService {
	log = logger.OrNop(log)
	if client != nil {
		log = log.With(zap.String("ai_model", client.Model()))
	}
	return &LLMService{Client: client, Attempts: defaultLLMAttempts, RetryWait: defaultLLMRetryWait, log: log}
}

const jobExtractionPrompt = `
You are an expert Job Data Extraction Agent. Analyze the raw HTML/Text of a job posting and extract structured data.

### INSTRUCTIONS:
1. Ignore navigation menus, footers, "similar jobs" lists and advertisements.
2. Separate skills the posting REQUIRES from skills it merely PREFERS ("nice to have", "bonus").
3. Skills are short names (e.g. "Go", "PostgreSQL", "Kubernetes"), not sentences.
4. Output valid JSON only. No markdown code blocks.

### OUTPUT SCHEMA:
{
    "company_name": "Name of the company",
    "role_title": "Job title",
    "location": "Job location or 'Remote'",
    "description": "Clean summary of responsibilities and requirements, no HTML",
    "required_skills": ["..."],
    "preferred_skills": ["..."],
    "salary_range": "Salary if explicitly mentioned, otherwise empty string"
}

### CONSTRAINT:
If a piece of information is missing use an empty string or empty array. Do not guess.

### RAW CONTENT:
%s
`

// ExtractJobDetails turns a raw posting into structured fields.
func (s *LLMService) ExtractJobDetails(ctx context.Context, rawHTML string) (*dtos.ParsedJob, error) {
	rawHTML = truncateRunes(sanitizeUTF8(rawHTML), maxJobInput)

	var job dtos.ParsedJob
	if err := s.generateJSON(ctx, "job_extraction", fmt.Sprintf(jobExtractionPrompt, rawHTML), &job); err != nil {
		return nil, err
	}
	job.RequiredSkills = cleanList(job.RequiredSkills)
	job.PreferredSkills = cleanList(job.PreferredSkills)
	if strings.TrimSpace(job.CompanyName) == "" && strings.TrimSpace(job.Title) == "" {
		metrics.LLMFailures.WithLabelValues("job_extraction").Inc()
		return nil, errors.New("llm could not identify the company or role")
	}
	return &job, nil
}

const resumePrompt = `
You are a resume parser. Read the resume text below and return ONLY a JSON object:
{
    "summary": "Two or three sentence professional summary in third person",
    "skills": ["Short skill names, most important first"],
    "experience": [{"company": "", "title": "", "period": "", "summary": "one sentence"}],
    "years_experience": 0
}
Use empty values for anything the resume does not state.

### RESUME:
%s
`

// StructureResume extracts summary, skills and experience from resume text.
func (s *LLMService) StructureResume(ctx context.Context, text string) (*dtos.ParsedResume, error) {
	text = truncateRunes(sanitizeUTF8(text), maxResumeInput)

	var parsed dtos.ParsedResume
	if err := s.generateJSON(ctx, "resume", fmt.Sprintf(resumePrompt, text), &parsed); err != nil {
		return nil, err
	}
	parsed.Skills = cleanList(parsed.Skills)
	if parsed.YearsExperience < 0 {
		parsed.YearsExperience = 0
	}
	return &parsed, nil
}

// CommentaryInput is everything the page writer sees.
type CommentaryInput struct {
	CandidateName   string
	ResumeSummary   string
	ResumeSkills    []string
	YearsExperience int
	CompanyName     string
	RoleTitle       string
	JobDescription  string
	MatchScore      float64
	Matching        []string
	Missing         []string
}

const commentaryPrompt = `
You write the copy for a one-page pitch a job applicant sends to a hiring manager.
Be specific, confident and honest. Never invent experience the candidate does not have.

Candidate: %s (%d years of experience)
Summary: %s
Skills: %s

Role: %s at %s
Job description: %s

Skill match score: %.1f/100
Skills that match: %s
Skills to address: %s

Return ONLY a JSON object:
{
    "headline": "One line, under 90 characters, why this candidate fits this role",
    "commentary": "Three short markdown paragraphs: fit, evidence from experience, how gaps are covered"
}
`

// WriteCommentary asks the LLM for the page headline and commentary.
func (s *LLMService) WriteCommentary(ctx context.Context, in CommentaryInput) (*dtos.Commentary, error) {
	name := in.CandidateName
	if strings.TrimSpace(name) == "" {
		name = "The candidate"
	}
	prompt := fmt.Sprintf(commentaryPrompt,
		name, in.YearsExperience,
		sanitizeUTF8(in.ResumeSummary),
		strings.Join(in.ResumeSkills, ", "),
		in.RoleTitle, in.CompanyName,
		truncateRunes(sanitizeUTF8(in.JobDescription), 4000),
		in.MatchScore,
		strings.Join(in.Matching, ", "),
		strings.Join(in.Missing, ", "),
	)

	var out dtos.Commentary
	if err := s.generateJSON(ctx, "commentary", prompt, &out); err != nil {
		return nil, err
	}
	out.Headline = strings.TrimSpace(out.Headline)
	out.Commentary = strings.TrimSpace(out.Commentary)
	if out.Headline == "" || out.Commentary == "" {
		metrics.LLMFailures.WithLabelValues("commentary").Inc()
		return nil, errors.New("llm returned incomplete commentary")
	}
	return &out, nil
}

func (s *LLMService) generateJSON(ctx context.Context, task, prompt string, dst interface{}) error {
	if s == nil || s.Client == nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, errNoLLM)
	}

	var resp string
	err := retry(ctx, s.log.With(zap.String("task", task)), s.Attempts, s.RetryWait, func() error {
		var err error
		resp, err = s.Client.Generate(ctx, prompt)
		return err
	})
	if err != nil {
		metrics.LLMFailures.WithLabelValues(task).Inc()
		s.log.Warn("llm call failed", zap.String("task", task), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	raw, ok := extractJSONObject(resp)
	if !ok {
		metrics.LLMFailures.WithLabelValues(task).Inc()
		s.log.Warn("llm returned no json", zap.String("task", task), zap.String("raw", logger.TruncateForLog(resp, 200)))
		return errors.New("llm response did not contain a json object")
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		metrics.LLMFailures.WithLabelValues(task).Inc()
		s.log.Warn("llm json invalid", zap.String("task", task), zap.Error(err), zap.String("raw", logger.TruncateForLog(raw, 200)))
		return fmt.Errorf("parse llm json: %w", err)
	}
	s.log.Debug("llm call complete", zap.String("task", task), zap.Int("response_len", len(resp)))
	return nil
}

// extractJSONObject returns the outermost {...} in s, ignoring markdown fences
// and chatter around it.
func extractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func sanitizeUTF8(s string) string {
	return strings.ToValidUTF8(s, "�")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// cleanList trims entries and drops empties and case-insensitive duplicates.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, item := range in {
		item = strings.TrimSpace(item)
		key := strings.ToLower(item)
		if item == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}
