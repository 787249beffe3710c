package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/signalpage/signalpage/internal/database/dbtest"
	"github.com/signalpage/signalpage/internal/dtos"
	"github.com/signalpage/signalpage/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestProfileEnsureCreatesOnceAndTracksEmail(t *testing.T) {
	svc := NewProfileService(dbtest.New(t))
	ctx := context.Background()

	p, err := svc.Ensure(ctx, "u1", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.ID)
	assert.Equal(t, "ada@example.com", p.Email)

	p, err = svc.Ensure(ctx, "u1", "ada@new.example")
	require.NoError(t, err)
	assert.Equal(t, "ada@new.example", p.Email)

	var n int64
	require.NoError(t, svc.DB.Model(&models.Profile{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestProfileEnsureConcurrentFirstUse(t *testing.T) {
	svc := NewProfileService(dbtest.New(t))

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Ensure(context.Background(), "u1", "ada@example.com")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	var n int64
	require.NoError(t, svc.DB.Model(&models.Profile{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestProfileGetMissing(t *testing.T) {
	_, err := NewProfileService(dbtest.New(t)).Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProfileUpdate(t *testing.T) {
	svc := NewProfileService(dbtest.New(t))
	ctx := context.Background()

	p, err := svc.Update(ctx, "u1", "ada@example.com", &dtos.ProfileUpdate{
		FullName: ptr("  Ada Lovelace "),
		Headline: ptr("Analytical engineer"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", p.FullName)
	assert.Equal(t, "Analytical engineer", p.Headline)

	_, err = svc.Update(ctx, "u1", "", &dtos.ProfileUpdate{AvatarURL: ptr("javascript:alert(1)")})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSettingsDefaultsAndUpsert(t *testing.T) {
	svc := NewSettingsService(dbtest.New(t))
	ctx := context.Background()

	st, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, st.EmailNotifications)
	assert.True(t, st.ShowMatchScore)
	assert.Equal(t, "light", st.PageTheme)

	_, err = svc.Update(ctx, "u1", &dtos.SettingsRequest{
		EmailNotifications: ptr(false),
		PageTheme:          ptr("Dark"),
	})
	require.NoError(t, err)

	st, err = svc.Update(ctx, "u1", &dtos.SettingsRequest{ShowMatchScore: ptr(false)})
	require.NoError(t, err)
	assert.False(t, st.EmailNotifications)
	assert.False(t, st.ShowMatchScore)
	assert.Equal(t, "dark", st.PageTheme)

	st, err = svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, st.EmailNotifications)
	assert.Equal(t, "dark", st.PageTheme)
}

func TestSettingsValidation(t *testing.T) {
	svc := NewSettingsService(dbtest.New(t))
	ctx := context.Background()

	for _, hook := range []string{
		"http://hooks.slack.com/services/T0/B0/x",
		"https://hooks.slack.com/x",
		"https://hooks.slack.com.attacker.example/services/T0/B0/x",
		"https://127.0.0.1/services/T0/B0/x",
		"https://hooks.slack.com:8443/services/T0/B0/x",
		"https://user@hooks.slack.com/services/T0/B0/x",
	} {
		_, err := svc.Update(ctx, "u1", &dtos.SettingsRequest{SlackWebhookURL: ptr(hook)})
		assert.ErrorIs(t, err, ErrInvalidInput, hook)
	}

	st, err := svc.Update(ctx, "u1", &dtos.SettingsRequest{SlackWebhookURL: ptr(" https://hooks.slack.com/services/T0/B0/x ")})
	require.NoError(t, err)
	assert.Equal(t, "https://hooks.slack.com/services/T0/B0/x", st.SlackWebhookURL)

	_, err = svc.Update(ctx, "u1", &dtos.SettingsRequest{PageTheme: ptr("neon")})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestJobLifecycle(t *testing.T) {
	svc := NewJobService(dbtest.New(t))
	ctx := context.Background()

	job, err := svc.CreateJob(ctx, "u1", &dtos.JobCreationRequest{
		CompanyName: "Acme",
		Title:       "Backend Engineer",
		Description: "We run Golang services on Kubernetes with PostgreSQL.",
		JobLink:     "https://acme.example/jobs/1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApplied, job.Status)
	assert.Equal(t, []string{"go", "kubernetes", "postgres"}, job.RequiredSkills)

	job, err = svc.UpdateStatus(ctx, "u1", job.ID, "interview")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInterview, job.Status)

	_, err = svc.UpdateStatus(ctx, "u1", job.ID, "hired")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Get(ctx, "u2", job.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	jobs, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, jobs, 1)

	assert.ErrorIs(t, svc.Delete(ctx, "u2", job.ID), ErrNotFound)
	require.NoError(t, svc.Delete(ctx, "u1", job.ID))
	assert.ErrorIs(t, svc.Delete(ctx, "u1", job.ID), ErrNotFound)
}

func TestJobCreateValidation(t *testing.T) {
	svc := NewJobService(dbtest.New(t))
	ctx := context.Background()

	_, err := svc.CreateJob(ctx, "u1", &dtos.JobCreationRequest{CompanyName: "A", Title: "B", Description: "C", Status: "maybe"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateJob(ctx, "u1", &dtos.JobCreationRequest{CompanyName: "A", Title: "B", Description: "C", JobLink: "ftp://x"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

const sampleResume = `Ada Lovelace. Senior backend engineer with eight years building
payment systems in Go and Python, running on AWS with Docker and PostgreSQL.`

func TestResumeCreateFromTextUsesLLM(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		`{"summary":"Backend engineer.","skills":["Go","Python","go"],"experience":[{"company":"Acme","title":"Engineer","period":"2018-2024","summary":"Payments"}],"years_experience":8}`,
	}}
	svc := NewResumeService(dbtest.New(t), NewLLMService(gen, nil), nil)

	r, err := svc.CreateFromText(context.Background(), "u1", "/tmp/ada.pdf", sampleResume)
	require.NoError(t, err)
	assert.Equal(t, "ada.pdf", r.FileName)
	assert.Equal(t, "Backend engineer.", r.Summary)
	assert.Equal(t, []string{"Go", "Python"}, r.Skills)
	assert.Equal(t, 8, r.YearsExperience)
	require.Len(t, r.Experience, 1)
	assert.Contains(t, gen.lastPrompt(), "payment systems")

	got, err := svc.Get(context.Background(), "u1", r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Skills, got.Skills)
	assert.Equal(t, "Acme", got.Experience[0].Company)
}

func TestResumeFallsBackToDetectedSkills(t *testing.T) {
	svc := NewResumeService(dbtest.New(t), NewLLMService(nil, nil), nil)

	r, err := svc.CreateFromText(context.Background(), "u1", "cv.pdf", sampleResume)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "python", "aws", "docker", "postgres"}, r.Skills)
	assert.Empty(t, r.Summary)
}

func TestResumeRejectsShortTextAndBadFiles(t *testing.T) {
	svc := NewResumeService(dbtest.New(t), NewLLMService(nil, nil), nil)
	ctx := context.Background()

	_, err := svc.CreateFromText(ctx, "u1", "cv.pdf", "too short")
	assert.ErrorIs(t, err, ErrUnprocessable)

	_, err = svc.CreateFromPDF(ctx, "u1", "cv.docx", []byte("%PDF-1.4"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateFromPDF(ctx, "u1", "cv.pdf", []byte("not a pdf"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateFromPDF(ctx, "u1", "cv.pdf", []byte(strings.Repeat("x", MaxResumeBytes+1)))
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestResumeScopedByUser(t *testing.T) {
	svc := NewResumeService(dbtest.New(t), NewLLMService(nil, nil), nil)
	ctx := context.Background()

	r, err := svc.CreateFromText(ctx, "u1", "cv.pdf", sampleResume)
	require.NoError(t, err)

	_, err = svc.Get(ctx, "u2", r.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := svc.List(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, svc.Delete(ctx, "u1", r.ID))
	assert.ErrorIs(t, svc.Delete(ctx, "u1", r.ID), ErrNotFound)
}
