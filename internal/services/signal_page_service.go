package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/signalpage/signalpage/internal/dtos"
	"github.com/signalpage/signalpage/internal/logger"
	"github.com/signalpage/signalpage/internal/metrics"
	"github.com/signalpage/signalpage/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlanChecker reports how many pages a user may own.
type PlanChecker interface {
	PageLimit(ctx context.Context, userID string) (limit int, unlimited bool, err error)
}

type SignalPageService struct {
	DB            *gorm.DB
	Resumes       *ResumeService
	Jobs          *JobService
	Profiles      *ProfileService
	Settings      *SettingsService
	Matcher       *MatcherService
	LLM           *LLMService
	Notifications *NotificationService
	Plans         PlanChecker
	Limiter       *UserLimiter
	BaseURL       string
	log           *zap.Logger
}

type SignalPageDeps struct {
	Resumes       *ResumeService
	Jobs          *JobService
	Profiles      *ProfileService
	Settings      *SettingsService
	Matcher       *MatcherService
	LLM           *LLMService
	Notifications *NotificationService
	Plans         PlanChecker
	Limiter       *UserLimiter
	BaseURL       string
}

func NewSignalPageService(db *gorm.DB, deps SignalPageDeps, log *zap.Logger) *SignalPageService {
	return &SignalPageService{
		DB:            db,
		Resumes:       deps.Resumes,
		Jobs:          deps.Jobs,
		Profiles:      deps.Profiles,
		Settings:      deps.Settings,
		Matcher:       deps.Matcher,
		LLM:           deps.LLM,
		Notifications: deps.Notifications,
		Plans:         deps.Plans,
		Limiter:       deps.Limiter,
		BaseURL:       strings.TrimRight(deps.BaseURL, "/"),
		log:           logger.OrNop(log),
	}
}

// Generate builds a page for one of the caller's resumes and jobs.
func (s *SignalPageService) Generate(ctx context.Context, userID, email string, req *dtos.SignalPageRequest) (*models.SignalPage, error) {
	if !s.Limiter.Allow(userID) {
		return nil, ErrRateLimited
	}

	resume, err := s.Resumes.Get(ctx, userID, req.ResumeID)
	if err != nil {
		return nil, fmt.Errorf("resume: %w", err)
	}
	job, err := s.Jobs.Get(ctx, userID, req.JobID)
	if err != nil {
		return nil, fmt.Errorf("job: %w", err)
	}

	limit, limited, err := s.pageLimit(ctx, userID)
	if err != nil {
		return nil, err
	}
	if limited {
		if err := checkQuota(s.DB.WithContext(ctx), userID, limit); err != nil {
			return nil, err
		}
	}

	profile, err := s.Profiles.Ensure(ctx, userID, email)
	if err != nil {
		return nil, err
	}

	match := s.Matcher.Score(MatchInput{
		ResumeText:      resume.RawText,
		ResumeSkills:    resume.Skills,
		RequiredSkills:  job.RequiredSkills,
		PreferredSkills: job.PreferredSkills,
		JobText:         job.Title + "\n" + job.Description,
	})

	in := CommentaryInput{
		CandidateName:   profile.FullName,
		ResumeSummary:   resume.Summary,
		ResumeSkills:    resume.Skills,
		YearsExperience: resume.YearsExperience,
		CompanyName:     job.CompanyName,
		RoleTitle:       job.Title,
		JobDescription:  job.Description,
		MatchScore:      match.Score,
		Matching:        match.Matching,
		Missing:         match.Missing,
	}
	copyText, err := s.LLM.WriteCommentary(ctx, in)
	if err != nil {
		s.log.Warn("commentary generation failed, using fallback", zap.String("user_id", userID), zap.Error(err))
		copyText = fallbackCommentary(in)
	}

	page := &models.SignalPage{
		UserID:         userID,
		ResumeID:       resume.ID,
		JobID:          job.ID,
		Slug:           NewSlug(job.CompanyName, job.Title),
		Headline:       copyText.Headline,
		Commentary:     copyText.Commentary,
		MatchScore:     match.Score,
		MatchingSkills: match.Matching,
		MissingSkills:  match.Missing,
	}
	// Re-check the quota under the owner's row lock before inserting.
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").First(&models.Profile{}, "id = ?", userID).Error; err != nil {
			return fmt.Errorf("lock profile: %w", err)
		}
		if limited {
			if err := checkQuota(tx, userID, limit); err != nil {
				return err
			}
		}
		if err := tx.Create(page).Error; err != nil {
			return fmt.Errorf("create signal page: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.PagesGenerated.Inc()

	s.notify(ctx, userID, models.KindPageGenerated,
		"Your signal page is ready",
		fmt.Sprintf("We generated a signal page for %s at %s (match score %.1f).", job.Title, job.CompanyName, match.Score),
		s.BaseURL+"/pages/"+page.ID)
	return page, nil
}

// pageLimit reports the caller's page allowance. limited is false for
// unlimited plans or when no plan checker is configured.
func (s *SignalPageService) pageLimit(ctx context.Context, userID string) (limit int, limited bool, err error) {
	if s.Plans == nil {
		return 0, false, nil
	}
	limit, unlimited, err := s.Plans.PageLimit(ctx, userID)
	if err != nil {
		return 0, false, err
	}
	return limit, !unlimited, nil
}

func checkQuota(db *gorm.DB, userID string, limit int) error {
	used, err := countPages(db, userID)
	if err != nil {
		return err
	}
	if used >= int64(limit) {
		return fmt.Errorf("%w: the free plan includes %d signal pages", ErrPlanLimit, limit)
	}
	return nil
}

func countPages(db *gorm.DB, userID string) (int64, error) {
	var n int64
	if err := db.Model(&models.SignalPage{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count signal pages: %w", err)
	}
	return n, nil
}

func (s *SignalPageService) Count(ctx context.Context, userID string) (int64, error) {
	return countPages(s.DB.WithContext(ctx), userID)
}

func (s *SignalPageService) List(ctx context.Context, userID string) ([]models.SignalPage, error) {
	var pages []models.SignalPage
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&pages).Error
	if err != nil {
		return nil, fmt.Errorf("list signal pages: %w", err)
	}
	return pages, nil
}

func (s *SignalPageService) Get(ctx context.Context, userID, id string) (*models.SignalPage, error) {
	var page models.SignalPage
	err := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&page).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get signal page: %w", err)
	}
	return &page, nil
}

// Update edits copy and publication state. Only the first publish ever
// notifies the owner.
func (s *SignalPageService) Update(ctx context.Context, userID, id string, req *dtos.SignalPageUpdate) (*models.SignalPage, error) {
	page, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Headline != nil {
		h := strings.TrimSpace(*req.Headline)
		if h == "" {
			return nil, fmt.Errorf("%w: headline must not be empty", ErrInvalidInput)
		}
		updates["headline"] = h
	}
	if req.Commentary != nil {
		updates["commentary"] = strings.TrimSpace(*req.Commentary)
	}
	publishing := false
	if req.Published != nil && *req.Published != page.Published {
		updates["published"] = *req.Published
		publishing = *req.Published
	}
	if len(updates) == 0 {
		return page, nil
	}

	firstPublish := false
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(page).Updates(updates).Error; err != nil {
			return fmt.Errorf("update signal page: %w", err)
		}
		if !publishing {
			return nil
		}
		// published_at is written once; only the request that sets it notifies.
		res := tx.Model(&models.SignalPage{}).
			Where("id = ? AND published_at IS NULL", page.ID).
			Update("published_at", time.Now().UTC())
		if res.Error != nil {
			return fmt.Errorf("mark signal page published: %w", res.Error)
		}
		firstPublish = res.RowsAffected == 1
		return nil
	})
	if err != nil {
		return nil, err
	}
	page, err = s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if firstPublish {
		s.notify(ctx, userID, models.KindPagePublished,
			"Your signal page is live",
			"Share this link with the hiring team: "+s.PublicURL(page.Slug),
			s.PublicURL(page.Slug))
	}
	return page, nil
}

func (s *SignalPageService) Delete(ctx context.Context, userID, id string) error {
	res := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.SignalPage{})
	if res.Error != nil {
		return fmt.Errorf("delete signal page: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// PublicURL is where a published page is served.
func (s *SignalPageService) PublicURL(slug string) string {
	return s.BaseURL + "/p/" + slug
}

// Public returns a published page by slug and counts the view.
func (s *SignalPageService) Public(ctx context.Context, slug string) (*dtos.PublicPage, error) {
	var page models.SignalPage
	err := s.DB.WithContext(ctx).Where("slug = ? AND published = ?", slug, true).First(&page).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get public page: %w", err)
	}

	if err := s.DB.WithContext(ctx).Model(&page).UpdateColumn("views", gorm.Expr("views + ?", 1)).Error; err != nil {
		s.log.Warn("counting page view failed", zap.String("slug", slug), zap.Error(err))
	}

	st, err := s.Settings.Get(ctx, page.UserID)
	if err != nil {
		return nil, err
	}

	out := &dtos.PublicPage{
		Slug:           page.Slug,
		Headline:       page.Headline,
		CommentaryHTML: RenderMarkdown(page.Commentary),
		MatchingSkills: page.MatchingSkills,
		Theme:          st.PageTheme,
	}
	if out.MatchingSkills == nil {
		out.MatchingSkills = []string{}
	}
	if st.ShowMatchScore {
		score := page.MatchScore
		out.MatchScore = &score
	}

	if profile, err := s.Profiles.Get(ctx, page.UserID); err == nil {
		out.CandidateName = profile.FullName
		out.CandidateTitle = profile.Headline
		out.AvatarURL = profile.AvatarURL
	}
	if job, err := s.Jobs.Get(ctx, page.UserID, page.JobID); err == nil {
		out.CompanyName = job.CompanyName
		out.RoleTitle = job.Title
	}
	if resume, err := s.Resumes.Get(ctx, page.UserID, page.ResumeID); err == nil {
		out.ResumeSummary = resume.Summary
	}
	return out, nil
}

func (s *SignalPageService) notify(ctx context.Context, userID, kind, title, body, link string) {
	if s.Notifications == nil {
		return
	}
	if _, err := s.Notifications.Notify(ctx, userID, kind, title, body, link); err != nil {
		s.log.Warn("notification failed", zap.String("kind", kind), zap.Error(err))
	}
}

// NewSlug returns "<company>-<title>-<8 hex>".
func NewSlug(company, title string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	parts := make([]string, 0, 3)
	for _, p := range []string{kebab(company, 40), kebab(title, 40)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	parts = append(parts, suffix)
	return strings.Join(parts, "-")
}

func kebab(s string, max int) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.Trim(b.String(), "-")
	if len(out) > max {
		out = strings.Trim(out[:max], "-")
	}
	return out
}

func fallbackCommentary(in CommentaryInput) *dtos.Commentary {
	name := strings.TrimSpace(in.CandidateName)
	if name == "" {
		name = "I"
	}

	headline := fmt.Sprintf("Why %s fit%s the %s role at %s", name, verbSuffix(name), in.RoleTitle, in.CompanyName)

	var b strings.Builder
	fmt.Fprintf(&b, "This page was put together for the **%s** role at **%s**.", in.RoleTitle, in.CompanyName)
	if in.ResumeSummary != "" {
		fmt.Fprintf(&b, "\n\n%s", in.ResumeSummary)
	}
	if len(in.Matching) > 0 {
		fmt.Fprintf(&b, "\n\nDirect overlap with the posting: %s.", strings.Join(in.Matching, ", "))
	}
	if len(in.Missing) > 0 {
		fmt.Fprintf(&b, "\n\nAreas I am actively growing into: %s.", strings.Join(in.Missing, ", "))
	}
	return &dtos.Commentary{Headline: headline, Commentary: b.String()}
}

func verbSuffix(subject string) string {
	if subject == "I" {
		return ""
	}
	return "s"
}
