package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/signalpage/signalpage/internal/dtos"
	"github.com/signalpage/signalpage/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var pageThemes = map[string]bool{"light": true, "dark": true}

type SettingsService struct {
	DB *gorm.DB
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{DB: db}
}

// Get returns the stored settings or the defaults when none were saved.
func (s *SettingsService) Get(ctx context.Context, userID string) (*models.Settings, error) {
	var st models.Settings
	err := s.DB.WithContext(ctx).First(&st, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		def := models.DefaultSettings(userID)
		return &def, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return &st, nil
}

// Update applies the non-nil fields of req and upserts the row.
func (s *SettingsService) Update(ctx context.Context, userID string, req *dtos.SettingsRequest) (*models.Settings, error) {
	st, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.EmailNotifications != nil {
		st.EmailNotifications = *req.EmailNotifications
	}
	if req.ShowMatchScore != nil {
		st.ShowMatchScore = *req.ShowMatchScore
	}
	if req.SlackWebhookURL != nil {
		hook := strings.TrimSpace(*req.SlackWebhookURL)
		if hook != "" && !isSlackWebhookURL(hook) {
			return nil, fmt.Errorf("%w: slack_webhook_url must be an https://hooks.slack.com/services/ URL", ErrInvalidInput)
		}
		st.SlackWebhookURL = hook
	}
	if req.PageTheme != nil {
		theme := strings.ToLower(strings.TrimSpace(*req.PageTheme))
		if !pageThemes[theme] {
			return nil, fmt.Errorf("%w: page_theme must be light or dark", ErrInvalidInput)
		}
		st.PageTheme = theme
	}

	err = s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"updated_at", "email_notifications", "slack_webhook_url", "page_theme", "show_match_score"}),
	}).Create(st).Error
	if err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}
	return st, nil
}
