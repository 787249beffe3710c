package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries the columns shared by every user-owned row.
type Base struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// Profile mirrors the auth backend user. ID is the token subject.
type Profile struct {
	Base

	Email            string `gorm:"index" json:"email"`
	FullName         string `json:"full_name"`
	Headline         string `json:"headline"`
	AvatarURL        string `json:"avatar_url"`
	StripeCustomerID string `gorm:"index" json:"-"`
}

type ExperienceItem struct {
	Company string `json:"company"`
	Title   string `json:"title"`
	Period  string `json:"period"`
	Summary string `json:"summary"`
}

type Resume struct {
	Base
	UserID string `gorm:"index;not null" json:"user_id"`

	FileName        string           `json:"file_name"`
	RawText         string           `gorm:"type:text" json:"-"`
	Summary         string           `gorm:"type:text" json:"summary"`
	Skills          []string         `gorm:"serializer:json;type:text" json:"skills"`
	Experience      []ExperienceItem `gorm:"serializer:json;type:text" json:"experience"`
	YearsExperience int              `json:"years_experience"`
}

// Job statuses. APPLIED is the default for new rows.
const (
	StatusApplied   = "APPLIED"
	StatusInterview = "INTERVIEW"
	StatusOffer     = "OFFER"
	StatusRejected  = "REJECTED"
	StatusWithdrawn = "WITHDRAWN"
)

var JobStatuses = []string{StatusApplied, StatusInterview, StatusOffer, StatusRejected, StatusWithdrawn}

type Job struct {
	Base
	UserID string `gorm:"index;not null" json:"user_id"`

	CompanyName     string   `gorm:"not null" json:"company_name"`
	Title           string   `gorm:"not null" json:"title"`
	Location        string   `json:"location"`
	Description     string   `gorm:"type:text" json:"description"`
	JobLink         string   `json:"job_link"`
	SalaryRange     string   `json:"salary_range"`
	RequiredSkills  []string `gorm:"serializer:json;type:text" json:"required_skills"`
	PreferredSkills []string `gorm:"serializer:json;type:text" json:"preferred_skills"`
	Status          string   `gorm:"default:'APPLIED'" json:"status"`
}

type SignalPage struct {
	Base
	UserID   string `gorm:"index;not null" json:"user_id"`
	ResumeID string `gorm:"index" json:"resume_id"`
	JobID    string `gorm:"index" json:"job_id"`

	Slug           string     `gorm:"uniqueIndex;not null" json:"slug"`
	Headline       string     `json:"headline"`
	Commentary     string     `gorm:"type:text" json:"commentary"`
	MatchScore     float64    `json:"match_score"`
	MatchingSkills []string   `gorm:"serializer:json;type:text" json:"matching_skills"`
	MissingSkills  []string   `gorm:"serializer:json;type:text" json:"missing_skills"`
	Published      bool       `json:"published"`
	PublishedAt    *time.Time `json:"published_at"`
	Views          int64      `json:"views"`
}

// Notification kinds.
const (
	KindPageGenerated         = "page_generated"
	KindPagePublished         = "page_published"
	KindSubscriptionActivated = "subscription_activated"
	KindSubscriptionCanceled  = "subscription_canceled"
	KindPaymentFailed         = "payment_failed"
)

type Notification struct {
	Base
	UserID string `gorm:"index;not null" json:"user_id"`

	Kind   string     `json:"kind"`
	Title  string     `json:"title"`
	Body   string     `gorm:"type:text" json:"body"`
	Link   string     `json:"link"`
	ReadAt *time.Time `json:"read_at"`
}

type Settings struct {
	UserID    string    `gorm:"primaryKey;type:varchar(36)" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// No column defaults here: a DB default on a bool would swallow false on insert.
	EmailNotifications bool   `json:"email_notifications"`
	SlackWebhookURL    string `json:"slack_webhook_url"`
	PageTheme          string `json:"page_theme"`
	ShowMatchScore     bool   `json:"show_match_score"`
}

// DefaultSettings is what a user sees before saving anything.
func DefaultSettings(userID string) Settings {
	return Settings{
		UserID:             userID,
		EmailNotifications: true,
		PageTheme:          "light",
		ShowMatchScore:     true,
	}
}

type Subscription struct {
	Base
	UserID string `gorm:"uniqueIndex;not null" json:"user_id"`

	StripeCustomerID     string     `gorm:"index" json:"-"`
	StripeSubscriptionID string     `gorm:"index" json:"-"`
	Status               string     `json:"status"`
	PriceID              string     `json:"price_id"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end"`
	CancelAtPeriodEnd    bool       `json:"cancel_at_period_end"`
}

// IsPro reports whether the subscription grants paid features.
func (s *Subscription) IsPro() bool {
	if s == nil {
		return false
	}
	return s.Status == "active" || s.Status == "trialing"
}

// ProcessedEvent records payment webhook events already applied.
type ProcessedEvent struct {
	ID        string `gorm:"primaryKey"`
	Type      string
	CreatedAt time.Time
}

// All lists every model for migrations.
func All() []interface{} {
	return []interface{}{
		&Profile{}, &Resume{}, &Job{}, &SignalPage{},
		&Notification{}, &Settings{}, &Subscription{}, &ProcessedEvent{},
	}
}
