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

type ProfileService struct {
	DB *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{DB: db}
}

// Ensure returns the caller's profile, creating it from token claims on first use.
func (s *ProfileService) Ensure(ctx context.Context, userID, email string) (*models.Profile, error) {
	db := s.DB.WithContext(ctx)
	var p models.Profile
	err := db.First(&p, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// A concurrent first request may insert the same subject.
		err = db.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Profile{Base: models.Base{ID: userID}, Email: email}).Error
		if err != nil {
			return nil, fmt.Errorf("create profile: %w", err)
		}
		err = db.First(&p, "id = ?", userID).Error
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if email != "" && p.Email != email {
		p.Email = email
		if err := s.DB.WithContext(ctx).Model(&p).Update("email", email).Error; err != nil {
			return nil, fmt.Errorf("update profile email: %w", err)
		}
	}
	return &p, nil
}

// Get returns the profile or ErrNotFound.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	err := s.DB.WithContext(ctx).First(&p, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return &p, nil
}

func (s *ProfileService) Update(ctx context.Context, userID, email string, req *dtos.ProfileUpdate) (*models.Profile, error) {
	p, err := s.Ensure(ctx, userID, email)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*req.FullName)
	}
	if req.Headline != nil {
		updates["headline"] = strings.TrimSpace(*req.Headline)
	}
	if req.AvatarURL != nil {
		avatar := strings.TrimSpace(*req.AvatarURL)
		if avatar != "" && !isHTTPURL(avatar, false) {
			return nil, fmt.Errorf("%w: avatar_url must be an http(s) URL", ErrInvalidInput)
		}
		updates["avatar_url"] = avatar
	}
	if len(updates) == 0 {
		return p, nil
	}
	if err := s.DB.WithContext(ctx).Model(p).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.Get(ctx, userID)
}
