package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/signalpage/signalpage/internal/logger"
	"github.com/signalpage/signalpage/internal/metrics"
	"github.com/signalpage/signalpage/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 100
	deliveryTimeout          = 30 * time.Second
)

// Delivery is one notification on its way out of the app.
type Delivery struct {
	Email           string
	SlackWebhookURL string
	Kind            string
	Title           string
	Body            string
	Link            string
}

// Channel sends deliveries to one destination type.
type Channel interface {
	Name() string
	// Accepts reports whether d has a destination for this channel.
	Accepts(d Delivery, st *models.Settings) bool
	Deliver(ctx context.Context, d Delivery) error
}

type NotificationService struct {
	DB       *gorm.DB
	Settings *SettingsService
	channels []Channel
	log      *zap.Logger

	wg sync.WaitGroup
}

func NewNotificationService(db *gorm.DB, settings *SettingsService, log *zap.Logger, channels ...Channel) *NotificationService {
	return &NotificationService{DB: db, Settings: settings, channels: channels, log: logger.OrNop(log)}
}

// Notify stores an in-app notification and hands it to the out-of-app
// channels in the background. Only the insert can fail the call.
func (s *NotificationService) Notify(ctx context.Context, userID, kind, title, body, link string) (*models.Notification, error) {
	n := &models.Notification{
		UserID: userID,
		Kind:   kind,
		Title:  title,
		Body:   body,
		Link:   link,
	}
	if err := s.DB.WithContext(ctx).Create(n).Error; err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	if len(s.channels) == 0 {
		return n, nil
	}

	st, err := s.Settings.Get(ctx, userID)
	if err != nil {
		s.log.Warn("notification settings unavailable", zap.String("user_id", userID), zap.Error(err))
		return n, nil
	}
	var profile models.Profile
	if err := s.DB.WithContext(ctx).Select("email").First(&profile, "id = ?", userID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Warn("notification profile unavailable", zap.String("user_id", userID), zap.Error(err))
	}

	d := Delivery{
		Email:           profile.Email,
		SlackWebhookURL: st.SlackWebhookURL,
		Kind:            kind,
		Title:           title,
		Body:            body,
		Link:            link,
	}
	for _, ch := range s.channels {
		if !ch.Accepts(d, st) {
			continue
		}
		s.wg.Add(1)
		go func(ch Channel) {
			defer s.wg.Done()
			dctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
			defer cancel()

			if err := ch.Deliver(dctx, d); err != nil {
				metrics.NotificationDeliveries.WithLabelValues(ch.Name(), "error").Inc()
				s.log.Warn("notification delivery failed",
					zap.String("channel", ch.Name()), zap.String("user_id", userID), zap.String("kind", kind), zap.Error(err))
				return
			}
			metrics.NotificationDeliveries.WithLabelValues(ch.Name(), "sent").Inc()
		}(ch)
	}
	return n, nil
}

// Wait blocks until background deliveries finish.
func (s *NotificationService) Wait() {
	s.wg.Wait()
}

// List returns the newest notifications first.
func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}

	q := s.DB.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	var out []models.Notification
	if err := q.Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return n, nil
}

// MarkRead is idempotent: an already-read notification keeps its first read time.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) (*models.Notification, error) {
	var n models.Notification
	err := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	if n.ReadAt != nil {
		return &n, nil
	}

	now := time.Now().UTC()
	if err := s.DB.WithContext(ctx).Model(&n).Update("read_at", now).Error; err != nil {
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	n.ReadAt = &now
	return &n, nil
}

// MarkAllRead returns how many notifications changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", time.Now().UTC())
	if res.Error != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *NotificationService) Delete(ctx context.Context, userID, id string) error {
	res := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Notification{})
	if res.Error != nil {
		return fmt.Errorf("delete notification: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
