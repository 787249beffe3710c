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
	"github.com/signalpage/signalpage/internal/models"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	PlanFree = "free"
	PlanPro  = "pro"
)

type BillingService struct {
	DB            *gorm.DB
	Gateway       PaymentGateway
	Profiles      *ProfileService
	Notifications *NotificationService
	PriceID       string
	BaseURL       string
	FreePageLimit int
	log           *zap.Logger
}

type BillingConfig struct {
	PriceID       string
	BaseURL       string
	FreePageLimit int
}

// NewBillingService wires billing. gateway may be nil when payments are not
// configured; checkout, portal and webhooks then report ErrUnavailable.
func NewBillingService(db *gorm.DB, gateway PaymentGateway, profiles *ProfileService, notifications *NotificationService, cfg BillingConfig, log *zap.Logger) *BillingService {
	return &BillingService{
		DB:            db,
		Gateway:       gateway,
		Profiles:      profiles,
		Notifications: notifications,
		PriceID:       cfg.PriceID,
		BaseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		FreePageLimit: cfg.FreePageLimit,
		log:           logger.OrNop(log),
	}
}

// Subscription returns the user's subscription row, or nil when there is none.
func (s *BillingService) Subscription(ctx context.Context, userID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.DB.WithContext(ctx).First(&sub, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load subscription: %w", err)
	}
	return &sub, nil
}

// PageLimit implements PlanChecker.
func (s *BillingService) PageLimit(ctx context.Context, userID string) (int, bool, error) {
	sub, err := s.Subscription(ctx, userID)
	if err != nil {
		return 0, false, err
	}
	if sub.IsPro() {
		return 0, true, nil
	}
	return s.FreePageLimit, false, nil
}

func (s *BillingService) Status(ctx context.Context, userID string) (*dtos.SubscriptionStatus, error) {
	sub, err := s.Subscription(ctx, userID)
	if err != nil {
		return nil, err
	}

	var used int64
	if err := s.DB.WithContext(ctx).Model(&models.SignalPage{}).Where("user_id = ?", userID).Count(&used).Error; err != nil {
		return nil, fmt.Errorf("count signal pages: %w", err)
	}

	out := &dtos.SubscriptionStatus{Plan: PlanFree, Status: "none", PagesUsed: used}
	if sub != nil {
		if sub.Status != "" {
			out.Status = sub.Status
		}
		out.CurrentPeriodEnd = sub.CurrentPeriodEnd
		out.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	}
	if sub.IsPro() {
		out.Plan = PlanPro
	} else {
		limit := s.FreePageLimit
		out.PageLimit = &limit
	}
	return out, nil
}

// Checkout returns a hosted checkout URL for the pro plan.
func (s *BillingService) Checkout(ctx context.Context, userID, email string) (string, error) {
	if s.Gateway == nil || s.PriceID == "" {
		return "", fmt.Errorf("%w: billing is not configured", ErrUnavailable)
	}
	sub, err := s.Subscription(ctx, userID)
	if err != nil {
		return "", err
	}
	if sub.IsPro() {
		return "", fmt.Errorf("%w: already subscribed", ErrConflict)
	}

	customerID, err := s.ensureCustomer(ctx, userID, email)
	if err != nil {
		return "", err
	}

	url, err := s.Gateway.CreateCheckoutSession(ctx, CheckoutParams{
		CustomerID: customerID,
		UserID:     userID,
		PriceID:    s.PriceID,
		SuccessURL: s.BaseURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.BaseURL + "/billing/cancel",
	})
	if err != nil {
		return "", err
	}
	return url, nil
}

// Portal returns the self-service billing portal URL.
func (s *BillingService) Portal(ctx context.Context, userID string) (string, error) {
	if s.Gateway == nil {
		return "", fmt.Errorf("%w: billing is not configured", ErrUnavailable)
	}
	profile, err := s.Profiles.Get(ctx, userID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return "", err
	}
	if profile == nil || profile.StripeCustomerID == "" {
		return "", fmt.Errorf("%w: no billing account yet", ErrInvalidInput)
	}
	return s.Gateway.CreatePortalSession(ctx, profile.StripeCustomerID, s.BaseURL+"/settings/billing")
}

func (s *BillingService) ensureCustomer(ctx context.Context, userID, email string) (string, error) {
	profile, err := s.Profiles.Ensure(ctx, userID, email)
	if err != nil {
		return "", err
	}
	if profile.StripeCustomerID != "" {
		return profile.StripeCustomerID, nil
	}

	customerID, err := s.Gateway.CreateCustomer(ctx, profile.Email, userID)
	if err != nil {
		return "", err
	}
	if err := s.DB.WithContext(ctx).Model(profile).Update("stripe_customer_id", customerID).Error; err != nil {
		return "", fmt.Errorf("save customer id: %w", err)
	}
	return customerID, nil
}

// HandleWebhook verifies and applies a payment webhook.
func (s *BillingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.Gateway == nil {
		return fmt.Errorf("%w: billing is not configured", ErrUnavailable)
	}
	event, err := s.Gateway.ParseWebhook(payload, signature)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("unknown", "invalid").Inc()
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.ApplyEvent(ctx, event)
}

type planChange struct {
	userID string
	from   string
	to     string
}

// ApplyEvent reconciles local subscription state with one processor event.
// Each event id is applied at most once.
func (s *BillingService) ApplyEvent(ctx context.Context, event stripe.Event) error {
	eventType := string(event.Type)
	var change *planChange
	duplicate := false

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.ProcessedEvent{ID: event.ID, Type: eventType})
		if res.Error != nil {
			return fmt.Errorf("record event: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			duplicate = true
			return nil
		}

		var err error
		switch eventType {
		case "checkout.session.completed":
			change, err = s.applyCheckout(tx, event)
		case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
			change, err = s.applySubscription(tx, event)
		}
		return err
	})
	if err != nil {
		metrics.WebhookEvents.WithLabelValues(eventType, "error").Inc()
		return err
	}
	if duplicate {
		metrics.WebhookEvents.WithLabelValues(eventType, "duplicate").Inc()
		return nil
	}
	metrics.WebhookEvents.WithLabelValues(eventType, "applied").Inc()

	if change != nil {
		s.notifyPlanChange(ctx, change)
	}
	return nil
}

func (s *BillingService) applyCheckout(tx *gorm.DB, event stripe.Event) (*planChange, error) {
	var cs stripe.CheckoutSession
	if err := decodeEventObject(event, &cs); err != nil {
		return nil, err
	}
	userID := cs.ClientReferenceID
	if userID == "" {
		s.log.Warn("checkout session without client reference", zap.String("session", cs.ID))
		return nil, nil
	}

	sub, err := loadSubscription(tx, userID)
	if err != nil {
		return nil, err
	}
	before := sub.Status

	if cs.Customer != nil && cs.Customer.ID != "" {
		sub.StripeCustomerID = cs.Customer.ID
		if err := tx.Model(&models.Profile{}).Where("id = ?", userID).
			Update("stripe_customer_id", cs.Customer.ID).Error; err != nil {
			return nil, fmt.Errorf("link customer: %w", err)
		}
	}
	if cs.Subscription != nil && cs.Subscription.ID != "" {
		sub.StripeSubscriptionID = cs.Subscription.ID
	}
	// Subscription events carry the authoritative status; this only covers
	// the gap when checkout completes first.
	if sub.Status == "" || sub.Status == string(stripe.SubscriptionStatusIncomplete) {
		sub.Status = string(stripe.SubscriptionStatusActive)
	}
	if sub.PriceID == "" {
		sub.PriceID = s.PriceID
	}

	if err := tx.Save(sub).Error; err != nil {
		return nil, fmt.Errorf("save subscription: %w", err)
	}
	return &planChange{userID: userID, from: before, to: sub.Status}, nil
}

func (s *BillingService) applySubscription(tx *gorm.DB, event stripe.Event) (*planChange, error) {
	var ps stripe.Subscription
	if err := decodeEventObject(event, &ps); err != nil {
		return nil, err
	}

	customerID := ""
	if ps.Customer != nil {
		customerID = ps.Customer.ID
	}
	userID, err := s.resolveUser(tx, ps.ID, customerID, ps.Metadata["user_id"])
	if err != nil {
		return nil, err
	}
	if userID == "" {
		s.log.Warn("subscription event for unknown customer",
			zap.String("subscription", ps.ID), zap.String("customer", customerID))
		return nil, nil
	}

	sub, err := loadSubscription(tx, userID)
	if err != nil {
		return nil, err
	}
	before := sub.Status

	status := string(ps.Status)
	if string(event.Type) == "customer.subscription.deleted" {
		status = string(stripe.SubscriptionStatusCanceled)
	}
	sub.Status = status
	sub.StripeSubscriptionID = ps.ID
	if customerID != "" {
		sub.StripeCustomerID = customerID
	}
	sub.CancelAtPeriodEnd = ps.CancelAtPeriodEnd
	if ps.CurrentPeriodEnd > 0 {
		end := time.Unix(ps.CurrentPeriodEnd, 0).UTC()
		sub.CurrentPeriodEnd = &end
	}
	if ps.Items != nil {
		for _, item := range ps.Items.Data {
			if item != nil && item.Price != nil && item.Price.ID != "" {
				sub.PriceID = item.Price.ID
				break
			}
		}
	}

	if err := tx.Save(sub).Error; err != nil {
		return nil, fmt.Errorf("save subscription: %w", err)
	}
	return &planChange{userID: userID, from: before, to: sub.Status}, nil
}

// resolveUser maps a processor subscription to a local user: by subscription
// id, then customer id, then the user id stamped in metadata at checkout.
func (s *BillingService) resolveUser(tx *gorm.DB, subscriptionID, customerID, metadataUser string) (string, error) {
	var sub models.Subscription
	if subscriptionID != "" {
		err := tx.Where("stripe_subscription_id = ?", subscriptionID).First(&sub).Error
		if err == nil {
			return sub.UserID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("lookup subscription: %w", err)
		}
	}
	if customerID != "" {
		var profile models.Profile
		err := tx.Where("stripe_customer_id = ?", customerID).First(&profile).Error
		if err == nil {
			return profile.ID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("lookup customer: %w", err)
		}
	}
	return metadataUser, nil
}

func decodeEventObject(event stripe.Event, dst interface{}) error {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return fmt.Errorf("%w: event %s has no data", ErrInvalidInput, event.ID)
	}
	if err := json.Unmarshal(event.Data.Raw, dst); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrInvalidInput, event.Type, err)
	}
	return nil
}

func loadSubscription(tx *gorm.DB, userID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := tx.Where("user_id = ?", userID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.Subscription{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load subscription: %w", err)
	}
	return &sub, nil
}

func (s *BillingService) notifyPlanChange(ctx context.Context, c *planChange) {
	if s.Notifications == nil || c.from == c.to {
		return
	}

	wasPro := (&models.Subscription{Status: c.from}).IsPro()
	isPro := (&models.Subscription{Status: c.to}).IsPro()
	link := s.BaseURL + "/settings/billing"

	var kind, title, body string
	switch {
	case c.to == string(stripe.SubscriptionStatusPastDue):
		kind, title, body = models.KindPaymentFailed, "Payment failed",
			"We could not charge your card. Update your payment method to keep SignalPage Pro."
	case !wasPro && isPro:
		kind, title, body = models.KindSubscriptionActivated, "Welcome to SignalPage Pro",
			"Your subscription is active. You can now generate unlimited signal pages."
	case wasPro && !isPro:
		kind, title, body = models.KindSubscriptionCanceled, "Your subscription ended",
			fmt.Sprintf("You are back on the free plan, which includes %d signal pages.", s.FreePageLimit)
	default:
		return
	}

	if _, err := s.Notifications.Notify(ctx, c.userID, kind, title, body, link); err != nil {
		s.log.Warn("plan change notification failed", zap.String("user_id", c.userID), zap.Error(err))
	}
}
