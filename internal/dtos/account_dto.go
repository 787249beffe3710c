package dtos

import "time"

type ProfileUpdate struct {
	FullName  *string `json:"full_name"`
	Headline  *string `json:"headline"`
	AvatarURL *string `json:"avatar_url"`
}

type SettingsRequest struct {
	EmailNotifications *bool   `json:"email_notifications"`
	SlackWebhookURL    *string `json:"slack_webhook_url"`
	PageTheme          *string `json:"page_theme"`
	ShowMatchScore     *bool   `json:"show_match_score"`
}

type SubscriptionStatus struct {
	Plan              string     `json:"plan"`
	Status            string     `json:"status"`
	CurrentPeriodEnd  *time.Time `json:"current_period_end"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end"`
	PagesUsed         int64      `json:"pages_used"`
	// PageLimit is nil for unlimited plans.
	PageLimit *int `json:"page_limit"`
}

type RedirectResponse struct {
	URL string `json:"url"`
}
