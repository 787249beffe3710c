package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/signalpage/signalpage/internal/models"
)

// SlackChannel posts notifications to the user's Slack incoming webhook.
type SlackChannel struct {
	client *retryablehttp.Client
	// host is the only webhook host deliveries may target.
	host string
}

func NewSlackChannel() *SlackChannel {
	c := retryablehttp.NewClient()
	c.RetryMax = 3
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 5 * time.Second
	c.HTTPClient.Timeout = 10 * time.Second
	c.HTTPClient.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	c.Logger = nil
	return &SlackChannel{client: c, host: slackWebhookHost}
}

func (s *SlackChannel) Name() string { return "slack" }

func (s *SlackChannel) Accepts(d Delivery, st *models.Settings) bool {
	return d.SlackWebhookURL != "" && s.allowed(d.SlackWebhookURL)
}

func (s *SlackChannel) allowed(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && strings.EqualFold(u.Hostname(), s.host)
}

type slackPayload struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string         `json:"type"`
	Text     *slackText     `json:"text,omitempty"`
	Elements []slackElement `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type string    `json:"type"`
	Text slackText `json:"text"`
	URL  string    `json:"url"`
}

func buildSlackPayload(d Delivery) slackPayload {
	blocks := []slackBlock{
		{Type: "header", Text: &slackText{Type: "plain_text", Text: d.Title}},
		{Type: "section", Text: &slackText{Type: "mrkdwn", Text: d.Body}},
	}
	if d.Link != "" {
		blocks = append(blocks, slackBlock{
			Type: "actions",
			Elements: []slackElement{{
				Type: "button",
				Text: slackText{Type: "plain_text", Text: "Open"},
				URL:  d.Link,
			}},
		})
	}
	return slackPayload{Text: d.Title, Blocks: blocks}
}

func (s *SlackChannel) Deliver(ctx context.Context, d Delivery) error {
	if !s.allowed(d.SlackWebhookURL) {
		return fmt.Errorf("slack webhook host not allowed: %q", d.SlackWebhookURL)
	}
	body, err := json.Marshal(buildSlackPayload(d))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, d.SlackWebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned %d", resp.StatusCode)
	}
	return nil
}
