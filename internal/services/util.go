package services

import (
	"net/url"
	"strings"
)

// isHTTPURL reports whether raw is an absolute http(s) URL with a host.
// httpsOnly rejects plain http.
func isHTTPURL(raw string, httpsOnly bool) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		return true
	case "http":
		return !httpsOnly
	default:
		return false
	}
}

const slackWebhookHost = "hooks.slack.com"

// isSlackWebhookURL accepts only Slack incoming webhook URLs, so user input
// never points server-side requests at other hosts.
func isSlackWebhookURL(raw string) bool {
	if !isHTTPURL(raw, true) {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil || u.User != nil || u.Port() != "" {
		return false
	}
	return strings.EqualFold(u.Hostname(), slackWebhookHost) && strings.HasPrefix(u.Path, "/services/")
}
