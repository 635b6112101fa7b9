// Package alerting posts high-usage alerts to a configured webhook in the
// payload format the endpoint expects (Slack, Discord, or a generic JSON
// body).
package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

// AlertConfig holds alerting configuration.
type AlertConfig struct {
	// WebhookURL is a generic webhook endpoint (Slack, Discord, or custom)
	WebhookURL string
	// WebhookType determines the payload format: "slack", "discord", or "generic"
	WebhookType string
	// Enabled controls whether alerts are sent
	Enabled bool
	// Timeout for HTTP requests
	Timeout time.Duration
}

// DefaultAlertConfig returns config from environment variables.
func DefaultAlertConfig() AlertConfig {
	cfg := AlertConfig{
		WebhookURL:  os.Getenv("POWERTRACKER_ALERT_WEBHOOK_URL"),
		WebhookType: os.Getenv("POWERTRACKER_ALERT_WEBHOOK_TYPE"),
		Timeout:     10 * time.Second,
	}

	cfg.Enabled = cfg.WebhookURL != ""

	if cfg.WebhookType == "" {
		// Auto-detect from URL
		if strings.Contains(cfg.WebhookURL, "slack.com") {
			cfg.WebhookType = "slack"
		} else if strings.Contains(cfg.WebhookURL, "discord.com") {
			cfg.WebhookType = "discord"
		} else {
			cfg.WebhookType = "generic"
		}
	}

	return cfg
}

// Alerter sends alerts to configured webhooks.
type Alerter struct {
	cfg    AlertConfig
	client *http.Client
}

// NewAlerter creates a new alerter instance.
func NewAlerter(cfg AlertConfig) *Alerter {
	return &Alerter{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// UsageAlert describes a consumption level that crossed the configured
// threshold.
type UsageAlert struct {
	Usage          float64
	Threshold      float64
	ProjectedUsage float64
	EstimatedBill  float64
	Trend          string
	Timestamp      time.Time
}

// SendUsageAlert posts one high-usage alert to the configured webhook.
func (a *Alerter) SendUsageAlert(ctx context.Context, alert UsageAlert) error {
	if !a.cfg.Enabled {
		log.Printf("alerting: alerts disabled, skipping")
		return nil
	}

	var payload []byte
	var err error

	switch a.cfg.WebhookType {
	case "slack":
		payload, err = a.buildSlackPayload(alert)
	case "discord":
		payload, err = a.buildDiscordPayload(alert)
	default:
		payload, err = a.buildGenericPayload(alert)
	}

	if err != nil {
		return fmt.Errorf("build payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	log.Printf("alerting: sent high-usage alert (%.0f units, threshold %.0f)", alert.Usage, alert.Threshold)
	return nil
}

func (a *Alerter) buildSlackPayload(alert UsageAlert) ([]byte, error) {
	emoji := ":warning:"
	if alert.Usage >= 2*alert.Threshold {
		emoji = ":x:"
	}

	payload := map[string]interface{}{
		"blocks": []map[string]interface{}{
			{
				"type": "header",
				"text": map[string]string{
					"type": "plain_text",
					"text": fmt.Sprintf("%s High Electricity Usage", emoji),
				},
			},
			{
				"type": "section",
				"fields": []map[string]string{
					{"type": "mrkdwn", "text": fmt.Sprintf("*Usage:*\n%.0f units (threshold %.0f)", alert.Usage, alert.Threshold)},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Next month projection:*\n%.0f units", alert.ProjectedUsage)},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Estimated bill:*\n%.2f", alert.EstimatedBill)},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Trend:*\n%s", alert.Trend)},
				},
			},
			{
				"type": "context",
				"elements": []map[string]string{
					{"type": "mrkdwn", "text": alert.Timestamp.Format(time.RFC3339)},
				},
			},
		},
	}

	return json.Marshal(payload)
}

func (a *Alerter) buildDiscordPayload(alert UsageAlert) ([]byte, error) {
	color := 16776960 // Yellow
	if alert.Usage >= 2*alert.Threshold {
		color = 16711680 // Red
	}

	payload := map[string]interface{}{
		"embeds": []map[string]interface{}{
			{
				"title":       "High Electricity Usage",
				"description": fmt.Sprintf("%.0f units consumed, above the %.0f unit threshold", alert.Usage, alert.Threshold),
				"color":       color,
				"fields": []map[string]interface{}{
					{"name": "Next month projection", "value": fmt.Sprintf("%.0f units", alert.ProjectedUsage), "inline": true},
					{"name": "Estimated bill", "value": fmt.Sprintf("%.2f", alert.EstimatedBill), "inline": true},
					{"name": "Trend", "value": alert.Trend, "inline": true},
				},
				"timestamp": alert.Timestamp.Format(time.RFC3339),
			},
		},
	}

	return json.Marshal(payload)
}

func (a *Alerter) buildGenericPayload(alert UsageAlert) ([]byte, error) {
	payload := map[string]interface{}{
		"alert_type":      "high_usage",
		"usage":           alert.Usage,
		"threshold":       alert.Threshold,
		"projected_usage": alert.ProjectedUsage,
		"estimated_bill":  alert.EstimatedBill,
		"trend":           alert.Trend,
		"timestamp":       alert.Timestamp.Format(time.RFC3339),
	}

	return json.Marshal(payload)
}
