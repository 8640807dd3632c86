package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DiscordConfig holds Discord webhook configuration.
type DiscordConfig struct {
	Enabled    bool
	WebhookURL string
}

// DiscordNotifier sends signals to a Discord channel via webhook embed.
type DiscordNotifier struct {
	webhookURL string
	enabled    bool
	client     *http.Client
}

// NewDiscordNotifier creates a Discord notifier.
func NewDiscordNotifier(cfg DiscordConfig) *DiscordNotifier {
	return &DiscordNotifier{
		webhookURL: cfg.WebhookURL,
		enabled:    cfg.Enabled && cfg.WebhookURL != "",
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (d *DiscordNotifier) Name() string {
	return "discord"
}

func (d *DiscordNotifier) IsEnabled() bool {
	return d.enabled
}

func (d *DiscordNotifier) Send(signal *Signal) error {
	fields := []map[string]interface{}{
		{"name": "Market", "value": signal.Symbol, "inline": true},
		{"name": "Detector", "value": signal.Detector, "inline": true},
	}
	for key, value := range signal.Metadata {
		fields = append(fields, map[string]interface{}{
			"name": key, "value": fmt.Sprintf("%.6f", value), "inline": true,
		})
	}

	embed := map[string]interface{}{
		"title":       fmt.Sprintf("Buy signal: %s", signal.Symbol),
		"description": signal.Reason,
		"color":       0x00FF00,
		"timestamp":   signal.Timestamp.Format(time.RFC3339),
		"fields":      fields,
	}
	if signal.ActionURL != "" {
		embed["url"] = signal.ActionURL
	}

	payload := map[string]interface{}{
		"embeds": []map[string]interface{}{embed},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal discord payload: %w", err)
	}

	resp, err := d.client.Post(d.webhookURL, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send discord message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("discord API returned status %d", resp.StatusCode)
	}
	return nil
}
