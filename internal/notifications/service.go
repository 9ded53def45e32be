package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"standwatch/internal/config"
)

const userAgent = "standwatch/0.1.0"

// Service defines the alert surface exposed to the notification gate.
type Service interface {
	NotifyTurnApproaching(ctx context.Context, standName string, peopleAhead int) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Alert.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Alert.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		titler:   cases.Title(language.Und),
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	titler   cases.Caser
}

func (n *ntfyService) NotifyTurnApproaching(ctx context.Context, standName string, peopleAhead int) error {
	standName = strings.TrimSpace(standName)
	if standName == "" {
		standName = "your stand"
	} else {
		standName = n.titler.String(standName)
	}
	message := fmt.Sprintf("Your turn at %s is next: %d person ahead of you. Head over now.", standName, peopleAhead)
	data := payload{
		title:   "Standwatch - You're Next",
		message: message,
		tags:    []string{"standwatch", "queue", "turn"},
		// High priority makes supporting clients vibrate and keep the
		// alert on screen until dismissed.
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Standwatch - Test",
		message:  "Notification delivery test",
		tags:     []string{"standwatch", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyTurnApproaching(context.Context, string, int) error { return nil }
func (noopService) TestNotification(context.Context) error                   { return nil }
