package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bindery/internal/config"
)

const userAgent = "bindery/0.1.0"

// Service defines the push notification surface.
type Service interface {
	NotifyUpdatesAvailable(ctx context.Context, names []string) error
	NotifyBatchCompleted(ctx context.Context, mode string, done, failed int, duration time.Duration) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:    topic,
		client:      &http.Client{Timeout: timeout},
		sendUpdates: cfg.Notifications.Updates,
		sendBatches: cfg.Notifications.Batches,
		sendErrors:  cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	sendUpdates bool
	sendBatches bool
	sendErrors  bool
}

func (n *ntfyService) NotifyUpdatesAvailable(ctx context.Context, names []string) error {
	if !n.sendUpdates || len(names) == 0 {
		return nil
	}
	data := payload{
		title:   "Bindery - Updates Available",
		message: fmt.Sprintf("%d tool(s) have updates: %s", len(names), strings.Join(names, ", ")),
		tags:    []string{"bindery", "updates", "found"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBatchCompleted(ctx context.Context, mode string, done, failed int, duration time.Duration) error {
	if !n.sendBatches {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	var title, message string
	if failed == 0 {
		title = "Bindery - Batch Complete"
		message = fmt.Sprintf("%s batch complete: %d tool(s) in %s", mode, done, duration)
	} else {
		title = "Bindery - Batch Complete (with errors)"
		message = fmt.Sprintf("%s batch complete: %d succeeded, %d failed in %s", mode, done, failed, duration)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"bindery", "batch", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.sendErrors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Bindery - Error",
		message:  builder.String(),
		tags:     []string{"bindery", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Bindery - Test",
		message:  "Notification system test",
		tags:     []string{"bindery", "test"},
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

func (noopService) NotifyUpdatesAvailable(context.Context, []string) error { return nil }

func (noopService) NotifyBatchCompleted(context.Context, string, int, int, time.Duration) error {
	return nil
}

func (noopService) NotifyError(context.Context, error, string) error { return nil }

func (noopService) TestNotification(context.Context) error { return nil }
