package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"stemsplit/internal/config"
)

const userAgent = "stemsplit/0.1"

// BatchSummary is the subset of run counters worth a notification.
type BatchSummary struct {
	SongsDir  string
	Separated int
	Skipped   int
	Failed    int
	Duration  time.Duration
}

// Service defines the notification surface used by the CLI.
type Service interface {
	NotifyBatchCompleted(ctx context.Context, summary BatchSummary) error
	NotifyBatchFailed(ctx context.Context, songsDir string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
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
}

func (n *ntfyService) NotifyBatchCompleted(ctx context.Context, summary BatchSummary) error {
	var builder strings.Builder
	fmt.Fprintf(&builder, "🎤 Separated %d %s", summary.Separated, plural(summary.Separated, "song", "songs"))
	if dir := strings.TrimSpace(summary.SongsDir); dir != "" {
		fmt.Fprintf(&builder, " in %s", filepath.Base(dir))
	}
	if summary.Skipped > 0 {
		fmt.Fprintf(&builder, "\nSkipped: %d", summary.Skipped)
	}
	if summary.Failed > 0 {
		fmt.Fprintf(&builder, "\nFailed: %d", summary.Failed)
	}
	if summary.Duration > 0 {
		fmt.Fprintf(&builder, "\nTook: %s", summary.Duration.Round(time.Second))
	}

	data := payload{
		title:   "stemsplit - Batch Complete",
		message: builder.String(),
		tags:    []string{"stemsplit", "batch", "completed"},
	}
	if summary.Failed > 0 {
		data.tags = append(data.tags, "warning")
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBatchFailed(ctx context.Context, songsDir string, err error) error {
	var builder strings.Builder
	builder.WriteString("❌ Batch aborted")
	if dir := strings.TrimSpace(songsDir); dir != "" {
		builder.WriteString(" in ")
		builder.WriteString(filepath.Base(dir))
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(firstLine(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "stemsplit - Error",
		message:  builder.String(),
		tags:     []string{"stemsplit", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "stemsplit - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"stemsplit", "test"},
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

// firstLine drops the separator output tail that engine errors carry.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

type noopService struct{}

func (noopService) NotifyBatchCompleted(context.Context, BatchSummary) error { return nil }
func (noopService) NotifyBatchFailed(context.Context, string, error) error   { return nil }
func (noopService) TestNotification(context.Context) error                   { return nil }
