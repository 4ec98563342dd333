package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/kevinfinalboss/galleon/internal/logger"
	"github.com/kevinfinalboss/galleon/pkg/types"
)

const (
	defaultAttempts = 3
	defaultDelay    = 500 * time.Millisecond
	footerText      = "Galleon Gallery Copier"
	maxListedItems  = 3
)

const (
	colorStarted  = 0x0b5cab
	colorPlan     = 0xffaa00
	colorSuccess  = 0x28a745
	colorFailures = 0xff6600
	colorError    = 0xff0000
)

type DiscordWebhook struct {
	url      string
	name     string
	avatar   string
	logger   *logger.Logger
	client   *http.Client
	attempts uint
	delay    time.Duration
	now      func() time.Time
}

type DiscordMessage struct {
	Username  string         `json:"username,omitempty"`
	AvatarURL string         `json:"avatar_url,omitempty"`
	Content   string         `json:"content,omitempty"`
	Embeds    []DiscordEmbed `json:"embeds,omitempty"`
}

type DiscordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Fields      []DiscordEmbedField `json:"fields,omitempty"`
	Footer      *DiscordEmbedFooter `json:"footer,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
}

type DiscordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type DiscordEmbedFooter struct {
	Text    string `json:"text"`
	IconURL string `json:"icon_url,omitempty"`
}

type Option func(*DiscordWebhook)

// WithRetry overrides how often and how far apart a delivery is attempted.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(d *DiscordWebhook) {
		d.attempts = attempts
		d.delay = delay
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(d *DiscordWebhook) {
		d.client = client
	}
}

func NewDiscordWebhook(config types.DiscordWebhookConfig, logger *logger.Logger, opts ...Option) *DiscordWebhook {
	name := config.Name
	if name == "" {
		name = "Galleon"
	}

	d := &DiscordWebhook{
		url:      config.URL,
		name:     name,
		avatar:   config.Avatar,
		logger:   logger,
		client:   &http.Client{Timeout: 10 * time.Second},
		attempts: defaultAttempts,
		delay:    defaultDelay,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *DiscordWebhook) SendCopyStart(ctx context.Context, source, target types.GalleryContext, dryRun bool) error {
	title := "🚀 Copy started"
	color := colorStarted
	if dryRun {
		title = "🧪 Copy plan started"
		color = colorPlan
	}

	embed := d.embed(title, "Copying image definitions and versions between galleries", color, []DiscordEmbedField{
		{Name: "Source", Value: "`" + source.String() + "`"},
		{Name: "Target", Value: "`" + target.String() + "`"},
		{Name: "Mode", Value: getModeText(dryRun), Inline: true},
	})
	return d.send(ctx, d.message(embed))
}

func (d *DiscordWebhook) SendCopyComplete(ctx context.Context, summary *types.CopySummary) error {
	title := "✅ Copy completed"
	color := colorSuccess
	if summary.IsDryRun {
		title = "✅ Copy plan completed"
	}
	if summary.FailedOperations > 0 {
		title = "⚠️ Copy completed with failures"
		color = colorFailures
	}

	description := fmt.Sprintf("%s -> %s in %s", summary.Source, summary.Target,
		summary.Duration().Round(time.Second))

	fields := []DiscordEmbedField{
		{
			Name: "📊 Results",
			Value: fmt.Sprintf("**Definitions created:** %d\n**Versions created:** %d\n**Versions skipped:** %d\n**Failed:** %d",
				summary.CreatedImageDefinitions, summary.CreatedImageVersions,
				summary.SkippedImageVersions, summary.FailedOperations),
			Inline: true,
		},
		{Name: "Mode", Value: getModeText(summary.IsDryRun), Inline: true},
	}

	if failures := failureExamples(summary.OperationsWith(types.ResultFailed), maxListedItems); failures != "" {
		fields = append(fields, DiscordEmbedField{
			Name:  "❌ Failures",
			Value: "```\n" + failures + "\n```",
		})
	}

	return d.send(ctx, d.message(d.embed(title, description, color, fields)))
}

func (d *DiscordWebhook) SendError(ctx context.Context, errorMsg string, operation string) error {
	embed := d.embed("❌ Copy error", fmt.Sprintf("Failed during: %s", operation), colorError, []DiscordEmbedField{
		{Name: "Error", Value: "```\n" + truncateString(errorMsg, 1000) + "\n```"},
	})
	return d.send(ctx, d.message(embed))
}

func (d *DiscordWebhook) embed(title, description string, color int, fields []DiscordEmbedField) DiscordEmbed {
	return DiscordEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Fields:      fields,
		Footer:      &DiscordEmbedFooter{Text: footerText},
		Timestamp:   d.now().Format(time.RFC3339),
	}
}

func (d *DiscordWebhook) message(embed DiscordEmbed) DiscordMessage {
	return DiscordMessage{
		Username:  d.name,
		AvatarURL: d.avatar,
		Embeds:    []DiscordEmbed{embed},
	}
}

// send posts the message, retrying transport errors, 429 and 5xx responses.
// Other 4xx responses fail immediately.
func (d *DiscordWebhook) send(ctx context.Context, message DiscordMessage) error {
	jsonData, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to encode Discord message: %w", err)
	}

	attempt := 0
	err = retry.Do(func() error {
		attempt++
		return d.post(ctx, jsonData)
	},
		retry.Context(ctx),
		retry.Attempts(d.attempts),
		retry.Delay(d.delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			d.logger.Debug("webhook_retry").
				Uint("attempt", n+1).
				Err(err).
				Send()
		}),
	)
	if err != nil {
		return err
	}

	d.logger.Debug("webhook_sent").
		Int("attempts", attempt).
		Send()
	return nil
}

func (d *DiscordWebhook) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return retry.Unrecoverable(fmt.Errorf("failed to create Discord request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send Discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	statusErr := fmt.Errorf("discord returned status %d", resp.StatusCode)
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return statusErr
	}
	return retry.Unrecoverable(statusErr)
}

func failureExamples(failed []types.CopyOperation, limit int) string {
	if len(failed) == 0 {
		return ""
	}

	var examples []string
	for i, op := range failed {
		if i == limit {
			break
		}
		examples = append(examples, fmt.Sprintf("%s: %s",
			truncateString(op.Target(), 40),
			truncateString(op.ErrorMessage, 60)))
	}

	result := strings.Join(examples, "\n")
	if len(failed) > limit {
		result += fmt.Sprintf("\n... and %d more", len(failed)-limit)
	}
	return result
}

func getModeText(dryRun bool) string {
	if dryRun {
		return "🧪 Plan (dry run)"
	}
	return "🚀 Live"
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
