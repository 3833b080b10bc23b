package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"hourly-profiles/internal/profiles/application"
)

// WebhookNotifier posts run announcements to a chat-style webhook.
// It also implements application.ResultSink.
type WebhookNotifier struct {
	url       string
	reportURL string
	client    *http.Client
}

type webhookPayload struct {
	MsgType string      `json:"msgtype"`
	Text    webhookText `json:"text"`
	Run     RunMessage  `json:"run"`
}

type webhookText struct {
	Content string `json:"content"`
}

// WebhookOption configures the notifier.
type WebhookOption func(*WebhookNotifier)

// WithHTTPClient overrides the default client.
func WithHTTPClient(client *http.Client) WebhookOption {
	return func(n *WebhookNotifier) {
		if client != nil {
			n.client = client
		}
	}
}

// WithReportURL adds a report link to every message.
func WithReportURL(url string) WebhookOption {
	return func(n *WebhookNotifier) {
		n.reportURL = url
	}
}

// NewWebhookNotifier constructs a notifier.
func NewWebhookNotifier(url string, opts ...WebhookOption) *WebhookNotifier {
	n := &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Name implements application.ResultSink.
func (n *WebhookNotifier) Name() string { return "webhook" }

// Write implements application.ResultSink.
func (n *WebhookNotifier) Write(ctx context.Context, result *application.Result) error {
	if result == nil {
		return errors.New("webhook notifier: nil result")
	}
	return n.Notify(ctx, NewRunMessage(result.Summary(), n.reportURL))
}

// Notify sends a run announcement to the webhook.
func (n *WebhookNotifier) Notify(ctx context.Context, msg RunMessage) error {
	if n == nil || n.url == "" {
		return errors.New("webhook notifier: empty url")
	}
	payload := webhookPayload{
		MsgType: "text",
		Text:    webhookText{Content: formatRunMessage(msg)},
		Run:     msg,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook notifier: status %d", resp.StatusCode)
	}
	return nil
}

func formatRunMessage(msg RunMessage) string {
	var b strings.Builder
	b.WriteString("[Hourly Profiles]\n")
	fmt.Fprintf(&b, "Run: %s\n", msg.RunID)
	fmt.Fprintf(&b, "Rows: %d", msg.Rows)
	if msg.FirstKey != "" {
		fmt.Fprintf(&b, " (%s to %s)", msg.FirstKey, msg.LastKey)
	}
	b.WriteString("\n")
	if len(msg.ForwardFilled) > 0 {
		names := make([]string, 0, len(msg.ForwardFilled))
		for name := range msg.ForwardFilled {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%d", name, msg.ForwardFilled[name]))
		}
		fmt.Fprintf(&b, "Forward filled: %s\n", strings.Join(parts, " "))
	}
	for _, cf := range msg.CapacityFactors {
		fmt.Fprintf(&b, "CF %s year %d: %.4f\n", cf.Series, cf.Index, cf.CapacityFactor)
	}
	if msg.ReportURL != "" {
		fmt.Fprintf(&b, "Report URL: %s\n", msg.ReportURL)
	}
	return strings.TrimSpace(b.String())
}
