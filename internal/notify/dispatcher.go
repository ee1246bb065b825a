// Package notify delivers dose notifications over side channels: the SMS
// gateway for reminders that opted in, and an optional generic webhook.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/robibiruk/meditrack/internal/model"
)

// Dispatcher fans a notification out to every configured channel.
type Dispatcher struct {
	smsGatewayURL string
	webhookURL    string
	sender        *sender
}

// Options configures a dispatcher. Empty URLs disable the channel.
type Options struct {
	SMSGatewayURL string
	WebhookURL    string
}

// NewDispatcher creates a notification dispatcher.
func NewDispatcher(opts Options) *Dispatcher {
	return &Dispatcher{
		smsGatewayURL: opts.SMSGatewayURL,
		webhookURL:    opts.WebhookURL,
		sender:        newSender(),
	}
}

// DispatchResult contains the result of dispatching to a single channel.
type DispatchResult struct {
	Channel    string
	Success    bool
	StatusCode int
	Duration   time.Duration
	Error      error
}

// smsPayload is the SMS gateway wire format.
type smsPayload struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// webhookPayload is the generic webhook wire format.
type webhookPayload struct {
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Timestamp string            `json:"timestamp"`
}

// Send delivers the notification to every applicable channel concurrently.
// The SMS channel only fires when the notification carries a phone number.
func (d *Dispatcher) Send(ctx context.Context, n *model.Notification) []DispatchResult {
	type job struct {
		channel string
		url     string
		body    []byte
	}
	var jobs []job

	if d.smsGatewayURL != "" && n.Phone != "" {
		body, err := json.Marshal(smsPayload{
			Phone:   n.Phone,
			Message: fmt.Sprintf("%s: %s", n.Title, n.Message),
		})
		if err == nil {
			jobs = append(jobs, job{"sms", d.smsGatewayURL, body})
		}
	}

	if d.webhookURL != "" {
		body, err := json.Marshal(webhookPayload{
			Type:      string(n.Type),
			Title:     n.Title,
			Message:   n.Message,
			Fields:    n.Fields,
			Timestamp: n.Timestamp.UTC().Format(time.RFC3339),
		})
		if err == nil {
			jobs = append(jobs, job{"webhook", d.webhookURL, body})
		}
	}

	if len(jobs) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	results := make([]DispatchResult, len(jobs))
	for i, j := range jobs {
		wg.Add(1)
		go func(idx int, j job) {
			defer wg.Done()
			sent := d.sender.post(ctx, j.url, j.body)
			results[idx] = DispatchResult{
				Channel:    j.channel,
				Success:    sent.Error == nil,
				StatusCode: sent.StatusCode,
				Duration:   sent.Duration,
				Error:      sent.Error,
			}
		}(i, j)
	}
	wg.Wait()
	return results
}

// HasChannels returns true when at least one channel is configured.
func (d *Dispatcher) HasChannels() bool {
	return d.smsGatewayURL != "" || d.webhookURL != ""
}
