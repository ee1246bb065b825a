package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const userAgent = "MediTrack/1.0"

// sender posts JSON payloads to a channel endpoint. A dose alert loses its
// value minutes after its time, so a failed post gets one quick retry and
// is then dropped.
type sender struct {
	client     *http.Client
	attempts   int
	retryDelay time.Duration
}

func newSender() *sender {
	return &sender{
		client:     &http.Client{Timeout: 10 * time.Second},
		attempts:   2,
		retryDelay: 2 * time.Second,
	}
}

// sendResult records the outcome of one post, including retries.
type sendResult struct {
	StatusCode int
	Duration   time.Duration
	Attempts   int
	Error      error
}

func (s *sender) post(ctx context.Context, url string, body []byte) *sendResult {
	out := &sendResult{}
	start := time.Now()

	for attempt := 1; attempt <= s.attempts; attempt++ {
		out.Attempts = attempt
		if attempt > 1 {
			select {
			case <-ctx.Done():
				out.Error = ctx.Err()
				out.Duration = time.Since(start)
				return out
			case <-time.After(s.retryDelay):
			}
		}

		status, retry, err := s.once(ctx, url, body)
		out.StatusCode = status
		out.Error = err
		if err == nil || !retry {
			break
		}
	}

	out.Duration = time.Since(start)
	return out
}

func (s *sender) once(ctx context.Context, url string, body []byte) (status int, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, false, nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	err = fmt.Errorf("channel returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	retry = resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
	return resp.StatusCode, retry, err
}
