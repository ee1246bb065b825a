// Package feed provides the client for the medicine-info lookup and the
// recent-approvals feed served by the sync service.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/robibiruk/meditrack/internal/errors"
	"github.com/robibiruk/meditrack/internal/model"
)

const defaultTimeout = 10 * time.Second

// Client talks to the medicine endpoints of the sync service.
type Client struct {
	baseURL string
	http    *http.Client
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a feed client.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: opts.BaseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// MedicineInfo looks up a medicine by name.
func (c *Client) MedicineInfo(ctx context.Context, name string) (*model.MedicineInfo, error) {
	u := fmt.Sprintf("%s/api/v1/medicines/info?q=%s", c.baseURL, url.QueryEscape(name))

	var info model.MedicineInfo
	if err := c.getJSON(ctx, u, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// NewMedicines fetches the recent-approvals feed. A limit of zero or less
// returns the full feed.
func (c *Client) NewMedicines(ctx context.Context, limit int) ([]model.NewMedicine, error) {
	u := c.baseURL + "/api/v1/medicines/new"
	if limit > 0 {
		u += "?limit=" + strconv.Itoa(limit)
	}

	var medicines []model.NewMedicine
	if err := c.getJSON(ctx, u, &medicines); err != nil {
		return nil, err
	}
	return medicines, nil
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.NewSystemErrorWithOp("feed.get", "building feed request failed", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.NewSystemErrorWithOp(
			"feed.get", fmt.Sprintf("feed request failed with status %d", resp.StatusCode), nil)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
