// Package stats is a client for the external hit-counting service. The core
// only reads aggregated view counts from it and reports public page hits;
// counts are decoration and never feed admission decisions.
package stats

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
)

// EndpointHit is one recorded request to a public endpoint.
type EndpointHit struct {
	App       string `json:"app"`
	URI       string `json:"uri"`
	IP        string `json:"ip"`
	Timestamp string `json:"timestamp"`
}

// ViewStats is the hit count of one URI.
type ViewStats struct {
	App  string `json:"app"`
	URI  string `json:"uri"`
	Hits int64  `json:"hits"`
}

// Client talks to the stats service over HTTP.
type Client struct {
	baseURL string
	app     string
	http    *http.Client
	now     func() time.Time
}

// NewClient constructs a Client. timeout bounds every call.
func NewClient(baseURL, app string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		app:     app,
		http:    &http.Client{Timeout: timeout},
		now:     time.Now,
	}
}

// EventURI is the public URI whose hits count as views of an event.
func EventURI(id int64) string {
	return "/events/" + strconv.FormatInt(id, 10)
}

// Hit records a request to uri from ip.
func (c *Client) Hit(ctx context.Context, uri, ip string) error {
	body, err := json.Marshal(EndpointHit{
		App:       c.app,
		URI:       uri,
		IP:        ip,
		Timestamp: model.FormatTime(c.now()),
	})
	if err != nil {
		return fmt.Errorf("encode hit: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/hit", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build hit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post hit: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("post hit: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Stats returns hit counts for uris between start and end.
func (c *Client) Stats(ctx context.Context, start, end time.Time, uris []string, unique bool) ([]ViewStats, error) {
	q := url.Values{}
	q.Set("start", model.FormatTime(start))
	q.Set("end", model.FormatTime(end))
	for _, u := range uris {
		q.Add("uris", u)
	}
	q.Set("unique", strconv.FormatBool(unique))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stats?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build stats request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get stats: unexpected status %d", resp.StatusCode)
	}

	var out []ViewStats
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return out, nil
}

// Views returns unique views per event id. Events that were never published
// have no views and are not queried.
func (c *Client) Views(ctx context.Context, events []model.Event) (map[int64]int64, error) {
	views := make(map[int64]int64, len(events))

	var (
		start time.Time
		uris  []string
	)
	for _, e := range events {
		if e.PublishedOn == nil {
			continue
		}
		if start.IsZero() || e.PublishedOn.Before(start) {
			start = *e.PublishedOn
		}
		uris = append(uris, EventURI(e.ID))
	}
	if len(uris) == 0 {
		return views, nil
	}

	stats, err := c.Stats(ctx, start, c.now(), uris, true)
	if err != nil {
		return views, err
	}
	for _, s := range stats {
		id, err := strconv.ParseInt(strings.TrimPrefix(s.URI, "/events/"), 10, 64)
		if err != nil {
			continue
		}
		views[id] = s.Hits
	}
	return views, nil
}
