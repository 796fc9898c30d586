package zoom

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrUpstream covers any non-2xx answer or transport failure from the Zoom
// API; callers map it to a generic 502 without leaking provider detail.
var ErrUpstream = errors.New("zoom api request failed")

// Client is a thin passthrough to the Zoom meetings API. Only the request
// and response shapes this application needs are modeled.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.zoom.us/v2"
	}
	return &Client{
		baseURL: baseURL,
		token:   strings.TrimSpace(token),
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type Meeting struct {
	ID       string `json:"id"`
	Topic    string `json:"topic"`
	JoinURL  string `json:"joinUrl"`
	StartURL string `json:"startUrl"`
}

// CreateMeeting schedules a meeting for the given topic and start time.
func (c *Client) CreateMeeting(ctx context.Context, topic string, startTime time.Time, durationMinutes int) (Meeting, error) {
	if durationMinutes <= 0 {
		durationMinutes = 60
	}
	body, err := json.Marshal(map[string]any{
		"topic":      topic,
		"type":       2, // scheduled meeting
		"start_time": startTime.UTC().Format(time.RFC3339),
		"duration":   durationMinutes,
	})
	if err != nil {
		return Meeting{}, err
	}

	var resp struct {
		ID       json.Number `json:"id"`
		Topic    string      `json:"topic"`
		JoinURL  string      `json:"join_url"`
		StartURL string      `json:"start_url"`
	}
	if err := c.do(ctx, http.MethodPost, "/users/me/meetings", body, &resp); err != nil {
		return Meeting{}, err
	}
	return Meeting{
		ID:       resp.ID.String(),
		Topic:    resp.Topic,
		JoinURL:  resp.JoinURL,
		StartURL: resp.StartURL,
	}, nil
}

// EndMeeting asks Zoom to end a live meeting.
func (c *Client) EndMeeting(ctx context.Context, meetingID string) error {
	body, err := json.Marshal(map[string]string{"action": "end"})
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, "/meetings/"+meetingID+"/status", body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return nil
}
