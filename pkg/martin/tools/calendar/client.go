// Package calendar provides the Google Calendar REST client the
// scheduling tools call.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const calendarAPIBaseURL = "https://www.googleapis.com/calendar/v3"

// Client provides access to the Google Calendar API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a Calendar client authenticated with accessToken.
func NewClient(accessToken string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &authTransport{
				accessToken: accessToken,
				base:        http.DefaultTransport,
			},
		},
		baseURL: calendarAPIBaseURL,
	}
}

// SetBaseURL points the client at a different API host. Test hook.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

type authTransport struct {
	accessToken string
	base        http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+t.accessToken)
	return t.base.RoundTrip(req)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// EventDateTime is the start or end of an event.
type EventDateTime struct {
	DateTime string `json:"dateTime,omitempty"` // RFC 3339, timed events
	Date     string `json:"date,omitempty"`     // YYYY-MM-DD, all-day events
	TimeZone string `json:"timeZone,omitempty"`
}

// Event is a calendar event.
type Event struct {
	ID          string         `json:"id,omitempty"`
	Summary     string         `json:"summary,omitempty"`
	Description string         `json:"description,omitempty"`
	Location    string         `json:"location,omitempty"`
	Start       *EventDateTime `json:"start,omitempty"`
	End         *EventDateTime `json:"end,omitempty"`
	Status      string         `json:"status,omitempty"`
	HTMLLink    string         `json:"htmlLink,omitempty"`
}

// ListEventsResponse is the response from listing events.
type ListEventsResponse struct {
	Items         []Event `json:"items,omitempty"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
}

// ListEvents lists events on the primary calendar inside [timeMin, timeMax),
// expanded to single instances and ordered by start time.
func (c *Client) ListEvents(ctx context.Context, timeMin, timeMax time.Time, maxResults int) (*ListEventsResponse, error) {
	params := url.Values{}
	params.Set("timeMin", timeMin.Format(time.RFC3339))
	params.Set("timeMax", timeMax.Format(time.RFC3339))
	params.Set("singleEvents", "true")
	params.Set("orderBy", "startTime")
	if maxResults > 0 {
		params.Set("maxResults", strconv.Itoa(maxResults))
	}

	body, err := c.doRequest(ctx, http.MethodGet,
		"/calendars/primary/events?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var resp ListEventsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	return &resp, nil
}

// CreateEvent inserts an event into the primary calendar.
func (c *Client) CreateEvent(ctx context.Context, event *Event) (*Event, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshaling event: %w", err)
	}

	body, err := c.doRequest(ctx, http.MethodPost,
		"/calendars/primary/events", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	var created Event
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	return &created, nil
}

// Overlaps reports whether the event intersects the [start, end) window.
// All-day events and events without parseable times do not count.
func Overlaps(event *Event, start, end time.Time) bool {
	if event.Start == nil || event.End == nil {
		return false
	}
	evStart, err := time.Parse(time.RFC3339, event.Start.DateTime)
	if err != nil {
		return false
	}
	evEnd, err := time.Parse(time.RFC3339, event.End.DateTime)
	if err != nil {
		return false
	}
	return evStart.Before(end) && evEnd.After(start)
}
