package calendar

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTitle = "No Title"
	maxResults   = 10
)

// JSONGetter performs an authenticated GET; auth.Fetcher implements it
type JSONGetter interface {
	GetJSON(ctx context.Context, url string, out any) error
}

// Client lists upcoming events of the primary calendar
type Client struct {
	fetcher JSONGetter
	baseURL string
	nowFunc func() time.Time
}

type ClientOption func(*Client)

func WithNowFunc(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowFunc = now
	}
}

func NewClient(fetcher JSONGetter, baseURL string, options ...ClientOption) *Client {
	c := &Client{
		fetcher: fetcher,
		baseURL: strings.TrimRight(baseURL, "/"),
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

type eventTime struct {
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
}

func (t eventTime) value() string {
	if t.DateTime != "" {
		return t.DateTime
	}
	return t.Date
}

type eventsResponse struct {
	Items []struct {
		Summary string    `json:"summary"`
		Start   eventTime `json:"start"`
		End     eventTime `json:"end"`
	} `json:"items"`
}

// UpcomingEvents returns events starting from now, in the order the calendar returned them
func (c *Client) UpcomingEvents(ctx context.Context) ([]Event, error) {
	q := url.Values{}
	q.Set("timeMin", c.nowFunc().UTC().Format(time.RFC3339))
	q.Set("showDeleted", "false")
	q.Set("singleEvents", "true")
	q.Set("orderBy", "startTime")
	q.Set("maxResults", fmt.Sprint(maxResults))

	var resp eventsResponse
	endpoint := c.baseURL + "/calendar/v3/calendars/primary/events?" + q.Encode()
	if err := c.fetcher.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("[UpcomingEvents] %w", err)
	}

	events := make([]Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		start, err := ParseTime(item.Start.value())
		if err != nil {
			return nil, fmt.Errorf("[UpcomingEvents] malformed start: %w", err)
		}
		end, err := ParseTime(item.End.value())
		if err != nil {
			return nil, fmt.Errorf("[UpcomingEvents] malformed end: %w", err)
		}
		title := item.Summary
		if title == "" {
			title = defaultTitle
		}
		events = append(events, Event{Title: title, Start: start, End: end})
	}
	return events, nil
}
