package calendar_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/shtamir/family-tv-dashboard/calendar"
	"github.com/stretchr/testify/require"
)

type fakeGetter struct {
	url      string
	response string
	err      error
}

func (f *fakeGetter) GetJSON(_ context.Context, url string, out any) error {
	f.url = url
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.response), out)
}

func TestClient_UpcomingEvents(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	t.Run("maps items", func(t *testing.T) {
		getter := &fakeGetter{response: `{"items":[
			{"summary":"Swimming","start":{"dateTime":"2025-05-01T16:00:00Z"},"end":{"dateTime":"2025-05-01T17:00:00Z"}},
			{"start":{"date":"2025-05-03"},"end":{"date":"2025-05-04"}}
		]}`}
		client := calendar.NewClient(getter, "https://www.googleapis.com/", calendar.WithNowFunc(func() time.Time { return now }))

		events, err := client.UpcomingEvents(ctx)
		require.NoError(t, err)
		require.Equal(t, []calendar.Event{
			{Title: "Swimming", Start: time.Date(2025, 5, 1, 16, 0, 0, 0, time.UTC), End: time.Date(2025, 5, 1, 17, 0, 0, 0, time.UTC)},
			{Title: "No Title", Start: time.Date(2025, 5, 3, 0, 0, 0, 0, time.UTC), End: time.Date(2025, 5, 4, 0, 0, 0, 0, time.UTC)},
		}, events)

		parsed, err := url.Parse(getter.url)
		require.NoError(t, err)
		require.Equal(t, "/calendar/v3/calendars/primary/events", parsed.Path)
		require.Equal(t, "2025-05-01T08:00:00Z", parsed.Query().Get("timeMin"))
		require.Equal(t, "startTime", parsed.Query().Get("orderBy"))
		require.Equal(t, "true", parsed.Query().Get("singleEvents"))
		require.Equal(t, "10", parsed.Query().Get("maxResults"))
	})

	t.Run("fetch failure propagates", func(t *testing.T) {
		errFetch := errors.New("unauthorized")
		client := calendar.NewClient(&fakeGetter{err: errFetch}, "https://www.googleapis.com")
		_, err := client.UpcomingEvents(ctx)
		require.ErrorIs(t, err, errFetch)
	})

	t.Run("malformed payload fails", func(t *testing.T) {
		getter := &fakeGetter{response: `{"items":[{"summary":"x","start":{"dateTime":"soon"}}]}`}
		_, err := calendar.NewClient(getter, "https://www.googleapis.com").UpcomingEvents(ctx)
		require.Error(t, err)
	})
}
