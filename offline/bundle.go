package offline

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"

	"github.com/shtamir/family-tv-dashboard/calendar"
	"github.com/shtamir/family-tv-dashboard/weather"
)

//go:embed offline-data/*.json
var embedded embed.FS

// Bundle serves the static payloads shown when live sources fail. Each payload has the same
// shape as its live counterpart.
type Bundle struct {
	files fs.FS
}

// NewBundle reads payloads from files; nil means the data compiled into the binary
func NewBundle(files fs.FS) *Bundle {
	if files == nil {
		sub, err := fs.Sub(embedded, "offline-data")
		if err != nil {
			panic(err)
		}
		files = sub
	}
	return &Bundle{files: files}
}

func (b *Bundle) Messages(context.Context) ([]string, error) {
	return readList(b.files, "messages.json")
}

func (b *Bundle) Todos(context.Context) ([]string, error) {
	return readList(b.files, "todos.json")
}

func (b *Bundle) Photos(context.Context) ([]string, error) {
	return readList(b.files, "photos.json")
}

func (b *Bundle) Weather(context.Context) (weather.Daily, error) {
	var daily weather.Daily
	if err := read(b.files, "weather.json", &daily); err != nil {
		return weather.Daily{}, err
	}
	if len(daily.Time) == 0 {
		return weather.Daily{}, fmt.Errorf("[offline] weather.json has no days")
	}
	return daily, nil
}

func (b *Bundle) Calendar(context.Context) ([]calendar.Event, error) {
	var events []calendar.Event
	if err := read(b.files, "calendar.json", &events); err != nil {
		return nil, err
	}
	return events, nil
}

func readList(files fs.FS, name string) ([]string, error) {
	var items []string
	if err := read(files, name, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("[offline] %s is empty", name)
	}
	return items, nil
}

func read(files fs.FS, name string, out any) error {
	raw, err := fs.ReadFile(files, name)
	if err != nil {
		return fmt.Errorf("[offline] %s not found: %w", name, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("[offline] %s: %w", name, err)
	}
	return nil
}
