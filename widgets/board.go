package widgets

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shtamir/family-tv-dashboard/source"
)

// Widget names
const (
	Messages = "messages"
	Todos    = "todos"
	Photos   = "photos"
	Weather  = "weather"
	Calendar = "calendar"
)

// All lists the widgets in display order
var All = []string{Messages, Todos, Photos, Weather, Calendar}

type Status string

const (
	StatusLoading     Status = "loading"
	StatusReady       Status = "ready"
	StatusUnavailable Status = "unavailable"
	StatusDisabled    Status = "disabled"
)

// Widget is what the kiosk page shows for one widget
type Widget struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Origin    source.Origin `json:"origin,omitempty"`
	Data      any           `json:"data,omitempty"`
	Message   string        `json:"message,omitempty"`
	Error     string        `json:"error,omitempty"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// PhotoFrame is the data of the photos widget
type PhotoFrame struct {
	URL   string `json:"url"`
	Index int    `json:"index"`
	Count int    `json:"count"`
}

// Board holds the rendered state of every widget. Its methods are the render callbacks.
type Board struct {
	clock   clockwork.Clock
	mu      sync.RWMutex
	widgets map[string]Widget
}

func NewBoard(clock clockwork.Clock) *Board {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	b := &Board{clock: clock, widgets: make(map[string]Widget, len(All))}
	b.MarkLoading(All...)
	return b
}

func (b *Board) update(name string, fn func(w *Widget)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w := b.widgets[name]
	w.Name = name
	fn(&w)
	w.UpdatedAt = b.clock.Now()
	b.widgets[name] = w
}

// Render shows data resolved from origin
func (b *Board) Render(name string, origin source.Origin, data any) {
	b.update(name, func(w *Widget) {
		*w = Widget{Status: StatusReady, Origin: origin, Data: data}
	})
}

// RenderPhoto shows the photo at index; it is the rotation scheduler's render callback
func (b *Board) RenderPhoto(url string, index int) {
	b.update(Photos, func(w *Widget) {
		frame, _ := w.Data.(PhotoFrame)
		frame.URL = url
		frame.Index = index
		w.Data = frame
		w.Status = StatusReady
	})
}

// MarkUnavailable shows the neutral unavailable state
func (b *Board) MarkUnavailable(name string, err error) {
	b.update(name, func(w *Widget) {
		*w = Widget{Status: StatusUnavailable}
		if err != nil {
			w.Error = err.Error()
		}
	})
}

func (b *Board) MarkDisabled(name string) {
	b.update(name, func(w *Widget) {
		*w = Widget{Status: StatusDisabled}
	})
}

func (b *Board) MarkLoading(names ...string) {
	for _, name := range names {
		b.update(name, func(w *Widget) {
			*w = Widget{Status: StatusLoading}
		})
	}
}

// SetMessage attaches a user-facing note, such as a failed login, without touching the data
func (b *Board) SetMessage(name, message string) {
	b.update(name, func(w *Widget) {
		w.Message = message
	})
}

func (b *Board) Get(name string) (Widget, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	w, ok := b.widgets[name]
	return w, ok
}

// Snapshot returns every widget in display order
func (b *Board) Snapshot() []Widget {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Widget, 0, len(All))
	for _, name := range All {
		out = append(out, b.widgets[name])
	}
	return out
}
