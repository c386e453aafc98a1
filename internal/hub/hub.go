// internal/hub/hub.go
//
// In-memory presentation hub for the quiz session.
// It implements session.Presenter and turns controller notifications into
// events that HTTP clients can poll or stream.
//
// Characteristics:
//   - Keeps the latest view and the latest alert (fetch error / won / timed out).
//   - Fans events out to subscribers keyed by a random ID.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Never blocks the publisher: a subscriber with a full buffer misses events.
//   - State is lost when the process restarts.

package hub

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/robalobadob/quizchallenge/internal/session"
)

// EventType names the kind of notification.
type EventType string

const (
	EventState      EventType = "state"
	EventFetchError EventType = "fetch_error"
	EventWon        EventType = "won"
	EventTimedOut   EventType = "timed_out"
)

// Event is one notification for the presentation layer. Alerts carry the
// text of the dialog to show and the label of its single action.
type Event struct {
	Type    EventType     `json:"type"`
	View    *session.View `json:"view,omitempty"`
	Title   string        `json:"title,omitempty"`
	Message string        `json:"message,omitempty"`
	Action  string        `json:"action,omitempty"`
	Retry   bool          `json:"retry"` // the action starts a new session
	Hits    int           `json:"hits,omitempty"`
	Total   int           `json:"total,omitempty"`
}

const defaultBuffer = 64

// Hub is a session.Presenter that remembers and broadcasts.
type Hub struct {
	mu     sync.RWMutex          // guards everything below
	view   session.View          // latest state
	alert  *Event                // latest alert, cleared by the next state change
	subs   map[string]chan Event // keyed by subscriber ID
	buffer int
}

var _ session.Presenter = (*Hub)(nil)

// New constructs an empty Hub.
func New() *Hub {
	return &Hub{subs: make(map[string]chan Event), buffer: defaultBuffer}
}

// StateChanged records the view and broadcasts it.
func (h *Hub) StateChanged(v session.View) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.view = v
	h.alert = nil // alerts always follow the state change they describe
	h.broadcastLocked(Event{Type: EventState, View: &v})
}

// FetchFailed raises the load error alert. It offers no retry.
func (h *Hub) FetchFailed(message string) {
	h.raise(Event{
		Type:    EventFetchError,
		Title:   "Error loading the quiz",
		Message: message,
		Action:  "OK",
	})
}

// Won raises the congratulations alert.
func (h *Hub) Won(hits, total int) {
	h.raise(Event{
		Type:    EventWon,
		Title:   "Congratulations",
		Message: "Good job! You found all the answers on time. Keep up with the great work.",
		Action:  "Play Again",
		Retry:   true,
		Hits:    hits,
		Total:   total,
	})
}

// TimedOut raises the time up alert.
func (h *Hub) TimedOut(hits, total int) {
	h.raise(Event{
		Type:    EventTimedOut,
		Title:   "Time finished",
		Message: fmt.Sprintf("Sorry, time is up! You got %d out of %d answers.", hits, total),
		Action:  "Try Again",
		Retry:   true,
		Hits:    hits,
		Total:   total,
	})
}

// View returns the latest state.
func (h *Hub) View() session.View {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.view
}

// Alert returns the pending alert, if any.
func (h *Hub) Alert() (Event, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.alert == nil {
		return Event{}, false
	}
	return *h.alert, true
}

// Subscribe registers a listener. The returned cancel func must be called to
// release it; the channel is closed afterwards.
func (h *Hub) Subscribe() (id string, events <-chan Event, cancel func()) {
	ch := make(chan Event, h.buffer)
	id = uuid.NewString()

	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return id, ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the IDs of active subscribers.
func (h *Hub) Subscribers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return lo.Keys(h.subs)
}

func (h *Hub) raise(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.alert = &e
	h.broadcastLocked(e)
}

func (h *Hub) broadcastLocked(e Event) {
	for _, ch := range lo.Values(h.subs) {
		select {
		case ch <- e:
		default:
		}
	}
}
