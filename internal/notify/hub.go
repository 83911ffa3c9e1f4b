package notify

import (
	"log/slog"
	"sync"
	"time"

	"interlude/internal/logging"
)

const subscriberBuffer = 16

// ProgressEvent describes a single persisted progress change.
type ProgressEvent struct {
	UserID    int64     `json:"userId"`
	GameID    int64     `json:"gameId"`
	EpisodeID int64     `json:"episodeId"`
	NodeID    string    `json:"nodeId"`
	Completed bool      `json:"completed"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Filter limits a subscription to matching events. Zero fields match
// everything.
type Filter struct {
	UserID    int64
	EpisodeID int64
}

func (f Filter) matches(evt ProgressEvent) bool {
	if f.UserID != 0 && f.UserID != evt.UserID {
		return false
	}
	if f.EpisodeID != 0 && f.EpisodeID != evt.EpisodeID {
		return false
	}
	return true
}

type subscriber struct {
	filter Filter
	events chan ProgressEvent
}

// Hub distributes progress events to subscribers.
type Hub struct {
	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	closed      bool
	logger      *slog.Logger
	dropped     uint64
}

// NewHub returns a hub ready for use. A nil logger disables hub logging.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Hub{
		subscribers: make(map[*subscriber]struct{}),
		logger:      logging.WithComponent(logger, "notify"),
	}
}

// Subscribe registers a listener for events matching the filter. The returned
// cancel func must be called to release the subscription; after cancel the
// event channel is closed.
func (h *Hub) Subscribe(filter Filter) (<-chan ProgressEvent, func()) {
	sub := &subscriber{
		filter: filter,
		events: make(chan ProgressEvent, subscriberBuffer),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.events)
		return sub.events, func() {}
	}
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if _, ok := h.subscribers[sub]; ok {
				delete(h.subscribers, sub)
				close(sub.events)
			}
			h.mu.Unlock()
		})
	}
	return sub.events, cancel
}

// Publish delivers the event to every matching subscriber without blocking.
// Events for subscribers with full buffers are dropped.
func (h *Hub) Publish(evt ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for sub := range h.subscribers {
		if !sub.filter.matches(evt) {
			continue
		}
		select {
		case sub.events <- evt:
		default:
			h.dropped++
			h.logger.Warn("subscriber buffer full, dropping progress event",
				logging.FieldUserID, evt.UserID,
				logging.FieldEpisodeID, evt.EpisodeID)
		}
	}
}

// Close shuts the hub down and closes all subscriber channels.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for sub := range h.subscribers {
		close(sub.events)
		delete(h.subscribers, sub)
	}
}

// Dropped reports how many events were discarded because a subscriber could
// not keep up.
func (h *Hub) Dropped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}
