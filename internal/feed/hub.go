package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/p-chth/KaoDuenMate-VER2/internal/models"
)

// Publisher accepts change events after a successful write.
type Publisher interface {
	Publish(ctx context.Context, event models.ChangeEvent) error
}

// NewEvent builds a ChangeEvent. doc is encoded as the document body and is
// ignored for deletes.
func NewEvent(userID string, collection models.Collection, op models.ChangeOp, docID string, doc interface{}) (models.ChangeEvent, error) {
	event := models.ChangeEvent{
		UserID:     userID,
		Collection: collection,
		Op:         op,
		DocID:      docID,
		Timestamp:  time.Now().UnixMilli(),
	}

	if op == models.OpUpsert && doc != nil {
		body, err := json.Marshal(doc)
		if err != nil {
			return models.ChangeEvent{}, fmt.Errorf("failed to marshal %s document: %w", collection, err)
		}
		event.Document = body
	}

	return event, nil
}

// Hub fans change events out to in-process subscribers keyed by user.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
	closed bool
	logger zerolog.Logger
}

func NewHub(buffer int, logger zerolog.Logger) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		subs:   make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

// Subscribe registers interest in a user's changes. With no collections the
// subscription receives every collection.
func (h *Hub) Subscribe(userID string, collections ...models.Collection) *Subscription {
	s := &Subscription{
		hub:    h,
		userID: userID,
		events: make(chan models.ChangeEvent, h.buffer),
		resync: make(chan struct{}, 1),
	}
	if len(collections) > 0 {
		s.filter = make(map[models.Collection]bool, len(collections))
		for _, c := range collections {
			s.filter[c] = true
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		s.closed = true
		close(s.events)
		return s
	}
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*Subscription]struct{})
	}
	h.subs[userID][s] = struct{}{}

	h.logger.Debug().
		Str("user_id", userID).
		Int("subscribers", len(h.subs[userID])).
		Msg("Feed subscription opened")

	return s
}

// Publish delivers event to every matching subscriber without blocking.
// A full subscriber buffer drops the event and flags the subscriber for
// resync.
func (h *Hub) Publish(_ context.Context, event models.ChangeEvent) error {
	if !event.Collection.Valid() {
		return fmt.Errorf("unknown collection %q", event.Collection)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.subs[event.UserID] {
		if !s.wants(event.Collection) {
			continue
		}
		select {
		case s.events <- event:
		default:
			s.dropped.Add(1)
			select {
			case s.resync <- struct{}{}:
			default:
			}
			h.logger.Warn().
				Str("user_id", event.UserID).
				Str("collection", string(event.Collection)).
				Str("doc_id", event.DocID).
				Msg("Feed subscriber is slow, event dropped")
		}
	}

	return nil
}

// Subscribers reports how many subscriptions a user currently holds.
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subs[userID])
}

// Close ends every subscription. Later subscriptions are born closed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for userID, set := range h.subs {
		for s := range set {
			s.closed = true
			close(s.events)
		}
		delete(h.subs, userID)
	}
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.events)

	set := h.subs[s.userID]
	delete(set, s)
	if len(set) == 0 {
		delete(h.subs, s.userID)
	}
}

// Subscription is one consumer's view of a user's change stream.
// closed is guarded by the hub mutex.
type Subscription struct {
	hub     *Hub
	userID  string
	filter  map[models.Collection]bool
	events  chan models.ChangeEvent
	resync  chan struct{}
	dropped atomic.Int64
	closed  bool
}

// Events is closed when the subscription or the hub is closed.
func (s *Subscription) Events() <-chan models.ChangeEvent {
	return s.events
}

// Resync fires after at least one event was dropped for this subscriber.
func (s *Subscription) Resync() <-chan struct{} {
	return s.resync
}

// Reset discards buffered events and a pending resync. Call it before
// reading a fresh snapshot: anything delivered afterwards was published
// after the discard.
func (s *Subscription) Reset() int {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()

	select {
	case <-s.resync:
	default:
	}

	if s.closed {
		return 0
	}

	discarded := 0
	for {
		select {
		case <-s.events:
			discarded++
		default:
			return discarded
		}
	}
}

func (s *Subscription) Dropped() int64 {
	return s.dropped.Load()
}

func (s *Subscription) Close() {
	s.hub.remove(s)
}

func (s *Subscription) wants(c models.Collection) bool {
	return s.filter == nil || s.filter[c]
}
