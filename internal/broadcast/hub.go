// Package broadcast fans match events out to connected clients.
package broadcast

import (
	"sync"

	"github.com/ericogr/veilborn/internal/constants"
	"github.com/ericogr/veilborn/internal/logging"
)

// Event types.
const (
	EventPlayerJoined       = "player_joined"
	EventMatchStarted       = "match_started"
	EventPlacementSubmitted = "placement_submitted"
	EventRoundResolved      = "round_resolved"
	EventRoundNarrated      = "round_narrated"
	EventRoundIllustrated   = "round_illustrated"
	EventMatchFinished      = "match_finished"
)

// Event is one message on a match channel.
type Event struct {
	Type  string      `json:"type"`
	Round int         `json:"round,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

// Publisher is what the service layer needs from a hub.
type Publisher interface {
	Publish(matchID string, ev Event)
}

const subscriberBuffer = 16

// Hub keeps subscribers per match. Slow subscribers lose events rather
// than block publishers.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe returns a channel of events for matchID and a function that
// unsubscribes and closes the channel.
func (h *Hub) Subscribe(matchID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	if h.subs[matchID] == nil {
		h.subs[matchID] = make(map[chan Event]struct{})
	}
	h.subs[matchID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[matchID], ch)
			if len(h.subs[matchID]) == 0 {
				delete(h.subs, matchID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Hub) Publish(matchID string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[matchID] {
		select {
		case ch <- ev:
		default:
			logging.Warn("dropping event for slow subscriber", nil, logging.Fields{constants.LogFieldMatchID: matchID, "type": ev.Type})
		}
	}
}

// Subscribers returns the number of subscribers for matchID.
func (h *Hub) Subscribers(matchID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[matchID])
}
