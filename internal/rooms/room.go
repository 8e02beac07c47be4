package rooms

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/samber/lo"

	"watchrelay/internal/protocol"
)

// Room is an isolated broadcast domain. All of its mutable state is
// guarded by one mutex so that an ingest's state mutation and its
// fan-out are atomic with respect to other ingests on the same room.
type Room struct {
	id           string
	mu           sync.Mutex
	subscribers  map[*Subscriber]struct{}
	hostID       string
	lastPlayback *protocol.PlaybackState
	members      map[string]string
}

func newRoom(roomID string) *Room {
	return &Room{
		id:          roomID,
		subscribers: make(map[*Subscriber]struct{}),
		members:     make(map[string]string),
	}
}

func (r *Room) ID() string { return r.id }

// Ingest applies the room-state mutation rules for one event, stamps
// the server timestamp, and fans the event out to every current
// subscriber. Delivery is best-effort: a full or dead sink drops the
// frame without failing the call.
func (r *Room) Ingest(evt *protocol.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch evt.Type {
	case protocol.EventPresence:
		action, name, isHost := protocol.PresenceOf(evt.Payload)
		switch action {
		case protocol.ActionJoin:
			// First joiner becomes host; an explicit claim overrides.
			if r.hostID == "" || isHost {
				r.hostID = evt.Sender
			}
			if name != "" {
				r.members[evt.Sender] = name
			}
		case protocol.ActionLeave:
			// Known limitation: the host is not re-elected on leave.
			delete(r.members, evt.Sender)
		}
	case protocol.EventPlayback:
		// Only the host's playback is authoritative; everyone else's
		// is relayed but never stored.
		if r.hostID != "" && evt.Sender == r.hostID {
			state := protocol.PlaybackOf(evt.Payload)
			r.lastPlayback = &state
		}
	}

	evt.Ts = time.Now().UnixMilli()

	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	for sub := range r.subscribers {
		if !sub.deliver(data) {
			log.Printf("rooms: dropped frame for slow subscriber %s in room %s", sub.id, r.id)
		}
	}
}

// Subscribe registers a new subscriber and pre-queues its opening
// frames under the room lock: the joined acknowledgment, the members
// snapshot, and the playback replay when a host snapshot exists. Any
// event ingested afterwards is therefore observed strictly after them.
func (r *Room) Subscribe(buffer int) *Subscriber {
	sub := newSubscriber(r.id, buffer)

	r.mu.Lock()
	defer r.mu.Unlock()

	sub.deliver(protocol.Joined(r.id))
	sub.deliver(protocol.Members(lo.Values(r.members)))
	if r.lastPlayback != nil {
		sub.deliver(protocol.InitialPlayback(*r.lastPlayback, r.hostID, time.Now().UnixMilli()))
	}
	r.subscribers[sub] = struct{}{}
	return sub
}

// Unsubscribe removes the subscriber and closes its channel. Safe to
// call more than once; only the call that finds the subscriber still
// registered closes the channel.
func (r *Room) Unsubscribe(sub *Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subscribers[sub]; ok {
		delete(r.subscribers, sub)
		close(sub.ch)
	}
}

func (r *Room) SubscriberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subscribers)
}

// Snapshot returns a copy of the room's current state for the state
// endpoint. The members map is copied so callers never alias the
// guarded one.
func (r *Room) Snapshot() protocol.RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := make(map[string]string, len(r.members))
	for id, name := range r.members {
		members[id] = name
	}
	var last *protocol.PlaybackState
	if r.lastPlayback != nil {
		s := *r.lastPlayback
		last = &s
	}
	return protocol.RoomInfo{
		RoomID:       r.id,
		HostID:       r.hostID,
		Members:      members,
		LastPlayback: last,
		Subscribers:  len(r.subscribers),
	}
}
