package rooms

import (
	"context"
	"sync"

	"github.com/RanFeng/ilog"
)

// DefaultRoom is used when a publish or subscribe names no room.
const DefaultRoom = "default"

// Registry maps room ids to live rooms for the process lifetime. Rooms
// are created lazily on first reference and never evicted; memory is
// bounded by the set of distinct room ids seen since startup.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
	}
}

// GetOrCreate returns the room for roomID, creating it on first
// reference. Every caller sees the same instance for the same id.
func (g *Registry) GetOrCreate(roomID string) *Room {
	g.mu.RLock()
	room, ok := g.rooms[roomID]
	g.mu.RUnlock()
	if ok {
		return room
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if room, ok := g.rooms[roomID]; ok {
		return room
	}
	room = newRoom(roomID)
	g.rooms[roomID] = room
	ilog.EventInfo(context.Background(), "room_created", "roomID", roomID, "rooms", len(g.rooms))
	return room
}

// Lookup returns the room for roomID without creating it.
func (g *Registry) Lookup(roomID string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	room, ok := g.rooms[roomID]
	return room, ok
}

func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}
