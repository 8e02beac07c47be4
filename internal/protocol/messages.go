package protocol

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Event types the relay knows how to interpret. The set is open: any
// other type is relayed untouched.
const (
	EventPresence = "presence"
	EventPlayback = "playback"
	EventChat     = "chat"
)

// Frame types synthesized by the server itself.
const (
	FrameJoined  = "joined"
	FrameMembers = "members"
	FramePing    = "ping"
)

// Presence payload actions.
const (
	ActionJoin  = "join"
	ActionLeave = "leave"
)

// Event is the wire shape relayed between clients. Payload is kept raw:
// the relay inspects it where ingestion rules require, but always
// broadcasts the bytes the sender supplied.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Sender  string          `json:"sender,omitempty"`
	Ts      int64           `json:"ts,omitempty"`
	Initial bool            `json:"initial,omitempty"`
}

// PlaybackState is the retained host snapshot replayed to late joiners.
type PlaybackState struct {
	State string  `json:"state"`
	Time  float64 `json:"time"`
}

// RoomInfo is the read-only room snapshot served by the state endpoint.
type RoomInfo struct {
	RoomID       string            `json:"roomId"`
	HostID       string            `json:"hostId,omitempty"`
	Members      map[string]string `json:"members"`
	LastPlayback *PlaybackState    `json:"lastPlayback,omitempty"`
	Subscribers  int               `json:"subscribers"`
}

// Ack acknowledges acceptance of a publish, not delivery.
type Ack struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// PresenceOf extracts the fields ingestion cares about from a presence
// payload. A non-string name is ignored; isHost follows loose truthiness.
func PresenceOf(payload []byte) (action, name string, isHost bool) {
	action = gjson.GetBytes(payload, "action").String()
	if v := gjson.GetBytes(payload, "name"); v.Type == gjson.String {
		name = v.Str
	}
	isHost = gjson.GetBytes(payload, "isHost").Bool()
	return action, name, isHost
}

// PlaybackOf reads a playback payload, coercing out-of-range values:
// unknown states become "seek", a non-numeric time becomes 0.
func PlaybackOf(payload []byte) PlaybackState {
	state := "seek"
	switch gjson.GetBytes(payload, "state").String() {
	case "play":
		state = "play"
	case "pause":
		state = "pause"
	case "seek":
		state = "seek"
	}
	var t float64
	if v := gjson.GetBytes(payload, "time"); v.Type == gjson.Number {
		t = v.Num
	}
	return PlaybackState{State: state, Time: t}
}

type joinedFrame struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

type membersFrame struct {
	Type    string         `json:"type"`
	Payload membersPayload `json:"payload"`
}

type membersPayload struct {
	Members []string `json:"members"`
}

type pingFrame struct {
	Type string `json:"type"`
	T    int64  `json:"t"`
}

// Joined builds the acknowledgment frame sent first on every new stream.
func Joined(roomID string) []byte {
	data, _ := json.Marshal(joinedFrame{Type: FrameJoined, Room: roomID})
	return data
}

// Members builds the membership snapshot frame.
func Members(names []string) []byte {
	if names == nil {
		names = []string{}
	}
	data, _ := json.Marshal(membersFrame{Type: FrameMembers, Payload: membersPayload{Members: names}})
	return data
}

// Ping builds a keep-alive frame.
func Ping(now int64) []byte {
	data, _ := json.Marshal(pingFrame{Type: FramePing, T: now})
	return data
}

// InitialPlayback builds the one-shot replay of the host snapshot for a
// new subscriber. The initial marker lets the client tell the replay
// apart from a live update.
func InitialPlayback(state PlaybackState, hostID string, ts int64) []byte {
	payload, _ := json.Marshal(state)
	data, _ := json.Marshal(Event{
		Type:    EventPlayback,
		Payload: payload,
		Sender:  hostID,
		Ts:      ts,
		Initial: true,
	})
	return data
}
