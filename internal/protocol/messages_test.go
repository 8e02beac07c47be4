package protocol

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestPresenceOf(t *testing.T) {
	action, name, isHost := PresenceOf([]byte(`{"action":"join","name":"Alice","isHost":true}`))
	if action != ActionJoin {
		t.Errorf("expected join, got %q", action)
	}
	if name != "Alice" {
		t.Errorf("expected Alice, got %q", name)
	}
	if !isHost {
		t.Error("expected isHost true")
	}
}

func TestPresenceOfIgnoresNonStringName(t *testing.T) {
	_, name, isHost := PresenceOf([]byte(`{"action":"join","name":42}`))
	if name != "" {
		t.Errorf("non-string name must be ignored, got %q", name)
	}
	if isHost {
		t.Error("absent isHost must read false")
	}
}

func TestPresenceOfEmptyPayload(t *testing.T) {
	action, name, isHost := PresenceOf(nil)
	if action != "" || name != "" || isHost {
		t.Errorf("empty payload should yield zero values: %q %q %v", action, name, isHost)
	}
}

func TestPlaybackOfValidStates(t *testing.T) {
	for _, state := range []string{"play", "pause", "seek"} {
		got := PlaybackOf([]byte(`{"state":"` + state + `","time":12.5}`))
		if got.State != state {
			t.Errorf("state %q not preserved, got %q", state, got.State)
		}
		if got.Time != 12.5 {
			t.Errorf("time not preserved for %q: %v", state, got.Time)
		}
	}
}

func TestPlaybackOfCoercesInvalidState(t *testing.T) {
	got := PlaybackOf([]byte(`{"state":"rewind","time":3}`))
	if got.State != "seek" {
		t.Errorf("invalid state should become seek, got %q", got.State)
	}
}

func TestPlaybackOfCoercesInvalidTime(t *testing.T) {
	got := PlaybackOf([]byte(`{"state":"play","time":"later"}`))
	if got.Time != 0 {
		t.Errorf("non-numeric time should become 0, got %v", got.Time)
	}
	if got := PlaybackOf([]byte(`{"state":"play"}`)); got.Time != 0 {
		t.Errorf("missing time should become 0, got %v", got.Time)
	}
}

func TestEventMarshalOmitsInitial(t *testing.T) {
	data, err := json.Marshal(Event{Type: EventChat, Sender: "u1", Ts: 1})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "initial") {
		t.Errorf("live events must not carry the initial marker: %s", data)
	}
}

func TestInitialPlaybackFrame(t *testing.T) {
	data := InitialPlayback(PlaybackState{State: "play", Time: 42.5}, "host", 1700000000000)

	var evt Event
	if err := json.Unmarshal(data, &evt); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if evt.Type != EventPlayback {
		t.Errorf("expected playback type, got %q", evt.Type)
	}
	if !evt.Initial {
		t.Error("replay must be marked initial")
	}
	if evt.Sender != "host" {
		t.Errorf("expected host sender, got %q", evt.Sender)
	}
	if evt.Ts != 1700000000000 {
		t.Errorf("unexpected ts %d", evt.Ts)
	}
	got := PlaybackOf(evt.Payload)
	if got.State != "play" || got.Time != 42.5 {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestJoinedFrame(t *testing.T) {
	var frame map[string]interface{}
	if err := json.Unmarshal(Joined("movie"), &frame); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if frame["type"] != FrameJoined || frame["room"] != "movie" {
		t.Errorf("unexpected joined frame: %v", frame)
	}
}

func TestMembersFrameNeverNull(t *testing.T) {
	if !strings.Contains(string(Members(nil)), `"members":[]`) {
		t.Errorf("empty membership must serialize as []: %s", Members(nil))
	}
}

func TestPingFrame(t *testing.T) {
	var frame map[string]interface{}
	if err := json.Unmarshal(Ping(123), &frame); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if frame["type"] != FramePing || frame["t"] != float64(123) {
		t.Errorf("unexpected ping frame: %v", frame)
	}
}
