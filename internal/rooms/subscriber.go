package rooms

import "github.com/google/uuid"

// Subscriber is one live delivery sink for a room's broadcasts. It is
// owned by the stream handler that created it; the room only references
// it. The channel is closed by Room.Unsubscribe, never by the owner.
type Subscriber struct {
	id   string
	room string
	ch   chan []byte
}

func newSubscriber(roomID string, buffer int) *Subscriber {
	if buffer < minSubscriberBuffer {
		buffer = minSubscriberBuffer
	}
	return &Subscriber{
		id:   uuid.NewString(),
		room: roomID,
		ch:   make(chan []byte, buffer),
	}
}

// Opening frames must fit the buffer even before the handler starts draining.
const minSubscriberBuffer = 4

func (s *Subscriber) ID() string { return s.id }

func (s *Subscriber) Room() string { return s.room }

// C is the stream of serialized frames to forward to the transport.
// It is closed when the subscriber is deregistered.
func (s *Subscriber) C() <-chan []byte { return s.ch }

// deliver attempts a non-blocking send. A full buffer drops the frame;
// the relay is best-effort and must never stall an ingest.
func (s *Subscriber) deliver(data []byte) bool {
	select {
	case s.ch <- data:
		return true
	default:
		return false
	}
}
