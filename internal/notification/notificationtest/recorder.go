// Package notificationtest provides a notification.Channel that records
// events for assertions.
package notificationtest

import (
	"context"
	"encoding/json"
	"sync"

	"go-ems/internal/notification"
)

type Recorder struct {
	mu       sync.Mutex
	messages []notification.Message
	subs     []chan notification.Message
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) NotifyEmployee(ctx context.Context, employeeID, event string, payload any) {
	r.record(notification.Message{Event: event, EmployeeID: employeeID, Payload: encode(payload)})
}

func (r *Recorder) NotifyRole(ctx context.Context, role, event string, payload any) {
	r.record(notification.Message{Event: event, Role: role, Payload: encode(payload)})
}

func (r *Recorder) Broadcast(ctx context.Context, event string, payload any) {
	r.record(notification.Message{Event: event, Payload: encode(payload)})
}

func (r *Recorder) Subscribe(ctx context.Context) (<-chan notification.Message, error) {
	ch := make(chan notification.Message, 64)
	r.mu.Lock()
	r.subs = append(r.subs, ch)
	r.mu.Unlock()
	return ch, nil
}

// Inject pushes an inbound event to subscribers without recording it.
func (r *Recorder) Inject(msg notification.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ch := range r.subs {
		ch <- msg
	}
}

func (r *Recorder) record(msg notification.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *Recorder) Messages() []notification.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notification.Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Events returns the messages with the given event name.
func (r *Recorder) Events(event string) []notification.Message {
	var out []notification.Message
	for _, m := range r.Messages() {
		if m.Event == event {
			out = append(out, m)
		}
	}
	return out
}

func encode(payload any) json.RawMessage {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return raw
}
