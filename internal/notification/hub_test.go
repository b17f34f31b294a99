package notification_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go-ems/internal/notification"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func receive(t *testing.T, c <-chan notification.Message) (notification.Message, bool) {
	t.Helper()
	select {
	case m, ok := <-c:
		return m, ok
	case <-time.After(time.Second):
		return notification.Message{}, false
	}
}

func assertEmpty(t *testing.T, c <-chan notification.Message) {
	t.Helper()
	select {
	case m := <-c:
		t.Fatalf("unexpected message %q", m.Event)
	default:
	}
}

func TestHub_Routing(t *testing.T) {
	ctx := context.Background()
	hub := notification.NewHub(zap.NewNop())

	alice, doneAlice := hub.Register("alice", "developer")
	defer doneAlice()
	bob, doneBob := hub.Register("bob", "manager")
	defer doneBob()

	hub.NotifyEmployee(ctx, "alice", notification.EventSalaryUpdated, map[string]string{"final_salary": "2900.00"})

	m, ok := receive(t, alice.Messages())
	assert.True(t, ok)
	assert.Equal(t, notification.EventSalaryUpdated, m.Event)
	assert.JSONEq(t, `{"final_salary":"2900.00"}`, string(m.Payload))
	assertEmpty(t, bob.Messages())

	hub.NotifyRole(ctx, "manager", notification.EventAttendanceUpdate, map[string]int{"n": 1})
	m, ok = receive(t, bob.Messages())
	assert.True(t, ok)
	assert.Equal(t, notification.EventAttendanceUpdate, m.Event)
	assertEmpty(t, alice.Messages())

	hub.Broadcast(ctx, notification.EventSalaryCalculationComplete, map[string]int{"month": 1, "year": 2026})
	_, ok = receive(t, alice.Messages())
	assert.True(t, ok)
	_, ok = receive(t, bob.Messages())
	assert.True(t, ok)
}

func TestHub_OfflineRecipientIsDropped(t *testing.T) {
	hub := notification.NewHub(zap.NewNop())

	hub.NotifyEmployee(context.Background(), "ghost", notification.EventSalaryUpdated, nil)

	assert.Equal(t, 0, hub.ConnectedCount())
}

func TestHub_FullQueueDropsWithoutBlocking(t *testing.T) {
	hub := notification.NewHub(zap.NewNop())
	_, done := hub.Register("slow", "employee")
	defer done()

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.NotifyEmployee(context.Background(), "slow", "tick", i)
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("notify blocked on a slow client")
	}
	assert.Equal(t, uint64(100-32), hub.Dropped())
}

func TestHub_UnregisterClosesQueue(t *testing.T) {
	hub := notification.NewHub(zap.NewNop())
	c, done := hub.Register("alice", "employee")

	done()
	done()

	_, ok := <-c.Messages()
	assert.False(t, ok)
	assert.Equal(t, 0, hub.ConnectedCount())
}

func TestHub_SubscribeSeesEverything(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := notification.NewHub(zap.NewNop())

	stream, err := hub.Subscribe(ctx)
	assert.NoError(t, err)

	hub.NotifyEmployee(ctx, "nobody-online", notification.EventAttendanceUpdated, json.RawMessage(`{"id":"a1"}`))

	m, ok := receive(t, stream)
	assert.True(t, ok)
	assert.Equal(t, "nobody-online", m.EmployeeID)

	cancel()
	_, open := <-stream
	assert.False(t, open)
}

func TestNoop_SubscribeClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var ch notification.Channel = notification.Noop{}

	stream, err := ch.Subscribe(ctx)
	assert.NoError(t, err)
	ch.Broadcast(ctx, "x", nil)

	cancel()
	_, ok := <-stream
	assert.False(t, ok)
}
