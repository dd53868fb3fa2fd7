package websocket

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/budgetly/budgetly-core/internal/domain"
)

// fakeClient collects sent frames for assertions
type fakeClient struct {
	id     string
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (c *fakeClient) ID() string { return c.id }

func (c *fakeClient) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	c.frames = append(c.frames, data)
	return nil
}

func (c *fakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeClient) frameCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (c *fakeClient) lastFrame() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) == 0 {
		return nil
	}
	return c.frames[len(c.frames)-1]
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Condition not met before deadline")
}

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := NewHub()
	client := &fakeClient{id: "client-1"}

	hub.Register(client)
	if hub.ClientCount() != 1 {
		t.Errorf("Expected 1 client, got %d", hub.ClientCount())
	}

	hub.Unregister(client)
	if hub.ClientCount() != 0 {
		t.Errorf("Expected 0 clients, got %d", hub.ClientCount())
	}
}

func TestHub_BroadcastReachesAllClients(t *testing.T) {
	hub := NewHub()
	first := &fakeClient{id: "client-1"}
	second := &fakeClient{id: "client-2"}
	hub.Register(first)
	hub.Register(second)

	hub.Broadcast(BillCreated(&domain.Bill{ID: 1, Name: "Rent"}))

	waitFor(t, func() bool { return first.frameCount() == 1 && second.frameCount() == 1 })

	var event Event
	if err := json.Unmarshal(first.lastFrame(), &event); err != nil {
		t.Fatalf("Failed to unmarshal frame: %v", err)
	}
	if event.Type != "bill.created" {
		t.Errorf("Expected type bill.created, got %q", event.Type)
	}
	if event.Entity != EntityTypeBill {
		t.Errorf("Expected bill entity, got %q", event.Entity)
	}
	if event.Timestamp.IsZero() {
		t.Error("Expected a timestamp")
	}
}

func TestHub_UnregisteredClientReceivesNothing(t *testing.T) {
	hub := NewHub()
	client := &fakeClient{id: "client-1"}
	hub.Register(client)
	hub.Unregister(client)

	hub.Broadcast(SyncDrained(map[string]int{"delivered": 2}))

	// Broadcast with no clients short-circuits; nothing should arrive
	time.Sleep(20 * time.Millisecond)
	if client.frameCount() != 0 {
		t.Errorf("Expected no frames, got %d", client.frameCount())
	}
}

func TestEventTypeComposition(t *testing.T) {
	tests := []struct {
		event Event
		want  string
	}{
		{BillArchived(nil), "bill.archived"},
		{CalculationCompleted(nil), "calculation.completed"},
		{SyncQueued(nil), "sync.queued"},
		{ConnectivityChanged(nil), "connectivity.changed"},
	}

	for _, tt := range tests {
		if tt.event.Type != tt.want {
			t.Errorf("Expected type %q, got %q", tt.want, tt.event.Type)
		}
	}
}
