package realtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestClient(h *Hub, userID string) *Client {
	return &Client{hub: h, send: make(chan []byte, sendBufferSize), userID: userID}
}

func TestSendAfterDisconnectIsDropped(t *testing.T) {
	hub := newTestHub()
	c := newTestClient(hub, "u1")
	hub.Join("p1", c)

	hub.LeaveAll(c)
	c.closeSend()
	c.closeSend() // idempotent

	// A fan-out that snapshotted the room before the disconnect may still
	// deliver; it must be dropped, not panic.
	c.Send([]byte(`{"event":"task-updated"}`))

	_, open := <-c.send
	assert.False(t, open)
}

func TestPublishConcurrentWithDisconnects(t *testing.T) {
	hub := newTestHub()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			c := newTestClient(hub, "u")
			hub.Join("p1", c)
			hub.LeaveAll(c)
			c.closeSend()
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					hub.Publish("p1", EventTaskUpdated, map[string]string{"id": "t1"})
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, hub.RoomSize("p1"))
}
