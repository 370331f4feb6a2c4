package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worknest/worknest/internal/logger"
)

type fakeSubscriber struct {
	received [][]byte
}

func (f *fakeSubscriber) Send(payload []byte) {
	f.received = append(f.received, payload)
}

type allowAll struct{}

func (allowAll) CanJoin(ctx context.Context, userID, projectID string) error { return nil }

type denyAll struct{}

func (denyAll) CanJoin(ctx context.Context, userID, projectID string) error {
	return errors.New("denied")
}

func newTestHub() *Hub {
	return NewHub(allowAll{}, logger.New(io.Discard, logger.LevelError, "[test]"))
}

func decode(t *testing.T, payload []byte) Event {
	t.Helper()
	var ev Event
	require.NoError(t, json.Unmarshal(payload, &ev))
	return ev
}

func TestPublishScopedToRoom(t *testing.T) {
	hub := newTestHub()
	inA := &fakeSubscriber{}
	inB := &fakeSubscriber{}
	hub.Join("project-a", inA)
	hub.Join("project-b", inB)

	hub.Publish("project-a", EventTaskCreated, map[string]string{"id": "t1"})

	require.Len(t, inA.received, 1)
	assert.Empty(t, inB.received, "a client in project B's room never receives project A events")

	ev := decode(t, inA.received[0])
	assert.Equal(t, EventTaskCreated, ev.Event)
	assert.Equal(t, "project-a", ev.ProjectID)
	assert.False(t, ev.Timestamp.IsZero())
}

func TestLeaveStopsDelivery(t *testing.T) {
	hub := newTestHub()
	sub := &fakeSubscriber{}
	hub.Join("p1", sub)

	hub.Publish("p1", EventTaskUpdated, nil)
	require.Len(t, sub.received, 1)

	hub.Leave("p1", sub)
	hub.Publish("p1", EventTaskUpdated, nil)
	assert.Len(t, sub.received, 1, "no events after leaving the room")
	assert.Equal(t, 0, hub.RoomSize("p1"))
}

func TestLeaveAllRemovesEveryRoom(t *testing.T) {
	hub := newTestHub()
	sub := &fakeSubscriber{}
	hub.Join("p1", sub)
	hub.Join("p2", sub)

	hub.LeaveAll(sub)
	hub.Publish("p1", EventTaskDeleted, nil)
	hub.Publish("p2", EventTaskDeleted, nil)
	assert.Empty(t, sub.received)
}

func TestPublishFromExcludesOrigin(t *testing.T) {
	hub := newTestHub()
	origin := &fakeSubscriber{}
	other := &fakeSubscriber{}
	hub.Join("p1", origin)
	hub.Join("p1", other)

	hub.PublishFrom(origin, "user-1", "p1", EventCommentAdded, map[string]string{"text": "hi"})

	assert.Empty(t, origin.received, "echo is never sent back to the sender")
	require.Len(t, other.received, 1)
	ev := decode(t, other.received[0])
	assert.Equal(t, "user-1", ev.Actor)
	assert.Equal(t, EventCommentAdded, ev.Event)
}

func TestPublishToEmptyRoomIsNoop(t *testing.T) {
	hub := newTestHub()
	// Must not panic or allocate rooms.
	hub.Publish("ghost", EventTaskCreated, nil)
	assert.Equal(t, 0, hub.RoomSize("ghost"))
}

func TestEventTimestampUsesServerClock(t *testing.T) {
	hub := newTestHub()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	hub.now = func() time.Time { return fixed }

	sub := &fakeSubscriber{}
	hub.Join("p1", sub)
	hub.Publish("p1", EventTaskUpdated, nil)

	require.Len(t, sub.received, 1)
	ev := decode(t, sub.received[0])
	assert.True(t, ev.Timestamp.Equal(fixed))
}
