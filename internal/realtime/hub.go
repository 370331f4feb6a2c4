// Package realtime implements the per-project fan-out channel. Connected
// clients join project rooms and receive board mutation events; delivery is
// best-effort with no persistence or replay; a client that was offline must
// re-fetch state on rejoin.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/worknest/worknest/internal/logger"
)

// Server-initiated event names.
const (
	EventTaskCreated  = "task-created"
	EventTaskUpdated  = "task-updated"
	EventTaskDeleted  = "task-deleted"
	EventCommentAdded = "comment-added"
)

// Client-initiated control messages.
const (
	msgJoinProject  = "join-project"
	msgLeaveProject = "leave-project"
)

// Event is the envelope published to project rooms.
type Event struct {
	Event     string      `json:"event"`
	ProjectID string      `json:"projectId"`
	Actor     string      `json:"actor,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Subscriber receives marshaled events for rooms it joined. Send must not
// block; slow subscribers drop messages rather than stalling the fan-out.
type Subscriber interface {
	Send(payload []byte)
}

// JoinAuthorizer re-validates project access at join-project time.
type JoinAuthorizer interface {
	CanJoin(ctx context.Context, userID, projectID string) error
}

// Hub is the room registry: project ID to subscriber set. Fan-out holds the
// lock only while copying the subscriber list.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[Subscriber]struct{}
	auth  JoinAuthorizer
	log   *logger.Logger
	now   func() time.Time
}

// NewHub creates a hub.
func NewHub(auth JoinAuthorizer, log *logger.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[Subscriber]struct{}),
		auth:  auth,
		log:   log,
		now:   time.Now,
	}
}

// Join adds sub to the project's room.
func (h *Hub) Join(projectID string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[projectID] == nil {
		h.rooms[projectID] = make(map[Subscriber]struct{})
	}
	h.rooms[projectID][sub] = struct{}{}
}

// Leave removes sub from the project's room.
func (h *Hub) Leave(projectID string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs := h.rooms[projectID]; subs != nil {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.rooms, projectID)
		}
	}
}

// LeaveAll removes sub from every room (connection closed).
func (h *Hub) LeaveAll(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for projectID, subs := range h.rooms {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.rooms, projectID)
		}
	}
}

// InRoom reports whether sub currently belongs to the project's room.
func (h *Hub) InRoom(projectID string, sub Subscriber) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[projectID][sub]
	return ok
}

// RoomSize returns the number of subscribers in a project's room.
func (h *Hub) RoomSize(projectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[projectID])
}

// Publish broadcasts a server-originated event to the project's room.
func (h *Hub) Publish(projectID, event string, data interface{}) {
	h.publish(projectID, Event{
		Event:     event,
		ProjectID: projectID,
		Timestamp: h.now(),
		Data:      data,
	}, nil)
}

// PublishFrom broadcasts a client-originated echo to the project's room,
// excluding the origin, tagged with the acting principal and a server
// timestamp.
func (h *Hub) PublishFrom(origin Subscriber, actor, projectID, event string, data interface{}) {
	h.publish(projectID, Event{
		Event:     event,
		ProjectID: projectID,
		Actor:     actor,
		Timestamp: h.now(),
		Data:      data,
	}, origin)
}

func (h *Hub) publish(projectID string, ev Event, exclude Subscriber) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("realtime: marshal %s event: %v", ev.Event, err)
		return
	}

	h.mu.RLock()
	subs := h.rooms[projectID]
	if len(subs) == 0 {
		h.mu.RUnlock()
		return
	}
	list := make([]Subscriber, 0, len(subs))
	for sub := range subs {
		if sub == exclude {
			continue
		}
		list = append(list, sub)
	}
	h.mu.RUnlock()

	for _, sub := range list {
		sub.Send(payload)
	}
}
