// Package sse streams live CRM events to connected staff dashboards.
package sse

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dealer_crm_backend/platform/httpkit"
	"dealer_crm_backend/platform/logger"
)

// EventType represents different types of SSE events
type EventType string

const (
	EventLeadCreated         EventType = "lead_created"
	EventLeadMerged          EventType = "lead_merged"
	EventStageChanged        EventType = "stage_changed"
	EventSLABreach           EventType = "sla_breach"
	EventAppointmentReminder EventType = "appointment_reminder"
)

// Event represents an SSE event payload. An empty Location reaches every
// client.
type Event struct {
	Type     EventType `json:"type"`
	LeadID   string    `json:"lead_id,omitempty"`
	Location string    `json:"location,omitempty"`
	Message  string    `json:"message,omitempty"`
	Data     any       `json:"data,omitempty"`
}

type client struct {
	id       uuid.UUID
	userID   uuid.UUID
	location string
	events   chan Event
}

// Service manages SSE connections and event broadcasting
type Service struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*client
	log     *logger.Logger
}

// New creates a new SSE service
func New(log *logger.Logger) *Service {
	return &Service{clients: make(map[uuid.UUID]*client), log: log}
}

func (s *Service) addClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.id] = c
}

func (s *Service) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c.id]; !ok {
		return
	}
	delete(s.clients, c.id)
	close(c.events)
}

// Broadcast sends an event to every client watching its location. It never
// blocks: a client with a full buffer misses the event.
func (s *Service) Broadcast(event Event) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	delivered := 0
	for _, c := range s.clients {
		if event.Location != "" && c.location != "" && c.location != event.Location {
			continue
		}
		select {
		case c.events <- event:
			delivered++
		default:
			s.log.Warn("sse buffer full", "clientId", c.id, "userId", c.userID)
		}
	}
	return delivered
}

// ClientCount returns the number of open connections.
func (s *Service) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Handler returns a Gin handler for SSE connections. ?location= narrows the
// stream to one store.
// GET /api/v1/stream
func (s *Service) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := httpkit.GetIdentity(c)
		if !identity.IsAuthenticated() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		cl := &client{
			id:       uuid.New(),
			userID:   identity.UserID(),
			location: c.Query("location"),
			events:   make(chan Event, 32),
		}
		s.addClient(cl)
		defer s.removeClient(cl)

		c.SSEvent("connected", gin.H{"user_id": cl.userID, "location": cl.location})
		c.Writer.Flush()
		s.log.Debug("sse client connected", "clientId", cl.id, "location", cl.location)

		clientGone := c.Request.Context().Done()
		for {
			select {
			case <-clientGone:
				return
			case event, ok := <-cl.events:
				if !ok {
					return
				}
				data, _ := json.Marshal(event)
				c.SSEvent(string(event.Type), string(data))
				c.Writer.Flush()
			}
		}
	}
}

// Close disconnects every client.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.clients {
		close(c.events)
		delete(s.clients, id)
	}
}
