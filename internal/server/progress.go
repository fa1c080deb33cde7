package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"codeberg.org/snonux/polyglot/internal/logger"
)

// StageDone is the stage of the last event sent for a job
const StageDone = "done"

// Event is one progress update sent to browser sessions
type Event struct {
	Job     string `json:"job"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// Hub fans job progress out to websocket subscribers. A browser picks a
// session id, opens /progress?session=<id> and posts its upload with the
// same session; the upload handler binds the job to that session.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]map[chan Event]struct{}
	jobs     map[string]string
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]map[chan Event]struct{}),
		jobs:     make(map[string]string),
	}
}

// Subscribe returns a channel receiving the session's events and a
// function that unsubscribes
func (h *Hub) Subscribe(session string) (<-chan Event, func()) {
	ch := make(chan Event, 16)
	h.mu.Lock()
	if h.sessions[session] == nil {
		h.sessions[session] = make(map[chan Event]struct{})
	}
	h.sessions[session][ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if subs, ok := h.sessions[session]; ok {
			delete(subs, ch)
			if len(subs) == 0 {
				delete(h.sessions, session)
			}
		}
	}
}

// Bind routes the job's events to session. The returned function sends
// the final done event and removes the binding.
func (h *Hub) Bind(jobID, session string) func() {
	h.mu.Lock()
	h.jobs[jobID] = session
	h.mu.Unlock()

	return func() {
		h.Report(jobID, StageDone, "")
		h.mu.Lock()
		delete(h.jobs, jobID)
		h.mu.Unlock()
	}
}

// Report publishes a stage update; it has the pipeline.ProgressFunc
// signature. Slow subscribers miss events rather than block the job.
func (h *Hub) Report(jobID, stage, message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	session, ok := h.jobs[jobID]
	if !ok {
		return
	}
	ev := Event{Job: jobID, Stage: stage, Message: message}
	for ch := range h.sessions[session] {
		select {
		case ch <- ev:
		default:
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler streams a session's events as JSON websocket messages
func (h *Hub) Handler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := c.Query("session")
		if session == "" {
			c.String(http.StatusBadRequest, "Missing session ID")
			return
		}
		events, unsubscribe := h.Subscribe(session)
		defer unsubscribe()

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn("websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		// Detect the client going away
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case ev := <-events:
				conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(ev); err != nil {
					return
				}
			case <-closed:
				return
			case <-c.Request.Context().Done():
				return
			}
		}
	}
}
