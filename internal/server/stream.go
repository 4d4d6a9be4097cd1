package server

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stintapp/stint/internal/view"
)

// heartbeatInterval paces the SSE comment frames that keep idle
// connections alive through proxies.
const heartbeatInterval = 25 * time.Second

// handleStream serves the live dashboard over server-sent events. Each
// event carries the full derived state for the connection's view
// selection, so clients swap what they render wholesale instead of
// patching. The stream stays open until the client disconnects.
func (s *Server) handleStream(c *gin.Context) {
	sess := currentSession(c)

	q, err := queryFromParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := s.store.Subscribe(c.Request.Context(), sess.User.ID)
	if err != nil {
		log.Printf("[Server] Failed to subscribe for user %s: %v", sess.User.ID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to open stream"})
		return
	}
	defer sub.Close()

	c.Writer.Header().Set("Cache-Control", "no-cache")

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case apps, ok := <-sub.Events():
			if !ok {
				return false
			}
			c.SSEvent("dashboard", view.Derive(apps, q))
			return true
		case err, ok := <-sub.Errors():
			if !ok {
				return false
			}
			// The subscription survives individual failures; tell the
			// client its view may be stale and keep the stream open.
			log.Printf("[Server] Stream error for user %s: %v", sess.User.ID, err)
			c.SSEvent("error", gin.H{"error": "failed to refresh dashboard"})
			return true
		case <-heartbeat.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
