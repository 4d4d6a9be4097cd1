package server

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stintapp/stint/internal/auth"
	"github.com/stintapp/stint/internal/gate"
	"github.com/stintapp/stint/internal/session"
)

// SessionCookie is the cookie browsers use to carry the session token.
// API clients send the same token as a bearer credential instead.
const SessionCookie = "stint_session"

const contextSessionKey = "stint.session"

// sessionToken extracts the session token from the request, preferring
// the Authorization header over the cookie. Returns "" when neither is
// present.
func sessionToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if token, err := c.Cookie(SessionCookie); err == nil {
		return token
	}
	return ""
}

// requireSession resolves the request's session token and aborts with
// 401 when there is none. The resolved session is stashed on the gin
// context for handlers further down the chain.
func (s *Server) requireSession(c *gin.Context) {
	sess, err := s.auth.Resolve(c.Request.Context(), sessionToken(c))
	if err != nil {
		if errors.Is(err, auth.ErrNoSession) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		log.Printf("[Server] Failed to resolve session: %v", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "failed to resolve session"})
		return
	}

	c.Set(contextSessionKey, sess)
	c.Next()
}

// currentSession returns the session stashed by requireSession. Only
// valid on handlers behind that middleware.
func currentSession(c *gin.Context) *auth.Session {
	v, ok := c.Get(contextSessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*auth.Session)
	return sess
}

// gateState builds the routing view of the visitor's session. On the
// server every request resolves synchronously, so the state is always
// settled: either signed in or signed out, never resolving.
func (s *Server) gateState(c *gin.Context) session.State {
	token := sessionToken(c)
	if token == "" {
		return session.State{}
	}
	sess, err := s.auth.Resolve(c.Request.Context(), token)
	if err != nil {
		if !errors.Is(err, auth.ErrNoSession) {
			log.Printf("[Server] Failed to resolve session: %v", err)
		}
		return session.State{}
	}
	return session.State{User: &sess.User}
}

// handleSignInPage answers the sign-in entry point. Visitors who are
// already signed in are sent to the dashboard instead, with a redirect
// the client should not keep in history.
func (s *Server) handleSignInPage(c *gin.Context) {
	d := gate.DecidePublic(s.gateState(c))
	if d.Status == gate.Redirect {
		c.Redirect(http.StatusSeeOther, d.Location)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"page":   "signin",
		"signup": "/api/v1/auth/signup",
		"signin": "/api/v1/auth/signin",
	})
}

// handleDashboardPage answers the dashboard entry point, sending
// signed-out visitors to the sign-in page.
func (s *Server) handleDashboardPage(c *gin.Context) {
	st := s.gateState(c)
	d := gate.Decide(st)
	if d.Status == gate.Redirect {
		c.Redirect(http.StatusSeeOther, d.Location)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"page":  "dashboard",
		"user":  st.User,
		"state": "/api/v1/dashboard",
	})
}
