package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stintapp/stint/internal/auth"
	"github.com/stintapp/stint/internal/view"
	"github.com/stintapp/stint/pkg/tracker"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// setSessionCookie mirrors the session token into a cookie so browser
// clients stay signed in without managing the Authorization header.
func (s *Server) setSessionCookie(c *gin.Context, token string) {
	c.SetCookie(SessionCookie, token, int(s.cfg.SessionTTL.Seconds()), "/", "", false, true)
}

func (s *Server) clearSessionCookie(c *gin.Context) {
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
}

func (s *Server) handleSignUp(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sess, err := s.auth.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrPasswordTooShort):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			log.Printf("[Server] Sign-up failed: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to create account"})
		}
		return
	}

	s.logEvent("account_created", map[string]interface{}{
		"user_id": sess.User.ID,
	})

	s.setSessionCookie(c, sess.Token)
	c.JSON(http.StatusCreated, sess)
}

func (s *Server) handleSignIn(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sess, err := s.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[Server] Sign-in failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to sign in"})
		return
	}

	s.logEvent("session_opened", map[string]interface{}{
		"user_id": sess.User.ID,
	})

	s.setSessionCookie(c, sess.Token)
	c.JSON(http.StatusOK, sess)
}

// handleSignOut revokes the presented session. Signing out without a
// live session is not an error: the caller's goal state is "no
// session", and that is already true.
func (s *Server) handleSignOut(c *gin.Context) {
	token := sessionToken(c)
	if token != "" {
		if err := s.auth.SignOut(c.Request.Context(), token); err != nil {
			log.Printf("[Server] Sign-out failed: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to sign out"})
			return
		}
		s.logEvent("session_closed", map[string]interface{}{})
	}

	s.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

func (s *Server) handleMe(c *gin.Context) {
	c.JSON(http.StatusOK, currentSession(c).User)
}

func (s *Server) handleListApplications(c *gin.Context) {
	sess := currentSession(c)

	apps, err := s.store.List(c.Request.Context(), sess.User.ID)
	if err != nil {
		log.Printf("[Server] Failed to list applications: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to list applications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"applications": apps,
		"count":        len(apps),
	})
}

func (s *Server) handleCreateApplication(c *gin.Context) {
	sess := currentSession(c)

	var draft tracker.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	app, err := s.store.Create(c.Request.Context(), sess.User.ID, draft)
	if err != nil {
		if tracker.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[Server] Failed to create application: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to create application"})
		return
	}

	s.logEvent("application_created", map[string]interface{}{
		"application_id": app.ID,
		"user_id":        sess.User.ID,
		"status":         string(app.Status),
	})

	c.JSON(http.StatusCreated, app)
}

func (s *Server) handleGetApplication(c *gin.Context) {
	sess := currentSession(c)

	app, err := s.store.Get(c.Request.Context(), sess.User.ID, c.Param("id"))
	if err != nil {
		if tracker.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "application not found"})
			return
		}
		log.Printf("[Server] Failed to get application: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to get application"})
		return
	}

	c.JSON(http.StatusOK, app)
}

func (s *Server) handleUpdateApplication(c *gin.Context) {
	sess := currentSession(c)

	var draft tracker.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	app, err := s.store.Update(c.Request.Context(), sess.User.ID, c.Param("id"), draft)
	if err != nil {
		switch {
		case tracker.IsNotFound(err):
			c.JSON(http.StatusNotFound, gin.H{"error": "application not found"})
		case tracker.IsValidationError(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			log.Printf("[Server] Failed to update application: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to update application"})
		}
		return
	}

	s.logEvent("application_updated", map[string]interface{}{
		"application_id": app.ID,
		"user_id":        sess.User.ID,
		"status":         string(app.Status),
	})

	c.JSON(http.StatusOK, app)
}

func (s *Server) handleDeleteApplication(c *gin.Context) {
	sess := currentSession(c)

	id := c.Param("id")
	if err := s.store.Delete(c.Request.Context(), sess.User.ID, id); err != nil {
		if tracker.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "application not found"})
			return
		}
		log.Printf("[Server] Failed to delete application: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to delete application"})
		return
	}

	s.logEvent("application_deleted", map[string]interface{}{
		"application_id": id,
		"user_id":        sess.User.ID,
	})

	c.JSON(http.StatusOK, gin.H{"id": id, "deleted": true})
}

// handleDashboard returns the derived dashboard state for the signed-in
// user: the filtered, searched and sorted list plus counts over the
// whole collection.
func (s *Server) handleDashboard(c *gin.Context) {
	sess := currentSession(c)

	q, err := queryFromParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	apps, err := s.store.List(c.Request.Context(), sess.User.ID)
	if err != nil {
		log.Printf("[Server] Failed to list applications: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load dashboard"})
		return
	}

	c.JSON(http.StatusOK, view.Derive(apps, q))
}

// queryFromParams reads the view selection from the status, search and
// sort URL parameters, the same names the CLI flags use. Absent
// parameters fall back to the dashboard defaults.
func queryFromParams(c *gin.Context) (view.Query, error) {
	filter, err := view.ParseStatusFilter(c.Query("status"))
	if err != nil {
		return view.Query{}, err
	}
	order, err := view.ParseOrder(c.Query("sort"))
	if err != nil {
		return view.Query{}, err
	}
	return view.Query{Filter: filter, Search: c.Query("search"), Sort: order}, nil
}
