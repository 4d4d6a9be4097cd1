package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stintapp/stint/internal/auth"
	"github.com/stintapp/stint/internal/view"
	"github.com/stintapp/stint/pkg/tracker"
)

// setupTestServer creates a Server backed by an in-process miniredis.
func setupTestServer(t *testing.T) (*Server, *miniredis.Miniredis) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)

	cfg := &Config{
		RedisURL:    "redis://" + mr.Addr(),
		ListenAddr:  ":0",
		Environment: "test",
		SessionTTL:  time.Hour,
	}
	s, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s, mr
}

// doJSON performs a request against the server's router and returns the
// recorded response. A nil body sends no payload; a non-empty token is
// sent as a bearer credential.
func doJSON(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

// signUpTestUser registers an account and returns its session.
func signUpTestUser(t *testing.T, s *Server, email string) *auth.Session {
	t.Helper()

	w := doJSON(t, s, http.MethodPost, "/api/v1/auth/signup", "", credentialsRequest{
		Email:    email,
		Password: "hunter2hunter2",
	})
	require.Equal(t, http.StatusCreated, w.Code, "sign-up response: %s", w.Body.String())

	var sess auth.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))
	require.NotEmpty(t, sess.Token)
	return &sess
}

// createTestApplication writes one application through the API.
func createTestApplication(t *testing.T, s *Server, token string, draft tracker.Draft) tracker.Application {
	t.Helper()

	w := doJSON(t, s, http.MethodPost, "/api/v1/applications", token, draft)
	require.Equal(t, http.StatusCreated, w.Code, "create response: %s", w.Body.String())

	var app tracker.Application
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &app))
	return app
}

func sessionCookieValue(w *httptest.ResponseRecorder) (string, bool) {
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookie {
			return c.Value, true
		}
	}
	return "", false
}

func TestNew_InvalidConfig(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("missing Redis URL", func(t *testing.T) {
		_, err := New(&Config{ListenAddr: ":0", Environment: "test", SessionTTL: time.Hour})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Redis URL")
	})

	t.Run("malformed Redis URL", func(t *testing.T) {
		_, err := New(&Config{RedisURL: "not-a-url", ListenAddr: ":0", Environment: "test", SessionTTL: time.Hour})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Redis URL")
	})
}

func TestHealthz(t *testing.T) {
	t.Run("healthy when Redis responds", func(t *testing.T) {
		s, _ := setupTestServer(t)

		w := doJSON(t, s, http.MethodGet, "/healthz", "", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"healthy"`)
		assert.Contains(t, w.Body.String(), `"redis":"connected"`)
	})

	t.Run("unhealthy when Redis is down", func(t *testing.T) {
		s, mr := setupTestServer(t)
		mr.Close()

		w := doJSON(t, s, http.MethodGet, "/healthz", "", nil)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"unhealthy"`)
		assert.Contains(t, w.Body.String(), `"redis":"disconnected"`)
	})
}

func TestSignUp(t *testing.T) {
	t.Run("creates account and starts session", func(t *testing.T) {
		s, _ := setupTestServer(t)

		w := doJSON(t, s, http.MethodPost, "/api/v1/auth/signup", "", credentialsRequest{
			Email:    "ada@example.com",
			Password: "hunter2hunter2",
		})

		require.Equal(t, http.StatusCreated, w.Code)

		var sess auth.Session
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))
		assert.NotEmpty(t, sess.Token)
		assert.Equal(t, "ada@example.com", sess.User.Email)
		assert.NotEmpty(t, sess.User.ID)

		cookie, ok := sessionCookieValue(w)
		require.True(t, ok, "expected a session cookie")
		assert.Equal(t, sess.Token, cookie)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		s, _ := setupTestServer(t)
		signUpTestUser(t, s, "ada@example.com")

		w := doJSON(t, s, http.MethodPost, "/api/v1/auth/signup", "", credentialsRequest{
			Email:    "ada@example.com",
			Password: "hunter2hunter2",
		})

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("rejects invalid credentials", func(t *testing.T) {
		s, _ := setupTestServer(t)

		w := doJSON(t, s, http.MethodPost, "/api/v1/auth/signup", "", credentialsRequest{
			Email:    "not-an-email",
			Password: "hunter2hunter2",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = doJSON(t, s, http.MethodPost, "/api/v1/auth/signup", "", credentialsRequest{
			Email:    "ada@example.com",
			Password: "short",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		s, _ := setupTestServer(t)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", strings.NewReader("{nope"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		s.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSignIn(t *testing.T) {
	t.Run("returns a fresh session for valid credentials", func(t *testing.T) {
		s, _ := setupTestServer(t)
		signUpTestUser(t, s, "ada@example.com")

		w := doJSON(t, s, http.MethodPost, "/api/v1/auth/signin", "", credentialsRequest{
			Email:    "ada@example.com",
			Password: "hunter2hunter2",
		})

		require.Equal(t, http.StatusOK, w.Code)

		var sess auth.Session
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))
		assert.NotEmpty(t, sess.Token)
		assert.Equal(t, "ada@example.com", sess.User.Email)

		_, ok := sessionCookieValue(w)
		assert.True(t, ok, "expected a session cookie")
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		s, _ := setupTestServer(t)
		signUpTestUser(t, s, "ada@example.com")

		w := doJSON(t, s, http.MethodPost, "/api/v1/auth/signin", "", credentialsRequest{
			Email:    "ada@example.com",
			Password: "wrong-password",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects unknown account", func(t *testing.T) {
		s, _ := setupTestServer(t)

		w := doJSON(t, s, http.MethodPost, "/api/v1/auth/signin", "", credentialsRequest{
			Email:    "nobody@example.com",
			Password: "hunter2hunter2",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestSignOut(t *testing.T) {
	t.Run("revokes the session", func(t *testing.T) {
		s, _ := setupTestServer(t)
		sess := signUpTestUser(t, s, "ada@example.com")

		w := doJSON(t, s, http.MethodPost, "/api/v1/auth/signout", sess.Token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, s, http.MethodGet, "/api/v1/me", sess.Token, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("succeeds without a session", func(t *testing.T) {
		s, _ := setupTestServer(t)

		w := doJSON(t, s, http.MethodPost, "/api/v1/auth/signout", "", nil)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestMe(t *testing.T) {
	t.Run("returns the signed-in user", func(t *testing.T) {
		s, _ := setupTestServer(t)
		sess := signUpTestUser(t, s, "ada@example.com")

		w := doJSON(t, s, http.MethodGet, "/api/v1/me", sess.Token, nil)

		require.Equal(t, http.StatusOK, w.Code)

		var user auth.User
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
		assert.Equal(t, sess.User.ID, user.ID)
		assert.Equal(t, "ada@example.com", user.Email)
	})

	t.Run("accepts the session cookie", func(t *testing.T) {
		s, _ := setupTestServer(t)
		sess := signUpTestUser(t, s, "ada@example.com")

		req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sess.Token})
		w := httptest.NewRecorder()
		s.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects missing and stale tokens", func(t *testing.T) {
		s, _ := setupTestServer(t)

		w := doJSON(t, s, http.MethodGet, "/api/v1/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = doJSON(t, s, http.MethodGet, "/api/v1/me", "stale-token", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestApplications_CRUD(t *testing.T) {
	s, _ := setupTestServer(t)
	sess := signUpTestUser(t, s, "ada@example.com")

	t.Run("create defaults status to applied", func(t *testing.T) {
		app := createTestApplication(t, s, sess.Token, tracker.Draft{
			Company: "Acme",
			Role:    "Backend Intern",
		})

		assert.NotEmpty(t, app.ID)
		assert.Equal(t, tracker.StatusApplied, app.Status)
		assert.Greater(t, app.CreatedAtMs, int64(0))
	})

	t.Run("create rejects an empty company", func(t *testing.T) {
		w := doJSON(t, s, http.MethodPost, "/api/v1/applications", sess.Token, tracker.Draft{
			Company: "   ",
			Role:    "Backend Intern",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "company")
	})

	t.Run("list returns the collection", func(t *testing.T) {
		w := doJSON(t, s, http.MethodGet, "/api/v1/applications", sess.Token, nil)

		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Applications []tracker.Application `json:"applications"`
			Count        int                   `json:"count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Count)
		assert.Equal(t, "Acme", resp.Applications[0].Company)
	})

	t.Run("get, update and delete round-trip", func(t *testing.T) {
		app := createTestApplication(t, s, sess.Token, tracker.Draft{
			Company: "Zen Gardens",
			Role:    "Data Intern",
		})

		w := doJSON(t, s, http.MethodGet, "/api/v1/applications/"+app.ID, sess.Token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, s, http.MethodPut, "/api/v1/applications/"+app.ID, sess.Token, tracker.Draft{
			Company: "Zen Gardens",
			Role:    "Data Intern",
			Status:  tracker.StatusInterview,
			Notes:   "phone screen Friday",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var updated tracker.Application
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
		assert.Equal(t, app.ID, updated.ID)
		assert.Equal(t, tracker.StatusInterview, updated.Status)
		assert.Equal(t, app.CreatedAtMs, updated.CreatedAtMs, "creation time survives edits")

		w = doJSON(t, s, http.MethodDelete, "/api/v1/applications/"+app.ID, sess.Token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, s, http.MethodGet, "/api/v1/applications/"+app.ID, sess.Token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown IDs are 404", func(t *testing.T) {
		missing := "00000000-0000-4000-8000-000000000000"

		w := doJSON(t, s, http.MethodGet, "/api/v1/applications/"+missing, sess.Token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = doJSON(t, s, http.MethodDelete, "/api/v1/applications/"+missing, sess.Token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("requires a session", func(t *testing.T) {
		w := doJSON(t, s, http.MethodGet, "/api/v1/applications", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestApplications_UserIsolation(t *testing.T) {
	s, _ := setupTestServer(t)
	ada := signUpTestUser(t, s, "ada@example.com")
	grace := signUpTestUser(t, s, "grace@example.com")

	app := createTestApplication(t, s, ada.Token, tracker.Draft{
		Company: "Acme",
		Role:    "Backend Intern",
	})

	t.Run("another user's list is empty", func(t *testing.T) {
		w := doJSON(t, s, http.MethodGet, "/api/v1/applications", grace.Token, nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"count":0`)
	})

	t.Run("another user cannot reach the record by ID", func(t *testing.T) {
		w := doJSON(t, s, http.MethodGet, "/api/v1/applications/"+app.ID, grace.Token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = doJSON(t, s, http.MethodDelete, "/api/v1/applications/"+app.ID, grace.Token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = doJSON(t, s, http.MethodGet, "/api/v1/applications/"+app.ID, ada.Token, nil)
		assert.Equal(t, http.StatusOK, w.Code, "the owner still sees it")
	})
}

func TestDashboardEndpoint(t *testing.T) {
	s, _ := setupTestServer(t)
	sess := signUpTestUser(t, s, "ada@example.com")

	createTestApplication(t, s, sess.Token, tracker.Draft{Company: "Acme", Role: "Backend Intern"})
	createTestApplication(t, s, sess.Token, tracker.Draft{Company: "Zen Gardens", Role: "Data Intern", Status: tracker.StatusOffer})
	createTestApplication(t, s, sess.Token, tracker.Draft{Company: "Nimbus", Role: "Platform Intern", Status: tracker.StatusOffer})

	dashboardState := func(t *testing.T, path string) view.State {
		t.Helper()
		w := doJSON(t, s, http.MethodGet, path, sess.Token, nil)
		require.Equal(t, http.StatusOK, w.Code, "dashboard response: %s", w.Body.String())
		var state view.State
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
		return state
	}

	t.Run("default view returns everything with counts", func(t *testing.T) {
		state := dashboardState(t, "/api/v1/dashboard")

		assert.Len(t, state.Applications, 3)
		assert.Equal(t, 3, state.Counts.Total)
		assert.Equal(t, 1, state.Counts.ByStatus[tracker.StatusApplied])
		assert.Equal(t, 2, state.Counts.ByStatus[tracker.StatusOffer])
	})

	t.Run("filter narrows the list but not the counts", func(t *testing.T) {
		state := dashboardState(t, "/api/v1/dashboard?status=offer")

		assert.Len(t, state.Applications, 2)
		assert.Equal(t, 3, state.Counts.Total)
	})

	t.Run("search and sort apply", func(t *testing.T) {
		state := dashboardState(t, "/api/v1/dashboard?search=acme")
		require.Len(t, state.Applications, 1)
		assert.Equal(t, "Acme", state.Applications[0].Company)

		state = dashboardState(t, "/api/v1/dashboard?sort=company-az")
		require.Len(t, state.Applications, 3)
		assert.Equal(t, "Acme", state.Applications[0].Company)
		assert.Equal(t, "Zen Gardens", state.Applications[2].Company)
	})

	t.Run("rejects unknown selections", func(t *testing.T) {
		w := doJSON(t, s, http.MethodGet, "/api/v1/dashboard?status=bogus", sess.Token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = doJSON(t, s, http.MethodGet, "/api/v1/dashboard?sort=bogus", sess.Token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGatePages(t *testing.T) {
	t.Run("dashboard redirects signed-out visitors to sign-in", func(t *testing.T) {
		s, _ := setupTestServer(t)

		w := doJSON(t, s, http.MethodGet, "/dashboard", "", nil)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/signin", w.Header().Get("Location"))
	})

	t.Run("dashboard treats a stale token as signed out", func(t *testing.T) {
		s, _ := setupTestServer(t)

		w := doJSON(t, s, http.MethodGet, "/dashboard", "stale-token", nil)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/signin", w.Header().Get("Location"))
	})

	t.Run("dashboard serves signed-in visitors", func(t *testing.T) {
		s, _ := setupTestServer(t)
		sess := signUpTestUser(t, s, "ada@example.com")

		w := doJSON(t, s, http.MethodGet, "/dashboard", sess.Token, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "ada@example.com")
	})

	t.Run("sign-in page serves signed-out visitors", func(t *testing.T) {
		s, _ := setupTestServer(t)

		w := doJSON(t, s, http.MethodGet, "/signin", "", nil)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("sign-in page redirects signed-in visitors to the dashboard", func(t *testing.T) {
		s, _ := setupTestServer(t)
		sess := signUpTestUser(t, s, "ada@example.com")

		w := doJSON(t, s, http.MethodGet, "/signin", sess.Token, nil)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/dashboard", w.Header().Get("Location"))
	})
}

func TestStream(t *testing.T) {
	s, _ := setupTestServer(t)
	sess := signUpTestUser(t, s, "ada@example.com")
	createTestApplication(t, s, sess.Token, tracker.Draft{Company: "Acme", Role: "Backend Intern"})

	ts := httptest.NewServer(s.engine)
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+sess.Token)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	// readEvent scans forward to the next data line.
	scanner := bufio.NewScanner(resp.Body)
	readEvent := func() string {
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, "data:") {
				return strings.TrimPrefix(line, "data:")
			}
		}
		t.Fatalf("stream ended before an event arrived: %v", scanner.Err())
		return ""
	}

	var first view.State
	require.NoError(t, json.Unmarshal([]byte(readEvent()), &first))
	assert.Equal(t, 1, first.Counts.Total, "initial snapshot carries the existing record")

	// A write lands as a fresh snapshot on the open stream.
	createTestApplication(t, s, sess.Token, tracker.Draft{Company: "Zen Gardens", Role: "Data Intern"})

	var second view.State
	require.NoError(t, json.Unmarshal([]byte(readEvent()), &second))
	assert.Equal(t, 2, second.Counts.Total)
}

func TestStream_RequiresSession(t *testing.T) {
	s, _ := setupTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/api/v1/stream", "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStream_RejectsUnknownSelection(t *testing.T) {
	s, _ := setupTestServer(t)
	sess := signUpTestUser(t, s, "ada@example.com")

	w := doJSON(t, s, http.MethodGet, "/api/v1/stream?status=bogus", sess.Token, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueryFromParams(t *testing.T) {
	s, _ := setupTestServer(t)
	sess := signUpTestUser(t, s, "ada@example.com")
	createTestApplication(t, s, sess.Token, tracker.Draft{Company: "Acme", Role: "Backend Intern", Notes: "referral from Sam"})

	// Search terms are matched case-insensitively after trimming, so a
	// padded uppercase query still finds the record.
	path := fmt.Sprintf("/api/v1/dashboard?search=%s", "ACME")
	w := doJSON(t, s, http.MethodGet, path, sess.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var state view.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Len(t, state.Applications, 1)
}
