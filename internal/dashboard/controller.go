// Package dashboard owns the interactive state behind the application
// list: the cached snapshot fed by the store subscription, the user's
// filter, search and sort selection, the shared create-or-edit form, and
// the saving and error flags around store calls. The subscription loop is
// the only writer of the cached set; mutations ask the store for a change
// and wait for the next snapshot to observe it, so there is no local
// dual-write to race against the server.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/stintapp/stint/internal/view"
	"github.com/stintapp/stint/pkg/tracker"
)

// Guard errors returned by controller actions. They describe misuse of
// the surface itself; store and validation failures keep their own types.
var (
	// ErrSaveInProgress rejects a submission while an earlier one is
	// still in flight.
	ErrSaveInProgress = errors.New("a save is already in progress")

	// ErrNoFormOpen rejects a submission when no form is open.
	ErrNoFormOpen = errors.New("no form is open")

	// ErrNoPendingDelete rejects a delete confirmation when none was requested.
	ErrNoPendingDelete = errors.New("no delete is awaiting confirmation")
)

// saveFailedMessage is the generic inline message shown for store
// failures. The underlying error goes to the log, not the user.
const saveFailedMessage = "could not save your changes, please try again"

// FormMode says what the shared create-or-edit form is doing.
type FormMode int

const (
	// FormIdle means the form is closed.
	FormIdle FormMode = iota

	// FormCreating means the form holds a draft for a new application.
	FormCreating

	// FormEditing means the form holds edits to an existing application.
	FormEditing
)

// String returns the mode name for logs.
func (m FormMode) String() string {
	switch m {
	case FormIdle:
		return "idle"
	case FormCreating:
		return "creating"
	case FormEditing:
		return "editing"
	default:
		return "unknown"
	}
}

// FormState is the shared form as a tagged value: exactly one mode, with
// ApplicationID set only while editing.
type FormState struct {
	Mode          FormMode
	ApplicationID string
	Draft         tracker.Draft
}

// State is everything a renderer needs for one frame of the dashboard.
type State struct {
	// View is the derived list and counts for the current query.
	View view.State

	// Query is the active filter, search and sort selection.
	Query view.Query

	// Form is the create-or-edit form.
	Form FormState

	// Saving is true while a store mutation is in flight. The form
	// must not submit again until it clears.
	Saving bool

	// Err is the current inline error message, empty when clear.
	Err string

	// PendingDelete holds the ID awaiting delete confirmation, empty
	// when none.
	PendingDelete string

	// Ready flips to true once the first snapshot has arrived.
	Ready bool
}

// Controller drives the dashboard for one signed-in user.
// All methods are safe for concurrent use.
type Controller struct {
	client *tracker.Client
	userID string

	mu            sync.Mutex
	apps          []tracker.Application
	ready         bool
	query         view.Query
	form          FormState
	saving        bool
	errMsg        string
	pendingDelete string
	watchers      map[int]chan State
	nextID        int
}

// NewController creates a controller for the given user. The user ID
// comes from a settled, signed-in session; an empty one is refused here
// so no mutation can ever run unauthenticated.
func NewController(client *tracker.Client, userID string) (*Controller, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID cannot be empty")
	}
	return &Controller{
		client:   client,
		userID:   userID,
		query:    view.DefaultQuery(),
		watchers: make(map[int]chan State),
	}, nil
}

// Run subscribes to the user's applications and applies snapshots until
// the context is cancelled. It is the sole writer of the cached set.
func (c *Controller) Run(ctx context.Context) error {
	sub, err := c.client.Subscribe(ctx, c.userID)
	if err != nil {
		return fmt.Errorf("failed to subscribe to applications: %w", err)
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case snapshot, ok := <-sub.Events():
			if !ok {
				return nil
			}
			c.applySnapshot(snapshot)

		case err, ok := <-sub.Errors():
			if !ok {
				return nil
			}
			// Non-fatal: the next snapshot supersedes whatever was missed
			log.Printf("[Dashboard] Subscription error: %v", err)
		}
	}
}

// State derives the current frame.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Watch registers a watcher and returns its delivery channel plus a
// cancel function. The current state is delivered immediately; afterwards
// the channel always carries the latest state, replacing any undelivered
// one.
func (c *Controller) Watch() (<-chan State, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++

	ch := make(chan State, 1)
	ch <- c.stateLocked()
	c.watchers[id] = ch

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if w, ok := c.watchers[id]; ok {
			delete(c.watchers, id)
			close(w)
		}
	}

	return ch, cancel
}

// SetFilter switches the status filter.
func (c *Controller) SetFilter(f view.StatusFilter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query.Filter = f
	c.notifyLocked()
}

// SetSearch replaces the search text.
func (c *Controller) SetSearch(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query.Search = s
	c.notifyLocked()
}

// SetSort switches the sort order.
func (c *Controller) SetSort(o view.Order) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query.Sort = o
	c.notifyLocked()
}

// BeginCreate opens the form with an empty draft for a new application.
// Any edit in progress is discarded.
func (c *Controller) BeginCreate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = FormState{
		Mode:  FormCreating,
		Draft: tracker.Draft{Status: tracker.StatusApplied},
	}
	c.errMsg = ""
	c.notifyLocked()
}

// BeginEdit opens the form seeded from the cached copy of the record.
// No fresh fetch happens here: if the record changed elsewhere since the
// last snapshot, submitting overwrites that change. Acceptable for a
// single-owner collection.
func (c *Controller) BeginEdit(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, a := range c.apps {
		if a.ID != id {
			continue
		}
		c.form = FormState{
			Mode:          FormEditing,
			ApplicationID: a.ID,
			Draft: tracker.Draft{
				Company: a.Company,
				Role:    a.Role,
				Status:  a.Status,
				Notes:   a.Notes,
			},
		}
		c.errMsg = ""
		c.notifyLocked()
		return nil
	}
	return fmt.Errorf("application %s is not in the current list", id)
}

// SetDraft replaces the form draft with the user's latest input.
// Ignored while the form is closed.
func (c *Controller) SetDraft(d tracker.Draft) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.form.Mode == FormIdle {
		return
	}
	c.form.Draft = d
	c.notifyLocked()
}

// Cancel closes the form and clears any inline error.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = FormState{}
	c.errMsg = ""
	c.notifyLocked()
}

// Submit validates the draft and sends it to the store. Validation
// problems become inline errors without a store call; store failures
// become a generic inline message and go to the log. On success the form
// closes and the change arrives through the next snapshot.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.saving {
		c.mu.Unlock()
		return ErrSaveInProgress
	}
	form := c.form
	if form.Mode == FormIdle {
		c.mu.Unlock()
		return ErrNoFormOpen
	}

	// Catch bad input locally before any network round-trip
	draft := form.Draft.Normalized()
	if err := draft.Validate(); err != nil {
		c.errMsg = err.Error()
		c.notifyLocked()
		c.mu.Unlock()
		return err
	}

	c.saving = true
	c.errMsg = ""
	c.notifyLocked()
	c.mu.Unlock()

	var err error
	switch form.Mode {
	case FormCreating:
		_, err = c.client.Create(ctx, c.userID, draft)
	case FormEditing:
		_, err = c.client.Update(ctx, c.userID, form.ApplicationID, draft)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.saving = false
	if err != nil {
		log.Printf("[Dashboard] Failed to save application (%s): %v", form.Mode, err)
		c.errMsg = saveFailedMessage
		c.notifyLocked()
		return err
	}

	c.form = FormState{}
	c.notifyLocked()
	return nil
}

// RequestDelete marks a record for deletion pending confirmation.
func (c *Controller) RequestDelete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingDelete = id
	c.notifyLocked()
}

// CancelDelete withdraws a pending delete request.
func (c *Controller) CancelDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingDelete = ""
	c.notifyLocked()
}

// ConfirmDelete deletes the record marked by RequestDelete.
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	if c.saving {
		c.mu.Unlock()
		return ErrSaveInProgress
	}
	id := c.pendingDelete
	if id == "" {
		c.mu.Unlock()
		return ErrNoPendingDelete
	}
	c.saving = true
	c.errMsg = ""
	c.notifyLocked()
	c.mu.Unlock()

	err := c.client.Delete(ctx, c.userID, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.saving = false
	c.pendingDelete = ""
	if err != nil {
		log.Printf("[Dashboard] Failed to delete application %s: %v", id, err)
		c.errMsg = saveFailedMessage
		c.notifyLocked()
		return err
	}
	c.notifyLocked()
	return nil
}

// applySnapshot replaces the cached set with a fresh snapshot.
func (c *Controller) applySnapshot(apps []tracker.Application) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apps = apps
	c.ready = true
	c.notifyLocked()
}

func (c *Controller) stateLocked() State {
	return State{
		View:          view.Derive(c.apps, c.query),
		Query:         c.query,
		Form:          c.form,
		Saving:        c.saving,
		Err:           c.errMsg,
		PendingDelete: c.pendingDelete,
		Ready:         c.ready,
	}
}

// notifyLocked pushes the current state to every watcher, replacing any
// undelivered state. Callers must hold c.mu.
func (c *Controller) notifyLocked() {
	st := c.stateLocked()
	for _, ch := range c.watchers {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- st:
		default:
		}
	}
}
