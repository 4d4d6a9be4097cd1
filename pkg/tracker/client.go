package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Client provides environment-scoped Redis operations for application
// records. All keys and channels are automatically namespaced with the
// environment name and the owning user's ID. The client is thread-safe and
// can be used concurrently from multiple goroutines.
//
// Mutations never return the caller's view of the data ahead of the store:
// create/update/delete write to Redis, publish a change event, and rely on
// active subscriptions to deliver the next full snapshot. Callers holding a
// cached set must not patch it locally.
type Client struct {
	rdb         *redis.Client
	environment string
	now         func() time.Time
}

// NewClient creates a new tracker client for the specified environment.
// The client automatically namespaces all keys and channels with the
// environment name.
//
// Returns an error if environment is empty.
func NewClient(redisOpts *redis.Options, environment string) (*Client, error) {
	if environment == "" {
		return nil, fmt.Errorf("environment name cannot be empty")
	}

	return &Client{
		rdb:         redis.NewClient(redisOpts),
		environment: environment,
		now:         time.Now,
	}, nil
}

// Close closes the Redis connection. Implements io.Closer.
// After calling Close(), the client should not be used.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
// Returns an error if Redis is not reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Create writes a new application for the given user and publishes a change
// event. The store assigns the ID (UUID) and CreatedAtMs; the draft is
// normalized and validated first, so invalid submissions never reach Redis.
//
// Returns the stored record, or a *ValidationError / *StoreError.
func (c *Client) Create(ctx context.Context, userID string, draft Draft) (*Application, error) {
	if userID == "" {
		return nil, &ValidationError{Field: "user_id", Reason: "cannot be empty"}
	}

	draft = draft.Normalized()
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		ID:          uuid.New().String(),
		Company:     draft.Company,
		Role:        draft.Role,
		Status:      draft.Status,
		Notes:       draft.Notes,
		CreatedAtMs: c.now().UnixMilli(),
	}

	// Document write and index entry land together
	key := ApplicationKey(c.environment, userID, app.ID)
	indexKey := ApplicationIndexKey(c.environment, userID)
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, ApplicationToHash(app))
		pipe.ZAdd(ctx, indexKey, redis.Z{
			Score:  CreatedScore(app.CreatedAtMs),
			Member: app.ID,
		})
		return nil
	})
	if err != nil {
		return nil, &StoreError{Op: "create", Err: err}
	}

	if err := c.publishChange(ctx, userID, ChangeCreated, app); err != nil {
		return nil, &StoreError{Op: "create", Err: err}
	}

	return app, nil
}

// Get retrieves one application by ID.
// A missing record is reported as a *StoreError wrapping redis.Nil; use
// IsNotFound() to distinguish it when that matters (the CLI resolver does,
// the dashboard does not).
func (c *Client) Get(ctx context.Context, userID, applicationID string) (*Application, error) {
	app, err := c.getApplication(ctx, userID, applicationID)
	if err != nil {
		return nil, &StoreError{Op: "get", Err: err}
	}
	return app, nil
}

// Update overwrites the user-editable fields (company, role, status, notes)
// of an existing application and publishes a change event. ID and
// CreatedAtMs are never touched.
//
// Returns the stored record, or a *ValidationError / *StoreError.
func (c *Client) Update(ctx context.Context, userID, applicationID string, draft Draft) (*Application, error) {
	if userID == "" {
		return nil, &ValidationError{Field: "user_id", Reason: "cannot be empty"}
	}

	draft = draft.Normalized()
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	existing, err := c.getApplication(ctx, userID, applicationID)
	if err != nil {
		return nil, &StoreError{Op: "update", Err: err}
	}

	updated := *existing
	updated.Company = draft.Company
	updated.Role = draft.Role
	updated.Status = draft.Status
	updated.Notes = draft.Notes

	key := ApplicationKey(c.environment, userID, applicationID)
	if err := c.rdb.HSet(ctx, key, ApplicationToHash(&updated)).Err(); err != nil {
		return nil, &StoreError{Op: "update", Err: err}
	}

	if err := c.publishChange(ctx, userID, ChangeUpdated, &updated); err != nil {
		return nil, &StoreError{Op: "update", Err: err}
	}

	return &updated, nil
}

// Delete removes an application permanently and publishes a change event
// carrying the record's last state. Deleting a missing record is a
// *StoreError like any other store failure.
func (c *Client) Delete(ctx context.Context, userID, applicationID string) error {
	existing, err := c.getApplication(ctx, userID, applicationID)
	if err != nil {
		return &StoreError{Op: "delete", Err: err}
	}

	key := ApplicationKey(c.environment, userID, applicationID)
	indexKey := ApplicationIndexKey(c.environment, userID)
	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.ZRem(ctx, indexKey, applicationID)
		return nil
	})
	if err != nil {
		return &StoreError{Op: "delete", Err: err}
	}

	if err := c.publishChange(ctx, userID, ChangeDeleted, existing); err != nil {
		return &StoreError{Op: "delete", Err: err}
	}

	return nil
}

// List retrieves all of a user's applications ordered by creation time,
// descending (most recent first). Index entries whose document vanished
// mid-read are skipped rather than failing the whole listing.
func (c *Client) List(ctx context.Context, userID string) ([]Application, error) {
	indexKey := ApplicationIndexKey(c.environment, userID)

	ids, err := c.rdb.ZRevRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}

	apps := make([]Application, 0, len(ids))
	for _, id := range ids {
		app, err := c.getApplication(ctx, userID, id)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, &StoreError{Op: "list", Err: err}
		}
		apps = append(apps, *app)
	}

	return apps, nil
}

// getApplication reads one document hash. Returns redis.Nil if the key
// does not exist; callers wrap into *StoreError with their own operation.
func (c *Client) getApplication(ctx context.Context, userID, applicationID string) (*Application, error) {
	key := ApplicationKey(c.environment, userID, applicationID)

	hashData, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read application from Redis: %w", err)
	}

	// HGetAll returns an empty map for non-existent keys
	if len(hashData) == 0 {
		return nil, redis.Nil
	}

	return HashToApplication(hashData), nil
}

// publishChange publishes a full-record change event on the user's channel.
func (c *Client) publishChange(ctx context.Context, userID string, kind ChangeKind, app *Application) error {
	event := ChangeEvent{Kind: kind, Application: *app}
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	channel := ApplicationEventsChannel(c.environment, userID)
	if err := c.rdb.Publish(ctx, channel, eventJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}

	return nil
}

// Subscription represents an active live subscription to one user's
// application set. Each delivery on Events() is a complete replacement
// snapshot ordered by creation time descending - consumers swap their
// cached set wholesale, never patch it.
//
// Caller must call Close() when done to release the underlying Pub/Sub
// subscription; context cancellation does the same. Failing to do either
// leaks a standing subscription per call.
type Subscription struct {
	events <-chan []Application
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of snapshot deliveries.
// The channel is closed when the subscription is closed or the context is
// cancelled.
func (s *Subscription) Events() <-chan []Application {
	return s.events
}

// Errors returns the channel of subscription errors.
// Errors include listing failures and malformed event payloads; the
// subscription continues after errors - the affected delivery is skipped.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription and cleans up resources. Implements io.Closer.
// Safe to call multiple times - subsequent calls are no-ops.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// Subscribe establishes a live subscription to the given user's application
// set. One full snapshot is delivered immediately, then a fresh snapshot
// after every change event on the user's channel. Caller must call
// subscription.Close() when done.
//
// Snapshots are delivered on a buffered channel (size 10). Intermediate
// snapshots carry no information a later one lacks, so a slow consumer only
// delays itself.
//
// There should be exactly one active subscription per signed-in session;
// release it before establishing one for a different user.
func (c *Client) Subscribe(ctx context.Context, userID string) (*Subscription, error) {
	if userID == "" {
		return nil, &ValidationError{Field: "user_id", Reason: "cannot be empty"}
	}

	channel := ApplicationEventsChannel(c.environment, userID)
	pubsub := c.rdb.Subscribe(ctx, channel)

	eventsChan := make(chan []Application, 10)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		// Initial snapshot. The Pub/Sub subscription is already standing,
		// so a write racing this listing just produces one extra delivery.
		if apps, err := c.List(subCtx, userID); err != nil {
			select {
			case errorsChan <- err:
			case <-subCtx.Done():
				return
			}
		} else {
			select {
			case eventsChan <- apps:
			case <-subCtx.Done():
				return
			}
		}

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				// Events carry the changed record for observability, but a
				// snapshot is always re-read in full - the payload only gets
				// sanity-checked here.
				var event ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal change event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				apps, err := c.List(subCtx, userID)
				if err != nil {
					select {
					case errorsChan <- err:
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- apps:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}
