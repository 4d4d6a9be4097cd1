// Package auth provides account registration and session management on
// Redis. Accounts are hashes keyed by lowercased email; sessions are
// short hashes keyed by an opaque token with a sliding TTL. Passwords are
// stored as bcrypt hashes and never leave this package.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the minimum accepted password length for sign-up.
const MinPasswordLength = 8

// DefaultSessionTTL keeps sessions alive for 30 days of inactivity.
// Both surfaces mint sessions with this unless configured otherwise.
const DefaultSessionTTL = 720 * time.Hour

// Sentinel errors surfaced to users. Anything else coming out of this
// package is an infrastructure failure and should be logged, not shown.
var (
	// ErrInvalidCredentials covers both unknown email and wrong password,
	// indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken indicates a sign-up against an already registered email.
	ErrEmailTaken = errors.New("an account with this email already exists")

	// ErrNoSession indicates a missing or expired session token.
	ErrNoSession = errors.New("no active session")

	// ErrInvalidEmail indicates a sign-up email that is not a plausible address.
	ErrInvalidEmail = errors.New("email address is not valid")

	// ErrPasswordTooShort indicates a sign-up password below MinPasswordLength.
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
)

// User identifies a signed-up account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is a resolved sign-in: an opaque token plus the user it belongs to.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Service performs account and session operations against Redis.
// Safe for concurrent use.
type Service struct {
	rdb         *redis.Client
	environment string
	sessionTTL  time.Duration
	now         func() time.Time
}

// NewService creates an auth service for the given environment.
// sessionTTL bounds how long a session survives without being resolved;
// every successful Resolve slides the window forward.
func NewService(redisOpts *redis.Options, environment string, sessionTTL time.Duration) (*Service, error) {
	if environment == "" {
		return nil, fmt.Errorf("environment name cannot be empty")
	}
	if sessionTTL <= 0 {
		return nil, fmt.Errorf("session TTL must be positive, got %s", sessionTTL)
	}

	return &Service{
		rdb:         redis.NewClient(redisOpts),
		environment: environment,
		sessionTTL:  sessionTTL,
		now:         time.Now,
	}, nil
}

// Close closes the Redis connection. Implements io.Closer.
func (s *Service) Close() error {
	return s.rdb.Close()
}

// accountKey returns the Redis key for an account hash.
// Pattern: stint:{environment}:account:{email} (email already lowercased)
func accountKey(environment, email string) string {
	return fmt.Sprintf("stint:%s:account:%s", environment, email)
}

// sessionKey returns the Redis key for a session hash.
// Pattern: stint:{environment}:session:{token}
func sessionKey(environment, token string) string {
	return fmt.Sprintf("stint:%s:session:%s", environment, token)
}

// SignUp registers a new account and signs it in.
// Returns ErrInvalidEmail, ErrPasswordTooShort or ErrEmailTaken for user
// mistakes; any other error is an infrastructure failure.
func (s *Service) SignUp(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// HSetNX on user_id claims the email atomically; a concurrent sign-up
	// for the same address loses the race and sees ErrEmailTaken.
	userID := uuid.New().String()
	key := accountKey(s.environment, email)
	claimed, err := s.rdb.HSetNX(ctx, key, "user_id", userID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to claim account: %w", err)
	}
	if !claimed {
		return nil, ErrEmailTaken
	}

	fields := map[string]interface{}{
		"email":         email,
		"password_hash": string(passwordHash),
		"created_at_ms": s.now().UnixMilli(),
	}
	if err := s.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return nil, fmt.Errorf("failed to write account: %w", err)
	}

	return s.createSession(ctx, User{ID: userID, Email: email})
}

// SignIn authenticates an email/password pair and creates a session.
// Unknown email and wrong password both return ErrInvalidCredentials.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)

	key := accountKey(s.environment, email)
	account, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read account: %w", err)
	}
	if len(account) == 0 {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account["password_hash"]), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.createSession(ctx, User{ID: account["user_id"], Email: email})
}

// SignOut destroys a session. Signing out a token that is already dead is
// not an error.
func (s *Service) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.rdb.Del(ctx, sessionKey(s.environment, token)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Resolve maps a session token to its user and slides the TTL window
// forward. Returns ErrNoSession for a missing, expired or empty token.
func (s *Service) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoSession
	}

	key := sessionKey(s.environment, token)
	data, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNoSession
	}

	if err := s.rdb.Expire(ctx, key, s.sessionTTL).Err(); err != nil {
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}

	return &Session{
		Token: token,
		User:  User{ID: data["user_id"], Email: data["email"]},
	}, nil
}

// createSession mints a fresh token for the user.
func (s *Service) createSession(ctx context.Context, user User) (*Session, error) {
	token := uuid.New().String()
	key := sessionKey(s.environment, token)

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]interface{}{
			"user_id": user.ID,
			"email":   user.Email,
		})
		pipe.Expire(ctx, key, s.sessionTTL)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &Session{Token: token, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateEmail applies a shape check, not RFC validation: one "@" with a
// non-empty local part and a domain containing a dot.
func validateEmail(email string) error {
	if strings.Count(email, "@") != 1 {
		return ErrInvalidEmail
	}
	at := strings.Index(email, "@")
	if at == 0 || at == len(email)-1 {
		return ErrInvalidEmail
	}
	domain := email[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return ErrInvalidEmail
	}
	if strings.ContainsAny(email, " \t\n") {
		return ErrInvalidEmail
	}
	return nil
}
