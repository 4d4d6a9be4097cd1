package tracker

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

// TestApplicationKey tests application key generation
func TestApplicationKey(t *testing.T) {
	userID := uuid.New().String()
	applicationID := uuid.New().String()

	key := ApplicationKey("default", userID, applicationID)

	expected := "stint:default:user:" + userID + ":application:" + applicationID
	if key != expected {
		t.Errorf("ApplicationKey() = %q, expected %q", key, expected)
	}

	// Verify format
	if !strings.HasPrefix(key, "stint:") {
		t.Error("application key should start with 'stint:'")
	}
	if !strings.Contains(key, ":application:") {
		t.Error("application key should contain ':application:'")
	}
}

// TestApplicationIndexKey tests index key generation
func TestApplicationIndexKey(t *testing.T) {
	userID := uuid.New().String()

	key := ApplicationIndexKey("staging", userID)

	expected := "stint:staging:user:" + userID + ":applications"
	if key != expected {
		t.Errorf("ApplicationIndexKey() = %q, expected %q", key, expected)
	}

	// Verify format
	if !strings.HasPrefix(key, "stint:") {
		t.Error("index key should start with 'stint:'")
	}
	if !strings.HasSuffix(key, ":applications") {
		t.Error("index key should end with ':applications'")
	}
}

// TestApplicationEventsChannel tests events channel name generation
func TestApplicationEventsChannel(t *testing.T) {
	userID := uuid.New().String()

	channel := ApplicationEventsChannel("default", userID)

	expected := "stint:default:user:" + userID + ":application_events"
	if channel != expected {
		t.Errorf("ApplicationEventsChannel() = %q, expected %q", channel, expected)
	}

	// Verify format
	if !strings.HasPrefix(channel, "stint:") {
		t.Error("events channel should start with 'stint:'")
	}
	if !strings.HasSuffix(channel, ":application_events") {
		t.Error("events channel should end with ':application_events'")
	}
}

// TestEnvironmentNamespacing tests that different environments produce different keys
func TestEnvironmentNamespacing(t *testing.T) {
	userID := uuid.New().String()
	applicationID := uuid.New().String()

	key1 := ApplicationKey("default", userID, applicationID)
	key2 := ApplicationKey("staging", userID, applicationID)
	key3 := ApplicationKey("test-1", userID, applicationID)

	// All keys should be different
	if key1 == key2 || key1 == key3 || key2 == key3 {
		t.Error("keys for different environments should be different")
	}

	// But they should all contain the same application ID
	if !strings.Contains(key1, applicationID) || !strings.Contains(key2, applicationID) || !strings.Contains(key3, applicationID) {
		t.Error("all keys should contain the application ID")
	}
}

// TestUserNamespacing tests that different users produce different keys and channels
func TestUserNamespacing(t *testing.T) {
	userA := uuid.New().String()
	userB := uuid.New().String()
	applicationID := uuid.New().String()

	if ApplicationKey("default", userA, applicationID) == ApplicationKey("default", userB, applicationID) {
		t.Error("keys for different users should be different")
	}
	if ApplicationIndexKey("default", userA) == ApplicationIndexKey("default", userB) {
		t.Error("index keys for different users should be different")
	}
	if ApplicationEventsChannel("default", userA) == ApplicationEventsChannel("default", userB) {
		t.Error("event channels for different users should be different")
	}
}

// TestCreatedScore tests timestamp/score conversion round-trip
func TestCreatedScore(t *testing.T) {
	timestamps := []int64{0, 1, 1700000000000, 1755993600123}

	for _, ms := range timestamps {
		score := CreatedScore(ms)
		if got := CreatedAtMsFromScore(score); got != ms {
			t.Errorf("score round-trip for %d returned %d", ms, got)
		}
	}

	// Pending records (no acknowledged timestamp) score as zero
	if CreatedScore(0) != 0 {
		t.Error("zero timestamp should score as zero")
	}
}
