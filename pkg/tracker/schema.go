package tracker

import "fmt"

// Redis key pattern helpers
//
// All Redis keys and Pub/Sub channels are namespaced by environment name so
// that several Stint environments (production, staging, throwaway test runs)
// can coexist on a single Redis server. Within an environment, every key is
// further scoped by the owning user's ID - a user only ever reads and writes
// under their own prefix.
//
// Key pattern: stint:{environment}:user:{user_id}:{entity}[:{id}]
// Channel pattern: stint:{environment}:user:{user_id}:{event_type}_events

// ApplicationKey returns the Redis key for one application document.
// Pattern: stint:{environment}:user:{user_id}:application:{application_id}
func ApplicationKey(environment, userID, applicationID string) string {
	return fmt.Sprintf("stint:%s:user:%s:application:%s", environment, userID, applicationID)
}

// ApplicationIndexKey returns the Redis key for a user's application index.
// The index is a ZSET whose members are application IDs scored by creation
// time, which gives List its creation-time ordering.
// Pattern: stint:{environment}:user:{user_id}:applications
func ApplicationIndexKey(environment, userID string) string {
	return fmt.Sprintf("stint:%s:user:%s:applications", environment, userID)
}

// ApplicationEventsChannel returns the Pub/Sub channel carrying change
// events for one user's applications. Every create, update and delete
// publishes here; subscribers re-read the full set on each event.
// Pattern: stint:{environment}:user:{user_id}:application_events
func ApplicationEventsChannel(environment, userID string) string {
	return fmt.Sprintf("stint:%s:user:%s:application_events", environment, userID)
}

// CreatedScore converts a creation timestamp to a Redis ZSET score.
// Applications with no acknowledged timestamp carry 0 and therefore sort
// as the oldest entries in the index.
func CreatedScore(createdAtMs int64) float64 {
	return float64(createdAtMs)
}

// CreatedAtMsFromScore converts a Redis ZSET score back to a creation timestamp.
func CreatedAtMsFromScore(score float64) int64 {
	return int64(score)
}
