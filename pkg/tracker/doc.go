// Package tracker provides type-safe Go definitions and Redis schema
// patterns for Stint application records.
//
// # Overview
//
// The tracker is the storage boundary shared by every Stint component (the
// stintd daemon, the stint CLI, tests). An application record is one
// internship application owned by one user; records live in Redis as hashes,
// a per-user ZSET keeps them ordered by creation time, and a per-user
// Pub/Sub channel pushes change events so that consumers can hold a live,
// always-current view without polling.
//
// # Core Concepts
//
// Applications are the only document type. The store assigns the ID and the
// creation timestamp; company, role, status and notes are user-editable via
// a Draft, which is normalized and validated before any write.
//
// Subscriptions deliver full-replacement snapshots: after every change event
// the subscriber receives the complete, freshly ordered record set. There is
// no incremental patching contract - consumers swap their cached set
// wholesale, which makes the cache a pure function of the last delivery.
//
// Statuses form a closed enumeration (applied, online_assessment, interview,
// offer, rejected). Writes with an unknown status are rejected; reads coerce
// unknown stored values to "applied" so legacy documents cannot poison the
// pipeline.
//
// # Multi-Environment Support
//
// All Redis keys and Pub/Sub channels are namespaced by environment name to
// enable several Stint environments to safely coexist on a single Redis
// server. Within an environment, keys are further scoped per user.
//
// # Usage Example
//
//	import "github.com/stintapp/stint/pkg/tracker"
//
//	client, err := tracker.NewClient(&redis.Options{Addr: "localhost:6379"}, "default")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Create a record; the store assigns ID and CreatedAtMs
//	app, err := client.Create(ctx, userID, tracker.Draft{
//		Company: "Acme",
//		Role:    "SWE Intern",
//		Status:  tracker.StatusApplied,
//	})
//
//	// Hold a live view
//	sub, err := client.Subscribe(ctx, userID)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer sub.Close()
//	for apps := range sub.Events() {
//		render(apps) // full-replacement snapshot, newest first
//	}
//
// # Redis Schema
//
// Documents: stint:{environment}:user:{user_id}:application:{application_id}
// Index: stint:{environment}:user:{user_id}:applications (ZSET, score = created_at_ms)
// Events: stint:{environment}:user:{user_id}:application_events (Pub/Sub)
//
// # Design Principles
//
// - Type Safety: all data structures carry validation methods
// - Single Writer: subscriptions are the only path that refreshes a cache;
//   mutations never patch local state
// - Collapsed Errors: every store failure surfaces as one StoreError kind
// - Isolation: environment and user namespacing prevent cross-tenant reads
package tracker
