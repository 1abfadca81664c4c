// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Login attempt results.
const (
	LoginSuccess   = "success"
	LoginInvalid   = "invalid"
	LoginThrottled = "throttled"
)

// Recorder captures metric events for the application.
type Recorder interface {
	// Identity metrics. kind is "user" or "superuser".
	IncProfileCreated(kind string)
	IncProfileUpdated()
	IncProfileDeleted()

	// Feed metrics. n counts items removed, including cascaded ones.
	IncFeedItemCreated()
	IncFeedItemsDeleted(n int)

	IncLoginAttempt(result string)

	ObserveRequest(method, route string, status int, duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
