package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	ProfilesCreated   uint64
	SuperusersCreated uint64
	ProfilesUpdated   uint64
	ProfilesDeleted   uint64
	FeedItemsCreated  uint64
	FeedItemsDeleted  uint64
	LoginSuccesses    uint64
	LoginFailures     uint64
	LoginThrottled    uint64
	Requests          uint64
	RequestTotalNanos int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	profilesCreated   atomic.Uint64
	superusersCreated atomic.Uint64
	profilesUpdated   atomic.Uint64
	profilesDeleted   atomic.Uint64
	feedItemsCreated  atomic.Uint64
	feedItemsDeleted  atomic.Uint64
	loginSuccesses    atomic.Uint64
	loginFailures     atomic.Uint64
	loginThrottled    atomic.Uint64
	requests          atomic.Uint64
	requestTotalNanos atomic.Int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		ProfilesCreated:   m.profilesCreated.Load(),
		SuperusersCreated: m.superusersCreated.Load(),
		ProfilesUpdated:   m.profilesUpdated.Load(),
		ProfilesDeleted:   m.profilesDeleted.Load(),
		FeedItemsCreated:  m.feedItemsCreated.Load(),
		FeedItemsDeleted:  m.feedItemsDeleted.Load(),
		LoginSuccesses:    m.loginSuccesses.Load(),
		LoginFailures:     m.loginFailures.Load(),
		LoginThrottled:    m.loginThrottled.Load(),
		Requests:          m.requests.Load(),
		RequestTotalNanos: m.requestTotalNanos.Load(),
	}
}

// IncProfileCreated counts created profiles; superusers are also counted separately.
func (m *InMemoryRecorder) IncProfileCreated(kind string) {
	m.profilesCreated.Add(1)
	if kind == "superuser" {
		m.superusersCreated.Add(1)
	}
}

func (m *InMemoryRecorder) IncProfileUpdated() {
	m.profilesUpdated.Add(1)
}

func (m *InMemoryRecorder) IncProfileDeleted() {
	m.profilesDeleted.Add(1)
}

func (m *InMemoryRecorder) IncFeedItemCreated() {
	m.feedItemsCreated.Add(1)
}

// IncFeedItemsDeleted adds n removed feed items.
func (m *InMemoryRecorder) IncFeedItemsDeleted(n int) {
	if n > 0 {
		m.feedItemsDeleted.Add(uint64(n))
	}
}

// IncLoginAttempt counts a login attempt by result.
func (m *InMemoryRecorder) IncLoginAttempt(result string) {
	switch result {
	case LoginSuccess:
		m.loginSuccesses.Add(1)
	case LoginThrottled:
		m.loginThrottled.Add(1)
	default:
		m.loginFailures.Add(1)
	}
}

// ObserveRequest records a served request.
func (m *InMemoryRecorder) ObserveRequest(_, _ string, _ int, d time.Duration) {
	m.requests.Add(1)
	m.requestTotalNanos.Add(d.Nanoseconds())
}
