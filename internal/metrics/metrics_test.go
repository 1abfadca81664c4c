package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInMemoryRecorder_Counts(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	m.IncProfileCreated("user")
	m.IncProfileCreated("superuser")
	m.IncFeedItemCreated()
	m.IncFeedItemsDeleted(3)
	m.IncFeedItemsDeleted(0)
	m.IncLoginAttempt(LoginSuccess)
	m.IncLoginAttempt(LoginInvalid)
	m.IncLoginAttempt(LoginThrottled)
	m.ObserveRequest("GET", "/api/profile", 200, 5*time.Millisecond)

	s := m.Snapshot()
	if s.ProfilesCreated != 2 || s.SuperusersCreated != 1 {
		t.Errorf("profiles = %d/%d, want 2/1", s.ProfilesCreated, s.SuperusersCreated)
	}
	if s.FeedItemsDeleted != 3 {
		t.Errorf("FeedItemsDeleted = %d, want 3", s.FeedItemsDeleted)
	}
	if s.LoginSuccesses != 1 || s.LoginFailures != 1 || s.LoginThrottled != 1 {
		t.Errorf("logins = %+v", s)
	}
	if s.Requests != 1 || s.RequestTotalNanos != (5*time.Millisecond).Nanoseconds() {
		t.Errorf("requests = %d / %d", s.Requests, s.RequestTotalNanos)
	}
}

func TestPrometheusRecorder(t *testing.T) {
	t.Parallel()

	p := NewPrometheus()
	p.IncProfileCreated("user")
	p.IncProfileCreated("user")
	p.IncFeedItemsDeleted(4)
	p.IncLoginAttempt(LoginInvalid)
	p.ObserveRequest("GET", "", 404, time.Millisecond)

	if got := testutil.ToFloat64(p.profilesCreated.WithLabelValues("user")); got != 2 {
		t.Errorf("profiles_created_total{kind=user} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(p.feedDeleted); got != 4 {
		t.Errorf("feed_items_deleted_total = %v, want 4", got)
	}
	n, err := testutil.GatherAndCount(p.Registry(), "profiles_profiles_created_total")
	if err != nil || n != 1 {
		t.Errorf("profiles_created_total series = %d, %v; want 1", n, err)
	}

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		"profiles_login_attempts_total{result=\"invalid\"} 1",
		"route=\"unmatched\"",
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}
