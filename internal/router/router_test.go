package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/profilesapi/profiles/internal/auth"
	"github.com/profilesapi/profiles/internal/cache"
	"github.com/profilesapi/profiles/internal/config"
	"github.com/profilesapi/profiles/internal/handler"
	"github.com/profilesapi/profiles/internal/metrics"
	"github.com/profilesapi/profiles/internal/middleware"
	"github.com/profilesapi/profiles/internal/repository/memory"
	"github.com/profilesapi/profiles/internal/service"
)

var testHasher = auth.NewHasher(auth.Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16})

type testServer struct {
	srv      *httptest.Server
	profiles *service.ProfileService
	metrics  *metrics.InMemoryRecorder
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, &config.Config{AppEnv: "test", MaxRequestBodySize: 1 << 20}, nil)
}

func newTestServerWith(t *testing.T, cfg *config.Config, limiter middleware.RateLimiter) *testServer {
	t.Helper()

	store := memory.New()
	rec := metrics.NewInMemory()
	profiles := service.NewProfileService(store, nil, testHasher, rec)

	r := New(Deps{
		Config:   cfg,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:  rec,
		Profiles: profiles,
		Feed:     service.NewFeedService(store, store, rec),
		Auth:     service.NewAuthService(store, store, nil, testHasher, auth.EnvTest, rec),
		Limiter:  limiter,
		Health:   map[string]handler.HealthChecker{"memory": store},
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, profiles: profiles, metrics: rec}
}

// do sends a JSON request and decodes a JSON object response when present.
func (ts *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, ts.srv.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if len(bytes.TrimSpace(raw)) == 0 {
		return resp.StatusCode, nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
	}
	return resp.StatusCode, out
}

func (ts *testServer) register(t *testing.T, email, name, password string) string {
	t.Helper()
	code, body := ts.do(t, http.MethodPost, "/api/profile", "", map[string]string{
		"email": email, "name": name, "password": password,
	})
	if code != http.StatusCreated {
		t.Fatalf("register %s: status %d, body %v", email, code, body)
	}
	return body["id"].(string)
}

func (ts *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	code, body := ts.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"email": email, "password": password,
	})
	if code != http.StatusOK {
		t.Fatalf("login %s: status %d, body %v", email, code, body)
	}
	return body["token"].(string)
}

func fieldsOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	fields, ok := body["fields"].(map[string]any)
	if !ok {
		t.Fatalf("expected fields in error body, got %v", body)
	}
	return fields
}

func TestHelloEndpoints_TrimName(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		path   string
		suffix string
	}{
		{"/api/hello-view", ""},
		{"/api/hello-viewset", "!"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			code, body := ts.do(t, http.MethodPost, tt.path, "", map[string]string{"name": "     "})
			if code != http.StatusBadRequest {
				t.Fatalf("blank name = %d %v, want 400", code, body)
			}
			if _, ok := fieldsOf(t, body)["name"]; !ok {
				t.Errorf("expected name field error, got %v", body)
			}

			code, body = ts.do(t, http.MethodPost, tt.path, "", map[string]string{"name": "  Ann  "})
			if want := "Hello Ann" + tt.suffix; code != http.StatusOK || body["message"] != want {
				t.Errorf("padded name = %d %v, want %q", code, body, want)
			}
		})
	}
}

func TestHelloView(t *testing.T) {
	ts := newTestServer(t)

	code, body := ts.do(t, http.MethodGet, "/api/hello-view", "", nil)
	if code != http.StatusOK {
		t.Fatalf("GET status = %d", code)
	}
	if body["message"] != "Hello" {
		t.Errorf("message = %v", body["message"])
	}
	if features, _ := body["an_apiview"].([]any); len(features) != 4 {
		t.Errorf("an_apiview = %v, want 4 entries", body["an_apiview"])
	}

	code, body = ts.do(t, http.MethodPost, "/api/hello-view", "", map[string]string{"name": "Ada"})
	if code != http.StatusOK || body["message"] != "Hello Ada" {
		t.Errorf("POST = %d %v", code, body)
	}

	code, body = ts.do(t, http.MethodPost, "/api/hello-view", "", map[string]string{"name": "ElevenChars"})
	if code != http.StatusBadRequest {
		t.Fatalf("long name status = %d", code)
	}
	if _, ok := fieldsOf(t, body)["name"]; !ok {
		t.Errorf("expected name field error, got %v", body)
	}

	code, body = ts.do(t, http.MethodPost, "/api/hello-view", "", map[string]string{})
	if code != http.StatusBadRequest {
		t.Errorf("missing name status = %d, body %v", code, body)
	}

	for _, path := range []string{"/api/hello-view", "/api/hello-view/7"} {
		for _, method := range []string{http.MethodPut, http.MethodPatch, http.MethodDelete} {
			code, body := ts.do(t, method, path, "", nil)
			if code != http.StatusOK || body["method"] != method {
				t.Errorf("%s %s = %d %v", method, path, code, body)
			}
		}
	}
}

func TestHelloViewSet(t *testing.T) {
	ts := newTestServer(t)

	code, body := ts.do(t, http.MethodGet, "/api/hello-viewset", "", nil)
	if code != http.StatusOK || body["message"] != "Hello!" {
		t.Fatalf("list = %d %v", code, body)
	}
	if features, _ := body["a_viewset"].([]any); len(features) != 3 {
		t.Errorf("a_viewset = %v, want 3 entries", body["a_viewset"])
	}

	code, body = ts.do(t, http.MethodPost, "/api/hello-viewset", "", map[string]string{"name": "Bob"})
	if code != http.StatusOK || body["message"] != "Hello Bob!" {
		t.Errorf("create = %d %v", code, body)
	}

	tests := []struct {
		method string
		want   string
	}{
		{http.MethodGet, "GET"},
		{http.MethodPut, "PUT"},
		{http.MethodPatch, "PATCH"},
		{http.MethodDelete, "DELETE"},
	}
	for _, tt := range tests {
		code, body := ts.do(t, tt.method, "/api/hello-viewset/1", "", nil)
		if code != http.StatusOK || body["http_method"] != tt.want {
			t.Errorf("%s /1 = %d %v", tt.method, code, body)
		}
	}
}

func TestProfileLifecycle(t *testing.T) {
	ts := newTestServer(t)

	code, body := ts.do(t, http.MethodPost, "/api/profile", "", map[string]string{
		"email": "Ada@Example.COM", "name": "Ada", "password": "secret-pw",
	})
	if code != http.StatusCreated {
		t.Fatalf("create status = %d, body %v", code, body)
	}
	if body["email"] != "ada@example.com" {
		t.Errorf("email = %v, want normalized", body["email"])
	}
	if _, leaked := body["password"]; leaked {
		t.Error("password must not be returned")
	}
	adaID := body["id"].(string)

	// Case differences do not make a distinct email.
	code, body = ts.do(t, http.MethodPost, "/api/profile", "", map[string]string{
		"email": "ADA@example.com", "name": "Imposter", "password": "pw",
	})
	if code != http.StatusBadRequest {
		t.Fatalf("duplicate status = %d", code)
	}
	if fieldsOf(t, body)["email"] != service.MsgEmailTaken {
		t.Errorf("duplicate fields = %v", body["fields"])
	}

	code, body = ts.do(t, http.MethodPost, "/api/profile", "", map[string]string{"name": "No Email", "password": "pw"})
	if code != http.StatusBadRequest || fieldsOf(t, body)["email"] == nil {
		t.Errorf("missing email = %d %v", code, body)
	}

	bobID := ts.register(t, "bob@example.com", "Bob", "bob-pw")
	adaToken := ts.login(t, "ada@example.com", "secret-pw")

	code, body = ts.do(t, http.MethodPatch, "/api/profile/"+adaID, adaToken, map[string]string{"name": "Ada L."})
	if code != http.StatusOK || body["name"] != "Ada L." || body["email"] != "ada@example.com" {
		t.Errorf("patch own = %d %v", code, body)
	}

	code, _ = ts.do(t, http.MethodPatch, "/api/profile/"+bobID, adaToken, map[string]string{"name": "Hacked"})
	if code != http.StatusForbidden {
		t.Errorf("patch other status = %d, want 403", code)
	}

	code, _ = ts.do(t, http.MethodPatch, "/api/profile/"+adaID, "", map[string]string{"name": "Anon"})
	if code != http.StatusUnauthorized {
		t.Errorf("anonymous patch status = %d, want 401", code)
	}

	code, body = ts.do(t, http.MethodPut, "/api/profile/"+adaID, adaToken, map[string]string{"name": "Only Name"})
	if code != http.StatusBadRequest {
		t.Fatalf("incomplete put status = %d", code)
	}
	if fields := fieldsOf(t, body); fields["email"] == nil || fields["password"] == nil {
		t.Errorf("incomplete put fields = %v", fields)
	}

	code, body = ts.do(t, http.MethodGet, "/api/profile/"+bobID, "", nil)
	if code != http.StatusOK || body["name"] != "Bob" {
		t.Errorf("retrieve = %d %v", code, body)
	}

	code, body = ts.do(t, http.MethodGet, "/api/profile?search=bob", "", nil)
	if code != http.StatusOK {
		t.Fatalf("search status = %d", code)
	}
	if data, _ := body["data"].([]any); len(data) != 1 {
		t.Errorf("search results = %v", body["data"])
	}

	code, body = ts.do(t, http.MethodGet, "/api/profile/missing", "", nil)
	if code != http.StatusNotFound || body["code"] != "PROFILE_NOT_FOUND" {
		t.Errorf("missing profile = %d %v", code, body)
	}
}

func TestPasswordChangeAffectsLogin(t *testing.T) {
	ts := newTestServer(t)

	id := ts.register(t, "carol@example.com", "Carol", "old-pw")
	token := ts.login(t, "carol@example.com", "old-pw")

	code, _ := ts.do(t, http.MethodPatch, "/api/profile/"+id, token, map[string]string{"password": "new-pw"})
	if code != http.StatusOK {
		t.Fatalf("password change status = %d", code)
	}

	code, body := ts.do(t, http.MethodPost, "/api/login", "", map[string]string{"email": "carol@example.com", "password": "old-pw"})
	if code != http.StatusUnauthorized || body["code"] != "INVALID_CREDENTIALS" {
		t.Errorf("old password login = %d %v", code, body)
	}
	ts.login(t, "carol@example.com", "new-pw")
}

func TestFeedOwnershipAndCascade(t *testing.T) {
	ts := newTestServer(t)

	adaID := ts.register(t, "ada@example.com", "Ada", "pw-ada")
	bobID := ts.register(t, "bob@example.com", "Bob", "pw-bob")
	adaToken := ts.login(t, "ada@example.com", "pw-ada")
	bobToken := ts.login(t, "bob@example.com", "pw-bob")

	code, _ := ts.do(t, http.MethodPost, "/api/feed", "", map[string]string{"status_text": "anon"})
	if code != http.StatusUnauthorized {
		t.Errorf("anonymous create status = %d, want 401", code)
	}

	// The owner is the caller regardless of the body.
	code, body := ts.do(t, http.MethodPost, "/api/feed", adaToken, map[string]string{
		"status_text": "first post", "user_profile": bobID,
	})
	if code != http.StatusCreated {
		t.Fatalf("create status = %d, body %v", code, body)
	}
	if body["user_profile"] != adaID || body["status_text"] != "first post" || body["created_on"] == nil {
		t.Errorf("created item = %v", body)
	}
	itemID := body["id"].(string)

	code, body = ts.do(t, http.MethodPost, "/api/feed", adaToken, map[string]string{"status_text": strings.Repeat("x", 256)})
	if code != http.StatusBadRequest || fieldsOf(t, body)["status_text"] == nil {
		t.Errorf("long status = %d %v", code, body)
	}

	ts.do(t, http.MethodPost, "/api/feed", bobToken, map[string]string{"status_text": "bob post"})

	code, body = ts.do(t, http.MethodGet, "/api/feed?user_profile="+adaID, "", nil)
	if code != http.StatusOK {
		t.Fatalf("list status = %d", code)
	}
	if data, _ := body["data"].([]any); len(data) != 1 {
		t.Errorf("filtered feed = %v", body["data"])
	}

	code, _ = ts.do(t, http.MethodPatch, "/api/feed/"+itemID, bobToken, map[string]string{"status_text": "mine now"})
	if code != http.StatusForbidden {
		t.Errorf("foreign patch status = %d, want 403", code)
	}

	code, body = ts.do(t, http.MethodPatch, "/api/feed/"+itemID, adaToken, map[string]string{"status_text": "edited"})
	if code != http.StatusOK || body["status_text"] != "edited" {
		t.Errorf("own patch = %d %v", code, body)
	}

	code, _ = ts.do(t, http.MethodDelete, "/api/profile/"+adaID, bobToken, nil)
	if code != http.StatusForbidden {
		t.Errorf("foreign delete status = %d, want 403", code)
	}

	code, _ = ts.do(t, http.MethodDelete, "/api/profile/"+adaID, adaToken, nil)
	if code != http.StatusNoContent {
		t.Fatalf("delete status = %d", code)
	}

	code, body = ts.do(t, http.MethodGet, "/api/feed/"+itemID, "", nil)
	if code != http.StatusNotFound || body["code"] != "FEED_ITEM_NOT_FOUND" {
		t.Errorf("cascaded item = %d %v", code, body)
	}

	// Tokens go with the profile.
	code, _ = ts.do(t, http.MethodGet, "/api/profile", adaToken, nil)
	if code != http.StatusUnauthorized {
		t.Errorf("deleted user's token status = %d, want 401", code)
	}

	if snap := ts.metrics.Snapshot(); snap.FeedItemsDeleted != 1 || snap.ProfilesDeleted != 1 {
		t.Errorf("metrics = %+v", snap)
	}
}

func TestLoginLogout(t *testing.T) {
	ts := newTestServer(t)

	ts.register(t, "dave@example.com", "Dave", "pw-dave")

	code, body := ts.do(t, http.MethodPost, "/api/login", "", map[string]string{"email": "dave@example.com", "password": "wrong"})
	if code != http.StatusUnauthorized || body["code"] != "INVALID_CREDENTIALS" {
		t.Errorf("wrong password = %d %v", code, body)
	}

	code, body = ts.do(t, http.MethodPost, "/api/login", "", map[string]string{"email": "dave@example.com"})
	if code != http.StatusBadRequest || fieldsOf(t, body)["password"] == nil {
		t.Errorf("missing password = %d %v", code, body)
	}

	code, body = ts.do(t, http.MethodPost, "/api/login", "", map[string]string{"email": "DAVE@example.com", "password": "pw-dave"})
	if code != http.StatusOK {
		t.Fatalf("login status = %d, body %v", code, body)
	}
	token := body["token"].(string)
	if profile, _ := body["profile"].(map[string]any); profile["email"] != "dave@example.com" {
		t.Errorf("login profile = %v", body["profile"])
	}

	code, _ = ts.do(t, http.MethodPost, "/api/logout", "", nil)
	if code != http.StatusUnauthorized {
		t.Errorf("anonymous logout status = %d, want 401", code)
	}

	code, _ = ts.do(t, http.MethodPost, "/api/logout", token, nil)
	if code != http.StatusNoContent {
		t.Fatalf("logout status = %d", code)
	}

	code, _ = ts.do(t, http.MethodPost, "/api/feed", token, map[string]string{"status_text": "after logout"})
	if code != http.StatusUnauthorized {
		t.Errorf("revoked token status = %d, want 401", code)
	}
}

func TestRouter_TokenRequiredEndpoints(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/api/logout", "/api/admin/profiles/anyone/promote"} {
		resp, err := http.Post(ts.srv.URL+path, "application/json", nil)
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		var body map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&body)
		_ = resp.Body.Close()

		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s status = %d, want 401", path, resp.StatusCode)
		}
		if resp.Header.Get("WWW-Authenticate") == "" {
			t.Errorf("%s missing WWW-Authenticate challenge", path)
		}
		if body["error"] != "Invalid or missing token" {
			t.Errorf("%s body = %v", path, body)
		}
	}
}

func TestPromote(t *testing.T) {
	ts := newTestServer(t)

	if _, err := ts.profiles.CreateSuperuser(context.Background(), service.CreateProfileInput{
		Email: "root@example.com", Name: "Root", Password: "root-pw",
	}); err != nil {
		t.Fatalf("CreateSuperuser: %v", err)
	}
	userID := ts.register(t, "eve@example.com", "Eve", "pw-eve")

	userToken := ts.login(t, "eve@example.com", "pw-eve")
	adminToken := ts.login(t, "root@example.com", "root-pw")

	code, _ := ts.do(t, http.MethodPost, "/api/admin/profiles/"+userID+"/promote", userToken, nil)
	if code != http.StatusForbidden {
		t.Errorf("non-admin promote status = %d, want 403", code)
	}

	code, body := ts.do(t, http.MethodPost, "/api/admin/profiles/"+userID+"/promote", adminToken, nil)
	if code != http.StatusOK || body["id"] != userID {
		t.Errorf("promote = %d %v", code, body)
	}

	code, _ = ts.do(t, http.MethodPost, "/api/admin/profiles/missing/promote", adminToken, nil)
	if code != http.StatusNotFound {
		t.Errorf("promote missing status = %d, want 404", code)
	}

	// The token issued before promotion now carries the admin scope.
	code, _ = ts.do(t, http.MethodPost, "/api/admin/profiles/missing/promote", userToken, nil)
	if code != http.StatusNotFound {
		t.Errorf("promoted user's existing token status = %d, want 404", code)
	}
}

func TestRouter_ServiceEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "frank@example.com", "Frank", "pw")

	code, body := ts.do(t, http.MethodGet, "/", "", nil)
	if code != http.StatusOK || body["version"] != Version {
		t.Errorf("root = %d %v", code, body)
	}

	code, body = ts.do(t, http.MethodGet, "/readyz", "", nil)
	if code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("readyz = %d %v", code, body)
	}

	code, body = ts.do(t, http.MethodGet, "/api/nope", "", nil)
	if code != http.StatusNotFound || body["code"] != "NOT_FOUND" {
		t.Errorf("unknown route = %d %v", code, body)
	}

	code, body = ts.do(t, http.MethodDelete, "/api/profile", "", nil)
	if code != http.StatusMethodNotAllowed || body["code"] != "METHOD_NOT_ALLOWED" {
		t.Errorf("wrong method = %d %v", code, body)
	}

	resp, err := http.Get(ts.srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	text, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(text), `profiles_profiles_created_total{kind="user"} 1`) {
		t.Errorf("metrics output missing profile counter:\n%s", text)
	}
}

func TestRouter_SecurityHeaders(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.srv.URL + "/api/hello-view")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()

	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing X-Content-Type-Options")
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

// loginBuckets gives every login key a fixed allowance and never limits
// other traffic.
type loginBuckets struct {
	mu    sync.Mutex
	burst int
	used  map[string]int
}

func (l *loginBuckets) CheckTokenRateLimit(context.Context, string, int, int) (*cache.RateLimitResult, error) {
	return &cache.RateLimitResult{Allowed: true}, nil
}

func (l *loginBuckets) CheckIPRateLimit(context.Context, string, int, int) (*cache.RateLimitResult, error) {
	return &cache.RateLimitResult{Allowed: true}, nil
}

func (l *loginBuckets) CheckLoginRateLimit(_ context.Context, ip string, _, _ int) (*cache.RateLimitResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.used[ip]++
	if l.used[ip] > l.burst {
		return &cache.RateLimitResult{Allowed: false, RetryAfter: time.Minute}, nil
	}
	return &cache.RateLimitResult{Allowed: true, Remaining: int64(l.burst - l.used[ip])}, nil
}

func TestLoginRateLimit_RotatingForwardedFor(t *testing.T) {
	limiter := &loginBuckets{burst: 1, used: make(map[string]int)}
	ts := newTestServerWith(t, &config.Config{
		AppEnv:                  "test",
		MaxRequestBodySize:      1 << 20,
		RateLimitLoginEnabled:   true,
		RateLimitLoginPerMinute: 1,
		RateLimitLoginBurst:     1,
	}, limiter)

	codes := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		req, err := http.NewRequest(http.MethodPost, ts.srv.URL+"/api/login",
			strings.NewReader(`{"email":"nobody@example.com","password":"guess"}`))
		if err != nil {
			t.Fatalf("new request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", "10.0.0."+strconv.Itoa(i))
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		_ = resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}

	if codes[0] != http.StatusUnauthorized {
		t.Errorf("first attempt status = %d, want 401", codes[0])
	}
	for i, code := range codes[1:] {
		if code != http.StatusTooManyRequests {
			t.Errorf("attempt %d status = %d, want 429 (codes %v)", i+1, code, codes)
		}
	}

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if len(limiter.used) != 1 {
		t.Errorf("login buckets = %v, want a single bucket for the TCP peer", limiter.used)
	}
}
