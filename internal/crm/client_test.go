package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeCRM fakes the token endpoint and the contacts API, counting calls.
type fakeCRM struct {
	mu          sync.Mutex
	tokenCalls  int
	searchCalls int
	createCalls int
	tagCalls    int

	tokenStatus   int
	expiresIn     int64
	searchResults []contactRecord
	lastTagBody   map[string]string
}

func newFakeCRM() *fakeCRM {
	return &fakeCRM{tokenStatus: http.StatusOK, expiresIn: 3600}
}

func (f *fakeCRM) tokenHandler(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.tokenCalls++
	status := f.tokenStatus
	expiresIn := f.expiresIn
	f.mu.Unlock()

	if status != http.StatusOK {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"access_token":"tok-%d","expires_in":%d}`, f.calls(), expiresIn)
}

func (f *fakeCRM) apiHandler(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/sites/site-1/contacts":
		f.mu.Lock()
		f.searchCalls++
		results := f.searchResults
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(contactSearchResponse{Contacts: results})
	case r.Method == http.MethodPost && r.URL.Path == "/sites/site-1/contacts":
		f.mu.Lock()
		f.createCalls++
		f.mu.Unlock()
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		_ = json.NewEncoder(w).Encode(contactEnvelope{Contact: contactRecord{ID: "new-1", Email: payload["email"]}})
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/tags"):
		f.mu.Lock()
		f.tagCalls++
		f.mu.Unlock()
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		f.mu.Lock()
		f.lastTagBody = payload
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeCRM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokenCalls
}

func newTestClient(t *testing.T, fake *fakeCRM, clock *fakeClock) *Client {
	t.Helper()

	tokenSrv := httptest.NewServer(http.HandlerFunc(fake.tokenHandler))
	t.Cleanup(tokenSrv.Close)
	apiSrv := httptest.NewServer(http.HandlerFunc(fake.apiHandler))
	t.Cleanup(apiSrv.Close)

	store := NewMemoryStoreWithClock(clock.Now)
	return NewClient(ClientConfig{
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		SiteID:       "site-1",
		BaseURL:      apiSrv.URL,
		TokenURL:     tokenSrv.URL,
		Now:          clock.Now,
	}, store, zap.NewNop())
}

func TestAccessTokenCachedWithinTTL(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	fake := newFakeCRM()
	client := newTestClient(t, fake, clock)
	ctx := context.Background()

	first, err := client.AccessToken(ctx)
	if err != nil {
		t.Fatalf("first acquisition: %v", err)
	}
	second, err := client.AccessToken(ctx)
	if err != nil {
		t.Fatalf("second acquisition: %v", err)
	}

	if first != second {
		t.Fatalf("expected cached token, got %q then %q", first, second)
	}
	if fake.calls() != 1 {
		t.Fatalf("expected 1 token exchange, got %d", fake.calls())
	}
}

func TestAccessTokenRefreshedAfterExpiry(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	fake := newFakeCRM()
	client := newTestClient(t, fake, clock)
	ctx := context.Background()

	if _, err := client.AccessToken(ctx); err != nil {
		t.Fatalf("first acquisition: %v", err)
	}

	// expires_in 3600s minus the 300s margin: valid for 55 minutes.
	clock.Advance(55*time.Minute - time.Second)
	if _, err := client.AccessToken(ctx); err != nil {
		t.Fatalf("within-ttl acquisition: %v", err)
	}
	if fake.calls() != 1 {
		t.Fatalf("expected no refresh before margin, got %d exchanges", fake.calls())
	}

	clock.Advance(2 * time.Second)
	if _, err := client.AccessToken(ctx); err != nil {
		t.Fatalf("post-expiry acquisition: %v", err)
	}
	if fake.calls() != 2 {
		t.Fatalf("expected exactly one refresh after expiry, got %d exchanges", fake.calls())
	}
}

func TestAccessTokenExchangeFailure(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	fake := newFakeCRM()
	fake.tokenStatus = http.StatusUnauthorized
	client := newTestClient(t, fake, clock)

	_, err := client.AccessToken(context.Background())
	if err == nil {
		t.Fatal("expected error from failed token exchange")
	}
	if !strings.Contains(err.Error(), "authentication failed") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnsureContactMatchesCaseInsensitively(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	fake := newFakeCRM()
	fake.searchResults = []contactRecord{{ID: "c-77", Email: "foo@bar.com"}}
	client := newTestClient(t, fake, clock)

	contact, err := client.EnsureContact(context.Background(), "Foo@Bar.com")
	if err != nil {
		t.Fatalf("EnsureContact: %v", err)
	}
	if contact.ID != "c-77" {
		t.Fatalf("expected existing contact c-77, got %q", contact.ID)
	}
	if fake.createCalls != 0 {
		t.Fatalf("expected no create for case-insensitive match, got %d", fake.createCalls)
	}
}

func TestEnsureContactIgnoresFuzzyNeighbors(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	fake := newFakeCRM()
	fake.searchResults = []contactRecord{{ID: "c-1", Email: "anne@x.com"}}
	client := newTestClient(t, fake, clock)

	contact, err := client.EnsureContact(context.Background(), "anne2@x.com")
	if err != nil {
		t.Fatalf("EnsureContact: %v", err)
	}
	if contact.ID != "new-1" {
		t.Fatalf("expected newly created contact, got %q", contact.ID)
	}
	if fake.createCalls != 1 {
		t.Fatalf("expected exactly one create, got %d", fake.createCalls)
	}
}

func TestAttachTagPostsRelationship(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	fake := newFakeCRM()
	client := newTestClient(t, fake, clock)

	if err := client.AttachTag(context.Background(), "c-77", "tag-9"); err != nil {
		t.Fatalf("AttachTag: %v", err)
	}
	if fake.tagCalls != 1 {
		t.Fatalf("expected 1 tag call, got %d", fake.tagCalls)
	}
	if fake.lastTagBody["tag_id"] != "tag-9" {
		t.Fatalf("expected tag_id tag-9, got %q", fake.lastTagBody["tag_id"])
	}
}
