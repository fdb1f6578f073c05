package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/dbl-go/internal/config"
	"github.com/samvad-hq/dbl-go/internal/logger"
	"github.com/samvad-hq/dbl-go/internal/storage"
	"github.com/samvad-hq/dbl-go/pkg/dbl"
	"github.com/samvad-hq/dbl-go/pkg/publishers"
)

const testSecret = "hook-secret"

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishers.Event
	err    error
	delay  time.Duration
}

func (p *recordingPublisher) ID() string   { return "rec" }
func (p *recordingPublisher) Type() string { return "test" }
func (p *recordingPublisher) Publish(_ context.Context, evt publishers.Event) error {
	time.Sleep(p.delay)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func testReceiverConfig() *config.Config {
	return &config.Config{
		WebhookAddr:    "127.0.0.1:0",
		WebhookPath:    "/dbl/webhook",
		WebhookSecret:  testSecret,
		MetricsEnabled: true,
	}
}

func newTestReceiver(t *testing.T, pub publishers.Publisher) *Receiver {
	t.Helper()
	store, err := storage.NewStore("bbolt", filepath.Join(t.TempDir(), "votes.db"), storage.Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return newReceiver(testReceiverConfig(), publishers.NewFanout([]publishers.Publisher{pub}), store, logger.NopLogger{})
}

func deliver(t *testing.T, h http.Handler, auth, body string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/dbl/webhook", strings.NewReader(body))
	req.Header.Set("Authorization", auth)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

const upvote = `{"bot":"264811613708746752","user":"140862798832861184","type":"upvote","isWeekend":false}`

func TestReceiverForwardsVoteOnce(t *testing.T) {
	pub := &recordingPublisher{}
	r := newTestReceiver(t, pub)

	for i := 0; i < 2; i++ {
		if code := deliver(t, r.Handler(), testSecret, upvote); code != http.StatusNoContent {
			t.Fatalf("delivery %d: status %d", i, code)
		}
	}
	if pub.count() != 1 {
		t.Fatalf("expected a single forwarded event, got %d", pub.count())
	}
	evt := pub.events[0]
	if evt.Bot != 264811613708746752 || evt.User != 140862798832861184 || evt.Type != dbl.WebhookUpvote {
		t.Fatalf("unexpected event %#v", evt)
	}
}

func TestReceiverConcurrentRedeliveryForwardsOnce(t *testing.T) {
	pub := &recordingPublisher{delay: 20 * time.Millisecond}
	r := newTestReceiver(t, pub)

	var wg sync.WaitGroup
	codes := make([]int, 8)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = deliver(t, r.Handler(), testSecret, upvote)
		}(i)
	}
	wg.Wait()

	for i, code := range codes {
		if code != http.StatusNoContent {
			t.Fatalf("delivery %d: status %d", i, code)
		}
	}
	if pub.count() != 1 {
		t.Fatalf("concurrent redeliveries forwarded %d events, want 1", pub.count())
	}
	if n := r.votes.size(); n != 0 {
		t.Fatalf("vote locks not released: %d", n)
	}
}

func TestReceiverRejectsIncompleteVote(t *testing.T) {
	pub := &recordingPublisher{}
	r := newTestReceiver(t, pub)

	for _, body := range []string{`{}`, `null`, `{"bot":"1","user":"2"}`} {
		if code := deliver(t, r.Handler(), testSecret, body); code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, code)
		}
	}
	if pub.count() != 0 {
		t.Fatalf("incomplete vote was forwarded")
	}
	if code := deliver(t, r.Handler(), testSecret, upvote); code != http.StatusNoContent {
		t.Fatalf("valid vote after rejections: status %d", code)
	}
	if pub.count() != 1 {
		t.Fatalf("expected the valid vote to be forwarded, got %d", pub.count())
	}
}

func TestReceiverTestVoteDoesNotShadowUpvote(t *testing.T) {
	pub := &recordingPublisher{}
	r := newTestReceiver(t, pub)

	test := strings.Replace(upvote, `"upvote"`, `"test"`, 1)
	deliver(t, r.Handler(), testSecret, test)
	deliver(t, r.Handler(), testSecret, upvote)
	if pub.count() != 2 {
		t.Fatalf("expected test and upvote to be forwarded, got %d", pub.count())
	}
}

func TestReceiverPublishFailureAllowsRedelivery(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("queue down")}
	r := newTestReceiver(t, pub)

	if code := deliver(t, r.Handler(), testSecret, upvote); code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when every publisher fails, got %d", code)
	}

	pub.mu.Lock()
	pub.err = nil
	pub.mu.Unlock()
	if code := deliver(t, r.Handler(), testSecret, upvote); code != http.StatusNoContent {
		t.Fatalf("redelivery status %d", code)
	}
	if pub.count() != 1 {
		t.Fatalf("redelivered vote should be forwarded, got %d", pub.count())
	}
}

func TestReceiverRejectsBadSecret(t *testing.T) {
	pub := &recordingPublisher{}
	r := newTestReceiver(t, pub)

	if code := deliver(t, r.Handler(), "wrong", upvote); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
	if pub.count() != 0 {
		t.Fatalf("rejected vote was forwarded")
	}
}

func TestReceiverHealthAndMetrics(t *testing.T) {
	r := newTestReceiver(t, &recordingPublisher{})

	for path, want := range map[string]string{"/healthz": "ok", "/metrics": "dbl_votes_duplicate_total"} {
		rec := httptest.NewRecorder()
		r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d", path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), want) {
			t.Fatalf("%s: body missing %q", path, want)
		}
	}
}

func TestReceiverServeAndShutdown(t *testing.T) {
	pub := &recordingPublisher{}
	r := newTestReceiver(t, pub)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/dbl/webhook"
	if err := dbl.SendWebhook(context.Background(), nil, url, testSecret, dbl.NewTestWebhook(1, 2, "")); err != nil {
		t.Fatalf("SendWebhook: %v", err)
	}
	if pub.count() != 1 {
		t.Fatalf("expected forwarded test vote, got %d", pub.count())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("receiver did not shut down")
	}
}

func TestNewReceiverRequiresSecret(t *testing.T) {
	cfg := testReceiverConfig()
	cfg.WebhookSecret = " "
	if _, err := NewReceiver(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error without webhook secret")
	}
}

func TestNewReceiverLogOnlyMode(t *testing.T) {
	cfg := testReceiverConfig()
	cfg.StorageType = "none"
	r, err := NewReceiver(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewReceiver: %v", err)
	}
	if code := deliver(t, r.Handler(), testSecret, upvote); code != http.StatusNoContent {
		t.Fatalf("log-only receiver status %d", code)
	}
}

func TestNewReceiverLogOnlyFromLoadedConfig(t *testing.T) {
	t.Setenv("PUBLISHERS_FILE", "")
	t.Setenv("STORAGE_TYPE", "none")
	t.Setenv("WEBHOOK_SECRET", testSecret)
	cfg, err := config.LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	r, err := NewReceiver(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewReceiver: %v", err)
	}
	t.Cleanup(r.close)
	if r.fanout.Size() != 0 {
		t.Fatalf("expected no publishers, got %d", r.fanout.Size())
	}
	if code := deliver(t, r.Handler(), testSecret, upvote); code != http.StatusNoContent {
		t.Fatalf("log-only receiver status %d", code)
	}
}
