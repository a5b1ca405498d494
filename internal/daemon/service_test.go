package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/wattwatch/internal/config"
	"github.com/theirongolddev/wattwatch/internal/model"
)

const sessionScript = `{"type":"session.created","session":{"id":"s1"}}
{"type":"message.updated","session":{"id":"s1"},"message":{"role":"user"}}
{"type":"message.updated","session":{"id":"s1"},"message":{"role":"assistant","modelID":"claude-sonnet","tokens":{"input":1000,"output":500,"reasoning":0,"cache":{"read":0,"write":0}}}}
{"type":"session.idle","session":{"id":"s1"}}
`

func newTestService(t *testing.T) (*Service, *httptest.Server) {
	t.Helper()
	s := New(Config{EventsBuffer: 10}, config.DefaultRegistry(nil), config.DefaultSettings(), nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func postEvents(t *testing.T, ts *httptest.Server, body string) (*http.Response, IngestResult) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/v1/events", "application/x-ndjson", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /v1/events: %v", err)
	}
	defer resp.Body.Close()

	var res IngestResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("decode ingest result: %v", err)
	}
	return resp, res
}

func TestHandleEvents_SessionLifecycle(t *testing.T) {
	s, ts := newTestService(t)

	resp, res := postEvents(t, ts, sessionScript)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, error %q", resp.StatusCode, res.Error)
	}
	if res.Accepted != 4 {
		t.Fatalf("Accepted = %d, want 4", res.Accepted)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.notices) != 1 {
		t.Fatalf("notices = %d, want 1", len(s.notices))
	}
	want := "Energy: ~0.12 Wh (~0.00 EUR) | 1,500 tokens"
	if s.notices[0].Message != want || s.notices[0].SessionID != "s1" {
		t.Fatalf("notice = %+v, want %q for s1", s.notices[0], want)
	}
}

func TestHandleEvents_Rejects(t *testing.T) {
	s, ts := newTestService(t)

	resp, res := postEvents(t, ts, `{"type":"session.created","session":{"id":"a"}}
{"type":"session.rebooted","session":{"id":"a"}}
{"type":"session.created","session":{"id":"b"}}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if res.Accepted != 1 || res.Error == "" {
		t.Fatalf("result = %+v, want 1 accepted plus error", res)
	}
	if st := s.snapshotStatus(); st.EventsHandled != 1 {
		t.Fatalf("events handled = %d, want 1 (rejected event not counted)", st.EventsHandled)
	}

	resp, res = postEvents(t, ts, `{"type":`)
	if resp.StatusCode != http.StatusBadRequest || res.Accepted != 0 {
		t.Fatalf("malformed body: status %d result %+v", resp.StatusCode, res)
	}
}

func TestHandleEvents_MethodNotAllowed(t *testing.T) {
	_, ts := newTestService(t)

	resp, err := http.Get(ts.URL + "/v1/events")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}

func TestClient_StatusSessionsNotifications(t *testing.T) {
	_, ts := newTestService(t)
	c := NewClient(ts.URL)
	ctx := context.Background()

	n, err := c.Send(ctx,
		model.Event{Type: model.EventSessionCreated, Session: model.EventSession{ID: "s1"}},
		model.Event{Type: model.EventSessionCreated, Session: model.EventSession{ID: "s2"}},
		model.Event{Type: model.EventMessageUpdated, Session: model.EventSession{ID: "s1"},
			Message: &model.Message{Role: model.RoleAssistant, ModelID: "claude-opus", Tokens: model.Tokens(0, 2000, 0, 0, 0)}},
		model.Event{Type: model.EventSessionIdle, Session: model.EventSession{ID: "s1"}},
		model.Event{Type: model.EventSessionIdle, Session: model.EventSession{ID: "s2"}},
	)
	if err != nil || n != 5 {
		t.Fatalf("Send = %d, %v", n, err)
	}

	st, err := c.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Sessions != 2 || st.EventsHandled != 5 || st.NotificationCount != 1 {
		t.Fatalf("status = %+v", st)
	}
	if st.Currency != "EUR" || st.ElectricityRate != 0.25 {
		t.Fatalf("status settings = %v %s", st.ElectricityRate, st.Currency)
	}

	notices, err := c.Notifications(ctx)
	if err != nil {
		t.Fatalf("Notifications: %v", err)
	}
	if len(notices) != 1 || notices[0].SessionID != "s1" {
		t.Fatalf("notifications = %+v", notices)
	}

	sessions, err := c.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 2 || sessions[0].SessionID != "s1" {
		t.Fatalf("sessions = %+v", sessions)
	}
	if sessions[0].ModelID != "claude-opus" || sessions[0].EnergyWh != 1 {
		t.Fatalf("s1 = %+v", sessions[0])
	}
}

func TestClient_SendReportsRejection(t *testing.T) {
	_, ts := newTestService(t)

	n, err := NewClient(ts.URL).Send(context.Background(), model.Event{Type: "bogus"})
	if err == nil {
		t.Fatal("Send(bogus) succeeded")
	}
	if n != 0 {
		t.Fatalf("accepted = %d, want 0", n)
	}

	st, err := NewClient(ts.URL).Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.EventsHandled != 0 {
		t.Fatalf("events handled = %d, want 0 after rejection", st.EventsHandled)
	}
}

func TestStream_DeliversNotifications(t *testing.T) {
	_, ts := newTestService(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/v1/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /v1/stream: %v", err)
	}
	defer resp.Body.Close()

	r := bufio.NewReader(resp.Body)
	if line, _ := r.ReadString('\n'); line != ": connected\n" {
		t.Fatalf("first stream line = %q", line)
	}

	postEvents(t, ts, sessionScript)

	got := make(chan Notification, 1)
	go func() {
		_ = readSSE(r, func(n Notification) { got <- n })
	}()

	select {
	case n := <-got:
		if n.SessionID != "s1" || !strings.HasPrefix(n.Message, "Energy: ~0.12 Wh") {
			t.Fatalf("streamed notification = %+v", n)
		}
	case <-ctx.Done():
		t.Fatal("no notification streamed")
	}
}

func TestPublishRingBuffer(t *testing.T) {
	s := New(Config{EventsBuffer: 2}, config.DefaultRegistry(nil), config.DefaultSettings(), nil)

	ctx := context.Background()
	_ = s.Notify(ctx, "a", "1")
	_ = s.Notify(ctx, "b", "2")
	_ = s.Notify(ctx, "c", "3")

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.notices) != 2 {
		t.Fatalf("notices len = %d, want 2", len(s.notices))
	}
	if s.notices[0].ID != 2 || s.notices[1].ID != 3 {
		t.Fatalf("ring contains IDs [%d, %d], want [2, 3]", s.notices[0].ID, s.notices[1].ID)
	}
}

func TestPrune(t *testing.T) {
	s := New(Config{IdleTTL: time.Nanosecond}, config.DefaultRegistry(nil), config.DefaultSettings(), nil)
	ctx := context.Background()

	if err := s.Dispatch(ctx, model.Event{Type: model.EventSessionCreated, Session: model.EventSession{ID: "s"}}); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	s.prune()

	st := s.snapshotStatus()
	if st.Sessions != 0 || st.Pruned != 1 || st.LastPruneAt.IsZero() {
		t.Fatalf("after prune status = %+v", st)
	}
}

func TestClientStream(t *testing.T) {
	_, ts := newTestService(t)
	c := NewClient(ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opened := make(chan struct{})
	got := make(chan Notification, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.Stream(ctx, func() { close(opened) }, func(n Notification) {
			select {
			case got <- n:
			default:
			}
		})
	}()

	select {
	case <-opened:
	case err := <-done:
		t.Fatalf("stream ended before opening: %v", err)
	case <-ctx.Done():
		t.Fatal("stream never opened")
	}

	postEvents(t, ts, sessionScript)

	select {
	case n := <-got:
		if n.ID != 1 || n.SessionID != "s1" {
			t.Fatalf("streamed notification = %+v", n)
		}
	case <-ctx.Done():
		t.Fatal("no notification streamed")
	}
	cancel()
	<-done
}
