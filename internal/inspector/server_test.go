package inspector

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cgast/vouch/pkg/events"
)

func TestHandleStatus(t *testing.T) {
	s := New(nil, nil)

	sink := s.Sink()
	sink(events.Event{Type: events.TypeStart, Intent: "demo"})
	sink(events.Event{Type: events.TypeComplete, Intent: "demo"})

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var status map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status["runs"].(float64) != 1 {
		t.Errorf("runs = %v, want 1", status["runs"])
	}
	if status["events"].(float64) != 2 {
		t.Errorf("events = %v, want 2", status["events"])
	}
	if status["history_enabled"].(bool) {
		t.Error("history_enabled should be false without a store")
	}
}

func TestHandleHistoryWithoutStore(t *testing.T) {
	s := New(nil, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/history")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var list []any
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty history, got %d entries", len(list))
	}
}

func TestEventStreamReplaysTrail(t *testing.T) {
	s := New(nil, nil)

	sink := s.Sink()
	sink(events.Event{Type: events.TypeStart, Intent: "replayed"})

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("Content-Type = %q", got)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev events.Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		if ev.Intent != "replayed" {
			t.Errorf("Intent = %q, want %q", ev.Intent, "replayed")
		}
		return
	}
	t.Fatal("no event received before stream closed")
}
