package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/game"
	"github.com/pthm-cable/ecosim/metrics"
	"github.com/pthm-cable/ecosim/telemetry"
)

type mockSource struct {
	mu    sync.Mutex
	snap  *telemetry.Snapshot
	cards []game.Card
	err   error
}

func (m *mockSource) Published() *telemetry.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

func (m *mockSource) Enqueue(c game.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.cards = append(m.cards, c)
	return nil
}

func testSnapshot() *telemetry.Snapshot {
	return &telemetry.Snapshot{
		Version:    telemetry.SnapshotVersion,
		Seed:       3,
		Tick:       42,
		SimTimeSec: 4.2,
		Population: map[string]int{"rabbit": 1, "fox": 1},
		Entities: []telemetry.EntityState{
			{ID: 1, Kind: "rabbit", State: "walking", X: 10, Y: 20, Health: 1},
			{ID: 2, Kind: "fox", State: "pursuing_food", X: 30, Y: 40, Health: 0.5, Target: 1, Strategy: "forage_open"},
		},
	}
}

func newTestServer(t *testing.T, src Source, cfg RouterConfig) *httptest.Server {
	t.Helper()
	cfg.Source = src
	cfg.DisableLogging = true
	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit = RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000}
	}
	ts := httptest.NewServer(NewRouter(cfg))
	t.Cleanup(ts.Close)
	return ts
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, &mockSource{snap: testSnapshot()}, RouterConfig{})

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Status string `json:"status"`
		Tick   int32  `json:"tick"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Tick != 42 {
		t.Errorf("health = %+v, want ok at tick 42", body)
	}
}

func TestSnapshot(t *testing.T) {
	t.Run("published", func(t *testing.T) {
		ts := newTestServer(t, &mockSource{snap: testSnapshot()}, RouterConfig{})
		resp, err := http.Get(ts.URL + "/snapshot")
		if err != nil {
			t.Fatalf("GET /snapshot: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		var snap telemetry.Snapshot
		if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if snap.Tick != 42 || len(snap.Entities) != 2 {
			t.Errorf("snapshot tick %d with %d entities, want 42 with 2", snap.Tick, len(snap.Entities))
		}
	})

	t.Run("not yet published", func(t *testing.T) {
		ts := newTestServer(t, &mockSource{}, RouterConfig{})
		resp, err := http.Get(ts.URL + "/snapshot")
		if err != nil {
			t.Fatalf("GET /snapshot: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", resp.StatusCode)
		}
	})
}

func TestEntity(t *testing.T) {
	ts := newTestServer(t, &mockSource{snap: testSnapshot()}, RouterConfig{})

	tests := []struct {
		path string
		want int
	}{
		{"/entities/2", http.StatusOK},
		{"/entities/99", http.StatusNotFound},
		{"/entities/fox", http.StatusBadRequest},
	}
	for _, tt := range tests {
		resp, err := http.Get(ts.URL + tt.path)
		if err != nil {
			t.Fatalf("GET %s: %v", tt.path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != tt.want {
			t.Errorf("GET %s = %d, want %d (%s)", tt.path, resp.StatusCode, tt.want, body)
			continue
		}
		if tt.want != http.StatusOK {
			continue
		}

		var got struct {
			Entity telemetry.EntityState `json:"entity"`
			Fields []struct {
				Name   string `json:"name"`
				Text   string `json:"text"`
				Widget string `json:"widget"`
			} `json:"fields"`
		}
		if err := json.Unmarshal(body, &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Entity.Kind != "fox" || got.Entity.Target != 1 {
			t.Errorf("entity = %+v, want the fox targeting 1", got.Entity)
		}
		var health string
		for _, f := range got.Fields {
			if f.Name == "Lifetime" {
				t.Error("Lifetime should not be listed as a field")
			}
			if f.Name == "Health" {
				health = f.Widget
			}
		}
		if health != "bar" {
			t.Errorf("Health widget = %q, want bar", health)
		}
	}
}

func TestCards(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		queueErr error
		want     int
		wantCard *game.Card
	}{
		{"spawn", "/cards/spawn?kind=fox&count=3", nil, http.StatusAccepted, &game.Card{Name: "spawn", Kind: components.KindFox, Count: 3}},
		{"heal", "/cards/heal", nil, http.StatusAccepted, &game.Card{Name: "heal"}},
		{"hungry default count", "/cards/hungry", nil, http.StatusAccepted, &game.Card{Name: "hungry", Count: 1}},
		{"unknown card", "/cards/meteor", nil, http.StatusBadRequest, nil},
		{"unknown kind", "/cards/spawn?kind=wolf", nil, http.StatusBadRequest, nil},
		{"bad count", "/cards/spawn?kind=fox&count=many", nil, http.StatusBadRequest, nil},
		{"queue full", "/cards/heal", game.ErrCardQueueFull, http.StatusServiceUnavailable, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &mockSource{snap: testSnapshot(), err: tt.queueErr}
			ts := newTestServer(t, src, RouterConfig{})

			resp, err := http.Post(ts.URL+tt.path, "application/json", nil)
			if err != nil {
				t.Fatalf("POST %s: %v", tt.path, err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.want)
			}

			if tt.wantCard == nil {
				if len(src.cards) != 0 {
					t.Errorf("queued %v, want nothing", src.cards)
				}
				return
			}
			if len(src.cards) != 1 || src.cards[0] != *tt.wantCard {
				t.Errorf("queued %v, want [%v]", src.cards, *tt.wantCard)
			}
		})
	}
}

func TestCardsRejectGet(t *testing.T) {
	ts := newTestServer(t, &mockSource{}, RouterConfig{})
	resp, err := http.Get(ts.URL + "/cards/heal")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestRateLimit(t *testing.T) {
	rec := metrics.New(nil)
	ts := newTestServer(t, &mockSource{}, RouterConfig{
		Metrics:   rec,
		RateLimit: RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2},
	})

	codes := make([]int, 3)
	for i := range codes {
		resp, err := http.Get(ts.URL + "/healthz")
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		resp.Body.Close()
		codes[i] = resp.StatusCode
		if resp.StatusCode == http.StatusTooManyRequests && resp.Header.Get("Retry-After") == "" {
			t.Error("429 without Retry-After")
		}
	}
	want := []int{200, 200, 429}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("request %d = %d, want %d", i, codes[i], want[i])
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := metrics.New(nil)
	rec.ObserveCard(game.CardHeal)
	ts := newTestServer(t, &mockSource{}, RouterConfig{Metrics: rec})

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(string(body), `ecosim_cards_total{card="heal"} 1`) {
		t.Errorf("metrics output missing card counter:\n%s", body)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "10.0.0.1:5555", "10.0.0.1"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.1"}, "10.0.0.1:5555", "1.2.3.4"},
		{"real ip", map[string]string{"X-Real-IP": " 5.6.7.8 "}, "10.0.0.1:5555", "5.6.7.8"},
		{"no port", nil, "pipe", "pipe"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = tt.remote
		for k, v := range tt.headers {
			r.Header.Set(k, v)
		}
		if got := GetClientIP(r); got != tt.want {
			t.Errorf("%s: GetClientIP = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestStream(t *testing.T) {
	src := &mockSource{snap: testSnapshot()}
	rec := metrics.New(nil)
	hub := NewHub(src, 50, nil, rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	ts := newTestServer(t, src, RouterConfig{Metrics: rec, Hub: hub})
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first telemetry.Snapshot
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read first frame: %v", err)
	}
	if first.Tick != 42 {
		t.Errorf("first frame tick = %d, want 42", first.Tick)
	}

	next := testSnapshot()
	next.Tick = 43
	src.mu.Lock()
	src.snap = next
	src.mu.Unlock()

	// The frame already sent may be repeated once before the new one arrives.
	for {
		var frame telemetry.Snapshot
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("read next frame: %v", err)
		}
		if frame.Tick == 43 {
			break
		}
		if frame.Tick != 42 {
			t.Fatalf("frame tick = %d, want 42 or 43", frame.Tick)
		}
	}
	if n := hub.ClientCount(); n != 1 {
		t.Errorf("ClientCount = %d, want 1", n)
	}
}

func TestStreamRejectsOrigin(t *testing.T) {
	src := &mockSource{snap: testSnapshot()}
	hub := NewHub(src, 10, []string{"http://allowed.example"}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	ts := newTestServer(t, src, RouterConfig{Hub: hub, AllowedOrigins: []string{"http://allowed.example"}})
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	header := http.Header{"Origin": []string{"http://evil.example"}}
	if _, _, err := websocket.DefaultDialer.Dial(url, header); err == nil {
		t.Fatal("Dial from a foreign origin succeeded")
	}
}
