package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/systems"
	"github.com/pthm-cable/ecosim/telemetry"
)

func scrape(t *testing.T, r *Recorder) string {
	t.Helper()
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(body)
}

func TestRecorderExposesSeries(t *testing.T) {
	r := New(systems.NewSystemRegistry())

	r.ObservePopulation([components.KindCount]int{12, 3, 7, 9})
	r.ObserveEvent(telemetry.NewDeathEvent(1, 5, components.KindRabbit, telemetry.CauseEaten))
	r.ObserveEvent(telemetry.NewBirthEvent(1, 6, 2, components.KindFox))
	r.ObserveEvent(telemetry.NewKillEvent(1, 2, components.KindFox, 5))
	r.ObserveTick(telemetry.PerfSample{
		TickDuration: 2 * time.Millisecond,
		Phases:       map[string]time.Duration{telemetry.PhaseEntities: time.Millisecond},
	}, 4.5)
	r.ObserveCard("heal")
	r.RecordRejected("rate_limit")
	r.SetStreamClients(2)

	body := scrape(t, r)
	for _, want := range []string{
		`ecosim_population{kind="rabbit"} 12`,
		`ecosim_population{kind="fox"} 3`,
		`ecosim_deaths_total{cause="eaten",kind="rabbit"} 1`,
		`ecosim_births_total{kind="fox"} 1`,
		`ecosim_births_total{kind="grass"} 0`,
		`ecosim_interactions_total{type="kill"} 1`,
		`ecosim_tick_duration_seconds_count 1`,
		`ecosim_phase_duration_seconds_count{phase="entities"} 1`,
		`ecosim_phase_duration_seconds_count{phase="flocking"} 0`,
		`ecosim_sim_time_seconds 4.5`,
		`ecosim_ticks_total 1`,
		`ecosim_cards_total{card="heal"} 1`,
		`ecosim_requests_rejected_total{reason="rate_limit"} 1`,
		`ecosim_websocket_clients 2`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape missing %q", want)
		}
	}
}

func TestRecordersAreIndependent(t *testing.T) {
	a := New(nil)
	b := New(nil)
	a.ObserveCard("spawn")

	if strings.Contains(scrape(t, b), `ecosim_cards_total{card="spawn"}`) {
		t.Error("second recorder saw the first recorder's card")
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.ObservePopulation([components.KindCount]int{})
	r.ObserveEvent(telemetry.Event{})
	r.ObserveTick(telemetry.PerfSample{}, 0)
	r.ObserveCard("x")
	r.RecordRejected("x")
	r.SetStreamClients(1)
	if r.Registry() != nil {
		t.Error("nil recorder returned a registry")
	}

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
