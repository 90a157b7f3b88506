package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/metrics/export/internaldefs"
)

type fakeSource struct {
	counters map[goSession.MetricID]uint64
	dropped  uint64
}

func (s *fakeSource) MetricsSnapshot() goSession.MetricsSnapshot {
	return goSession.MetricsSnapshot{Counters: s.counters}
}

func (s *fakeSource) EventsDropped() uint64 {
	return s.dropped
}

func TestRenderCoversEveryCounter(t *testing.T) {
	source := &fakeSource{
		counters: map[goSession.MetricID]uint64{
			goSession.MetricRefreshSuccess:      7,
			goSession.MetricFingerprintMismatch: 2,
		},
		dropped: 3,
	}
	body := NewExporterFromSource(source).Render()

	for _, def := range internaldefs.CounterDefs {
		if !strings.Contains(body, "# TYPE "+def.Name+" counter\n") {
			t.Errorf("missing TYPE line for %s", def.Name)
		}
	}
	if !strings.Contains(body, "gosession_refresh_success_total 7\n") {
		t.Error("missing refresh success sample")
	}
	if !strings.Contains(body, "gosession_fingerprint_mismatch_total 2\n") {
		t.Error("missing fingerprint mismatch sample")
	}
	// Unset counters render as zero, not as absent series.
	if !strings.Contains(body, "gosession_login_lockout_total 0\n") {
		t.Error("missing zero-valued sample")
	}
	if !strings.Contains(body, "gosession_events_dropped_total 3\n") {
		t.Error("missing dropped-events sample")
	}
}

func TestHandlerServesExposition(t *testing.T) {
	source := &fakeSource{
		counters: map[goSession.MetricID]uint64{goSession.MetricTokenStored: 1},
	}

	server := httptest.NewServer(NewExporterFromSource(source).Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !strings.Contains(string(body), "gosession_token_stored_total 1\n") {
		t.Fatal("scrape body missing the stored-token sample")
	}
}

func TestExporterToleratesNilEngine(t *testing.T) {
	body := NewExporter(nil).Render()
	if !strings.Contains(body, "gosession_token_stored_total 0\n") {
		t.Fatal("nil engine should render zero counters")
	}
	if !strings.Contains(body, "gosession_events_dropped_total 0\n") {
		t.Fatal("nil engine should render zero dropped events")
	}
}
