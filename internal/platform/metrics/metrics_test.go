package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_ObserveSyncAndExpose(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveSync(OutcomeAssigned)
	m.ObserveSync(OutcomeAssigned)
	m.ObserveSync(OutcomeCleared)
	m.ObserveRender("edit")

	if got := testutil.ToFloat64(m.SyncCounter(OutcomeAssigned)); got != 2 {
		t.Fatalf("assigned=%v, want 2", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `xprofile_membertype_sync_total{outcome="cleared"} 1`) {
		t.Fatalf("metrics body missing cleared counter:\n%s", body)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.ObserveSync(OutcomeSkipped)
	m.ObserveRender("admin")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 404 {
		t.Fatalf("status=%d, want 404", rec.Code)
	}
}
