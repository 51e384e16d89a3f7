package metrics_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/artpar/contentgate/adapters/metrics"
)

func TestCollector_Counters(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	m.ItemWrite("Post", "create")
	m.ItemWrite("Post", "create")
	m.ItemWrite("Tag", "delete")
	m.AuthAttempt("failure")
	m.SessionRejected("expired")

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"post creates", m.ItemWrites.WithLabelValues("Post", "create"), 2},
		{"tag deletes", m.ItemWrites.WithLabelValues("Tag", "delete"), 1},
		{"auth failures", m.AuthAttempts.WithLabelValues("failure"), 1},
		{"expired sessions", m.SessionsRejected.WithLabelValues("expired"), 1},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(tt.c); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCollector_Handler(t *testing.T) {
	m := metrics.New()
	m.ItemWrite("Post", "create")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `contentgate_item_writes_total{list="Post",operation="create"} 1`) {
		t.Errorf("metrics output missing item writes:\n%s", body)
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Error("metrics output missing Go collector")
	}
}

func TestCollectors_Independent(t *testing.T) {
	// Two collectors on separate registries must not conflict.
	a := metrics.New()
	b := metrics.New()
	a.AuthAttempt("success")
	if got := testutil.ToFloat64(b.AuthAttempts.WithLabelValues("success")); got != 0 {
		t.Errorf("second collector saw %v attempts", got)
	}
}
