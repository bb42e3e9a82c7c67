package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		// Known exact routes.
		{"/healthz", "/healthz"},
		{"/readyz", "/readyz"},
		{"/metrics", "/metrics"},
		{"/", "/"},
		{"/api/v1/hubble", "/api/v1/hubble"},
		{"/api/v1/distance", "/api/v1/distance"},
		{"/api/v1/invert", "/api/v1/invert"},
		{"/api/v1/translate", "/api/v1/translate"},
		{"/api/v1/volume/", "/api/v1/volume"},
		{"/api/v1/batch/distance", "/api/v1/batch/distance"},
		{"/api/v1/batch/invert", "/api/v1/batch/invert"},

		// Unknown/bot paths collapse to "other".
		{"/wp-admin", "other"},
		{"/robots.txt", "other"},
		{"/.env", "other"},
		{"/api/v2/hubble", "other"},
		{"/api/v1/batch/translate", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := normalizeRoute(tt.path)
			if got != tt.want {
				t.Errorf("normalizeRoute(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

// TestMetricsCardinality verifies that arbitrary unknown paths produce
// exactly one distinct label.
func TestMetricsCardinality(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		seen[normalizeRoute(fmt.Sprintf("/scan/%d", i))] = true
	}
	if len(seen) != 1 {
		t.Errorf("expected 1 unique label for unknown paths, got %d: %v", len(seen), seen)
	}
}

func TestMiddlewareRecordsStatus(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/api/v1/sfr", "GET", "418"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/v1/sfr", nil))
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/api/v1/sfr", "GET", "418"))

	if after-before != 1 {
		t.Errorf("request counter delta = %g, want 1", after-before)
	}
}

func TestDomainCounters(t *testing.T) {
	failures := testutil.ToFloat64(invertFailuresTotal)
	ObserveInversion(7, true)
	ObserveInversion(501, false)
	if got := testutil.ToFloat64(invertFailuresTotal) - failures; got != 1 {
		t.Errorf("inversion failures delta = %g, want 1", got)
	}

	okBefore := testutil.ToFloat64(batchItemsTotal.WithLabelValues("invert", "ok"))
	ObserveBatch("invert", 3, 1, 5*time.Millisecond)
	if got := testutil.ToFloat64(batchItemsTotal.WithLabelValues("invert", "ok")) - okBefore; got != 3 {
		t.Errorf("batch ok delta = %g, want 3", got)
	}

	errBefore := testutil.ToFloat64(modelReloadsTotal.WithLabelValues("error"))
	ObserveReload(errors.New("boom"))
	if got := testutil.ToFloat64(modelReloadsTotal.WithLabelValues("error")) - errBefore; got != 1 {
		t.Errorf("reload error delta = %g, want 1", got)
	}

	SetModelKind("tabulated")
	SetModelKind("analytic")
	if got := testutil.ToFloat64(modelKind.WithLabelValues("analytic")); got != 1 {
		t.Errorf("analytic gauge = %g, want 1", got)
	}
	if n := testutil.CollectAndCount(modelKind); n != 1 {
		t.Errorf("model kind series = %d, want 1", n)
	}
}
