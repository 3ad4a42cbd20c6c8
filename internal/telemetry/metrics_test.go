package telemetry

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

// gathered returns the value of the series name{labels} from Registry, or 0.
func gathered(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := Registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	series:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue series
				}
			}
			if m.GetCounter() != nil {
				return m.GetCounter().GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	return 0
}

func TestMetricsMiddleware(t *testing.T) {
	r := chi.NewRouter()
	r.Use(MetricsMiddleware)
	r.Get("/api/things/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	labels := map[string]string{"method": "GET", "endpoint": "/api/things/{id}", "status": "418"}
	before := gathered(t, "radioqueue_http_requests_total", labels)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/things/42", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", rec.Code)
	}
	after := gathered(t, "radioqueue_http_requests_total", labels)
	if after != before+1 {
		t.Errorf("expected counter to grow by 1, got %v -> %v", before, after)
	}
	if v := gathered(t, "radioqueue_http_active_requests", nil); v != 0 {
		t.Errorf("expected no active requests, got %v", v)
	}
}

func TestHandler(t *testing.T) {
	DeliveriesTotal.WithLabelValues("delivered").Inc()

	server := httptest.NewServer(Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "radioqueue_deliveries_total") {
		t.Error("expected deliveries counter in exposition output")
	}
}
