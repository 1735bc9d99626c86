package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func scrape(t *testing.T) string {
	t.Helper()
	rr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status=%d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsMiddlewareLabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(MetricsMiddleware)
	r.Get("/components/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/components/core", nil))
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rr.Code)
	}

	body := scrape(t)
	want := `providerd_http_requests_total{method="GET",route="/components/{id}",status="202"}`
	if !strings.Contains(body, want) {
		t.Fatalf("missing %s", want)
	}
	if strings.Contains(body, `route="/components/core"`) {
		t.Fatalf("raw path leaked into labels")
	}
}

func TestMetricsMiddlewareOutsideRouter(t *testing.T) {
	h := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/whatever/123", nil))

	body := scrape(t)
	if !strings.Contains(body, `route="unmatched",status="200"`) {
		t.Fatalf("expected unmatched route label with implicit 200")
	}
}
