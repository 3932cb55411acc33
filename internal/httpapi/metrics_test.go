package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestItoa(t *testing.T) {
	cases := map[int]string{0: "0", 200: "200", 404: "404", 503: "503"}
	for n, want := range cases {
		if got := itoa(n); got != want {
			t.Fatalf("itoa(%d)=%q, want %q", n, got, want)
		}
	}
}

func TestRoutePatternFallsBackToPath(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/no/routectx", nil)
	if got := routePatternOrPath(r); got != "/no/routectx" {
		t.Fatalf("got %q", got)
	}
}

func TestMetricsMiddlewareCapturesStatus(t *testing.T) {
	h := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusTeapot {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestObserveGeneration(t *testing.T) {
	// Must not panic for any outcome label, including empty.
	ObserveGeneration(time.Millisecond, "ok")
	ObserveGeneration(0, "not_loaded")
	ObserveGeneration(0, "")
}

func TestMetricsEndpointExposition(t *testing.T) {
	r := NewMux(readyService())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if w.Body.Len() == 0 {
		t.Fatal("empty exposition")
	}
}
