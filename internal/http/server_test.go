package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"enrolytics/internal/core"
)

type stubSource struct {
	table *core.Table
	err   error
}

func (s *stubSource) Dataset(ctx context.Context) (*core.Table, error) {
	return s.table, s.err
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s := NewServer(":0", &stubSource{table: sampleTable(t)}, Options{CacheSize: 16, CacheTTL: time.Minute})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/healthz status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/readyz status = %d", rec.Code)
	}
}

func TestReadyFailsWithoutDataset(t *testing.T) {
	s := NewServer(":0", &stubSource{err: errors.New("no snapshot")}, Options{})
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	}()

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("/readyz status = %d, want 503", rec.Code)
	}
}

func TestDashboardPageRenders(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/?level=state&state=Kerala", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Kerala") {
		t.Error("page missing state option")
	}
	if !strings.Contains(body, "/ui/stat-hero") {
		t.Error("page missing stat hero partial wiring")
	}
	if !strings.Contains(body, "Ernakulam") {
		t.Error("district options not narrowed to the selected state")
	}
}

func TestPartialRendersAndCaches(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/ui/monthly?level=national", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "2025-03") {
		t.Error("partial missing month bar")
	}
	if s.viewCache.Size() != 1 {
		t.Errorf("cache size = %d, want 1", s.viewCache.Size())
	}

	// Second hit must come from the cache and render identically.
	rec2 := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec2, httptest.NewRequest("GET", "/ui/monthly?level=national", nil))
	if rec2.Body.String() != rec.Body.String() {
		t.Error("cached partial differs from first render")
	}
	if s.viewCache.Size() != 1 {
		t.Errorf("cache size after hit = %d, want 1", s.viewCache.Size())
	}
}

func TestPartialRejectsPost(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest("POST", "/ui/share", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestDistrictOptionsPartial(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/ui/districts?state=Bihar", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Patna") {
		t.Error("missing Bihar district")
	}
	if strings.Contains(body, "Idukki") {
		t.Error("options leak districts from other states")
	}
}

func TestTerritoriesPartialTableAtDistrictLevel(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/ui/territories?level=district&state=Kerala&district=Ernakulam", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<table") {
		t.Error("district breakdown should render a table")
	}
	if !strings.Contains(body, "682001") {
		t.Error("table missing pincode rows")
	}
}

func TestTerritoryAgeGroupsPartial(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/ui/territory-age-groups?level=national", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Bihar") || !strings.Contains(body, "Kerala") {
		t.Error("partial missing per-state groups")
	}
	if !strings.Contains(body, "Age 0-5") {
		t.Error("partial missing age-group bars")
	}

	// At the district level the age split lives in the pincode table.
	rec = httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/ui/territory-age-groups?level=district&state=Kerala&district=Ernakulam", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("district status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "bar__fill") {
		t.Error("district level should not render age-group bars")
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("missing Content-Security-Policy header")
	}
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for i := 0; i < requestsPerWindow; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d unexpectedly blocked", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Error("request over the window cap should be rate limited")
	}
	if !rl.allow("10.0.0.2") {
		t.Error("other clients must not be affected")
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	s := NewServer(":0", &stubSource{}, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("first shutdown: %v", err)
	}
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("second shutdown: %v", err)
	}
}
