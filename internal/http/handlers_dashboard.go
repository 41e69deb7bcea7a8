package http

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const handlerTimeout = 7 * time.Second

// districtOptionsData feeds the district <option> list, both on the
// full page and via the /ui/districts partial.
type districtOptionsData struct {
	Selected  string
	Districts []string
}

// handleDashboard renders the main dashboard page with the sidebar
// controls. The partials load themselves over /ui/*.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	table, err := s.source.Dataset(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Dataset unavailable", "error", err)
		http.Error(w, "dataset unavailable", http.StatusServiceUnavailable)
		return
	}

	sel := parseSelection(r)
	states, err := stateOptions(table)
	if err != nil {
		slog.ErrorContext(ctx, "State options failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	districts, err := districtOptions(table, sel.State)
	if err != nil {
		slog.ErrorContext(ctx, "District options failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	query := url.Values{}
	query.Set("level", string(sel.Level))
	query.Set("state", sel.State)
	query.Set("district", sel.District)

	data := struct {
		Selection    Selection
		States       []string
		DistrictData districtOptionsData
		Query        template.URL
	}{
		Selection:    sel,
		States:       states,
		DistrictData: districtOptionsData{Selected: sel.District, Districts: districts},
		Query:        template.URL(query.Encode()),
	}

	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		slog.ErrorContext(ctx, "Dashboard template execution failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleDistrictOptions returns the district <option> list for the
// currently selected state, so the sidebar can narrow it live.
func (s *Server) handleDistrictOptions(w http.ResponseWriter, r *http.Request) {
	s.servePartial(w, r, "districts", "district_options", func(ctx context.Context, sel Selection) (any, error) {
		table, err := s.source.Dataset(ctx)
		if err != nil {
			return nil, err
		}
		districts, err := districtOptions(table, sel.State)
		if err != nil {
			return nil, err
		}
		return districtOptionsData{Selected: sel.District, Districts: districts}, nil
	})
}

// handleStatHero returns the headline total partial.
func (s *Server) handleStatHero(w http.ResponseWriter, r *http.Request) {
	s.servePartial(w, r, "stat-hero", "stat_hero", func(ctx context.Context, sel Selection) (any, error) {
		table, err := s.source.Dataset(ctx)
		if err != nil {
			return nil, err
		}
		return buildStatHero(table, sel)
	})
}

// handleMonthly returns the registrations-per-month partial.
func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	s.servePartial(w, r, "monthly", "monthly", func(ctx context.Context, sel Selection) (any, error) {
		table, err := s.source.Dataset(ctx)
		if err != nil {
			return nil, err
		}
		bars, err := buildMonthly(table, sel)
		if err != nil {
			return nil, err
		}
		return struct{ Bars []barRow }{Bars: bars}, nil
	})
}

// handleAgeGroups returns the per-age-group monthly partial.
func (s *Server) handleAgeGroups(w http.ResponseWriter, r *http.Request) {
	s.servePartial(w, r, "age-groups", "age_groups", func(ctx context.Context, sel Selection) (any, error) {
		table, err := s.source.Dataset(ctx)
		if err != nil {
			return nil, err
		}
		groups, err := buildAgeGroups(table, sel)
		if err != nil {
			return nil, err
		}
		return struct{ Groups []monthGroup }{Groups: groups}, nil
	})
}

// handleTerritories returns the sub-territory breakdown partial.
func (s *Server) handleTerritories(w http.ResponseWriter, r *http.Request) {
	s.servePartial(w, r, "territories", "territories", func(ctx context.Context, sel Selection) (any, error) {
		table, err := s.source.Dataset(ctx)
		if err != nil {
			return nil, err
		}
		return buildTerritories(table, sel)
	})
}

// handleTerritoryAgeGroups returns the per-sub-territory age-group
// breakdown partial.
func (s *Server) handleTerritoryAgeGroups(w http.ResponseWriter, r *http.Request) {
	s.servePartial(w, r, "territory-age-groups", "territory_age_groups", func(ctx context.Context, sel Selection) (any, error) {
		table, err := s.source.Dataset(ctx)
		if err != nil {
			return nil, err
		}
		return buildTerritoryAgeGroups(table, sel)
	})
}

// handleCumulative returns the running-total partial.
func (s *Server) handleCumulative(w http.ResponseWriter, r *http.Request) {
	s.servePartial(w, r, "cumulative", "cumulative", func(ctx context.Context, sel Selection) (any, error) {
		table, err := s.source.Dataset(ctx)
		if err != nil {
			return nil, err
		}
		return buildCumulative(table, sel)
	})
}

// handleShare returns the age-group percentage split partial.
func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	s.servePartial(w, r, "share", "share", func(ctx context.Context, sel Selection) (any, error) {
		table, err := s.source.Dataset(ctx)
		if err != nil {
			return nil, err
		}
		groups, err := buildShare(table, sel)
		if err != nil {
			return nil, err
		}
		return struct{ Groups []shareGroup }{Groups: groups}, nil
	})
}

// servePartial renders one cached dashboard partial. Rendered HTML is
// cached per view+selection; the snapshot backing a session never
// changes, so staleness is bounded by the cache TTL alone.
func (s *Server) servePartial(w http.ResponseWriter, r *http.Request, view, tmpl string, build func(context.Context, Selection) (any, error)) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()
	r = r.WithContext(ctx)

	sel := parseSelection(r)
	key := sel.cacheKey(view)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if html, ok := s.viewCache.Get(key); ok {
		_, _ = w.Write(html)
		return
	}

	data, err := build(ctx, sel)
	if err != nil {
		slog.ErrorContext(ctx, "Partial build failed", "view", view, "error", err)
		http.Error(w, "view unavailable", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, tmpl, data); err != nil {
		slog.ErrorContext(ctx, "Partial template failed", "view", view, "template", tmpl, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	html := buf.Bytes()
	s.viewCache.Set(key, html)
	_, _ = w.Write(html)
}
