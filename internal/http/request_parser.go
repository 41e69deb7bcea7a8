// Package http provides the dashboard HTTP server and handlers.
//
// This file parses the geographic selection carried on every dashboard
// request: the drill-down level plus the state and district picked in
// the sidebar.
package http

import (
	"net/http"
	"strings"

	"enrolytics/internal/core"
)

// Selection is the geographic scope a dashboard request asks for.
type Selection struct {
	Level    core.Level
	State    string
	District string
}

// parseSelection extracts the selection from query parameters. Missing
// or unknown values fall back to the national view; state and district
// are sanitized but not validated against the data, since a value that
// matches nothing simply yields an empty result set.
func parseSelection(r *http.Request) Selection {
	q := r.URL.Query()
	return Selection{
		Level:    core.ParseLevel(q.Get("level")),
		State:    sanitizeInput(q.Get("state")),
		District: sanitizeInput(q.Get("district")),
	}
}

// FilterSpec translates the selection into a filter. Inactive columns
// for the level are dropped by the filter itself, so both values can be
// attached unconditionally.
func (sel Selection) FilterSpec() core.FilterSpec {
	spec := core.NewFilterSpec(sel.Level)
	if sel.State != "" {
		spec = spec.With(core.ColState, sel.State)
	}
	if sel.District != "" {
		spec = spec.With(core.ColDistrict, sel.District)
	}
	return spec
}

// cacheKey identifies a rendered partial for this selection.
func (sel Selection) cacheKey(view string) string {
	return view + "|" + string(sel.Level) + "|" + sel.State + "|" + sel.District
}

// scopeLabel is the human-readable name of the selected territory.
func (sel Selection) scopeLabel() string {
	switch sel.Level {
	case core.LevelDistrict:
		if sel.District != "" {
			return sel.District
		}
		return "All districts"
	case core.LevelState:
		if sel.State != "" {
			return sel.State
		}
		return "All states"
	default:
		return "India"
	}
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
