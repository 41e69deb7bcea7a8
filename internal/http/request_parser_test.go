package http

import (
	"net/http/httptest"
	"testing"

	"enrolytics/internal/core"
)

func TestParseSelectionDefaultsToNational(t *testing.T) {
	r := httptest.NewRequest("GET", "/ui/monthly", nil)
	sel := parseSelection(r)
	if sel.Level != core.LevelNational {
		t.Errorf("Level = %q, want national", sel.Level)
	}
	if sel.State != "" || sel.District != "" {
		t.Errorf("expected empty state/district, got %q/%q", sel.State, sel.District)
	}
}

func TestParseSelectionUnknownLevel(t *testing.T) {
	r := httptest.NewRequest("GET", "/ui/monthly?level=galaxy", nil)
	if sel := parseSelection(r); sel.Level != core.LevelNational {
		t.Errorf("Level = %q, want national fallback", sel.Level)
	}
}

func TestParseSelectionSanitizesInput(t *testing.T) {
	r := httptest.NewRequest("GET", "/ui/monthly?level=state&state=%20Kerala%00%20", nil)
	sel := parseSelection(r)
	if sel.State != "Kerala" {
		t.Errorf("State = %q, want Kerala", sel.State)
	}
}

func TestSelectionFilterSpecDropsInactiveColumns(t *testing.T) {
	table := sampleTable(t)

	// A national selection with a stale state param must not narrow.
	sel := Selection{Level: core.LevelNational, State: "Kerala", District: "Patna"}
	filtered, err := core.Filter(table, sel.FilterSpec())
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if filtered.Len() != table.Len() {
		t.Errorf("national filter kept %d rows, want all %d", filtered.Len(), table.Len())
	}

	sel = Selection{Level: core.LevelState, State: "Kerala", District: "Patna"}
	filtered, err = core.Filter(table, sel.FilterSpec())
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if filtered.Len() != 3 {
		t.Errorf("state filter kept %d rows, want 3 Kerala rows", filtered.Len())
	}
}

func TestSelectionCacheKeyDistinguishesViews(t *testing.T) {
	sel := Selection{Level: core.LevelState, State: "Kerala"}
	if sel.cacheKey("monthly") == sel.cacheKey("share") {
		t.Error("cache keys for different views collide")
	}
	other := Selection{Level: core.LevelState, State: "Bihar"}
	if sel.cacheKey("monthly") == other.cacheKey("monthly") {
		t.Error("cache keys for different selections collide")
	}
}

func TestScopeLabel(t *testing.T) {
	tests := []struct {
		sel  Selection
		want string
	}{
		{Selection{Level: core.LevelNational}, "India"},
		{Selection{Level: core.LevelState, State: "Kerala"}, "Kerala"},
		{Selection{Level: core.LevelState}, "All states"},
		{Selection{Level: core.LevelDistrict, District: "Patna"}, "Patna"},
		{Selection{Level: core.LevelDistrict}, "All districts"},
	}
	for _, tt := range tests {
		if got := tt.sel.scopeLabel(); got != tt.want {
			t.Errorf("scopeLabel(%+v) = %q, want %q", tt.sel, got, tt.want)
		}
	}
}
