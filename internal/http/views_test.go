package http

import (
	"testing"
	"time"

	"enrolytics/internal/core"
)

func day(d int) time.Time {
	return time.Date(2025, time.March, d, 0, 0, 0, 0, time.UTC)
}

func sampleTable(t *testing.T) *core.Table {
	t.Helper()
	columns := append([]string{core.ColState, core.ColDistrict, core.ColPincode, core.ColDate, core.ColMonth}, core.AgeColumns...)
	table := core.NewTable(columns)

	rows := []core.Row{
		{core.ColState: "Kerala", core.ColDistrict: "Ernakulam", core.ColPincode: "682001", core.ColDate: day(1), core.ColMonth: "2025-03", core.ColAge0to5: int64(10), core.ColAge5to17: int64(20), core.ColAge18Plus: int64(30)},
		{core.ColState: "Kerala", core.ColDistrict: "Ernakulam", core.ColPincode: "682002", core.ColDate: day(2), core.ColMonth: "2025-03", core.ColAge0to5: int64(4), core.ColAge5to17: int64(6), core.ColAge18Plus: int64(10)},
		{core.ColState: "Kerala", core.ColDistrict: "Idukki", core.ColPincode: "685501", core.ColDate: day(2), core.ColMonth: "2025-03", core.ColAge0to5: int64(1), core.ColAge5to17: int64(2), core.ColAge18Plus: int64(3)},
		{core.ColState: "Bihar", core.ColDistrict: "Patna", core.ColPincode: "800001", core.ColDate: day(3), core.ColMonth: "2025-04", core.ColAge0to5: int64(50), core.ColAge5to17: int64(60), core.ColAge18Plus: int64(70)},
	}
	for _, r := range rows {
		if err := table.Append(r); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	return table
}

func TestBuildStatHeroHalvesTotal(t *testing.T) {
	table := sampleTable(t)

	view, err := buildStatHero(table, Selection{Level: core.LevelNational})
	if err != nil {
		t.Fatalf("buildStatHero: %v", err)
	}
	if !view.HasData {
		t.Fatal("expected HasData")
	}
	// Raw sum is 266, displayed as half.
	if view.Total != "133" {
		t.Errorf("Total = %q, want %q", view.Total, "133")
	}
	if view.Scope != "India" {
		t.Errorf("Scope = %q, want India", view.Scope)
	}
	if view.Months != 2 {
		t.Errorf("Months = %d, want 2", view.Months)
	}
	if view.Places != 2 {
		t.Errorf("Places = %d, want 2 states", view.Places)
	}
}

func TestBuildStatHeroEmptySelection(t *testing.T) {
	table := sampleTable(t)

	view, err := buildStatHero(table, Selection{Level: core.LevelState, State: "Goa"})
	if err != nil {
		t.Fatalf("buildStatHero: %v", err)
	}
	if view.HasData {
		t.Error("expected no data for unknown state")
	}
}

func TestBuildMonthlyOrderAndValues(t *testing.T) {
	table := sampleTable(t)

	bars, err := buildMonthly(table, Selection{Level: core.LevelNational})
	if err != nil {
		t.Fatalf("buildMonthly: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("got %d bars, want 2", len(bars))
	}
	if bars[0].Label != "2025-03" || bars[1].Label != "2025-04" {
		t.Errorf("months out of order: %q, %q", bars[0].Label, bars[1].Label)
	}
	if bars[0].Value != "86" {
		t.Errorf("2025-03 value = %q, want 86", bars[0].Value)
	}
	if bars[1].Width != 100 {
		t.Errorf("largest month width = %d, want 100", bars[1].Width)
	}
}

func TestBuildMonthlyStateScope(t *testing.T) {
	table := sampleTable(t)

	bars, err := buildMonthly(table, Selection{Level: core.LevelState, State: "Kerala"})
	if err != nil {
		t.Fatalf("buildMonthly: %v", err)
	}
	if len(bars) != 1 {
		t.Fatalf("got %d bars, want 1", len(bars))
	}
	if bars[0].Label != "2025-03" || bars[0].Value != "86" {
		t.Errorf("got %q=%q, want 2025-03=86", bars[0].Label, bars[0].Value)
	}
}

func TestBuildAgeGroupsLabels(t *testing.T) {
	table := sampleTable(t)

	groups, err := buildAgeGroups(table, Selection{Level: core.LevelNational})
	if err != nil {
		t.Fatalf("buildAgeGroups: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	g := groups[0]
	if g.Month != "2025-03" {
		t.Errorf("first month = %q", g.Month)
	}
	if len(g.Bars) != 3 {
		t.Fatalf("got %d bars, want 3", len(g.Bars))
	}
	if g.Bars[0].Label != "Age 0-5" || g.Bars[2].Label != "Age 18+" {
		t.Errorf("labels = %q, %q", g.Bars[0].Label, g.Bars[2].Label)
	}
	if g.Bars[2].Value != "43" {
		t.Errorf("Age 18+ for 2025-03 = %q, want 43", g.Bars[2].Value)
	}
}

func TestBuildTerritoriesByLevel(t *testing.T) {
	table := sampleTable(t)

	national, err := buildTerritories(table, Selection{Level: core.LevelNational})
	if err != nil {
		t.Fatalf("national: %v", err)
	}
	if national.IsTable {
		t.Error("national view should be bars, not a table")
	}
	if len(national.Bars) != 2 {
		t.Fatalf("got %d bars, want 2", len(national.Bars))
	}
	// Bihar (180) outranks Kerala (86).
	if national.Bars[0].Label != "Bihar" {
		t.Errorf("top state = %q, want Bihar", national.Bars[0].Label)
	}

	state, err := buildTerritories(table, Selection{Level: core.LevelState, State: "Kerala"})
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if len(state.Bars) != 2 || state.Bars[0].Label != "Ernakulam" {
		t.Errorf("state bars = %+v, want Ernakulam first", state.Bars)
	}

	district, err := buildTerritories(table, Selection{Level: core.LevelDistrict, State: "Kerala", District: "Ernakulam"})
	if err != nil {
		t.Fatalf("district: %v", err)
	}
	if !district.IsTable {
		t.Fatal("district view should be a table")
	}
	if len(district.Rows) != 2 {
		t.Fatalf("got %d pincode rows, want 2", len(district.Rows))
	}
	if district.Rows[0][0] != "682001" {
		t.Errorf("top pincode = %q, want 682001", district.Rows[0][0])
	}
	// Pincode, three age groups, total.
	if len(district.Header) != 5 {
		t.Errorf("header has %d columns, want 5", len(district.Header))
	}
}

func TestBuildTerritoryAgeGroupsNational(t *testing.T) {
	table := sampleTable(t)

	view, err := buildTerritoryAgeGroups(table, Selection{Level: core.LevelNational})
	if err != nil {
		t.Fatalf("buildTerritoryAgeGroups: %v", err)
	}
	if len(view.Groups) != 2 {
		t.Fatalf("got %d groups, want 2 states", len(view.Groups))
	}
	// Bihar (180) outranks Kerala (86).
	if view.Groups[0].Name != "Bihar" {
		t.Errorf("top territory = %q, want Bihar", view.Groups[0].Name)
	}
	g := view.Groups[0]
	if len(g.Bars) != 3 {
		t.Fatalf("got %d bars, want 3 age groups", len(g.Bars))
	}
	if g.Bars[0].Label != "Age 0-5" || g.Bars[2].Label != "Age 18+" {
		t.Errorf("labels = %q, %q", g.Bars[0].Label, g.Bars[2].Label)
	}
	if g.Bars[2].Value != "70" {
		t.Errorf("Bihar Age 18+ = %q, want 70", g.Bars[2].Value)
	}
	// Bihar's 18+ bucket is the largest single value overall.
	if g.Bars[2].Width != 100 {
		t.Errorf("largest bar width = %d, want 100", g.Bars[2].Width)
	}
}

func TestBuildTerritoryAgeGroupsStateScope(t *testing.T) {
	table := sampleTable(t)

	view, err := buildTerritoryAgeGroups(table, Selection{Level: core.LevelState, State: "Kerala"})
	if err != nil {
		t.Fatalf("buildTerritoryAgeGroups: %v", err)
	}
	if len(view.Groups) != 2 {
		t.Fatalf("got %d groups, want 2 districts", len(view.Groups))
	}
	if view.Groups[0].Name != "Ernakulam" {
		t.Errorf("top district = %q, want Ernakulam", view.Groups[0].Name)
	}
	// Ernakulam 18+: 30 + 10.
	if view.Groups[0].Bars[2].Value != "40" {
		t.Errorf("Ernakulam Age 18+ = %q, want 40", view.Groups[0].Bars[2].Value)
	}
}

func TestBuildTerritoryAgeGroupsDistrictLevelDefers(t *testing.T) {
	table := sampleTable(t)

	view, err := buildTerritoryAgeGroups(table, Selection{Level: core.LevelDistrict, State: "Kerala", District: "Ernakulam"})
	if err != nil {
		t.Fatalf("buildTerritoryAgeGroups: %v", err)
	}
	if len(view.Groups) != 0 {
		t.Errorf("district level should defer to the pincode table, got %d groups", len(view.Groups))
	}
	if view.Note == "" {
		t.Error("district level should carry an explanatory note")
	}
}

func TestBuildCumulativeRunningTotal(t *testing.T) {
	table := sampleTable(t)

	view, err := buildCumulative(table, Selection{Level: core.LevelNational})
	if err != nil {
		t.Fatalf("buildCumulative: %v", err)
	}
	if len(view.Points) != 3 {
		t.Fatalf("got %d points, want 3", len(view.Points))
	}
	if view.Points[0].Label != "2025-03-01" {
		t.Errorf("first day = %q", view.Points[0].Label)
	}
	if view.Points[2].Value != "266" {
		t.Errorf("final running total = %q, want 266", view.Points[2].Value)
	}
	if view.Points[2].Width != 100 {
		t.Errorf("final point width = %d, want 100", view.Points[2].Width)
	}
}

func TestBuildShareSumsToHundred(t *testing.T) {
	table := sampleTable(t)

	groups, err := buildShare(table, Selection{Level: core.LevelState, State: "Bihar"})
	if err != nil {
		t.Fatalf("buildShare: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	var width int
	for _, seg := range groups[0].Segments {
		width += seg.Width
	}
	if width < 98 || width > 102 {
		t.Errorf("segment widths sum to %d, want ~100", width)
	}
}

func TestDistrictOptionsNarrowedByState(t *testing.T) {
	table := sampleTable(t)

	districts, err := districtOptions(table, "Kerala")
	if err != nil {
		t.Fatalf("districtOptions: %v", err)
	}
	if len(districts) != 2 {
		t.Fatalf("got %v, want the two Kerala districts", districts)
	}

	all, err := districtOptions(table, "")
	if err != nil {
		t.Fatalf("districtOptions all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("got %v, want all three districts", all)
	}
}

func TestStateOptionsFirstSeenOrder(t *testing.T) {
	table := sampleTable(t)

	states, err := stateOptions(table)
	if err != nil {
		t.Fatalf("stateOptions: %v", err)
	}
	if len(states) != 2 || states[0] != "Kerala" || states[1] != "Bihar" {
		t.Errorf("states = %v, want [Kerala Bihar]", states)
	}
}
