package http

import (
	"fmt"
	"time"

	"enrolytics/internal/core"
)

// barRow is one horizontal bar in a CSS bar chart.
type barRow struct {
	Label string
	Value string
	Width int // percent of the widest bar, 0-100
}

// statHeroView backs the headline total partial.
type statHeroView struct {
	HasData bool
	Scope   string
	Total   string
	Months  int
	Places  int
}

// monthGroup holds one month's bars in the age-group partial.
type monthGroup struct {
	Month string
	Bars  []barRow
}

// territoryView backs the sub-territory partial: bars at the national
// and state levels, a pincode table at the district level.
type territoryView struct {
	Title   string
	IsTable bool
	Bars    []barRow
	Header  []string
	Rows    [][]string
}

// lineView backs the cumulative chart: one bar per day, width scaled to
// the final running total.
type lineView struct {
	Points []barRow
}

// shareGroup holds one month's percentage split across age groups.
type shareGroup struct {
	Month    string
	Segments []shareSegment
}

type shareSegment struct {
	Label   string
	Percent string
	Width   int
}

const rowSumColumn = "registrations"

// buildStatHero computes the headline enrolment count for the
// selection. Every record appears twice in the source extracts (once
// per capture pass), so the displayed total is half the raw sum.
func buildStatHero(t *core.Table, sel Selection) (statHeroView, error) {
	filtered, err := core.Filter(t, sel.FilterSpec())
	if err != nil {
		return statHeroView{}, err
	}

	raw, err := core.Total(filtered, core.AgeColumns)
	if err != nil {
		return statHeroView{}, err
	}
	total := int64(raw / 2)

	months, err := filtered.DistinctStrings(core.ColMonth)
	if err != nil {
		return statHeroView{}, err
	}

	placeCol := core.ColState
	switch sel.Level {
	case core.LevelState:
		placeCol = core.ColDistrict
	case core.LevelDistrict:
		placeCol = core.ColPincode
	}
	places, err := filtered.DistinctStrings(placeCol)
	if err != nil {
		return statHeroView{}, err
	}

	return statHeroView{
		HasData: filtered.Len() > 0,
		Scope:   sel.scopeLabel(),
		Total:   core.FormatIndian(total),
		Months:  len(months),
		Places:  len(places),
	}, nil
}

// buildMonthly aggregates registrations per month, in calendar order.
func buildMonthly(t *core.Table, sel Selection) ([]barRow, error) {
	grouped, err := core.SumColumns(t, sel.FilterSpec(), []string{core.ColMonth}, core.AgeColumns)
	if err != nil {
		return nil, err
	}
	grouped, err = core.AddRowSums(grouped, core.AgeColumns, rowSumColumn)
	if err != nil {
		return nil, err
	}
	grouped, err = core.SortByStringAsc(grouped, core.ColMonth)
	if err != nil {
		return nil, err
	}

	var max float64
	grouped.Rows(func(_ int, r core.Row) bool {
		if v, _ := core.NumericValue(rowSumColumn, r[rowSumColumn]); v > max {
			max = v
		}
		return true
	})

	bars := make([]barRow, 0, grouped.Len())
	grouped.Rows(func(_ int, r core.Row) bool {
		v, _ := core.NumericValue(rowSumColumn, r[rowSumColumn])
		bars = append(bars, barRow{
			Label: stringCell(r[core.ColMonth]),
			Value: core.FormatIndianFloat(v, 0),
			Width: barWidth(v, max),
		})
		return true
	})
	return bars, nil
}

// buildAgeGroups aggregates registrations per month split by age group.
// Bars are scaled against the single largest age-group value so months
// stay comparable.
func buildAgeGroups(t *core.Table, sel Selection) ([]monthGroup, error) {
	grouped, err := core.SumColumns(t, sel.FilterSpec(), []string{core.ColMonth}, core.AgeColumns)
	if err != nil {
		return nil, err
	}
	grouped, err = core.SortByStringAsc(grouped, core.ColMonth)
	if err != nil {
		return nil, err
	}

	var max float64
	grouped.Rows(func(_ int, r core.Row) bool {
		for _, col := range core.AgeColumns {
			if v, _ := core.NumericValue(col, r[col]); v > max {
				max = v
			}
		}
		return true
	})

	groups := make([]monthGroup, 0, grouped.Len())
	grouped.Rows(func(_ int, r core.Row) bool {
		g := monthGroup{Month: stringCell(r[core.ColMonth])}
		for _, col := range core.AgeColumns {
			v, _ := core.NumericValue(col, r[col])
			g.Bars = append(g.Bars, barRow{
				Label: core.AgeGroupLabel(col),
				Value: core.FormatIndianFloat(v, 0),
				Width: barWidth(v, max),
			})
		}
		groups = append(groups, g)
		return true
	})
	return groups, nil
}

// buildTerritories breaks the selection down one geographic level:
// states nationally, districts within a state, pincodes within a
// district. Pincodes render as a table because a district can hold
// hundreds of them.
func buildTerritories(t *core.Table, sel Selection) (territoryView, error) {
	groupCol := core.ColState
	title := "Registrations by state"
	switch sel.Level {
	case core.LevelState:
		groupCol = core.ColDistrict
		title = "Registrations by district"
	case core.LevelDistrict:
		groupCol = core.ColPincode
		title = "Registrations by pincode"
	}

	grouped, err := core.SumColumns(t, sel.FilterSpec(), []string{groupCol}, core.AgeColumns)
	if err != nil {
		return territoryView{}, err
	}
	grouped, err = core.AddRowSums(grouped, core.AgeColumns, rowSumColumn)
	if err != nil {
		return territoryView{}, err
	}
	grouped, err = core.SortByNumericDesc(grouped, rowSumColumn)
	if err != nil {
		return territoryView{}, err
	}

	view := territoryView{Title: title}

	if sel.Level == core.LevelDistrict {
		view.IsTable = true
		view.Header = []string{"Pincode"}
		for _, col := range core.AgeColumns {
			view.Header = append(view.Header, core.AgeGroupLabel(col))
		}
		view.Header = append(view.Header, "Total")
		grouped.Rows(func(_ int, r core.Row) bool {
			cells := []string{stringCell(r[groupCol])}
			for _, col := range core.AgeColumns {
				v, _ := core.NumericValue(col, r[col])
				cells = append(cells, core.FormatIndianFloat(v, 0))
			}
			v, _ := core.NumericValue(rowSumColumn, r[rowSumColumn])
			cells = append(cells, core.FormatIndianFloat(v, 0))
			view.Rows = append(view.Rows, cells)
			return true
		})
		return view, nil
	}

	var max float64
	grouped.Rows(func(_ int, r core.Row) bool {
		if v, _ := core.NumericValue(rowSumColumn, r[rowSumColumn]); v > max {
			max = v
		}
		return true
	})
	grouped.Rows(func(_ int, r core.Row) bool {
		v, _ := core.NumericValue(rowSumColumn, r[rowSumColumn])
		view.Bars = append(view.Bars, barRow{
			Label: stringCell(r[groupCol]),
			Value: core.FormatIndianFloat(v, 0),
			Width: barWidth(v, max),
		})
		return true
	})
	return view, nil
}

// territoryGroup holds one sub-territory's bars in the per-age-group
// breakdown.
type territoryGroup struct {
	Name string
	Bars []barRow
}

// territoryAgeView backs the sub-territory age-group partial. At the
// district level the pincode table already carries the age split, so
// Groups stays empty and Note explains why.
type territoryAgeView struct {
	Title  string
	Note   string
	Groups []territoryGroup
}

// buildTerritoryAgeGroups splits each sub-territory's registrations by
// age group: states nationally, districts within a state. Territories
// are ordered by total registrations, largest first, and bars are
// scaled against the single largest age-group value.
func buildTerritoryAgeGroups(t *core.Table, sel Selection) (territoryAgeView, error) {
	if sel.Level == core.LevelDistrict {
		return territoryAgeView{
			Title: "Registrations by pincode and age group",
			Note:  "The pincode table above already shows the age-group split.",
		}, nil
	}

	groupCol := core.ColState
	title := "Registrations by state and age group"
	if sel.Level == core.LevelState {
		groupCol = core.ColDistrict
		title = "Registrations by district and age group"
	}

	grouped, err := core.SumColumns(t, sel.FilterSpec(), []string{groupCol}, core.AgeColumns)
	if err != nil {
		return territoryAgeView{}, err
	}
	grouped, err = core.AddRowSums(grouped, core.AgeColumns, rowSumColumn)
	if err != nil {
		return territoryAgeView{}, err
	}
	grouped, err = core.SortByNumericDesc(grouped, rowSumColumn)
	if err != nil {
		return territoryAgeView{}, err
	}

	var max float64
	grouped.Rows(func(_ int, r core.Row) bool {
		for _, col := range core.AgeColumns {
			if v, _ := core.NumericValue(col, r[col]); v > max {
				max = v
			}
		}
		return true
	})

	view := territoryAgeView{Title: title}
	grouped.Rows(func(_ int, r core.Row) bool {
		g := territoryGroup{Name: stringCell(r[groupCol])}
		for _, col := range core.AgeColumns {
			v, _ := core.NumericValue(col, r[col])
			g.Bars = append(g.Bars, barRow{
				Label: core.AgeGroupLabel(col),
				Value: core.FormatIndianFloat(v, 0),
				Width: barWidth(v, max),
			})
		}
		view.Groups = append(view.Groups, g)
		return true
	})
	return view, nil
}

// buildCumulative produces the running daily total for the selection.
func buildCumulative(t *core.Table, sel Selection) (lineView, error) {
	grouped, err := core.SumColumns(t, sel.FilterSpec(), []string{core.ColDate}, core.AgeColumns)
	if err != nil {
		return lineView{}, err
	}
	grouped, err = core.AddRowSums(grouped, core.AgeColumns, rowSumColumn)
	if err != nil {
		return lineView{}, err
	}
	grouped, err = core.SortByStringAsc(grouped, core.ColDate)
	if err != nil {
		return lineView{}, err
	}
	grouped, err = core.Cumulative(grouped, rowSumColumn, "running")
	if err != nil {
		return lineView{}, err
	}

	var final float64
	if n := grouped.Len(); n > 0 {
		final, _ = core.NumericValue("running", grouped.Row(n-1)["running"])
	}

	var view lineView
	grouped.Rows(func(_ int, r core.Row) bool {
		v, _ := core.NumericValue("running", r["running"])
		view.Points = append(view.Points, barRow{
			Label: dateCell(r[core.ColDate]),
			Value: core.FormatIndianFloat(v, 0),
			Width: barWidth(v, final),
		})
		return true
	})
	return view, nil
}

// buildShare computes each age group's percentage of a month's
// registrations.
func buildShare(t *core.Table, sel Selection) ([]shareGroup, error) {
	grouped, err := core.SumColumns(t, sel.FilterSpec(), []string{core.ColMonth}, core.AgeColumns)
	if err != nil {
		return nil, err
	}
	grouped, err = core.SortByStringAsc(grouped, core.ColMonth)
	if err != nil {
		return nil, err
	}
	grouped, err = core.PercentShare(grouped, core.AgeColumns)
	if err != nil {
		return nil, err
	}

	groups := make([]shareGroup, 0, grouped.Len())
	grouped.Rows(func(_ int, r core.Row) bool {
		g := shareGroup{Month: stringCell(r[core.ColMonth])}
		for _, col := range core.AgeColumns {
			v, _ := core.NumericValue(col, r[col])
			g.Segments = append(g.Segments, shareSegment{
				Label:   core.AgeGroupLabel(col),
				Percent: core.FormatIndianFloat(v, 1) + "%",
				Width:   int(v + 0.5),
			})
		}
		groups = append(groups, g)
		return true
	})
	return groups, nil
}

// stateOptions lists the states present in the data, for the sidebar.
func stateOptions(t *core.Table) ([]string, error) {
	states, err := t.DistinctStrings(core.ColState)
	if err != nil {
		return nil, err
	}
	return states, nil
}

// districtOptions lists the districts of one state. An empty state
// yields every district.
func districtOptions(t *core.Table, state string) ([]string, error) {
	spec := core.NewFilterSpec(core.LevelState)
	if state != "" {
		spec = spec.With(core.ColState, state)
	}
	filtered, err := core.Filter(t, spec)
	if err != nil {
		return nil, err
	}
	return filtered.DistinctStrings(core.ColDistrict)
}

func barWidth(v, max float64) int {
	if max <= 0 || v <= 0 {
		return 0
	}
	w := int(v / max * 100)
	if w < 1 {
		w = 1
	}
	return w
}

func stringCell(v core.Value) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func dateCell(v core.Value) string {
	if d, ok := v.(time.Time); ok {
		return d.Format("2006-01-02")
	}
	return stringCell(v)
}
