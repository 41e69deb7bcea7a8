package core

// Level selects the analysis granularity. It decides which geographic
// constraints of a FilterSpec are honored: National ignores both state
// and district, State ignores district. A level only ever narrows the
// set of active constraints, never widens matching.
type Level string

const (
	LevelNational Level = "national"
	LevelState    Level = "state"
	LevelDistrict Level = "district"
)

// ParseLevel maps user input to a Level, defaulting to National.
func ParseLevel(s string) Level {
	switch Level(s) {
	case LevelState:
		return LevelState
	case LevelDistrict:
		return LevelDistrict
	default:
		return LevelNational
	}
}

// FilterSpec is a set of column equality constraints plus the
// granularity level. Specs are ephemeral, one per user interaction.
type FilterSpec struct {
	Level  Level
	Equals map[string]Value
}

// NewFilterSpec builds a spec for the given level with no constraints.
func NewFilterSpec(level Level) FilterSpec {
	return FilterSpec{Level: level, Equals: make(map[string]Value)}
}

// With adds an equality constraint and returns the spec for chaining.
func (s FilterSpec) With(column string, v Value) FilterSpec {
	if s.Equals == nil {
		s.Equals = make(map[string]Value)
	}
	s.Equals[column] = v
	return s
}

// active returns the constraints honored at the spec's level.
func (s FilterSpec) active() map[string]Value {
	out := make(map[string]Value, len(s.Equals))
	for col, v := range s.Equals {
		switch s.Level {
		case LevelNational:
			if col == ColState || col == ColDistrict {
				continue
			}
		case LevelState:
			if col == ColDistrict {
				continue
			}
		}
		out[col] = v
	}
	return out
}

// Filter returns the rows of t matching every active constraint.
// Unconstrained columns match everything; an empty result is a valid
// zero-row table, not an error.
func Filter(t *Table, spec FilterSpec) (*Table, error) {
	active := spec.active()
	for col := range active {
		if !t.HasColumn(col) {
			return nil, &SchemaError{Column: col, Reason: "not in table schema"}
		}
	}

	out := NewTable(t.columns)
	for _, r := range t.rows {
		match := true
		for col, want := range active {
			if keyString(r[col]) != keyString(want) {
				match = false
				break
			}
		}
		if match {
			out.rows = append(out.rows, r)
		}
	}
	return out, nil
}
