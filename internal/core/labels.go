package core

// ageGroupLabels maps dataset column names to display labels. The
// bio_/demo_ variants come from the biometric and demographic update
// datasets, which share the dashboard.
var ageGroupLabels = map[string]string{
	"age_0_5":        "Age 0-5",
	"age_5_17":       "Age 5-17",
	"age_18_greater": "Age 18+",
	"bio_age_5_17":   "Age 5-17",
	"bio_age_17_":    "Age 17+",
	"demo_age_5_17":  "Age 5-17",
	"demo_age_17_":   "Age 17+",
}

// AgeGroupLabel converts an age column name to its display label.
// Unknown names pass through unchanged.
func AgeGroupLabel(column string) string {
	if label, ok := ageGroupLabels[column]; ok {
		return label
	}
	return column
}
