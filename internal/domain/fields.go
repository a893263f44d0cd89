package domain

// Logical field names sampled for every observation.
const (
	FieldWaveHeight = "swh"    // Significant wave height (m).
	FieldPeriod     = "per"    // Primary wave period (s).
	FieldDirection  = "dir"    // Primary wave direction (compass degrees).
	FieldWindU      = "uwnd10" // 10 m eastward wind (m/s).
	FieldWindV      = "vwnd10" // 10 m northward wind (m/s).
)

// RequiredFields lists the fields an observation needs, in sampling order.
var RequiredFields = []string{
	FieldWaveHeight,
	FieldPeriod,
	FieldDirection,
	FieldWindU,
	FieldWindV,
}
