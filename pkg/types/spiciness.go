package types

// SpicinessLevel is a noodle's heat on a 1 (mild) to 5 scale.
type SpicinessLevel int

// Spiciness bounds and the default for new noodles.
const (
	MinSpiciness     SpicinessLevel = 1
	MaxSpiciness     SpicinessLevel = 5
	DefaultSpiciness SpicinessLevel = 3
)

// Spiciness labels.
const (
	SpicinessMild    = "Mild"
	SpicinessMedium  = "Medium"
	SpicinessHot     = "Hot"
	SpicinessUnknown = "Unknown"
)

// DescribeSpiciness maps a level to its display label. Levels outside
// 1..5 yield "Unknown"; the function never fails.
func DescribeSpiciness(level SpicinessLevel) string {
	switch {
	case level >= 1 && level <= 2:
		return SpicinessMild
	case level >= 3 && level <= 4:
		return SpicinessMedium
	case level == 5:
		return SpicinessHot
	default:
		return SpicinessUnknown
	}
}

// Description returns DescribeSpiciness(l).
func (l SpicinessLevel) Description() string {
	return DescribeSpiciness(l)
}

// Valid reports whether l is within 1..5.
func (l SpicinessLevel) Valid() bool {
	return l >= MinSpiciness && l <= MaxSpiciness
}
