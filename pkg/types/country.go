package types

// Origin country values accepted by Noodle.OriginCountry.
const (
	CountrySouthKorea  = "south_korea"
	CountryIndonesia   = "indonesia"
	CountryMalaysia    = "malaysia"
	CountryThailand    = "thailand"
	CountryJapan       = "japan"
	CountrySingapore   = "singapore"
	CountryVietnam     = "vietnam"
	CountryChina       = "china"
	CountryTaiwan      = "taiwan"
	CountryPhilippines = "philippines"
)

// Country pairs an origin country value with its display label.
type Country struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Countries lists the origin countries in display order.
var Countries = []Country{
	{CountrySouthKorea, "South Korea"},
	{CountryIndonesia, "Indonesia"},
	{CountryMalaysia, "Malaysia"},
	{CountryThailand, "Thailand"},
	{CountryJapan, "Japan"},
	{CountrySingapore, "Singapore"},
	{CountryVietnam, "Vietnam"},
	{CountryChina, "China"},
	{CountryTaiwan, "Taiwan"},
	{CountryPhilippines, "Philippines"},
}

// CountryValues returns the country values in display order.
func CountryValues() []string {
	values := make([]string, len(Countries))
	for i, c := range Countries {
		values[i] = c.Value
	}
	return values
}

// CountryLabel returns the display label for value, or value itself when it
// is not a known country.
func CountryLabel(value string) string {
	for _, c := range Countries {
		if c.Value == value {
			return c.Label
		}
	}
	return value
}
