// Package record defines the repository record moved through an export run
// and the pure functions that turn a raw API record into a display-ready one.
package record

// Default values substituted for fields the API leaves empty.
const (
	DefaultDescription = "No description provided."
	DefaultLanguage    = "Unknown"
)

// Raw is a starred repository as returned by the list-starred endpoint.
// Description and Language are pointers because the API sends null for them.
type Raw struct {
	Name            string  `json:"name"`
	Description     *string `json:"description"`
	HTMLURL         string  `json:"html_url"`
	Language        *string `json:"language"`
	StargazersCount int     `json:"stargazers_count"`

	// CreatedAt is kept as the API's ISO-8601 string and never reparsed.
	CreatedAt string `json:"created_at"`
}

// Record is one repository's normalized, display-ready data.
type Record struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"html_url"`
	Language    string `json:"language"`

	// StarCount is the source of truth for StarCountDisplay.
	StarCount int `json:"stargazers_count"`

	// StarCountDisplay is always FormatStarCount(StarCount). Only Normalize sets it.
	StarCountDisplay string `json:"stargazers_count_formatted"`

	CreatedAt string `json:"created_at"`
}

// Normalize applies default substitution and star formatting to a raw record.
func Normalize(raw Raw) Record {
	return Record{
		Name:             raw.Name,
		Description:      orDefault(raw.Description, DefaultDescription),
		URL:              raw.HTMLURL,
		Language:         orDefault(raw.Language, DefaultLanguage),
		StarCount:        raw.StargazersCount,
		StarCountDisplay: FormatStarCount(raw.StargazersCount),
		CreatedAt:        raw.CreatedAt,
	}
}

// NormalizeAll normalizes a page of raw records, preserving order.
func NormalizeAll(raws []Raw) []Record {
	records := make([]Record, 0, len(raws))
	for _, raw := range raws {
		records = append(records, Normalize(raw))
	}
	return records
}

func orDefault(value *string, fallback string) string {
	if value == nil || *value == "" {
		return fallback
	}
	return *value
}
