package listing

// Record is one raw record as received from the source endpoint: field
// names mapped to scalars, nested mappings, and nested lists. It is never
// mutated after fetch.
type Record map[string]any

// AwardSummary is the aggregate derived from a record's award entries for
// one award alias.
type AwardSummary struct {
	Title string
	// RecentAwardYears is comma-joined, most recent first, capped at
	// maxRecentYears entries.
	RecentAwardYears string
	IsAwardWinner    bool
}

// Options carry the externally-configured inputs of the model: everything
// else derived is a pure function of the raw record.
type Options struct {
	// UniqueIDField names the source record attribute used to correlate
	// a record with exactly one content item.
	UniqueIDField string
	// LogoBaseURL is prepended to the record's logo path.
	LogoBaseURL string
	// RankingOverrides maps unique ids to sort score overrides.
	RankingOverrides map[string]int
}
