package listing

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// maxRecentYears caps the comma-joined year list per award.
	maxRecentYears = 8
	// targetAwardCount is the award count that scores 100 in the
	// composite sort score.
	targetAwardCount = 4
)

var titleCaser = cases.Title(language.English)

// Model wraps one raw record and the values derived from it. All derived
// attributes are computed at construction and frozen afterwards.
type Model struct {
	raw  Record
	opts Options

	AwardInfo           map[string]AwardSummary
	ReviewRatingAverage *float64
	FullAddress         string
	SortScore           int
}

func NewModel(raw Record, opts Options) *Model {
	m := &Model{
		raw:  raw,
		opts: opts,
	}

	m.AwardInfo = buildAwardInfo(raw)
	m.ReviewRatingAverage = averageRating(raw)
	m.FullAddress = joinAddress(raw)
	m.SortScore = m.computeSortScore()

	return m
}

// UniqueID returns the value of the configured unique identifier field.
// Empty means the record cannot be correlated with a content item.
func (m *Model) UniqueID() string {
	return str(m.raw, m.opts.UniqueIDField)
}

func (m *Model) DisplayName() string {
	return str(m.raw, "CompanyName")
}

func (m *Model) Description() string {
	return str(m.raw, "Description")
}

func (m *Model) Phone() string {
	return str(m.raw, "Phone")
}

func (m *Model) Website() string {
	return str(m.raw, "Website")
}

func (m *Model) Email() string {
	return str(m.raw, "Email")
}

// State returns the record's state name in canonical title case, so term
// lookups are case-stable across source inconsistencies. Two-letter
// abbreviations stay upper case.
func (m *Model) State() string {
	s := str(m.raw, "State")
	if s == "" {
		return ""
	}
	if len(s) == 2 {
		return strings.ToUpper(s)
	}
	return titleCaser.String(strings.ToLower(s))
}

func (m *Model) City() string {
	s := str(m.raw, "City")
	if s == "" {
		return ""
	}
	return titleCaser.String(strings.ToLower(s))
}

// LogoURL joins the configured logo base URL with the record's logo path.
func (m *Model) LogoURL() string {
	path := str(m.raw, "LogoPath")
	if path == "" || m.opts.LogoBaseURL == "" {
		return ""
	}
	return strings.TrimRight(m.opts.LogoBaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// AreaCodes extracts the distinct telephone area codes of the record and
// its nested locations, in first-seen order.
func (m *Model) AreaCodes() []string {
	var codes []string
	seen := make(map[string]bool)

	add := func(phone string) {
		code := areaCode(phone)
		if code != "" && !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}

	add(str(m.raw, "Phone"))
	for _, loc := range list(m.raw, "Location") {
		add(str(loc, "Phone"))
	}

	return codes
}

// PostalCodes collects the distinct postal codes of the record and its
// nested locations, in first-seen order.
func (m *Model) PostalCodes() []string {
	var codes []string
	seen := make(map[string]bool)

	add := func(code string) {
		if code != "" && !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}

	add(str(m.raw, "PostalCode"))
	for _, loc := range list(m.raw, "Location") {
		add(str(loc, "PostalCode"))
	}

	return codes
}

// SearchBlock renders the machine-readable hidden block appended to the
// item body so full-text search finds addresses and codes without them
// being visible content.
func (m *Model) SearchBlock() string {
	var parts []string
	if m.FullAddress != "" {
		parts = append(parts, m.FullAddress)
	}
	parts = append(parts, m.AreaCodes()...)
	parts = append(parts, m.PostalCodes()...)

	if len(parts) == 0 {
		return ""
	}

	return `<div class="listing-search-data" style="display:none">` + strings.Join(parts, " | ") + `</div>`
}

// Body is the content item body: the description plus the hidden search
// block.
func (m *Model) Body() string {
	block := m.SearchBlock()
	if block == "" {
		return m.Description()
	}
	if m.Description() == "" {
		return block
	}
	return m.Description() + "\n" + block
}

// Fields returns the top-level field name to value mapping consumed by the
// field sync. Names absent from the destination schema are skipped there.
func (m *Model) Fields() map[string]any {
	ratingValue := any("")
	if m.ReviewRatingAverage != nil {
		ratingValue = *m.ReviewRatingAverage
	}

	aliases := make([]string, 0, len(m.AwardInfo))
	for alias := range m.AwardInfo {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	awardRows := make([]map[string]any, 0, len(aliases))
	for _, alias := range aliases {
		info := m.AwardInfo[alias]
		awardRows = append(awardRows, map[string]any{
			"alias":        alias,
			"title":        info.Title,
			"recent_years": info.RecentAwardYears,
			"is_winner":    info.IsAwardWinner,
		})
	}

	return map[string]any{
		"listing_id":     m.UniqueID(),
		"company_name":   m.DisplayName(),
		"phone":          m.Phone(),
		"website":        m.Website(),
		"email":          m.Email(),
		"full_address":   m.FullAddress,
		"logo_url":       m.LogoURL(),
		"rating_average": ratingValue,
		"review_count":   len(list(m.raw, "Review")),
		"sort_score":     m.SortScore,
		"address": map[string]any{
			"line1":       str(m.raw, "Address1"),
			"line2":       str(m.raw, "Address2"),
			"city":        m.City(),
			"state":       m.State(),
			"postal_code": str(m.raw, "PostalCode"),
		},
		"awards": awardRows,
	}
}

// currentAwardCount is the number of awards the record has actually won.
func (m *Model) currentAwardCount() int {
	count := 0
	for _, info := range m.AwardInfo {
		if info.IsAwardWinner {
			count++
		}
	}
	return count
}

func (m *Model) computeSortScore() int {
	if score, ok := m.opts.RankingOverrides[m.UniqueID()]; ok {
		return score
	}

	rating := 0.0
	if m.ReviewRatingAverage != nil {
		rating = *m.ReviewRatingAverage
	}

	ratingScore := int(math.Round(rating / 5 * 100))
	awardScore := int(math.Round(float64(m.currentAwardCount()) / targetAwardCount * 100))

	return ratingScore + awardScore
}

func buildAwardInfo(raw Record) map[string]AwardSummary {
	type awardAgg struct {
		title string
		years map[int]bool
	}

	aggs := make(map[string]*awardAgg)

	for _, entry := range list(raw, "ListingAward") {
		award, _ := entry["Award"].(map[string]any)
		alias := str(award, "Alias")
		if alias == "" {
			continue
		}

		agg, ok := aggs[alias]
		if !ok {
			agg = &awardAgg{years: make(map[int]bool)}
			aggs[alias] = agg
		}
		if title := str(award, "Title"); title != "" {
			agg.title = title
		}
		if year := earnedYear(str(entry, "DateEarned")); year != 0 {
			agg.years[year] = true
		}
	}

	info := make(map[string]AwardSummary, len(aggs))
	for alias, agg := range aggs {
		years := make([]int, 0, len(agg.years))
		for y := range agg.years {
			years = append(years, y)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(years)))
		if len(years) > maxRecentYears {
			years = years[:maxRecentYears]
		}

		joined := make([]string, 0, len(years))
		for _, y := range years {
			joined = append(joined, strconv.Itoa(y))
		}

		info[alias] = AwardSummary{
			Title:            agg.title,
			RecentAwardYears: strings.Join(joined, ", "),
			IsAwardWinner:    len(years) > 0,
		}
	}

	return info
}

func averageRating(raw Record) *float64 {
	reviews := list(raw, "Review")
	if len(reviews) == 0 {
		return nil
	}

	sum := 0.0
	for _, review := range reviews {
		sum += num(review, "StarRating")
	}

	avg := sum / float64(len(reviews))
	return &avg
}

func joinAddress(raw Record) string {
	parts := []string{
		str(raw, "Address1"),
		str(raw, "Address2"),
		str(raw, "City"),
		str(raw, "State"),
		str(raw, "PostalCode"),
	}

	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}

	return strings.Join(nonEmpty, ", ")
}

// earnedYear parses the leading year of a DateEarned value like
// "2021-05-01". 0 means no usable year.
func earnedYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil || year < 1000 {
		return 0
	}
	return year
}

// areaCode extracts the three-digit area code from a North American phone
// number, tolerating formatting and a leading country code.
func areaCode(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	s := digits.String()
	if len(s) == 11 && s[0] == '1' {
		s = s[1:]
	}
	if len(s) != 10 {
		return ""
	}
	return s[:3]
}

func str(rec map[string]any, key string) string {
	if rec == nil || key == "" {
		return ""
	}
	switch v := rec[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		if v {
			return "1"
		}
		return "0"
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func list(rec map[string]any, key string) []map[string]any {
	if rec == nil {
		return nil
	}
	raw, ok := rec[key].([]any)
	if !ok {
		return nil
	}

	entries := make([]map[string]any, 0, len(raw))
	for _, e := range raw {
		if entry, ok := e.(map[string]any); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

func num(rec map[string]any, key string) float64 {
	if rec == nil {
		return 0
	}
	switch v := rec[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
