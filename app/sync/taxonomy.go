package sync

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/sagepoint/listing-sync/app/database"
	"github.com/sagepoint/listing-sync/app/listing"
)

const (
	TaxonomyAward = "award"
	TaxonomyState = "state"
	TaxonomyCity  = "city"
)

// TaxonomySync derives and assigns the categorical terms of one record:
// award terms with their year child terms, plus state and city. Terms are
// created on demand and reused for the same (name, taxonomy, parent)
// triple.
type TaxonomySync struct {
	terms database.TermRepository
}

func NewTaxonomySync(terms database.TermRepository) *TaxonomySync {
	return &TaxonomySync{terms: terms}
}

// Run assigns the model's terms to the item. Award terms and their year
// children are collected into one set and written in a single replacing
// assignment, so the year write can never clobber the award write. Term
// creation failures are logged with record context and that term is
// skipped; the rest of the assignment proceeds.
func (s *TaxonomySync) Run(m *listing.Model, itemID int64) {
	s.syncAwards(m, itemID)
	s.syncSingle(m, itemID, TaxonomyState, m.State())
	s.syncSingle(m, itemID, TaxonomyCity, m.City())
}

func (s *TaxonomySync) syncAwards(m *listing.Model, itemID int64) {
	aliases := make([]string, 0, len(m.AwardInfo))
	for alias := range m.AwardInfo {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	var termIDs []int64

	for _, alias := range aliases {
		info := m.AwardInfo[alias]
		if info.Title == "" {
			continue
		}

		awardID, err := s.terms.LookupOrCreate(info.Title, TaxonomyAward, 0)
		if err != nil {
			slog.Error("Failed to create award term",
				"award", info.Title, "unique_id", m.UniqueID(), "error", err)
			continue
		}
		termIDs = append(termIDs, awardID)

		if info.RecentAwardYears == "" {
			continue
		}
		for _, year := range strings.Split(info.RecentAwardYears, ",") {
			year = strings.TrimSpace(year)
			if year == "" {
				continue
			}

			yearID, err := s.terms.LookupOrCreate(year, TaxonomyAward, awardID)
			if err != nil {
				slog.Error("Failed to create award year term",
					"award", info.Title, "year", year, "unique_id", m.UniqueID(), "error", err)
				continue
			}
			termIDs = append(termIDs, yearID)
		}
	}

	if err := s.terms.ReplaceItemTerms(itemID, TaxonomyAward, termIDs); err != nil {
		slog.Error("Failed to assign award terms",
			"item_id", itemID, "unique_id", m.UniqueID(), "error", err)
	}
}

func (s *TaxonomySync) syncSingle(m *listing.Model, itemID int64, taxonomy, name string) {
	if name == "" {
		return
	}

	termID, err := s.terms.LookupOrCreate(name, taxonomy, 0)
	if err != nil {
		slog.Error("Failed to create term",
			"taxonomy", taxonomy, "name", name, "unique_id", m.UniqueID(), "error", err)
		return
	}

	if err := s.terms.ReplaceItemTerms(itemID, taxonomy, []int64{termID}); err != nil {
		slog.Error("Failed to assign term",
			"taxonomy", taxonomy, "name", name, "item_id", itemID, "error", err)
	}
}
