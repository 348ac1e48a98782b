package sync

import (
	"testing"

	"github.com/sagepoint/listing-sync/app/database"
	"github.com/sagepoint/listing-sync/app/listing"
)

func TestTaxonomySync_AwardAndYearTermsInOneAssignment(t *testing.T) {
	db := newTestDB(t)
	items := database.NewItemRepository(db)
	terms := database.NewTermRepository(db)
	taxSync := NewTaxonomySync(terms)

	itemID := syncedItem(t, items)

	raw := listing.Record{
		"ListingId": "L-1",
		"ListingAward": []any{
			map[string]any{
				"Award":      map[string]any{"Alias": "best-of", "Title": "Best Of"},
				"DateEarned": "2021-05-01",
			},
			map[string]any{
				"Award":      map[string]any{"Alias": "best-of", "Title": "Best Of"},
				"DateEarned": "2020-01-01",
			},
		},
	}

	taxSync.Run(testModel(raw), itemID)

	assigned, err := terms.GetItemTerms(itemID, TaxonomyAward)
	if err != nil {
		t.Fatalf("GetItemTerms failed: %v", err)
	}

	// One award term plus two year children, all present together: the
	// year assignment must not clobber the award assignment.
	if len(assigned) != 3 {
		t.Fatalf("Expected 3 award-taxonomy terms, got %d (%s)", len(assigned), database.TermNames(assigned))
	}

	var awardID int64
	yearNames := map[string]bool{}
	for _, term := range assigned {
		if term.ParentID == 0 {
			if term.Name != "Best Of" {
				t.Errorf("Expected award term 'Best Of', got %q", term.Name)
			}
			awardID = term.ID
		} else {
			yearNames[term.Name] = true
		}
	}
	if !yearNames["2021"] || !yearNames["2020"] {
		t.Errorf("Expected year terms 2021 and 2020, got %v", yearNames)
	}
	for _, term := range assigned {
		if term.ParentID != 0 && term.ParentID != awardID {
			t.Errorf("Expected year terms nested under the award term, got parent %d", term.ParentID)
		}
	}
}

func TestTaxonomySync_RerunReusesTerms(t *testing.T) {
	db := newTestDB(t)
	items := database.NewItemRepository(db)
	terms := database.NewTermRepository(db)
	taxSync := NewTaxonomySync(terms)

	itemID := syncedItem(t, items)

	raw := listing.Record{
		"ListingId": "L-1",
		"City":      "Sacramento",
		"State":     "California",
		"ListingAward": []any{
			map[string]any{
				"Award":      map[string]any{"Alias": "best-of", "Title": "Best Of"},
				"DateEarned": "2021-05-01",
			},
		},
	}

	taxSync.Run(testModel(raw), itemID)
	taxSync.Run(testModel(raw), itemID)

	count, err := terms.GetTermCount()
	if err != nil {
		t.Fatalf("GetTermCount failed: %v", err)
	}
	// Best Of + 2021 + California + Sacramento, each created once.
	if count != 4 {
		t.Errorf("Expected 4 terms after re-run, got %d", count)
	}

	assigned, _ := terms.GetItemTerms(itemID, TaxonomyAward)
	if len(assigned) != 2 {
		t.Errorf("Expected 2 award-taxonomy terms after re-run, got %d", len(assigned))
	}
}

func TestTaxonomySync_StateAndCity(t *testing.T) {
	db := newTestDB(t)
	items := database.NewItemRepository(db)
	terms := database.NewTermRepository(db)
	taxSync := NewTaxonomySync(terms)

	itemID := syncedItem(t, items)

	taxSync.Run(testModel(listing.Record{
		"ListingId": "L-1",
		"City":      "sacramento",
		"State":     "CALIFORNIA",
	}), itemID)

	stateTerms, _ := terms.GetItemTerms(itemID, TaxonomyState)
	if len(stateTerms) != 1 || stateTerms[0].Name != "California" {
		t.Errorf("Expected state term 'California', got %s", database.TermNames(stateTerms))
	}

	cityTerms, _ := terms.GetItemTerms(itemID, TaxonomyCity)
	if len(cityTerms) != 1 || cityTerms[0].Name != "Sacramento" {
		t.Errorf("Expected city term 'Sacramento', got %s", database.TermNames(cityTerms))
	}
}

func TestTaxonomySync_ReplacesStaleAwards(t *testing.T) {
	db := newTestDB(t)
	items := database.NewItemRepository(db)
	terms := database.NewTermRepository(db)
	taxSync := NewTaxonomySync(terms)

	itemID := syncedItem(t, items)

	withAward := listing.Record{
		"ListingId": "L-1",
		"ListingAward": []any{
			map[string]any{
				"Award":      map[string]any{"Alias": "best-of", "Title": "Best Of"},
				"DateEarned": "2021-05-01",
			},
		},
	}
	withoutAward := listing.Record{"ListingId": "L-1"}

	taxSync.Run(testModel(withAward), itemID)
	taxSync.Run(testModel(withoutAward), itemID)

	assigned, _ := terms.GetItemTerms(itemID, TaxonomyAward)
	if len(assigned) != 0 {
		t.Errorf("Expected stale award assignment to be cleared, got %s", database.TermNames(assigned))
	}
}

func TestTaxonomySync_NoStateNoTerm(t *testing.T) {
	db := newTestDB(t)
	items := database.NewItemRepository(db)
	terms := database.NewTermRepository(db)
	taxSync := NewTaxonomySync(terms)

	itemID := syncedItem(t, items)
	taxSync.Run(testModel(listing.Record{"ListingId": "L-1"}), itemID)

	count, _ := terms.GetTermCount()
	if count != 0 {
		t.Errorf("Expected no terms for a record without taxonomy inputs, got %d", count)
	}
}
