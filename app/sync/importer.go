package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sagepoint/listing-sync/app/database"
	"github.com/sagepoint/listing-sync/app/listing"
	"github.com/sagepoint/listing-sync/app/schema"
	"github.com/sagepoint/listing-sync/app/source"
)

// runLockTTL bounds how long a crashed batch can block the next one.
const runLockTTL = 10 * time.Minute

// ErrImportRunning is returned when a batch is triggered while another
// invocation holds the run guard.
var ErrImportRunning = errors.New("an import batch is already running")

// ImportConfig is the per-batch snapshot of the mapping configuration,
// built once and passed in rather than read ad hoc from a global store.
type ImportConfig struct {
	SchemaGroup      string
	UniqueIDField    string
	LogoBaseURL      string
	RankingOverrides map[string]int
}

// Result reports one batch: how many records the page held, the persisted
// offset for the next invocation, and whether the full batch is complete.
type Result struct {
	Fetched  int
	Created  int
	Updated  int
	Skipped  int
	Offset   int
	Complete bool
}

// Importer drives one batch: token, page fetch, per-record content, field,
// and taxonomy sync, then a single offset advance. Strictly sequential;
// a record's content upsert must succeed before its fields and terms sync.
type Importer struct {
	cfg        ImportConfig
	tokens     *source.TokenProvider
	client     *source.Client
	schemas    *schema.Cache
	items      database.ItemRepository
	content    *ContentSync
	fields     *FieldSync
	taxonomies *TaxonomySync
	state      database.StateRepository
}

func NewImporter(cfg ImportConfig, tokens *source.TokenProvider, client *source.Client,
	schemas *schema.Cache, items database.ItemRepository, terms database.TermRepository,
	state database.StateRepository) *Importer {
	return &Importer{
		cfg:        cfg,
		tokens:     tokens,
		client:     client,
		schemas:    schemas,
		items:      items,
		content:    NewContentSync(items, cfg.UniqueIDField),
		fields:     NewFieldSync(items),
		taxonomies: NewTaxonomySync(terms),
		state:      state,
	}
}

// Run processes one page. Token and schema failures abort the batch;
// per-record failures are logged and the batch continues. The offset
// advances exactly once, after the whole page has been processed, so a
// crash mid-page re-processes the same page (safe: the upsert is
// idempotent on the unique identifier).
func (i *Importer) Run(ctx context.Context) (*Result, error) {
	locked, err := i.state.TryLock("import", runLockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run guard: %w", err)
	}
	if !locked {
		return nil, ErrImportRunning
	}
	defer func() {
		if err := i.state.Unlock("import"); err != nil {
			slog.Error("Failed to release run guard", "error", err)
		}
	}()

	started := time.Now()
	if err := i.state.SetTime(database.KeyLastImportStart, started); err != nil {
		slog.Warn("Failed to record batch start time", "error", err)
	}

	token, err := i.tokens.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("batch aborted: %w", err)
	}

	group, err := i.schemas.GetGroup(i.cfg.SchemaGroup)
	if err != nil {
		return nil, fmt.Errorf("batch aborted: %w", err)
	}
	// The index is rebuilt every batch; the schema may change between runs.
	idx := schema.BuildIndex(group)

	opts := listing.Options{
		UniqueIDField:    i.cfg.UniqueIDField,
		LogoBaseURL:      i.cfg.LogoBaseURL,
		RankingOverrides: i.cfg.RankingOverrides,
	}

	records := i.client.FetchPage(ctx, token)

	result := &Result{Fetched: len(records)}

	for _, record := range records {
		model := listing.NewModel(record, opts)

		existing, err := i.items.FindIDByField(i.cfg.UniqueIDField, model.UniqueID())
		if err != nil {
			slog.Error("Failed to check for existing item", "unique_id", model.UniqueID(), "error", err)
		}

		itemID, err := i.content.Upsert(model)
		if err != nil {
			// Upsert already logged with payload context. Do not run
			// field or taxonomy sync against a missing item.
			result.Skipped++
			continue
		}

		if existing == 0 {
			result.Created++
		} else {
			result.Updated++
		}

		i.fields.Apply(model, idx, itemID)
		i.taxonomies.Run(model, itemID)
	}

	newOffset, err := i.client.AdvanceOffset(len(records))
	if err != nil {
		return result, fmt.Errorf("page processed but offset not advanced: %w", err)
	}
	result.Offset = newOffset
	result.Complete = newOffset == 0

	if result.Complete {
		if err := i.state.SetTime(database.KeyLastImportSuccess, time.Now()); err != nil {
			slog.Warn("Failed to record batch success time", "error", err)
		}
	}

	slog.Info("Import batch completed",
		"fetched", result.Fetched,
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"offset", result.Offset,
		"complete", result.Complete,
		"duration", time.Since(started))

	return result, nil
}
