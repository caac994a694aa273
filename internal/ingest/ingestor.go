// Package ingest turns the external contract feed into validated contracts.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/HatimBenzahra/rework-sub001/internal/archive"
	"github.com/HatimBenzahra/rework-sub001/internal/contracts"
	"github.com/HatimBenzahra/rework-sub001/internal/external/salestracker"
	"github.com/HatimBenzahra/rework-sub001/internal/period"
	"github.com/HatimBenzahra/rework-sub001/pkg/logger"
)

// Skip reasons.
const (
	SkipNotValidated          = "not_validated"
	SkipMissingValidationDate = "missing_validation_date"
	SkipMissingParticipant    = "missing_participant"
	SkipMissingID             = "missing_id"
)

const validatedStatus = "validated"

// Source yields one full read of the contract feed.
type Source interface {
	FetchFeed(ctx context.Context) (*salestracker.Snapshot, error)
}

// Store is the persistence the ingestor writes to.
type Store interface {
	contracts.ContractRepository
	contracts.MappingRepository
}

// Unmapped counts stored contracts whose references did not resolve.
type Unmapped struct {
	Participants int `json:"participants"`
	Products     int `json:"products"`
}

// Result summarizes one sync pass.
type Result struct {
	Created     int            `json:"created"`
	Updated     int            `json:"updated"`
	Skipped     int            `json:"skipped"`
	Total       int            `json:"total"`
	SkipReasons map[string]int `json:"skip_reasons"`
	Unmapped    Unmapped       `json:"unmapped"`
	ArchiveKey  string         `json:"archive_key,omitempty"`
	Duration    time.Duration  `json:"duration"`
}

func (r *Result) skip(reason string) {
	r.Skipped++
	r.SkipReasons[reason]++
}

// Ingestor syncs the feed into the contract store.
type Ingestor struct {
	source   Source
	store    Store
	archiver *archive.Archiver
	loc      *time.Location
	logger   *logger.Logger
}

// NewIngestor creates a new ingestor. archiver may be nil.
func NewIngestor(source Source, store Store, archiver *archive.Archiver, loc *time.Location, log *logger.Logger) *Ingestor {
	if loc == nil {
		loc = time.UTC
	}
	l := log.WithField("module", "ingest")
	if archiver == nil {
		archiver = archive.Disabled(l)
	}
	return &Ingestor{
		source:   source,
		store:    store,
		archiver: archiver,
		loc:      loc,
		logger:   l,
	}
}

// Run fetches the feed, archives the raw payload and ingests it.
// An archive failure is logged and does not fail the sync.
func (i *Ingestor) Run(ctx context.Context, runID string, now time.Time) (*Result, error) {
	snap, err := i.source.FetchFeed(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch contract feed: %w", err)
	}

	archiveKey, err := i.archiver.Store(ctx, runID, snap.FetchedAt, snap.Raw)
	if err != nil {
		i.logger.WithError(err).WithField("run_id", runID).Warn("Failed to archive contract feed")
	}

	result, err := i.Ingest(ctx, &snap.Feed, now)
	if result != nil {
		result.ArchiveKey = archiveKey
	}
	return result, err
}

// Ingest upserts every validated contract of feed. Running it again on the
// same feed only refreshes rows.
func (i *Ingestor) Ingest(ctx context.Context, feed *salestracker.Feed, now time.Time) (*Result, error) {
	start := time.Now()
	result := &Result{SkipReasons: make(map[string]int)}

	mappings, err := i.store.ParticipantMappings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load participant mappings: %w", err)
	}
	productList, err := i.store.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	products := make(map[string]contracts.Product, len(productList))
	for _, p := range productList {
		if p.ExternalID != "" {
			products[p.ExternalID] = p
		}
	}

	syncedAt := now.UTC()

	for _, prospect := range feed.Prospects {
		for _, sub := range prospect.Subscriptions {
			for _, c := range sub.Contracts {
				result.Total++

				vc, reason := i.validate(prospect, sub, c)
				if reason != "" {
					result.skip(reason)
					i.logger.WithFields(map[string]interface{}{
						"contract": c.ID.String(),
						"reason":   reason,
					}).Debug("Skipping contract")
					continue
				}

				if p, ok := mappings[vc.ExternalParticipantID]; ok {
					vc.Participant = &p
				} else {
					result.Unmapped.Participants++
				}
				if p, ok := products[vc.ExternalProductID]; ok {
					id := p.ID
					vc.ProductID = &id
				} else {
					result.Unmapped.Products++
				}
				vc.SyncedAt = syncedAt

				created, err := i.store.UpsertContract(ctx, vc)
				if err != nil {
					return result, fmt.Errorf("upsert contract %s: %w", vc.ExternalID, err)
				}
				if created {
					result.Created++
				} else {
					result.Updated++
				}
			}
		}
	}

	result.Duration = time.Since(start)

	i.logger.WithFields(map[string]interface{}{
		"total":                result.Total,
		"created":              result.Created,
		"updated":              result.Updated,
		"skipped":              result.Skipped,
		"unmapped_participant": result.Unmapped.Participants,
		"unmapped_product":     result.Unmapped.Products,
		"duration":             result.Duration.String(),
	}).Info("Contract sync completed")

	return result, nil
}

// validate applies the inclusion rules and builds the contract. A non-empty
// reason means the record is skipped.
func (i *Ingestor) validate(prospect salestracker.Prospect, sub salestracker.Subscription, c salestracker.Contract) (*contracts.ValidatedContract, string) {
	if c.ID == "" {
		return nil, SkipMissingID
	}
	if !strings.EqualFold(strings.TrimSpace(string(c.Status)), validatedStatus) {
		return nil, SkipNotValidated
	}
	validatedAt, ok := c.DateValidation.Parse(i.loc)
	if !ok {
		return nil, SkipMissingValidationDate
	}
	if sub.ParticipantID == "" {
		return nil, SkipMissingParticipant
	}

	vc := &contracts.ValidatedContract{
		ExternalID:            c.ID.String(),
		ExternalProspectID:    prospect.ID.String(),
		ExternalParticipantID: sub.ParticipantID.String(),
		ExternalProductID:     sub.ProductID.String(),
		ValidatedAt:           validatedAt.UTC(),
		Periods:               period.KeysFor(validatedAt.In(i.loc)),
		Snapshot:              snapshotOf(sub, c),
	}
	if signedAt, ok := c.DateSignature.Parse(i.loc); ok {
		s := signedAt.UTC()
		vc.SignedAt = &s
	}
	return vc, ""
}

func snapshotOf(sub salestracker.Subscription, c salestracker.Contract) map[string]interface{} {
	snap := make(map[string]interface{}, len(c.Extra)+3)
	for k, v := range c.Extra {
		snap[k] = v
	}
	snap["subscription_id"] = sub.ID.String()
	snap["status"] = string(c.Status)
	if !c.DateSignature.IsZero() {
		snap["date_signature"] = c.DateSignature.Raw
	}
	return snap
}
