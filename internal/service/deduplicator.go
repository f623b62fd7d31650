package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/spec-kit/asset-health-service/internal/domain"
	"github.com/spec-kit/asset-health-service/internal/repository"
)

// Deduplicator folds a new report into an existing open ticket for the same
// asset and category, or opens a fresh ticket when none exists. The
// matching key is coarse on purpose: asset + category + non-terminal
// status, no free-text similarity.
type Deduplicator struct {
	tickets repository.TicketRepository
}

// NewDeduplicator constructs the deduplicator.
func NewDeduplicator(tickets repository.TicketRepository) *Deduplicator {
	return &Deduplicator{tickets: tickets}
}

// Submit appends the entry to the most recent matching open ticket, or
// creates one. Races with a concurrent creator or a ticket going terminal
// are resolved by one fresh-read retry before surfacing the conflict.
func (d *Deduplicator) Submit(ctx context.Context, asset *domain.Asset, category string, entry *domain.ReportEntry) (*domain.Ticket, bool, error) {
	for attempt := 0; attempt < 2; attempt++ {
		existing, err := d.tickets.FindLatestOpen(ctx, asset.ID, category)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, false, err
		}

		if existing != nil {
			err := d.tickets.AppendReport(ctx, existing.ID, entry)
			if errors.Is(err, domain.ErrTicketClosed) {
				// Went terminal since the read; a terminal ticket never
				// reopens, so a fresh one is created instead.
				continue
			}
			if err != nil {
				return nil, false, err
			}
			existing.Reports = append(existing.Reports, *entry)
			return existing, true, nil
		}

		ticket := newTicketFromReport(asset, category, entry)
		err = d.tickets.CreateWithReport(ctx, ticket, entry)
		if errors.Is(err, domain.ErrDuplicateOpenTicket) {
			// Lost the create race; retry merges into the winner.
			continue
		}
		if err != nil {
			return nil, false, err
		}
		return ticket, false, nil
	}
	return nil, false, domain.ErrDuplicateOpenTicket
}

func newTicketFromReport(asset *domain.Asset, category string, entry *domain.ReportEntry) *domain.Ticket {
	return &domain.Ticket{
		ExternalKey: generateTicketKey(),
		AssetID:     asset.ID,
		Category:    category,
		Title:       titleForReport(asset.Name, category),
		Description: entry.Description,
		Status:      domain.TicketStatusOpen,
		Priority:    priorityForCategory(category),
		MergedFrom:  []string{},
	}
}

func generateTicketKey() string {
	return "AST-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func titleForReport(assetName, category string) string {
	label := strings.ReplaceAll(category, "_", " ")
	if label != "" {
		label = strings.ToUpper(label[:1]) + label[1:]
	}
	return fmt.Sprintf("%s: %s", label, assetName)
}

func priorityForCategory(category string) domain.TicketPriority {
	switch category {
	case domain.CategoryNotWorking, domain.CategoryDamaged:
		return domain.TicketPriorityHigh
	default:
		return domain.TicketPriorityMedium
	}
}

// NormalizeCategory lowercases and trims a submitted category, defaulting
// empty values to the catch-all bucket.
func NormalizeCategory(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	category = strings.ReplaceAll(category, " ", "_")
	if category == "" {
		return domain.CategoryOther
	}
	return category
}
