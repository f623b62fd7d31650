package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/asset-health-service/internal/domain"
	"github.com/spec-kit/asset-health-service/internal/ratelimit"
)

// fakeTicketRepo is an in-memory TicketRepository mimicking the partial
// unique index on (asset_id, category, open status).
type fakeTicketRepo struct {
	mu   sync.Mutex
	seq  int
	rows map[string]*domain.Ticket

	// failCreateOnce makes the next CreateWithReport lose the uniqueness
	// race: the winner ticket is inserted and ErrDuplicateOpenTicket is
	// returned, as the database would.
	failCreateOnce bool
	// closeOnAppend marks tickets terminal right before the next append.
	closeOnAppend bool
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{rows: map[string]*domain.Ticket{}}
}

func (f *fakeTicketRepo) GetByExternalKey(ctx context.Context, key string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.rows {
		if t.ExternalKey == key {
			copied := *t
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeTicketRepo) FindLatestOpen(ctx context.Context, assetID, category string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *domain.Ticket
	for _, t := range f.rows {
		if t.AssetID != assetID || t.Category != category || t.Status.IsTerminal() {
			continue
		}
		if latest == nil || t.CreatedAt.After(latest.CreatedAt) {
			latest = t
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	copied := *latest
	copied.Reports = nil
	return &copied, nil
}

func (f *fakeTicketRepo) CreateWithReport(ctx context.Context, ticket *domain.Ticket, entry *domain.ReportEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, t := range f.rows {
		if t.AssetID == ticket.AssetID && t.Category == ticket.Category && !t.Status.IsTerminal() {
			return domain.ErrDuplicateOpenTicket
		}
	}

	if f.failCreateOnce {
		f.failCreateOnce = false
		winner := *ticket
		f.insertLocked(&winner, &domain.ReportEntry{
			ReporterName:  "winner",
			ReporterEmail: "winner@example.com",
			Description:   "raced first",
		})
		return domain.ErrDuplicateOpenTicket
	}

	f.insertLocked(ticket, entry)
	return nil
}

func (f *fakeTicketRepo) insertLocked(ticket *domain.Ticket, entry *domain.ReportEntry) {
	f.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", f.seq)
	ticket.CreatedAt = time.Unix(int64(f.seq), 0)
	ticket.UpdatedAt = ticket.CreatedAt
	entry.TicketID = ticket.ID
	entry.Position = 1
	entry.ID = fmt.Sprintf("report-%d", f.seq)
	ticket.Reports = []domain.ReportEntry{*entry}
	stored := *ticket
	f.rows[ticket.ID] = &stored
}

func (f *fakeTicketRepo) AppendReport(ctx context.Context, ticketID string, entry *domain.ReportEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.rows[ticketID]
	if !ok {
		return domain.ErrNotFound
	}
	if f.closeOnAppend {
		f.closeOnAppend = false
		t.Status = domain.TicketStatusCompleted
	}
	if t.Status.IsTerminal() {
		return domain.ErrTicketClosed
	}
	f.seq++
	entry.TicketID = ticketID
	entry.Position = len(t.Reports) + 1
	entry.ID = fmt.Sprintf("report-%d", f.seq)
	t.Reports = append(t.Reports, *entry)
	return nil
}

func (f *fakeTicketRepo) CountOpenByAsset(ctx context.Context, assetID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, t := range f.rows {
		if t.AssetID == assetID && !t.Status.IsTerminal() {
			count++
		}
	}
	return count, nil
}

func (f *fakeTicketRepo) ListOpenByAsset(ctx context.Context, assetID string) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var tickets []domain.Ticket
	for _, t := range f.rows {
		if t.AssetID == assetID && !t.Status.IsTerminal() {
			copied := *t
			copied.Reports = nil
			tickets = append(tickets, copied)
		}
	}
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].CreatedAt.After(tickets[j].CreatedAt) })
	return tickets, nil
}

func (f *fakeTicketRepo) ListReports(ctx context.Context, ticketID string) ([]domain.ReportEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.rows[ticketID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]domain.ReportEntry{}, t.Reports...), nil
}

// fakeAssetRepo is an in-memory AssetRepository. Open-issue counts come
// from the linked ticket repo, the same way the SQL implementation counts
// tickets at evaluation time.
type fakeAssetRepo struct {
	mu      sync.Mutex
	assets  map[string]*domain.Asset
	tickets *fakeTicketRepo
}

func newFakeAssetRepo(tickets *fakeTicketRepo, assets ...*domain.Asset) *fakeAssetRepo {
	repo := &fakeAssetRepo{assets: map[string]*domain.Asset{}, tickets: tickets}
	for _, a := range assets {
		stored := *a
		repo.assets[a.ID] = &stored
	}
	return repo
}

func (f *fakeAssetRepo) GetByID(ctx context.Context, id string) (*domain.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (f *fakeAssetRepo) ListActiveIDs(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id, a := range f.assets {
		if !a.IsRetired() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeAssetRepo) ListUnderMaintenance(ctx context.Context) ([]domain.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Asset
	for _, a := range f.assets {
		if a.IsUnderMaintenance() {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAssetRepo) ConditionCounts(ctx context.Context) (map[domain.AssetCondition]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[domain.AssetCondition]int{}
	for _, a := range f.assets {
		if !a.IsRetired() {
			counts[a.Condition]++
		}
	}
	return counts, nil
}

func (f *fakeAssetRepo) UpdateLocked(ctx context.Context, id string, fn func(asset *domain.Asset, openIssues int) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assets[id]
	if !ok {
		return domain.ErrNotFound
	}
	open := 0
	if f.tickets != nil {
		open, _ = f.tickets.CountOpenByAsset(ctx, id)
	}
	return fn(a, open)
}

// fakeLimiter counts submissions per (fingerprint, asset) pair with a cap
// and no expiry.
type fakeLimiter struct {
	mu     sync.Mutex
	max    int64
	counts map[string]int64
	err    error
}

func newFakeLimiter(max int64) *fakeLimiter {
	return &fakeLimiter{max: max, counts: map[string]int64{}}
}

func (f *fakeLimiter) CheckAndRecord(ctx context.Context, fingerprint, assetID string, now time.Time, meta ratelimit.Metadata) (ratelimit.Result, error) {
	if f.err != nil {
		return ratelimit.Result{}, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fingerprint + "|" + assetID
	f.counts[key]++
	count := f.counts[key]
	res := ratelimit.Result{Allowed: count <= f.max, Count: count}
	if !res.Allowed {
		res.RetryAfter = 90 * time.Second
	}
	return res, nil
}

func (f *fakeLimiter) calls() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total int64
	for _, c := range f.counts {
		total += c
	}
	return total
}
