package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/asset-health-service/internal/domain"
)

const uniqueViolation = "23505"

const ticketColumns = `id, external_key, asset_id, category, title, description,
               status, priority, merged_from, created_at, updated_at, closed_at`

// TicketRepository encapsulates ticket and report-entry persistence.
type TicketRepository interface {
	GetByExternalKey(ctx context.Context, key string) (*domain.Ticket, error)
	// FindLatestOpen returns the most recently created open or in-progress
	// ticket for the asset and category, or domain.ErrNotFound.
	FindLatestOpen(ctx context.Context, assetID, category string) (*domain.Ticket, error)
	// CreateWithReport inserts a new ticket with its first report entry.
	// Returns domain.ErrDuplicateOpenTicket when another open ticket for
	// the same asset and category won the race, and
	// domain.ErrAssetUnderMaintenance / domain.ErrAssetRetired when the
	// asset changed state after the intake gate check.
	CreateWithReport(ctx context.Context, ticket *domain.Ticket, entry *domain.ReportEntry) error
	// AppendReport adds an entry at the end of the ticket's report
	// sequence. Returns domain.ErrTicketClosed if the ticket went terminal
	// since it was found.
	AppendReport(ctx context.Context, ticketID string, entry *domain.ReportEntry) error
	CountOpenByAsset(ctx context.Context, assetID string) (int, error)
	ListOpenByAsset(ctx context.Context, assetID string) ([]domain.Ticket, error)
	ListReports(ctx context.Context, ticketID string) ([]domain.ReportEntry, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) GetByExternalKey(ctx context.Context, key string) (*domain.Ticket, error) {
	const query = `
        SELECT ` + ticketColumns + `
        FROM tickets WHERE external_key=$1`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	reports, err := r.ListReports(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	ticket.Reports = reports
	return ticket, nil
}

func (r *ticketRepository) FindLatestOpen(ctx context.Context, assetID, category string) (*domain.Ticket, error) {
	const query = `
        SELECT ` + ticketColumns + `
        FROM tickets
        WHERE asset_id=$1 AND category=$2 AND status IN ('OPEN','IN_PROGRESS')
        ORDER BY created_at DESC
        LIMIT 1`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, assetID, category))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return ticket, err
}

func (r *ticketRepository) CreateWithReport(ctx context.Context, ticket *domain.Ticket, entry *domain.ReportEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := checkAssetAccepts(ctx, tx, ticket.AssetID); err != nil {
		return err
	}

	const insertTicket = `
        INSERT INTO tickets (external_key, asset_id, category, title, description, status, priority, merged_from)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	err = tx.QueryRow(ctx, insertTicket,
		ticket.ExternalKey,
		ticket.AssetID,
		ticket.Category,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.MergedFrom,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrDuplicateOpenTicket
		}
		return err
	}

	entry.TicketID = ticket.ID
	entry.Position = 1
	if err := insertReport(ctx, tx, entry); err != nil {
		return err
	}
	ticket.Reports = []domain.ReportEntry{*entry}

	return tx.Commit(ctx)
}

func (r *ticketRepository) AppendReport(ctx context.Context, ticketID string, entry *domain.ReportEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Lock the ticket row so concurrent appends serialize and positions
	// stay dense and ordered.
	var assetID string
	var status domain.TicketStatus
	err = tx.QueryRow(ctx, `SELECT asset_id, status FROM tickets WHERE id=$1 FOR UPDATE`, ticketID).
		Scan(&assetID, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	if status.IsTerminal() {
		return domain.ErrTicketClosed
	}

	if err := checkAssetAccepts(ctx, tx, assetID); err != nil {
		return err
	}

	var position int
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(position),0)+1 FROM ticket_reports WHERE ticket_id=$1`,
		ticketID,
	).Scan(&position); err != nil {
		return err
	}

	entry.TicketID = ticketID
	entry.Position = position
	if err := insertReport(ctx, tx, entry); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE tickets SET updated_at=NOW() WHERE id=$1`, ticketID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *ticketRepository) CountOpenByAsset(ctx context.Context, assetID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets WHERE asset_id=$1 AND status IN ('OPEN','IN_PROGRESS')`,
		assetID,
	).Scan(&count)
	return count, err
}

func (r *ticketRepository) ListOpenByAsset(ctx context.Context, assetID string) ([]domain.Ticket, error) {
	const query = `
        SELECT ` + ticketColumns + `
        FROM tickets
        WHERE asset_id=$1 AND status IN ('OPEN','IN_PROGRESS')
        ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, assetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *ticket)
	}
	return tickets, rows.Err()
}

func (r *ticketRepository) ListReports(ctx context.Context, ticketID string) ([]domain.ReportEntry, error) {
	const query = `
        SELECT id, ticket_id, position, reporter_name, reporter_email, reporter_phone,
               description, photos, device_fingerprint, ip_address, user_agent, created_at
        FROM ticket_reports WHERE ticket_id=$1 ORDER BY position`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []domain.ReportEntry
	for rows.Next() {
		var entry domain.ReportEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.Position,
			&entry.ReporterName,
			&entry.ReporterEmail,
			&entry.ReporterPhone,
			&entry.Description,
			&entry.Photos,
			&entry.DeviceFingerprint,
			&entry.IPAddress,
			&entry.UserAgent,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		reports = append(reports, entry)
	}
	return reports, rows.Err()
}

// checkAssetAccepts re-reads the asset status inside the writing
// transaction, so a sweep transition racing with intake loses cleanly.
func checkAssetAccepts(ctx context.Context, tx pgx.Tx, assetID string) error {
	var status domain.AssetStatus
	err := tx.QueryRow(ctx, `SELECT status FROM assets WHERE id=$1 FOR SHARE`, assetID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	switch status {
	case domain.AssetStatusUnderMaintenance:
		return domain.ErrAssetUnderMaintenance
	case domain.AssetStatusRetired:
		return domain.ErrAssetRetired
	}
	return nil
}

func insertReport(ctx context.Context, tx pgx.Tx, entry *domain.ReportEntry) error {
	const query = `
        INSERT INTO ticket_reports (ticket_id, position, reporter_name, reporter_email, reporter_phone,
            description, photos, device_fingerprint, ip_address, user_agent)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at`
	return tx.QueryRow(ctx, query,
		entry.TicketID,
		entry.Position,
		entry.ReporterName,
		entry.ReporterEmail,
		entry.ReporterPhone,
		entry.Description,
		entry.Photos,
		entry.DeviceFingerprint,
		entry.IPAddress,
		entry.UserAgent,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.ExternalKey,
		&ticket.AssetID,
		&ticket.Category,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.MergedFrom,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ClosedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
