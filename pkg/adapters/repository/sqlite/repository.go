package sqlite

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	"github.com/wadjakorntonsri/go-qr-link/pkg/core/domain"
	"github.com/wadjakorntonsri/go-qr-link/pkg/ports"
	_ "modernc.org/sqlite" // Local SQLite driver
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbURL string) (*SQLiteRepository, error) {
	driverName := "sqlite"
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, err
	}

	// SQLite allows one writer at a time; funnel everything through a
	// single connection so concurrent inserts queue instead of failing
	// with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := migrate(db); err != nil {
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

func migrate(db *sql.DB) error {
	// qr_scans carries no foreign key on purpose: the scan log is a
	// loose append-only journal, and the resolver's lookup-first
	// ordering keeps orphan scans out of the public path.
	query := `
	CREATE TABLE IF NOT EXISTS qr_links (
		slug TEXT PRIMARY KEY,
		destination_url TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS qr_scans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		slug TEXT NOT NULL,
		source_address TEXT,
		scanned_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_qr_scans_slug ON qr_scans(slug);

	CREATE TABLE IF NOT EXISTS campaigns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS campaign_links (
		campaign_id INTEGER NOT NULL,
		slug TEXT NOT NULL,
		PRIMARY KEY (campaign_id, slug),
		FOREIGN KEY(campaign_id) REFERENCES campaigns(id) ON DELETE CASCADE
	);
	`
	_, err := db.Exec(query)
	return err
}

// Close releases the underlying database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) Insert(ctx context.Context, link *domain.LinkRecord) error {
	query := `INSERT INTO qr_links (slug, destination_url, created_at) VALUES (?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, link.Slug, link.DestinationURL, link.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ports.ErrDuplicateSlug
		}
		return err
	}
	return nil
}

func (r *SQLiteRepository) GetBySlug(ctx context.Context, slug string) (*domain.LinkRecord, error) {
	query := `SELECT slug, destination_url, created_at FROM qr_links WHERE slug = ?`

	var link domain.LinkRecord
	err := r.db.QueryRowContext(ctx, query, slug).Scan(
		&link.Slug, &link.DestinationURL, &link.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ports.ErrSlugNotFound
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *SQLiteRepository) Dump(ctx context.Context) ([]domain.LinkRecord, error) {
	query := `SELECT slug, destination_url, created_at FROM qr_links ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []domain.LinkRecord
	for rows.Next() {
		var l domain.LinkRecord
		if err := rows.Scan(&l.Slug, &l.DestinationURL, &l.CreatedAt); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func (r *SQLiteRepository) RecordScan(ctx context.Context, scan *domain.ScanEvent) error {
	query := `INSERT INTO qr_scans (slug, source_address, scanned_at) VALUES (?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query, scan.Slug, scan.SourceAddress, scan.ScannedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	scan.ID = id
	return nil
}

func (r *SQLiteRepository) ListScans(ctx context.Context, slug string) ([]domain.ScanEvent, error) {
	query := `SELECT id, slug, source_address, scanned_at FROM qr_scans WHERE slug = ? ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, slug)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scans []domain.ScanEvent
	for rows.Next() {
		var s domain.ScanEvent
		var source sql.NullString
		if err := rows.Scan(&s.ID, &s.Slug, &source, &s.ScannedAt); err != nil {
			return nil, err
		}
		s.SourceAddress = source.String
		scans = append(scans, s)
	}
	return scans, rows.Err()
}

func (r *SQLiteRepository) CountScans(ctx context.Context, slug string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM qr_scans WHERE slug = ?`, slug).Scan(&count)
	return count, err
}

// --- Campaign Repository Implementation ---

func (r *SQLiteRepository) CreateCampaign(ctx context.Context, campaign *domain.Campaign) error {
	query := `INSERT INTO campaigns (name, description, created_at) VALUES (?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query, campaign.Name, campaign.Description, campaign.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	campaign.ID = id
	return nil
}

func (r *SQLiteRepository) GetCampaign(ctx context.Context, id int64) (*domain.Campaign, error) {
	query := `SELECT id, name, description, created_at FROM campaigns WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	var c domain.Campaign
	var description sql.NullString
	if err := row.Scan(&c.ID, &c.Name, &description, &c.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	c.Description = description.String
	return &c, nil
}

func (r *SQLiteRepository) ListCampaigns(ctx context.Context, limit, offset int) ([]domain.Campaign, error) {
	query := `SELECT id, name, description, created_at FROM campaigns ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []domain.Campaign
	for rows.Next() {
		var c domain.Campaign
		var description sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &description, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Description = description.String
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

func (r *SQLiteRepository) DeleteCampaign(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM campaigns WHERE id = ?`, id)
	return err
}

func (r *SQLiteRepository) AddLinkToCampaign(ctx context.Context, campaignID int64, slug string) error {
	query := `INSERT INTO campaign_links (campaign_id, slug) VALUES (?, ?)`
	_, err := r.db.ExecContext(ctx, query, campaignID, slug)
	if err != nil && isUniqueViolation(err) {
		// Already attached; attaching twice is a no-op.
		return nil
	}
	return err
}

func (r *SQLiteRepository) GetCampaignLinks(ctx context.Context, campaignID int64) ([]domain.LinkRecord, error) {
	query := `SELECT l.slug, l.destination_url, l.created_at
			  FROM qr_links l
			  JOIN campaign_links cl ON l.slug = cl.slug
			  WHERE cl.campaign_id = ?
			  ORDER BY l.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []domain.LinkRecord
	for rows.Next() {
		var l domain.LinkRecord
		if err := rows.Scan(&l.Slug, &l.DestinationURL, &l.CreatedAt); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// isUniqueViolation matches constraint errors from both the modernc and
// libsql drivers, which only expose them as text.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "PRIMARY KEY constraint")
}

// Ensure interface compliance
var _ ports.LinkRepository = (*SQLiteRepository)(nil)
