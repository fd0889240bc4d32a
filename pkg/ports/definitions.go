package ports

import (
	"context"
	"errors"

	"github.com/wadjakorntonsri/go-qr-link/pkg/core/domain"
)

// Storage-level outcomes. They live here rather than in a concrete
// repository package so the service layer stays driver-agnostic.
var (
	// ErrDuplicateSlug means an insert lost the uniqueness race. The
	// issuance service recovers by regenerating; callers never see it.
	ErrDuplicateSlug = errors.New("slug already exists")
	// ErrSlugNotFound means no link record exists for the slug.
	ErrSlugNotFound = errors.New("slug not found")
)

// LinkRepository defines storage operations for link records and the
// scan log.
type LinkRepository interface {
	// Insert atomically creates a record; two concurrent inserts of the
	// same slug yield exactly one success and one ErrDuplicateSlug.
	Insert(ctx context.Context, link *domain.LinkRecord) error
	GetBySlug(ctx context.Context, slug string) (*domain.LinkRecord, error)
	Dump(ctx context.Context) ([]domain.LinkRecord, error) // For migration

	// Scan log. RecordScan appends unconditionally: the store enforces
	// no referential check against link records.
	RecordScan(ctx context.Context, scan *domain.ScanEvent) error
	ListScans(ctx context.Context, slug string) ([]domain.ScanEvent, error)
	CountScans(ctx context.Context, slug string) (int64, error)

	// Campaigns
	CreateCampaign(ctx context.Context, campaign *domain.Campaign) error
	GetCampaign(ctx context.Context, id int64) (*domain.Campaign, error)
	ListCampaigns(ctx context.Context, limit, offset int) ([]domain.Campaign, error)
	DeleteCampaign(ctx context.Context, id int64) error
	AddLinkToCampaign(ctx context.Context, campaignID int64, slug string) error
	GetCampaignLinks(ctx context.Context, campaignID int64) ([]domain.LinkRecord, error)
}

// LinkService defines the business logic operations.
type LinkService interface {
	// Issue builds the destination URL from template+params, mints a
	// slug, persists the mapping and renders the QR artifact.
	Issue(ctx context.Context, template string, params map[string]string) (*domain.IssuedLink, error)
	// Resolve records a scan and returns the destination URL. The scan
	// is logged before the destination is yielded.
	Resolve(ctx context.Context, slug, sourceAddr string) (string, error)
	GetLink(ctx context.Context, slug string) (*domain.LinkRecord, error)
	ListScans(ctx context.Context, slug string) ([]domain.ScanEvent, error)
	// QRImage returns the PNG for a slug, re-rendering it from the
	// stored record if the artifact went missing.
	QRImage(ctx context.Context, slug string) ([]byte, error)
}

// CampaignService defines business logic for campaigns.
type CampaignService interface {
	CreateCampaign(ctx context.Context, name, description string) (*domain.Campaign, error)
	GetCampaign(ctx context.Context, id int64) (*domain.Campaign, error)
	ListCampaigns(ctx context.Context, page, limit int) ([]domain.Campaign, error)
	DeleteCampaign(ctx context.Context, id int64) error
	AddLink(ctx context.Context, campaignID int64, slug string) error
}

// SlugGenerator mints one random URL-safe slug. Injectable so tests can
// force collisions.
type SlugGenerator func() (string, error)

// QREncoder renders a text payload into a scannable PNG. Pure function,
// no side effects.
type QREncoder interface {
	Encode(text string) ([]byte, error)
}

// ArtifactStore persists rendered images addressable by name.
// Open returns an error satisfying errors.Is(err, fs.ErrNotExist) when
// the artifact is absent.
type ArtifactStore interface {
	Save(name string, data []byte) error
	Open(name string) ([]byte, error)
}

// SlugCache is an optional read-through cache in front of GetBySlug.
// Link records are immutable, so cached entries never go stale.
type SlugCache interface {
	Get(ctx context.Context, slug string) (*domain.LinkRecord, bool)
	Set(ctx context.Context, link *domain.LinkRecord)
}
