package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/wadjakorntonsri/go-qr-link/pkg/core/domain"
	"github.com/wadjakorntonsri/go-qr-link/pkg/ports"
)

// Custom errors for the service layer
var (
	ErrEmptyTemplate      = errors.New("destination template is required")
	ErrInvalidTemplate    = errors.New("destination template must be an absolute http/https URL")
	ErrSlugNotFound       = errors.New("link not found")
	ErrSlugSpaceExhausted = errors.New("could not mint a unique slug after retries")
)

// maxSlugRetries bounds the regenerate-on-duplicate loop. Hitting the
// bound with 64-bit slugs means the entropy source or the store is
// broken, so issuance halts instead of looping.
const maxSlugRetries = 5

type LinkService struct {
	repo      ports.LinkRepository
	cache     ports.SlugCache
	encoder   ports.QREncoder
	artifacts ports.ArtifactStore
	baseURL   string // e.g. "http://localhost:8080", no trailing slash
	genSlug   ports.SlugGenerator
	now       func() time.Time
}

func NewLinkService(repo ports.LinkRepository, cache ports.SlugCache, encoder ports.QREncoder, artifacts ports.ArtifactStore, baseURL string) *LinkService {
	return &LinkService{
		repo:      repo,
		cache:     cache,
		encoder:   encoder,
		artifacts: artifacts,
		baseURL:   strings.TrimRight(baseURL, "/"),
		genSlug:   GenerateSlug,
		now:       time.Now,
	}
}

func (s *LinkService) Issue(ctx context.Context, template string, params map[string]string) (*domain.IssuedLink, error) {
	destination, err := buildDestinationURL(template, params)
	if err != nil {
		return nil, err
	}

	// Insert with regeneration on duplicate. The store's uniqueness
	// constraint decides the race, not a read-then-write check.
	var record *domain.LinkRecord
	for attempt := 0; attempt < maxSlugRetries; attempt++ {
		slug, err := s.genSlug()
		if err != nil {
			return nil, fmt.Errorf("generate slug: %w", err)
		}

		candidate := &domain.LinkRecord{
			Slug:           slug,
			DestinationURL: destination,
			CreatedAt:      s.now().UTC(),
		}
		err = s.repo.Insert(ctx, candidate)
		if errors.Is(err, ports.ErrDuplicateSlug) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("insert link: %w", err)
		}
		record = candidate
		break
	}
	if record == nil {
		return nil, ErrSlugSpaceExhausted
	}

	// The QR payload is the resolver URL, never the raw destination, so
	// every scan passes through here before forwarding.
	redirectURL := s.redirectURL(record.Slug)
	png, err := s.encoder.Encode(redirectURL)
	if err != nil {
		return nil, fmt.Errorf("render qr image: %w", err)
	}
	if err := s.artifacts.Save(artifactName(record.Slug), png); err != nil {
		// The record is the source of truth; the image can be
		// re-rendered from it at any time. Still surface the failure so
		// the caller does not hand out a dead image URL.
		return nil, fmt.Errorf("save qr image: %w", err)
	}

	s.cache.Set(ctx, record)

	return &domain.IssuedLink{
		Slug:           record.Slug,
		DestinationURL: destination,
		RedirectURL:    redirectURL,
		QRImageURL:     s.baseURL + "/qr/" + artifactName(record.Slug),
	}, nil
}

func (s *LinkService) Resolve(ctx context.Context, slug, sourceAddr string) (string, error) {
	link, err := s.lookup(ctx, slug)
	if err != nil {
		return "", err
	}

	scan := &domain.ScanEvent{
		Slug:          slug,
		SourceAddress: sourceAddr,
		ScannedAt:     s.now().UTC(),
	}
	// The scan is committed before the destination is yielded: a crash
	// must not drop attribution for a redirect that is about to be
	// honored.
	if err := s.repo.RecordScan(ctx, scan); err != nil {
		return "", fmt.Errorf("record scan: %w", err)
	}

	return link.DestinationURL, nil
}

func (s *LinkService) GetLink(ctx context.Context, slug string) (*domain.LinkRecord, error) {
	return s.lookup(ctx, slug)
}

func (s *LinkService) ListScans(ctx context.Context, slug string) ([]domain.ScanEvent, error) {
	if _, err := s.lookup(ctx, slug); err != nil {
		return nil, err
	}
	scans, err := s.repo.ListScans(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	return scans, nil
}

func (s *LinkService) QRImage(ctx context.Context, slug string) ([]byte, error) {
	png, err := s.artifacts.Open(artifactName(slug))
	if err == nil {
		return png, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("open qr image: %w", err)
	}

	// Artifact is gone but the record may still exist; re-render from
	// the source of truth.
	link, err := s.lookup(ctx, slug)
	if err != nil {
		return nil, err
	}
	png, err = s.encoder.Encode(s.redirectURL(link.Slug))
	if err != nil {
		return nil, fmt.Errorf("render qr image: %w", err)
	}
	if err := s.artifacts.Save(artifactName(link.Slug), png); err != nil {
		return nil, fmt.Errorf("save qr image: %w", err)
	}
	return png, nil
}

// lookup checks the cache first; records are immutable so a hit is
// always exact.
func (s *LinkService) lookup(ctx context.Context, slug string) (*domain.LinkRecord, error) {
	if link, ok := s.cache.Get(ctx, slug); ok {
		return link, nil
	}

	link, err := s.repo.GetBySlug(ctx, slug)
	if errors.Is(err, ports.ErrSlugNotFound) {
		return nil, ErrSlugNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup slug %q: %w", slug, err)
	}

	s.cache.Set(ctx, link)
	return link, nil
}

func (s *LinkService) redirectURL(slug string) string {
	return s.baseURL + "/r/" + slug
}

func artifactName(slug string) string {
	return slug + ".png"
}

// buildDestinationURL appends params to the template as a percent-
// encoded query string. Empty params leave the template untouched.
// Key order in the encoded query is unspecified (url.Values sorts).
func buildDestinationURL(template string, params map[string]string) (string, error) {
	if strings.TrimSpace(template) == "" {
		return "", ErrEmptyTemplate
	}
	parsed, err := url.Parse(template)
	if err != nil {
		return "", ErrInvalidTemplate
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", ErrInvalidTemplate
	}

	if len(params) == 0 {
		return template, nil
	}

	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	return template + "?" + q.Encode(), nil
}

// Ensure interface compliance
var _ ports.LinkService = (*LinkService)(nil)
