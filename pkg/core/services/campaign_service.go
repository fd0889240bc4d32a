package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wadjakorntonsri/go-qr-link/pkg/core/domain"
	"github.com/wadjakorntonsri/go-qr-link/pkg/ports"
)

var (
	ErrEmptyCampaignName = errors.New("campaign name is required")
	ErrCampaignNotFound  = errors.New("campaign not found")
)

type CampaignService struct {
	repo ports.LinkRepository
	now  func() time.Time
}

func NewCampaignService(repo ports.LinkRepository) *CampaignService {
	return &CampaignService{repo: repo, now: time.Now}
}

func (s *CampaignService) CreateCampaign(ctx context.Context, name, description string) (*domain.Campaign, error) {
	if name == "" {
		return nil, ErrEmptyCampaignName
	}
	campaign := &domain.Campaign{
		Name:        name,
		Description: description,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.CreateCampaign(ctx, campaign); err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}
	return campaign, nil
}

func (s *CampaignService) GetCampaign(ctx context.Context, id int64) (*domain.Campaign, error) {
	campaign, err := s.repo.GetCampaign(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	if campaign == nil {
		return nil, ErrCampaignNotFound
	}

	links, err := s.repo.GetCampaignLinks(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get campaign links: %w", err)
	}
	campaign.Links = links
	return campaign, nil
}

func (s *CampaignService) ListCampaigns(ctx context.Context, page, limit int) ([]domain.Campaign, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit
	campaigns, err := s.repo.ListCampaigns(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	return campaigns, nil
}

func (s *CampaignService) DeleteCampaign(ctx context.Context, id int64) error {
	return s.repo.DeleteCampaign(ctx, id)
}

func (s *CampaignService) AddLink(ctx context.Context, campaignID int64, slug string) error {
	campaign, err := s.repo.GetCampaign(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("get campaign: %w", err)
	}
	if campaign == nil {
		return ErrCampaignNotFound
	}
	if _, err := s.repo.GetBySlug(ctx, slug); err != nil {
		if errors.Is(err, ports.ErrSlugNotFound) {
			return ErrSlugNotFound
		}
		return fmt.Errorf("lookup slug %q: %w", slug, err)
	}
	return s.repo.AddLinkToCampaign(ctx, campaignID, slug)
}

// Ensure interface compliance
var _ ports.CampaignService = (*CampaignService)(nil)
