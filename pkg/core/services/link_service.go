package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/urltrimmer/url-trimmer/pkg/core/domain"
	"github.com/urltrimmer/url-trimmer/pkg/ports"
)

var schemeRe = regexp.MustCompile(`^https?://`)

type LinkService struct {
	repo    ports.LinkRepository
	cache   ports.LinkCache // may be nil
	baseURL string
	log     *zap.Logger
}

func NewLinkService(repo ports.LinkRepository, cache ports.LinkCache, baseURL string, log *zap.Logger) *LinkService {
	return &LinkService{
		repo:    repo,
		cache:   cache,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
}

func (s *LinkService) Create(ctx context.Context, owner string, in ports.CreateLinkInput) (*domain.Link, bool, error) {
	normalized, err := normalizeURL(in.OriginalURL)
	if err != nil {
		return nil, false, err
	}
	if err := validateMetadata(in.Title, in.Description); err != nil {
		return nil, false, err
	}

	// Idempotent per (owner, originalUrl): re-submitting returns the
	// existing record, no new code is minted.
	existing, err := s.repo.FindByOwnerAndURL(ctx, owner, normalized)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		s.decorate(existing)
		return existing, false, nil
	}

	now := time.Now()
	link := &domain.Link{
		OriginalURL: normalized,
		Title:       in.Title,
		Description: in.Description,
		Tags:        splitTags(in.Tags),
		Owner:       owner,
		IsActive:    true,
		ExpiresAt:   in.ExpiresAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.acquireAndInsert(ctx, link); err != nil {
		if errors.Is(err, domain.ErrDuplicateURL) {
			// Lost the idempotent-create race: fetch what the winner stored.
			winner, ferr := s.repo.FindByOwnerAndURL(ctx, owner, normalized)
			if ferr == nil && winner != nil {
				s.decorate(winner)
				return winner, false, nil
			}
		}
		return nil, false, err
	}

	s.decorate(link)
	s.log.Info("short link created",
		zap.String("shortCode", link.ShortCode),
		zap.String("owner", owner))
	return link, true, nil
}

// acquireAndInsert runs the code-acquisition algorithm: up to 40 probed
// attempts at length 3, then length 4 without probing. The storage
// constraint stays authoritative at both lengths; a lost insert race
// regenerates instead of surfacing a conflict.
func (s *LinkService) acquireAndInsert(ctx context.Context, link *domain.Link) error {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := generateShortCode(defaultCodeLength)
		if err != nil {
			return err
		}
		taken, err := s.repo.FindByCode(ctx, code)
		if err != nil {
			return err
		}
		if taken != nil {
			continue
		}
		link.ShortCode = code
		switch err := s.repo.Insert(ctx, link); {
		case err == nil:
			return nil
		case errors.Is(err, domain.ErrCodeTaken):
			continue
		default:
			return err
		}
	}

	s.log.Warn("short code budget exhausted, escalating to length 4")
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := generateShortCode(fallbackCodeLength)
		if err != nil {
			return err
		}
		link.ShortCode = code
		switch err := s.repo.Insert(ctx, link); {
		case err == nil:
			return nil
		case errors.Is(err, domain.ErrCodeTaken):
			continue
		default:
			return err
		}
	}
	return fmt.Errorf("short code namespace saturated: %w", domain.ErrConflict)
}

func (s *LinkService) Get(ctx context.Context, owner string, id int64) (*domain.Link, error) {
	link, err := s.fetchOwned(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	s.decorate(link)
	return link, nil
}

func (s *LinkService) Update(ctx context.Context, owner string, id int64, in ports.UpdateLinkInput) (*domain.Link, error) {
	link, err := s.fetchOwned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	title, description := link.Title, link.Description
	if in.Title != nil {
		title = *in.Title
	}
	if in.Description != nil {
		description = *in.Description
	}
	if err := validateMetadata(title, description); err != nil {
		return nil, err
	}
	link.Title = title
	link.Description = description
	if in.Tags != nil {
		link.Tags = splitTags(*in.Tags)
	}
	if in.IsActive != nil {
		link.IsActive = *in.IsActive
	}
	link.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, link); err != nil {
		return nil, err
	}
	// Deactivation must be visible to the redirect path immediately.
	s.evict(ctx, link.ShortCode)
	s.decorate(link)
	return link, nil
}

func (s *LinkService) Delete(ctx context.Context, owner string, id int64) error {
	link, err := s.fetchOwned(ctx, owner, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, link.ID); err != nil {
		return err
	}
	s.evict(ctx, link.ShortCode)
	s.log.Info("short link deleted",
		zap.String("shortCode", link.ShortCode),
		zap.String("owner", owner))
	return nil
}

func (s *LinkService) List(ctx context.Context, owner string, q ports.ListQuery) ([]domain.Link, int64, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}

	links, err := s.repo.ListByOwner(ctx, owner, q)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountByOwner(ctx, owner, q)
	if err != nil {
		return nil, 0, err
	}
	for i := range links {
		s.decorate(&links[i])
	}
	return links, total, nil
}

func (s *LinkService) AnalyticsSummary(ctx context.Context, owner string) (*domain.AnalyticsSummary, error) {
	summary, err := s.repo.AnalyticsSummary(ctx, owner)
	if err != nil {
		return nil, err
	}
	for i := range summary.RecentURLs {
		s.decorate(&summary.RecentURLs[i])
	}
	for i := range summary.TopURLs {
		s.decorate(&summary.TopURLs[i])
	}
	return summary, nil
}

// fetchOwned loads a record and enforces ownership.
func (s *LinkService) fetchOwned(ctx context.Context, owner string, id int64) (*domain.Link, error) {
	link, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, domain.ErrNotFound
	}
	if link.Owner != owner {
		return nil, domain.ErrForbidden
	}
	return link, nil
}

// decorate derives the public short URL; it is never stored.
func (s *LinkService) decorate(link *domain.Link) {
	link.ShortURL = s.baseURL + "/" + link.ShortCode
}

func (s *LinkService) evict(ctx context.Context, code string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, code); err != nil {
		s.log.Warn("cache eviction failed", zap.String("shortCode", code), zap.Error(err))
	}
}

// normalizeURL defaults the scheme to https before validation and rejects
// anything that does not parse as an absolute URL with a host.
func normalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("original URL is required: %w", domain.ErrInvalidInput)
	}
	if !schemeRe.MatchString(raw) {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid URL format: %w", domain.ErrInvalidInput)
	}
	return raw, nil
}

func validateMetadata(title, description string) error {
	if utf8.RuneCountInString(title) > domain.MaxTitleLen {
		return fmt.Errorf("title cannot be more than %d characters: %w", domain.MaxTitleLen, domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(description) > domain.MaxDescriptionLen {
		return fmt.Errorf("description cannot be more than %d characters: %w", domain.MaxDescriptionLen, domain.ErrInvalidInput)
	}
	return nil
}

// splitTags turns a comma-separated input into a trimmed sequence,
// dropping empty entries.
func splitTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

var _ ports.LinkService = (*LinkService)(nil)
