package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/urltrimmer/url-trimmer/pkg/core/domain"
	"github.com/urltrimmer/url-trimmer/pkg/ports"
)

// resolveCacheTTL bounds how long a target may be served from cache.
// Mutations evict eagerly; the TTL is the backstop.
const resolveCacheTTL = 10 * time.Minute

// ResolverService is the redirect hot path: one lookup, an atomic click
// increment, and the target URL. Missing, inactive and expired codes all
// collapse to ErrNotFound so disabled links are not distinguishable from
// absent ones.
type ResolverService struct {
	repo  ports.LinkRepository
	cache ports.LinkCache // may be nil
	log   *zap.Logger
}

func NewResolverService(repo ports.LinkRepository, cache ports.LinkCache, log *zap.Logger) *ResolverService {
	return &ResolverService{repo: repo, cache: cache, log: log}
}

func (s *ResolverService) Resolve(ctx context.Context, code string) (string, error) {
	if s.cache != nil {
		target, ok, err := s.cache.Get(ctx, code)
		if err != nil {
			s.log.Warn("resolver cache read failed", zap.String("shortCode", code), zap.Error(err))
		} else if ok {
			s.countClick(ctx, code)
			return target, nil
		}
	}

	link, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return "", err
	}
	if link == nil || !link.Resolvable(time.Now()) {
		return "", domain.ErrNotFound
	}

	s.countClick(ctx, code)

	if s.cache != nil {
		ttl := resolveCacheTTL
		if link.ExpiresAt != nil {
			if until := time.Until(*link.ExpiresAt); until < ttl {
				ttl = until
			}
		}
		if ttl > 0 {
			if err := s.cache.Set(ctx, code, link.OriginalURL, ttl); err != nil {
				s.log.Warn("resolver cache write failed", zap.String("shortCode", code), zap.Error(err))
			}
		}
	}

	return link.OriginalURL, nil
}

// countClick records the click. The counter is approximate but never
// decreasing: a failed increment drops one click and still redirects.
func (s *ResolverService) countClick(ctx context.Context, code string) {
	if err := s.repo.IncrementClicks(ctx, code); err != nil {
		s.log.Warn("click increment failed", zap.String("shortCode", code), zap.Error(err))
	}
}

var _ ports.ResolverService = (*ResolverService)(nil)
