package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/urltrimmer/url-trimmer/pkg/core/domain"
	"github.com/urltrimmer/url-trimmer/pkg/ports"
)

// memRepo is a mutex-guarded in-memory LinkRepository. It enforces the same
// unique constraints as the sqlite adapter, which makes it usable for
// concurrency properties without a database.
type memRepo struct {
	mu    sync.Mutex
	seq   int64
	links map[int64]domain.Link

	// test knobs
	probeAlwaysTaken  bool // every FindByCode probe reports occupancy
	rejectCodeInserts int  // reject this many inserts with ErrCodeTaken
	findByCodeCalls   int
}

func newMemRepo() *memRepo {
	return &memRepo{links: map[int64]domain.Link{}}
}

func (r *memRepo) seed(link domain.Link) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	link.ID = r.seq
	r.links[link.ID] = link
	return link.ID
}

func (r *memRepo) Insert(_ context.Context, link *domain.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rejectCodeInserts > 0 {
		r.rejectCodeInserts--
		return domain.ErrCodeTaken
	}
	for _, l := range r.links {
		if l.ShortCode == link.ShortCode {
			return domain.ErrCodeTaken
		}
		if l.Owner == link.Owner && l.OriginalURL == link.OriginalURL {
			return domain.ErrDuplicateURL
		}
	}
	r.seq++
	link.ID = r.seq
	r.links[link.ID] = copyLink(*link)
	return nil
}

func (r *memRepo) FindByCode(_ context.Context, code string) (*domain.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findByCodeCalls++
	if r.probeAlwaysTaken {
		l := domain.Link{ShortCode: code}
		return &l, nil
	}
	for _, l := range r.links {
		if l.ShortCode == code {
			cp := copyLink(l)
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memRepo) FindByOwnerAndURL(_ context.Context, owner, originalURL string) (*domain.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.links {
		if l.Owner == owner && l.OriginalURL == originalURL {
			cp := copyLink(l)
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memRepo) FindByID(_ context.Context, id int64) (*domain.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.links[id]
	if !ok {
		return nil, nil
	}
	cp := copyLink(l)
	return &cp, nil
}

func (r *memRepo) IncrementClicks(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, l := range r.links {
		if l.ShortCode == code {
			l.Clicks++
			r.links[id] = l
			return nil
		}
	}
	return nil
}

func (r *memRepo) Update(_ context.Context, link *domain.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.links[link.ID]; ok {
		r.links[link.ID] = copyLink(*link)
	}
	return nil
}

func (r *memRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.links, id)
	return nil
}

func (r *memRepo) ListByOwner(_ context.Context, owner string, q ports.ListQuery) ([]domain.Link, error) {
	matches := r.matching(owner, q.Search)
	sortLinks(matches, q.Sort)

	start := (q.Page - 1) * q.Limit
	if start > len(matches) {
		start = len(matches)
	}
	end := start + q.Limit
	if end > len(matches) {
		end = len(matches)
	}
	return matches[start:end], nil
}

func (r *memRepo) CountByOwner(_ context.Context, owner string, q ports.ListQuery) (int64, error) {
	return int64(len(r.matching(owner, q.Search))), nil
}

func (r *memRepo) AnalyticsSummary(_ context.Context, owner string) (*domain.AnalyticsSummary, error) {
	all := r.matching(owner, "")
	summary := &domain.AnalyticsSummary{TotalURLs: int64(len(all))}
	for _, l := range all {
		summary.TotalClicks += l.Clicks
	}

	recent := append([]domain.Link(nil), all...)
	sortLinks(recent, "-createdAt")
	summary.RecentURLs = headN(recent, 5)

	top := append([]domain.Link(nil), all...)
	sortLinks(top, "-clicks")
	summary.TopURLs = headN(top, 5)
	return summary, nil
}

func (r *memRepo) matching(owner, search string) []domain.Link {
	r.mu.Lock()
	defer r.mu.Unlock()
	needle := strings.ToLower(search)
	var out []domain.Link
	for _, l := range r.links {
		if l.Owner != owner {
			continue
		}
		if needle != "" && !linkMatches(l, needle) {
			continue
		}
		out = append(out, copyLink(l))
	}
	return out
}

func linkMatches(l domain.Link, needle string) bool {
	if strings.Contains(strings.ToLower(l.OriginalURL), needle) ||
		strings.Contains(strings.ToLower(l.Title), needle) ||
		strings.Contains(strings.ToLower(l.Description), needle) {
		return true
	}
	for _, tag := range l.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

func sortLinks(links []domain.Link, key string) {
	sort.SliceStable(links, func(i, j int) bool {
		switch key {
		case "createdAt":
			return links[i].CreatedAt.Before(links[j].CreatedAt)
		case "clicks":
			return links[i].Clicks < links[j].Clicks
		case "-clicks":
			return links[i].Clicks > links[j].Clicks
		default:
			return links[i].CreatedAt.After(links[j].CreatedAt)
		}
	})
}

func headN(links []domain.Link, n int) []domain.Link {
	if len(links) > n {
		links = links[:n]
	}
	return links
}

func copyLink(l domain.Link) domain.Link {
	l.Tags = append([]string(nil), l.Tags...)
	return l
}

var _ ports.LinkRepository = (*memRepo)(nil)

// memCache is an in-memory LinkCache; TTLs are ignored.
type memCache struct {
	mu      sync.Mutex
	entries map[string]string
	hits    int
}

func newMemCache() *memCache {
	return &memCache{entries: map[string]string{}}
}

func (c *memCache) Get(_ context.Context, code string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	target, ok := c.entries[code]
	if ok {
		c.hits++
	}
	return target, ok, nil
}

func (c *memCache) Set(_ context.Context, code, originalURL string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[code] = originalURL
	return nil
}

func (c *memCache) Delete(_ context.Context, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, code)
	return nil
}

var _ ports.LinkCache = (*memCache)(nil)
