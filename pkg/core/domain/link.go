package domain

import "time"

// Metadata bounds enforced on create/update.
const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 200
)

// Link represents a shortened URL
type Link struct {
	ID          int64      `json:"id"`
	OriginalURL string     `json:"originalUrl"`
	ShortCode   string     `json:"shortCode"`
	ShortURL    string     `json:"shortUrl"` // Derived from base URL + short code, never stored
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags"`
	Clicks      int64      `json:"clicks"`
	Owner       string     `json:"owner"`
	IsActive    bool       `json:"isActive"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Expired reports whether the link has an expiry in the past.
func (l *Link) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}

// Resolvable reports whether the link may serve redirects right now.
// Inactive and expired links are indistinguishable from missing ones
// on the redirect path.
func (l *Link) Resolvable(now time.Time) bool {
	return l.IsActive && !l.Expired(now)
}

// AnalyticsSummary aggregates an owner's links for the dashboard.
type AnalyticsSummary struct {
	TotalURLs   int64  `json:"totalUrls"`
	TotalClicks int64  `json:"totalClicks"`
	RecentURLs  []Link `json:"recentUrls"`
	TopURLs     []Link `json:"topUrls"`
}
