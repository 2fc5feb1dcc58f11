package ports

import (
	"context"
	"time"

	"github.com/urltrimmer/url-trimmer/pkg/core/domain"
)

// ListQuery carries pagination, search and sort for owner-scoped listings.
type ListQuery struct {
	Page   int
	Limit  int
	Search string
	Sort   string // one of: "createdAt", "-createdAt", "clicks", "-clicks"
}

// LinkRepository defines storage operations for links
type LinkRepository interface {
	// Insert persists a new link. Returns domain.ErrCodeTaken or
	// domain.ErrDuplicateURL when a unique constraint loses a concurrent
	// race; the caller decides whether to regenerate or re-fetch.
	Insert(ctx context.Context, link *domain.Link) error
	// FindByCode matches any record regardless of active state; it serves
	// both uniqueness probing and resolution. Returns nil, nil when absent.
	FindByCode(ctx context.Context, code string) (*domain.Link, error)
	// FindByOwnerAndURL backs idempotent creation. Returns nil, nil when absent.
	FindByOwnerAndURL(ctx context.Context, owner, originalURL string) (*domain.Link, error)
	FindByID(ctx context.Context, id int64) (*domain.Link, error)
	// IncrementClicks is a single atomic increment at the storage layer,
	// never a read-modify-write in application code.
	IncrementClicks(ctx context.Context, code string) error
	Update(ctx context.Context, link *domain.Link) error
	// Delete removes the row permanently.
	Delete(ctx context.Context, id int64) error
	ListByOwner(ctx context.Context, owner string, q ListQuery) ([]domain.Link, error)
	CountByOwner(ctx context.Context, owner string, q ListQuery) (int64, error)
	AnalyticsSummary(ctx context.Context, owner string) (*domain.AnalyticsSummary, error)
}

// LinkCache is an optional read-through cache for the redirect path.
// It only ever holds active, unexpired targets.
type LinkCache interface {
	Get(ctx context.Context, code string) (string, bool, error)
	Set(ctx context.Context, code, originalURL string, ttl time.Duration) error
	Delete(ctx context.Context, code string) error
}

// CreateLinkInput is the input for Create, validated at the transport layer
// and re-checked by the service.
type CreateLinkInput struct {
	OriginalURL string
	Title       string
	Description string
	Tags        string // comma separated, split and trimmed by the service
	ExpiresAt   *time.Time
}

// UpdateLinkInput is a partial patch; nil fields are left untouched.
type UpdateLinkInput struct {
	Title       *string
	Description *string
	Tags        *string // comma separated, replaces the whole sequence
	IsActive    *bool
}

// LinkService defines the management operations, all scoped to an
// authenticated owner identity supplied by the transport layer.
type LinkService interface {
	// Create returns the stored link and whether a new record was minted;
	// false means the idempotent (owner, originalUrl) hit returned the
	// existing record untouched.
	Create(ctx context.Context, owner string, in CreateLinkInput) (*domain.Link, bool, error)
	Get(ctx context.Context, owner string, id int64) (*domain.Link, error)
	Update(ctx context.Context, owner string, id int64, in UpdateLinkInput) (*domain.Link, error)
	Delete(ctx context.Context, owner string, id int64) error
	List(ctx context.Context, owner string, q ListQuery) ([]domain.Link, int64, error)
	AnalyticsSummary(ctx context.Context, owner string) (*domain.AnalyticsSummary, error)
}

// ResolverService maps a short code back to its target and records the click.
type ResolverService interface {
	Resolve(ctx context.Context, code string) (string, error)
}
