package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	_ "modernc.org/sqlite"                               // Local SQLite driver

	"github.com/urltrimmer/url-trimmer/pkg/core/domain"
	"github.com/urltrimmer/url-trimmer/pkg/ports"
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

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w: %w", err, domain.ErrUnavailable)
	}

	if err := migrate(db); err != nil {
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

func migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		original_url TEXT NOT NULL,
		short_code TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		tags JSON NOT NULL DEFAULT '[]',
		clicks INTEGER NOT NULL DEFAULT 0,
		owner TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		expires_at DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE(owner, original_url)
	);
	CREATE INDEX IF NOT EXISTS idx_links_short_code ON links(short_code);
	CREATE INDEX IF NOT EXISTS idx_links_owner ON links(owner);
	CREATE INDEX IF NOT EXISTS idx_links_owner_created ON links(owner, created_at DESC);
	`
	_, err := db.Exec(query)
	return err
}

const linkColumns = `id, original_url, short_code, title, description, tags, clicks, owner, is_active, expires_at, created_at, updated_at`

func (r *SQLiteRepository) Insert(ctx context.Context, link *domain.Link) error {
	query := `INSERT INTO links (original_url, short_code, title, description, tags, clicks, owner, is_active, expires_at, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	tagsJSON, err := json.Marshal(link.Tags)
	if err != nil {
		return err
	}

	var expiresAt sql.NullTime
	if link.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: *link.ExpiresAt, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, query,
		link.OriginalURL, link.ShortCode, link.Title, link.Description, tagsJSON,
		link.Clicks, link.Owner, link.IsActive, expiresAt, link.CreatedAt, link.UpdatedAt,
	)
	if err != nil {
		return mapConstraintErr(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	link.ID = id
	return nil
}

// mapConstraintErr translates unique-constraint violations into the domain
// conflict errors the service retries on. Both sqlite drivers surface the
// violated columns in the error text.
func mapConstraintErr(err error) error {
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return err
	}
	if strings.Contains(msg, "links.short_code") {
		return fmt.Errorf("insert link: %w", domain.ErrCodeTaken)
	}
	return fmt.Errorf("insert link: %w", domain.ErrDuplicateURL)
}

func (r *SQLiteRepository) FindByCode(ctx context.Context, code string) (*domain.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE short_code = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, code))
}

func (r *SQLiteRepository) FindByOwnerAndURL(ctx context.Context, owner, originalURL string) (*domain.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE owner = ? AND original_url = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, owner, originalURL))
}

func (r *SQLiteRepository) FindByID(ctx context.Context, id int64) (*domain.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// IncrementClicks is a single atomic UPDATE so concurrent redirects on the
// same code never lose counts.
func (r *SQLiteRepository) IncrementClicks(ctx context.Context, code string) error {
	query := `UPDATE links SET clicks = clicks + 1 WHERE short_code = ?`
	_, err := r.db.ExecContext(ctx, query, code)
	return err
}

func (r *SQLiteRepository) Update(ctx context.Context, link *domain.Link) error {
	query := `UPDATE links SET title = ?, description = ?, tags = ?, is_active = ?, updated_at = ? WHERE id = ?`

	tagsJSON, err := json.Marshal(link.Tags)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, link.Title, link.Description, tagsJSON, link.IsActive, link.UpdatedAt, link.ID)
	return err
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM links WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *SQLiteRepository) ListByOwner(ctx context.Context, owner string, q ports.ListQuery) ([]domain.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE owner = ?`
	args := []interface{}{owner}

	query, args = appendSearch(query, args, q.Search)
	query += " ORDER BY " + orderClause(q.Sort) + " LIMIT ? OFFSET ?"
	args = append(args, q.Limit, (q.Page-1)*q.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []domain.Link
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *link)
	}
	return links, rows.Err()
}

func (r *SQLiteRepository) CountByOwner(ctx context.Context, owner string, q ports.ListQuery) (int64, error) {
	query := `SELECT COUNT(*) FROM links WHERE owner = ?`
	args := []interface{}{owner}
	query, args = appendSearch(query, args, q.Search)

	var count int64
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

func (r *SQLiteRepository) AnalyticsSummary(ctx context.Context, owner string) (*domain.AnalyticsSummary, error) {
	summary := &domain.AnalyticsSummary{
		RecentURLs: []domain.Link{},
		TopURLs:    []domain.Link{},
	}

	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(clicks), 0) FROM links WHERE owner = ?`, owner,
	).Scan(&summary.TotalURLs, &summary.TotalClicks)
	if err != nil {
		return nil, err
	}

	recent, err := r.topN(ctx, owner, "created_at DESC", 5)
	if err != nil {
		return nil, err
	}
	summary.RecentURLs = recent

	top, err := r.topN(ctx, owner, "clicks DESC", 5)
	if err != nil {
		return nil, err
	}
	summary.TopURLs = top

	return summary, nil
}

func (r *SQLiteRepository) topN(ctx context.Context, owner, order string, n int) ([]domain.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE owner = ? ORDER BY ` + order + ` LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, owner, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []domain.Link{}
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *link)
	}
	return links, rows.Err()
}

// appendSearch adds the case-insensitive substring filter across
// originalUrl, title, description and tag membership.
func appendSearch(query string, args []interface{}, search string) (string, []interface{}) {
	if search == "" {
		return query, args
	}
	query += ` AND (original_url LIKE ? OR title LIKE ? OR description LIKE ?
		OR EXISTS (SELECT 1 FROM json_each(links.tags) WHERE value LIKE ?))`
	pattern := "%" + search + "%"
	return query, append(args, pattern, pattern, pattern, pattern)
}

// orderClause whitelists sort keys; anything else falls back to newest first.
func orderClause(sort string) string {
	switch sort {
	case "createdAt":
		return "created_at ASC"
	case "clicks":
		return "clicks ASC"
	case "-clicks":
		return "clicks DESC"
	default: // "-createdAt"
		return "created_at DESC"
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLink(row rowScanner) (*domain.Link, error) {
	var link domain.Link
	var tagsJSON []byte
	var expiresAt sql.NullTime

	err := row.Scan(
		&link.ID, &link.OriginalURL, &link.ShortCode, &link.Title, &link.Description,
		&tagsJSON, &link.Clicks, &link.Owner, &link.IsActive, &expiresAt,
		&link.CreatedAt, &link.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if expiresAt.Valid {
		t := expiresAt.Time
		link.ExpiresAt = &t
	}
	_ = json.Unmarshal(tagsJSON, &link.Tags)
	return &link, nil
}

func (r *SQLiteRepository) scanOne(row *sql.Row) (*domain.Link, error) {
	link, err := scanLink(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return link, nil
}

// Ensure interface compliance
var _ ports.LinkRepository = (*SQLiteRepository)(nil)
