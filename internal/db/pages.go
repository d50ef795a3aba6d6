package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Page Methods
// -----------------------------------------------------------------------------

const pageColumns = `id, brand_id, url, page_type, title, raw_html, parsed_text, content_hash,
	http_status, fetched_at, expires_at, created_at, updated_at`

func scanPage(row pgx.Row) (*Page, error) {
	var p Page
	err := row.Scan(&p.ID, &p.BrandID, &p.URL, &p.PageType, &p.Title, &p.HTML, &p.Text, &p.ContentHash,
		&p.StatusCode, &p.FetchedAt, &p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPageByURL retrieves a cached page by URL
func (db *DB) GetPageByURL(ctx context.Context, pageURL string) (*Page, error) {
	p, err := scanPage(db.pool.QueryRow(ctx,
		`SELECT `+pageColumns+` FROM brand_pages WHERE url = $1`, pageURL,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	return p, nil
}

// GetFreshPage retrieves a page only if it was fetched within maxAge and has not expired.
func (db *DB) GetFreshPage(ctx context.Context, pageURL string, maxAge time.Duration) (*Page, error) {
	page, err := db.GetPageByURL(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if page == nil || !page.IsFresh(maxAge) {
		return nil, nil
	}
	return page, nil
}

// UpsertPage inserts or refreshes a page keyed by URL. An existing brand link
// or page type is kept when the new row leaves them unset.
func (db *DB) UpsertPage(ctx context.Context, page *Page) error {
	var contentHash *string
	if page.HTML != "" {
		hash := HashContent(page.HTML)
		contentHash = &hash
	}

	expiresAt := page.ExpiresAt
	if expiresAt == nil {
		t := time.Now().Add(DefaultPageCacheTTL)
		expiresAt = &t
	}

	err := db.pool.QueryRow(ctx,
		`INSERT INTO brand_pages (brand_id, url, page_type, title, raw_html, parsed_text, content_hash,
		                          http_status, fetched_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), $9)
		 ON CONFLICT (url) DO UPDATE SET
		     brand_id = COALESCE($1, brand_pages.brand_id),
		     page_type = COALESCE($3, brand_pages.page_type),
		     title = $4,
		     raw_html = $5,
		     parsed_text = $6,
		     content_hash = $7,
		     http_status = $8,
		     fetched_at = NOW(),
		     expires_at = $9,
		     updated_at = NOW()
		 RETURNING id, brand_id, page_type, fetched_at, created_at, updated_at`,
		page.BrandID, page.URL, page.PageType, page.Title, page.HTML, page.Text, contentHash,
		page.StatusCode, expiresAt,
	).Scan(&page.ID, &page.BrandID, &page.PageType, &page.FetchedAt, &page.CreatedAt, &page.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert page: %w", err)
	}
	page.ContentHash = contentHash
	page.ExpiresAt = expiresAt
	return nil
}

// AssignPage links an already cached page to a brand.
func (db *DB) AssignPage(ctx context.Context, pageURL string, brandID uuid.UUID, pageType string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE brand_pages SET brand_id = $1, page_type = COALESCE(NULLIF($2, ''), page_type), updated_at = NOW()
		 WHERE url = $3`,
		brandID, pageType, pageURL,
	)
	if err != nil {
		return fmt.Errorf("failed to assign page: %w", err)
	}
	return nil
}

// ListPages returns a brand's pages without their HTML bodies, homepage first.
func (db *DB) ListPages(ctx context.Context, brandID uuid.UUID) ([]Page, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, brand_id, url, page_type, title, '', parsed_text, content_hash,
		        http_status, fetched_at, expires_at, created_at, updated_at
		 FROM brand_pages WHERE brand_id = $1
		 ORDER BY (page_type = 'homepage') DESC NULLS LAST, url`,
		brandID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	pages := []Page{}
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		pages = append(pages, *p)
	}
	return pages, rows.Err()
}

// DeletePage removes one of a brand's pages.
func (db *DB) DeletePage(ctx context.Context, brandID uuid.UUID, pageURL string) error {
	result, err := db.pool.Exec(ctx,
		`DELETE FROM brand_pages WHERE brand_id = $1 AND url = $2`, brandID, pageURL,
	)
	if err != nil {
		return fmt.Errorf("failed to delete page: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("page %s: %w", pageURL, ErrNotFound)
	}
	return nil
}
