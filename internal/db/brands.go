package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Brand Methods
// -----------------------------------------------------------------------------

const brandColumns = `id, name, name_normalized, homepage_url, logo_url, created_at, updated_at`

func scanBrand(row pgx.Row) (*Brand, error) {
	var b Brand
	if err := row.Scan(&b.ID, &b.Name, &b.NameNormalized, &b.HomepageURL, &b.LogoURL, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// FindOrCreateBrand finds an existing brand by normalized name or creates a new one.
// A non-empty homepage replaces the stored one.
func (db *DB) FindOrCreateBrand(ctx context.Context, name, homepageURL string) (*Brand, error) {
	normalized := NormalizeName(name)
	if normalized == "" {
		return nil, fmt.Errorf("brand name cannot be empty")
	}

	var homepage *string
	if homepageURL != "" {
		homepage = &homepageURL
	}

	b, err := scanBrand(db.pool.QueryRow(ctx,
		`INSERT INTO brands (name, name_normalized, homepage_url)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (name_normalized) DO UPDATE SET
		     homepage_url = COALESCE($3, brands.homepage_url),
		     updated_at = NOW()
		 RETURNING `+brandColumns,
		name, normalized, homepage,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create brand: %w", err)
	}
	return b, nil
}

// GetBrand retrieves a brand by its UUID
func (db *DB) GetBrand(ctx context.Context, id uuid.UUID) (*Brand, error) {
	b, err := scanBrand(db.pool.QueryRow(ctx,
		`SELECT `+brandColumns+` FROM brands WHERE id = $1`, id,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get brand: %w", err)
	}
	return b, nil
}

// GetBrandByName retrieves a brand by name, ignoring case and punctuation.
func (db *DB) GetBrandByName(ctx context.Context, name string) (*Brand, error) {
	b, err := scanBrand(db.pool.QueryRow(ctx,
		`SELECT `+brandColumns+` FROM brands WHERE name_normalized = $1`, NormalizeName(name),
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get brand: %w", err)
	}
	return b, nil
}

// ListBrands returns brands with page counts, most recently updated first.
func (db *DB) ListBrands(ctx context.Context, limit int) ([]BrandSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT b.id, b.name, b.name_normalized, b.homepage_url, b.logo_url, b.created_at, b.updated_at,
		        (SELECT COUNT(*) FROM brand_pages p WHERE p.brand_id = b.id),
		        (SELECT MAX(a.created_at) FROM brand_analyses a WHERE a.brand_id = b.id)
		 FROM brands b
		 ORDER BY b.updated_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	defer rows.Close()

	brands := []BrandSummary{}
	for rows.Next() {
		var s BrandSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.NameNormalized, &s.HomepageURL, &s.LogoURL, &s.CreatedAt, &s.UpdatedAt,
			&s.PageCount, &s.LastAnalyzedAt); err != nil {
			return nil, fmt.Errorf("failed to scan brand: %w", err)
		}
		brands = append(brands, s)
	}
	return brands, rows.Err()
}

// RenameBrand changes a brand's display name. Renaming onto another brand's
// normalized name fails with ErrConflict.
func (db *DB) RenameBrand(ctx context.Context, id uuid.UUID, newName string) (*Brand, error) {
	normalized := NormalizeName(newName)
	if normalized == "" {
		return nil, fmt.Errorf("brand name cannot be empty")
	}
	b, err := scanBrand(db.pool.QueryRow(ctx,
		`UPDATE brands SET name = $1, name_normalized = $2, updated_at = NOW()
		 WHERE id = $3
		 RETURNING `+brandColumns,
		newName, normalized, id,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("brand %s: %w", id, ErrNotFound)
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("brand %q: %w", newName, ErrConflict)
		}
		return nil, fmt.Errorf("failed to rename brand: %w", err)
	}
	return b, nil
}

// UpdateBrandLogo stores the detected logo URL.
func (db *DB) UpdateBrandLogo(ctx context.Context, id uuid.UUID, logoURL string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE brands SET logo_url = $1, updated_at = NOW() WHERE id = $2`,
		logoURL, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update brand logo: %w", err)
	}
	return nil
}

// DeleteBrand deletes a brand and, via cascade, its pages, analyses,
// AEO reports, campaigns, assets and optimizations.
func (db *DB) DeleteBrand(ctx context.Context, id uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM brands WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete brand: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("brand %s: %w", id, ErrNotFound)
	}
	return nil
}

// BrandStats counts the rows attached to a brand.
func (db *DB) BrandStats(ctx context.Context, id uuid.UUID) (*BrandStats, error) {
	var s BrandStats
	err := db.pool.QueryRow(ctx,
		`SELECT
		     (SELECT COUNT(*) FROM brand_pages WHERE brand_id = $1),
		     (SELECT COUNT(*) FROM brand_analyses WHERE brand_id = $1),
		     (SELECT COUNT(*) FROM aeo_reports WHERE brand_id = $1),
		     (SELECT COUNT(*) FROM marketing_assets WHERE brand_id = $1),
		     (SELECT COUNT(*) FROM campaigns WHERE brand_id = $1)`,
		id,
	).Scan(&s.Pages, &s.Analyses, &s.AEOReports, &s.Assets, &s.Campaigns)
	if err != nil {
		return nil, fmt.Errorf("failed to get brand stats: %w", err)
	}
	return &s, nil
}
