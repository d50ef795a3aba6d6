package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Campaign Methods
// -----------------------------------------------------------------------------

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// CreateCampaign creates a campaign for a brand.
func (db *DB) CreateCampaign(ctx context.Context, brandID uuid.UUID, name, goal, theme string) (*Campaign, error) {
	if name == "" {
		return nil, fmt.Errorf("campaign name cannot be empty")
	}
	var c Campaign
	err := db.pool.QueryRow(ctx,
		`INSERT INTO campaigns (brand_id, name, goal, theme)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, brand_id, name, goal, theme, created_at`,
		brandID, name, nullable(goal), nullable(theme),
	).Scan(&c.ID, &c.BrandID, &c.Name, &c.Goal, &c.Theme, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}
	return &c, nil
}

// ListCampaigns returns a brand's campaigns, newest first.
func (db *DB) ListCampaigns(ctx context.Context, brandID uuid.UUID, limit int) ([]Campaign, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, brand_id, name, goal, theme, created_at
		 FROM campaigns WHERE brand_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		brandID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []Campaign{}
	for rows.Next() {
		var c Campaign
		if err := rows.Scan(&c.ID, &c.BrandID, &c.Name, &c.Goal, &c.Theme, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// DeleteCampaign deletes a campaign. Its assets are kept and unlinked.
func (db *DB) DeleteCampaign(ctx context.Context, id uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("campaign %s: %w", id, ErrNotFound)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Asset Methods
// -----------------------------------------------------------------------------

// SaveAsset stores a generated marketing asset.
func (db *DB) SaveAsset(ctx context.Context, brandID uuid.UUID, in AssetInput) (*Asset, error) {
	if in.Content == "" {
		return nil, fmt.Errorf("asset content cannot be empty")
	}
	var metadata []byte
	if len(in.Metadata) > 0 {
		var err error
		if metadata, err = json.Marshal(in.Metadata); err != nil {
			return nil, fmt.Errorf("failed to marshal asset metadata: %w", err)
		}
	}

	var a Asset
	err := db.pool.QueryRow(ctx,
		`INSERT INTO marketing_assets (brand_id, campaign_id, asset_type, content, persona_target, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, brand_id, campaign_id, asset_type, content, persona_target, metadata, created_at`,
		brandID, in.CampaignID, in.AssetType, in.Content, nullable(in.PersonaTarget), metadata,
	).Scan(&a.ID, &a.BrandID, &a.CampaignID, &a.AssetType, &a.Content, &a.PersonaTarget, &a.Metadata, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save asset: %w", err)
	}
	return &a, nil
}

// ListAssets returns a brand's assets, newest first. A non-nil campaignID
// restricts the list to that campaign.
func (db *DB) ListAssets(ctx context.Context, brandID uuid.UUID, campaignID *uuid.UUID, limit int) ([]Asset, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, brand_id, campaign_id, asset_type, content, persona_target, metadata, created_at
		 FROM marketing_assets
		 WHERE brand_id = $1 AND ($2::uuid IS NULL OR campaign_id = $2)
		 ORDER BY created_at DESC
		 LIMIT $3`,
		brandID, campaignID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	assets := []Asset{}
	for rows.Next() {
		var a Asset
		if err := rows.Scan(&a.ID, &a.BrandID, &a.CampaignID, &a.AssetType, &a.Content, &a.PersonaTarget, &a.Metadata, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// DeleteAsset deletes one asset.
func (db *DB) DeleteAsset(ctx context.Context, id uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM marketing_assets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("asset %s: %w", id, ErrNotFound)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Optimization Methods
// -----------------------------------------------------------------------------

// SaveOptimization records a content rewrite.
func (db *DB) SaveOptimization(ctx context.Context, brandID uuid.UUID, mode, original, optimized string) (*Optimization, error) {
	var o Optimization
	err := db.pool.QueryRow(ctx,
		`INSERT INTO optimizations (brand_id, mode, original_content, optimized_content)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, brand_id, mode, original_content, optimized_content, created_at`,
		brandID, mode, original, optimized,
	).Scan(&o.ID, &o.BrandID, &o.Mode, &o.Original, &o.Optimized, &o.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save optimization: %w", err)
	}
	return &o, nil
}
