package db

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Run kinds
const (
	RunKindAnalysis = "analysis"
	RunKindAEO      = "aeo"
)

// Run status constants
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Artifact step constants for known artifact types
const (
	StepHomepage    = "homepage"
	StepLinks       = "links"
	StepDesign      = "design_tokens"
	StepImagery     = "imagery"
	StepAudit       = "audit"
	StepScreenshot  = "screenshot"
	StepCorpus      = "corpus"
	StepExtraction  = "extraction"
	StepReasoning   = "reasoning"
	StepHealth      = "health"
	StepKnowledge   = "knowledge_graph"
	StepBattleCard  = "battle_card"
	StepVisibility  = "visibility"
	StepLeaderboard = "leaderboard"
	StepStrategy    = "aeo_strategy"
	StepPersist     = "persist"
)

// Step status constants
const (
	StepStatusPending    = "pending"
	StepStatusInProgress = "in_progress"
	StepStatusCompleted  = "completed"
	StepStatusFailed     = "failed"
	StepStatusSkipped    = "skipped"
)

// Step category constants
const (
	StepCategoryInput       = "input"
	StepCategoryExtraction  = "extraction"
	StepCategoryReasoning   = "reasoning"
	StepCategoryPersistence = "persistence"
	StepCategoryAEO         = "aeo"
)

// Page type constants
const (
	PageTypeHomepage = "homepage"
	PageTypePricing  = "pricing"
	PageTypeAbout    = "about"
	PageTypeFeatures = "features"
	PageTypeBlog     = "blog"
	PageTypeOther    = "other"
)

// DefaultPageCacheTTL is the default expiry for cached pages.
const DefaultPageCacheTTL = 24 * time.Hour

// Brand is the core brand entity.
type Brand struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	NameNormalized string    `json:"name_normalized"`
	HomepageURL    *string   `json:"homepage_url,omitempty"`
	LogoURL        *string   `json:"logo_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BrandSummary is a Brand plus list-view counters.
type BrandSummary struct {
	Brand
	PageCount      int        `json:"page_count"`
	LastAnalyzedAt *time.Time `json:"last_analyzed_at,omitempty"`
}

// BrandStats counts the rows attached to a brand.
type BrandStats struct {
	Pages      int `json:"urls"`
	Analyses   int `json:"analyses"`
	AEOReports int `json:"aeo_reports"`
	Assets     int `json:"assets"`
	Campaigns  int `json:"campaigns"`
}

// Page is a fetched page, cached by URL and optionally linked to a brand.
type Page struct {
	ID          uuid.UUID  `json:"id"`
	BrandID     *uuid.UUID `json:"brand_id,omitempty"`
	URL         string     `json:"url"`
	PageType    *string    `json:"page_type,omitempty"`
	Title       string     `json:"title"`
	HTML        string     `json:"-"`
	Text        string     `json:"text,omitempty"`
	ContentHash *string    `json:"content_hash,omitempty"`
	StatusCode  int        `json:"status_code"`
	FetchedAt   time.Time  `json:"fetched_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsExpired returns true if the page cache has expired
func (p *Page) IsExpired() bool {
	if p.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*p.ExpiresAt)
}

// IsFresh returns true if the page was fetched within maxAge and has not expired.
func (p *Page) IsFresh(maxAge time.Duration) bool {
	return time.Since(p.FetchedAt) < maxAge && !p.IsExpired()
}

// AnalysisRecord is one stored analysis. Report holds the marshaled types.BrandReport.
type AnalysisRecord struct {
	ID        uuid.UUID       `json:"id"`
	BrandID   uuid.UUID       `json:"brand_id"`
	RunID     *uuid.UUID      `json:"run_id,omitempty"`
	URL       string          `json:"url"`
	Report    json.RawMessage `json:"report"`
	CreatedAt time.Time       `json:"created_at"`
}

// AEOReport is one stored visibility run.
type AEOReport struct {
	ID              uuid.UUID       `json:"id"`
	BrandID         uuid.UUID       `json:"brand_id"`
	Query           string          `json:"query"`
	Visibility      json.RawMessage `json:"visibility"`
	Leaderboard     json.RawMessage `json:"leaderboard"`
	Strategy        json.RawMessage `json:"strategy,omitempty"`
	RankPosition    *int            `json:"rank_position,omitempty"`
	VisibilityScore *float64        `json:"visibility_score,omitempty"`
	RiskScore       *float64        `json:"risk_score,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// AEOReportInput is used when saving an AEO report.
type AEOReportInput struct {
	Query           string
	Visibility      any
	Leaderboard     any
	Strategy        any
	RankPosition    *int
	VisibilityScore *float64
	RiskScore       *float64
}

// AEOHistoryPoint is one point of a brand's visibility trend.
type AEOHistoryPoint struct {
	ReportID        uuid.UUID `json:"report_id"`
	Date            time.Time `json:"date"`
	VisibilityScore float64   `json:"visibility_score"`
	RankPosition    int       `json:"rank_position"`
	RiskScore       float64   `json:"risk_score"`
}

// Campaign groups marketing assets under a shared goal.
type Campaign struct {
	ID        uuid.UUID `json:"id"`
	BrandID   uuid.UUID `json:"brand_id"`
	Name      string    `json:"name"`
	Goal      *string   `json:"goal,omitempty"`
	Theme     *string   `json:"theme,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Asset is a generated marketing asset.
type Asset struct {
	ID            uuid.UUID       `json:"id"`
	BrandID       uuid.UUID       `json:"brand_id"`
	CampaignID    *uuid.UUID      `json:"campaign_id,omitempty"`
	AssetType     string          `json:"asset_type"`
	Content       string          `json:"content"`
	PersonaTarget *string         `json:"persona_target,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// AssetInput is used when saving an asset.
type AssetInput struct {
	CampaignID    *uuid.UUID
	AssetType     string
	Content       string
	PersonaTarget string
	Metadata      map[string]any
}

// Optimization records one content rewrite.
type Optimization struct {
	ID        uuid.UUID `json:"id"`
	BrandID   uuid.UUID `json:"brand_id"`
	Mode      string    `json:"mode"`
	Original  string    `json:"original_content"`
	Optimized string    `json:"optimized_content"`
	CreatedAt time.Time `json:"created_at"`
}

// Run represents a pipeline run record
type Run struct {
	ID          uuid.UUID  `json:"id"`
	BrandID     *uuid.UUID `json:"brand_id,omitempty"`
	Kind        string     `json:"kind"`
	Target      string     `json:"target"`
	Status      string     `json:"status"`
	Error       *string    `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// RunFilters holds optional filters for listing runs
type RunFilters struct {
	BrandID uuid.UUID
	Kind    string
	Status  string
	Limit   int
}

// ArtifactSummary is a lightweight view of an artifact for listing
type ArtifactSummary struct {
	ID        uuid.UUID `json:"id"`
	Step      string    `json:"step"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	HasJSON   bool      `json:"has_json"`
	HasText   bool      `json:"has_text"`
}

// RunStep represents a single step execution for a pipeline run
type RunStep struct {
	ID          uuid.UUID  `json:"id"`
	RunID       uuid.UUID  `json:"run_id"`
	Step        string     `json:"step"`
	Category    string     `json:"category"`
	Status      string     `json:"status"`
	Message     *string    `json:"message,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DurationMs  *int       `json:"duration_ms,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]`)

// NormalizeName creates a normalized version of a brand name for matching.
func NormalizeName(name string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(name), "")
}

// HashContent computes SHA-256 hash of content for change detection
func HashContent(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

// ValidStepStatus reports whether status is a known step status.
func ValidStepStatus(status string) bool {
	switch status {
	case StepStatusPending, StepStatusInProgress, StepStatusCompleted, StepStatusFailed, StepStatusSkipped:
		return true
	}
	return false
}
