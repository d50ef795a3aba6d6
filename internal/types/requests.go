package types

import (
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// AnalyzeRequest starts a brand analysis run.
type AnalyzeRequest struct {
	URL           string   `json:"url" validate:"required,min=3"`
	ExtraURLs     []string `json:"extra_urls,omitempty" validate:"omitempty,max=15,dive,required"`
	CompetitorURL string   `json:"competitor_url,omitempty"`
	MaxPages      int      `json:"max_pages,omitempty" validate:"omitempty,min=1,max=15"`
	Discover      bool     `json:"discover,omitempty"`
	Screenshot    bool     `json:"screenshot,omitempty"`
}

// AEORequest starts an answer-engine visibility check for a brand.
type AEORequest struct {
	Keywords []string `json:"keywords" validate:"required,min=1,max=10,dive,required"`
	Intents  []string `json:"intents,omitempty" validate:"omitempty,dive,oneof=Informational Commercial Transactional General"`
	Region   string   `json:"region,omitempty"`
	Audience string   `json:"audience,omitempty"`
	Runs     int      `json:"runs,omitempty" validate:"omitempty,min=1,max=5"`
	Risk     bool     `json:"risk,omitempty"`
}

// OptimizeRequest rewrites content in the brand's voice.
type OptimizeRequest struct {
	Mode    string `json:"mode" validate:"required,oneof=voice authority humanize"`
	Content string `json:"content" validate:"required"`
}

// HooksRequest asks for viral hooks on a topic.
type HooksRequest struct {
	Topic        string `json:"topic" validate:"required"`
	PersonaIndex int    `json:"persona_index,omitempty" validate:"min=0"`
}

// CampaignRequest creates a campaign.
type CampaignRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Goal  string `json:"goal,omitempty"`
	Theme string `json:"theme,omitempty"`
}

// AssetRequest generates a campaign asset.
type AssetRequest struct {
	CampaignID   *uuid.UUID `json:"campaign_id,omitempty"`
	AssetType    string     `json:"asset_type" validate:"required"`
	Theme        string     `json:"theme" validate:"required"`
	FunnelStage  string     `json:"funnel_stage,omitempty" validate:"omitempty,oneof=Awareness Consideration Decision Retention"`
	PersonaIndex int        `json:"persona_index,omitempty" validate:"min=0"`
	Keywords     []string   `json:"keywords,omitempty"`
}

// ScoreRequest scores copy for entity coverage and trust signals.
type ScoreRequest struct {
	Content  string   `json:"content" validate:"required"`
	Keywords []string `json:"keywords,omitempty" validate:"omitempty,max=20,dive,required"`
}

// KeywordGapRequest compares the brand's copy with a competitor's.
type KeywordGapRequest struct {
	Content           string `json:"content" validate:"required"`
	CompetitorContent string `json:"competitor_content" validate:"required"`
}

// PageIndexRequest asks one answer engine about a brand page.
type PageIndexRequest struct {
	URL      string `json:"url" validate:"required,url"`
	PageType string `json:"page_type,omitempty"`
	Engine   string `json:"engine,omitempty"`
}

// DefenseRequest runs a brand defense simulation: branded queries checked
// for competitors leaking into the answers.
type DefenseRequest struct {
	Keywords    []string `json:"keywords" validate:"required,min=1,max=5,dive,required"`
	Competitors []string `json:"competitors,omitempty" validate:"omitempty,max=10,dive,required"`
	Region      string   `json:"region,omitempty"`
	Audience    string   `json:"audience,omitempty"`
	Engine      string   `json:"engine,omitempty"`
	Strategy    bool     `json:"strategy,omitempty"`
}

// RenameBrandRequest renames a brand.
type RenameBrandRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// AuditRequest runs a standalone AI-readiness audit.
type AuditRequest struct {
	URL string `json:"url" validate:"required,min=3"`
}

// Validate validates the AnalyzeRequest using the validator.
func (r *AnalyzeRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the AEORequest using the validator.
func (r *AEORequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the OptimizeRequest using the validator.
func (r *OptimizeRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the HooksRequest using the validator.
func (r *HooksRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the CampaignRequest using the validator.
func (r *CampaignRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the AssetRequest using the validator.
func (r *AssetRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the RenameBrandRequest using the validator.
func (r *RenameBrandRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the AuditRequest using the validator.
func (r *AuditRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the ScoreRequest using the validator.
func (r *ScoreRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the KeywordGapRequest using the validator.
func (r *KeywordGapRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the PageIndexRequest using the validator.
func (r *PageIndexRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the DefenseRequest using the validator.
func (r *DefenseRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
