package types

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/brandos/internal/audit"
	"github.com/jonathan/brandos/internal/design"
)

// BrandReport bundles everything one analysis run learned about a brand.
type BrandReport struct {
	BrandID    uuid.UUID       `json:"brand_id"`
	AnalysisID uuid.UUID       `json:"analysis_id"`
	BrandName  string          `json:"brand_name"`
	URL        string          `json:"url"`
	Profile    Profile         `json:"profile"`
	Design     *design.Tokens  `json:"design_tokens,omitempty"`
	Imagery    *design.Imagery `json:"imagery,omitempty"`
	Knowledge  *KnowledgeGraph `json:"knowledge_graph,omitempty"`
	Health     *Health         `json:"health,omitempty"`
	Audit      *audit.Report   `json:"audit,omitempty"`
	BattleCard *BattleCard     `json:"battle_card,omitempty"`
	Sources    []string        `json:"sources,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
