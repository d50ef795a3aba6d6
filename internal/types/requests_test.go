//nolint:revive // types is a standard Go package name pattern
package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     AnalyzeRequest
		wantErr bool
	}{
		{"valid", AnalyzeRequest{URL: "stripe.com"}, false},
		{"missing url", AnalyzeRequest{}, true},
		{"too many pages", AnalyzeRequest{URL: "stripe.com", MaxPages: 16}, true},
		{"empty extra url", AnalyzeRequest{URL: "stripe.com", ExtraURLs: []string{""}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAEORequest_Validate(t *testing.T) {
	assert.NoError(t, (&AEORequest{Keywords: []string{"payments api"}, Intents: []string{"Commercial"}}).Validate())
	assert.Error(t, (&AEORequest{}).Validate())
	assert.Error(t, (&AEORequest{Keywords: []string{"x"}, Intents: []string{"Risk: Cost"}}).Validate())
	assert.Error(t, (&AEORequest{Keywords: []string{"x"}, Runs: 9}).Validate())
}

func TestOptimizeRequest_Validate(t *testing.T) {
	assert.NoError(t, (&OptimizeRequest{Mode: "humanize", Content: "hi"}).Validate())
	assert.Error(t, (&OptimizeRequest{Mode: "shout", Content: "hi"}).Validate())
	assert.Error(t, (&OptimizeRequest{Mode: "voice"}).Validate())
}

func TestCampaignRequest_Validate(t *testing.T) {
	assert.NoError(t, (&CampaignRequest{Name: "Launch", Goal: "Signups"}).Validate())
	assert.Error(t, (&CampaignRequest{}).Validate())
}

func TestAssetRequest_Validate(t *testing.T) {
	assert.NoError(t, (&AssetRequest{AssetType: "Email", Theme: "Launch", FunnelStage: "Awareness"}).Validate())
	assert.Error(t, (&AssetRequest{AssetType: "Email", Theme: "Launch", FunnelStage: "Later"}).Validate())
	assert.Error(t, (&AssetRequest{AssetType: "Email", Theme: "Launch", PersonaIndex: -1}).Validate())
	assert.Error(t, (&AssetRequest{Theme: "Launch"}).Validate())
}

func TestStrategyResult_Recommendations(t *testing.T) {
	top := StrategyResult{StrategicRecommendations: []string{"a"}, Analysis: &Analysis{StrategicRecommendations: []string{"b"}}}
	assert.Equal(t, []string{"a"}, top.Recommendations())

	nested := StrategyResult{Analysis: &Analysis{StrategicRecommendations: []string{"b"}}}
	assert.Equal(t, []string{"b"}, nested.Recommendations())

	assert.Nil(t, (&StrategyResult{}).Recommendations())
}

func TestAnalysis_IsEmpty(t *testing.T) {
	var nilAnalysis *Analysis
	assert.True(t, nilAnalysis.IsEmpty())
	assert.True(t, (&Analysis{}).IsEmpty())
	assert.False(t, (&Analysis{BrandName: "Acme"}).IsEmpty())
}

func TestKnowledgeGraph_ProductNames(t *testing.T) {
	var nilGraph *KnowledgeGraph
	assert.Nil(t, nilGraph.ProductNames())

	k := &KnowledgeGraph{Products: []Product{{Name: "Billing"}, {Name: ""}, {Name: "Radar"}}}
	assert.Equal(t, []string{"Billing", "Radar"}, k.ProductNames())
}
