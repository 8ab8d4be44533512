package pdf

import (
	"context"
	"testing"

	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHexColor(t *testing.T) {
	assert.Equal(t, &props.Color{Red: 0, Green: 168, Blue: 79}, hexColor("#00A84F"))
	assert.Equal(t, &props.Color{Red: 255, Green: 0, Blue: 0}, hexColor("FF0000"))
	assert.Equal(t, &props.Color{Red: 128, Green: 128, Blue: 128}, hexColor("#zz"))
}

func TestRenderAuditProducesPDF(t *testing.T) {
	doc, err := New().RenderAudit(context.Background(), AuditReport{
		ProjectName: "Clinique Saint-Luc",
		ClientName:  "Dr Houngbo",
		GeneratedOn: "02/04/2025",
		Class:       "B",
		ClassLabel:  "Très bien",
		ClassColor:  "#50B847",
		Score:       "85",
		AnnualKWh:   "8 320",
		Scale: []ScaleBand{
			{Class: "A", Label: "Excellent", Range: "≤ 50", Color: "#00A84F"},
			{Class: "B", Label: "Très bien", Range: "51 à 90", Color: "#50B847", Current: true},
		},
		Recommendations: []RecommendationLine{
			{Title: "Passer à l'éclairage LED", Priority: "haute", Saving: "124 800 FCFA"},
		},
		FreeVersion: true,
	})
	require.NoError(t, err)
	require.Greater(t, len(doc), 4)
	assert.Equal(t, "%PDF", string(doc[:4]))
}

func TestRenderAuditHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().RenderAudit(ctx, AuditReport{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewWithLogoFallsBackWhenMissing(t *testing.T) {
	provider := NewWithLogo("/nonexistent/logo.png", zap.NewNop())
	marotoProvider, ok := provider.(*MarotoProvider)
	require.True(t, ok)
	assert.Empty(t, marotoProvider.logoPath)
}
