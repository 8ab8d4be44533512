package pdf

import (
	"context"
	"strconv"
	"strings"

	"github.com/johnfercher/maroto/v2/pkg/props"
)

// AuditReport carries display-ready values; formatting happens upstream.
type AuditReport struct {
	ProjectName  string
	ClientName   string
	BuildingType string
	GeneratedOn  string

	Class      string
	ClassLabel string
	ClassColor string
	Score      string

	AnnualKWh string
	AnnualCO2 string
	Cost      string
	Density   string
	AreaNote  string
	Inventory string

	Scale []ScaleBand

	Recommendations []RecommendationLine

	TotalInvestment string
	TotalSaving     string
	TotalCO2        string
	Payback         string

	FreeVersion bool
}

type ScaleBand struct {
	Class   string
	Label   string
	Range   string
	Color   string
	Current bool
}

type RecommendationLine struct {
	Title       string
	Description string
	Priority    string
	Saving      string
	Investment  string
	Payback     string
	CO2         string
}

type Provider interface {
	RenderAudit(ctx context.Context, report AuditReport) ([]byte, error)
}

// hexColor converts "#RRGGBB" to a maroto color. Malformed input yields grey.
func hexColor(hex string) *props.Color {
	grey := &props.Color{Red: 128, Green: 128, Blue: 128}
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return grey
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return grey
	}
	return &props.Color{
		Red:   int(v >> 16 & 0xff),
		Green: int(v >> 8 & 0xff),
		Blue:  int(v & 0xff),
	}
}
