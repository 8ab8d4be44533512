package pdf

import (
	"context"
	"fmt"
	"os"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"go.uber.org/zap"
)

const freeFooter = "Version gratuite VOLTIX AUDIT - passez au plan Pro pour des rapports sans mention."

var (
	white     = &props.Color{Red: 255, Green: 255, Blue: 255}
	brand     = &props.Color{Red: 0, Green: 82, Blue: 147}
	lightGrey = &props.Color{Red: 240, Green: 240, Blue: 240}
)

type MarotoProvider struct {
	logoPath string
}

// New returns a provider without a logo.
func New() Provider {
	return &MarotoProvider{}
}

// NewWithLogo places the image at logoPath on the cover. An unreadable path
// is dropped with a warning.
func NewWithLogo(logoPath string, log *zap.Logger) Provider {
	if logoPath == "" {
		return New()
	}
	if _, err := os.Stat(logoPath); err != nil {
		log.Named("pdf").Warn("report logo unavailable", zap.String("path", logoPath), zap.Error(err))
		return New()
	}
	return &MarotoProvider{logoPath: logoPath}
}

func (p *MarotoProvider) RenderAudit(ctx context.Context, report AuditReport) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} / {total}",
			Place:   props.RightBottom,
		}).
		Build()
	m := maroto.New(cfg)

	if report.FreeVersion {
		if err := m.RegisterFooter(row.New(8).Add(
			text.NewCol(12, freeFooter, props.Text{Size: 7, Align: align.Center, Style: fontstyle.Italic}),
		)); err != nil {
			return nil, fmt.Errorf("pdf: footer: %w", err)
		}
	}

	m.AddRows(cover(report, p.logoPath)...)
	m.AddRows(results(report)...)
	m.AddRows(scale(report)...)
	m.AddRows(recommendations(report)...)
	m.AddRows(actionPlan(report)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generate: %w", err)
	}
	return doc.GetBytes(), nil
}

func heading(title string) core.Row {
	return row.New(12).Add(
		text.NewCol(12, title, props.Text{Size: 13, Style: fontstyle.Bold, Color: brand, Top: 3}),
	)
}

func cover(r AuditReport, logoPath string) []core.Row {
	badge := hexColor(r.ClassColor)
	title := row.New(14).Add(
		text.NewCol(12, "VOLTIX AUDIT", props.Text{Size: 22, Style: fontstyle.Bold, Color: brand}),
	)
	if logoPath != "" {
		title = row.New(14).Add(
			image.NewFromFileCol(2, logoPath, props.Rect{Center: true, Percent: 90}),
			text.NewCol(10, "VOLTIX AUDIT", props.Text{Size: 22, Style: fontstyle.Bold, Color: brand, Left: 2}),
		)
	}
	rows := []core.Row{
		title,
		row.New(10).Add(
			text.NewCol(12, "Rapport d'audit énergétique", props.Text{Size: 14}),
		),
		row.New(24).Add(
			col.New(8).Add(
				text.New(r.ProjectName, props.Text{Size: 12, Style: fontstyle.Bold}),
				text.New("Client : "+r.ClientName, props.Text{Top: 6, Size: 9}),
				text.New("Type de bâtiment : "+r.BuildingType, props.Text{Top: 11, Size: 9}),
				text.New("Date : "+r.GeneratedOn, props.Text{Top: 16, Size: 9}),
			),
			col.New(4).Add(
				text.New(r.Class, props.Text{Size: 28, Style: fontstyle.Bold, Align: align.Center, Color: white, Top: 2}),
				text.New(r.ClassLabel, props.Text{Size: 9, Align: align.Center, Color: white, Top: 16}),
			).WithStyle(&props.Cell{BackgroundColor: badge}),
		),
		line.NewRow(4),
	}
	return rows
}

func results(r AuditReport) []core.Row {
	label := props.Text{Size: 9, Style: fontstyle.Bold}
	value := props.Text{Size: 9, Align: align.Right}
	pairs := [][2]string{
		{"Consommation annuelle", r.AnnualKWh + " kWh/an"},
		{"Coût annuel", r.Cost},
		{"Émissions de CO2", r.AnnualCO2 + " kg CO2/an"},
		{"Score énergétique", r.Score + "/100"},
		{"Densité de consommation", r.Density + " kWh/m²/an"},
		{"Inventaire", r.Inventory},
	}

	rows := []core.Row{heading("Résultats de l'audit")}
	for i, pair := range pairs {
		rw := row.New(7).Add(
			text.NewCol(7, pair[0], label),
			text.NewCol(5, pair[1], value),
		)
		if i%2 == 0 {
			rw.WithStyle(&props.Cell{BackgroundColor: lightGrey})
		}
		rows = append(rows, rw)
	}
	if r.AreaNote != "" {
		rows = append(rows, row.New(6).Add(
			text.NewCol(12, r.AreaNote, props.Text{Size: 7, Style: fontstyle.Italic}),
		))
	}
	return rows
}

func scale(r AuditReport) []core.Row {
	rows := []core.Row{heading("Échelle de classement")}
	for i, band := range r.Scale {
		style := props.Text{Size: 9, Color: white, Style: fontstyle.Bold, Left: 2}
		width := 5 + i
		if width > 12 {
			width = 12
		}
		marker := ""
		if band.Current {
			marker = "<< votre bâtiment"
		}
		cols := []core.Col{
			col.New(width).Add(
				text.New(band.Class+"  "+band.Range, style),
			).WithStyle(&props.Cell{BackgroundColor: hexColor(band.Color)}),
		}
		if rest := 12 - width; rest > 0 {
			cols = append(cols, text.NewCol(rest, band.Label+" "+marker, props.Text{Size: 8, Left: 2}))
		}
		rows = append(rows, row.New(7).Add(cols...))
	}
	return rows
}

func recommendations(r AuditReport) []core.Row {
	rows := []core.Row{heading("Recommandations")}
	if len(r.Recommendations) == 0 {
		return append(rows, row.New(8).Add(
			text.NewCol(12, "Aucune recommandation pour ce bâtiment.", props.Text{Size: 9}),
		))
	}

	header := props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Right}
	for i, rec := range r.Recommendations {
		rows = append(rows,
			row.New(8).Add(
				text.NewCol(9, fmt.Sprintf("%d. %s", i+1, rec.Title), props.Text{Size: 10, Style: fontstyle.Bold}),
				text.NewCol(3, "Priorité "+rec.Priority, props.Text{Size: 8, Align: align.Right}),
			),
			row.New(10).Add(
				text.NewCol(12, rec.Description, props.Text{Size: 8}),
			),
			row.New(6).Add(
				text.NewCol(3, "Économie/an", header),
				text.NewCol(3, "Investissement", header),
				text.NewCol(3, "Retour", header),
				text.NewCol(3, "CO2 évité", header),
			).WithStyle(&props.Cell{BackgroundColor: lightGrey}),
			row.New(7).Add(
				text.NewCol(3, rec.Saving, props.Text{Size: 8, Align: align.Right}),
				text.NewCol(3, rec.Investment, props.Text{Size: 8, Align: align.Right}),
				text.NewCol(3, rec.Payback, props.Text{Size: 8, Align: align.Right}),
				text.NewCol(3, rec.CO2, props.Text{Size: 8, Align: align.Right}),
			),
		)
	}
	return rows
}

func actionPlan(r AuditReport) []core.Row {
	label := props.Text{Size: 9}
	value := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
	return []core.Row{
		heading("Plan d'action"),
		row.New(7).Add(col.New(4), text.NewCol(5, "Investissement total", label), text.NewCol(3, r.TotalInvestment, value)),
		row.New(7).Add(col.New(4), text.NewCol(5, "Économies annuelles", label), text.NewCol(3, r.TotalSaving, value)),
		row.New(7).Add(col.New(4), text.NewCol(5, "CO2 évité par an", label), text.NewCol(3, r.TotalCO2, value)),
		row.New(7).Add(col.New(4), text.NewCol(5, "Retour sur investissement", label), text.NewCol(3, r.Payback, value)),
	}
}
