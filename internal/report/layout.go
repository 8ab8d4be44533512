package report

import (
	"fmt"

	accountdomain "github.com/voltixaudit/voltix/internal/account/domain"
	"github.com/voltixaudit/voltix/internal/classification"
	"github.com/voltixaudit/voltix/internal/providers/pdf"
	recdomain "github.com/voltixaudit/voltix/internal/recommendation/domain"
)

var priorityLabels = map[recdomain.Priority]string{
	recdomain.PriorityHigh:   "haute",
	recdomain.PriorityMedium: "moyenne",
	recdomain.PriorityLow:    "basse",
}

func toAuditReport(data Data, plan accountdomain.Plan) pdf.AuditReport {
	res := data.Result
	class := classification.Class(res.EnergyClass)
	currency := res.Currency

	out := pdf.AuditReport{
		ProjectName:  data.Project.Name,
		ClientName:   orDash(data.Project.ClientName),
		BuildingType: orDash(data.Project.BuildingType),
		GeneratedOn:  data.GeneratedAt.Format("02/01/2006"),

		Class:      res.EnergyClass,
		ClassLabel: class.Label(),
		ClassColor: class.Color(),
		Score:      fmt.Sprintf("%d", res.Score),

		AnnualKWh: FormatNumber(res.AnnualKWh, 0),
		AnnualCO2: FormatNumber(res.AnnualCO2Kg, 0),
		Cost:      formatMoney(res.AnnualCost, currency) + "/an",
		Density:   FormatNumber(res.Density, 1),
		Inventory: fmt.Sprintf("%d étage(s), %d pièce(s), %d équipement(s)",
			data.Stats.Floors, data.Stats.Rooms, data.Stats.Equipment),

		Scale: scaleBands(class),

		TotalInvestment: formatMoney(data.Summary.TotalInvestment, currency),
		TotalSaving:     formatMoney(data.Summary.TotalAnnualSaving, currency) + "/an",
		TotalCO2:        FormatNumber(data.Summary.TotalCO2Reduction, 0) + " kg",
		Payback:         formatYears(data.Summary.PaybackYears),

		FreeVersion: plan == accountdomain.PlanFree,
	}

	if data.Building == nil || data.Building.Area <= 0 {
		out.AreaNote = fmt.Sprintf("Surface non renseignée : %s m² retenus par défaut.",
			FormatNumber(res.AreaUsed, 0))
	}

	for _, rec := range data.Recommendations {
		out.Recommendations = append(out.Recommendations, pdf.RecommendationLine{
			Title:       rec.Title,
			Description: rec.Description,
			Priority:    priorityLabels[rec.Priority],
			Saving:      formatMoney(rec.AnnualSaving, currency) + "/an",
			Investment:  formatMoney(rec.Investment, currency),
			Payback:     formatYears(rec.PaybackYears),
			CO2:         FormatNumber(rec.CO2ReductionKg, 0) + " kg",
		})
	}
	return out
}

func scaleBands(current classification.Class) []pdf.ScaleBand {
	classes := classification.Classes()
	bands := make([]pdf.ScaleBand, 0, len(classes))
	lower := 0.0
	for _, c := range classes {
		upper, bounded := c.UpperBound()
		var rng string
		switch {
		case !bounded:
			rng = "> " + FormatNumber(lower, 0)
		case lower == 0:
			rng = "≤ " + FormatNumber(upper, 0)
		default:
			rng = FormatNumber(lower, 0) + " à " + FormatNumber(upper, 0)
		}
		bands = append(bands, pdf.ScaleBand{
			Class:   string(c),
			Label:   c.Label(),
			Range:   rng,
			Color:   c.Color(),
			Current: c == current,
		})
		lower = upper
	}
	return bands
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
