package domain

import (
	"context"
	"sort"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// List returns the current set ordered by priority, then saving.
	List(ctx context.Context, projectID snowflake.ID) ([]Recommendation, error)
	Summary(ctx context.Context, projectID snowflake.ID) (Summary, error)
}

// SortForPresentation orders recs by priority (high first), then by annual
// saving descending, keeping generation order for ties.
func SortForPresentation(recs []Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		if ri, rj := recs[i].Priority.Rank(), recs[j].Priority.Rank(); ri != rj {
			return ri < rj
		}
		return recs[i].AnnualSaving > recs[j].AnnualSaving
	})
}

// Summarize totals recs. Payback is zero when nothing is saved.
func Summarize(recs []Recommendation) Summary {
	var s Summary
	for _, rec := range recs {
		s.TotalInvestment += rec.Investment
		s.TotalAnnualSaving += rec.AnnualSaving
		s.TotalCO2Reduction += rec.CO2ReductionKg
	}
	if s.TotalAnnualSaving > 0 {
		s.PaybackYears = s.TotalInvestment / s.TotalAnnualSaving
	}
	return s
}
