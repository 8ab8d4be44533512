// Package tariff converts consumption into money and CO2 using per-country
// factors.
package tariff

import (
	"context"
	"strings"

	"github.com/voltixaudit/voltix/internal/config"
	"github.com/voltixaudit/voltix/internal/observability/logger"
	obsmetrics "github.com/voltixaudit/voltix/internal/observability/metrics"
	"go.uber.org/zap"
)

// Table is an immutable snapshot of the country factors.
type Table struct {
	currency  string
	fallback  config.CountryFactors
	countries map[string]config.CountryFactors
}

func NewTable(cfg config.EnergyConfig) Table {
	countries := make(map[string]config.CountryFactors, len(cfg.Countries))
	for code, factors := range cfg.Countries {
		countries[normalize(code)] = factors
	}
	return Table{
		currency:  cfg.Currency,
		fallback:  cfg.Fallback,
		countries: countries,
	}
}

func (t Table) Currency() string { return t.currency }

// Lookup returns the factors for country, or the fallback with false.
func (t Table) Lookup(country string) (config.CountryFactors, bool) {
	if factors, ok := t.countries[normalize(country)]; ok {
		return factors, true
	}
	return t.fallback, false
}

type Translation struct {
	Country        string
	Tariff         float64
	EmissionFactor float64
	AnnualCost     float64
	AnnualCO2Kg    float64
	Fallback       bool
}

// Translate prices annualKWh. Unknown countries use the fallback factors; no
// rounding is applied.
func (t Table) Translate(annualKWh float64, country string) Translation {
	factors, ok := t.Lookup(country)
	return Translation{
		Country:        normalize(country),
		Tariff:         factors.Tariff,
		EmissionFactor: factors.EmissionFactor,
		AnnualCost:     annualKWh * factors.Tariff,
		AnnualCO2Kg:    annualKWh * factors.EmissionFactor,
		Fallback:       !ok,
	}
}

// Translator hands out table snapshots from the live configuration and
// reports fallback lookups.
type Translator struct {
	holder  *config.EnergyConfigHolder
	log     *zap.Logger
	metrics *obsmetrics.AuditMetrics
}

func NewTranslator(holder *config.EnergyConfigHolder, log *zap.Logger, metrics *obsmetrics.AuditMetrics) *Translator {
	return &Translator{
		holder:  holder,
		log:     log.Named("tariff"),
		metrics: metrics,
	}
}

func (t *Translator) Snapshot() Table {
	return NewTable(t.holder.Get())
}

func (t *Translator) Translate(ctx context.Context, table Table, annualKWh float64, country string) Translation {
	out := table.Translate(annualKWh, country)
	if out.Fallback {
		logger.WithContext(ctx, t.log).Warn("unknown country code, using fallback factors",
			zap.String("country", country),
			zap.Float64("tariff", out.Tariff),
			zap.Float64("emission_factor", out.EmissionFactor),
		)
		t.metrics.IncTariffFallback(out.Country)
	}
	return out
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
