package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// CountryFactors holds the per-kWh tariff and emission factor of one country.
type CountryFactors struct {
	Tariff         float64 `mapstructure:"tariff" json:"tariff"`
	EmissionFactor float64 `mapstructure:"emission_factor" json:"emission_factor"`
}

// EnergyConfig is the country factor table used to price and weigh consumption.
type EnergyConfig struct {
	Currency  string                    `mapstructure:"currency" json:"currency"`
	Fallback  CountryFactors            `mapstructure:"fallback" json:"fallback"`
	Countries map[string]CountryFactors `mapstructure:"countries" json:"countries"`
}

// DefaultEnergyConfig returns the built-in West African table (FCFA per kWh, kg CO2 per kWh).
func DefaultEnergyConfig() EnergyConfig {
	return EnergyConfig{
		Currency: "FCFA",
		Fallback: CountryFactors{Tariff: 100, EmissionFactor: 0.5},
		Countries: map[string]CountryFactors{
			"BJ": {Tariff: 100, EmissionFactor: 0.55},
			"CI": {Tariff: 95, EmissionFactor: 0.50},
			"SN": {Tariff: 110, EmissionFactor: 0.60},
			"TG": {Tariff: 105, EmissionFactor: 0.55},
			"BF": {Tariff: 115, EmissionFactor: 0.65},
			"ML": {Tariff: 120, EmissionFactor: 0.70},
			"NE": {Tariff: 100, EmissionFactor: 0.75},
			"FR": {Tariff: 150, EmissionFactor: 0.06},
		},
	}
}

type EnergyConfigHolder struct {
	current atomic.Value // holds EnergyConfig
}

// NewEnergyConfigHolder loads energy.yml when present and watches it for changes.
func NewEnergyConfigHolder(log *zap.Logger) (*EnergyConfigHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("config.energy")

	v := viper.New()
	v.SetConfigName("energy")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/voltix/config")
	v.AddConfigPath("/etc/voltix")
	v.AddConfigPath(".")

	v.SetEnvPrefix("VOLTIX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &EnergyConfigHolder{}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		log.Info("energy config file not found, using built-in table")
		holder.current.Store(DefaultEnergyConfig())
		return holder, nil
	}

	cfg, err := decodeEnergyConfig(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeEnergyConfig(v)
		if err != nil {
			log.Warn("energy config reload ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("energy config reloaded", zap.String("file", e.Name), zap.Int("countries", len(updated.Countries)))
	})

	return holder, nil
}

// NewStaticEnergyConfigHolder returns a holder that never reloads.
func NewStaticEnergyConfigHolder(cfg EnergyConfig) *EnergyConfigHolder {
	holder := &EnergyConfigHolder{}
	holder.current.Store(normalizeEnergyConfig(cfg))
	return holder
}

// Get returns the current table. Callers must treat the result as read-only.
func (h *EnergyConfigHolder) Get() EnergyConfig {
	return h.current.Load().(EnergyConfig)
}

func decodeEnergyConfig(v *viper.Viper) (EnergyConfig, error) {
	cfg := DefaultEnergyConfig()
	if v.IsSet("energy") {
		var loaded EnergyConfig
		if err := v.UnmarshalKey("energy", &loaded); err != nil {
			return EnergyConfig{}, err
		}
		if loaded.Currency != "" {
			cfg.Currency = loaded.Currency
		}
		if loaded.Fallback != (CountryFactors{}) {
			cfg.Fallback = loaded.Fallback
		}
		if len(loaded.Countries) > 0 {
			cfg.Countries = loaded.Countries
		}
	}
	cfg = normalizeEnergyConfig(cfg)
	if err := validateEnergyConfig(cfg); err != nil {
		return EnergyConfig{}, err
	}
	return cfg, nil
}

// normalizeEnergyConfig upper-cases country codes; viper lower-cases map keys.
func normalizeEnergyConfig(cfg EnergyConfig) EnergyConfig {
	countries := make(map[string]CountryFactors, len(cfg.Countries))
	for code, factors := range cfg.Countries {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		countries[code] = factors
	}
	cfg.Countries = countries
	return cfg
}

func validateEnergyConfig(cfg EnergyConfig) error {
	if cfg.Fallback.Tariff < 0 || cfg.Fallback.EmissionFactor < 0 {
		return errors.New("energy.fallback must not be negative")
	}
	for code, factors := range cfg.Countries {
		if factors.Tariff < 0 || factors.EmissionFactor < 0 {
			return fmt.Errorf("energy.countries.%s must not be negative", code)
		}
	}
	return nil
}
