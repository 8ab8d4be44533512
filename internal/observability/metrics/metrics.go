package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes product-level OTLP instruments.
type Metrics struct {
	inventoryMutations metric.Int64Counter
	reportsRendered    metric.Int64Counter
	reportsEmailed     metric.Int64Counter
	signups            metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(15*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New builds the product instruments on the given provider.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "voltix"
	}
	meter := provider.Meter(name)

	inventoryMutations, err := meter.Int64Counter("voltix_inventory_mutations_total")
	if err != nil {
		return nil, err
	}
	reportsRendered, err := meter.Int64Counter("voltix_reports_rendered_total")
	if err != nil {
		return nil, err
	}
	reportsEmailed, err := meter.Int64Counter("voltix_reports_emailed_total")
	if err != nil {
		return nil, err
	}
	signups, err := meter.Int64Counter("voltix_signups_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		inventoryMutations: inventoryMutations,
		reportsRendered:    reportsRendered,
		reportsEmailed:     reportsEmailed,
		signups:            signups,
	}, nil
}

// RecordInventoryMutation counts adds and removals per inventory entity.
func (m *Metrics) RecordInventoryMutation(ctx context.Context, entity, action string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("entity", strings.TrimSpace(entity)),
		attribute.String("action", strings.TrimSpace(action)),
	)
	m.inventoryMutations.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordReportRendered(ctx context.Context, plan string) {
	if m == nil {
		return
	}
	m.reportsRendered.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("plan", plan))...))
}

func (m *Metrics) RecordReportEmailed(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.reportsEmailed.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("status", status))...))
}

func (m *Metrics) RecordSignup(ctx context.Context, plan string) {
	if m == nil {
		return
	}
	m.signups.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("plan", plan))...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"entity":      {},
	"action":      {},
	"plan":        {},
	"status":      {},
	"route":       {},
	"method":      {},
	"status_code": {},
}

// FilterAttributes strips labels that would blow up series cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
