package observability

import (
	"github.com/voltixaudit/voltix/internal/observability/logger"
	"github.com/voltixaudit/voltix/internal/observability/metrics"
	"github.com/voltixaudit/voltix/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		Config.logger,
		Config.tracing,
		Config.metrics,
		logger.New,
		tracing.NewProvider,
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
		metrics.AuditWithConfig,
	),
	// Forces the tracer provider to be built so otel's global is set.
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)
