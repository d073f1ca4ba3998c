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

// Metrics exposes application-level instruments.
type Metrics struct {
	refreshRuns      metric.Int64Counter
	upstreamFetches  metric.Int64Counter
	countriesUpsert  metric.Int64Counter
	summaryRenders   metric.Int64Counter
	refreshDurations metric.Float64Histogram
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

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
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

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "atlasfx"
	}
	meter := provider.Meter(name)

	refreshRuns, err := meter.Int64Counter("atlasfx_refresh_runs_total")
	if err != nil {
		return nil, err
	}
	upstreamFetches, err := meter.Int64Counter("atlasfx_upstream_fetches_total")
	if err != nil {
		return nil, err
	}
	countriesUpsert, err := meter.Int64Counter("atlasfx_countries_upserted_total")
	if err != nil {
		return nil, err
	}
	summaryRenders, err := meter.Int64Counter("atlasfx_summary_renders_total")
	if err != nil {
		return nil, err
	}
	refreshDurations, err := meter.Float64Histogram("atlasfx_refresh_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		refreshRuns:      refreshRuns,
		upstreamFetches:  upstreamFetches,
		countriesUpsert:  countriesUpsert,
		summaryRenders:   summaryRenders,
		refreshDurations: refreshDurations,
	}, nil
}

// RecordRefreshRun increments refresh counts by outcome.
func (m *Metrics) RecordRefreshRun(ctx context.Context, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("result", strings.TrimSpace(result)))
	m.refreshRuns.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.refreshDurations.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
}

// RecordUpstreamFetch increments per-source fetch counts.
func (m *Metrics) RecordUpstreamFetch(ctx context.Context, source, result string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("source", strings.TrimSpace(source)),
		attribute.String("result", strings.TrimSpace(result)),
	)
	m.upstreamFetches.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCountriesUpserted adds the size of an applied refresh batch.
func (m *Metrics) RecordCountriesUpserted(ctx context.Context, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.countriesUpsert.Add(ctx, int64(count))
}

// RecordSummaryRender increments summary image render counts by outcome.
func (m *Metrics) RecordSummaryRender(ctx context.Context, result string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("result", strings.TrimSpace(result)))
	m.summaryRenders.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
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
	"result": {},
	"source": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
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
