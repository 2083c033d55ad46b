package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	LoginRequestsTotal     metric.Int64Counter
	RegisterRequestsTotal  metric.Int64Counter
	ThemeDownloadsTotal    metric.Int64Counter
	ThemePurchasesTotal    metric.Int64Counter
	CatalogCacheHitsTotal  metric.Int64Counter
	DbQueryDurationSeconds metric.Float64Histogram
	DbQueryErrorsTotal     metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments once, using the
// globally configured MeterProvider (see app/tracer).
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("themehub-api")
		var err error
		m := &AppMetrics{}

		m.LoginRequestsTotal, err = meter.Int64Counter(
			"login_requests_total",
			metric.WithDescription("Total number of login requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create login_requests_total: %v", err)
		}

		m.RegisterRequestsTotal, err = meter.Int64Counter(
			"register_requests_total",
			metric.WithDescription("Total number of register requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create register_requests_total: %v", err)
		}

		m.ThemeDownloadsTotal, err = meter.Int64Counter(
			"theme_downloads_total",
			metric.WithDescription("Total number of theme downloads recorded"),
			metric.WithUnit("{download}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create theme_downloads_total: %v", err)
		}

		m.ThemePurchasesTotal, err = meter.Int64Counter(
			"theme_purchases_total",
			metric.WithDescription("Total number of theme purchases recorded"),
			metric.WithUnit("{purchase}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create theme_purchases_total: %v", err)
		}

		m.CatalogCacheHitsTotal, err = meter.Int64Counter(
			"catalog_cache_hits_total",
			metric.WithDescription("Total number of catalog view cache hits"),
			metric.WithUnit("{hit}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create catalog_cache_hits_total: %v", err)
		}

		m.DbQueryDurationSeconds, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_duration_seconds: %v", err)
		}

		m.DbQueryErrorsTotal, err = meter.Int64Counter(
			"db_query_errors_total",
			metric.WithDescription("Total number of database query errors"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_errors_total: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance.
// Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}
