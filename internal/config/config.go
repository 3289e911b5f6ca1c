// Package config loads the Processor's runtime configuration from the
// environment. Grounded on iruldev-golang-api-hexagonal's
// internal/infra/config (envconfig.Process + an explicit Validate pass);
// unrecognized or out-of-range values fail fast at load time rather than
// surfacing as a confusing runtime error deep inside a batch run.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// RuntimeConfig holds every knob the Processor's concurrency and
// cancellation model (spec.md §5) exposes as an explicit, enumerated
// option (spec.md §9 "dynamic configuration... replace with an explicit
// configuration record").
type RuntimeConfig struct {
	// MaxInFlightDocuments bounds the batch driver's document-level
	// concurrency (spec.md §5 "bounded_concurrency(max_in_flight)").
	MaxInFlightDocuments int `envconfig:"MAX_IN_FLIGHT_DOCUMENTS" default:"4"`

	// MaxInFlightPages bounds page-parallel fan-out within one document
	// when PageParallel is enabled.
	MaxInFlightPages int `envconfig:"MAX_IN_FLIGHT_PAGES" default:"4"`

	// PageParallel opts into processing a document's pages concurrently
	// instead of sequentially; output order is preserved either way.
	PageParallel bool `envconfig:"PAGE_PARALLEL" default:"false"`

	// PerPageDeadline bounds one page's Loading+Detecting span (checked
	// before and after the detectors run); exceeding it degrades the page
	// (or fails the document under StrictMode) rather than hanging the batch.
	PerPageDeadline time.Duration `envconfig:"PER_PAGE_DEADLINE" default:"30s"`

	// StrictMode turns page-level degradation (corrupt page, rendering
	// failure, deadline exceeded) into a document-level failure instead
	// of a `degraded_page` audit entry (spec.md §7 propagation policy).
	StrictMode bool `envconfig:"STRICT_MODE" default:"false"`

	// LogLevel is one of debug/info/warn/error.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// TesseractBinaryPath overrides the OCR binary the reference
	// TextDetector's OCR fallback shells out to.
	TesseractBinaryPath string `envconfig:"TESSERACT_BINARY_PATH" default:"tesseract"`

	// MetricsEnabled controls whether the Processor registers its
	// Prometheus collectors.
	MetricsEnabled bool `envconfig:"METRICS_ENABLED" default:"true"`

	// RasterDPI is the target resolution the Document Loader rasterizes
	// PDF page-point geometry at (spec.md §4.1 "configured target DPI").
	// It has no effect on raster-container inputs (PNG/JPEG/TIFF/BMP),
	// which carry or assume their own resolution.
	RasterDPI int `envconfig:"RASTER_DPI" default:"200"`
}

// Load reads RuntimeConfig from the environment (no prefix: variables are
// read bare, e.g. MAX_IN_FLIGHT_DOCUMENTS) and validates it.
func Load() (RuntimeConfig, error) {
	var cfg RuntimeConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return RuntimeConfig{}, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return RuntimeConfig{}, fmt.Errorf("config.Load: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations the Processor cannot safely run with.
func (c *RuntimeConfig) Validate() error {
	if c.MaxInFlightDocuments < 1 {
		return fmt.Errorf("invalid MAX_IN_FLIGHT_DOCUMENTS: must be greater than 0")
	}
	if c.MaxInFlightPages < 1 {
		return fmt.Errorf("invalid MAX_IN_FLIGHT_PAGES: must be greater than 0")
	}
	if c.PerPageDeadline <= 0 {
		return fmt.Errorf("invalid PER_PAGE_DEADLINE: must be greater than 0")
	}

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL: must be one of debug, info, warn, error")
	}

	if strings.TrimSpace(c.TesseractBinaryPath) == "" {
		return fmt.Errorf("invalid TESSERACT_BINARY_PATH: must not be empty")
	}

	if c.RasterDPI <= 0 {
		return fmt.Errorf("invalid RASTER_DPI: must be greater than 0")
	}

	return nil
}
