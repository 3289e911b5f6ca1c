// Package deidentify is the public entry point to the forensic-grade
// document deidentification pipeline: detect PII via fused visual and
// textual evidence, apply visually-consistent redactions, and emit a
// signed, independently-verifiable audit record.
//
// # Quick Start
//
// Build a Pipeline once (it owns a profile store, detectors and a
// signing key) and call Process per document:
//
//	pipeline, err := deidentify.New(deidentify.Config{
//	    ProfileDocuments: [][]byte{defaultProfileYAML},
//	    VisualDetectors:  []detect.VisualDetector{myFaceDetector},
//	    TextDetectors:    []detect.TextDetector{detect.ReferenceTextDetector{}},
//	    SigningKeyPEM:    pkcs8PEMBytes,
//	})
//	result, record, outputBytes, err := pipeline.Process(ctx, documentBytes, "default")
//
// # Exposed operations
//
//   - [Pipeline.Process] — process(input_bytes, profile_ref) -> ProcessingResult
//   - [Pipeline.ProcessBatch] — process_batch(inputs[], profile_ref, options) -> results
//   - [Validate] — validate(output_bytes, audit_record_bytes, public_key) -> ValidationReport
//
// Grounded on the teacher's pkg/gopdflib: a thin public package of type
// aliases and pass-through functions over an internal implementation,
// never reimplementing logic at this layer.
package deidentify

import (
	"bytes"
	"context"
	"fmt"

	"github.com/forensicpipe/deidentify/internal/config"
	"github.com/forensicpipe/deidentify/internal/detect"
	"github.com/forensicpipe/deidentify/internal/forensic"
	"github.com/forensicpipe/deidentify/internal/model"
	"github.com/forensicpipe/deidentify/internal/obs"
	"github.com/forensicpipe/deidentify/internal/processor"
	"github.com/forensicpipe/deidentify/internal/profile"

	"github.com/rs/zerolog"
)

// Public type aliases, so callers never need to import internal packages
// directly to hold a ProcessingResult, Detection, or AuditRecord value.
type (
	ProcessingResult = model.ProcessingResult
	Detection        = model.Detection
	AuditRecord      = forensic.AuditRecord
	ValidationReport = forensic.ValidationReport
	RuntimeConfig    = config.RuntimeConfig
)

// Config assembles everything a Pipeline needs at construction time.
type Config struct {
	// ProfileDocuments is one or more YAML redaction-profile documents
	// (spec.md §6); later documents may set `base` to inherit from an
	// earlier one.
	ProfileDocuments [][]byte

	VisualDetectors []detect.VisualDetector
	TextDetectors   []detect.TextDetector

	// SigningKeyPEM is a PKCS8-encoded RSA or ECDSA P-256 private key, PEM
	// wrapped. Required: the core never proceeds without a valid signer
	// (spec.md §7 "CryptoErrors always surfaced").
	SigningKeyPEM []byte

	// Runtime is the Processor's concurrency/cancellation configuration.
	// The zero value is not valid; use config.Load() or construct one
	// explicitly.
	Runtime RuntimeConfig

	// Logger receives structured processing logs. Defaults to
	// obs.NewDefault() (stderr, info level) if unset.
	Logger *zerolog.Logger

	// Metrics receives Prometheus instrumentation. Defaults to a fresh,
	// unregistered processor.Metrics if unset.
	Metrics *processor.Metrics
}

// Pipeline is a constructed, ready-to-use deidentification core.
type Pipeline struct {
	proc *processor.Processor
}

// New validates cfg and constructs a Pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Runtime.LogLevel == "" {
		cfg.Runtime.LogLevel = "info"
	}
	if cfg.Runtime.RasterDPI == 0 {
		cfg.Runtime.RasterDPI = 200
	}
	if err := cfg.Runtime.Validate(); err != nil {
		return nil, fmt.Errorf("deidentify.New: %w", err)
	}

	store, err := profile.LoadStore(cfg.ProfileDocuments)
	if err != nil {
		return nil, fmt.Errorf("deidentify.New: load profiles: %w", err)
	}
	signer, err := forensic.NewSignerFromPEM(cfg.SigningKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("deidentify.New: load signing key: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		l := obs.NewDefault()
		logger = &l
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = processor.NewMetrics()
	}

	proc := processor.New(store, cfg.VisualDetectors, cfg.TextDetectors, signer, cfg.Runtime, *logger, metrics)
	return &Pipeline{proc: proc}, nil
}

// Process runs one document end to end (spec.md §4.8 "process" operation).
func (p *Pipeline) Process(ctx context.Context, input []byte, profileRef string) (ProcessingResult, AuditRecord, []byte, error) {
	outcome, err := p.proc.ProcessDocument(ctx, input, profileRef)
	return outcome.Result, outcome.AuditRecord, outcome.OutputBytes, err
}

// BatchItem pairs one document's bytes with the profile to process it
// under.
type BatchItem = processor.BatchItem

// BatchOptions is process_batch's options argument (spec.md §4.8
// "process_batch(inputs[], profile_ref, options)"), currently just
// fail_fast.
type BatchOptions = processor.BatchOptions

// ErrSkippedFailFast marks a BatchItem that never ran because an earlier
// item failed under BatchOptions.FailFast.
var ErrSkippedFailFast = processor.ErrSkippedFailFast

// BatchResult is one BatchItem's outcome, indexed to its submission
// position.
type BatchResult struct {
	Index       int
	Result      ProcessingResult
	AuditRecord AuditRecord
	OutputBytes []byte
	Err         error
}

// ProcessBatch runs items concurrently, bounded by the Pipeline's
// configured MaxInFlightDocuments (spec.md §4.8 "process_batch"
// operation).
func (p *Pipeline) ProcessBatch(ctx context.Context, items []BatchItem, opts BatchOptions) []BatchResult {
	raw := p.proc.ProcessBatch(ctx, items, opts)
	out := make([]BatchResult, len(raw))
	for i, r := range raw {
		out[i] = BatchResult{
			Index:       r.Index,
			Result:      r.Outcome.Result,
			AuditRecord: r.Outcome.AuditRecord,
			OutputBytes: r.Outcome.OutputBytes,
			Err:         r.Err,
		}
	}
	return out
}

// VerifierFromPublicKeyPEM builds a Verifier from an SPKI-DER PEM public
// key, for a caller that only has the counterparty's public key (not a
// Pipeline with the matching private key).
func VerifierFromPublicKeyPEM(pemBytes []byte, algorithm forensic.SignatureAlgorithm) (*forensic.Verifier, error) {
	return forensic.NewVerifierFromPublicKeyPEM(pemBytes, algorithm)
}

// LoadAuditRecord parses the on-disk envelope format (spec.md §6) back
// into an AuditRecord.
func LoadAuditRecord(envelopeBytes []byte) (AuditRecord, error) {
	return forensic.LoadRecord(bytes.NewReader(envelopeBytes))
}

// Validate checks an AuditRecord's signature and (optionally) its
// output/per-page fingerprints against the actual bytes produced
// (spec.md §4.8 "validate" operation).
func Validate(record AuditRecord, verifier *forensic.Verifier, outputBytes []byte, perPageRasterBytes [][]byte) ValidationReport {
	return forensic.Validate(record, verifier, outputBytes, perPageRasterBytes)
}
