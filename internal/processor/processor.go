// Package processor implements the Processor (spec.md §4.8, component J):
// the per-document state machine and batch driver that wires the Document
// Loader, Visual/Text Detectors, Hybrid Fusion, Redaction Engine and
// Forensic Audit Engine into one `process`/`process_batch` operation.
//
// Grounded on the worker-pool/bounded-concurrency idiom the pack uses for
// chunked background work (rmasci-piiredact's processChunks-style
// goroutine-per-unit-of-work with a semaphore), generalized here to
// document- and page-level concurrency via golang.org/x/sync/errgroup,
// since no example repo ships an errgroup-based document pipeline
// directly.
package processor

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/forensicpipe/deidentify/internal/config"
	"github.com/forensicpipe/deidentify/internal/detect"
	"github.com/forensicpipe/deidentify/internal/forensic"
	"github.com/forensicpipe/deidentify/internal/forensicerr"
	"github.com/forensicpipe/deidentify/internal/fusion"
	"github.com/forensicpipe/deidentify/internal/loader"
	"github.com/forensicpipe/deidentify/internal/model"
	"github.com/forensicpipe/deidentify/internal/obs"
	"github.com/forensicpipe/deidentify/internal/profile"
	"github.com/forensicpipe/deidentify/internal/redact"

	"github.com/rs/zerolog"
)

// fallbackPageWidth/fallbackPageHeight size the synthetic full-page
// redaction used when a page fails to decode at all (no geometry is
// recoverable from a page Open/Page could not parse). US-Letter at a fixed
// 150 DPI, independent of the loader's configurable PDF raster DPI.
const (
	fallbackPageWidthPx  = 1275
	fallbackPageHeightPx = 1650
)

// Processor owns the collaborators one document's processing run needs.
// None of these are package-level globals (spec.md §9): every caller
// constructs and injects its own.
type Processor struct {
	Profiles        profile.Store
	VisualDetectors []detect.VisualDetector
	TextDetectors   []detect.TextDetector
	Signer          *forensic.Signer
	Config          config.RuntimeConfig
	Logger          zerolog.Logger
	Metrics         *Metrics
}

// New builds a Processor from its collaborators.
func New(profiles profile.Store, visual []detect.VisualDetector, text []detect.TextDetector, signer *forensic.Signer, cfg config.RuntimeConfig, logger zerolog.Logger, metrics *Metrics) *Processor {
	return &Processor{
		Profiles:        profiles,
		VisualDetectors: visual,
		TextDetectors:   text,
		Signer:          signer,
		Config:          cfg,
		Logger:          logger,
		Metrics:         metrics,
	}
}

// Outcome bundles everything one document run produces: the caller-facing
// summary, the signed audit record, and the bytes the fingerprints in both
// were computed over (for immediate local validation or persistence by the
// caller; see pagemux.go for what "output bytes" means here).
type Outcome struct {
	Result      model.ProcessingResult
	AuditRecord forensic.AuditRecord
	OutputBytes []byte
}

// ProcessDocument runs one document through Loading -> Detecting ->
// Redacting -> Finalizing -> Audited -> Done (spec.md §4.8 steps 1-5),
// degrading individual pages rather than failing the whole run unless
// p.Config.StrictMode is set (spec.md §7 propagation policy).
func (p *Processor) ProcessDocument(ctx context.Context, input []byte, profileName string) (Outcome, error) {
	started := time.Now()
	state := StatePending
	logger := p.Logger

	eff, err := p.Profiles.Resolve(profileName)
	if err != nil {
		return Outcome{}, forensicerr.New(forensicerr.KindProfile, "resolve profile", err)
	}

	inputFingerprint := forensic.HashBytes(input)

	state = StateLoading
	handle, err := loader.Open(input, p.Config.RasterDPI)
	if err != nil {
		p.recordOutcome("failed", started)
		return Outcome{}, forensicerr.New(forensicerr.KindInput, "open document", err)
	}

	result := model.ProcessingResult{
		InputFingerprint: hex.EncodeToString(inputFingerprint[:]),
		ProfileRef:       profileName,
		StartedAt:        started,
		Success:          true,
	}

	if err := checkCancelled(ctx); err != nil {
		return p.fail(result, StateCancelledByCaller, started, err)
	}

	pageCount := handle.PageCount()
	pages := make([]pagePlan, pageCount)

	if p.Config.PageParallel {
		if err := p.runPagesParallel(ctx, handle, eff, logger, pages); err != nil {
			if ctx.Err() != nil {
				return p.fail(result, StateCancelledByCaller, started, checkCancelled(ctx))
			}
			return p.fail(result, state, started, err)
		}
	} else {
		for i := 0; i < pageCount; i++ {
			if err := checkCancelled(ctx); err != nil {
				return p.fail(result, StateCancelledByCaller, started, err)
			}
			plan, perr := p.processPage(ctx, i, handle, eff, logger)
			if perr != nil {
				return p.fail(result, state, started, perr)
			}
			pages[i] = plan
		}
	}

	state = StateRedacting

	var allDetections []model.Detection
	var degraded []forensic.DegradedRedaction
	var encodedPages [][]byte
	var perPageFingerprints [][32]byte
	var modelTags []string
	seenTag := map[string]bool{}
	redactionsApplied := 0

	for i, plan := range pages {
		allDetections = append(allDetections, plan.detections...)
		encodedPages = append(encodedPages, plan.encoded)
		fp := forensic.HashBytes(plan.encoded)
		perPageFingerprints = append(perPageFingerprints, fp)
		redactionsApplied += len(plan.report.AppliedBoxes)
		for _, box := range plan.report.AppliedBoxes {
			if box.Degraded {
				degraded = append(degraded, forensic.DegradedRedaction{
					PageIndex:   i,
					DetectionID: box.DetectionID,
					Kind:        box.Kind,
					Reason:      box.Reason,
				})
			}
		}
		if plan.pageDegraded {
			degraded = append(degraded, forensic.DegradedRedaction{
				PageIndex: i,
				Kind:      "page",
				Reason:    plan.pageDegradedReason,
			})
			p.Metrics.recordDegradedPage(plan.pageDegradedReason)
		}
		for _, tag := range plan.modelTags {
			if !seenTag[tag] {
				seenTag[tag] = true
				modelTags = append(modelTags, tag)
			}
		}
		p.Metrics.recordPage("processed")
	}
	for _, d := range allDetections {
		p.Metrics.recordDetection(string(d.Kind))
	}

	state = StateFinalizing
	outputBytes := muxDocumentBytes(encodedPages)
	outputFingerprint := forensic.HashBytes(outputBytes)

	state = StateAudited
	auditRecord, err := forensic.Build(forensic.BuildInput{
		InputFingerprint:          inputFingerprint,
		OutputFingerprint:         outputFingerprint,
		PerPageOutputFingerprints: perPageFingerprints,
		Profile:                   eff,
		Detections:                allDetections,
		DegradedRedactions:        degraded,
		StartedAt:                 started,
		FinishedAt:                time.Now(),
		ModelTags:                 modelTags,
	}, p.Signer)
	if err != nil {
		return p.fail(result, state, started, forensicerr.New(forensicerr.KindCrypto, "build audit record", err))
	}

	state = StateDone

	result.DocumentID = auditRecord.DocumentID
	result.OutputFingerprint = hex.EncodeToString(outputFingerprint[:])
	result.Detections = allDetections
	result.PagesProcessed = pageCount
	result.RedactionsApplied = redactionsApplied
	result.FinishedAt = auditRecord.Timestamps.FinishedAt
	result.Success = true

	p.recordOutcome("success", started)
	obs.ForDocument(logger, result.DocumentID).Info().Str("state", string(state)).
		Int("pages", pageCount).Int("detections", len(allDetections)).Msg("document processed")

	return Outcome{Result: result, AuditRecord: auditRecord, OutputBytes: outputBytes}, nil
}

func (p *Processor) fail(result model.ProcessingResult, state State, started time.Time, err error) (Outcome, error) {
	result.Success = false
	result.FinishedAt = time.Now()
	kind := "unknown"
	if fe, ok := err.(*forensicerr.Error); ok {
		kind = string(fe.Kind)
	}
	outcome := "failed"
	if state == StateCancelledByCaller {
		kind = "cancelled_by_caller"
		outcome = "cancelled_by_caller"
	}
	result.Errors = append(result.Errors, model.ProcessingError{Kind: kind, Message: err.Error()})
	p.recordOutcome(outcome, started)
	p.Logger.Error().Err(err).Str("state", string(state)).Msg("document processing failed")
	return Outcome{Result: result}, err
}

// checkCancelled reports ctx's cancellation as a forensicerr.KindResource
// error (spec.md §5 "cooperative cancellation only at defined suspension
// points"; spec.md §7 ResourceErrors). Called between page iterations and
// before a document starts, never inside Fusion/Redaction.
func checkCancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return forensicerr.New(forensicerr.KindResource, "cancelled by caller", ctx.Err())
	default:
		return nil
	}
}

func (p *Processor) recordOutcome(outcome string, started time.Time) {
	if p.Metrics == nil {
		return
	}
	p.Metrics.recordDocument(outcome, time.Since(started))
}

// pagePlan is one page's fully-processed working set, assembled either
// sequentially or by runPagesParallel; downstream aggregation in
// ProcessDocument does not care which.
type pagePlan struct {
	detections         []model.Detection
	report             redact.Report
	encoded            []byte
	modelTags          []string
	pageDegraded       bool
	pageDegradedReason string
}

// processPage runs one page through Loading -> Detecting -> Redacting. A
// page-level deadline bounds the whole span (spec.md §5 "per-page
// deadline"); exceeding it, or failing to decode the page at all, degrades
// the page to a full-page Solid/black redaction unless p.Config.StrictMode,
// in which case the document fails.
func (p *Processor) processPage(ctx context.Context, index int, handle *loader.DocumentHandle, eff profile.EffectiveProfile, logger zerolog.Logger) (pagePlan, error) {
	pageCtx, cancel := context.WithTimeout(ctx, p.Config.PerPageDeadline)
	defer cancel()

	page, err := handle.Page(index)
	if err != nil {
		if p.Config.StrictMode {
			return pagePlan{}, forensicerr.OnPage(forensicerr.KindInput, index, "decode page", err)
		}
		return p.degradedPagePlan(index, fmt.Sprintf("decode failed: %v", err)), nil
	}

	select {
	case <-pageCtx.Done():
		if p.Config.StrictMode {
			return pagePlan{}, forensicerr.OnPage(forensicerr.KindResource, index, "deadline exceeded before detection", pageCtx.Err())
		}
		return p.degradedPagePlan(index, "per-page deadline exceeded"), nil
	default:
	}

	detections, modelTags := p.runDetectors(pageCtx, page, logger)

	if pageCtx.Err() == context.DeadlineExceeded {
		page.Zero()
		if p.Config.StrictMode {
			return pagePlan{}, forensicerr.OnPage(forensicerr.KindResource, index, "deadline exceeded during detection", pageCtx.Err())
		}
		return p.degradedPagePlan(index, "per-page deadline exceeded"), nil
	}

	fused := fusion.Fuse(detections, eff)
	redactedPage, report := redact.Apply(page, fused, eff)
	page.Zero()

	encoded, err := encodePageRaster(redactedPage)
	if err != nil {
		if p.Config.StrictMode {
			return pagePlan{}, forensicerr.OnPage(forensicerr.KindRedaction, index, "encode redacted page", err)
		}
		return p.degradedPagePlan(index, fmt.Sprintf("encode failed: %v", err)), nil
	}

	return pagePlan{detections: fused, report: report, encoded: encoded, modelTags: modelTags}, nil
}

// degradedPagePlan builds the spec.md §7 "page emitted with a full-page
// Solid redaction" fallback when a page's geometry is unknown (decode
// failed entirely, so no real raster dimensions are recoverable).
func (p *Processor) degradedPagePlan(index int, reason string) pagePlan {
	page := model.PageView{PageIndex: index, WidthPx: fallbackPageWidthPx, HeightPx: fallbackPageHeightPx}
	img := newBlankRaster(page.WidthPx, page.HeightPx)
	page.Raster = img
	fullPage := geometryFullPage(page.WidthPx, page.HeightPx)
	degradedDetection := model.Detection{
		ID:         fmt.Sprintf("degraded-page-%d", index),
		PageIndex:  index,
		BBox:       fullPage,
		Confidence: 1,
		Source:     model.SourceVisual,
		ModelTag:   "degraded-page-fallback",
	}
	redactedPage, report := redact.Apply(page, []model.Detection{degradedDetection}, profile.EffectiveProfile{})
	encoded, _ := encodePageRaster(redactedPage)
	return pagePlan{
		report:             report,
		encoded:            encoded,
		pageDegraded:       true,
		pageDegradedReason: reason,
	}
}

// runDetectors fans Visual and Text detectors out concurrently (spec.md
// §5 "detector calls" suspension point); an individual detector error is
// logged and its contribution dropped rather than failing the page
// (spec.md §7 "detector unavailable... rejected and logged").
func (p *Processor) runDetectors(ctx context.Context, page model.PageView, logger zerolog.Logger) ([]model.Detection, []string) {
	type partial struct {
		detections []model.Detection
		modelTag   string
	}
	results := make([]partial, 0, len(p.VisualDetectors)+len(p.TextDetectors))

	g, gctx := errgroup.WithContext(ctx)
	ch := make(chan partial, len(p.VisualDetectors)+len(p.TextDetectors))

	for _, det := range p.VisualDetectors {
		det := det
		g.Go(func() error {
			dets, err := det.DetectVisual(gctx, page)
			if err != nil {
				logger.Warn().Err(err).Str("detector", det.ModelTag()).Int("page", page.PageIndex).Msg("visual detector failed")
				return nil
			}
			ch <- partial{detections: validDetections(dets, page), modelTag: det.ModelTag()}
			return nil
		})
	}
	for _, det := range p.TextDetectors {
		det := det
		g.Go(func() error {
			dets, err := det.DetectText(gctx, page)
			if err != nil {
				logger.Warn().Err(err).Str("detector", det.ModelTag()).Int("page", page.PageIndex).Msg("text detector failed")
				return nil
			}
			ch <- partial{detections: validDetections(dets, page), modelTag: det.ModelTag()}
			return nil
		})
	}

	g.Wait()
	close(ch)
	for r := range ch {
		results = append(results, r)
	}

	var all []model.Detection
	var tags []string
	for _, r := range results {
		all = append(all, r.detections...)
		if r.modelTag != "" {
			tags = append(tags, r.modelTag)
		}
	}
	return all, tags
}

// validDetections drops detections whose bbox is not inside the page
// (spec.md §7 "detector returned invalid bbox (rejected and logged)").
func validDetections(dets []model.Detection, page model.PageView) []model.Detection {
	out := make([]model.Detection, 0, len(dets))
	for _, d := range dets {
		if d.BBox.ValidOnPage(page.WidthPx, page.HeightPx) {
			out = append(out, d)
		}
	}
	return out
}

// runPagesParallel processes pages concurrently, bounded by
// p.Config.MaxInFlightPages, writing each result into its own index of
// pages so output ordering is preserved regardless of completion order
// (spec.md §5 "page-parallel mode preserving output order").
func (p *Processor) runPagesParallel(ctx context.Context, handle *loader.DocumentHandle, eff profile.EffectiveProfile, logger zerolog.Logger, pages []pagePlan) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Config.MaxInFlightPages)

	for i := range pages {
		i := i
		g.Go(func() error {
			plan, err := p.processPage(gctx, i, handle, eff, logger)
			if err != nil {
				return err
			}
			pages[i] = plan
			return nil
		})
	}
	return g.Wait()
}

