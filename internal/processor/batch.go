package processor

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// BatchItem pairs one input document with the profile it should be
// processed under, so a batch can mix profiles across documents.
type BatchItem struct {
	Input      []byte
	ProfileRef string
}

// BatchOptions controls process_batch's cross-document semantics (spec.md
// §4.8 "process_batch(inputs[], profile_ref, options)").
type BatchOptions struct {
	// FailFast stops submitting new documents once an earlier one in the
	// batch fails; documents already in flight still run to completion.
	// Items not yet started are reported with ErrSkippedFailFast. The
	// zero value (false) runs every item to completion regardless of
	// earlier failures.
	FailFast bool
}

// ErrSkippedFailFast marks a BatchItem that never started because an
// earlier item failed under BatchOptions.FailFast.
var ErrSkippedFailFast = &skippedFailFastError{}

type skippedFailFastError struct{}

func (*skippedFailFastError) Error() string { return "skipped: an earlier document failed under fail_fast" }

// BatchOutcome is one BatchItem's result, indexed back to its position in
// the submitted slice so a caller can correlate failures.
type BatchOutcome struct {
	Index   int
	Outcome Outcome
	Err     error
}

// ProcessBatch runs items through ProcessDocument, bounded by
// p.Config.MaxInFlightDocuments concurrent documents (spec.md §5
// "bounded_concurrency(max_in_flight)"). Each document's audit record is
// independent (spec.md §5 ordering guarantees); one document failing never
// cancels its in-flight siblings, and with opts.FailFast set it only keeps
// not-yet-started documents from running. Results are returned in
// submission order regardless of completion order.
func (p *Processor) ProcessBatch(ctx context.Context, items []BatchItem, opts BatchOptions) []BatchOutcome {
	results := make([]BatchOutcome, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Config.MaxInFlightDocuments)

	var failed atomic.Bool

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			if err := checkCancelled(ctx); err != nil {
				results[i] = BatchOutcome{Index: i, Err: err}
				return nil
			}
			if opts.FailFast && failed.Load() {
				results[i] = BatchOutcome{Index: i, Err: ErrSkippedFailFast}
				return nil
			}
			outcome, err := p.ProcessDocument(gctx, item.Input, item.ProfileRef)
			if err != nil && opts.FailFast {
				failed.Store(true)
			}
			results[i] = BatchOutcome{Index: i, Outcome: outcome, Err: err}
			return nil
		})
	}
	g.Wait()

	return results
}
