package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDegradedPagePlanAppliesFullPageSolidRedaction covers spec.md §7/S4: a
// page that cannot be decoded at all is still emitted as a full-page Solid
// redaction, with a degraded_page audit entry in the making.
func TestDegradedPagePlanAppliesFullPageSolidRedaction(t *testing.T) {
	p := &Processor{}
	plan := p.degradedPagePlan(2, "decode failed: truncated stream")

	assert.True(t, plan.pageDegraded)
	assert.Equal(t, "decode failed: truncated stream", plan.pageDegradedReason)
	require.NotEmpty(t, plan.encoded)

	require.Len(t, plan.report.AppliedBoxes, 1)
	box := plan.report.AppliedBoxes[0]
	assert.True(t, box.Degraded)
}
