// Package fusion implements the Hybrid Fusion algorithm (spec.md §4.5,
// component F): reconciling visual and textual Detections for a page into
// a single, profile-filtered, non-redundant set. There is no teacher or
// pack analogue for this algorithm — it is designed directly from the
// spec's deterministic grouping/merge rules, using only stdlib sort for
// the output ordering.
package fusion

import (
	"math"
	"sort"

	"github.com/forensicpipe/deidentify/internal/geometry"
	"github.com/forensicpipe/deidentify/internal/model"
	"github.com/forensicpipe/deidentify/internal/profile"
)

// ioUGroupThreshold and containmentGroupThreshold are the equivalence
// thresholds spec.md §4.5 step 3 fixes for visual-visual and cross-modal
// grouping respectively.
const (
	ioUGroupThreshold         = 0.5
	containmentGroupThreshold = 0.7
)

// Fuse runs the full algorithm for one page's detections against eff,
// returning the final, deterministically-ordered Detection set.
func Fuse(detections []model.Detection, eff profile.EffectiveProfile) []model.Detection {
	kept := filter(detections, eff)
	groups := group(kept)

	out := make([]model.Detection, 0, len(groups))
	for _, g := range groups {
		out = append(out, merge(g))
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.PageIndex != b.PageIndex {
			return a.PageIndex < b.PageIndex
		}
		if a.BBox.Y != b.BBox.Y {
			return a.BBox.Y < b.BBox.Y
		}
		if a.BBox.X != b.BBox.X {
			return a.BBox.X < b.BBox.X
		}
		return a.Kind < b.Kind
	})
	return out
}

// filter drops detections whose kind is disabled, or below the profile's
// confidence floor for that kind (spec.md §4.5 step 2).
func filter(detections []model.Detection, eff profile.EffectiveProfile) []model.Detection {
	kept := make([]model.Detection, 0, len(detections))
	for _, d := range detections {
		rule := eff.EffectiveRule(d.Kind)
		if !rule.Enabled || d.Confidence < rule.MinConfidence {
			continue
		}
		kept = append(kept, d)
	}
	return kept
}

// group partitions detections into equivalence classes by the kind-match +
// IoU / cross-modal-containment rule in spec.md §4.5 step 3. It uses a
// simple union-find over pairwise comparisons, which is quadratic in the
// per-page detection count — acceptable since a page rarely carries more
// than a few dozen candidate detections.
func group(detections []model.Detection) [][]model.Detection {
	n := len(detections)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(i, j int) {
		ri, rj := find(i), find(j)
		if ri != rj {
			parent[ri] = rj
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if equivalent(detections[i], detections[j]) {
				union(i, j)
			}
		}
	}

	groups := make(map[int][]model.Detection)
	for i, d := range detections {
		root := find(i)
		groups[root] = append(groups[root], d)
	}

	out := make([][]model.Detection, 0, len(groups))
	for _, g := range groups {
		out = append(out, g)
	}
	return out
}

func equivalent(a, b model.Detection) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Source != model.SourceTextual && b.Source != model.SourceTextual {
		return geometry.IoU(a.BBox, b.BBox) >= ioUGroupThreshold
	}
	// cross-modal: the textual member's bbox must be contained within the
	// visual member's bbox by >= 70% area.
	textual, visual := a, b
	if b.Source == model.SourceTextual {
		textual, visual = b, a
	}
	if textual.Source != model.SourceTextual || visual.Source == model.SourceTextual {
		// both textual, or both visual-with-one-flagged-oddly: fall back to IoU
		return geometry.IoU(a.BBox, b.BBox) >= ioUGroupThreshold
	}
	return geometry.ContainmentRatio(textual.BBox, visual.BBox) >= containmentGroupThreshold
}

// merge collapses one equivalence group into its representative Detection
// (spec.md §4.5 step 4).
func merge(group []model.Detection) model.Detection {
	if len(group) == 1 {
		return group[0]
	}

	rep := group[0]
	union := rep.BBox
	noisyOrComplement := 1.0
	maxMinConf := 0.0
	sourceSet := make(map[model.Source]bool)
	var textMember *model.Detection
	earliestReadingOrder := math.MaxInt
	var tieBreak model.Detection

	for i := range group {
		d := &group[i]
		union = geometry.Union(union, d.BBox)
		noisyOrComplement *= 1 - d.Confidence
		if d.Confidence > maxMinConf {
			maxMinConf = d.Confidence
		}
		sourceSet[d.Source] = true
		if d.Text != "" && (textMember == nil || d.ReadingOrder < textMember.ReadingOrder) {
			textMember = d
		}
		preferTextual := d.Text != "" && tieBreak.Text == ""
		betterOrder := d.Text != "" == (tieBreak.Text != "") && d.ReadingOrder < earliestReadingOrder
		if i == 0 || preferTextual || betterOrder {
			tieBreak = *d
			earliestReadingOrder = d.ReadingOrder
		}
	}

	confidence := 1 - noisyOrComplement
	confCap := maxMinConf + 0.05
	if confidence > confCap {
		confidence = confCap
	}
	if confidence > 1 {
		confidence = 1
	}

	source := rep.Source
	if len(sourceSet) >= 2 {
		source = model.SourceFused
	}

	text := ""
	language := ""
	if textMember != nil {
		text = textMember.Text
		language = textMember.Language
	}

	return model.Detection{
		ID:           tieBreak.ID,
		Kind:         rep.Kind,
		PageIndex:    rep.PageIndex,
		BBox:         union,
		Confidence:   confidence,
		Source:       source,
		Text:         text,
		Language:     language,
		ModelTag:     tieBreak.ModelTag,
		ReadingOrder: tieBreak.ReadingOrder,
	}
}
