// Package dedup suppresses marker candidates that overlap or crowd markers
// already placed on the same slide. Keyword matching can independently
// resolve two near-identical phrases to the same visual region ("공정"
// inside "8대 공정"); without this the same screen area gets doubly marked.
package dedup

import (
	"math"

	"github.com/menta2k/slidecast/pkg/types"
)

// Decision is the outcome of checking one candidate box.
type Decision int

const (
	Accepted Decision = iota
	SuppressedOverlap
	SuppressedProximity
)

// String returns a short reason label for diagnostics.
func (d Decision) String() string {
	switch d {
	case Accepted:
		return "accepted"
	case SuppressedOverlap:
		return "overlap"
	case SuppressedProximity:
		return "proximity"
	default:
		return "unknown"
	}
}

// Reason maps the decision onto the marker resolve reason recorded in the
// output records.
func (d Decision) Reason() types.ResolveReason {
	switch d {
	case SuppressedOverlap:
		return types.ReasonDedupOverlap
	case SuppressedProximity:
		return types.ReasonDedupProximity
	default:
		return types.ReasonResolved
	}
}

// Config holds suppression thresholds.
type Config struct {
	// OverlapThreshold suppresses when intersection area over the smaller
	// box's area reaches this ratio.
	OverlapThreshold float64
	// MinCenterDistance suppresses when box centers are closer than this
	// many pixels, catching near-miss re-hits from slightly different OCR
	// boxes.
	MinCenterDistance float64
}

// Deduplicator tracks the boxes accepted so far for a single slide. It is
// mutable per-slide state: each concurrent slide worker owns its own
// instance and instances are never shared across slides.
type Deduplicator struct {
	config   Config
	accepted []types.Box
}

// New creates a Deduplicator with default thresholds.
func New() *Deduplicator {
	return NewWithConfig(Config{
		OverlapThreshold:  0.3,
		MinCenterDistance: 80,
	})
}

// NewWithConfig creates a Deduplicator with custom thresholds.
func NewWithConfig(config Config) *Deduplicator {
	return &Deduplicator{config: config}
}

// Check decides whether candidate duplicates an already-accepted box. It
// records nothing: callers Accept the box once the marker is actually
// placed, so a candidate whose overlay later fails to render never
// suppresses other markers.
func (d *Deduplicator) Check(candidate types.Box) Decision {
	for _, prev := range d.accepted {
		if d.overlapRatio(candidate, prev) >= d.config.OverlapThreshold {
			return SuppressedOverlap
		}
	}
	for _, prev := range d.accepted {
		if centerDistance(candidate, prev) < d.config.MinCenterDistance {
			return SuppressedProximity
		}
	}
	return Accepted
}

// Accept records a placed box so subsequent Check calls suppress against it.
func (d *Deduplicator) Accept(box types.Box) {
	d.accepted = append(d.accepted, box)
}

// Accepted returns the boxes accepted so far, in acceptance order.
func (d *Deduplicator) Accepted() []types.Box {
	return d.accepted
}

func (d *Deduplicator) overlapRatio(a, b types.Box) float64 {
	inter, ok := a.Intersect(b)
	if !ok {
		return 0
	}
	minArea := math.Min(a.Area(), b.Area())
	if minArea <= 0 {
		return 0
	}
	return inter.Area() / minArea
}

func centerDistance(a, b types.Box) float64 {
	ax, ay := a.Center()
	bx, by := b.Center()
	return math.Hypot(ax-bx, ay-by)
}
