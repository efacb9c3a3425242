package dedup

import (
	"testing"

	"github.com/menta2k/slidecast/pkg/types"
)

func TestOverlapSuppression(t *testing.T) {
	d := New()

	first := types.Box{X0: 100, Y0: 100, X1: 300, Y1: 200}
	if got := d.Check(first); got != Accepted {
		t.Fatalf("first box: got %v, want Accepted", got)
	}
	d.Accept(first)

	// Second box covers half of the first: ratio 0.5 >= 0.3.
	dup := types.Box{X0: 200, Y0: 100, X1: 400, Y1: 200}
	if got := d.Check(dup); got != SuppressedOverlap {
		t.Errorf("overlapping box: got %v, want SuppressedOverlap", got)
	}
	if len(d.Accepted()) != 1 {
		t.Errorf("suppressed box must not be recorded, accepted=%d", len(d.Accepted()))
	}
}

func TestCheckDoesNotRecord(t *testing.T) {
	d := New()

	box := types.Box{X0: 0, Y0: 0, X1: 100, Y1: 100}
	if d.Check(box) != Accepted {
		t.Fatal("empty state should accept")
	}
	// Checking alone leaves no trace; only Accept records.
	if got := d.Check(box); got != Accepted {
		t.Errorf("unaccepted box suppressed a later check: %v", got)
	}
	if len(d.Accepted()) != 0 {
		t.Errorf("Check must not mutate state, accepted=%d", len(d.Accepted()))
	}
}

func TestSmallOverlapFarApartAccepted(t *testing.T) {
	d := New()

	a := types.Box{X0: 0, Y0: 0, X1: 100, Y1: 100}
	// 10x10 intersection over min area 10000 -> ratio 0.01; centers are
	// (50,50) and (140,140): distance ~127px.
	b := types.Box{X0: 90, Y0: 90, X1: 190, Y1: 190}

	if got := d.Check(a); got != Accepted {
		t.Fatalf("a: got %v, want Accepted", got)
	}
	d.Accept(a)
	if got := d.Check(b); got != Accepted {
		t.Errorf("b: got %v, want Accepted", got)
	}
	d.Accept(b)
	if len(d.Accepted()) != 2 {
		t.Errorf("accepted=%d, want 2", len(d.Accepted()))
	}
}

func TestProximitySuppression(t *testing.T) {
	d := New()

	a := types.Box{X0: 100, Y0: 100, X1: 150, Y1: 130}
	// No overlap but centers 60px apart horizontally (< 80).
	b := types.Box{X0: 160, Y0: 100, X1: 210, Y1: 130}

	if got := d.Check(a); got != Accepted {
		t.Fatalf("a: got %v, want Accepted", got)
	}
	d.Accept(a)
	if got := d.Check(b); got != SuppressedProximity {
		t.Errorf("b: got %v, want SuppressedProximity", got)
	}
}

func TestOverlapRatioUsesSmallerBox(t *testing.T) {
	d := New()

	big := types.Box{X0: 0, Y0: 0, X1: 1000, Y1: 1000}
	d.Accept(big)
	// Tiny box fully inside the big one: intersection/min-area = 1.0 even
	// though it covers almost none of the big box.
	tiny := types.Box{X0: 900, Y0: 900, X1: 920, Y1: 920}
	if got := d.Check(tiny); got != SuppressedOverlap {
		t.Errorf("contained box: got %v, want SuppressedOverlap", got)
	}
}

func TestReasonMapping(t *testing.T) {
	cases := []struct {
		dec  Decision
		want types.ResolveReason
	}{
		{Accepted, types.ReasonResolved},
		{SuppressedOverlap, types.ReasonDedupOverlap},
		{SuppressedProximity, types.ReasonDedupProximity},
	}
	for _, c := range cases {
		if got := c.dec.Reason(); got != c.want {
			t.Errorf("%v.Reason() = %v, want %v", c.dec, got, c.want)
		}
	}
}

func TestEachSlideOwnsItsOwnState(t *testing.T) {
	a := New()
	b := New()

	box := types.Box{X0: 0, Y0: 0, X1: 100, Y1: 100}
	a.Accept(box)
	// A fresh instance has no memory of another slide's markers.
	if got := b.Check(box); got != Accepted {
		t.Errorf("independent deduplicator: got %v, want Accepted", got)
	}
}
