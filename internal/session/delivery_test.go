package session

import (
	"testing"

	"github.com/liveinsight/companion/internal/answer"
)

func res(text string) answer.Result {
	return answer.Result{Kind: answer.KindSuccess, Text: text}
}

func TestInOrderArrivalsReleaseImmediately(t *testing.T) {
	b := newDeliveryBuffer(1)

	got := b.Add(outcome{seq: 1, res: res("a1")})
	if len(got) != 1 || got[0].seq != 1 {
		t.Fatalf("Add(1) released %v", got)
	}
	got = b.Add(outcome{seq: 2, res: res("a2")})
	if len(got) != 1 || got[0].seq != 2 {
		t.Fatalf("Add(2) released %v", got)
	}
}

func TestOutOfOrderHeldUntilPredecessor(t *testing.T) {
	b := newDeliveryBuffer(1)

	if got := b.Add(outcome{seq: 2, res: res("a2")}); len(got) != 0 {
		t.Fatalf("early result released: %v", got)
	}
	if b.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", b.Pending())
	}

	got := b.Add(outcome{seq: 1, res: res("a1")})
	if len(got) != 2 {
		t.Fatalf("released %d outcomes, want 2", len(got))
	}
	if got[0].seq != 1 || got[1].seq != 2 {
		t.Errorf("release order = %d,%d", got[0].seq, got[1].seq)
	}
}

func TestLongGapReleasesWholeRun(t *testing.T) {
	b := newDeliveryBuffer(1)
	b.Add(outcome{seq: 3, res: res("a3")})
	b.Add(outcome{seq: 2, res: res("a2")})
	b.Add(outcome{seq: 4, res: res("a4")})

	got := b.Add(outcome{seq: 1, res: res("a1")})
	if len(got) != 4 {
		t.Fatalf("released %d outcomes, want 4", len(got))
	}
	for i, o := range got {
		if o.seq != uint64(i+1) {
			t.Errorf("position %d has seq %d", i, o.seq)
		}
	}
	if b.Pending() != 0 {
		t.Errorf("Pending = %d after full release", b.Pending())
	}
}

func TestResetDropsStaleResults(t *testing.T) {
	b := newDeliveryBuffer(1)
	b.Add(outcome{seq: 2, res: res("late")})
	b.Reset(3)

	// Results from before the reset must never surface.
	if got := b.Add(outcome{seq: 1, res: res("stale")}); len(got) != 0 {
		t.Errorf("stale result released: %v", got)
	}
	if got := b.Add(outcome{seq: 2, res: res("stale")}); len(got) != 0 {
		t.Errorf("stale result released: %v", got)
	}
	if got := b.Add(outcome{seq: 3, res: res("fresh")}); len(got) != 1 {
		t.Errorf("fresh result not released: %v", got)
	}
}
