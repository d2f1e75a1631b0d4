package session

import "github.com/liveinsight/companion/internal/answer"

// outcome is one question's terminal result waiting for ordered
// delivery.
type outcome struct {
	seq      uint64
	question string
	res      answer.Result
}

// deliveryBuffer releases outcomes strictly in question order.
// Questions resolve with wildly different latencies; a result that
// arrives early is held until every predecessor has been released.
type deliveryBuffer struct {
	next uint64
	held map[uint64]outcome
}

func newDeliveryBuffer(next uint64) *deliveryBuffer {
	return &deliveryBuffer{next: next, held: map[uint64]outcome{}}
}

// Add stores one outcome and returns the run of outcomes that are now
// deliverable, in order. Outcomes below the release cursor are stale
// results from a stopped pipeline and are dropped.
func (b *deliveryBuffer) Add(o outcome) []outcome {
	if o.seq < b.next {
		return nil
	}
	b.held[o.seq] = o

	var ready []outcome
	for {
		next, ok := b.held[b.next]
		if !ok {
			return ready
		}
		delete(b.held, b.next)
		b.next++
		ready = append(ready, next)
	}
}

// Reset drops everything held and moves the release cursor, so
// results from canceled jobs can never surface later.
func (b *deliveryBuffer) Reset(next uint64) {
	b.next = next
	b.held = map[uint64]outcome{}
}

// Pending reports how many outcomes are held out of order.
func (b *deliveryBuffer) Pending() int { return len(b.held) }
