package answer

import "sync"

// answersPerCredit is how many successful answers one credit buys.
const answersPerCredit = 2

// Meter tracks answering credit locally between reconciles with the
// service. One credit covers two successful answers; the half-used
// state lives in pending. Only successes advance the meter.
type Meter struct {
	mu      sync.Mutex
	credits int
	// pending is the count of successes since the last consume,
	// always 0 or 1.
	pending int
}

// NewMeter starts a meter at the given balance.
func NewMeter(credits int) *Meter {
	return &Meter{credits: credits}
}

// CanSpend reports whether another question may be asked.
func (m *Meter) CanSpend() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.credits > 0
}

// RecordSuccess advances the meter for one successful answer and
// reports whether this success completed a credit, meaning the caller
// must consume one remotely.
func (m *Meter) RecordSuccess() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending++
	if m.pending < answersPerCredit {
		return false
	}
	m.pending = 0
	if m.credits > 0 {
		m.credits--
	}
	return true
}

// Reconcile replaces the local balance with the service's count. The
// remote value always wins; the half-used marker is preserved so a
// reconcile between two successes does not grant a free answer.
func (m *Meter) Reconcile(remote int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if remote < 0 {
		remote = 0
	}
	m.credits = remote
}

// Credits returns the current local balance.
func (m *Meter) Credits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.credits
}

// UntilNextCredit reports how many more successful answers will
// complete the current credit.
func (m *Meter) UntilNextCredit() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return answersPerCredit - m.pending
}

// Answerable is the worst-case number of successful answers the local
// balance still covers, floor(credits * 2) minus progress already
// made on the current credit.
func (m *Meter) Answerable() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.credits <= 0 {
		return 0
	}
	return m.credits*answersPerCredit - m.pending
}
