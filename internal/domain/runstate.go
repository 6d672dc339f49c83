package domain

// Defaulter is a recipient listed in an admin report: either one without a
// usable number or one whose number the channel rejected.
type Defaulter struct {
	Name    string
	Number  string
	Balance *int
}

// RunState accumulates per-run bookkeeping consumed by the admin report at
// batch and run boundaries. Owned exclusively by the single active run.
type RunState struct {
	NoNumber       []Defaulter
	InvalidNumbers []Defaulter
}

// Ledger is the per-run set of numbers already successfully contacted. A
// number enters only after at least one attempted content kind succeeded.
// Never persisted and never shared across runs.
type Ledger struct {
	sent map[string]struct{}
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{sent: make(map[string]struct{})}
}

// Contains reports whether the number was already contacted in this run.
func (l *Ledger) Contains(number string) bool {
	_, ok := l.sent[number]
	return ok
}

// Mark records a successfully contacted number.
func (l *Ledger) Mark(number string) {
	l.sent[number] = struct{}{}
}

// Len returns the number of ledgered entries.
func (l *Ledger) Len() int { return len(l.sent) }
