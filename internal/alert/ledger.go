package alert

import "sync"

// Ledger remembers every alert fired during the process lifetime, keyed by
// symbol + candle. It only grows, which is fine: one entry per (symbol,
// candle) pair bounds it by minutes of runtime times symbol count.
type Ledger struct {
	mu   sync.Mutex
	sent map[string]struct{}
}

func NewLedger() *Ledger {
	return &Ledger{sent: make(map[string]struct{})}
}

func (l *Ledger) Seen(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.sent[id]
	return ok
}

func (l *Ledger) Add(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sent[id] = struct{}{}
}

func (l *Ledger) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sent)
}
