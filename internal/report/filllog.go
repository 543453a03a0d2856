package report

import "sync"

// FillLog accumulates waitlist fill outcomes between report runs. The event
// subscription appends as cancellations are processed; the report job drains
// everything collected since the previous run.
type FillLog struct {
	mu      sync.Mutex
	records []FillRecord
}

// NewFillLog constructs an empty log.
func NewFillLog() *FillLog {
	return &FillLog{}
}

// Append records one fill outcome.
func (l *FillLog) Append(r FillRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, r)
}

// Drain returns the accumulated records and resets the log.
func (l *FillLog) Drain() []FillRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.records
	l.records = nil
	return out
}
