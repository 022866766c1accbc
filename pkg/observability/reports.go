package observability

import (
	"context"
	"sync"

	"github.com/aretw0/autopilot/pkg/domain"
)

// DefaultReportCapacity bounds the report log.
const DefaultReportCapacity = 100

// ReportLog keeps the most recent failure reports. It implements ports.Reporter.
type ReportLog struct {
	mu    sync.Mutex
	buf   []domain.Report
	next  int
	full  bool
	limit int
}

// NewReportLog creates a log holding at most capacity reports.
func NewReportLog(capacity int) *ReportLog {
	if capacity <= 0 {
		capacity = DefaultReportCapacity
	}
	return &ReportLog{buf: make([]domain.Report, capacity), limit: capacity}
}

// Report appends r, evicting the oldest report when full.
func (l *ReportLog) Report(_ context.Context, r domain.Report) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf[l.next] = r
	l.next = (l.next + 1) % l.limit
	if l.next == 0 {
		l.full = true
	}
}

// Recent returns the stored reports, oldest first.
func (l *ReportLog) Recent() []domain.Report {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.full {
		return append([]domain.Report(nil), l.buf[:l.next]...)
	}
	out := make([]domain.Report, 0, l.limit)
	out = append(out, l.buf[l.next:]...)
	return append(out, l.buf[:l.next]...)
}
