package api

import (
	"sync"

	"sentinel/internal/finding"
	"sentinel/internal/output"
)

// FindingsBuffer retains recent findings in memory so the API can serve them.
// It implements output.Publisher and is meant to sit in front of the real
// sink: record here, then forward.
type FindingsBuffer struct {
	findings []finding.Finding
	maxSize  int
	next     output.Publisher
	mu       sync.RWMutex
}

// NewFindingsBuffer creates a buffer holding at most maxSize findings,
// forwarding each one to next (which may be nil).
func NewFindingsBuffer(maxSize int, next output.Publisher) *FindingsBuffer {
	return &FindingsBuffer{
		findings: make([]finding.Finding, 0, maxSize),
		maxSize:  maxSize,
		next:     next,
	}
}

// Publish records the finding and forwards it downstream. A downstream
// failure is returned so the caller can retry; the buffer keeps its copy
// either way.
func (b *FindingsBuffer) Publish(f *finding.Finding) error {
	if f == nil {
		return nil
	}

	b.mu.Lock()
	b.findings = append(b.findings, *f)
	if len(b.findings) > b.maxSize {
		b.findings = b.findings[1:]
	}
	b.mu.Unlock()

	if b.next != nil {
		return b.next.Publish(f)
	}
	return nil
}

// Close closes the downstream publisher.
func (b *FindingsBuffer) Close() error {
	if b.next != nil {
		return b.next.Close()
	}
	return nil
}

// Recent returns one page of findings, newest first, optionally filtered by
// minimum severity, plus the total matching count.
func (b *FindingsBuffer) Recent(minSeverity finding.Severity, page, pageSize int) ([]finding.Finding, int) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	matched := make([]finding.Finding, 0, len(b.findings))
	for i := len(b.findings) - 1; i >= 0; i-- {
		if b.findings[i].Severity.AtLeast(minSeverity) {
			matched = append(matched, b.findings[i])
		}
	}

	total := len(matched)
	start := (page - 1) * pageSize
	end := start + pageSize

	if start >= total {
		return []finding.Finding{}, total
	}
	if end > total {
		end = total
	}
	return matched[start:end], total
}

// Count returns how many findings are buffered.
func (b *FindingsBuffer) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.findings)
}
