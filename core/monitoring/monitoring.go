package monitoring

import (
	"sync"
	"time"
)

// Monitor reports errors to an external tracker.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Flush(timeout time.Duration)
}

// NopMonitor drops every report.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Flush(time.Duration)                       {}

var (
	mu      sync.RWMutex
	current Monitor = NopMonitor{}
)

// Init sets the process-wide monitor. A nil monitor is ignored.
func Init(m Monitor) {
	if m == nil {
		return
	}
	mu.Lock()
	current = m
	mu.Unlock()
}

// CaptureException reports err with optional tags.
func CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	mu.RLock()
	m := current
	mu.RUnlock()
	m.CaptureException(err, tags)
}

// Flush waits up to d for buffered reports to be sent.
func Flush(d time.Duration) {
	mu.RLock()
	m := current
	mu.RUnlock()
	m.Flush(d)
}
