package app

import (
	"fmt"
	"log"
	"sync"
	"time"
)

const (
	sysLogMaxEntries = 500
	apiLogMaxEntries = 200
)

// SysLogEntry is a single system log line.
type SysLogEntry struct {
	Time    time.Time
	Package string
	Message string
}

// APILogEntry records a single outbound HTTP call.
type APILogEntry struct {
	Time     time.Time
	Service  string
	Method   string
	URL      string
	Status   int
	Duration time.Duration
	Error    string
}

// ring keeps the newest max entries.
type ring[T any] struct {
	mu      sync.Mutex
	max     int
	entries []*T
}

func (r *ring[T]) add(e *T) {
	r.mu.Lock()
	r.entries = append(r.entries, e)
	if len(r.entries) > r.max {
		r.entries = r.entries[len(r.entries)-r.max:]
	}
	r.mu.Unlock()
}

// newest returns a copy in reverse-chronological order.
func (r *ring[T]) newest() []*T {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*T, len(r.entries))
	for i, e := range r.entries {
		result[len(r.entries)-1-i] = e
	}
	return result
}

func (r *ring[T]) reset() {
	r.mu.Lock()
	r.entries = nil
	r.mu.Unlock()
}

var (
	sysLog = &ring[SysLogEntry]{max: sysLogMaxEntries}
	apiLog = &ring[APILogEntry]{max: apiLogMaxEntries}
)

// Log writes a message for the given package to stdout and the system log.
func Log(pkg, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("[%s] %s", pkg, msg)
	sysLog.add(&SysLogEntry{
		Time:    time.Now(),
		Package: pkg,
		Message: msg,
	})
}

// GetSysLog returns the system log, newest first.
func GetSysLog() []*SysLogEntry {
	return sysLog.newest()
}

// RecordAPICall appends an outbound call record to the in-memory log.
// When the log exceeds apiLogMaxEntries the oldest entry is dropped.
func RecordAPICall(service, method, url string, status int, duration time.Duration, callErr error) {
	entry := &APILogEntry{
		Time:     time.Now(),
		Service:  service,
		Method:   method,
		URL:      url,
		Status:   status,
		Duration: duration,
	}
	if callErr != nil {
		entry.Error = callErr.Error()
	}
	apiLog.add(entry)
}

// GetAPILog returns the API log entries, newest first.
func GetAPILog() []*APILogEntry {
	return apiLog.newest()
}

// ResetLogs clears both in-memory logs.
func ResetLogs() {
	sysLog.reset()
	apiLog.reset()
}
