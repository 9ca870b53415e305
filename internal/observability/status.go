package observability

import (
	"log/slog"
	"sync"
)

// StatusObserver counts suggestion outcomes per status and logs each one.
// A nil observer is valid and records nothing.
type StatusObserver struct {
	logger *slog.Logger

	mu     sync.Mutex
	counts map[string]int64
}

func NewStatusObserver(logger *slog.Logger) *StatusObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusObserver{
		logger: logger,
		counts: make(map[string]int64),
	}
}

// Record counts one outcome. domains is the number of suggestions returned.
func (o *StatusObserver) Record(status string, domains int, reason string) {
	if o == nil {
		return
	}
	o.mu.Lock()
	o.counts[status]++
	count := o.counts[status]
	o.mu.Unlock()

	attrs := []any{"status", status, "domains", domains, "count", count}
	if reason != "" {
		attrs = append(attrs, "reason", reason)
	}
	if status == "error" {
		o.logger.Warn("suggestion failed", attrs...)
	} else {
		o.logger.Info("suggestion served", attrs...)
	}

	// Repeated failures get a louder line every tenth occurrence.
	if status == "error" && count%10 == 0 {
		o.logger.Error("suggestion error spike", "count", count)
	}
}

// Snapshot returns a copy of the counters.
func (o *StatusObserver) Snapshot() map[string]int64 {
	out := make(map[string]int64)
	if o == nil {
		return out
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	for k, v := range o.counts {
		out[k] = v
	}
	return out
}
