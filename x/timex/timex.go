package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// Ms converts a millisecond count from configuration to a Duration.
// Non-positive values yield def.
func Ms(ms int, def time.Duration) time.Duration {
	if ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

// ResetTimer stops, drains and re-arms t. Negative durations fire at once.
func ResetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		DrainTimer(t)
	}
	if d < 0 {
		d = 0
	}
	t.Reset(d)
}

// DrainTimer empties t.C without blocking.
func DrainTimer(t *time.Timer) {
	select {
	case <-t.C:
	default:
	}
}
