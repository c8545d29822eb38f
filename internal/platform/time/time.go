// Package time holds the few time helpers shared by the ledger, executor and mailbox
package time

import "time"

// Stamp is a sortable UTC stamp safe for file and directory names, e.g. 2026-03-04_05-06-07.891
func Stamp(t time.Time) string { return t.UTC().Format("2006-01-02_15-04-05.000") }

// Millis is d in whole milliseconds; negative durations clamp to zero
func Millis(d time.Duration) int64 { return max(d, 0).Milliseconds() }

// Ptr returns &t, or nil for the zero time so optional timestamps stay absent
func Ptr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
