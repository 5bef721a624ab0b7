// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package armed implements a deadline-guarded two-state flag: a flag that is
// set for a fixed window and silently reverts once the window has passed.
// Expiry is evaluated lazily against a supplied time instead of with a
// deferred callback, so the flag never fires on its own.
package armed

import "time"

// Flag is armed until its deadline. The zero value is disarmed.
type Flag struct {
	until time.Time
	set   bool
}

// Arm sets the flag until now+window, replacing any earlier deadline.
func (f *Flag) Arm(now time.Time, window time.Duration) {
	f.until = now.Add(window)
	f.set = true
}

// Disarm clears the flag.
func (f *Flag) Disarm() {
	*f = Flag{}
}

// Armed reports whether the flag is set at now. The deadline itself is
// exclusive: at exactly now == deadline the flag has lapsed.
func (f Flag) Armed(now time.Time) bool {
	return f.set && now.Before(f.until)
}

// Expired reports whether the flag was armed and its window has passed.
func (f Flag) Expired(now time.Time) bool {
	return f.set && !now.Before(f.until)
}

// Until returns the deadline and whether the flag was ever armed.
func (f Flag) Until() (time.Time, bool) {
	return f.until, f.set
}
