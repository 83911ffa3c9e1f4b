// Package notify fans progress-change events out to interested subscribers.
//
// The hub carries narrow, typed events rather than generic invalidation
// signals: a subscriber learns which user and episode changed and can decide
// for itself what to refresh. Publishing never blocks; slow subscribers drop
// events instead of stalling the writer.
package notify
