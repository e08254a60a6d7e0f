// Package refresh recomputes stale cache entries in the background.
//
// A Scheduler owns at most one refresh per query at a time. Triggers for a
// query whose refresh is still running are ignored, so a burst of stale reads
// costs one recomputation. Refresh failures are logged and counted but never
// reach the reader that triggered them; the stale entry stays in place and
// the next stale read tries again.
package refresh
