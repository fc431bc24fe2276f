// Package watcher delivers create and modify notifications for regular files
// inside a watched directory.
//
// Events are best effort: bursts of writes to the same path are coalesced by a
// short debounce window, and directory events never reach callbacks. Callers
// that need "has writing stopped" semantics should layer a quiescence check on
// top rather than rely on exact event counts.
package watcher
