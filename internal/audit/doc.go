// Package audit relays security-relevant events (logins, token verification
// failures, content integrity rejections) to a pluggable [Sink].
//
// The [Dispatcher] buffers events and delivers them from a single goroutine.
// When DropIfFull is set, a full buffer drops the event and increments
// [Dispatcher.Dropped] instead of blocking the request path.
//
// This package does not decide which events to emit; the Engine does.
package audit
