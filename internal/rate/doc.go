// Package rate provides Redis-backed fixed-window counters used to throttle
// logins and general API traffic.
//
// # Window semantics
//
// Fixed-window counters: INCR + EXPIRE on the first hit of a window. Key layout
// under the configured prefix:
//   - <prefix>:login:u:<username>: failed logins per username
//   - <prefix>:login:ip:<ip>     : failed logins per client IP
//   - <prefix>:req:<key>         : requests per client key
//
// # What this package must NOT do
//
//   - Decide which callers are throttled (the Engine does).
//   - Be imported outside the goSeal module.
package rate
