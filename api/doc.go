// Package api is the goseal HTTP API: registration, login, content signing,
// users and posts. Mutating post routes require a bound token whose signed
// content matches the request body exactly.
package api
