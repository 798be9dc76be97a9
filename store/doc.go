// Package store holds the repositories used by the goSeal server: principals
// (in memory or in Redis) and posts.
//
// Every type here is safe for concurrent use. Listing returns items in
// insertion order.
package store
