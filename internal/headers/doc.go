// Package headers provides the ordered header multimap used on the relay's
// request path and the pure translation functions between it and net/http's
// header representation.
//
// A HeaderMap keeps every field occurrence, including repeated keys, in the
// order they were added. Lookup is case-insensitive; value casing is never
// touched. Translation to and from http.Header is total and side-effect-free:
// malformed header values pass through opaquely as strings.
package headers
