// Package backend models one upstream execution node and the client used to
// reach it. A Backend carries the node's identity (URL, label) and its
// observed health state; Client performs a single outbound HTTP call per
// invocation and reports the result as an Outcome rather than an error, so
// one slow or dead node never aborts callers fanning out to its siblings.
package backend
