// Package selector reduces a joined set of backend outcomes to the single
// response the relay returns upstream. Policies are pluggable, mirror the
// strategy pattern used for backend selection in classic load balancers, and
// are total over any non-empty result set: when every backend failed they
// synthesize an upstream-unavailable response instead of picking one.
package selector
