package selector

import "github.com/PixelNoob/executionbackup/internal/fanout"

type firstHealthyPolicy struct{}

// NewFirstHealthyPolicy returns a policy that forwards the first healthy
// success in configured order, ignoring latency entirely. Fallbacks match
// the fastest policy.
func NewFirstHealthyPolicy() Policy {
	return &firstHealthyPolicy{}
}

func (p *firstHealthyPolicy) Select(results fanout.AggregatedResult) Decision {
	successes := results.Successes()
	if len(successes) == 0 {
		return unavailable(results)
	}

	if candidates := onlyHealthy(successes); len(candidates) > 0 {
		return forward(candidates[0])
	}

	best, _ := fastestSuccess(successes)
	return forward(best)
}
