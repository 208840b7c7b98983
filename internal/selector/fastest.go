package selector

import "github.com/PixelNoob/executionbackup/internal/fanout"

type fastestPolicy struct{}

// NewFastestPolicy returns the default policy: the lowest-latency healthy
// success wins, configured order breaks ties. With no healthy success it
// falls back to the lowest-latency success of any status, and with no
// successes at all it synthesizes an unavailable response.
func NewFastestPolicy() Policy {
	return &fastestPolicy{}
}

func (p *fastestPolicy) Select(results fanout.AggregatedResult) Decision {
	successes := results.Successes()
	if len(successes) == 0 {
		return unavailable(results)
	}

	if best, ok := fastestSuccess(onlyHealthy(successes)); ok {
		return forward(best)
	}

	best, _ := fastestSuccess(successes)
	return forward(best)
}
