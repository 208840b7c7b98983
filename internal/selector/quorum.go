package selector

import (
	"fmt"
	"net/http"

	"github.com/PixelNoob/executionbackup/internal/fanout"
)

type quorumPolicy struct {
	threshold float64
}

// NewQuorumPolicy returns a strict-agreement policy: a response body must be
// byte-identical across at least threshold (0..1] of the successful backends
// before it is trusted. The representative entry is the earliest agreeing
// one in configured order. Without a quorum the relay refuses to pick a
// side and answers 502.
func NewQuorumPolicy(threshold float64) Policy {
	return &quorumPolicy{threshold: threshold}
}

func (p *quorumPolicy) Select(results fanout.AggregatedResult) Decision {
	successes := results.Successes()
	if len(successes) == 0 {
		return unavailable(results)
	}

	counts := make(map[string]int, len(successes))
	for _, r := range successes {
		counts[string(r.Outcome.Body)]++
	}

	majorityCount := 0
	for _, count := range counts {
		if count > majorityCount {
			majorityCount = count
		}
	}

	// earliest body reaching the max count wins, so equal-sized camps
	// resolve by configured order
	majorityBody := ""
	for _, r := range successes {
		if counts[string(r.Outcome.Body)] == majorityCount {
			majorityBody = string(r.Outcome.Body)
			break
		}
	}

	if float64(majorityCount)/float64(len(successes)) < p.threshold {
		return synthesize(http.StatusBadGateway,
			fmt.Sprintf("no quorum: best agreement %d of %d successful backends", majorityCount, len(successes)))
	}

	// earliest agreeing entry keeps the choice deterministic
	for _, r := range successes {
		if string(r.Outcome.Body) == majorityBody {
			return forward(r)
		}
	}

	// unreachable: majorityBody came from successes
	return unavailable(results)
}
