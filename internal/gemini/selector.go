package gemini

import (
	"math/rand/v2"
	"sync"
)

// Selection strategies.
const (
	StrategyBalance = "balance"
	StrategyRandom  = "random"
)

// failurePenalty weighs a failed call against a plain request when balancing.
const failurePenalty = 5

type modelUsage struct {
	requests int
	failures int
}

// selector picks a model for each call. Usage counts are process-wide.
type selector struct {
	mu    sync.Mutex
	usage map[string]*modelUsage
	intn  func(n int) int
}

func newSelector() *selector {
	return &selector{
		usage: make(map[string]*modelUsage),
		intn:  rand.IntN,
	}
}

// pick chooses one of models. Balance takes the least loaded model, ties
// going to the earlier entry; random picks uniformly.
func (s *selector) pick(models []string, strategy string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var chosen string
	if strategy == StrategyRandom {
		chosen = models[s.intn(len(models))]
	} else {
		best := -1
		for _, m := range models {
			u := s.usage[m]
			score := 0
			if u != nil {
				score = u.requests + failurePenalty*u.failures
			}
			if best < 0 || score < best {
				best = score
				chosen = m
			}
		}
	}

	u := s.usage[chosen]
	if u == nil {
		u = &modelUsage{}
		s.usage[chosen] = u
	}
	u.requests++
	return chosen
}

// record notes the outcome of a call made with model.
func (s *selector) record(model string, err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.usage[model]
	if u == nil {
		u = &modelUsage{}
		s.usage[model] = u
	}
	u.failures++
}
