package mysterybox

import (
	"math/rand"
	"sort"
	"sync"
	"time"
)

// Weighted rarity sampler. Labels are walked in sorted order, so for a
// fixed seed and weight map the draw sequence is reproducible in audits.
type Sampler struct {
	mtx sync.Mutex
	rnd *rand.Rand
}

func NewSampler() (self *Sampler) {
	self = new(Sampler)
	self.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	return
}

func (self *Sampler) WithRand(rnd *rand.Rand) *Sampler {
	self.rnd = rnd
	return self
}

func (self *Sampler) Sample(weights map[string]int64) (rarity string, err error) {
	var total int64
	labels := make([]string, 0, len(weights))
	for label, weight := range weights {
		if weight < 0 {
			continue
		}
		labels = append(labels, label)
		total += weight
	}
	if total <= 0 {
		return "", ErrNoPositiveWeights
	}
	sort.Strings(labels)

	self.mtx.Lock()
	draw := self.rnd.Int63n(total)
	self.mtx.Unlock()

	var cumulative int64
	for _, label := range labels {
		cumulative += weights[label]
		if draw < cumulative {
			return label, nil
		}
	}

	// Unreachable, the draw is always below the total
	return labels[len(labels)-1], nil
}
