package dice

import (
	"math/rand/v2"
	"sync"

	"github.com/dyndash/combat-provider/internal/domain"
)

// Roller draws uniformly distributed faces for a die type.
type Roller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRoller returns a Roller backed by src, or by the global generator when src is nil.
func NewRoller(src rand.Source) *Roller {
	r := &Roller{}
	if src != nil {
		r.rng = rand.New(src)
	}
	return r
}

// Roll returns one face of t: Min + Step*k for a uniform k.
func (r *Roller) Roll(t domain.DieType) int {
	f := t.Faces()
	return f.Min + f.Step*r.intN(f.Count())
}

// RollFunc binds the roll function of t so later draws use it even if the
// die changes type in between.
func (r *Roller) RollFunc(t domain.DieType) func() int {
	return func() int { return r.Roll(t) }
}

func (r *Roller) intN(n int) int {
	if r.rng == nil {
		return rand.IntN(n)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}
