package dice

import (
	"context"
	"sync"
	"time"

	"github.com/dyndash/combat-provider/internal/domain"
	"github.com/dyndash/combat-provider/internal/scheduler"
	"github.com/dyndash/combat-provider/pkg/log"
)

// Config controls the pacing of a roll.
type Config struct {
	TumbleInterval time.Duration
	TumbleCount    int
	SettleDelay    time.Duration
}

func DefaultConfig() Config {
	return Config{
		TumbleInterval: 100 * time.Millisecond,
		TumbleCount:    4,
		SettleDelay:    10 * time.Millisecond,
	}
}

// Target applies a change to one die and broadcasts the resulting document.
// A nil change broadcasts the document as it is.
type Target interface {
	ApplyDie(ctx context.Context, source, dieID string, change func(*domain.Die)) error
}

// Phase identifies a step of a roll.
type Phase int

const (
	PhaseStart Phase = iota
	PhaseTumble
	PhaseSettle
)

func (p Phase) String() string {
	switch p {
	case PhaseStart:
		return "start"
	case PhaseTumble:
		return "tumble"
	case PhaseSettle:
		return "settle"
	default:
		return "unknown"
	}
}

// Sequencer drives a roll as discrete timed phases: an immediate start
// broadcast, TumbleCount tumbles TumbleInterval apart, then a settle
// SettleDelay after the last tumble that records the last tumbled face.
//
// Overlapping rolls of the same die are not serialized; each keeps its own
// phases and they interleave on the shared die.
type Sequencer struct {
	target Target
	roller *Roller
	sched  scheduler.Scheduler
	config Config
}

func NewSequencer(target Target, roller *Roller, sched scheduler.Scheduler, cfg Config) *Sequencer {
	if cfg.TumbleCount < 0 {
		cfg.TumbleCount = 0
	}
	return &Sequencer{
		target: target,
		roller: roller,
		sched:  sched,
		config: cfg,
	}
}

// roll is the state one roll request carries across its phases.
type roll struct {
	mu   sync.Mutex
	draw func() int
	last int
}

func (r *roll) next() int {
	face := r.draw()
	r.mu.Lock()
	r.last = face
	r.mu.Unlock()
	return face
}

func (r *roll) result() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Roll broadcasts the start phase and schedules the rest. dieType selects
// the roll function for the whole sequence. It returns the provisional
// result of the start phase.
func (s *Sequencer) Roll(ctx context.Context, source, dieID string, dieType domain.DieType) (int, error) {
	ctx = context.WithoutCancel(ctx)
	r := &roll{draw: s.roller.RollFunc(dieType)}

	provisional := r.next()
	if err := s.target.ApplyDie(ctx, source, dieID, nil); err != nil {
		return 0, err
	}

	for i := 1; i <= s.config.TumbleCount; i++ {
		s.sched.AfterFunc(time.Duration(i)*s.config.TumbleInterval, func() {
			face := r.next()
			s.apply(ctx, source, dieID, PhaseTumble, func(d *domain.Die) { d.Tumble(face) })
		})
	}

	settleAt := time.Duration(s.config.TumbleCount)*s.config.TumbleInterval + s.config.SettleDelay
	s.sched.AfterFunc(settleAt, func() {
		result := r.result()
		s.apply(ctx, source, dieID, PhaseSettle, func(d *domain.Die) { d.Settle(result) })
	})

	return provisional, nil
}

func (s *Sequencer) apply(ctx context.Context, source, dieID string, phase Phase, change func(*domain.Die)) {
	if err := s.target.ApplyDie(ctx, source, dieID, change); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).
			Str(log.FieldSource, source).
			Str(log.FieldDieID, dieID).
			Stringer("phase", phase).
			Msg("roll phase skipped")
	}
}
