package dice

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/dyndash/combat-provider/internal/domain"
	"github.com/dyndash/combat-provider/internal/scheduler"
	"github.com/stretchr/testify/require"
)

// recordingTarget keeps one die set and records a snapshot of the die per apply.
type recordingTarget struct {
	mu        sync.Mutex
	set       domain.DiceSet
	snapshots []domain.Die
}

func newRecordingTarget(dieType domain.DieType) *recordingTarget {
	return &recordingTarget{set: domain.DiceSet{"d1": domain.NewDie("Red", dieType)}}
}

func (t *recordingTarget) ApplyDie(_ context.Context, _ string, dieID string, change func(*domain.Die)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	d, ok := t.set[dieID]
	if !ok {
		return domain.ErrDieNotFound
	}
	if change != nil {
		change(d)
	}
	t.snapshots = append(t.snapshots, domain.Die{Info: d.Info, Rolls: append([]int(nil), d.Rolls...)})
	return nil
}

func TestRoller_StaysInRange(t *testing.T) {
	req := require.New(t)

	r := NewRoller(rand.NewPCG(1, 2))
	for _, dt := range domain.DieTypes() {
		f := dt.Faces()
		seen := map[int]bool{}
		for i := 0; i < 500; i++ {
			v := r.Roll(dt)
			req.GreaterOrEqual(v, f.Min, dt)
			req.LessOrEqual(v, f.Max, dt)
			req.Zero((v-f.Min)%f.Step, dt)
			seen[v] = true
		}
		req.Len(seen, f.Count(), "every face of %s shows up", dt)
	}
}

func TestSequencer_RollScenario(t *testing.T) {
	req := require.New(t)

	// Given
	target := newRecordingTarget(domain.DieD20)
	clock := scheduler.NewManual()
	seq := NewSequencer(target, NewRoller(rand.NewPCG(7, 7)), clock, DefaultConfig())

	// When
	_, err := seq.Roll(context.Background(), "simulated-dice", "d1", domain.DieD20)
	req.NoError(err)

	// Then: the start phase is broadcast immediately and leaves the die alone
	req.Len(target.snapshots, 1)
	req.Equal(domain.DieIdle, target.snapshots[0].Info.State)
	req.Equal(1, target.snapshots[0].Info.Face)

	clock.Advance(100 * time.Millisecond)
	req.Len(target.snapshots, 2)
	req.Equal(domain.DieRolling, target.snapshots[1].Info.State)

	clock.Advance(300 * time.Millisecond)
	req.Len(target.snapshots, 5)
	req.Empty(target.snapshots[4].Rolls)

	clock.Advance(10 * time.Millisecond)
	req.Len(target.snapshots, 6)
	req.Zero(clock.Pending())

	final := target.set["d1"]
	lastTumble := target.snapshots[4].Info.Face
	req.Equal(domain.DieRolled, final.Info.State)
	req.Equal([]int{lastTumble}, final.Rolls)
	req.Equal(lastTumble, final.Info.Face)
}

func TestSequencer_RollFunctionFixedAtRequest(t *testing.T) {
	req := require.New(t)

	target := newRecordingTarget(domain.DieD6Fudge)
	clock := scheduler.NewManual()
	seq := NewSequencer(target, NewRoller(rand.NewPCG(3, 4)), clock, DefaultConfig())

	_, err := seq.Roll(context.Background(), "simulated-dice", "d1", domain.DieD6Fudge)
	req.NoError(err)

	// The die changes type mid-roll; the faces still come from a d6fudge.
	req.NoError(target.ApplyDie(context.Background(), "", "d1", func(d *domain.Die) { d.Info.Type = domain.DieD00 }))
	clock.Advance(time.Second)

	for _, snap := range target.snapshots[2:] {
		req.Contains([]int{-1, 0, 1}, snap.Info.Face)
	}
	req.Len(target.set["d1"].Rolls, 1)
}

func TestSequencer_UnknownDie(t *testing.T) {
	req := require.New(t)

	target := newRecordingTarget(domain.DieD20)
	clock := scheduler.NewManual()
	seq := NewSequencer(target, NewRoller(nil), clock, DefaultConfig())

	_, err := seq.Roll(context.Background(), "simulated-dice", "nope", domain.DieD20)
	req.ErrorIs(err, domain.ErrDieNotFound)
	req.Zero(clock.Pending())
}

func TestSequencer_DieRemovedMidRoll(t *testing.T) {
	req := require.New(t)

	target := newRecordingTarget(domain.DieD8)
	clock := scheduler.NewManual()
	seq := NewSequencer(target, NewRoller(nil), clock, DefaultConfig())

	_, err := seq.Roll(context.Background(), "simulated-dice", "d1", domain.DieD8)
	req.NoError(err)

	clock.Advance(150 * time.Millisecond)
	target.mu.Lock()
	delete(target.set, "d1")
	target.mu.Unlock()

	req.NotPanics(func() { clock.Advance(time.Second) })
	req.Len(target.snapshots, 2)
}

func TestSequencer_OverlappingRollsBothSettle(t *testing.T) {
	req := require.New(t)

	target := newRecordingTarget(domain.DieD4)
	clock := scheduler.NewManual()
	seq := NewSequencer(target, NewRoller(nil), clock, DefaultConfig())

	_, err := seq.Roll(context.Background(), "simulated-dice", "d1", domain.DieD4)
	req.NoError(err)
	clock.Advance(50 * time.Millisecond)
	_, err = seq.Roll(context.Background(), "simulated-dice", "d1", domain.DieD4)
	req.NoError(err)

	clock.Advance(time.Second)
	req.Len(target.set["d1"].Rolls, 2)
	req.Len(target.snapshots, 12)
}
